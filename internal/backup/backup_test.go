package backup_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/maintenance-notebook/internal/backup"
	"github.com/Tiliavir/maintenance-notebook/internal/model"
	"github.com/Tiliavir/maintenance-notebook/internal/storage"
)

func TestParseStorageEnvelope(t *testing.T) {
	env, err := backup.ParseBackupText(`{"meta":{},"storage":{"k":"v"}}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, env.Meta)
	assert.Equal(t, map[string]string{"k": "v"}, env.Storage)
}

func TestParseNotJSON(t *testing.T) {
	_, err := backup.ParseBackupText("not json")
	var fe *backup.FormatError
	require.True(t, errors.As(err, &fe), "got %v", err)
	assert.Contains(t, fe.Error(), "invalid JSON")
}

func TestParseEmpty(t *testing.T) {
	for _, in := range []string{"", "   \n\t ", "```\n\n```"} {
		_, err := backup.ParseBackupText(in)
		assert.ErrorIs(t, err, backup.ErrEmptyInput, "input %q", in)
	}
}

func TestParseShapes(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		kind    backup.Kind
		storage map[string]string
		format  any
	}{
		{
			name:    "export data envelope",
			in:      `{"meta":{"app":"x","version":1},"data":{"a":"[]","b":"{}"}}`,
			kind:    backup.KindEnvelope,
			storage: map[string]string{"a": "[]", "b": "{}"},
			format:  nil,
		},
		{
			name:    "data without meta",
			in:      `{"data":{"a":"1"}}`,
			kind:    backup.KindEnvelope,
			storage: map[string]string{"a": "1"},
			format:  backup.FormatName,
		},
		{
			name:    "bare map",
			in:      `{"a":"1","b":2,"c":null,"d":true,"e":[1,"x"]}`,
			kind:    backup.KindLegacyMap,
			storage: map[string]string{"a": "1", "b": "2", "c": "null", "d": "true", "e": `[1,"x"]`},
			format:  backup.FormatName,
		},
		{
			name:    "pair array",
			in:      `[{"key":"a","value":"1"},{"key":"b","value":null},{"key":"c"},"junk",{"key":3,"value":4.5}]`,
			kind:    backup.KindPairArray,
			storage: map[string]string{"a": "1", "b": "null", "3": "4.5"},
			format:  backup.FormatName,
		},
		{
			name:    "fenced",
			in:      "```json\n{\"storage\":{\"k\":\"v\"}}\n```",
			kind:    backup.KindEnvelope,
			storage: map[string]string{"k": "v"},
		},
		{
			name:    "surrounded by prose",
			in:      "Here is my backup: {\"storage\":{\"k\":\"v\"}} thanks!",
			kind:    backup.KindEnvelope,
			storage: map[string]string{"k": "v"},
		},
		{
			name:    "leading byte order mark",
			in:      "\uFEFF{\"storage\":{\"k\":\"v\"}}",
			kind:    backup.KindEnvelope,
			storage: map[string]string{"k": "v"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := backup.Detect(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, p.Kind)
			assert.Equal(t, tt.storage, p.Envelope.Storage)
			if tt.format != nil {
				assert.Equal(t, tt.format, p.Envelope.Meta["format"])
			}
		})
	}
}

func TestParseUnrecognized(t *testing.T) {
	for _, in := range []string{
		`[]`,
		`[{"name":"a"}]`,
		`"just a string"`,
		`42`,
		`{"meta":{"app":"x"},"other":"y"}`,
		`{"storage":[1,2]`,
	} {
		_, err := backup.ParseBackupText(in)
		var fe *backup.FormatError
		assert.True(t, errors.As(err, &fe), "input %q: got %v", in, err)
	}
}

func TestDetectFallsBackToTable(t *testing.T) {
	text := "Fecha\tEmpresa\tTrabajos completados\n2026-01-02\tAcme\tBomba [Mat: Junta (2)]\n"
	p, err := backup.Detect(text)
	require.NoError(t, err)
	assert.Equal(t, backup.KindTable, p.Kind)
	assert.Equal(t, []string{"Fecha", "Empresa", "Trabajos completados"}, p.Table.Headers)
	require.Len(t, p.Table.Rows, 1)
	assert.Equal(t, "table", p.Kind.String())
}

func TestDetectPrefersJSON(t *testing.T) {
	p, err := backup.Detect("{\t\"fecha\": \"1\"}")
	require.NoError(t, err)
	assert.Equal(t, backup.KindLegacyMap, p.Kind)
}

func TestDetectKeepsFormatErrorForProse(t *testing.T) {
	_, err := backup.Detect("hello\tworld\nno dates here")
	var fe *backup.FormatError
	assert.True(t, errors.As(err, &fe))
}

func TestExportRoundTrip(t *testing.T) {
	now := time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)
	records := []model.WorkRecord{{ID: "R1", Date: "2026-05-01", Materials: []model.Material{}}}
	payments := []model.Payment{{ID: "P1", Date: "2026-05-02", Hours: 2.5}}

	doc, err := backup.Export(records, payments, "Cuaderno Mantenimiento", now)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Meta.Version)
	assert.Equal(t, "2026-05-04T09:30:00.000Z", doc.Meta.CreatedAt)
	assert.Equal(t, doc.Data[model.RecordsKey], doc.Data[model.LegacyRecordsKey])

	data, err := backup.Serialize(doc)
	require.NoError(t, err)

	p, err := backup.Detect(string(data))
	require.NoError(t, err)
	assert.Equal(t, backup.KindEnvelope, p.Kind)
	assert.Equal(t, doc.Data, p.Envelope.Storage)
	assert.Equal(t, "Cuaderno Mantenimiento", p.Envelope.Meta["app"])

	var got []model.Payment
	require.NoError(t, json.Unmarshal([]byte(p.Envelope.Storage[model.PaymentsKey]), &got))
	assert.Equal(t, payments, got)
}

func TestExportEmptyListsAreArrays(t *testing.T) {
	doc, err := backup.Export(nil, nil, "app", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "[]", doc.Data[model.RecordsKey])
	assert.Equal(t, "[]", doc.Data[model.PaymentsKey])
}

func TestSnapshot(t *testing.T) {
	store := storage.NewMemoryStore(map[string]string{
		"mantenimiento_a": "1",
		"mantenimiento_b": "2",
		"other":           "3",
	})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	env, err := backup.Snapshot(store, "app", now, backup.SnapshotOptions{})
	require.NoError(t, err)
	assert.Len(t, env.Storage, 3)
	assert.Equal(t, backup.FormatName, env.Meta["format"])

	env, err = backup.Snapshot(store, "app", now, backup.SnapshotOptions{Prefix: "mantenimiento_", Exclude: []string{"mantenimiento_b"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"mantenimiento_a": "1"}, env.Storage)

	data, err := backup.Serialize(env)
	require.NoError(t, err)
	back, err := backup.ParseBackupText(string(data))
	require.NoError(t, err)
	assert.Equal(t, env.Storage, back.Storage)
}
