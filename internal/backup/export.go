package backup

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Tiliavir/maintenance-notebook/internal/model"
	"github.com/Tiliavir/maintenance-notebook/internal/storage"
	"github.com/Tiliavir/maintenance-notebook/internal/timecalc"
)

// ExportMeta is the header of a records export.
type ExportMeta struct {
	App       string `json:"app"`
	CreatedAt string `json:"createdAt"`
	Version   int    `json:"version"`
}

// RecordsExport is the {meta, data} document written by the JSON export.
// Data values are JSON-encoded strings, exactly as they sit in the store.
type RecordsExport struct {
	Meta ExportMeta        `json:"meta"`
	Data map[string]string `json:"data"`
}

// Export builds the records export. Records are written under both record
// keys so the file restores for older readers too.
func Export(records []model.WorkRecord, payments []model.Payment, appName string, now time.Time) (RecordsExport, error) {
	if records == nil {
		records = []model.WorkRecord{}
	}
	if payments == nil {
		payments = []model.Payment{}
	}
	r, err := json.Marshal(records)
	if err != nil {
		return RecordsExport{}, fmt.Errorf("encoding records: %w", err)
	}
	p, err := json.Marshal(payments)
	if err != nil {
		return RecordsExport{}, fmt.Errorf("encoding payments: %w", err)
	}
	return RecordsExport{
		Meta: ExportMeta{App: appName, CreatedAt: timecalc.Timestamp(now), Version: Version},
		Data: map[string]string{
			model.RecordsKey:       string(r),
			model.LegacyRecordsKey: string(r),
			model.PaymentsKey:      string(p),
		},
	}, nil
}

// SnapshotOptions restricts which keys a snapshot copies.
type SnapshotOptions struct {
	Prefix  string
	Exclude []string
}

// Snapshot copies every key of store into a {meta, storage} envelope.
func Snapshot(store storage.Store, appName string, now time.Time, opts SnapshotOptions) (Envelope, error) {
	keys, err := store.Keys()
	if err != nil {
		return Envelope{}, err
	}
	excluded := make(map[string]bool, len(opts.Exclude))
	for _, k := range opts.Exclude {
		excluded[k] = true
	}

	env := Envelope{
		Meta: map[string]any{
			"app":       appName,
			"format":    FormatName,
			"version":   Version,
			"createdAt": timecalc.Timestamp(now),
		},
		Storage: map[string]string{},
	}
	for _, k := range keys {
		if k == "" || excluded[k] || !strings.HasPrefix(k, opts.Prefix) {
			continue
		}
		v, ok, err := store.Get(k)
		if err != nil {
			return Envelope{}, fmt.Errorf("reading key %q: %w", k, err)
		}
		if ok {
			env.Storage[k] = v
		}
	}
	return env, nil
}

// Serialize renders a backup document as indented JSON.
func Serialize(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
