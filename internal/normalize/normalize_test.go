package normalize_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/maintenance-notebook/internal/logging"
	"github.com/Tiliavir/maintenance-notebook/internal/model"
	"github.com/Tiliavir/maintenance-notebook/internal/normalize"
)

var fixedNow = time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC)

func newNormalizer() *normalize.Normalizer {
	n := normalize.New(logging.Discard())
	n.Now = func() time.Time { return fixedNow }
	n.NewID = func(time.Time) string { return "R-fixed" }
	return n
}

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return m
}

func TestLegacyRecord(t *testing.T) {
	n := newNormalizer()
	r := n.Map(decode(t, `{"center":"Acme - Springfield","tipo":"Workshop","hora":"08:00","horas":5}`))

	assert.Equal(t, "Acme", r.Company)
	assert.Equal(t, "Springfield", r.Locality)
	assert.Equal(t, "Workshop", r.Site)
	assert.Equal(t, "08:00", r.StartTime)
	assert.Equal(t, "", r.EndTime)
	assert.Equal(t, "00:00", r.BreakDuration)
	assert.Equal(t, 5.0, r.WorkedHours)
	assert.Equal(t, 8.0, r.ContractualHours)
	assert.Equal(t, 0.0, r.OvertimeHours)
	assert.Equal(t, "R-fixed", r.ID)
	assert.Equal(t, "2026-03-02", r.Date)
	assert.Equal(t, "2026-03-02T09:15:00.000Z", r.CreatedAt)
}

func TestLegacyCenterWithoutSeparator(t *testing.T) {
	r := newNormalizer().Map(decode(t, `{"centro":"Malagón","descripcion":"Revisión anual"}`))
	assert.Equal(t, "", r.Company)
	assert.Equal(t, "Malagón", r.Locality)
	assert.Equal(t, "Revisión anual", r.Notes)
}

func TestLegacyCenterSplitsOnFirstSeparator(t *testing.T) {
	r := newNormalizer().Map(decode(t, `{"centro":"Acme - North - Plant 2"}`))
	assert.Equal(t, "Acme", r.Company)
	assert.Equal(t, "North - Plant 2", r.Locality)
}

func TestCanonicalFieldsWinOverLegacy(t *testing.T) {
	r := newNormalizer().Map(decode(t, `{"empresa":"Beta","centro":"Acme - Springfield","tipo":"Workshop"}`))
	assert.Equal(t, "Beta", r.Company)
	assert.Equal(t, "", r.Locality)
	assert.Equal(t, "", r.Site)
}

func TestEnglishFieldNames(t *testing.T) {
	r := newNormalizer().Map(decode(t, `{
		"id":"x1","date":"2026-01-05","company":"Acme","locality":"Ciudad Real","site":"Polígono",
		"startTime":"07:00","endTime":"15:30","breakDuration":"00:30","contractualHours":7,
		"workedHours":8,"pendingTasks":["check valve"],"notes":"ok"}`))
	assert.Equal(t, "x1", r.ID)
	assert.Equal(t, "2026-01-05", r.Date)
	assert.Equal(t, "Acme", r.Company)
	assert.Equal(t, "Ciudad Real", r.Locality)
	assert.Equal(t, "Polígono", r.Site)
	assert.Equal(t, "00:30", r.BreakDuration)
	assert.Equal(t, 7.0, r.ContractualHours)
	assert.Equal(t, 1.0, r.OvertimeHours)
	assert.Equal(t, []string{"check valve"}, r.PendingTasks)
	assert.Equal(t, "ok", r.Notes)
}

func TestOvertimeIsAlwaysRecomputed(t *testing.T) {
	r := newNormalizer().Map(decode(t, `{"empresa":"A","horasTrabajadas":10,"horasLegales":8,"horasExtra":99}`))
	assert.Equal(t, 2.0, r.OvertimeHours)

	r = newNormalizer().Map(decode(t, `{"empresa":"A","horasTrabajadas":3,"horasExtra":5}`))
	assert.Equal(t, 0.0, r.OvertimeHours)
}

func TestContractualHoursCoercion(t *testing.T) {
	tests := []struct {
		name string
		json string
		want float64
	}{
		{"absent", `{"empresa":"A"}`, 8},
		{"null", `{"empresa":"A","horasLegales":null}`, 8},
		{"garbage", `{"empresa":"A","horasLegales":"abc"}`, 8},
		{"blank", `{"empresa":"A","horasLegales":" "}`, 8},
		{"numeric string", `{"empresa":"A","horasLegales":"7.5"}`, 7.5},
		{"negative", `{"empresa":"A","horasLegales":-2}`, 0},
		{"zero", `{"empresa":"A","horasLegales":0}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newNormalizer().Map(decode(t, tt.json))
			assert.Equal(t, tt.want, r.ContractualHours)
		})
	}
}

func TestZeroContractualMakesEverythingOvertime(t *testing.T) {
	r := newNormalizer().Map(decode(t, `{"empresa":"A","horasTrabajadas":6.5,"horasLegales":0}`))
	assert.Equal(t, 6.5, r.OvertimeHours)
}

func TestWorkedHoursComputedWhenMissing(t *testing.T) {
	r := newNormalizer().Map(decode(t, `{"empresa":"A","horaInicio":"22:00","horaFin":"06:30","descanso":"00:30"}`))
	assert.Equal(t, 8.0, r.WorkedHours)
	assert.Equal(t, 0.0, r.OvertimeHours)

	r = newNormalizer().Map(decode(t, `{"empresa":"A","horasTrabajadas":-4}`))
	assert.Equal(t, 0.0, r.WorkedHours)
}

func TestCollectionsNeverNil(t *testing.T) {
	r := newNormalizer().Map(nil)
	assert.NotNil(t, r.Materials)
	assert.NotNil(t, r.CompletedTasks)
	assert.NotNil(t, r.PendingTasks)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"materiales":[]`)
	assert.Contains(t, string(data), `"trabajosPendientes":[]`)
}

func TestLegacyMaterialsBecomeSyntheticTask(t *testing.T) {
	r := newNormalizer().Map(decode(t, `{"empresa":"A","materiales":[
		{"nombre":"Tubo","cantidad":2},{"nombre":"","cantidad":""},"Cinta"]}`))
	require.Len(t, r.CompletedTasks, 1)
	assert.Equal(t, normalize.OrphanMaterialsTask, r.CompletedTasks[0].Text)
	want := []model.Material{{Name: "Tubo", Quantity: "2"}, {Name: "Cinta"}}
	assert.Equal(t, want, r.CompletedTasks[0].Materials)
	assert.Equal(t, want, r.Materials)
}

func TestLegacyMaterialsAttachToFirstTask(t *testing.T) {
	r := newNormalizer().Map(decode(t, `{"empresa":"A",
		"materiales":[{"nombre":"Tubo","cantidad":"2 m"}],
		"trabajosCompletados":["Cambio de tubo", {"texto":"Limpieza"}]}`))
	require.Len(t, r.CompletedTasks, 2)
	assert.Equal(t, "Cambio de tubo", r.CompletedTasks[0].Text)
	assert.Equal(t, []model.Material{{Name: "Tubo", Quantity: "2 m"}}, r.CompletedTasks[0].Materials)
	assert.Empty(t, r.CompletedTasks[1].Materials)
}

func TestAggregateIsDerivedFromTasks(t *testing.T) {
	r := newNormalizer().Map(decode(t, `{"empresa":"A",
		"materiales":[{"nombre":"Stale","cantidad":"1"}],
		"trabajosCompletados":[
			{"texto":" Bomba ","materiales":[{"nombre":"Junta","cantidad":"1"}]},
			{"text":"Filtro","materials":[{"name":"Filtro","quantity":"2"}]}]}`))
	assert.Equal(t, []model.Material{{Name: "Junta", Quantity: "1"}, {Name: "Filtro", Quantity: "2"}}, r.Materials)
	assert.Equal(t, "Bomba", r.CompletedTasks[0].Text)
}

func TestPendingTasksAreTrimmedAndFiltered(t *testing.T) {
	r := newNormalizer().Map(decode(t, `{"empresa":"A","trabajosPendientes":[" revisar ","",null,"  ",3]}`))
	assert.Equal(t, []string{"revisar", "3"}, r.PendingTasks)
}

func TestIdempotence(t *testing.T) {
	inputs := []string{
		`{}`,
		`{"center":"Acme - Springfield","tipo":"Workshop","hora":"08:00","horas":5}`,
		`{"centro":"Solo","materiales":[{"nombre":"Tubo","cantidad":2}],"descripcion":"x"}`,
		`{"empresa":"A","materiales":[{"nombre":"Tubo"}],"trabajosCompletados":["uno","dos"]}`,
		`{"empresa":"A","horaInicio":"23:30","horaFin":"00:15","horasLegales":-1}`,
		`{"empresa":"A","horasTrabajadas":9.333333333333334,"horasLegales":"7.25","horasExtra":"bogus"}`,
		`{"company":"B","completedTasks":[{"text":"t","materials":[{"name":"n","quantity":"1,5 kg"}]}]}`,
	}
	n := newNormalizer()
	for _, in := range inputs {
		once := n.Map(decode(t, in))
		twice := n.Record(once)
		assert.Equal(t, once, twice, "input %s", in)

		data, err := json.Marshal(once)
		require.NoError(t, err)
		thrice := n.Value(data)
		assert.Equal(t, once, thrice, "input %s", in)
	}
}

func TestValueOfNonObject(t *testing.T) {
	n := newNormalizer()
	r := n.Value([]byte(`[1,2,3]`))
	assert.Equal(t, "R-fixed", r.ID)
	assert.Equal(t, 8.0, r.ContractualHours)

	r = n.Value((*model.WorkRecord)(nil))
	assert.Equal(t, "00:00", r.BreakDuration)
}
