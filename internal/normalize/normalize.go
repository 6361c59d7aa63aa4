// Package normalize turns record objects of any historical shape into the
// canonical model.WorkRecord.
//
// Normalization is total and idempotent: malformed fields fall back to
// defaults instead of failing, and normalizing an already normalized record
// yields the same record. Derived fields (record-level materials and
// overtime) are always recomputed and never trusted from the input.
package normalize

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Tiliavir/maintenance-notebook/internal/logging"
	"github.com/Tiliavir/maintenance-notebook/internal/model"
	"github.com/Tiliavir/maintenance-notebook/internal/timecalc"
)

// OrphanMaterialsTask is the text of the synthetic completed task that
// receives materials from records written before tasks carried their own.
const OrphanMaterialsTask = "(materiales sin trabajo)"

// Canonical (stored) keys and the alternate spellings accepted on input.
var aliases = map[string][]string{
	"id":                  {"ID"},
	"fecha":               {"date"},
	"empresa":             {"company"},
	"localidad":           {"locality"},
	"ubicacion":           {"site"},
	"horaInicio":          {"startTime"},
	"horaFin":             {"endTime"},
	"descanso":            {"breakDuration", "break"},
	"horasLegales":        {"contractualHours"},
	"horasTrabajadas":     {"workedHours"},
	"materiales":          {"materials"},
	"trabajosCompletados": {"completedTasks"},
	"trabajosPendientes":  {"pendingTasks"},
	"observaciones":       {"notes"},
	"createdAt":           {"created_at"},

	// legacy shape
	"centro":      {"center"},
	"tipo":        {"type"},
	"hora":        {"hour", "time"},
	"horas":       {"hours"},
	"descripcion": {"description"},
}

// Normalizer holds the collaborators normalization needs for defaults.
type Normalizer struct {
	Now   func() time.Time
	NewID func(time.Time) string
	Log   logrus.FieldLogger
}

// New returns a Normalizer using the wall clock and timecalc.GenerateID.
func New(log logrus.FieldLogger) *Normalizer {
	if log == nil {
		log = logging.Log
	}
	return &Normalizer{Now: time.Now, NewID: timecalc.GenerateID, Log: log}
}

// Default is used by the package-level helpers.
var Default = New(logging.Log)

// Map normalizes a decoded JSON object with Default.
func Map(raw map[string]any) model.WorkRecord { return Default.Map(raw) }

// Record re-normalizes a typed record with Default.
func Record(r model.WorkRecord) model.WorkRecord { return Default.Record(r) }

// Value normalizes anything with Default; see Normalizer.Value.
func Value(v any) model.WorkRecord { return Default.Value(v) }

// Record re-normalizes a typed record, recomputing its derived fields.
func (n *Normalizer) Record(r model.WorkRecord) model.WorkRecord {
	return n.Map(ToMap(r))
}

// Value accepts a decoded object, a typed record, or raw JSON bytes. Anything
// that is not an object normalizes to a record made of defaults.
func (n *Normalizer) Value(v any) model.WorkRecord {
	switch x := v.(type) {
	case map[string]any:
		return n.Map(x)
	case model.WorkRecord:
		return n.Record(x)
	case *model.WorkRecord:
		if x == nil {
			return n.Map(nil)
		}
		return n.Record(*x)
	case json.RawMessage:
		return n.Map(decodeObject(x))
	case []byte:
		return n.Map(decodeObject(x))
	default:
		return n.Map(ToMap(v))
	}
}

// Map is the single normalization entry point.
func (n *Normalizer) Map(raw map[string]any) model.WorkRecord {
	o := canonicalize(raw)
	now := n.Now()

	if isLegacy(o) {
		migrateLegacy(o)
		n.Log.WithField("centro", text(o["centro"])).Debug("migrated legacy record shape")
	}

	tasks := completedTasks(o["trabajosCompletados"])
	if flat := materials(o["materiales"]); len(flat) > 0 && !anyTaskMaterials(tasks) {
		// Record-level materials only stay authoritative until a task owns them.
		if len(tasks) > 0 {
			tasks[0].Materials = flat
		} else {
			tasks = []model.CompletedTask{{Text: OrphanMaterialsTask, Materials: flat}}
		}
	}

	r := model.WorkRecord{
		ID:             text(o["id"]),
		Date:           text(o["fecha"]),
		Company:        text(o["empresa"]),
		Locality:       text(o["localidad"]),
		Site:           text(o["ubicacion"]),
		StartTime:      text(o["horaInicio"]),
		EndTime:        text(o["horaFin"]),
		BreakDuration:  text(o["descanso"]),
		CompletedTasks: tasks,
		PendingTasks:   pendingTasks(o["trabajosPendientes"]),
		Notes:          text(o["observaciones"]),
		CreatedAt:      text(o["createdAt"]),
	}
	if r.ID == "" {
		r.ID = n.NewID(now)
	}
	if r.Date == "" {
		r.Date = timecalc.Today(now)
	}
	if r.BreakDuration == "" {
		r.BreakDuration = model.DefaultBreak
	}
	if r.CreatedAt == "" {
		r.CreatedAt = timecalc.Timestamp(now)
	}

	contractual, ok := number(o["horasLegales"])
	if !ok {
		contractual = model.DefaultContractualHours
	}
	r.ContractualHours = math.Max(0, contractual)

	worked, ok := number(o["horasTrabajadas"])
	if !ok {
		worked, _ = timecalc.WorkedHours(r.StartTime, r.EndTime, r.BreakDuration)
	}
	r.WorkedHours = math.Max(0, worked)

	r.Materials = flatten(r.CompletedTasks)
	r.OvertimeHours = timecalc.Overtime(r.WorkedHours, r.ContractualHours)
	return r
}

// ToMap converts v into a JSON object map. Values that do not encode to an
// object yield nil.
func ToMap(v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return decodeObject(data)
}

func decodeObject(data []byte) map[string]any {
	var m map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return nil
	}
	return m
}

// canonicalize copies raw and folds alternate spellings onto canonical keys.
func canonicalize(raw map[string]any) map[string]any {
	o := make(map[string]any, len(raw))
	for k, v := range raw {
		o[k] = v
	}
	for key, alts := range aliases {
		if o[key] != nil {
			continue
		}
		for _, alt := range alts {
			if v := raw[alt]; v != nil {
				o[key] = v
				break
			}
		}
	}
	return o
}

// isLegacy reports whether o predates the company/locality split. Records
// carrying either canonical location field are never treated as legacy, so
// canonical fields win when both shapes are present.
func isLegacy(o map[string]any) bool {
	if o["empresa"] != nil || o["localidad"] != nil {
		return false
	}
	return text(o["centro"]) != "" || text(o["tipo"]) != "" ||
		o["hora"] != nil || o["horas"] != nil || o["descripcion"] != nil
}

func migrateLegacy(o map[string]any) {
	center := text(o["centro"])
	if parts := strings.SplitN(center, " - ", 2); len(parts) == 2 {
		o["empresa"], o["localidad"] = parts[0], parts[1]
	} else {
		o["empresa"], o["localidad"] = "", center
	}
	if text(o["ubicacion"]) == "" {
		o["ubicacion"] = text(o["tipo"])
	}
	if text(o["horaInicio"]) == "" {
		o["horaInicio"] = text(o["hora"])
	}
	if text(o["horaFin"]) == "" {
		o["horaFin"] = ""
	}
	if text(o["descanso"]) == "" {
		o["descanso"] = model.DefaultBreak
	}
	if _, ok := number(o["horasTrabajadas"]); !ok {
		worked, _ := number(o["horas"])
		o["horasTrabajadas"] = worked
	}
	if text(o["observaciones"]) == "" {
		o["observaciones"] = text(o["descripcion"])
	}
}

func material(v any) (model.Material, bool) {
	var m model.Material
	switch x := v.(type) {
	case string:
		m.Name = strings.TrimSpace(x)
	case map[string]any:
		m.Name = strings.TrimSpace(text(first(x, "nombre", "name")))
		m.Quantity = strings.TrimSpace(stringOf(first(x, "cantidad", "quantity")))
	}
	return m, !m.Empty()
}

func materials(v any) []model.Material {
	out := []model.Material{}
	arr, _ := v.([]any)
	for _, it := range arr {
		if m, ok := material(it); ok {
			out = append(out, m)
		}
	}
	return out
}

func completedTasks(v any) []model.CompletedTask {
	out := []model.CompletedTask{}
	arr, _ := v.([]any)
	for _, it := range arr {
		t := model.CompletedTask{Materials: []model.Material{}}
		switch x := it.(type) {
		case string:
			t.Text = strings.TrimSpace(x)
		case map[string]any:
			t.Text = strings.TrimSpace(stringOf(first(x, "texto", "text", "trabajo", "descripcion")))
			t.Materials = materials(first(x, "materiales", "materials"))
		}
		out = append(out, t)
	}
	return out
}

func pendingTasks(v any) []string {
	out := []string{}
	arr, _ := v.([]any)
	for _, it := range arr {
		if s := strings.TrimSpace(text(it)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func anyTaskMaterials(tasks []model.CompletedTask) bool {
	for _, t := range tasks {
		if len(t.Materials) > 0 {
			return true
		}
	}
	return false
}

func flatten(tasks []model.CompletedTask) []model.Material {
	out := []model.Material{}
	for _, t := range tasks {
		out = append(out, t.Materials...)
	}
	return out
}

// first returns the first non-null value among keys.
func first(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v := m[k]; v != nil {
			return v
		}
	}
	return nil
}

// text renders scalar values as strings. Falsy values (null, "", 0, false)
// and composite values render as "".
func text(v any) string {
	switch x := v.(type) {
	case bool:
		if !x {
			return ""
		}
	case json.Number:
		if f, err := x.Float64(); err == nil && f == 0 {
			return ""
		}
	case float64:
		if x == 0 {
			return ""
		}
	}
	return stringOf(v)
}

// stringOf renders scalar values as strings; only null and composite values
// render as "".
func stringOf(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}

// number coerces v to a finite float. Null, blank strings, unparsable text
// and non-finite values report false so the caller applies its default.
func number(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case int:
		f = float64(x)
	case json.Number:
		p, err := strconv.ParseFloat(x.String(), 64)
		if err != nil {
			return 0, false
		}
		f = p
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = p
	case bool:
		if x {
			f = 1
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
