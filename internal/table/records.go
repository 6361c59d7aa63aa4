package table

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Tiliavir/maintenance-notebook/internal/model"
	"github.com/Tiliavir/maintenance-notebook/internal/normalize"
	"github.com/Tiliavir/maintenance-notebook/internal/timecalc"
)

// Column names as written by export, followed by the alternates accepted on
// import (older exports and the English header).
var (
	colDate        = []string{"Fecha", "Date"}
	colCompany     = []string{"Empresa", "Company"}
	colLocality    = []string{"Localidad", "Locality"}
	colSite        = []string{"Ubicación", "Ubicacion", "Site"}
	colStart       = []string{"Inicio", "Start"}
	colEnd         = []string{"Fin", "End"}
	colBreak       = []string{"Descanso", "Break"}
	colTotal       = []string{"Total horas", "Horas", "Total hours"}
	colContractual = []string{"Horas convenio", "Convenio", "Contractual hours"}
	colMaterials   = []string{"Materiales", "Materials"}
	colQuantities  = []string{"Cantidades", "Cant.", "Quantities"}
	colCompleted   = []string{"Trabajos completados", "Completado", "Completed tasks"}
	colPending     = []string{"Trabajos pendientes", "Pendiente", "Pending tasks"}
	colNotes       = []string{"Observaciones", "Notes"}
)

const (
	itemSeparator = " | "
	untitledTask  = "(sin texto)"
)

var (
	taskMaterials = regexp.MustCompile(`^(.*?)\s*\[Mat:\s*(.*)\]$`)
	nameQuantity  = regexp.MustCompile(`^(.*?)\s*\(([^()]*)\)$`)
)

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02/01/06",
	"2/1/06",
}

// Records maps every row to a work record. Rows are ordered newest date
// first and each one passes through n, so the result is canonical.
func (t Table) Records(n *normalize.Normalizer) []model.WorkRecord {
	today := timecalc.Today(n.Now())
	raws := make([]map[string]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		raws = append(raws, t.rawRecord(row, today))
	}
	sort.SliceStable(raws, func(i, j int) bool {
		return raws[i]["fecha"].(string) > raws[j]["fecha"].(string)
	})

	out := make([]model.WorkRecord, 0, len(raws))
	for _, raw := range raws {
		out = append(out, n.Map(raw))
	}
	return out
}

func (t Table) rawRecord(row []string, today string) map[string]any {
	date := normalizeDate(t.Value(row, colDate...))
	if date == "" {
		date = today
	}
	brk := t.Value(row, colBreak...)
	if brk == "" {
		brk = model.DefaultBreak
	}
	contractual := model.DefaultContractualHours
	if v := t.Value(row, colContractual...); v != "" {
		if f, err := strconv.ParseFloat(strings.Replace(v, ",", ".", 1), 64); err == nil {
			contractual = f
		}
	}

	tasks, ownMaterials := completedCell(t.Value(row, colCompleted...))
	raw := map[string]any{
		"fecha":               date,
		"empresa":             t.Value(row, colCompany...),
		"localidad":           t.Value(row, colLocality...),
		"ubicacion":           t.Value(row, colSite...),
		"horaInicio":          t.Value(row, colStart...),
		"horaFin":             t.Value(row, colEnd...),
		"descanso":            brk,
		"horasLegales":        contractual,
		"trabajosCompletados": tasks,
		"trabajosPendientes":  toAny(splitCell(t.Value(row, colPending...))),
		"observaciones":       t.Value(row, colNotes...),
	}
	// Without a total cell the normalizer derives hours from start/end.
	if total := t.Value(row, colTotal...); total != "" {
		raw["horasTrabajadas"] = ParseDecimalHours(total)
	}
	if !ownMaterials {
		raw["materiales"] = materialsCells(t.Value(row, colMaterials...), t.Value(row, colQuantities...))
	}
	return raw
}

// completedCell parses "text [Mat: name (qty), name]" items. The second
// result reports whether any item carried its own materials, in which case
// the flat materials columns are only an aggregate.
func completedCell(cell string) ([]any, bool) {
	var tasks []any
	own := false
	for _, item := range splitCell(cell) {
		text, mats := item, []any{}
		if m := taskMaterials.FindStringSubmatch(item); m != nil {
			text = strings.TrimSpace(m[1])
			for _, part := range strings.Split(m[2], ", ") {
				if mat := materialItem(part); mat != nil {
					mats = append(mats, mat)
				}
			}
			own = own || len(mats) > 0
		}
		if text == untitledTask {
			text = ""
		}
		tasks = append(tasks, map[string]any{"texto": text, "materiales": mats})
	}
	return tasks, own
}

func materialItem(s string) map[string]any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if m := nameQuantity.FindStringSubmatch(s); m != nil {
		return map[string]any{"nombre": strings.TrimSpace(m[1]), "cantidad": strings.TrimSpace(m[2])}
	}
	return map[string]any{"nombre": s, "cantidad": ""}
}

// materialsCells pairs the materials and quantities columns item by item.
// When the counts cannot be paired the two cells become one material.
func materialsCells(names, quantities string) []any {
	if names == "" && quantities == "" {
		return []any{}
	}
	ns, qs := splitCell(names), splitCell(quantities)
	if len(ns) == 0 || len(qs) > len(ns) {
		return []any{map[string]any{"nombre": names, "cantidad": quantities}}
	}
	out := make([]any, 0, len(ns))
	for i, n := range ns {
		q := ""
		if i < len(qs) {
			q = qs[i]
		}
		out = append(out, map[string]any{"nombre": n, "cantidad": q})
	}
	return out
}

// splitCell splits a multi-value cell on the export separator and on
// embedded newlines.
func splitCell(cell string) []string {
	var out []string
	for _, line := range strings.Split(cell, "\n") {
		for _, item := range strings.Split(line, itemSeparator) {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

// normalizeDate converts spreadsheet date renderings and serial numbers to
// ISO dates. Unrecognized values are returned unchanged.
func normalizeDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if len(value) >= 10 {
		if _, err := time.Parse("2006-01-02", value[:10]); err == nil {
			return value[:10]
		}
	}
	// Excel numeric date serial.
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		if serial >= 20000 && serial <= 80000 {
			if parsed, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return parsed.Format("2006-01-02")
			}
		}
		return value
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.Format("2006-01-02")
		}
	}
	return value
}

func toAny(items []string) []any {
	out := make([]any, 0, len(items))
	for _, s := range items {
		out = append(out, s)
	}
	return out
}
