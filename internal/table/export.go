package table

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Tiliavir/maintenance-notebook/internal/model"
	"github.com/Tiliavir/maintenance-notebook/internal/timecalc"
)

// Headers is the header row written by every table export.
var Headers = []string{
	"Fecha", "Empresa", "Localidad", "Ubicación", "Inicio", "Fin", "Descanso",
	"Total horas", "Horas convenio", "Horas extra",
	"Materiales", "Cantidades", "Trabajos completados", "Trabajos pendientes", "Observaciones",
}

var lineBreak = regexp.MustCompile(`\r?\n`)

// BuildTSV renders records as tab-separated text with a header row.
func BuildTSV(records []model.WorkRecord) string {
	lines := []string{strings.Join(Headers, "\t")}
	for _, r := range records {
		cells := Row(r)
		for i, c := range cells {
			cells[i] = tsvCell(c)
		}
		lines = append(lines, strings.Join(cells, "\t"))
	}
	return strings.Join(lines, "\n")
}

// Row renders one record as export cells, in Headers order.
func Row(r model.WorkRecord) []string {
	var names, quantities []string
	for _, m := range r.Materials {
		if n := strings.TrimSpace(m.Name); n != "" {
			names = append(names, n)
		}
		if q := strings.TrimSpace(m.Quantity); q != "" {
			quantities = append(quantities, q)
		}
	}
	var pending []string
	for _, p := range r.PendingTasks {
		if p = strings.TrimSpace(p); p != "" {
			pending = append(pending, p)
		}
	}
	brk := r.BreakDuration
	if brk == "" {
		brk = model.DefaultBreak
	}
	return []string{
		r.Date,
		r.Company,
		r.Locality,
		r.Site,
		r.StartTime,
		r.EndTime,
		brk,
		TotalCell(r.WorkedHours),
		strconv.FormatFloat(r.ContractualHours, 'f', -1, 64),
		timecalc.FormatDecimal(timecalc.Overtime(r.WorkedHours, r.ContractualHours)) + " h",
		strings.Join(names, itemSeparator),
		strings.Join(quantities, itemSeparator),
		CompletedText(r.CompletedTasks),
		strings.Join(pending, itemSeparator),
		r.Notes,
	}
}

// TotalCell renders worked hours as "HH:MM = D,DD h".
func TotalCell(hours float64) string {
	return timecalc.DecimalToClock(hours) + " = " + timecalc.FormatDecimal(hours) + " h"
}

// CompletedText joins completed tasks as "text [Mat: name (qty), name] | ...".
func CompletedText(tasks []model.CompletedTask) string {
	var items []string
	for _, t := range tasks {
		if s := completedItem(t); s != "" {
			items = append(items, s)
		}
	}
	return strings.Join(items, itemSeparator)
}

func completedItem(t model.CompletedTask) string {
	text := strings.TrimSpace(t.Text)
	var mats []string
	for _, m := range t.Materials {
		n, q := strings.TrimSpace(m.Name), strings.TrimSpace(m.Quantity)
		switch {
		case n == "" && q == "":
			continue
		case q != "":
			mats = append(mats, n+" ("+q+")")
		default:
			mats = append(mats, n)
		}
	}
	if len(mats) == 0 {
		return text
	}
	if text == "" {
		text = untitledTask
	}
	return text + " [Mat: " + strings.Join(mats, ", ") + "]"
}

func tsvCell(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.TrimSpace(lineBreak.ReplaceAllString(s, itemSeparator))
}
