package cmd

import (
	"fmt"
	"strings"

	"github.com/Tiliavir/maintenance-notebook/internal/backup"
	"github.com/Tiliavir/maintenance-notebook/internal/model"
	"github.com/Tiliavir/maintenance-notebook/internal/restore"
	"github.com/Tiliavir/maintenance-notebook/internal/timecalc"
)

// formatHours renders decimal hours as "8,50 h (08:30)".
func formatHours(h float64) string {
	return fmt.Sprintf("%s h (%s)", timecalc.FormatDecimal(h), timecalc.DecimalToClock(h))
}

// restoreSummary is the one-line outcome of a restore.
func restoreSummary(res restore.Result) string {
	if res.Kind == backup.KindTable {
		return fmt.Sprintf("Imported %d record(s) from table.", res.Imported)
	}
	s := fmt.Sprintf("Restore complete (%s). Keys: %d/%d", res.Kind, res.Written, res.Total)
	if res.Failed > 0 {
		s += fmt.Sprintf(", %d failed", res.Failed)
	}
	return s + "."
}

// recordLine is the one-line rendering of a record used by list.
func recordLine(r model.WorkRecord) string {
	place := strings.TrimSpace(strings.Join(nonEmpty(r.Company, r.Locality, r.Site), " / "))
	times := ""
	if r.StartTime != "" || r.EndTime != "" {
		times = fmt.Sprintf("%s–%s  ", r.StartTime, r.EndTime)
	}
	line := fmt.Sprintf("  %s%s  %s", times, place, formatHours(r.WorkedHours))
	if r.OvertimeHours > 0 {
		line += fmt.Sprintf(" +%s h", timecalc.FormatDecimal(r.OvertimeHours))
	}
	if n := len(r.PendingTasks); n > 0 {
		line += fmt.Sprintf("  [%d pending]", n)
	}
	return line + "  " + r.ID
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
