package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/maintenance-notebook/internal/ledger"
	"github.com/Tiliavir/maintenance-notebook/internal/timecalc"
)

var (
	reportWeeks  bool
	reportFormat string
	reportFilter filterFlags
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show hours and overtime per locality (this week) or per week",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportFilter.bind(reportCmd)
	reportCmd.Flags().BoolVar(&reportWeeks, "weeks", false, "Group by ISO week instead of locality")
	reportCmd.Flags().StringVar(&reportFormat, "format", "md", "Output format: md, csv, json")
}

type reportRow struct {
	Key      string `json:"key"`
	Records  int    `json:"records"`
	Worked   string `json:"worked_hours"`
	Overtime string `json:"overtime_hours"`
}

func runReport(cmd *cobra.Command, args []string) error {
	now := time.Now()
	filter, err := reportFilter.filter()
	if err != nil {
		return err
	}
	ws := openWorkspace()

	all, err := ws.repo.LoadAll()
	if err != nil {
		exitStorage(err)
	}

	label := "All records"
	if !reportWeeks && !reportFilter.changed(cmd) {
		from, to := timecalc.WeekRange(now)
		filter.From, filter.To = from.Format("2006-01-02"), to.Format("2006-01-02")
		label = "Week " + timecalc.ISOWeekLabel(now)
	}
	recs := filter.Apply(all)

	groups := ledger.ByLocality(recs)
	if reportWeeks {
		groups = ledger.ByWeek(recs)
	}
	totals := ledger.Compute(recs, nil)

	rows := make([]reportRow, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, reportRow{
			Key:      g.Key,
			Records:  g.Records,
			Worked:   g.Worked.StringFixed(2),
			Overtime: g.Overtime.StringFixed(2),
		})
	}

	switch reportFormat {
	case "csv":
		fmt.Println("key,records,worked_hours,overtime_hours")
		for _, r := range rows {
			fmt.Printf("%s,%d,%s,%s\n", csvEscape(r.Key), r.Records, r.Worked, r.Overtime)
		}
	case "json":
		out := struct {
			Label    string      `json:"label"`
			Groups   []reportRow `json:"groups"`
			Worked   string      `json:"total_worked_hours"`
			Overtime string      `json:"total_overtime_hours"`
		}{label, rows, totals.Worked.StringFixed(2), totals.Overtime.StringFixed(2)}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, "error encoding JSON:", err)
			os.Exit(2)
		}
		fmt.Println(string(data))
	default: // md
		fmt.Println(label)
		fmt.Println(strings.Repeat("-", 44))
		for _, g := range groups {
			fmt.Printf("%-20s%10s h%10s h\n", g.Key, ledger.Format(g.Worked), ledger.Format(g.Overtime))
		}
		fmt.Println(strings.Repeat("-", 44))
		fmt.Printf("%-20s%10s h%10s h\n", "Total", ledger.Format(totals.Worked), ledger.Format(totals.Overtime))
	}

	return nil
}

// csvEscape wraps a field in quotes if it contains a comma, quote, or newline.
func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	// Escape internal double quotes by doubling them.
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
