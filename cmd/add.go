package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/maintenance-notebook/internal/entry"
	"github.com/Tiliavir/maintenance-notebook/internal/timecalc"
)

// recordFlags are the record fields shared by add and edit.
type recordFlags struct {
	date        string
	company     string
	locality    string
	site        string
	start       string
	end         string
	brk         string
	contractual float64
	tasks       []string
	pending     []string
	notes       string
}

func (f *recordFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.date, "date", "", "Visit date, YYYY-MM-DD (default today)")
	fl.StringVar(&f.company, "company", "", "Company")
	fl.StringVar(&f.locality, "locality", "", "Locality")
	fl.StringVar(&f.site, "site", "", "Site within the locality")
	fl.StringVar(&f.start, "start", "", "Start time, HH:MM")
	fl.StringVar(&f.end, "end", "", "End time, HH:MM (before start means next day)")
	fl.StringVar(&f.brk, "break", "", "Break, HH:MM (default 00:00)")
	fl.Float64Var(&f.contractual, "contractual", 0, "Contractual hours (default from config)")
	fl.StringArrayVar(&f.tasks, "task", nil, `Completed task, "text|material=qty|material" (repeatable)`)
	fl.StringArrayVar(&f.pending, "pending", nil, "Pending task (repeatable)")
	fl.StringVar(&f.notes, "notes", "", "Notes")
}

// apply copies every flag the user set onto form.
func (f *recordFlags) apply(cmd *cobra.Command, form *entry.RecordForm) {
	changed := cmd.Flags().Changed
	set := func(name string, dst *string, v string) {
		if changed(name) {
			*dst = v
		}
	}
	set("date", &form.Date, f.date)
	set("company", &form.Company, f.company)
	set("locality", &form.Locality, f.locality)
	set("site", &form.Site, f.site)
	set("start", &form.StartTime, f.start)
	set("end", &form.EndTime, f.end)
	set("break", &form.BreakDuration, f.brk)
	set("notes", &form.Notes, f.notes)
	if changed("contractual") {
		c := f.contractual
		form.ContractualHours = &c
	}
	if changed("task") {
		form.CompletedTasks = form.CompletedTasks[:0]
		for _, raw := range f.tasks {
			form.CompletedTasks = append(form.CompletedTasks, entry.ParseTask(raw))
		}
	}
	if changed("pending") {
		form.PendingTasks = append([]string(nil), f.pending...)
	}
}

var addFlags recordFlags

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Log a maintenance visit",
	Example: `  mtn add --locality Toledo --site "Nave 2" --start 08:00 --end 17:30 --break 00:30 \
      --task "Cambio de bomba|Junta=2|Teflón" --pending "Pintar barandilla"`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

func init() {
	addFlags.bind(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	now := time.Now()
	ws := openWorkspace()

	form := entry.RecordForm{Date: timecalc.Today(now)}
	addFlags.apply(cmd, &form)

	rec, err := form.Build(ws.norm, ws.cfg.Contractual())
	if err != nil {
		return err
	}
	rec, err = ws.repo.Add(rec)
	if err != nil {
		exitStorage(err)
	}

	fmt.Printf("Saved record %s: %s worked, %s h overtime.\n",
		rec.ID, formatHours(rec.WorkedHours), timecalc.FormatDecimal(rec.OvertimeHours))
	return nil
}
