package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/maintenance-notebook/internal/entry"
	"github.com/Tiliavir/maintenance-notebook/internal/timecalc"
)

var editFlags recordFlags

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change fields of a logged visit",
	Long: `Change fields of a logged visit. Only the flags given are changed;
--task and --pending replace the whole list.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	editFlags.bind(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	id := args[0]
	ws := openWorkspace()

	current, ok, err := ws.repo.Get(id)
	if err != nil {
		exitStorage(err)
	}
	if !ok {
		fmt.Fprintf(os.Stderr, "No record with id %q.\n", id)
		os.Exit(1)
	}

	form := entry.FromRecord(current)
	editFlags.apply(cmd, &form)

	patch, err := form.Patch(ws.cfg.Contractual())
	if err != nil {
		return err
	}
	updated, _, err := ws.repo.Update(id, patch)
	if err != nil {
		exitStorage(err)
	}

	fmt.Printf("Updated record %s: %s worked, %s h overtime.\n",
		updated.ID, formatHours(updated.WorkedHours), timecalc.FormatDecimal(updated.OvertimeHours))
	return nil
}
