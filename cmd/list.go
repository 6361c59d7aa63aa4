package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/maintenance-notebook/internal/ledger"
	"github.com/Tiliavir/maintenance-notebook/internal/model"
	"github.com/Tiliavir/maintenance-notebook/internal/table"
)

// filterFlags select records for list, report and export.
type filterFlags struct {
	from    string
	to      string
	search  string
	pending string
}

func (f *filterFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.from, "from", "", "First date to include, YYYY-MM-DD")
	fl.StringVar(&f.to, "to", "", "Last date to include, YYYY-MM-DD")
	fl.StringVar(&f.search, "search", "", "Only records containing this text")
	fl.StringVar(&f.pending, "pending", "all", "all, with-pending or without-pending")
}

// changed reports whether any filter flag was given.
func (f *filterFlags) changed(cmd *cobra.Command) bool {
	for _, name := range []string{"from", "to", "search", "pending"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func (f *filterFlags) filter() (ledger.Filter, error) {
	p, err := ledger.ParsePending(f.pending)
	if err != nil {
		return ledger.Filter{}, err
	}
	return ledger.Filter{From: f.from, To: f.to, Search: f.search, Pending: p}, nil
}

var (
	listFilter filterFlags
	listFormat string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List logged visits",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listFilter.bind(listCmd)
	listCmd.Flags().StringVar(&listFormat, "format", "text", "Output format: text, tsv, json")
}

func runList(cmd *cobra.Command, args []string) error {
	filter, err := listFilter.filter()
	if err != nil {
		return err
	}
	ws := openWorkspace()

	all, err := ws.repo.LoadAll()
	if err != nil {
		exitStorage(err)
	}
	recs := filter.Apply(all)

	switch listFormat {
	case "json":
		data, err := json.MarshalIndent(recs, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, "error encoding JSON:", err)
			os.Exit(2)
		}
		fmt.Println(string(data))
	case "tsv":
		fmt.Println(table.BuildTSV(recs))
	case "text":
		printList(recs)
	default:
		return fmt.Errorf("unknown format %q", listFormat)
	}
	return nil
}

// printList groups records by date and prints them.
func printList(recs []model.WorkRecord) {
	if len(recs) == 0 {
		fmt.Println("No records found.")
		return
	}

	var currentDay string
	for _, r := range recs {
		if r.Date != currentDay {
			fmt.Println(r.Date)
			currentDay = r.Date
		}
		fmt.Println(recordLine(r))
	}
}
