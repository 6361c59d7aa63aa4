package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/maintenance-notebook/internal/ledger"
)

var balanceFilter filterFlags

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the overtime balance after payments",
	Args:  cobra.NoArgs,
	RunE:  runBalance,
}

func init() {
	balanceFilter.bind(balanceCmd)
}

func runBalance(cmd *cobra.Command, args []string) error {
	filter, err := balanceFilter.filter()
	if err != nil {
		return err
	}
	ws := openWorkspace()

	all, err := ws.repo.LoadAll()
	if err != nil {
		exitStorage(err)
	}
	payments, err := ws.repo.LoadPayments()
	if err != nil {
		exitStorage(err)
	}

	recs := all
	if balanceFilter.changed(cmd) {
		recs = filter.Apply(all)
	}
	totals := ledger.Compute(recs, payments)

	fmt.Printf("Records:         %d\n", len(recs))
	fmt.Printf("Hours worked:    %s h\n", ledger.Format(totals.Worked))
	fmt.Printf("Overtime:        %s h\n", ledger.Format(totals.Overtime))
	fmt.Printf("Paid:            %s h\n", ledger.Format(totals.Paid))
	fmt.Printf("Balance owed:    %s h\n", ledger.Format(totals.Balance))
	return nil
}
