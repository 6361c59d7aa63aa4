package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/maintenance-notebook/internal/entry"
	"github.com/Tiliavir/maintenance-notebook/internal/timecalc"
)

var (
	payDate  string
	payHours float64
	payNote  string
)

var payCmd = &cobra.Command{
	Use:   "pay",
	Short: "Record overtime hours paid out by the employer",
}

var payAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a payment",
	Args:  cobra.NoArgs,
	RunE:  runPayAdd,
}

var payListCmd = &cobra.Command{
	Use:   "list",
	Short: "List payments, newest first",
	Args:  cobra.NoArgs,
	RunE:  runPayList,
}

var payDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a payment",
	Args:  cobra.ExactArgs(1),
	RunE:  runPayDelete,
}

func init() {
	payAddCmd.Flags().StringVar(&payDate, "date", "", "Payment date, YYYY-MM-DD (default today)")
	payAddCmd.Flags().Float64Var(&payHours, "hours", 0, "Hours paid")
	payAddCmd.Flags().StringVar(&payNote, "note", "", "Optional note")
	_ = payAddCmd.MarkFlagRequired("hours")

	payCmd.AddCommand(payAddCmd)
	payCmd.AddCommand(payListCmd)
	payCmd.AddCommand(payDeleteCmd)
}

func runPayAdd(cmd *cobra.Command, args []string) error {
	now := time.Now()
	date := payDate
	if date == "" {
		date = timecalc.Today(now)
	}
	p, err := entry.PaymentForm{Date: date, Hours: payHours, Note: payNote}.Payment()
	if err != nil {
		return err
	}

	ws := openWorkspace()
	p, err = ws.repo.AddPayment(p, now)
	if err != nil {
		exitStorage(err)
	}
	fmt.Printf("Saved payment %s: %s h on %s.\n", p.ID, timecalc.FormatDecimal(p.Hours), p.Date)
	return nil
}

func runPayList(cmd *cobra.Command, args []string) error {
	ws := openWorkspace()
	payments, err := ws.repo.LoadPayments()
	if err != nil {
		exitStorage(err)
	}
	if len(payments) == 0 {
		fmt.Println("No payments found.")
		return nil
	}
	for _, p := range payments {
		line := fmt.Sprintf("%s  %8s h  %s", p.Date, timecalc.FormatDecimal(p.Hours), p.ID)
		if p.Note != "" {
			line += "  " + p.Note
		}
		fmt.Println(line)
	}
	return nil
}

func runPayDelete(cmd *cobra.Command, args []string) error {
	ws := openWorkspace()
	removed, err := ws.repo.DeletePayment(args[0])
	if err != nil {
		exitStorage(err)
	}
	if !removed {
		fmt.Fprintf(os.Stderr, "No payment with id %q.\n", args[0])
		os.Exit(1)
	}
	fmt.Println("Payment deleted.")
	return nil
}
