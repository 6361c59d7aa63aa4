package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errNotConfirmed = errors.New("refusing to delete data without --yes")

var clearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all logged visits (payments are kept)",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

func init() {
	clearCmd.Flags().BoolVar(&clearYes, "yes", false, "Confirm deleting every record")
}

func runClear(cmd *cobra.Command, args []string) error {
	if !clearYes {
		return errNotConfirmed
	}
	ws := openWorkspace()
	if err := ws.repo.Clear(); err != nil {
		exitStorage(err)
	}
	fmt.Println("Records deleted.")
	return nil
}
