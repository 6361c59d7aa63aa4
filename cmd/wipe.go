package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var wipeYes bool

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete every key in the store",
	Args:  cobra.NoArgs,
	RunE:  runWipe,
}

func init() {
	wipeCmd.Flags().BoolVar(&wipeYes, "yes", false, "Confirm deleting all data")
}

func runWipe(cmd *cobra.Command, args []string) error {
	if !wipeYes {
		return errNotConfirmed
	}
	ws := openWorkspace()
	if err := ws.store.Clear(); err != nil {
		exitStorage(err)
	}
	fmt.Printf("All data deleted from %s.\n", ws.store.Path())
	return nil
}
