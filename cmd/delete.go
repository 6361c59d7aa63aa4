package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a logged visit",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	ws := openWorkspace()

	removed, err := ws.repo.Delete(args[0])
	if err != nil {
		exitStorage(err)
	}
	if !removed {
		fmt.Fprintf(os.Stderr, "No record with id %q.\n", args[0])
		os.Exit(1)
	}
	fmt.Println("Record deleted.")
	return nil
}
