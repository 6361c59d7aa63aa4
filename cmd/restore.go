package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/maintenance-notebook/internal/backup"
	"github.com/Tiliavir/maintenance-notebook/internal/logging"
	"github.com/Tiliavir/maintenance-notebook/internal/restore"
	"github.com/Tiliavir/maintenance-notebook/internal/storage"
	"github.com/Tiliavir/maintenance-notebook/internal/table"
)

var restoreMode string

var restoreCmd = &cobra.Command{
	Use:   "restore [file|-]",
	Short: "Restore a backup or import a pasted table",
	Long: `Restore reads a backup file (or stdin when the file is "-" or missing).

Accepted input:
  {meta, storage} envelopes and {meta, data} exports
  bare key/value objects and [{key, value}] arrays
  JSON wrapped in code fences or surrounded by text
  tab-separated tables copied from a spreadsheet
  .xlsx and .xls files

Tables replace the stored records. Backups write every key they carry;
in replace mode the store is cleared first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRestore,
}

func init() {
	restoreCmd.Flags().StringVar(&restoreMode, "mode", "", "replace or merge (default from config)")
}

func runRestore(cmd *cobra.Command, args []string) error {
	path := "-"
	if len(args) == 1 {
		path = args[0]
	}

	ws := openWorkspace()
	modeName := restoreMode
	if !cmd.Flags().Changed("mode") {
		modeName = ws.cfg.RestoreMode
	}
	mode, err := restore.ParseMode(modeName)
	if err != nil {
		return err
	}
	engine := ws.engine().WithLogger(logging.Log)

	var res restore.Result
	if path != "-" && table.IsSpreadsheet(path) {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		res, err = engine.ImportSpreadsheet(f, path)
		if err != nil {
			return restoreError(err)
		}
	} else {
		text, err := readInput(path)
		if err != nil {
			return err
		}
		res, err = engine.RestoreText(text, mode)
		if err != nil {
			return restoreError(err)
		}
	}

	fmt.Println(restoreSummary(res))
	if res.Failed > 0 {
		os.Exit(2)
	}
	return nil
}

func readInput(path string) (string, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// restoreError turns engine errors into messages for the user.
func restoreError(err error) error {
	var fe *backup.FormatError
	switch {
	case errors.Is(err, backup.ErrEmptyInput):
		return errors.New("nothing to restore: the input is empty")
	case errors.Is(err, restore.ErrNoTableRows), errors.Is(err, table.ErrNoTable):
		return err
	case errors.As(err, &fe):
		return fmt.Errorf("%w\nthe input is neither a JSON backup nor a table copied from a spreadsheet; "+
			"use 'mtn add' to enter records by hand", err)
	}
	var we *storage.WriteError
	if errors.As(err, &we) || errors.Is(err, storage.ErrQuotaExceeded) {
		exitStorage(err)
	}
	return err
}
