package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/maintenance-notebook/internal/backup"
	"github.com/Tiliavir/maintenance-notebook/internal/model"
	"github.com/Tiliavir/maintenance-notebook/internal/table"
)

var (
	exportOut    string
	exportFilter filterFlags
)

var exportCmd = &cobra.Command{
	Use:   "export <json|backup|tsv|xlsx>",
	Short: "Export records, a full backup or a spreadsheet",
	Long: `Export writes one of:
  json    records and payments as {meta, data}
  backup  every stored key as a {meta, storage} envelope
  tsv     the records table, ready to paste into a spreadsheet
  xlsx    the records table as an Excel workbook (requires --out)

The filter flags only apply to tsv and xlsx.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"json", "backup", "tsv", "xlsx"},
	RunE:      runExport,
}

func init() {
	exportFilter.bind(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Write to this file instead of stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	kind := args[0]
	switch kind {
	case "json", "backup", "tsv", "xlsx":
	default:
		return fmt.Errorf("unknown export kind %q", kind)
	}
	if kind == "xlsx" && exportOut == "" {
		return fmt.Errorf("xlsx export needs --out")
	}
	filter, err := exportFilter.filter()
	if err != nil {
		return err
	}

	now := time.Now()
	ws := openWorkspace()

	var write func(io.Writer) error
	switch kind {
	case "backup":
		env, err := backup.Snapshot(ws.store, ws.cfg.AppName, now, backup.SnapshotOptions{})
		if err != nil {
			exitStorage(err)
		}
		write = jsonWriter(env)
	case "json":
		recs, payments := loadAll(ws)
		doc, err := backup.Export(recs, payments, ws.cfg.AppName, now)
		if err != nil {
			return err
		}
		write = jsonWriter(doc)
	case "tsv":
		recs, _ := loadAll(ws)
		recs = filter.Apply(recs)
		write = func(w io.Writer) error {
			_, err := fmt.Fprintln(w, table.BuildTSV(recs))
			return err
		}
	case "xlsx":
		recs, _ := loadAll(ws)
		recs = filter.Apply(recs)
		write = func(w io.Writer) error { return table.WriteXLSX(w, recs) }
	}

	if exportOut == "" {
		return write(os.Stdout)
	}
	if err := writeFile(exportOut, write); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Exported %s to %s.\n", kind, exportOut)
	return nil
}

func loadAll(ws *workspace) ([]model.WorkRecord, []model.Payment) {
	recs, err := ws.repo.LoadAll()
	if err != nil {
		exitStorage(err)
	}
	payments, err := ws.repo.LoadPayments()
	if err != nil {
		exitStorage(err)
	}
	return recs, payments
}

func jsonWriter(v any) func(io.Writer) error {
	return func(w io.Writer) error {
		data, err := backup.Serialize(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
}

// writeFile creates path and streams the export into it.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
