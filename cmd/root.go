package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/maintenance-notebook/internal/config"
	"github.com/Tiliavir/maintenance-notebook/internal/logging"
	"github.com/Tiliavir/maintenance-notebook/internal/normalize"
	"github.com/Tiliavir/maintenance-notebook/internal/records"
	"github.com/Tiliavir/maintenance-notebook/internal/restore"
	"github.com/Tiliavir/maintenance-notebook/internal/storage"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "mtn",
	Short: "Maintenance notebook – log maintenance visits and overtime",
	Long: `mtn is a single-binary work log for maintenance visits.
It records hours and materials per visit, tracks paid overtime
and exports or restores backups as JSON or spreadsheets.
All data is stored in a single JSON file in ~/.mtn/ ($MTN_HOME overrides).`,
	SilenceUsage: true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(payCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(wipeCmd)
}

// workspace bundles what every command needs: the config, the opened store
// and the components built on top of it.
type workspace struct {
	cfg   config.Config
	store *storage.FileStore
	norm  *normalize.Normalizer
	repo  *records.Repository
}

func (w *workspace) engine() *restore.Engine {
	return restore.New(w.store, w.repo, w.norm)
}

// openWorkspace loads the config, configures logging and opens the store.
// Failures exit with status 2, like every other storage error.
func openWorkspace() *workspace {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := logging.Configure(cfg.LogLevel, cfg.LogFormat); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if verbose {
		logging.Log.SetLevel(logrus.DebugLevel)
	}

	store, err := storage.Open(cfg.DataDir, storage.WithMaxValueBytes(cfg.MaxValueBytes))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logging.Log.WithField("path", store.Path()).Debug("store opened")

	norm := normalize.New(logging.Log)
	return &workspace{
		cfg:   cfg,
		store: store,
		norm:  norm,
		repo:  records.New(store, norm),
	}
}

// exitStorage reports a storage failure and exits with status 2.
func exitStorage(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(2)
}
