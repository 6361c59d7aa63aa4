// Package restore applies parsed backups to the persisted store.
package restore

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Tiliavir/maintenance-notebook/internal/backup"
	"github.com/Tiliavir/maintenance-notebook/internal/logging"
	"github.com/Tiliavir/maintenance-notebook/internal/normalize"
	"github.com/Tiliavir/maintenance-notebook/internal/records"
	"github.com/Tiliavir/maintenance-notebook/internal/storage"
	"github.com/Tiliavir/maintenance-notebook/internal/table"
)

// ErrNoTableRows is returned when a table import contains no data rows.
var ErrNoTableRows = errors.New("the table has no data rows; nothing was imported")

// Mode selects how a backup is applied.
type Mode string

const (
	// ModeReplace clears the store before writing the backup keys.
	ModeReplace Mode = "replace"
	// ModeMerge writes the backup keys over the existing store.
	ModeMerge Mode = "merge"
)

// ParseMode validates a mode name. Empty means ModeReplace.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeReplace:
		return ModeReplace, nil
	case ModeMerge:
		return ModeMerge, nil
	}
	return "", fmt.Errorf("invalid restore mode %q (want %q or %q)", s, ModeReplace, ModeMerge)
}

// Result summarizes a restore. Written/Failed/Total count keys for backup
// payloads; Imported counts records for table imports.
type Result struct {
	Kind     backup.Kind
	Written  int
	Failed   int
	Total    int
	Imported int
}

// Engine applies backups. Each Apply or import runs as one critical section
// so a replace (clear, then write all keys) is never interleaved with
// another restore on the same Engine.
type Engine struct {
	store   storage.Store
	records records.RecordStore
	norm    *normalize.Normalizer
	log     logrus.FieldLogger

	mu sync.Mutex
}

// New returns an Engine writing key/value backups to store and imported
// records through recs.
func New(store storage.Store, recs records.RecordStore, norm *normalize.Normalizer) *Engine {
	if norm == nil {
		norm = normalize.Default
	}
	return &Engine{store: store, records: recs, norm: norm, log: logging.Log}
}

// WithLogger replaces the engine logger.
func (e *Engine) WithLogger(log logrus.FieldLogger) *Engine {
	e.log = log
	return e
}

// Apply writes every key of env to the store. In replace mode the store is
// cleared first. Individual write failures are counted, logged and skipped.
func (e *Engine) Apply(env backup.Envelope, mode Mode) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.apply(env, mode)
}

func (e *Engine) apply(env backup.Envelope, mode Mode) (Result, error) {
	res := Result{Kind: backup.KindEnvelope, Total: len(env.Storage)}
	if mode == ModeReplace {
		if err := e.store.Clear(); err != nil {
			return res, fmt.Errorf("clearing store: %w", err)
		}
	}

	keys := make([]string, 0, len(env.Storage))
	for k := range env.Storage {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := e.store.Set(k, env.Storage[k]); err != nil {
			e.log.WithField("key", k).WithError(err).Warn("restoring key failed")
			res.Failed++
			continue
		}
		res.Written++
	}
	e.log.WithFields(logrus.Fields{
		"mode":    mode,
		"written": res.Written,
		"failed":  res.Failed,
		"total":   res.Total,
	}).Debug("backup applied")
	return res, nil
}

// RestoreText parses text as a backup and applies it. Text that is not a
// JSON backup but looks like a pasted table is imported as records instead,
// replacing both record keys.
func (e *Engine) RestoreText(text string, mode Mode) (Result, error) {
	parsed, err := backup.Detect(text)
	if err != nil {
		return Result{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if parsed.Kind == backup.KindTable {
		return e.importTable(parsed.Table)
	}
	res, err := e.apply(parsed.Envelope, mode)
	res.Kind = parsed.Kind
	return res, err
}

// ImportTable replaces the stored records with the rows of t.
func (e *Engine) ImportTable(t table.Table) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.importTable(t)
}

// ImportSpreadsheet reads the first worksheet of an .xlsx or .xls file and
// imports it like a pasted table.
func (e *Engine) ImportSpreadsheet(r io.Reader, filename string) (Result, error) {
	rows, err := table.ReadSpreadsheet(r, filename)
	if err != nil {
		return Result{}, fmt.Errorf("reading %s: %w", filename, err)
	}
	t, err := table.FromRows(rows)
	if err != nil {
		return Result{}, err
	}
	return e.ImportTable(t)
}

func (e *Engine) importTable(t table.Table) (Result, error) {
	recs := t.Records(e.norm)
	if len(recs) == 0 {
		return Result{Kind: backup.KindTable}, ErrNoTableRows
	}
	if err := e.records.SaveAll(recs); err != nil {
		return Result{Kind: backup.KindTable}, err
	}
	e.log.WithField("records", len(recs)).Debug("table imported")
	return Result{Kind: backup.KindTable, Imported: len(recs)}, nil
}
