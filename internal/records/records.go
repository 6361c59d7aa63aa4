// Package records persists work records and overtime payments on top of the
// key/value store.
package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Tiliavir/maintenance-notebook/internal/logging"
	"github.com/Tiliavir/maintenance-notebook/internal/model"
	"github.com/Tiliavir/maintenance-notebook/internal/normalize"
	"github.com/Tiliavir/maintenance-notebook/internal/storage"
	"github.com/Tiliavir/maintenance-notebook/internal/timecalc"
)

// RecordStore loads and replaces the full list of work records.
type RecordStore interface {
	LoadAll() ([]model.WorkRecord, error)
	SaveAll(records []model.WorkRecord) error
}

// Repository is the RecordStore backed by a storage.Store. Every record read
// or written passes through the normalizer.
type Repository struct {
	store storage.Store
	norm  *normalize.Normalizer
	log   logrus.FieldLogger
}

// New returns a Repository over store. A nil normalizer means normalize.Default.
func New(store storage.Store, norm *normalize.Normalizer) *Repository {
	if norm == nil {
		norm = normalize.Default
	}
	return &Repository{store: store, norm: norm, log: logging.Log}
}

// WithLogger replaces the repository logger.
func (r *Repository) WithLogger(log logrus.FieldLogger) *Repository {
	r.log = log
	return r
}

// LoadAll returns every stored record, newest first as saved. When the
// current key does not hold a list, records under the legacy key are
// migrated and written back under both keys.
func (r *Repository) LoadAll() ([]model.WorkRecord, error) {
	items, ok, err := r.readArray(model.RecordsKey)
	if err != nil {
		return nil, err
	}
	if ok {
		return r.normalizeAll(items), nil
	}

	legacy, ok, err := r.readArray(model.LegacyRecordsKey)
	if err != nil {
		return nil, err
	}
	if !ok || len(legacy) == 0 {
		return []model.WorkRecord{}, nil
	}
	migrated := r.normalizeAll(legacy)
	if err := r.SaveAll(migrated); err != nil {
		return nil, fmt.Errorf("migrating legacy records: %w", err)
	}
	r.log.WithField("count", len(migrated)).Info("migrated records from legacy key")
	return migrated, nil
}

// SaveAll normalizes records and writes the same list under the current and
// the legacy key. If the second write fails the first one is rolled back.
func (r *Repository) SaveAll(records []model.WorkRecord) error {
	out := make([]model.WorkRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, r.norm.Record(rec))
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}
	return WritePair(r.store, string(data))
}

// WritePair writes value under both record keys. Either both keys change
// or the store is left as it was and the write error is returned.
func WritePair(store storage.Store, value string) error {
	prev, existed, err := store.Get(model.RecordsKey)
	if err != nil {
		return err
	}
	if err := store.Set(model.RecordsKey, value); err != nil {
		return err
	}
	if err := store.Set(model.LegacyRecordsKey, value); err != nil {
		var rerr error
		if existed {
			rerr = store.Set(model.RecordsKey, prev)
		} else {
			rerr = store.Remove(model.RecordsKey)
		}
		if rerr != nil {
			logging.Log.WithError(rerr).Error("rolling back records key failed")
		}
		return err
	}
	return nil
}

// Add stores rec as the newest record and returns it normalized.
func (r *Repository) Add(rec model.WorkRecord) (model.WorkRecord, error) {
	all, err := r.LoadAll()
	if err != nil {
		return model.WorkRecord{}, err
	}
	rec = r.norm.Record(rec)
	all = append([]model.WorkRecord{rec}, all...)
	if err := r.SaveAll(all); err != nil {
		return model.WorkRecord{}, err
	}
	return rec, nil
}

// Get returns the record with id.
func (r *Repository) Get(id string) (model.WorkRecord, bool, error) {
	all, err := r.LoadAll()
	if err != nil {
		return model.WorkRecord{}, false, err
	}
	for _, rec := range all {
		if rec.ID == id {
			return rec, true, nil
		}
	}
	return model.WorkRecord{}, false, nil
}

// Update merges patch over the stored record with id (stored field names,
// shallow) and re-normalizes it. It reports false when no record has id.
func (r *Repository) Update(id string, patch map[string]any) (model.WorkRecord, bool, error) {
	all, err := r.LoadAll()
	if err != nil {
		return model.WorkRecord{}, false, err
	}
	for i, rec := range all {
		if rec.ID != id {
			continue
		}
		merged := normalize.ToMap(rec)
		for k, v := range patch {
			merged[k] = v
		}
		// Derived fields always come from the merged inputs.
		delete(merged, "horasExtra")
		if _, ok := patch["trabajosCompletados"]; ok {
			if _, ok := patch["materiales"]; !ok {
				delete(merged, "materiales")
			}
		}
		all[i] = r.norm.Map(merged)
		if err := r.SaveAll(all); err != nil {
			return model.WorkRecord{}, false, err
		}
		return all[i], true, nil
	}
	return model.WorkRecord{}, false, nil
}

// Delete removes the record with id and reports whether it existed.
func (r *Repository) Delete(id string) (bool, error) {
	all, err := r.LoadAll()
	if err != nil {
		return false, err
	}
	kept := all[:0]
	for _, rec := range all {
		if rec.ID != id {
			kept = append(kept, rec)
		}
	}
	removed := len(kept) != len(all)
	if err := r.SaveAll(kept); err != nil {
		return false, err
	}
	return removed, nil
}

// Clear removes every record. Payments are kept.
func (r *Repository) Clear() error {
	return r.SaveAll(nil)
}

// LoadPayments returns the stored payments. Anything but a list reads as empty.
func (r *Repository) LoadPayments() ([]model.Payment, error) {
	items, _, err := r.readArray(model.PaymentsKey)
	if err != nil {
		return nil, err
	}
	out := make([]model.Payment, 0, len(items))
	for _, raw := range items {
		var p model.Payment
		if err := json.Unmarshal(raw, &p); err != nil {
			r.log.WithError(err).Warn("skipping unreadable payment")
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// AddPayment fills in defaults for missing fields, stores p as the newest
// payment and returns it.
func (r *Repository) AddPayment(p model.Payment, now time.Time) (model.Payment, error) {
	all, err := r.LoadPayments()
	if err != nil {
		return model.Payment{}, err
	}
	if p.ID == "" {
		p.ID = r.norm.NewID(now)
	}
	if p.Date == "" {
		p.Date = timecalc.Today(now)
	}
	if p.CreatedAt == "" {
		p.CreatedAt = timecalc.Timestamp(now)
	}
	all = append([]model.Payment{p}, all...)
	if err := r.savePayments(all); err != nil {
		return model.Payment{}, err
	}
	return p, nil
}

// DeletePayment removes the payment with id and reports whether it existed.
func (r *Repository) DeletePayment(id string) (bool, error) {
	all, err := r.LoadPayments()
	if err != nil {
		return false, err
	}
	kept := all[:0]
	for _, p := range all {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	removed := len(kept) != len(all)
	if err := r.savePayments(kept); err != nil {
		return false, err
	}
	return removed, nil
}

func (r *Repository) savePayments(all []model.Payment) error {
	if all == nil {
		all = []model.Payment{}
	}
	data, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("encoding payments: %w", err)
	}
	return r.store.Set(model.PaymentsKey, string(data))
}

// readArray decodes the JSON list stored under key. ok is false when the key
// is missing or does not hold a list.
func (r *Repository) readArray(key string) ([]json.RawMessage, bool, error) {
	raw, found, err := r.store.Get(key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil || items == nil {
		if err != nil {
			r.log.WithField("key", key).WithError(err).Debug("stored value is not a list")
		}
		return nil, false, nil
	}
	return items, true, nil
}

func (r *Repository) normalizeAll(items []json.RawMessage) []model.WorkRecord {
	out := make([]model.WorkRecord, 0, len(items))
	for _, raw := range items {
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			continue
		}
		out = append(out, r.norm.Value(raw))
	}
	return out
}
