package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ErrQuotaExceeded is returned (wrapped in a WriteError) when a value is
// larger than the store's per-value limit.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// WriteError reports a failed write of a single key.
type WriteError struct {
	Key   string
	Cause error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("storage error writing key %q: %v", e.Key, e.Cause)
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}

// Store is the persisted string key/value store every other component reads
// and writes through.
type Store interface {
	Keys() ([]string, error)
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
	Clear() error
}

// BaseDir returns the root data directory: $MTN_HOME when set, ~/.mtn otherwise.
func BaseDir() (string, error) {
	if dir := os.Getenv("MTN_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".mtn"), nil
}

// FileStore keeps every key in a single JSON object on disk. Each mutation
// rewrites the file atomically.
type FileStore struct {
	path          string
	maxValueBytes int

	mu     sync.Mutex
	values map[string]string
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithMaxValueBytes rejects values longer than n bytes. Zero means unlimited.
func WithMaxValueBytes(n int) Option {
	return func(s *FileStore) { s.maxValueBytes = n }
}

// StorePath returns the path of the store file inside base.
func StorePath(base string) string {
	return filepath.Join(base, "store.json")
}

// Open loads the store file under base. A missing file yields an empty store.
// A corrupt file is backed up next to the original and reported as an error.
func Open(base string, opts ...Option) (*FileStore, error) {
	s := &FileStore{path: StorePath(base), values: map[string]string{}}
	for _, opt := range opts {
		opt(s)
	}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage error reading %s: %w", s.path, err)
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		// Back up corrupt file and abort.
		backupPath := s.path + ".corrupt"
		_ = os.Rename(s.path, backupPath)
		return nil, fmt.Errorf("corrupt JSON in %s (backed up to %s): %w", s.path, backupPath, err)
	}
	if s.values == nil {
		s.values = map[string]string{}
	}
	return s, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.values), nil
}

func (s *FileStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *FileStore) Set(key, value string) error {
	if s.maxValueBytes > 0 && len(value) > s.maxValueBytes {
		return &WriteError{Key: key, Cause: ErrQuotaExceeded}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.values[key]
	s.values[key] = value
	if err := s.flush(); err != nil {
		if existed {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return &WriteError{Key: key, Cause: err}
	}
	return nil
}

func (s *FileStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.values[key]
	if !existed {
		return nil
	}
	delete(s.values, key)
	if err := s.flush(); err != nil {
		s.values[key] = prev
		return &WriteError{Key: key, Cause: err}
	}
	return nil
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.values
	s.values = map[string]string{}
	if err := s.flush(); err != nil {
		s.values = prev
		return err
	}
	return nil
}

// flush atomically writes the current values. Callers hold s.mu.
func (s *FileStore) flush() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("storage error creating directories: %w", err)
	}

	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("storage error marshalling JSON: %w", err)
	}

	// Atomic write: write to temp file then rename.
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("storage error writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error renaming temp file: %w", err)
	}
	return nil
}

// MemoryStore is an in-process Store. Failures can be injected per key.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
	fail   map[string]error
}

// NewMemoryStore returns a MemoryStore seeded with a copy of initial.
func NewMemoryStore(initial map[string]string) *MemoryStore {
	m := &MemoryStore{values: map[string]string{}, fail: map[string]error{}}
	for k, v := range initial {
		m.values[k] = v
	}
	return m
}

// FailOn makes every Set of key fail with err.
func (m *MemoryStore) FailOn(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[key] = err
}

// Snapshot returns a copy of the stored values.
func (m *MemoryStore) Snapshot() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

func (m *MemoryStore) Keys() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedKeys(m.values), nil
}

func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail[key]; err != nil {
		return &WriteError{Key: key, Cause: err}
	}
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = map[string]string{}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
