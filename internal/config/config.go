package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Tiliavir/maintenance-notebook/internal/logging"
	"github.com/Tiliavir/maintenance-notebook/internal/storage"
)

// Config is the root configuration for mtn, stored in ~/.mtn/config.json.
// The file supports single-line // comments for documentation purposes.
type Config struct {
	// DataDir holds store.json. Empty means the directory of the config file.
	DataDir string `json:"data_dir"`
	// AppName is written into the meta block of every backup.
	AppName string `json:"app_name"`
	// ContractualHours is the reference day used by "mtn add" when
	// --contractual is not given.
	ContractualHours *float64 `json:"contractual_hours"`
	// RestoreMode is the default of "mtn restore --mode".
	RestoreMode string `json:"restore_mode"`
	// LogLevel is a logrus level name.
	LogLevel string `json:"log_level"`
	// LogFormat is "text" or "json".
	LogFormat string `json:"log_format"`
	// MaxValueBytes caps the size of one stored value. Zero is unlimited.
	MaxValueBytes int `json:"max_value_bytes"`
}

const (
	DefaultAppName          = "Cuaderno Mantenimiento"
	DefaultContractualHours = 8.0
	DefaultRestoreMode      = "replace"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
)

// defaultConfig returns a Config pre-filled with sensible defaults.
func defaultConfig(base string) Config {
	hours := DefaultContractualHours
	return Config{
		DataDir:          base,
		AppName:          DefaultAppName,
		ContractualHours: &hours,
		RestoreMode:      DefaultRestoreMode,
		LogLevel:         DefaultLogLevel,
		LogFormat:        DefaultLogFormat,
	}
}

// configTemplate is the annotated config written on first run.
// Lines whose trimmed content starts with // are stripped before JSON parsing,
// allowing human-readable documentation inside the file.
const configTemplate = `// mtn configuration – ~/.mtn/config.json (or $MTN_HOME/config.json)
//
// All settings are optional; remove a line to fall back to the default.
{
  // Directory holding store.json. Empty = the directory of this file.
  "data_dir": "",

  // Application name written into backups.
  "app_name": "Cuaderno Mantenimiento",

  // Contractual hours per visit; hours worked beyond this count as overtime.
  // Can be overridden per record with: mtn add --contractual <hours>
  "contractual_hours": 8,

  // Default restore mode: "replace" wipes the store first, "merge" keeps
  // keys missing from the backup.
  "restore_mode": "replace",

  // Logging: level (debug, info, warn, error) and format (text, json).
  "log_level": "info",
  "log_format": "text",

  // Largest value the store accepts, in bytes. 0 = unlimited.
  "max_value_bytes": 0
}
`

// FilePath returns the path of config.json inside the base directory.
func FilePath() (string, error) {
	base, err := storage.BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "config.json"), nil
}

// stripLineComments removes lines whose leading non-whitespace content starts
// with //. Only full-line comments are handled; inline comments are not stripped.
func stripLineComments(data []byte) []byte {
	var out []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("//")) {
			continue
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

// Load reads the config file from the base directory, creating it with
// annotated defaults on first run.
func Load() (Config, error) {
	path, err := FilePath()
	if err != nil {
		return defaultConfig(""), err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config file at path. A missing file is created from the
// template and the defaults are returned.
func LoadFrom(path string) (Config, error) {
	base := filepath.Dir(path)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			logging.Log.WithError(writeErr).Warnf("could not create config file %s", path)
		}
		return defaultConfig(base), nil
	}
	if err != nil {
		return defaultConfig(base), fmt.Errorf("reading config file %s: %w", path, err)
	}

	cleaned := stripLineComments(data)
	var cfg Config
	if err := json.Unmarshal(cleaned, &cfg); err != nil {
		return defaultConfig(base), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}

	// Fill zero-value fields with built-in defaults so callers always get
	// a usable Config even if the user only partially fills in the file.
	def := defaultConfig(base)
	if cfg.DataDir == "" {
		cfg.DataDir = def.DataDir
	}
	if cfg.AppName == "" {
		cfg.AppName = def.AppName
	}
	if cfg.ContractualHours == nil || *cfg.ContractualHours < 0 {
		cfg.ContractualHours = def.ContractualHours
	}
	if cfg.RestoreMode == "" {
		cfg.RestoreMode = def.RestoreMode
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = def.LogFormat
	}
	if cfg.MaxValueBytes < 0 {
		cfg.MaxValueBytes = 0
	}

	return cfg, nil
}

// Contractual returns the configured contractual hours.
func (c Config) Contractual() float64 {
	if c.ContractualHours == nil {
		return DefaultContractualHours
	}
	return *c.ContractualHours
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
