package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/fakeyudi/changerec/internal/logging"
)

// Clipboard modes.
const (
	ClipboardAuto = "auto"
	ClipboardOff  = "off"
)

// Config holds all configurable changerec settings.
type Config struct {
	LogFile        string         `json:"log_file" yaml:"log_file" toml:"log_file"`                      // relative to the repository root
	IgnorePatterns []string       `json:"ignore_patterns" yaml:"ignore_patterns" toml:"ignore_patterns"` // added to the built-in noise list
	Clipboard      string         `json:"clipboard" yaml:"clipboard" toml:"clipboard"`                   // "auto" | "off"
	Lock           *bool          `json:"lock,omitempty" yaml:"lock,omitempty" toml:"lock,omitempty"`
	Logging        logging.Config `json:"logging" yaml:"logging" toml:"logging"`
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	lock := true
	return Config{
		LogFile:        "change_log.md",
		IgnorePatterns: []string{},
		Clipboard:      ClipboardAuto,
		Lock:           &lock,
		Logging:        logging.DefaultConfig(),
	}
}

// LockEnabled reports whether the log lock file should be taken.
func (c Config) LockEnabled() bool {
	return c.Lock == nil || *c.Lock
}

// projectFiles are checked in order; the first one present wins.
var projectFiles = []string{
	".changerec.json",
	".changerec.yaml",
	".changerec.yml",
	".changerec.toml",
}

// GlobalPath returns $XDG_CONFIG_HOME/changerec/config.json, falling back to
// ~/.config/changerec/config.json.
func GlobalPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "changerec", "config.json"), nil
}

// LoadGlobal reads the global config file.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	return loadFile(path, true)
}

// LoadProject reads the first project config file found in root.
// Returns nil (no error) if none is present.
func LoadProject(root string) (*Config, error) {
	for _, name := range projectFiles {
		cfg, err := loadFile(filepath.Join(root, name), false)
		if err != nil {
			return nil, err
		}
		if cfg != nil {
			return cfg, nil
		}
	}
	return nil, nil
}

// loadFile reads and parses a config file at path, choosing the decoder by
// extension. If returnDefaults is true, returns defaults when the file is
// absent; otherwise returns nil.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults. Ignore patterns accumulate.
func Merge(global, project *Config) Config {
	result := Defaults()

	for _, layer := range []*Config{global, project} {
		if layer == nil {
			continue
		}
		if layer.LogFile != "" {
			result.LogFile = layer.LogFile
		}
		if layer.Clipboard != "" {
			result.Clipboard = layer.Clipboard
		}
		if layer.Lock != nil {
			v := *layer.Lock
			result.Lock = &v
		}
		if layer.Logging.Level != "" {
			result.Logging.Level = layer.Logging.Level
		}
		if layer.Logging.Format != "" {
			result.Logging.Format = layer.Logging.Format
		}
		result.IgnorePatterns = appendUnique(result.IgnorePatterns, layer.IgnorePatterns...)
	}

	return result
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	if strings.TrimSpace(c.LogFile) == "" {
		return fmt.Errorf("log_file is required")
	}
	if filepath.IsAbs(c.LogFile) {
		return fmt.Errorf("log_file must be relative to the repository root, got %q", c.LogFile)
	}
	if clean := filepath.Clean(c.LogFile); clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("log_file must stay inside the repository root, got %q", c.LogFile)
	}
	switch c.Clipboard {
	case ClipboardAuto, ClipboardOff:
	default:
		return fmt.Errorf("clipboard must be %q or %q, got %q", ClipboardAuto, ClipboardOff, c.Clipboard)
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		dup := false
		for _, have := range dst {
			if have == v {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, v)
		}
	}
	return dst
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
