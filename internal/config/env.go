package config

import (
	"os"
	"strconv"
	"strings"
)

const (
	envLogFile   = "CHANGEREC_LOG_FILE"
	envClipboard = "CHANGEREC_CLIPBOARD"
	envLock      = "CHANGEREC_LOCK"
	envLogLevel  = "CHANGEREC_LOG_LEVEL"
	envLogFormat = "CHANGEREC_LOG_FORMAT"
)

// LoadFromEnv applies CHANGEREC_* environment overrides on top of c.
// Unparseable boolean values are ignored.
func (c *Config) LoadFromEnv() {
	if c == nil {
		return
	}
	if v := strings.TrimSpace(os.Getenv(envLogFile)); v != "" {
		c.LogFile = v
	}
	if v := strings.TrimSpace(os.Getenv(envClipboard)); v != "" {
		c.Clipboard = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(envLock)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Lock = &b
		}
	}
	if v := strings.TrimSpace(os.Getenv(envLogLevel)); v != "" {
		c.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(envLogFormat)); v != "" {
		c.Logging.Format = v
	}
}

// Load merges global and project config for root, applies environment
// overrides and validates the result.
func Load(root string) (Config, error) {
	global, err := LoadGlobal()
	if err != nil {
		return Config{}, err
	}
	project, err := LoadProject(root)
	if err != nil {
		return Config{}, err
	}
	cfg := Merge(global, project)
	cfg.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
