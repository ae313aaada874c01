package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Ledger backends.
const (
	LedgerActual  = "actual"
	LedgerJournal = "journal"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "stmtimport.yaml"

// Config is the resolved configuration of an import run.
type Config struct {
	Ledger       string        `yaml:"ledger"`
	Account      string        `yaml:"account"`
	SkipExisting bool          `yaml:"skip_existing"`
	Actual       ActualConfig  `yaml:"actual"`
	Journal      JournalConfig `yaml:"journal"`
	Log          LogConfig     `yaml:"log"`
}

// ActualConfig locates the Actual Budget server.
type ActualConfig struct {
	URL                string        `yaml:"url"`
	Password           string        `yaml:"password,omitempty"`
	Budget             string        `yaml:"budget"`
	EncryptionPassword string        `yaml:"encryption_password,omitempty"`
	Timeout            time.Duration `yaml:"timeout"`
}

// JournalConfig controls the local journal ledger.
type JournalConfig struct {
	Dir         string `yaml:"dir"`
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// LogConfig controls diagnostic output.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console or json
}

// Default returns a Config with defaults for every optional setting.
func Default() *Config {
	return &Config{
		Ledger:       LedgerActual,
		SkipExisting: true,
		Actual: ActualConfig{
			Timeout: 30 * time.Second,
		},
		Journal: JournalConfig{
			AutoCommit:  true,
			AuthorName:  "Statement Import",
			AuthorEmail: "import@cleared.dev",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a YAML config file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOptional is Load, except that a missing file yields the defaults.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes cfg to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
