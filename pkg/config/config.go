// Package config loads the enrichment engine's YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/abbreviation"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/legislation"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/logging"
)

// DefaultDatabasePath is the default location of the legislation database.
const DefaultDatabasePath = "legislation.db"

// DefaultWorkers is the default number of documents enriched concurrently.
const DefaultWorkers = 4

// DefaultDocumentTimeout bounds the enrichment of one document.
const DefaultDocumentTimeout = 2 * time.Minute

// Config is the full engine configuration.
type Config struct {
	// DatabasePath is the SQLite legislation table.
	DatabasePath string `yaml:"database"`

	// RulesDir holds extra citation rule manifests. Empty means only the
	// built-in rules.
	RulesDir string `yaml:"rules_dir"`

	// WatchRules reloads rule manifests from RulesDir when they change.
	WatchRules bool `yaml:"watch_rules"`

	// Workers is the number of documents enriched concurrently.
	Workers int `yaml:"workers"`

	// DocumentTimeout bounds the enrichment of one document.
	DocumentTimeout time.Duration `yaml:"document_timeout"`

	Legislation  legislation.Options  `yaml:"legislation"`
	Abbreviation abbreviation.Options `yaml:"abbreviation"`
	Log          LogConfig            `yaml:"log"`
}

// LogConfig selects the log level and format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		DatabasePath:    DefaultDatabasePath,
		Workers:         DefaultWorkers,
		DocumentTimeout: DefaultDocumentTimeout,
		Legislation:     legislation.DefaultOptions(),
		Abbreviation:    abbreviation.DefaultOptions(),
		Log:             LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads a YAML file over the defaults. Keys absent from the file keep
// their default values. An empty path returns the defaults.
func Load(path string) (Config, error) {
	loaded := Default()
	if path == "" {
		return loaded, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := loaded.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return loaded, nil
}

// Validate checks value ranges.
func (cfg Config) Validate() error {
	if cfg.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}
	if cfg.DocumentTimeout < 0 {
		return fmt.Errorf("document_timeout must not be negative")
	}
	for fieldName, floor := range map[string]int{
		"legislation.token_floor":   cfg.Legislation.TokenFloor,
		"legislation.overall_floor": cfg.Legislation.OverallFloor,
	} {
		if floor < 0 || floor > 100 {
			return fmt.Errorf("%s must be between 0 and 100, got %d", fieldName, floor)
		}
	}
	if cfg.Legislation.WindowPadding < 0 {
		return fmt.Errorf("legislation.window_padding must not be negative")
	}
	if cfg.Abbreviation.MinShortTokenLength > cfg.Abbreviation.MaxShortTokenLength {
		return fmt.Errorf("abbreviation.min_short_token_length exceeds max_short_token_length")
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return err
	}
	if _, err := logging.ParseFormat(cfg.Log.Format); err != nil {
		return err
	}
	return nil
}
