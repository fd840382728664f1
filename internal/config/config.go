// Package config reads and writes mott.yaml.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendCSV      = "csv"
	BackendPostgres = "postgres"
)

// Config represents the top-level mott.yaml configuration.
type Config struct {
	DataDir       string        `yaml:"data_dir"`
	Currency      string        `yaml:"currency"`       // display suffix, e.g. "aUEC"
	CommandPrefix string        `yaml:"command_prefix"` // inbound messages must start with this to be commands
	Listen        string        `yaml:"listen"`         // HTTP listen address
	Storage       StorageConfig `yaml:"storage"`
	Kafka         KafkaConfig   `yaml:"kafka,omitempty"`
	OCR           OCRConfig     `yaml:"ocr"`
}

// StorageConfig selects the ledger backend.
type StorageConfig struct {
	Backend     string `yaml:"backend"` // memory | csv | postgres
	PostgresDSN string `yaml:"postgres_dsn,omitempty"`
}

// KafkaConfig controls event publishing. Empty brokers disables it.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers,omitempty"`
	Topic   string   `yaml:"topic,omitempty"`
}

// OCRConfig controls screenshot amount extraction.
type OCRConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
}

// Load reads a mott.yaml file from disk and applies environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyEnv()
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new deployment.
func Default(dataDir string) *Config {
	return &Config{
		DataDir:       dataDir,
		Currency:      "aUEC",
		CommandPrefix: "!motrader ",
		Listen:        ":8380",
		Storage: StorageConfig{
			Backend: BackendCSV,
		},
		Kafka: KafkaConfig{
			Topic: "mott.ledger",
		},
		OCR: OCRConfig{
			Enabled: false,
			Model:   "gemini-2.5-flash",
		},
	}
}

// applyEnv lets secrets stay out of the YAML file.
func (c *Config) applyEnv() {
	if dsn := os.Getenv("MOTT_POSTGRES_DSN"); dsn != "" {
		c.Storage.PostgresDSN = dsn
	}
	if listen := os.Getenv("MOTT_LISTEN"); listen != "" {
		c.Listen = listen
	}
}

// Validate reports configuration that cannot be run.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendCSV:
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage backend %q requires postgres_dsn or MOTT_POSTGRES_DSN", c.Storage.Backend)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must be set")
	}
	return nil
}
