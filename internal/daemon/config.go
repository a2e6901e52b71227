// Package daemon manages the forensic worker lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all daemon configuration.
type Config struct {
	Node        NodeConfig        `toml:"node"`
	API         APIConfig         `toml:"api"`
	Worker      WorkerConfig      `toml:"worker"`
	ObjectStore ObjectStoreConfig `toml:"object_store"`
	Classifier  ClassifierConfig  `toml:"classifier"`
	Telemetry   TelemetryConfig   `toml:"telemetry"`
	Logging     LoggingConfig     `toml:"logging"`
}

// NodeConfig identifies this worker node.
type NodeConfig struct {
	ID string `toml:"id"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// WorkerConfig controls the task consumer.
type WorkerConfig struct {
	Enabled      bool   `toml:"enabled"`
	WorkDir      string `toml:"work_dir"`
	Visibility   string `toml:"visibility_window"`
	PollInterval string `toml:"poll_interval"`
}

// ObjectStoreConfig controls artifact uploads. An empty endpoint leaves
// artifacts on local disk.
type ObjectStoreConfig struct {
	Endpoint  string `toml:"endpoint"`
	PublicURL string `toml:"public_url"`
}

// ClassifierConfig points at the external image classification service.
type ClassifierConfig struct {
	Endpoint string `toml:"endpoint"`
}

// TelemetryConfig controls observability endpoints.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	homeDir := forensicHome()
	return Config{
		API: APIConfig{
			Host:        "127.0.0.1",
			Port:        8090,
			CORSOrigins: []string{"*"},
		},
		Worker: WorkerConfig{
			Enabled:      true,
			WorkDir:      filepath.Join(homeDir, "work"),
			Visibility:   "5m",
			PollInterval: "1s",
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(homeDir, "forensic.log"),
		},
	}
}

// LoadConfig reads config from ~/.forensic/config.toml, falling back to
// defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(forensicHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet, use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the config to ~/.forensic/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(forensicHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// forensicHome returns the worker data directory.
func forensicHome() string {
	if env := os.Getenv("FORENSIC_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".forensic")
}

// ForensicHome is exported for use by other packages.
func ForensicHome() string {
	return forensicHome()
}

// parseDuration parses a duration string, returning a fallback on error.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
