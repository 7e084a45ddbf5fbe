// Package config handles configuration for the secretsync CLI, layering
// defaults, an optional JSON file, environment variables and command-line
// flags. Later sources take precedence.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Backend names accepted in Config.Backend.
const (
	BackendKeyval = "keyval"
	BackendNotes  = "notes"
	BackendS3     = "s3"
)

// Config holds runtime settings for the secretsync CLI.
//
// Passphrase is only ever populated from the environment; when empty the
// CLI prompts interactively. It is never written back to disk or logged.
type Config struct {
	Backend      string
	RegistryPath string
	Verbose      bool

	Passphrase string

	KeyvalBaseURL string
	KeyvalToken   string

	NotesBaseURL string
	NotesToken   string
	NotesLabel   string

	S3Bucket       string
	S3Region       string
	S3Prefix       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string

	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	c.Backend = BackendKeyval
	c.RegistryPath = filepath.Join(home, ".config", "secretsync", "tracked")
	c.NotesLabel = ""
	c.S3Region = "us-east-1"
	c.S3Prefix = "secretsync"
	c.RequestTimeout = 30 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present), the environment, and command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
