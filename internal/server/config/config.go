// Package config handles configuration for the secretsyncd key-value
// service, layering defaults, an optional JSON file, environment variables
// and command-line flags. Later sources take precedence.
package config

// Config holds runtime settings for secretsyncd.
//
// Token is the shared bearer token clients must present. An empty token
// disables the service: it refuses to start rather than run open.
// DatabaseDSN selects the storage backend: a PostgreSQL DSN for persistent
// storage, or empty for the in-memory store.
type Config struct {
	Addr        string
	Token       string
	DatabaseDSN string
}

// LoadDefaults populates c with development defaults.
func (c *Config) LoadDefaults() {
	c.Addr = ":8787"
	c.Token = ""
	c.DatabaseDSN = ""
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
