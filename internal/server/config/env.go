package config

import "os"

// parseEnv overlays cfg with the service's environment variables. The
// token is usually supplied this way so it stays out of process listings.
func parseEnv(cfg *Config) {
	overlayString(&cfg.Addr, os.Getenv("SECRETSYNCD_ADDR"))
	overlayString(&cfg.Token, os.Getenv("SECRETSYNCD_TOKEN"))
	overlayString(&cfg.DatabaseDSN, os.Getenv("DATABASE_DSN"))
}

func overlayString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
