package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/secretsync/internal/flagx"
)

// parseFlags overlays cfg with command-line flags.
//
// Supported flags:
//
//	-a string   bind address (e.g., ":8787")
//	-d string   PostgreSQL DSN; empty selects the in-memory store
//	-t string   bearer token clients must present
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-t"}, nil)

	fs := flag.NewFlagSet("secretsyncd", flag.ContinueOnError)

	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "address and port to listen on")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.Token, "t", cfg.Token, "bearer token")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
