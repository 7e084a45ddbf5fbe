package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/secretsync/internal/flagx"
)

// Every flag owned by this package, including the config file flags
// handled by flagx.JsonConfigFlags. Boolean flags live in a separate
// list: the CLI must know which flags consume a following argument when
// it separates verbs from flags.
var (
	valueFlagNames = []string{
		"-b", "-backend",
		"-r", "-registry",
		"-t", "-timeout",
		"-c", "-config",
	}
	boolFlagNames = []string{"-v"}
)

// FlagNames returns every flag recognized by the config layer.
func FlagNames() []string {
	out := make([]string, 0, len(valueFlagNames)+len(boolFlagNames))
	out = append(out, valueFlagNames...)
	out = append(out, boolFlagNames...)
	return out
}

// ValueFlagNames returns only the flags that take a value. Boolean flags
// like -v are excluded so a following operand is never mistaken for a
// flag value.
func ValueFlagNames() []string {
	out := make([]string, len(valueFlagNames))
	copy(out, valueFlagNames)
	return out
}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-b, -backend string   backend variant: keyval, notes, s3
//	-r, -registry string  path to the tracked-paths file
//	-t, -timeout int      request timeout in seconds
//	-v                    verbose (debug) logging
//
// Only the flags above are considered; the rest of os.Args (verbs, group
// names) passes through untouched via flagx.FilterArgs.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], valueFlagNames, boolFlagNames)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.Backend, "b", cfg.Backend, "backend variant (keyval, notes, s3)")
	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "backend variant (keyval, notes, s3)")
	fs.StringVar(&cfg.RegistryPath, "r", cfg.RegistryPath, "path to the tracked-paths file")
	fs.StringVar(&cfg.RegistryPath, "registry", cfg.RegistryPath, "path to the tracked-paths file")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "verbose logging")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.IntVar(timeout, "timeout", *timeout, "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = secondsToDuration(*timeout)
}
