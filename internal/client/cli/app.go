// Package cli implements the secretsync command surface: local registry
// verbs (add, remove, list, status) and remote sync verbs (push, pull,
// groups, delete) over a configured storage backend.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrijs2005/secretsync/internal/backend"
	"github.com/dmitrijs2005/secretsync/internal/backend/keyval"
	"github.com/dmitrijs2005/secretsync/internal/backend/notes"
	"github.com/dmitrijs2005/secretsync/internal/backend/s3backend"
	"github.com/dmitrijs2005/secretsync/internal/client/config"
	"github.com/dmitrijs2005/secretsync/internal/common"
	"github.com/dmitrijs2005/secretsync/internal/logging"
	"github.com/dmitrijs2005/secretsync/internal/registry"
	"github.com/dmitrijs2005/secretsync/internal/syncer"
)

// App holds everything one CLI invocation needs. The backend is built
// lazily: local verbs never touch the network.
type App struct {
	config   *config.Config
	registry *registry.Registry
	logger   logging.Logger
	home     string
	out      io.Writer
	errOut   io.Writer
}

// NewApp wires an App against the user's home directory.
func NewApp(cfg *config.Config) (*App, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	return &App{
		config:   cfg,
		registry: registry.New(home, cfg.RegistryPath),
		logger:   logger,
		home:     home,
		out:      os.Stdout,
		errOut:   os.Stderr,
	}, nil
}

// buildStore is a seam so tests can swap in a fake backend.
var buildStore = func(cfg *config.Config) (backend.Store, error) {
	switch cfg.Backend {
	case config.BackendKeyval:
		if cfg.KeyvalBaseURL == "" {
			return nil, errors.New("keyval backend requires a base URL (SECRETSYNC_KEYVAL_URL)")
		}
		return keyval.New(cfg.KeyvalBaseURL, cfg.KeyvalToken, cfg.RequestTimeout), nil

	case config.BackendNotes:
		if cfg.NotesBaseURL == "" {
			return nil, errors.New("notes backend requires a base URL (SECRETSYNC_NOTES_URL)")
		}
		client := notes.NewClient(cfg.NotesBaseURL, cfg.NotesToken, cfg.RequestTimeout)
		return notes.NewStore(client, cfg.NotesLabel), nil

	case config.BackendS3:
		if cfg.S3Bucket == "" {
			return nil, errors.New("s3 backend requires a bucket (SECRETSYNC_S3_BUCKET)")
		}
		opts := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(cfg.S3Region),
		}
		if cfg.S3AccessKey != "" {
			opts = append(opts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.S3BaseEndpoint != "" {
				o.BaseEndpoint = &cfg.S3BaseEndpoint
			}
		})
		return s3backend.NewStore(client, cfg.S3Bucket, cfg.S3Prefix), nil

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// Run dispatches one verb and returns the process exit code. args are the
// positional arguments, flags already stripped.
func (a *App) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		a.usage()
		return 2
	}

	verb, rest := args[0], args[1:]

	switch verb {
	case "add":
		return a.cmdAdd(rest)
	case "remove":
		return a.cmdRemove(rest)
	case "list":
		return a.cmdList()
	case "status":
		return a.cmdStatus()
	case "push":
		return a.cmdPush(ctx, groupArg(rest))
	case "pull":
		return a.cmdPull(ctx, groupArg(rest))
	case "groups":
		return a.cmdGroups(ctx)
	case "delete":
		if len(rest) == 0 {
			fmt.Fprintln(a.errOut, "usage: secretsync delete <group>")
			return 2
		}
		return a.cmdDelete(ctx, rest[0])
	case "help", "-h", "--help":
		a.usage()
		return 0
	default:
		fmt.Fprintf(a.errOut, "unknown command: %s\n", verb)
		a.usage()
		return 2
	}
}

func groupArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return syncer.DefaultGroup
}

func (a *App) usage() {
	fmt.Fprint(a.errOut, `secretsync - encrypted secrets synchronization

Usage:
  secretsync add <path>       track a file or directory (under home)
  secretsync remove <path>    stop tracking a path
  secretsync list             print tracked paths
  secretsync status           print tracked paths with existence markers
  secretsync push [group]     encrypt and upload tracked files
  secretsync pull [group]     download and restore tracked files
  secretsync groups           list remote groups
  secretsync delete <group>   remove a group from the backend

Flags:
  -b, -backend   backend variant: keyval, notes, s3
  -r, -registry  path to the tracked-paths file
  -c, -config    path to a JSON config file
  -t, -timeout   request timeout in seconds
  -v             verbose logging
`)
}

// newSyncer builds the backend and orchestrator for remote verbs.
func (a *App) newSyncer() (*syncer.Syncer, error) {
	store, err := buildStore(a.config)
	if err != nil {
		return nil, err
	}
	return syncer.New(a.registry, store, a.logger, a.home), nil
}

// passphrase returns the pre-supplied credential or prompts for one.
func (a *App) passphrase() ([]byte, error) {
	if a.config.Passphrase != "" {
		return []byte(a.config.Passphrase), nil
	}
	return GetPassphrase(a.errOut)
}

// report prints err with a hint about whether the problem is local or
// remote, and picks the exit code.
func (a *App) report(err error) int {
	switch {
	case errors.Is(err, common.ErrPathNotFound),
		errors.Is(err, common.ErrEmptyRegistry):
		fmt.Fprintf(a.errOut, "local error: %v\n", err)
	case errors.Is(err, common.ErrDecryption):
		fmt.Fprintf(a.errOut, "error: %v\n", err)
	case errors.Is(err, common.ErrUnauthorized),
		errors.Is(err, common.ErrBackendUnavailable),
		errors.Is(err, common.ErrNotFound):
		fmt.Fprintf(a.errOut, "remote error: %v\n", err)
	default:
		fmt.Fprintf(a.errOut, "error: %v\n", err)
	}
	return 1
}
