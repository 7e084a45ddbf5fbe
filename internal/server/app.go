// Package server runs the secretsyncd key-value service: an HTTP API that
// stores one encrypted blob and one metadata record per group, guarded by
// a shared bearer token.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/secretsync/internal/logging"
	"github.com/dmitrijs2005/secretsync/internal/server/config"
	"github.com/dmitrijs2005/secretsync/internal/server/storage"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	repo   storage.Repository
}

// NewApp wires the service together. An empty token is a configuration
// error: the service never runs open. An empty DSN selects the in-memory
// store, which loses data on restart.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if c.Token == "" {
		return nil, errors.New("no bearer token configured, refusing to start")
	}

	var repo storage.Repository
	if c.DatabaseDSN != "" {
		pg, err := storage.NewPostgresRepository(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		repo = pg
		logger.Info(ctx, "using postgres storage")
	} else {
		repo = storage.NewMemoryRepository()
		logger.Warn(ctx, "no database DSN configured, using in-memory storage")
	}

	return &App{config: c, logger: logger, repo: repo}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// drains in-flight requests and closes the store.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	handler := NewHandler(app.repo, app.config.Token, app.logger)
	srv := &http.Server{
		Addr:    app.config.Addr,
		Handler: handler.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "listening", "addr", app.config.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		app.repo.Close()
		return err
	case <-ctx.Done():
	}

	app.logger.Info(context.Background(), "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	if closeErr := app.repo.Close(); err == nil {
		err = closeErr
	}
	return err
}
