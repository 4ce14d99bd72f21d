package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"taskboard/internal/adapters/export"
	web "taskboard/internal/adapters/http"
	"taskboard/internal/adapters/http/middleware"
	"taskboard/internal/adapters/http/perf"
	"taskboard/internal/adapters/http/views"
	"taskboard/internal/adapters/storage"
	projectStore "taskboard/internal/adapters/storage/project"
	"taskboard/internal/application/board"
	"taskboard/internal/config"
	"taskboard/internal/domain/project"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the board HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configFile, os.Getenv)
			if err != nil {
				return err
			}
			if opts.addr != "" {
				cfg.Addr = opts.addr
			}
			if opts.verbose {
				cfg.LogLevel = "debug"
			}
			slog.SetDefault(cfg.NewLogger(os.Stderr))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

// openStore builds the record store selected by cfg. The returned closer releases the database, if any.
func openStore(ctx context.Context, cfg config.Config, collector *perf.Collector) (board.RecordStore, func() error, error) {
	if cfg.Storage != config.StorageSQLite {
		return projectStore.NewMemoryStore(), func() error { return nil }, nil
	}
	db, err := storage.OpenMemory(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}
	timed := storage.NewTimedDB(db, collector, cfg.SlowQuery())
	return projectStore.NewSQLiteStore(timed), timed.Close, nil
}

func serve(ctx context.Context, cfg config.Config) error {
	collector := perf.NewCollector(cfg.PerfRingSize)

	store, closeStore, err := openStore(ctx, cfg, collector)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			slog.Warn("store_close_failed", "error", err.Error())
		}
	}()

	b := board.New(store, board.WithNotifyObserver(func(op string, d time.Duration, listeners int) {
		collector.Record(perf.Entry{Kind: perf.KindNotify, Name: op, Duration: d, At: time.Now()})
	}))

	active := views.NewListView(b, project.StatusActive)
	finished := views.NewListView(b, project.StatusFinished)
	for _, v := range []*views.ListView{active, finished} {
		v.Configure()
		defer v.Close()
		if err := v.Sync(ctx); err != nil {
			return fmt.Errorf("initial render: %w", err)
		}
	}

	csrfKey, generated, err := cfg.CSRFSecret()
	if err != nil {
		return err
	}
	if generated {
		slog.Warn("config_event", "event", "random_csrf_key", "detail", "form tokens will not survive a restart; set TASKBOARD_CSRF_KEY")
	}

	handler := web.NewMux(ctx, web.Deps{
		Board:     b,
		Active:    active,
		Finished:  finished,
		Exporter:  export.NewExporter(b),
		Collector: collector,
	}, web.Options{
		CSRFKey:            csrfKey,
		CSRF:               middleware.CSRFOptions{Secure: cfg.IsProduction(), TrustedOrigins: cfg.Origins()},
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		SlowRequest:        cfg.SlowRequest(),
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_event", "event", "starting", "version", version, "addr", cfg.Addr, "env", cfg.Env, "storage", cfg.Storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	slog.Info("server_event", "event", "shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server_event", "event", "stopped")
	return nil
}
