package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"log/slog"

	"github.com/msivakumar/duetrack/internal/config"
	"github.com/msivakumar/duetrack/internal/dues"
	"github.com/msivakumar/duetrack/internal/httpapi"
	"github.com/msivakumar/duetrack/internal/storage/memory"
	pgstore "github.com/msivakumar/duetrack/internal/storage/postgres"
	sqlitestore "github.com/msivakumar/duetrack/internal/storage/sqlite"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := buildLogger(cfg)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var handler http.Handler
	var closeFn func()

	switch cfg.StoreBackend {
	case "postgres":
		pg, err := pgstore.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "err", err)
			os.Exit(1)
		}
		closeFn = pg.Close
		handler = httpapi.New(pg, pg, pg, pg, pg, pg, pg, pg, logger).Handler()
	case "sqlite":
		st, err := sqlitestore.Open(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("failed to open sqlite database", "err", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		closeFn = func() { _ = st.Close() }
		handler = httpapi.New(st, st, st, st, st, st, st, st, logger).Handler()
	default:
		store := memory.New()
		if cfg.DevSeed {
			seedDev(store, logger)
		}
		handler = httpapi.New(store, store, store, store, store, store, store, store, logger).Handler()
	}
	logger.Info("storage backend: " + cfg.StoreBackend)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("duetrack service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}
	if closeFn != nil {
		closeFn()
	}
}

// seedDev loads a small roster into the memory store for quick local testing.
func seedDev(store *memory.Store, l *slog.Logger) {
	now := time.Now().UTC()
	customer := dues.Payer{
		ID: uuid.New(), Module: dues.ModuleCable, Name: "Murugan", Phone: "9876543210",
		Area: "Anna Nagar", STBNumber: "STB-1001", MonthlyAmount: 30000,
		Status: dues.StatusActive, CreatedAt: now, UpdatedAt: now,
	}
	store.SeedPayer(customer)

	group := dues.Group{
		ID: uuid.New(), Module: dues.ModuleChit, Name: "Diwali Chit",
		MonthlyAmount: 500000, Status: dues.StatusActive, CreatedAt: now, UpdatedAt: now,
	}
	store.SeedGroup(group)
	member := dues.Payer{
		ID: uuid.New(), Module: dues.ModuleChit, GroupID: group.ID, Name: "Lakshmi",
		Phone: "9876500000", Status: dues.StatusActive, CreatedAt: now, UpdatedAt: now,
	}
	store.SeedPayer(member)

	l.Info("DEV seed (memory)",
		"cable_customer_id", customer.ID.String(),
		"chit_group_id", group.ID.String(),
		"chit_member_id", member.ID.String(),
	)
}

// parseLogLevel maps env values to slog.Leveler
func parseLogLevel(s string) slog.Leveler {
	switch s {
	case "DEBUG", "debug":
		return slog.LevelDebug
	case "WARN", "WARNING", "warn", "warning":
		return slog.LevelWarn
	case "ERROR", "ERR", "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLogger(cfg *config.Config) *slog.Logger {
	level := parseLogLevel(cfg.LogLevel)
	switch cfg.LogFormat {
	case "text":
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	case "pretty":
		// Colored output for local development.
		return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level.Level(),
			TimeFormat: time.Kitchen,
		}))
	default:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
}
