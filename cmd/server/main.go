// Package main is the entry point for the keiba auto-bet server. It wires
// the prediction/order stores, the odds and calendar feeds, the gateway
// client, the one-shot scheduler, and the orchestrator loop, then serves the
// operator HTTP API until shutdown.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/keibalab/autobet/internal/config"
	"github.com/keibalab/autobet/internal/executor"
	"github.com/keibalab/autobet/internal/gateway"
	"github.com/keibalab/autobet/internal/ops"
	"github.com/keibalab/autobet/internal/orchestrator"
	"github.com/keibalab/autobet/internal/provider"
	"github.com/keibalab/autobet/internal/repository"
	"github.com/keibalab/autobet/internal/schedule"
	_ "github.com/lib/pq" // postgres driver
)

func main() {
	// ── 1. Config & logger ────────────────────────────────────────────────────
	cfg := config.MustLoad()

	var logHandler slog.Handler
	if cfg.IsProd() {
		logHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	logger.Info("starting keiba auto-bet server", "env", cfg.Server.Env, "port", cfg.Server.Port)

	// ── 2. Database ───────────────────────────────────────────────────────────
	db, err := sqlx.Connect("postgres", cfg.DB.DSN)
	if err != nil {
		logger.Error("database connection failed", "err", err)
		os.Exit(1)
	}
	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	if err = db.Ping(); err != nil {
		logger.Error("database ping failed", "err", err)
		os.Exit(1)
	}
	logger.Info("database connected")

	// ── 3. Migrations ─────────────────────────────────────────────────────────
	if err = runMigrations(db, "migrations"); err != nil {
		logger.Error("migrations failed", "err", err)
		os.Exit(1)
	}
	logger.Info("migrations applied")

	// ── 4. Repositories ───────────────────────────────────────────────────────
	predictionRepo := repository.NewPredictionRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	credentialsRepo := repository.NewCredentialsRepository(db)

	// ── 5. External clients ───────────────────────────────────────────────────
	oddsClient := provider.NewOddsClient(&cfg.Odds, logger)
	calendarClient := provider.NewCalendarClient(cfg.Odds.CalendarAPIURL, cfg.Odds.FetchTimeout, logger)
	ipatClient := gateway.NewIpatClient(&cfg.Gateway, logger)

	// ── 6. Executor ───────────────────────────────────────────────────────────
	exec := executor.NewExecutor(
		predictionRepo,
		oddsClient,
		credentialsRepo,
		ipatClient,
		orderRepo,
		cfg.AutoBet.BankrollYen,
		cfg.AutoBet.TargetUserID,
		logger,
	)

	// ── 7. Root context + signal handling ─────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 8. Scheduler: fired entries run the executor for their race ───────────
	sched := schedule.NewScheduler(func(fireCtx context.Context, raceID string) {
		runCtx, cancel := context.WithTimeout(fireCtx, 2*time.Minute)
		defer cancel()
		if _, err := exec.Run(runCtx, raceID); err != nil {
			logger.Error("race execution failed", "race_id", raceID, "err", err)
		}
	}, logger)
	defer sched.Shutdown()

	// ── 9. Orchestrator loop ──────────────────────────────────────────────────
	orch := orchestrator.NewOrchestrator(calendarClient, sched, &cfg.AutoBet, logger)
	go orch.Run(ctx)

	// Daily housekeeping: drop predictions past their TTL.
	go runPredictionCleanup(ctx, predictionRepo, logger)

	// ── 10. Operator HTTP API ─────────────────────────────────────────────────
	router := ops.SetupRouter(ops.RouterDeps{
		Orders:      orderRepo,
		Schedules:   sched,
		Executor:    exec,
		Credentials: credentialsRepo,
		Gateway:     ipatClient,
		Cfg:         cfg,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
			stop() // trigger graceful shutdown
		}
	}()

	// ── 11. Graceful shutdown ─────────────────────────────────────────────────
	<-ctx.Done()
	logger.Info("shutdown signal received, draining…")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "err", err)
	}

	db.Close()
	logger.Info("server stopped cleanly")
}

// runPredictionCleanup deletes expired prediction rows once a day. Reads
// already filter on TTL, so this only reclaims space.
func runPredictionCleanup(ctx context.Context, repo *repository.PredictionRepository, logger *slog.Logger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.DeleteExpired(ctx)
			if err != nil {
				logger.Error("prediction cleanup failed", "err", err)
				continue
			}
			if n > 0 {
				logger.Info("expired predictions deleted", "rows", n)
			}
		}
	}
}

// runMigrations reads all *.sql files from dir, sorted by name, and executes
// them sequentially. Idempotent: SQL files should use IF NOT EXISTS / ON
// CONFLICT.
func runMigrations(db *sqlx.DB, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("runMigrations: read dir %q: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("runMigrations: read %q: %w", f, err)
		}
		if _, err = db.Exec(string(data)); err != nil {
			return fmt.Errorf("runMigrations: exec %q: %w", f, err)
		}
		slog.Info("migration applied", "file", filepath.Base(f))
	}
	return nil
}
