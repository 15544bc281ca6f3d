// Command raceexec runs the bet pipeline once for a single race and exits.
// Useful for backfilling a race the orchestrator missed, or for dry runs
// against a staging gateway.
//
// Usage:
//
//	raceexec -race 20250601_05_11
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/keibalab/autobet/internal/config"
	"github.com/keibalab/autobet/internal/executor"
	"github.com/keibalab/autobet/internal/gateway"
	"github.com/keibalab/autobet/internal/provider"
	"github.com/keibalab/autobet/internal/repository"
	_ "github.com/lib/pq" // postgres driver
)

func main() {
	raceID := flag.String("race", "", "race identifier (YYYYMMDD_VV_RR)")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall execution timeout")
	flag.Parse()

	if *raceID == "" {
		fmt.Fprintln(os.Stderr, "raceexec: -race is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	db, err := sqlx.Connect("postgres", cfg.DB.DSN)
	if err != nil {
		logger.Error("database connection failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	exec := executor.NewExecutor(
		repository.NewPredictionRepository(db),
		provider.NewOddsClient(&cfg.Odds, logger),
		repository.NewCredentialsRepository(db),
		gateway.NewIpatClient(&cfg.Gateway, logger),
		repository.NewOrderRepository(db),
		cfg.AutoBet.BankrollYen,
		cfg.AutoBet.TargetUserID,
		logger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := exec.Run(ctx, *raceID)
	if err != nil {
		logger.Error("execution failed", "race_id", *raceID, "err", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
}
