// Package executor runs the per-race bet pipeline: load predictions, snapshot
// market odds, fuse, generate proposals, convert to wire format, submit to
// the gateway, and persist the purchase order through its lifecycle. One
// invocation per race; the at-most-once guarantee lives upstream in the
// orchestrator's named schedules, not here.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/keibalab/autobet/internal/betgen"
	"github.com/keibalab/autobet/internal/consensus"
	"github.com/keibalab/autobet/internal/domain"
	"github.com/keibalab/autobet/internal/fusion"
	"github.com/keibalab/autobet/internal/metrics"
)

// ──────────────────────────────────────────────────────────────────────────────
// Collaborator interfaces — narrow views of the stores and clients
// ──────────────────────────────────────────────────────────────────────────────

// PredictionReader loads the scraped predictions for a race.
type PredictionReader interface {
	GetByRace(ctx context.Context, raceID string) ([]domain.Prediction, error)
}

// OddsFetcher snapshots the market odds for a race.
type OddsFetcher interface {
	FetchOdds(ctx context.Context, raceID string) (domain.MarketOdds, error)
}

// CredentialsSource retrieves the gateway credential tuple for a user.
type CredentialsSource interface {
	Get(ctx context.Context, userID string) (domain.Credentials, error)
}

// Gateway submits bet-line batches to the pari-mutuel service.
type Gateway interface {
	SubmitBets(ctx context.Context, creds domain.Credentials, lines []domain.IpatBetLine) error
}

// OrderWriter persists purchase orders and their status changes.
type OrderWriter interface {
	Create(ctx context.Context, o *domain.PurchaseOrder) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, errMsg *string) error
}

// ──────────────────────────────────────────────────────────────────────────────
// Executor
// ──────────────────────────────────────────────────────────────────────────────

// Executor is the per-race one-shot pipeline runner. Safe for concurrent use
// across races: it holds no per-invocation state.
type Executor struct {
	predictions PredictionReader
	odds        OddsFetcher
	credentials CredentialsSource
	gateway     Gateway
	orders      OrderWriter
	bankrollYen int64
	userID      string
	logger      *slog.Logger
}

// NewExecutor creates an Executor.
func NewExecutor(
	predictions PredictionReader,
	odds OddsFetcher,
	credentials CredentialsSource,
	gateway Gateway,
	orders OrderWriter,
	bankrollYen int64,
	userID string,
	logger *slog.Logger,
) *Executor {
	return &Executor{
		predictions: predictions,
		odds:        odds,
		credentials: credentials,
		gateway:     gateway,
		orders:      orders,
		bankrollYen: bankrollYen,
		userID:      userID,
		logger:      logger,
	}
}

// Zero-bet reasons reported in Result.Reason.
const (
	ReasonInsufficientSources = "insufficient_sources"
	ReasonNoQualifyingBets    = "no_qualifying_bets"
)

// Result is the executor's per-invocation outcome.
type Result struct {
	Status    string     `json:"status"`
	BetsCount int        `json:"bets_count"`
	Reason    string     `json:"reason,omitempty"`
	OrderID   *uuid.UUID `json:"order_id,omitempty"`
}

// Run executes the six-phase pipeline for one race. Fewer than 2 prediction
// sources is a normal zero-bet outcome, not an error. Pre-submit failures
// propagate without an order record; submit-time failures always persist a
// FAILED order first.
func (e *Executor) Run(ctx context.Context, raceID string) (Result, error) {
	start := time.Now()
	defer func() {
		metrics.ExecutorDuration.Observe(time.Since(start).Seconds())
	}()

	if _, err := domain.ParseRaceID(raceID); err != nil {
		return Result{}, err
	}

	// ── 1. Load predictions ──────────────────────────────────────────────────
	preds, err := e.loadPredictions(ctx, raceID)
	if err != nil {
		return Result{}, err
	}
	if len(preds) < 2 {
		e.logger.Info("insufficient sources, skipping race",
			"race_id", raceID, "sources", len(preds))
		return Result{Status: "ok", BetsCount: 0, Reason: ReasonInsufficientSources}, nil
	}

	// Consensus is informational: logged for operators, never a filter.
	if res, cErr := consensus.Analyze(preds); cErr == nil {
		e.logger.Info("consensus",
			"race_id", raceID,
			"level", res.Level,
			"agreed_top3", res.AgreedTop3,
			"divergence_horses", len(res.DivergenceHorses))
	}

	// ── 2. Odds snapshot ─────────────────────────────────────────────────────
	odds, err := e.odds.FetchOdds(ctx, raceID)
	if err != nil {
		return Result{}, fmt.Errorf("executor: odds for %s: %w", raceID, err)
	}

	// ── 3. Fusion + generator cascade ────────────────────────────────────────
	proposals, err := e.pipeline(preds, odds)
	if err != nil {
		return Result{}, err
	}
	if len(proposals) == 0 {
		e.logger.Info("no qualifying bets", "race_id", raceID)
		return Result{Status: "ok", BetsCount: 0, Reason: ReasonNoQualifyingBets}, nil
	}
	for _, p := range proposals {
		metrics.BetsProposed.WithLabelValues(string(p.Type)).Inc()
	}

	// ── 4. Convert to wire format ────────────────────────────────────────────
	lines, err := ToBetLines(raceID, proposals)
	if err != nil {
		return Result{}, err
	}

	// ── 5+6. Submit and finalize ─────────────────────────────────────────────
	order, err := e.submit(ctx, raceID, lines)
	if err != nil {
		return Result{}, err
	}

	e.logger.Info("race executed",
		"race_id", raceID,
		"order_id", order.ID,
		"bets", len(lines),
		"total_yen", order.TotalAmount)
	return Result{Status: "ok", BetsCount: len(lines), OrderID: &order.ID}, nil
}

// loadPredictions reads and validates the race's predictions, dropping any
// record that violates the scraper contract rather than failing the run.
func (e *Executor) loadPredictions(ctx context.Context, raceID string) ([]domain.Prediction, error) {
	preds, err := e.predictions.GetByRace(ctx, raceID)
	if err != nil {
		return nil, fmt.Errorf("executor: load predictions for %s: %w", raceID, err)
	}

	valid := preds[:0]
	for _, p := range preds {
		if err := p.Validate(); err != nil {
			e.logger.Warn("dropping malformed prediction",
				"race_id", raceID, "source", p.Source, "err", err)
			continue
		}
		valid = append(valid, p)
	}
	return valid, nil
}

// pipeline fuses the per-source distributions and runs the five generators
// in their fixed order: win, place, wide, quinella, exacta.
func (e *Executor) pipeline(preds []domain.Prediction, odds domain.MarketOdds) ([]domain.BetProposal, error) {
	present := make([]domain.SourceName, len(preds))
	sourceMaps := make([]map[int]float64, len(preds))
	for i, p := range preds {
		beta, ok := fusion.Beta(p.Source)
		if !ok {
			return nil, fmt.Errorf("executor: no beta for source %q", p.Source)
		}
		present[i] = p.Source
		sourceMaps[i] = fusion.SourceProbs(p, beta)
	}

	var proposals []domain.BetProposal

	// Win branch.
	winWeights, err := fusion.NormalizedWeights(present, fusion.WinFamily)
	if err != nil {
		return nil, err
	}
	winFused := fusion.LogOpinionPool(sourceMaps, winWeights)
	if len(winFused) > 0 && len(odds.Win) > 0 {
		market := fusion.MarketImpliedProbs(odds.Win)
		proposals = append(proposals, betgen.GenerateWin(winFused, market, odds.Win, e.bankrollYen)...)
	}

	// Place / wide / quinella / exacta branch.
	placeWeights, err := fusion.NormalizedWeights(present, fusion.PlaceFamily)
	if err != nil {
		return nil, err
	}
	placeFused := fusion.LogOpinionPool(sourceMaps, placeWeights)
	if len(placeFused) > 0 {
		agree := fusion.AgreeCounts(sourceMaps, 4)
		if len(odds.Place) > 0 {
			proposals = append(proposals, betgen.GeneratePlace(placeFused, agree, odds.Place)...)
		}
		if len(odds.QuinellaPlace) > 0 {
			proposals = append(proposals, betgen.GenerateWide(placeFused, agree, odds.QuinellaPlace)...)
		}
		if len(odds.Quinella) > 0 {
			proposals = append(proposals, betgen.GenerateQuinella(placeFused, agree, odds.Quinella)...)
			proposals = append(proposals, betgen.GenerateExacta(placeFused, agree, odds.Quinella)...)
		}
	}

	return proposals, nil
}

// submit walks the order through PENDING → SUBMITTED → {COMPLETED, FAILED},
// persisting every transition. The credential tuple is wiped once the
// gateway call returns. A persistence failure after a successful submit is
// the one unavoidable inconsistency window and is logged with full context.
func (e *Executor) submit(ctx context.Context, raceID string, lines []domain.IpatBetLine) (*domain.PurchaseOrder, error) {
	creds, err := e.credentials.Get(ctx, e.userID)
	if err != nil {
		if errors.Is(err, domain.ErrCredentialsNotFound) {
			return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
		}
		return nil, fmt.Errorf("executor: credentials: %w", err)
	}
	defer creds.Zero()

	order := domain.NewPurchaseOrder(e.userID, raceID, lines)
	if err := e.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	if err := order.Transition(domain.OrderSubmitted); err != nil {
		return nil, err
	}
	if err := e.orders.UpdateStatus(ctx, order.ID, domain.OrderSubmitted, nil); err != nil {
		return nil, err
	}

	submitErr := e.gateway.SubmitBets(ctx, creds, lines)

	if submitErr != nil {
		msg := submitErr.Error()
		if err := order.Fail(msg); err != nil {
			return nil, err
		}
		if err := e.orders.UpdateStatus(ctx, order.ID, domain.OrderFailed, &msg); err != nil {
			e.logger.Error("order stuck in SUBMITTED after gateway failure",
				"order_id", order.ID, "race_id", raceID, "lines", len(lines), "err", err)
			return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
		}
		metrics.OrdersTotal.WithLabelValues(string(domain.OrderFailed)).Inc()
		return order, fmt.Errorf("%w: order %s: %v", domain.ErrSubmissionFailed, order.ID, submitErr)
	}

	if err := order.Transition(domain.OrderCompleted); err != nil {
		return nil, err
	}
	if err := e.orders.UpdateStatus(ctx, order.ID, domain.OrderCompleted, nil); err != nil {
		// Money is already down; the local record lags reality. Operators
		// must reconcile from this log line.
		e.logger.Error("bets placed but order not persisted as COMPLETED",
			"order_id", order.ID, "race_id", raceID, "lines", len(lines),
			"total_yen", order.TotalAmount, "err", err)
		return order, fmt.Errorf("%w: order %s: %v", domain.ErrPersistence, order.ID, err)
	}
	metrics.OrdersTotal.WithLabelValues(string(domain.OrderCompleted)).Inc()
	return order, nil
}
