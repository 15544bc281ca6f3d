// Package provider holds the HTTP clients for the external data feeds the
// pipeline consumes: the market odds service and the daily race calendar.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/keibalab/autobet/internal/config"
	"github.com/keibalab/autobet/internal/domain"
	"github.com/keibalab/autobet/internal/metrics"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// maxOddsAttempts caps retries on timeout/5xx before the invocation fails.
const maxOddsAttempts = 3

// OddsClient fetches the market odds snapshot for a race. Transient failures
// (timeouts, 5xx) are retried with exponential backoff; a circuit breaker
// trips when the feed is persistently down so concurrent executors stop
// hammering it, and a shared rate limiter spaces requests across executors.
type OddsClient struct {
	baseURL string
	client  *http.Client
	backoff time.Duration
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewOddsClient constructs an OddsClient from the given config.
func NewOddsClient(cfg *config.OddsConfig, logger *slog.Logger) *OddsClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "odds-feed",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &OddsClient{
		baseURL: cfg.APIURL,
		client:  &http.Client{Timeout: cfg.FetchTimeout},
		backoff: cfg.RetryBackoff,
		breaker: breaker,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
		logger:  logger,
	}
}

// FetchOdds returns the current odds snapshot for a race.
//
//	GET /races/{race_id}/odds
//	{"win":{"3":{"o":4.8}},"place":{...},"quinella_place":{...},"quinella":{...}}
//
// After maxOddsAttempts transient failures the call gives up with
// domain.ErrOddsUnavailable.
func (c *OddsClient) FetchOdds(ctx context.Context, raceID string) (domain.MarketOdds, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.MarketOdds{}, fmt.Errorf("odds_client: %w", err)
	}

	url := fmt.Sprintf("%s/races/%s/odds", c.baseURL, raceID)

	var lastErr error
	for attempt := 1; attempt <= maxOddsAttempts; attempt++ {
		body, err := c.breaker.Execute(func() (any, error) {
			return c.doGet(ctx, url)
		})
		if err == nil {
			var odds domain.MarketOdds
			if err = json.Unmarshal(body.([]byte), &odds); err != nil {
				return domain.MarketOdds{}, fmt.Errorf("odds_client: parse: %w", err)
			}
			return odds, nil
		}

		var transient *transientError
		if !errors.As(err, &transient) {
			return domain.MarketOdds{}, fmt.Errorf("%w: %v", domain.ErrOddsUnavailable, err)
		}

		lastErr = err
		if attempt < maxOddsAttempts {
			metrics.OddsFetchRetries.Inc()
			c.logger.Warn("odds fetch failed, retrying",
				"race_id", raceID, "attempt", attempt, "err", err)
			select {
			case <-ctx.Done():
				return domain.MarketOdds{}, fmt.Errorf("%w: %v", domain.ErrOddsUnavailable, ctx.Err())
			case <-time.After(c.backoff << (attempt - 1)):
			}
		}
	}
	return domain.MarketOdds{}, fmt.Errorf("%w: after %d attempts: %v",
		domain.ErrOddsUnavailable, maxOddsAttempts, lastErr)
}

// transientError marks failures worth retrying (network errors, 5xx).
type transientError struct{ cause error }

func (e *transientError) Error() string { return e.cause.Error() }
func (e *transientError) Unwrap() error { return e.cause }

// doGet performs an HTTP GET and returns the body bytes. Network errors and
// 5xx responses come back as transient; anything else fails hard.
func (c *OddsClient) doGet(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "keiba-autobet/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &transientError{cause: fmt.Errorf("http get: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, &transientError{cause: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transientError{cause: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}
