package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/keibalab/autobet/internal/domain"
)

// CalendarClient reads the daily race calendar the orchestrator polls.
type CalendarClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewCalendarClient constructs a CalendarClient.
func NewCalendarClient(baseURL string, timeout time.Duration, logger *slog.Logger) *CalendarClient {
	return &CalendarClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// RacesForDay returns every race scheduled on the given day with its post
// time.
//
//	GET /calendar?date=YYYYMMDD
//	[{"race_id":"20260208_05_11","post_time":"2026-02-08T15:40:00+09:00"}]
func (c *CalendarClient) RacesForDay(ctx context.Context, day time.Time) ([]domain.RaceCalendarEntry, error) {
	url := fmt.Sprintf("%s/calendar?date=%s", c.baseURL, day.Format("20060102"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("calendar_client: build request: %w", err)
	}
	req.Header.Set("User-Agent", "keiba-autobet/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calendar_client: http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calendar_client: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("calendar_client: read body: %w", err)
	}

	var entries []domain.RaceCalendarEntry
	if err = json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("calendar_client: parse: %w", err)
	}
	return entries, nil
}
