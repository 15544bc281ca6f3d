package provider_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/keibalab/autobet/internal/config"
	"github.com/keibalab/autobet/internal/domain"
	"github.com/keibalab/autobet/internal/provider"
)

func newOddsClient(baseURL string) *provider.OddsClient {
	cfg := &config.OddsConfig{
		APIURL:       baseURL,
		FetchTimeout: 2 * time.Second,
		RetryBackoff: time.Millisecond,
		RatePerSec:   1000,
	}
	return provider.NewOddsClient(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const oddsBody = `{"win":{"3":{"o":"4.8"},"7":{"o":"2.1"}},"place":{"3":{"min":"1.5","mid":"2.0","max":"2.5"}},"quinella":{"3-7":"15.2"}}`

func TestFetchOdds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/races/20260208_05_11/odds" {
			t.Errorf("path = %s", r.URL.Path)
		}
		io.WriteString(w, oddsBody)
	}))
	defer srv.Close()

	odds, err := newOddsClient(srv.URL).FetchOdds(context.Background(), "20260208_05_11")
	if err != nil {
		t.Fatalf("FetchOdds: %v", err)
	}
	if len(odds.Win) != 2 || len(odds.Place) != 1 || len(odds.Quinella) != 1 {
		t.Errorf("odds = %+v", odds)
	}
	if got := odds.Win["3"].O.String(); got != "4.8" {
		t.Errorf("win odds for 3 = %s, want 4.8", got)
	}
	if got := odds.Quinella["3-7"].String(); got != "15.2" {
		t.Errorf("quinella odds = %s, want 15.2", got)
	}
}

// Two 5xx responses, then success: the retry loop should absorb the
// transient failures.
func TestFetchOddsRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, oddsBody)
	}))
	defer srv.Close()

	odds, err := newOddsClient(srv.URL).FetchOdds(context.Background(), "20260208_05_11")
	if err != nil {
		t.Fatalf("FetchOdds: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
	if len(odds.Win) != 2 {
		t.Errorf("odds = %+v", odds)
	}
}

func TestFetchOddsGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newOddsClient(srv.URL).FetchOdds(context.Background(), "20260208_05_11")
	if !errors.Is(err, domain.ErrOddsUnavailable) {
		t.Fatalf("err = %v, want ErrOddsUnavailable", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

// Non-5xx HTTP errors are not retried: the feed answered, the answer is
// final.
func TestFetchOddsFatalStatusFailsFast(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newOddsClient(srv.URL).FetchOdds(context.Background(), "20260208_05_11")
	if !errors.Is(err, domain.ErrOddsUnavailable) {
		t.Fatalf("err = %v, want ErrOddsUnavailable", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want exactly 1 (no retry)", calls.Load())
	}
}

func TestCalendarRacesForDay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/calendar" || r.URL.Query().Get("date") != "20260208" {
			t.Errorf("url = %s", r.URL.String())
		}
		io.WriteString(w, `[{"race_id":"20260208_05_11","post_time":"2026-02-08T15:40:00+09:00"}]`)
	}))
	defer srv.Close()

	c := provider.NewCalendarClient(srv.URL, 2*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	day := time.Date(2026, 2, 8, 10, 0, 0, 0, time.UTC)
	races, err := c.RacesForDay(context.Background(), day)
	if err != nil {
		t.Fatalf("RacesForDay: %v", err)
	}
	if len(races) != 1 || races[0].RaceID != "20260208_05_11" {
		t.Errorf("races = %+v", races)
	}
	if races[0].PostTime.IsZero() {
		t.Error("post time not parsed")
	}
}
