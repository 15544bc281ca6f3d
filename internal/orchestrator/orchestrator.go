// Package orchestrator turns the daily race calendar into one-shot executor
// schedules. On every tick it looks a configurable window ahead and makes
// sure each upcoming race has exactly one schedule named after it, firing a
// fixed lead before post time. The orchestrator keeps no state between
// ticks: idempotency lives entirely in the named schedule store.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/keibalab/autobet/internal/config"
	"github.com/keibalab/autobet/internal/domain"
	"github.com/keibalab/autobet/internal/metrics"
	"github.com/keibalab/autobet/internal/schedule"
)

// schedulePrefix names the per-race one-shot entries.
const schedulePrefix = "auto-bet-"

// ScheduleName builds the schedule-store key for a race.
func ScheduleName(raceID string) string {
	return schedulePrefix + raceID
}

// Calendar is the orchestrator's view of the race calendar feed.
type Calendar interface {
	RacesForDay(ctx context.Context, day time.Time) ([]domain.RaceCalendarEntry, error)
}

// ScheduleStore is the orchestrator's view of the scheduling subsystem.
type ScheduleStore interface {
	Create(name string, fireAt time.Time, payload string) error
	Get(name string) (schedule.Entry, error)
}

// Orchestrator scans the calendar and maintains per-race schedules.
type Orchestrator struct {
	calendar  Calendar
	schedules ScheduleStore
	window    time.Duration // look-ahead per tick
	lead      time.Duration // fire this long before post time
	tick      time.Duration
	logger    *slog.Logger
	now       func() time.Time // injectable clock for tests
}

// NewOrchestrator creates an Orchestrator from the auto-bet policy config.
func NewOrchestrator(calendar Calendar, schedules ScheduleStore, cfg *config.AutoBetConfig, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		calendar:  calendar,
		schedules: schedules,
		window:    cfg.OrchWindow,
		lead:      cfg.FireLead,
		tick:      cfg.TickInterval,
		logger:    logger,
		now:       time.Now,
	}
}

// Run ticks until ctx is cancelled. An immediate first tick covers races
// already inside the window at startup.
func (o *Orchestrator) Run(ctx context.Context) {
	defer o.recoverAndLog()

	ticker := time.NewTicker(o.tick)
	defer ticker.Stop()

	o.logger.Info("orchestrator started", "tick", o.tick, "window", o.window, "lead", o.lead)

	if err := o.Tick(ctx); err != nil {
		o.logger.Error("orchestrator tick failed", "err", err)
	}
	for {
		select {
		case <-ctx.Done():
			o.logger.Info("orchestrator: shutting down")
			return
		case <-ticker.C:
			if err := o.Tick(ctx); err != nil {
				o.logger.Error("orchestrator tick failed", "err", err)
			}
		}
	}
}

// Tick runs one orchestration pass: query the calendar, and ensure every
// race posting within [now, now+window] has its one-shot schedule. Existing
// names are skipped; Create is idempotent by name anyway, so a racing
// duplicate is still a single fire.
func (o *Orchestrator) Tick(ctx context.Context) error {
	now := o.now()

	races, err := o.calendar.RacesForDay(ctx, now)
	if err != nil {
		return fmt.Errorf("orchestrator: calendar: %w", err)
	}

	var created int
	for _, race := range races {
		if race.PostTime.Before(now) || race.PostTime.After(now.Add(o.window)) {
			continue
		}
		if _, err := domain.ParseRaceID(race.RaceID); err != nil {
			o.logger.Warn("skipping malformed calendar entry", "race_id", race.RaceID, "err", err)
			continue
		}

		name := ScheduleName(race.RaceID)
		if _, err := o.schedules.Get(name); err == nil {
			continue
		}

		fireAt := race.PostTime.Add(-o.lead)
		if err := o.schedules.Create(name, fireAt, race.RaceID); err != nil {
			o.logger.Error("schedule creation failed", "name", name, "err", err)
			continue
		}
		created++
		metrics.SchedulesCreated.Inc()
		o.logger.Info("race scheduled",
			"race_id", race.RaceID,
			"post_time", race.PostTime.Format(time.RFC3339),
			"fire_at", fireAt.Format(time.RFC3339))
	}

	if created > 0 {
		o.logger.Info("orchestration tick done", "races_seen", len(races), "schedules_created", created)
	}
	return nil
}

// recoverAndLog keeps an orchestrator panic from taking the process down.
func (o *Orchestrator) recoverAndLog() {
	if r := recover(); r != nil {
		o.logger.Error("PANIC recovered in orchestrator", "panic", r)
	}
}
