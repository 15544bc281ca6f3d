// Package schedule is the in-process one-shot scheduling subsystem. The
// orchestrator creates named entries that fire exactly once at a wall-clock
// time, delivering an opaque payload to the registered handler; fired
// entries delete themselves. Creation is idempotent by name, which is what
// gives the auto-bet path its at-most-once guarantee per race.
package schedule

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/keibalab/autobet/internal/domain"
)

// Handler receives a fired entry's payload.
type Handler func(ctx context.Context, payload string)

// Entry is the inspectable view of a pending schedule.
type Entry struct {
	Name    string
	FireAt  time.Time
	Payload string
}

type pending struct {
	entry Entry
	timer *time.Timer
}

// Scheduler owns the pending one-shot entries. All operations are safe for
// concurrent use.
type Scheduler struct {
	mu      sync.Mutex
	entries map[string]*pending
	handler Handler
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *slog.Logger
}

// NewScheduler creates a Scheduler delivering fired payloads to handler.
func NewScheduler(handler Handler, logger *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		entries: make(map[string]*pending),
		handler: handler,
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger,
	}
}

// Create registers a one-shot entry. A duplicate name is a no-op success —
// the existing entry keeps its original fire time. Fire times in the past
// fire immediately.
func (s *Scheduler) Create(name string, fireAt time.Time, payload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[name]; exists {
		return nil
	}

	p := &pending{entry: Entry{Name: name, FireAt: fireAt, Payload: payload}}
	p.timer = time.AfterFunc(time.Until(fireAt), func() { s.fire(name, p) })
	s.entries[name] = p

	s.logger.Info("schedule created", "name", name, "fire_at", fireAt.Format(time.RFC3339))
	return nil
}

// Get returns the pending entry with the given name.
func (s *Scheduler) Get(name string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.entries[name]
	if !ok {
		return Entry{}, domain.ErrScheduleNotFound
	}
	return p.entry, nil
}

// Delete cancels a pending entry. Deleting an unknown name is an error so
// operators notice typos; deleting an already-fired entry reports not found.
func (s *Scheduler) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.entries[name]
	if !ok {
		return domain.ErrScheduleNotFound
	}
	p.timer.Stop()
	delete(s.entries, name)
	s.logger.Info("schedule deleted", "name", name)
	return nil
}

// Shutdown cancels every pending entry and stops deliveries.
func (s *Scheduler) Shutdown() {
	s.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, p := range s.entries {
		p.timer.Stop()
		delete(s.entries, name)
	}
}

// fire removes the entry and invokes the handler. Membership is re-checked
// under the lock: a Delete that won the race has already removed the entry,
// and a recreated name maps to a different pending, so a stale timer never
// delivers. Removal under the same lock keeps delivery exactly-once.
func (s *Scheduler) fire(name string, p *pending) {
	s.mu.Lock()
	cur, ok := s.entries[name]
	if !ok || cur != p {
		s.mu.Unlock()
		return
	}
	delete(s.entries, name)
	s.mu.Unlock()

	if s.ctx.Err() != nil {
		return
	}
	s.logger.Info("schedule fired", "name", name)
	s.handler(s.ctx, p.entry.Payload)
}
