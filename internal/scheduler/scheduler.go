// Package scheduler fires per-service cycles at predictable wall-clock
// instants (spec §4.1). A Scheduler wraps a Trigger (interval or
// fixed-time) in the same ticker-driven Run/tick loop shape as the
// teacher's escalation.Engine.
package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Trigger computes the duration to sleep, from now, until the next cycle
// should fire.
type Trigger interface {
	NextFire(now time.Time) time.Duration
}

// Scheduler fires one cycle at a time for a single service, blocking the
// caller-supplied fn's cycle before scheduling the next. A fire that falls
// due while fn is still running is dropped: the next fire is computed from
// the time fn returns — the per-service distributed lock is
// what guards cross-process overlap (spec §4.1: "A cycle that arrives while
// the previous cycle for the same service is still executing is dropped").
type Scheduler struct {
	service string
	trigger Trigger
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a Scheduler for service using trigger to decide fire times.
func New(service string, trigger Trigger, logger *slog.Logger) *Scheduler {
	return &Scheduler{service: service, trigger: trigger, logger: logger, now: time.Now}
}

// Run blocks, invoking fn once per fire, until ctx is cancelled. fn receives
// Run's own ctx, so cancelling ctx also cancels a cycle in flight.
func (s *Scheduler) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	s.logger.Info("scheduler started", "service", s.service)
	for {
		d := s.trigger.NextFire(s.now())
		timer := time.NewTimer(d)

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("scheduler stopped", "service", s.service)
			return nil
		case <-timer.C:
		}

		if err := fn(ctx); err != nil {
			s.logger.Error("cycle failed", "service", s.service, "error", err)
		}
	}
}
