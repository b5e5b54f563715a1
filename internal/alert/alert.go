// Package alert models the alert fan-out as a narrow interface. The fan-out
// destination itself (pager, chat, email) is an external collaborator (spec
// §1 Scope) — this package owns only the producing side: a threshold
// counter plus a default logging sink.
package alert

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mextic/rechargefleet/internal/telemetry"
)

// Alert is a single raised event, severe enough to leave this process.
type Alert struct {
	Category string // raised by retry.Classifier: "fatal", "business_quarantine", "retriable_exhausted"
	Service  string
	Message  string
	Detail   map[string]any
}

// Sink is the external alert fan-out this package talks to one side of.
type Sink interface {
	Notify(ctx context.Context, a Alert)
}

// LogSink is the default Sink: it logs at error level. Swap in a real
// fan-out (pager/chat) by implementing Sink — this package never assumes
// one exists.
type LogSink struct {
	Logger *slog.Logger
}

// Notify implements Sink by logging the alert.
func (s *LogSink) Notify(_ context.Context, a Alert) {
	s.Logger.Error("ALERT",
		"category", a.Category,
		"service", a.Service,
		"message", a.Message,
		"detail", a.Detail,
	)
}

// Thresholder counts events per category within a sliding window and raises
// an aggregated alert once a category's per-hour count exceeds its
// threshold (spec §4.4: "Alert thresholds... trigger an aggregated alert
// when exceeded"). The sliding-window-of-timestamps technique mirrors a
// circuit breaker's failure window, generalized from tripping a breaker to
// tripping an alert.
type Thresholder struct {
	mu     sync.Mutex
	sink   Sink
	window time.Duration
	events map[string][]time.Time
	now    func() time.Time
}

// NewThresholder creates a Thresholder whose window defaults to one hour.
func NewThresholder(sink Sink) *Thresholder {
	return &Thresholder{
		sink:   sink,
		window: time.Hour,
		events: make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Record registers one occurrence of category and raises a, via the sink, if
// the per-hour count for category now exceeds threshold.
func (t *Thresholder) Record(ctx context.Context, category string, threshold int, a Alert) {
	t.mu.Lock()
	now := t.now()
	cutoff := now.Add(-t.window)

	events := t.events[category]
	kept := events[:0]
	for _, ts := range events {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	kept = append(kept, now)
	t.events[category] = kept
	count := len(kept)
	t.mu.Unlock()

	if count > threshold {
		telemetry.AlertsRaisedTotal.WithLabelValues(category).Inc()
		t.sink.Notify(ctx, a)
	}
}
