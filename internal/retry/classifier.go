// Package retry wraps every side-effecting call (provider, DB, coordinator
// store) in a category-aware retry policy (spec §4.4).
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/mextic/rechargefleet/internal/alert"
	"github.com/mextic/rechargefleet/internal/telemetry"
)

const (
	maxRetriableAttempts = 5
	baseBackoff          = 1 * time.Second
	maxBackoff           = 30 * time.Second
	businessRetryDelay   = 5 * time.Second
	alternateAfterAttempt = 2
)

// QuarantineError signals that a BUSINESS-classified failure exhausted its
// one retry and the item must be skipped for the remainder of the cycle.
type QuarantineError struct {
	Err error
}

func (q *QuarantineError) Error() string { return fmt.Sprintf("quarantined: %v", q.Err) }
func (q *QuarantineError) Unwrap() error { return q.Err }

// Classifier executes operations with the category-specific policy of spec
// §4.4: RETRIABLE gets exponential backoff with jitter up to 5 attempts and
// an alternate-provider switch after each failed attempt numbered above 2; FATAL gets zero retries and
// bubbles up immediately after a critical alert; BUSINESS gets one retry
// after a fixed delay, then quarantine.
type Classifier struct {
	logger  *slog.Logger
	alerter alert.Sink
	counts  *alert.Thresholder

	// AlternateProvider is invoked after a RETRIABLE op's attempt exceeds 2;
	// it should mutate whatever the op closure captures so the next attempt
	// targets the alternate provider. Nil disables provider switching.
	AlternateProvider func()

	// BaseBackoff/MaxBackoff/BusinessRetryDelay override the package
	// defaults — tests shrink these to keep the retry-delay paths fast.
	BaseBackoff        time.Duration
	MaxBackoff         time.Duration
	BusinessRetryDelay time.Duration
}

// NewClassifier creates a Classifier. alerter may be nil, in which case a
// LogSink is used.
func NewClassifier(logger *slog.Logger, alerter alert.Sink) *Classifier {
	if alerter == nil {
		alerter = &alert.LogSink{Logger: logger}
	}
	return &Classifier{
		logger:             logger,
		alerter:            alerter,
		counts:             alert.NewThresholder(alerter),
		BaseBackoff:        baseBackoff,
		MaxBackoff:         maxBackoff,
		BusinessRetryDelay: businessRetryDelay,
	}
}

// Execute runs fn under the classification/retry policy for op (a short,
// human-readable operation name used in logs and alerts).
func (c *Classifier) Execute(ctx context.Context, service, op string, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		category := Classify(err)
		telemetry.RetriesTotal.WithLabelValues(string(category)).Inc()
		c.logger.Warn("operation failed",
			"service", service, "op", op, "attempt", attempt, "category", string(category), "error", err)

		switch category {
		case CategoryFatal:
			c.counts.Record(ctx, "fatal", 0, alert.Alert{
				Category: "fatal", Service: service,
				Message: fmt.Sprintf("%s: fatal error", op),
				Detail:  map[string]any{"error": err.Error()},
			})
			return fmt.Errorf("%s: fatal: %w", op, err)

		case CategoryBusiness:
			if attempt >= 2 {
				c.counts.Record(ctx, "business", 5, alert.Alert{
					Category: "business_quarantine", Service: service,
					Message: fmt.Sprintf("%s: quarantined after retry", op),
					Detail:  map[string]any{"error": err.Error()},
				})
				return &QuarantineError{Err: fmt.Errorf("%s: %w", op, err)}
			}
			if !sleepCtx(ctx, c.BusinessRetryDelay) {
				return ctx.Err()
			}
			continue

		case CategoryRetriable:
			if attempt >= maxRetriableAttempts {
				c.counts.Record(ctx, "retriable", 20, alert.Alert{
					Category: "retriable_exhausted", Service: service,
					Message: fmt.Sprintf("%s: exhausted %d attempts", op, maxRetriableAttempts),
					Detail:  map[string]any{"error": err.Error()},
				})
				return fmt.Errorf("%s: exhausted retries: %w", op, lastErr)
			}
			if attempt > alternateAfterAttempt && c.AlternateProvider != nil {
				c.AlternateProvider()
			}
			if !sleepCtx(ctx, backoffWithJitter(attempt, c.BaseBackoff, c.MaxBackoff)) {
				return ctx.Err()
			}
			continue

		default:
			return fmt.Errorf("%s: %w", op, err)
		}
	}
}

// backoffWithJitter computes an exponential delay capped at max, with full
// jitter (uniform in [0, delay]) to avoid synchronized retry storms across
// the three service processors.
func backoffWithJitter(attempt int, base, max time.Duration) time.Duration {
	delay := base * time.Duration(1<<uint(attempt-1))
	if delay > max {
		delay = max
	}
	return time.Duration(rand.Int63n(int64(delay) + 1))
}

// sleepCtx sleeps for d or returns false early if ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// IsQuarantined reports whether err is (or wraps) a QuarantineError.
func IsQuarantined(err error) bool {
	var q *QuarantineError
	return errors.As(err, &q)
}
