package retry

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"
)

func newTestClassifier() *Classifier {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	c := NewClassifier(logger, nil)
	c.BaseBackoff = time.Millisecond
	c.MaxBackoff = 5 * time.Millisecond
	c.BusinessRetryDelay = time.Millisecond
	return c
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"timeout is retriable", errors.New("read tcp: i/o timeout"), CategoryRetriable},
		{"insufficient balance is retriable", errors.New("saldo insuficiente"), CategoryRetriable},
		{"connection refused is fatal", errors.New("dial tcp: connection refused"), CategoryFatal},
		{"sim blocked is business", errors.New("SIM blocked"), CategoryBusiness},
		{"duplicate txn is business", errors.New("duplicate transaction"), CategoryBusiness},
		{"unrecognized defaults to business", errors.New("something weird happened"), CategoryBusiness},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestExecute_SucceedsWithoutRetry(t *testing.T) {
	c := newTestClassifier()
	calls := 0
	err := c.Execute(context.Background(), "GPS", "test-op", func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestExecute_FatalNeverRetries(t *testing.T) {
	c := newTestClassifier()
	calls := 0
	err := c.Execute(context.Background(), "GPS", "test-op", func(ctx context.Context) error {
		calls++
		return errors.New("auth failed")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (FATAL must not retry)", calls)
	}
}

func TestExecute_BusinessRetriesOnceThenQuarantines(t *testing.T) {
	c := newTestClassifier()
	calls := 0
	err := c.Execute(context.Background(), "GPS", "test-op", func(ctx context.Context) error {
		calls++
		return errors.New("SIM blocked")
	})
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (BUSINESS retries once)", calls)
	}
	if !IsQuarantined(err) {
		t.Errorf("expected quarantine error, got %v", err)
	}
}

func TestExecute_RetriableSwitchesProviderAfterAttemptTwo(t *testing.T) {
	c := newTestClassifier()
	switched := 0
	c.AlternateProvider = func() { switched++ }

	calls := 0
	_ = c.Execute(context.Background(), "GPS", "test-op", func(ctx context.Context) error {
		calls++
		if calls >= 4 {
			return nil
		}
		return errors.New("network timeout")
	})
	if switched == 0 {
		t.Error("expected AlternateProvider to be invoked once a failed attempt's number exceeds 2")
	}
}

func TestExecute_RetriableExhaustsAfterFiveAttempts(t *testing.T) {
	c := newTestClassifier()
	calls := 0
	err := c.Execute(context.Background(), "GPS", "test-op", func(ctx context.Context) error {
		calls++
		return errors.New("timeout")
	})
	if calls != maxRetriableAttempts {
		t.Errorf("calls = %d, want %d", calls, maxRetriableAttempts)
	}
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
}
