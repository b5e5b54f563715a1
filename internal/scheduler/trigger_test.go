package scheduler

import (
	"testing"
	"time"
)

func TestIntervalTrigger_AlignsToTopOfHour(t *testing.T) {
	tests := []struct {
		name string
		now  string
		k    int
		want string
	}{
		{"just after the hour", "2026-07-31T10:00:30Z", 10, "2026-07-31T10:10:00Z"},
		{"mid interval", "2026-07-31T10:07:00Z", 10, "2026-07-31T10:10:00Z"},
		{"exactly on boundary fires next", "2026-07-31T10:10:00Z", 10, "2026-07-31T10:20:00Z"},
		{"crosses hour boundary", "2026-07-31T10:55:00Z", 10, "2026-07-31T11:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now, err := time.Parse(time.RFC3339, tt.now)
			if err != nil {
				t.Fatal(err)
			}
			want, err := time.Parse(time.RFC3339, tt.want)
			if err != nil {
				t.Fatal(err)
			}
			trig := IntervalTrigger{Minutes: tt.k}
			got := now.Add(trig.NextFire(now))
			if !got.Equal(want) {
				t.Errorf("NextFire(%s) fires at %s, want %s", tt.now, got, want)
			}
		})
	}
}

func TestFixedTimesTrigger_PicksEarliestRemainingTime(t *testing.T) {
	now, _ := time.Parse(time.RFC3339, "2026-07-31T02:00:00Z")
	trig := FixedTimesTrigger{Times: []string{"01:00", "04:00"}}
	want, _ := time.Parse(time.RFC3339, "2026-07-31T04:00:00Z")

	got := now.Add(trig.NextFire(now))
	if !got.Equal(want) {
		t.Errorf("NextFire() fires at %s, want %s", got, want)
	}
}

func TestFixedTimesTrigger_WrapsToTomorrow(t *testing.T) {
	now, _ := time.Parse(time.RFC3339, "2026-07-31T05:00:00Z")
	trig := FixedTimesTrigger{Times: []string{"01:00", "04:00"}}
	want, _ := time.Parse(time.RFC3339, "2026-08-01T01:00:00Z")

	got := now.Add(trig.NextFire(now))
	if !got.Equal(want) {
		t.Errorf("NextFire() fires at %s, want %s", got, want)
	}
}

func TestFixedTimesTrigger_EmptyTimesFallsBackADay(t *testing.T) {
	now := time.Now()
	trig := FixedTimesTrigger{}
	if got := trig.NextFire(now); got != 24*time.Hour {
		t.Errorf("NextFire() = %v, want 24h", got)
	}
}
