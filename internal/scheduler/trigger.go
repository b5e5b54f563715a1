package scheduler

import "time"

// IntervalTrigger fires at local minutes {0, k, 2k, ...} within every hour,
// wall-clock aligned to the top of the hour rather than to process start
// (spec §4.1 interval mode; property P5).
type IntervalTrigger struct {
	Minutes int // k; must be >= 1
}

// NextFire returns the duration until the next minute boundary that is a
// multiple of Minutes.
func (t IntervalTrigger) NextFire(now time.Time) time.Duration {
	k := t.Minutes
	if k <= 0 {
		k = 1
	}
	hourStart := now.Truncate(time.Hour)
	elapsed := now.Sub(hourStart)
	step := time.Duration(k) * time.Minute

	next := hourStart.Add(((elapsed / step) + 1) * step)
	return next.Sub(now)
}

// FixedTimesTrigger fires at a configured set of local times-of-day, e.g.
// "01:00" and "04:00" (spec §4.1 fixed-time mode).
type FixedTimesTrigger struct {
	Times []string // "HH:MM", 24h local time
}

// NextFire returns the duration until the next configured time-of-day,
// wrapping to tomorrow's earliest configured time if every one of today's
// has already passed.
func (t FixedTimesTrigger) NextFire(now time.Time) time.Duration {
	if len(t.Times) == 0 {
		return 24 * time.Hour
	}

	var best time.Time
	found := false
	for _, hm := range t.Times {
		candidate, ok := parseTimeOfDay(now, hm)
		if !ok {
			continue
		}
		if !candidate.After(now) {
			candidate = candidate.Add(24 * time.Hour)
		}
		if !found || candidate.Before(best) {
			best = candidate
			found = true
		}
	}
	if !found {
		return 24 * time.Hour
	}
	return best.Sub(now)
}

func parseTimeOfDay(now time.Time, hm string) (time.Time, bool) {
	parsed, err := time.ParseInLocation("15:04", hm, now.Location())
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(now.Year(), now.Month(), now.Day(), parsed.Hour(), parsed.Minute(), 0, 0, now.Location()), true
}
