package recharge

import (
	"time"

	"github.com/mextic/rechargefleet/internal/domain"
)

// FilterClass is the per-candidate classification the Filter (C8) assigns.
type FilterClass string

const (
	ClassToRecharge FilterClass = "to_recharge"
	ClassSavings    FilterClass = "savings" // near-expiry but still reporting; recharge skipped
)

// FilterResult pairs a candidate with its classification.
type FilterResult struct {
	Candidate domain.Candidate
	Class     FilterClass
}

// Filter applies spec §4.8 to the selector output: a candidate with a known
// LastReport recharges only once it has gone minutesNoReport minutes
// without reporting; otherwise it's "savings" (still alive, skip this
// cycle). A candidate with no LastReport always recharges (fail-safe:
// never strand a device that can't be checked).
func Filter(candidates []domain.Candidate, minutesNoReport int, now time.Time) []FilterResult {
	results := make([]FilterResult, 0, len(candidates))
	threshold := time.Duration(minutesNoReport) * time.Minute

	for _, c := range candidates {
		if c.Device.LastReport == nil {
			results = append(results, FilterResult{Candidate: c, Class: ClassToRecharge})
			continue
		}
		since := now.Sub(*c.Device.LastReport)
		if since >= threshold {
			results = append(results, FilterResult{Candidate: c, Class: ClassToRecharge})
		} else {
			results = append(results, FilterResult{Candidate: c, Class: ClassSavings})
		}
	}
	return results
}

// PassthroughFilter classifies every candidate as toRecharge, for services
// that bypass the freshness filter entirely (spec §4.8: VOZ has no
// telemetry input).
func PassthroughFilter(candidates []domain.Candidate) []FilterResult {
	results := make([]FilterResult, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, FilterResult{Candidate: c, Class: ClassToRecharge})
	}
	return results
}
