package recharge

import (
	"testing"
	"time"

	"github.com/mextic/rechargefleet/internal/domain"
)

func TestFilter_RechargesWhenStaleReport(t *testing.T) {
	now := time.Now()
	stale := now.Add(-20 * time.Minute)
	candidates := []domain.Candidate{
		{Device: domain.Device{SIM: "stale", LastReport: &stale}},
	}
	results := Filter(candidates, 10, now)
	if results[0].Class != ClassToRecharge {
		t.Errorf("Filter() = %v, want ClassToRecharge for a stale report", results[0].Class)
	}
}

func TestFilter_SavesWhenFreshReport(t *testing.T) {
	now := time.Now()
	fresh := now.Add(-2 * time.Minute)
	candidates := []domain.Candidate{
		{Device: domain.Device{SIM: "fresh", LastReport: &fresh}},
	}
	results := Filter(candidates, 10, now)
	if results[0].Class != ClassSavings {
		t.Errorf("Filter() = %v, want ClassSavings for a fresh report", results[0].Class)
	}
}

func TestFilter_NoReportAlwaysRecharges(t *testing.T) {
	candidates := []domain.Candidate{
		{Device: domain.Device{SIM: "unknown", LastReport: nil}},
	}
	results := Filter(candidates, 10, time.Now())
	if results[0].Class != ClassToRecharge {
		t.Error("Filter() must never strand a device with no known LastReport")
	}
}

func TestPassthroughFilter_AlwaysToRecharge(t *testing.T) {
	fresh := time.Now()
	candidates := []domain.Candidate{
		{Device: domain.Device{SIM: "a", LastReport: &fresh}},
		{Device: domain.Device{SIM: "b"}},
	}
	for _, r := range PassthroughFilter(candidates) {
		if r.Class != ClassToRecharge {
			t.Errorf("PassthroughFilter() = %v, want ClassToRecharge for every candidate", r.Class)
		}
	}
}
