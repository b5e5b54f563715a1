package recharge

import (
	"strings"
	"testing"
	"time"

	"github.com/mextic/rechargefleet/internal/domain"
)

func TestFormatDetail_IncludesRequiredFields(t *testing.T) {
	commitTime, _ := time.Parse(time.RFC3339, "2026-07-31T10:00:00Z")
	item := domain.AuxiliaryItem{
		SIM: "6681000001", Amount: 10, ProviderName: "TAECEL",
		ProviderFolio: "F001", ProviderTxnID: "T001", ProviderSaldoFinal: "123.45",
		Timeout: "1.23", IP: "10.0.0.1",
	}
	detail := FormatDetail(item, commitTime, false)

	for _, want := range []string{"6681000001", "TAECEL", "F001", "T001", "123.45", "1.23", "10.0.0.1", "2026-07-31"} {
		if !strings.Contains(detail, want) {
			t.Errorf("FormatDetail() = %q, missing %q", detail, want)
		}
	}
}

func TestFormatDetail_IncludesMinutesWithoutReportWhenRequested(t *testing.T) {
	commitTime := time.Now()
	lastReport := commitTime.Add(-15 * time.Minute)
	item := domain.AuxiliaryItem{
		SIM: "x",
		DeviceSnapshot: domain.DeviceSnapshot{LastReport: &lastReport},
	}
	detail := FormatDetail(item, commitTime, true)
	if !strings.Contains(detail, "Sin Reportar: 15 min") {
		t.Errorf("FormatDetail() = %q, want minutes-without-report", detail)
	}
}

func TestFormatDetail_OmitsMinutesWithoutReportForVOZ(t *testing.T) {
	commitTime := time.Now()
	item := domain.AuxiliaryItem{SIM: "x"}
	detail := FormatDetail(item, commitTime, false)
	if strings.Contains(detail, "Sin Reportar") {
		t.Errorf("FormatDetail() = %q, should omit minutes-without-report when not requested", detail)
	}
}
