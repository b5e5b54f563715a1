package recharge

import (
	"fmt"
	"time"

	"github.com/mextic/rechargefleet/internal/domain"
)

// FormatDetail renders a DetailRecharge's opaque `detail` text (spec §4.9
// step 3a): it must include saldoFinal, folio, amount, sim, carrier,
// local-time commit timestamp, txnId, timeout, ip, and — when
// includeMinutesWithoutReport is set (GPS/ELIoT) — minutesWithoutReport.
func FormatDetail(item domain.AuxiliaryItem, commitTime time.Time, includeMinutesWithoutReport bool) string {
	detail := fmt.Sprintf(
		"SIM: %s | Monto: %d | Carrier: %s | Folio: %s | TxnId: %s | SaldoFinal: %s | Timeout: %s | IP: %s | Fecha: %s",
		item.SIM,
		item.Amount,
		item.ProviderName,
		item.ProviderFolio,
		item.ProviderTxnID,
		item.ProviderSaldoFinal,
		item.Timeout,
		item.IP,
		commitTime.Format("2006-01-02 15:04:05"),
	)

	if includeMinutesWithoutReport && item.DeviceSnapshot.LastReport != nil {
		minutes := int(commitTime.Sub(*item.DeviceSnapshot.LastReport).Minutes())
		detail += fmt.Sprintf(" | Sin Reportar: %d min", minutes)
	}
	return detail
}
