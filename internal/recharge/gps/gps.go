// Package gps implements the GPS (vehicle tracker) service's Candidate
// Selector and device-side expiry update (spec §4.7, §4.9.1).
package gps

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mextic/rechargefleet/internal/domain"
)

// Selector implements recharge.Selector for the GPS service: a single SQL
// statement joining vehicles/companies/devices, restricted to prepaid +
// active + expiring-today-or-earlier, excluding tenant blacklist patterns
// and SIMs with a successful rastreo recharge in the last 6 days, looking up
// the last telemetry timestamp in a correlated (LATERAL) subquery and
// dropping SIMs whose last report is more than DaysLimit days old (spec §4.7).
type Selector struct {
	Pool      *pgxpool.Pool
	Blacklist []string
	DaysLimit int

	// Amount/Days are the fixed config-wide recharge parameters GPS uses
	// for every candidate (spec §4.9.1 — GPS has no per-candidate product
	// lookup, unlike VOZ/ELIoT).
	Amount int64
	Days   int
}

const selectGPSCandidates = `
SELECT
	d.sim,
	d.descriptor,
	c.name AS tenant,
	d.expires_at,
	t.last_report
FROM dispositivos d
JOIN vehiculos v ON v.sim = d.sim
JOIN companias c ON c.id = v.company_id
LEFT JOIN LATERAL (
	SELECT max(reported_at) AS last_report
	FROM telemetria
	WHERE telemetria.sim = d.sim
) t ON true
WHERE d.prepago = true
  AND d.activo = true
  AND d.expires_at <= $1
  AND NOT EXISTS (
	SELECT 1 FROM detalle_recargas dr
	JOIN recargas r ON r.id = dr.id_recarga
	WHERE dr.sim = d.sim AND r.tipo = 'rastreo'
	  AND to_timestamp(r.fecha) >= $2
  )
  AND c.name NOT ILIKE ALL($3)
  AND (t.last_report IS NULL OR extract(epoch FROM ($1 - t.last_report)) / 86400 <= $4)
ORDER BY c.name, d.descriptor
`

// SelectCandidates implements recharge.Selector.
func (s *Selector) SelectCandidates(ctx context.Context) ([]domain.Candidate, error) {
	now := time.Now()
	endOfToday := domain.EndOfLocalDay(now)
	antiDuplicateWindow := now.Add(-6 * 24 * time.Hour)

	blacklistPatterns := make([]string, len(s.Blacklist))
	for i, p := range s.Blacklist {
		blacklistPatterns[i] = "%" + p + "%"
	}

	rows, err := s.Pool.Query(ctx, selectGPSCandidates, endOfToday, antiDuplicateWindow, blacklistPatterns, s.DaysLimit)
	if err != nil {
		return nil, fmt.Errorf("gps: selecting candidates: %w", err)
	}
	defer rows.Close()

	var candidates []domain.Candidate
	for rows.Next() {
		var (
			sim, descriptor, tenant string
			expiresAt               time.Time
			lastReport              *time.Time
		)
		if err := rows.Scan(&sim, &descriptor, &tenant, &expiresAt, &lastReport); err != nil {
			return nil, fmt.Errorf("gps: scanning candidate row: %w", err)
		}
		candidates = append(candidates, domain.Candidate{
			Device: domain.Device{
				SIM: sim, Service: domain.ServiceGPS, Descriptor: descriptor,
				Tenant: tenant, ExpiresAt: expiresAt, LastReport: lastReport,
			},
			Plan: domain.RechargePlan{
				SIM:    sim,
				Amount: s.Amount,
				Days:   s.Days,
				State:  domain.ClassifyPlanState(expiresAt, now),
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("gps: iterating candidate rows: %w", err)
	}
	return candidates, nil
}

// DeviceUpdater implements recharge.TxDeviceUpdater for GPS: the device's
// `unix_saldo` column lives in the billing DB's own `dispositivos` table
// (spec §4.9.1), so the update runs inside the commit's own transaction
// rather than as a separate post-commit call.
type DeviceUpdater struct{}

func (u *DeviceUpdater) UpdateExpiryTx(ctx context.Context, tx pgx.Tx, sim string, expiresAt int64) error {
	_, err := tx.Exec(ctx, `UPDATE dispositivos SET unix_saldo = $1 WHERE sim = $2`, expiresAt, sim)
	if err != nil {
		return fmt.Errorf("gps: updating device expiry for sim %s: %w", sim, err)
	}
	return nil
}

// ProductCode returns the fixed GPS product code — GPS has no per-candidate
// product lookup, only a single config-wide amount (spec §4.9.1).
func ProductCode(amount int64) func(domain.Candidate) (string, error) {
	return func(_ domain.Candidate) (string, error) {
		return fmt.Sprintf("RASTREO%d", amount), nil
	}
}
