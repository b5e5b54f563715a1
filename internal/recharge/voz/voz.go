// Package voz implements the VOZ (voice-SIM subscription) service's
// Candidate Selector and device-side expiry update (spec §4.7, §4.9.1).
// VOZ has no telemetry input, so unlike GPS/ELIoT it bypasses the
// reporting-freshness Filter entirely.
package voz

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mextic/rechargefleet/internal/domain"
)

// PackagePlan is one row of the product-code lookup table spec §4.9.1 calls
// "derived from product code": VOZ's package code selects both the
// provider product code and the validity/amount pair.
type PackagePlan struct {
	ProductCode string
	Amount      int64
	Days        int
}

// Selector implements recharge.Selector for VOZ: restricted by package code
// and subscription validity, no telemetry join (spec §4.7).
type Selector struct {
	Pool     *pgxpool.Pool
	Packages map[string]PackagePlan
}

const selectVOZCandidates = `
SELECT s.sim, s.descriptor, c.name AS tenant, s.expires_at, s.package_code
FROM suscripciones_voz s
JOIN companias c ON c.id = s.company_id
WHERE s.activo = true
  AND s.expires_at <= $1
ORDER BY c.name, s.descriptor
`

// SelectCandidates implements recharge.Selector.
func (s *Selector) SelectCandidates(ctx context.Context) ([]domain.Candidate, error) {
	now := time.Now()
	endOfToday := domain.EndOfLocalDay(now)

	rows, err := s.Pool.Query(ctx, selectVOZCandidates, endOfToday)
	if err != nil {
		return nil, fmt.Errorf("voz: selecting candidates: %w", err)
	}
	defer rows.Close()

	var candidates []domain.Candidate
	for rows.Next() {
		var (
			sim, descriptor, tenant, packageCode string
			expiresAt                            time.Time
		)
		if err := rows.Scan(&sim, &descriptor, &tenant, &expiresAt, &packageCode); err != nil {
			return nil, fmt.Errorf("voz: scanning candidate row: %w", err)
		}

		plan, ok := s.Packages[packageCode]
		if !ok {
			continue // unmapped package code; surfaced as a BUSINESS error at purchase time would require a SIM, so skip here
		}

		candidates = append(candidates, domain.Candidate{
			Device: domain.Device{
				SIM: sim, Service: domain.ServiceVOZ, Descriptor: descriptor,
				Tenant: tenant, ExpiresAt: expiresAt, PackageCode: packageCode,
			},
			Plan: domain.RechargePlan{
				SIM: sim, Amount: plan.Amount, Days: plan.Days, ProductCode: plan.ProductCode,
				State: domain.ClassifyPlanState(expiresAt, now),
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("voz: iterating candidate rows: %w", err)
	}
	return candidates, nil
}

// DeviceUpdater implements recharge.TxDeviceUpdater for VOZ: the
// subscription's own expires_at column, updated inside the commit's own
// transaction alongside the detail-row insert.
type DeviceUpdater struct{}

func (u *DeviceUpdater) UpdateExpiryTx(ctx context.Context, tx pgx.Tx, sim string, expiresAt int64) error {
	_, err := tx.Exec(ctx, `UPDATE suscripciones_voz SET expires_at = to_timestamp($1) WHERE sim = $2`, expiresAt, sim)
	if err != nil {
		return fmt.Errorf("voz: updating subscription expiry for sim %s: %w", sim, err)
	}
	return nil
}

// ProductCode returns the already-resolved product code the selector
// attached to the candidate's plan.
func ProductCode(c domain.Candidate) (string, error) {
	if c.Plan.ProductCode == "" {
		return "", fmt.Errorf("voz: no product code resolved for sim %s", c.Device.SIM)
	}
	return c.Plan.ProductCode, nil
}
