package recharge

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mextic/rechargefleet/internal/domain"
)

// VerifyResult splits a committed batch into items confirmed present in the
// billing DB and items that, surprisingly, were not found (spec §4.10).
type VerifyResult struct {
	Verified []domain.AuxiliaryItem
	Missing  []domain.AuxiliaryItem
}

// Verify reads back each item's (sim, folio) pair after Commit returns
// (spec §4.10). A missing item is not an error here — the caller is
// expected to mark it db_verification_failed, bump Attempts, and leave it
// queued for the next cycle's recovery pass.
func Verify(ctx context.Context, pool *pgxpool.Pool, batch []domain.AuxiliaryItem) (VerifyResult, error) {
	var result VerifyResult
	for _, it := range batch {
		var count int
		err := pool.QueryRow(ctx,
			`SELECT count(*) FROM detalle_recargas WHERE sim = $1 AND folio = $2`,
			it.SIM, it.ProviderFolio,
		).Scan(&count)
		if err != nil {
			return VerifyResult{}, fmt.Errorf("verify: querying sim %s folio %s: %w", it.SIM, it.ProviderFolio, err)
		}
		if count > 0 {
			result.Verified = append(result.Verified, it)
		} else {
			it.Status = domain.StatusDBVerificationFail
			it.Attempts++
			result.Missing = append(result.Missing, it)
		}
	}
	return result, nil
}
