package recharge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mextic/rechargefleet/internal/domain"
)

const uniqueViolation = "23505"

// CommitResult reports, per item, whether it landed (or was already present
// via the idempotent-duplicate path) so the caller can decide what stays in
// the auxiliary queue.
type CommitResult struct {
	MasterID int64
	Landed   map[string]bool // item ID -> committed (true) or duplicate (true, still landed) or failed (false)
}

// Commit implements the transaction engine of spec §4.9: one billing
// transaction per batch, master + optional analytics + one detail row per
// item, unique-violation-on-(sim,folio) treated as idempotent success (I2),
// any other per-item failure aborting and re-staging the whole batch.
// When the Descriptor carries a TxDeviceUpdater (GPS/VOZ, spec §4.9.1), the
// device-side expiry mutation runs inside the same per-item savepoint as the
// detail-row insert, so a crash can never leave a billed device unextended.
// ELIoT's DeviceUpdater instead runs post-commit and best-effort, since its
// device state lives in a second, non-transactional database. When every
// item of the batch turns out to be a duplicate, the transaction is rolled
// back, so a replay adds no second master or analytics row; MasterID is then 0.
func Commit(ctx context.Context, pool *pgxpool.Pool, d Descriptor, batch []domain.AuxiliaryItem, stats NoteStats, isRecovery bool, now time.Time) (CommitResult, error) {
	if len(batch) == 0 {
		return CommitResult{}, fmt.Errorf("commit: empty batch")
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return CommitResult{}, fmt.Errorf("commit: beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var total int64
	for _, it := range batch {
		total += it.Amount
	}
	note := FormatNote(d.NoteTag, stats, stats.Savings > 0, isRecovery, string(d.Service))

	var masterID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO recargas (total, fecha, notas, quien, proveedor, tipo, resumen) VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
		total, now.Unix(), note, "recharge-engine", batch[0].ProviderName, string(d.Type),
		fmt.Sprintf(`{"error":0,"success":0,"refund":0}`),
	).Scan(&masterID)
	if err != nil {
		return CommitResult{}, fmt.Errorf("commit: inserting master row: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO recharge_analytics (master_id, candidates_total, recharged, savings, failed) VALUES ($1,$2,$3,$4,$5)`,
		masterID, stats.Evaluated, stats.OK, stats.Savings, stats.Tried-stats.OK,
	); err != nil {
		return CommitResult{}, fmt.Errorf("commit: inserting analytics row: %w", err)
	}

	landed := make(map[string]bool, len(batch))
	fresh := 0
	for _, it := range batch {
		detail := FormatDetail(it, now, d.IncludeMinutesWithoutReport)
		vehicle := fmt.Sprintf("%s [%s]", it.DeviceSnapshot.Device, it.DeviceSnapshot.Tenant)

		// Each detail insert runs under its own savepoint: a unique-violation
		// aborts the whole surrounding transaction in Postgres unless rolled
		// back to a savepoint first, and I2's idempotent-duplicate handling
		// needs the rest of the batch to still commit.
		sp, err := tx.Begin(ctx)
		if err != nil {
			return CommitResult{}, fmt.Errorf("commit: opening savepoint for sim %s: %w", it.SIM, err)
		}

		_, err = sp.Exec(ctx,
			`INSERT INTO detalle_recargas (id_recarga, sim, importe, dispositivo, vehiculo, detalle, folio, status) VALUES ($1,$2,$3,$4,$5,$6,$7,1)`,
			masterID, it.SIM, it.Amount, it.DeviceSnapshot.Device, vehicle, detail, it.ProviderFolio,
		)
		if err == nil {
			if d.TxDeviceUpdater != nil {
				expiresAt := domain.EndOfLocalDay(now).Add(time.Duration(it.Days) * 24 * time.Hour).Unix()
				if err := d.TxDeviceUpdater.UpdateExpiryTx(ctx, sp, it.SIM, expiresAt); err != nil {
					return CommitResult{}, fmt.Errorf("commit: updating device expiry for sim %s: %w", it.SIM, err)
				}
			}
			if err := sp.Commit(ctx); err != nil {
				return CommitResult{}, fmt.Errorf("commit: releasing savepoint for sim %s: %w", it.SIM, err)
			}
			landed[it.ID] = true
			fresh++
			continue
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			if rbErr := sp.Rollback(ctx); rbErr != nil {
				return CommitResult{}, fmt.Errorf("commit: rolling back savepoint for sim %s: %w", it.SIM, rbErr)
			}
			landed[it.ID] = true
			continue
		}
		return CommitResult{}, fmt.Errorf("commit: inserting detail row for sim %s: %w", it.SIM, err)
	}

	// Nothing new landed: the deferred Rollback drops the master/analytics rows.
	if fresh == 0 {
		return CommitResult{Landed: landed}, nil
	}

	if err := tx.Commit(ctx); err != nil {
		return CommitResult{}, fmt.Errorf("commit: committing transaction: %w", err)
	}

	return CommitResult{MasterID: masterID, Landed: landed}, nil
}
