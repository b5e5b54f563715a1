package recharge

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mextic/rechargefleet/internal/domain"
	"github.com/mextic/rechargefleet/internal/queue"
	"github.com/mextic/rechargefleet/internal/telemetry"
)

// isPending reports whether recovery re-attempts an item with this status:
// pending DB insert, failed DB insert, or failed post-commit verification.
func isPending(status domain.AuxiliaryItemStatus) bool {
	return status == domain.StatusPendingDB || status == domain.StatusDBInsertionFailed ||
		status == domain.StatusDBVerificationFail
}

// Recover implements spec §4.6: re-commit every pending item individually,
// relying on the (sim, folio) unique constraint for idempotency. Items that
// land (freshly or as a duplicate) are removed from the queue once any
// post-commit DeviceUpdater (ELIoT) has also succeeded; an item whose device
// update fails stays queued for the next pass; items whose commit still
// fails are left with Attempts incremented.
func Recover(ctx context.Context, pool *pgxpool.Pool, q *queue.AuxiliaryQueue, d Descriptor, logger *slog.Logger, now time.Time) error {
	items, err := q.List()
	if err != nil {
		return err
	}

	var pending []domain.AuxiliaryItem
	for _, it := range items {
		if isPending(it.Status) {
			pending = append(pending, it)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	logger.Info("recovering pending items", "service", d.Service, "count", len(pending))

	for _, it := range pending {
		stats := NoteStats{Evaluated: 1, Tried: 1, OK: 1}
		res, err := Commit(ctx, pool, d, []domain.AuxiliaryItem{it}, stats, true, now)
		if err != nil {
			telemetry.RecoveredItemsTotal.WithLabelValues(string(d.Service), "still_failing").Inc()
			logger.Error("recovery commit failed", "service", d.Service, "item", it.ID, "error", err)
			updateErr := q.UpdateByID(it.ID, func(x *domain.AuxiliaryItem) {
				x.Status = domain.StatusDBInsertionFailed
				x.Attempts++
			})
			if updateErr != nil {
				logger.Error("recovery bookkeeping update failed", "service", d.Service, "item", it.ID, "error", updateErr)
			}
			continue
		}

		if landed, ok := res.Landed[it.ID]; ok && landed {
			if d.DeviceUpdater != nil {
				expiresAt := domain.EndOfLocalDay(now).Add(time.Duration(it.Days) * 24 * time.Hour).Unix()
				if err := d.DeviceUpdater.UpdateExpiry(ctx, it.SIM, expiresAt); err != nil {
					logger.Warn("recovery device update failed, will retry next recovery pass", "service", d.Service, "sim", it.SIM, "error", err)
					continue
				}
			}
			telemetry.RecoveredItemsTotal.WithLabelValues(string(d.Service), "committed").Inc()
			if _, err := q.RemoveByPredicate(func(x domain.AuxiliaryItem) bool { return x.ID != it.ID }); err != nil {
				logger.Error("removing recovered item from queue", "service", d.Service, "item", it.ID, "error", err)
				continue
			}
		}
	}
	return nil
}
