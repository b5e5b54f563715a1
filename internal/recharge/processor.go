package recharge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mextic/rechargefleet/internal/domain"
	"github.com/mextic/rechargefleet/internal/lock"
	"github.com/mextic/rechargefleet/internal/provider"
	"github.com/mextic/rechargefleet/internal/queue"
	"github.com/mextic/rechargefleet/internal/retry"
	"github.com/mextic/rechargefleet/internal/telemetry"
)

// State names the processor's position in the per-cycle state machine of
// spec §4.11, exposed mainly for logging/tracing.
type State string

const (
	StateIdle        State = "idle"
	StateAcquiring   State = "acquiring"
	StateSkipped     State = "skipped"
	StateRecovering  State = "recovering"
	StateBlocked     State = "blocked"
	StateSelecting   State = "selecting"
	StateFiltering   State = "filtering"
	StatePurchasing  State = "purchasing"
	StateStaging     State = "staging"
	StateCommitting  State = "committing"
	StateVerifying   State = "verifying"
	StateCleaning    State = "cleaning"
	StateReleasing   State = "releasing"
)

// Processor runs the per-cycle pipeline of spec §4.6–§4.11 for one service.
// It is the shared machine every service's cmd wiring instantiates with a
// Descriptor parameterizing the service-specific bits.
type Processor struct {
	Descriptor Descriptor
	Pool       *pgxpool.Pool
	Queue      *queue.AuxiliaryQueue
	Marker     *queue.CrashMarker
	Locks      *lock.Manager
	Classifier *retry.Classifier
	Logger     *slog.Logger

	LockTTL           time.Duration
	DelayBetweenCalls time.Duration

	// Verbose enables per-item logging plus a 300ms pause after each
	// successful purchase, set from TEST_<SERVICE> (spec §6 — "for operator
	// readability only", never a behavioral/business-logic switch).
	Verbose bool

	// activeProvider is mutated by the retry classifier's AlternateProvider
	// callback (spec §4.4: "after attempt > 2 invoke optional
	// alternateProviderCallback to switch provider").
	activeProvider provider.Name
}

// NewProcessor builds a Processor and wires the classifier's
// AlternateProvider callback to toggle between the two carriers.
func NewProcessor(d Descriptor, pool *pgxpool.Pool, q *queue.AuxiliaryQueue, marker *queue.CrashMarker, locks *lock.Manager, classifier *retry.Classifier, logger *slog.Logger, lockTTL, delayBetweenCalls time.Duration, verbose bool) *Processor {
	p := &Processor{
		Descriptor:        d,
		Pool:              pool,
		Queue:             q,
		Marker:            marker,
		Locks:             locks,
		Classifier:        classifier,
		Logger:            logger,
		LockTTL:           lockTTL,
		DelayBetweenCalls: delayBetweenCalls,
		Verbose:           verbose,
		activeProvider:    provider.TAECEL,
	}
	classifier.AlternateProvider = p.toggleProvider
	return p
}

func (p *Processor) toggleProvider() {
	if p.activeProvider == provider.TAECEL {
		p.activeProvider = provider.MST
	} else {
		p.activeProvider = provider.TAECEL
	}
	p.Logger.Info("switched provider after repeated retriable failures", "service", p.Descriptor.Service, "provider", p.activeProvider)
}

// RunOnce runs one cycle: acquire the lock, recover pending items, and — if
// the queue is clean — select, filter, purchase, stage, commit, verify, and
// clean up, finally releasing the lock. It never returns an error for
// ordinary business outcomes (busy lock, blocked cycle, empty candidate
// set); those are logged and recorded via State, not propagated as Go
// errors, matching spec §4.11's "Terminal: Idle on success, Blocked/Skipped
// otherwise" (none of which are failures of the process itself).
func (p *Processor) RunOnce(ctx context.Context) error {
	now := time.Now()
	service := string(p.Descriptor.Service)
	p.activeProvider = provider.TAECEL

	start := time.Now()
	outcome := "completed"
	defer func() {
		telemetry.CyclesTotal.WithLabelValues(service, outcome).Inc()
		telemetry.CycleDuration.WithLabelValues(service).Observe(time.Since(start).Seconds())
	}()

	token, err := p.Locks.Acquire(ctx, service, p.LockTTL)
	if err != nil {
		outcome = "skipped"
		p.Logger.Info("cycle skipped: lock busy", "service", service)
		return nil // StateSkipped
	}
	defer func() {
		if err := p.Locks.Release(context.Background(), service, token); err != nil {
			p.Logger.Error("releasing lock", "service", service, "error", err)
		}
	}()

	snapshot, err := p.Queue.SnapshotForCrashMarker()
	if err != nil {
		return fmt.Errorf("%s: snapshotting queue: %w", service, err)
	}
	if err := p.Marker.Set(snapshot, now); err != nil {
		return fmt.Errorf("%s: setting crash marker: %w", service, err)
	}
	defer func() {
		if err := p.Marker.Clear(); err != nil {
			p.Logger.Error("clearing crash marker", "service", service, "error", err)
		}
	}()

	if err := Recover(ctx, p.Pool, p.Queue, p.Descriptor, p.Logger, now); err != nil {
		return fmt.Errorf("%s: recovering pending items: %w", service, err)
	}

	pending, err := p.Queue.List()
	if err != nil {
		return fmt.Errorf("%s: listing queue: %w", service, err)
	}
	telemetry.AuxiliaryQueueDepth.WithLabelValues(service).Set(float64(len(pending)))
	if len(pending) > 0 {
		outcome = "blocked"
		p.Logger.Warn("cycle blocked: pending items remain after recovery", "service", service, "count", len(pending))
		return nil // StateBlocked — no new purchases this cycle (spec §4.11)
	}

	candidates, err := p.Descriptor.Selector.SelectCandidates(ctx)
	if err != nil {
		return fmt.Errorf("%s: selecting candidates: %w", service, err)
	}
	if len(candidates) == 0 {
		return nil // empty candidate set → zero provider calls (spec §4.11 edge case)
	}

	var filtered []FilterResult
	if p.Descriptor.ApplyFilter {
		filtered = Filter(candidates, p.Descriptor.MinutesNoReport, now)
	} else {
		filtered = PassthroughFilter(candidates)
	}

	stats := NoteStats{Evaluated: len(candidates)}
	var toPurchase []domain.Candidate
	for _, fr := range filtered {
		switch fr.Candidate.Plan.State {
		case domain.PlanExpired:
			stats.Expired++
			telemetry.CandidatesEvaluatedTotal.WithLabelValues(service, "expired").Inc()
		case domain.PlanDueToday:
			stats.DueToday++
			telemetry.CandidatesEvaluatedTotal.WithLabelValues(service, "due_today").Inc()
		}
		if fr.Class == ClassSavings {
			stats.Savings++
			telemetry.CandidatesEvaluatedTotal.WithLabelValues(service, "savings").Inc()
			continue
		}
		toPurchase = append(toPurchase, fr.Candidate)
	}
	if len(toPurchase) == 0 {
		return nil
	}

	batch := make([]domain.AuxiliaryItem, 0, len(toPurchase))
	for i, cand := range toPurchase {
		stats.Tried++

		code, err := p.Descriptor.ProductCode(cand)
		if err != nil {
			p.Logger.Warn("skipping candidate: no product code", "service", service, "sim", cand.Device.SIM, "error", err)
			continue
		}

		var result provider.PurchaseResult
		execErr := p.Classifier.Execute(ctx, service, "purchase", func(ctx context.Context) error {
			held, herr := p.Locks.Held(ctx, service, token)
			if herr != nil {
				return fmt.Errorf("checking lock ownership: %w", herr)
			}
			if !held {
				return fmt.Errorf("lock lost mid-cycle, refusing further purchases")
			}

			res, perr := p.Descriptor.Provider.Purchase(ctx, p.activeProvider, provider.PurchaseRequest{
				SIM: cand.Device.SIM, ProductCode: code,
			})
			if perr != nil {
				return perr
			}
			if !res.Ok {
				return fmt.Errorf("%s", res.Message)
			}
			result = res
			return nil
		})
		if execErr != nil {
			telemetry.PurchasesTotal.WithLabelValues(service, string(p.activeProvider), "failed").Inc()
			p.Logger.Warn("purchase failed, device counted as failed this cycle", "service", service, "sim", cand.Device.SIM, "error", execErr)
			continue
		}
		telemetry.PurchasesTotal.WithLabelValues(service, string(p.activeProvider), "success").Inc()
		stats.OK++
		if p.Verbose {
			p.Logger.Info("purchase succeeded", "service", service, "sim", cand.Device.SIM, "product_code", code, "txn_id", result.TxnID, "folio", result.Folio)
		}

		item := domain.AuxiliaryItem{
			Kind:               kindFor(p.Descriptor.Service),
			SIM:                cand.Device.SIM,
			Amount:             cand.Plan.Amount,
			Days:               cand.Plan.Days,
			ProviderName:       string(p.activeProvider),
			ProviderTxnID:      result.TxnID,
			ProviderFolio:      result.Folio,
			ProviderSaldoFinal: result.SaldoFinal,
			ProviderRawResponse: string(result.RawResponse),
			DeviceSnapshot: domain.DeviceSnapshot{
				Descriptor: cand.Device.Descriptor,
				Tenant:     cand.Device.Tenant,
				Device:     cand.Device.Descriptor,
				LastReport: cand.Device.LastReport,
			},
			CycleContext: domain.CycleContext{Index: i + 1, Total: len(toPurchase), SavingsCount: stats.Savings},
			Status:       domain.StatusPendingDB,
			CreatedAt:    now,
			Timeout:      result.Timeout,
			IP:           result.IP,
		}

		// Stage immediately — cancellation after a successful purchase but
		// before staging MUST still stage the item (spec §5), so this call
		// uses a background context rather than the cycle's ctx.
		staged, stageErr := p.stageWithRetry(context.Background(), service, item)
		if stageErr != nil {
			p.Logger.Error("CRITICAL: purchase succeeded but staging failed, aborting cycle", "service", service, "sim", cand.Device.SIM, "error", stageErr)
			return fmt.Errorf("%s: staging purchased item: %w", service, stageErr)
		}
		batch = append(batch, staged)

		if p.Verbose {
			select {
			case <-ctx.Done():
			case <-time.After(300 * time.Millisecond):
			}
		}
		if p.DelayBetweenCalls > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(p.DelayBetweenCalls):
			}
		}
	}

	if len(batch) == 0 {
		return nil
	}

	res, err := Commit(ctx, p.Pool, p.Descriptor, batch, stats, false, now)
	if err != nil {
		if reErr := p.reStageBatch(batch); reErr != nil {
			p.Logger.Error("re-staging batch after commit failure", "service", service, "error", reErr)
		}
		return fmt.Errorf("%s: committing batch: %w", service, err)
	}

	// GPS/VOZ already updated their device's expiry inside Commit's
	// transaction. Only a non-nil DeviceUpdater (ELIoT) still needs a
	// post-commit, best-effort update against its separate agent DB. An item
	// whose update fails stays queued so the next recovery pass retries it.
	updateFailed := make(map[string]bool)
	if p.Descriptor.DeviceUpdater != nil {
		for _, it := range batch {
			if !res.Landed[it.ID] {
				continue
			}
			expiresAt := domain.EndOfLocalDay(now).Add(time.Duration(it.Days) * 24 * time.Hour).Unix()
			if err := p.Descriptor.DeviceUpdater.UpdateExpiry(ctx, it.SIM, expiresAt); err != nil {
				updateFailed[it.ID] = true
				p.Logger.Error("device expiry update failed, will retry on next recovery pass", "service", service, "sim", it.SIM, "error", err)
			}
		}
	}

	verifyRes, err := Verify(ctx, p.Pool, batch)
	if err != nil {
		return fmt.Errorf("%s: verifying batch: %w", service, err)
	}

	verifiedIDs := make(map[string]bool, len(verifyRes.Verified))
	for _, it := range verifyRes.Verified {
		if !updateFailed[it.ID] {
			verifiedIDs[it.ID] = true
		}
	}
	if _, err := p.Queue.RemoveByPredicate(func(x domain.AuxiliaryItem) bool {
		return !verifiedIDs[x.ID]
	}); err != nil {
		return fmt.Errorf("%s: cleaning verified items from queue: %w", service, err)
	}
	for _, missing := range verifyRes.Missing {
		if err := p.Queue.UpdateByID(missing.ID, func(x *domain.AuxiliaryItem) {
			x.Status = domain.StatusDBVerificationFail
			x.Attempts++
		}); err != nil {
			p.Logger.Error("recording verification-failed item", "service", service, "item", missing.ID, "error", err)
		}
	}

	p.Logger.Info("cycle complete", "service", service, "evaluated", stats.Evaluated, "ok", stats.OK, "tried", stats.Tried)
	return nil
}

func (p *Processor) stageWithRetry(ctx context.Context, service string, item domain.AuxiliaryItem) (domain.AuxiliaryItem, error) {
	var staged domain.AuxiliaryItem
	const maxAttempts = 5
	const baseDelay = 500 * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		it, err := p.Queue.Append(item)
		if err == nil {
			staged = it
			return staged, nil
		}
		lastErr = err
		p.Logger.Error("stage attempt failed", "service", service, "attempt", attempt, "error", err)
		time.Sleep(baseDelay)
	}
	return domain.AuxiliaryItem{}, fmt.Errorf("exhausted %d staging attempts: %w", maxAttempts, lastErr)
}

func (p *Processor) reStageBatch(batch []domain.AuxiliaryItem) error {
	for _, it := range batch {
		it.Status = domain.StatusDBInsertionFailed
		it.Attempts++
		if err := p.Queue.UpdateByID(it.ID, func(x *domain.AuxiliaryItem) {
			x.Status = domain.StatusDBInsertionFailed
			x.Attempts++
		}); err != nil {
			return err
		}
	}
	return nil
}

func kindFor(service domain.Service) domain.AuxiliaryItemKind {
	switch service {
	case domain.ServiceGPS:
		return domain.KindGPSRecharge
	case domain.ServiceVOZ:
		return domain.KindVOZRecharge
	case domain.ServiceELIoT:
		return domain.KindELIoTRecharge
	default:
		return ""
	}
}
