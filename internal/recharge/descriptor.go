// Package recharge implements the per-cycle pipeline shared by all three
// service processors (spec §4.6–§4.11): crash recovery, candidate
// selection's downstream filter, the commit engine, the verifier, and the
// state-machine processor that sequences them. Each service supplies a
// Descriptor that parameterizes the pieces spec §4.9.1 calls out as
// service-specific.
package recharge

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/mextic/rechargefleet/internal/domain"
	"github.com/mextic/rechargefleet/internal/provider"
)

// Selector yields the unordered candidate set of spec §4.7.
type Selector interface {
	SelectCandidates(ctx context.Context) ([]domain.Candidate, error)
}

// DeviceUpdater applies a post-commit, best-effort device-side expiry
// mutation of spec §4.9.1's "device table field" column. It exists only for
// ELIoT, whose device state lives in a second, non-transactional database
// (the agent DB) that cannot share the billing commit's transaction — the
// ordering is billing-commit first, agent-update second, with recovery
// retrying the latter on partial failure.
type DeviceUpdater interface {
	UpdateExpiry(ctx context.Context, sim string, expiresAt int64) error
}

// TxDeviceUpdater applies the device-side expiry mutation inside the same
// billing transaction as the commit (spec §4.9.1). GPS/VOZ's device table
// lives in the billing DB itself, so their expiry bump runs co-transactionally
// with the detail-row insert — a crash between the two would otherwise leave
// a billed device that never got re-extended, letting GPS's anti-duplicate
// window bill it again for the same period it already paid for.
type TxDeviceUpdater interface {
	UpdateExpiryTx(ctx context.Context, tx pgx.Tx, sim string, expiresAt int64) error
}

// Descriptor parameterizes the shared pipeline for one service (spec
// §4.9.1/§4.9.2/§4.9.4).
type Descriptor struct {
	Service domain.Service
	Type    domain.RechargeType

	// NoteTag is the bracketed prefix of the KPI note, e.g. "GPS-AUTO v2.3".
	NoteTag string

	// IncludeMinutesWithoutReport controls whether the detail text includes
	// "Sin Reportar: N min" (true for GPS/ELIoT, false for VOZ — spec §4.9
	// step 3a).
	IncludeMinutesWithoutReport bool

	// ApplyFilter controls whether candidates pass through the
	// reporting-freshness Filter (C8) before purchase. VOZ bypasses it
	// (spec §4.8: "VOZ bypasses this filter... all selected candidates are
	// toRecharge").
	ApplyFilter bool

	// MinutesNoReport is the filter threshold M (spec §4.8), unused when
	// ApplyFilter is false.
	MinutesNoReport int

	Selector Selector
	Provider provider.Client

	// DeviceUpdater is the post-commit, best-effort updater (ELIoT only).
	// TxDeviceUpdater is the co-transactional updater (GPS/VOZ only).
	// Exactly one is set per service.
	DeviceUpdater   DeviceUpdater
	TxDeviceUpdater TxDeviceUpdater

	// ProductCode resolves the provider product code for a candidate. GPS
	// uses a fixed code from config; VOZ/ELIoT derive it from the plan
	// (spec §4.9.1/§4.9.2).
	ProductCode func(domain.Candidate) (code string, err error)
}
