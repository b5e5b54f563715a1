package domain

import "time"

// AuxiliaryItemKind identifies which service a staged purchase belongs to.
type AuxiliaryItemKind string

const (
	KindGPSRecharge   AuxiliaryItemKind = "gps_recharge"
	KindVOZRecharge   AuxiliaryItemKind = "voz_recharge"
	KindELIoTRecharge AuxiliaryItemKind = "eliot_recharge"
)

// AuxiliaryItemStatus is the lifecycle state of a staged purchase (spec §3).
type AuxiliaryItemStatus string

const (
	StatusPendingDB          AuxiliaryItemStatus = "webservice_success_pending_db"
	StatusDBInsertionFailed  AuxiliaryItemStatus = "db_insertion_failed_pending_recovery"
	StatusDBVerificationFail AuxiliaryItemStatus = "db_verification_failed"
)

// DeviceSnapshot is the frozen device context carried in an AuxiliaryItem so
// the commit engine's detail row can be built without re-reading the device
// table (the device row may have moved on by the time recovery replays).
type DeviceSnapshot struct {
	Descriptor string
	Tenant     string
	Device     string // device identifier as shown in the billing detail row
	LastReport *time.Time
}

// CycleContext carries cycle-scoped bookkeeping used only for the
// human-readable note (spec §4.9.4) — it is not authoritative state.
type CycleContext struct {
	Index        int // 1-based position of this item within its cycle's batch
	Total        int
	SavingsCount int
}

// AuxiliaryItem is a durable record of a purchase that has been paid for but
// may not yet be reflected in the billing database (spec §3, invariant I1:
// once created with StatusPendingDB it MUST reach the DB or remain durably
// recoverable — it may never be dropped silently).
type AuxiliaryItem struct {
	ID                  string
	Kind                AuxiliaryItemKind
	SIM                 string
	Amount              int64
	Days                int
	ProviderName        string
	ProviderTxnID       string
	ProviderFolio       string
	ProviderSaldoFinal  string // currency-formatted, carrier-native
	ProviderRawResponse string // opaque, preserved verbatim
	DeviceSnapshot      DeviceSnapshot
	CycleContext        CycleContext
	Status              AuxiliaryItemStatus
	Attempts            int
	CreatedAt           time.Time

	// Timeout and IP as reported by the provider (may have come from either
	// the top-level response or the nested `response` sub-object — spec §6).
	Timeout string
	IP      string
}
