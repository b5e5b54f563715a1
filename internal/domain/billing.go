package domain

// RechargeType is the billing-table `type` literal for a batch (spec §3, glossary).
type RechargeType string

const (
	TypeRastreo RechargeType = "rastreo"
	TypePaquete RechargeType = "paquete"
	TypeELIoT   RechargeType = "eliot"
)

// RechargeSummary is the {error,success,refund} tuple persisted on the master row.
type RechargeSummary struct {
	Error   int `json:"error"`
	Success int `json:"success"`
	Refund  int `json:"refund"`
}

// MasterRecharge is one billing row per commit batch (spec §3).
type MasterRecharge struct {
	ID       int64
	Total    int64
	Ts       int64 // Unix seconds, commit time
	Note     string
	Actor    string
	Provider string
	Type     RechargeType
	Summary  RechargeSummary
}

// DetailRecharge is one billing row per SIM per batch (spec §3).
// Invariant I2: (SIM, Folio) is globally unique; a duplicate insert MUST be
// treated as idempotent success.
type DetailRecharge struct {
	MasterID int64
	SIM      string
	Amount   int64
	Device   string
	Vehicle  string // formatted "{descriptor} [{tenant}]"
	Detail   string // opaque text: folio, txn id, timeout, ip, minutes-without-reporting
	Folio    string
	Status   int // always 1
}

// Analytics is the optional sibling row (spec §3) — best-effort, inside the
// same transaction as master/detail, so it follows the transaction's fate.
type Analytics struct {
	MasterID         int64
	CandidatesTotal  int
	Recharged        int
	Savings          int
	Failed           int
}
