// Package provider abstracts the two recharge carriers (spec §4.3), named
// here TAECEL and MST. Client is the narrow interface the rest of the
// system talks to; NewTaecelClient/NewMSTClient wire a real carrier, and a fake in tests
// substitutes for the network — the same Caller/NoopCaller split the
// teacher's on-call callout integration uses.
package provider

import (
	"context"
	"fmt"
)

// Name identifies a carrier.
type Name string

const (
	TAECEL Name = "TAECEL"
	MST    Name = "MST"
)

// PurchaseRequest is the one money-spending call in the system (spec §4.3):
// it MUST be issued exactly when the caller is ready to stage an
// AuxiliaryItem immediately after.
type PurchaseRequest struct {
	SIM         string
	ProductCode string
}

// PurchaseResult is the tagged-union response of spec §9 "Dynamic typing of
// the provider response → tagged variant": Ok distinguishes the Success arm
// (TxnID/Folio/SaldoFinal/Timeout/IP populated) from the Failure arm
// (Message populated, the rest zero). RawResponse is preserved verbatim for
// the AuxiliaryItem's audit trail regardless of which arm this is.
type PurchaseResult struct {
	Ok          bool
	TxnID       string
	Folio       string
	SaldoFinal  string // currency-formatted, carrier-native
	Timeout     string
	IP          string
	Message     string
	RawResponse []byte
}

// Client is the provider abstraction of spec §4.3.
type Client interface {
	// Balance returns the carrier's current balance. Cheap; callers may
	// cache the result for up to 60s.
	Balance(ctx context.Context, p Name) (float64, error)

	// Purchase spends money. Callers MUST stage the result durably
	// immediately after a successful call — see PurchaseRequest doc.
	Purchase(ctx context.Context, p Name, req PurchaseRequest) (PurchaseResult, error)
}

// ErrUnknownProvider is returned when a Name outside {TAECEL, MST} is asked for.
var ErrUnknownProvider = fmt.Errorf("unknown provider")
