// Package domain holds the fleet-recharge engine's shared types: devices,
// recharge plans, auxiliary queue items, and the billing rows the commit
// engine writes.
package domain

import "time"

// Service identifies one of the three device populations this engine serves.
type Service string

const (
	ServiceGPS   Service = "GPS"
	ServiceVOZ   Service = "VOZ"
	ServiceELIoT Service = "ELIoT"
)

// Device is one SIM-bearing unit: a vehicle tracker, voice subscription, or
// IoT agent, per spec §3.
type Device struct {
	SIM         string
	Service     Service
	Descriptor  string // human label, e.g. vehicle tag
	Tenant      string // company name
	ExpiresAt   time.Time
	LastReport  *time.Time // telemetry source varies by service, nil for VOZ
	PackageCode string     // VOZ/ELIoT only, selects product SKU + validity
}

// PlanState classifies a RechargePlan relative to now (spec §3).
type PlanState string

const (
	PlanExpired  PlanState = "expired"
	PlanDueToday PlanState = "due_today"
	PlanFresh    PlanState = "fresh"
)

// RechargePlan is the ephemeral per-cycle recharge target derived for a Device.
type RechargePlan struct {
	SIM         string
	Amount      int64 // currency, smallest unit (e.g. whole pesos)
	Days        int
	ProductCode string
	State       PlanState
}

// ClassifyPlanState derives the RechargePlan state from expiresAt relative to
// now, per spec §3:
//
//	expired  ⇔ expiresAt <  now
//	dueToday ⇔ now ≤ expiresAt ≤ endOfToday(local)
//	fresh    otherwise
func ClassifyPlanState(expiresAt, now time.Time) PlanState {
	if expiresAt.Before(now) {
		return PlanExpired
	}
	if !expiresAt.After(EndOfLocalDay(now)) {
		return PlanDueToday
	}
	return PlanFresh
}

// EndOfLocalDay returns 23:59:59 of t's calendar day in t's location.
func EndOfLocalDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}

// Candidate pairs a Device with its derived RechargePlan, the unit the
// Candidate Selector (C7) yields (spec §4.7).
type Candidate struct {
	Device Device
	Plan   RechargePlan
}
