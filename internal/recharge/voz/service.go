package voz

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mextic/rechargefleet/internal/domain"
	"github.com/mextic/rechargefleet/internal/provider"
	"github.com/mextic/rechargefleet/internal/recharge"
)

// DefaultPackages is the built-in VOZ package-code lookup table. Operators
// without a custom table get this one.
var DefaultPackages = map[string]PackagePlan{
	"VOZ30":  {ProductCode: "PAQ030", Amount: 30, Days: 30},
	"VOZ60":  {ProductCode: "PAQ060", Amount: 60, Days: 30},
	"VOZ100": {ProductCode: "PAQ100", Amount: 100, Days: 30},
}

// NewDescriptor builds the VOZ recharge.Descriptor (spec §4.9.1: type
// "paquete", amount/days derived from product code, no filter, no
// minutes-without-report in the detail text).
func NewDescriptor(pool *pgxpool.Pool, client provider.Client, packages map[string]PackagePlan) recharge.Descriptor {
	if packages == nil {
		packages = DefaultPackages
	}
	selector := &Selector{Pool: pool, Packages: packages}
	updater := &DeviceUpdater{}

	return recharge.Descriptor{
		Service:                     domain.ServiceVOZ,
		Type:                        domain.TypePaquete,
		NoteTag:                     "VOZ-AUTO v1.0",
		IncludeMinutesWithoutReport: false,
		ApplyFilter:                 false,
		Selector:                    selector,
		Provider:                    client,
		TxDeviceUpdater:             updater,
		ProductCode:                 ProductCode,
	}
}
