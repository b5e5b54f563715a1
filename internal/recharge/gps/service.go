package gps

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mextic/rechargefleet/internal/domain"
	"github.com/mextic/rechargefleet/internal/provider"
	"github.com/mextic/rechargefleet/internal/recharge"
)

// Config holds the GPS-specific tunables sourced from internal/config.
type Config struct {
	Amount          int64
	Days            int
	DaysLimit       int
	MinutesNoReport int
	Blacklist       []string
}

// NewDescriptor builds the GPS recharge.Descriptor — the shared pipeline's
// entry point for this service (spec §4.9.1: type "rastreo", fixed
// amount/days, minutes-without-report included in the detail text).
func NewDescriptor(pool *pgxpool.Pool, client provider.Client, cfg Config) recharge.Descriptor {
	selector := &Selector{
		Pool: pool, Blacklist: cfg.Blacklist, DaysLimit: cfg.DaysLimit,
		Amount: cfg.Amount, Days: cfg.Days,
	}
	updater := &DeviceUpdater{}

	return recharge.Descriptor{
		Service:                     domain.ServiceGPS,
		Type:                        domain.TypeRastreo,
		NoteTag:                     "GPS-AUTO v2.3",
		IncludeMinutesWithoutReport: true,
		ApplyFilter:                 true,
		MinutesNoReport:             cfg.MinutesNoReport,
		Selector:                    selector,
		Provider:                    client,
		TxDeviceUpdater:             updater,
		ProductCode:                 ProductCode(cfg.Amount),
	}
}
