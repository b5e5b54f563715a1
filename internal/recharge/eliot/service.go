package eliot

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/mextic/rechargefleet/internal/domain"
	"github.com/mextic/rechargefleet/internal/provider"
	"github.com/mextic/rechargefleet/internal/recharge"
)

// Config holds the ELIoT-specific tunables sourced from internal/config.
type Config struct {
	MongoDatabase string
	DaysLimit     int
	Products      map[int64]ProductPlan
}

// NewDescriptor builds the ELIoT recharge.Descriptor (spec §4.9.1: type
// "eliot", amount/days derived from importe_recarga, telemetry-based
// filter like GPS, device-expiry update against a separate agent database).
func NewDescriptor(billingPool, agentPool *pgxpool.Pool, mongoClient *mongo.Client, client provider.Client, cfg Config) recharge.Descriptor {
	products := cfg.Products
	if products == nil {
		products = DefaultProductPlans
	}
	selector := &Selector{
		Pool: billingPool, Mongo: mongoClient, MongoDatabase: cfg.MongoDatabase,
		Products: products, DaysLimit: cfg.DaysLimit,
	}
	updater := &DeviceUpdater{AgentPool: agentPool}

	return recharge.Descriptor{
		Service:                     domain.ServiceELIoT,
		Type:                        domain.TypeELIoT,
		NoteTag:                     "ELIOT-AUTO v1.0",
		IncludeMinutesWithoutReport: true,
		ApplyFilter:                 true,
		MinutesNoReport:             cfg.DaysLimit * 24 * 60,
		Selector:                    selector,
		Provider:                    client,
		DeviceUpdater:               updater,
		ProductCode:                 ProductCode,
	}
}
