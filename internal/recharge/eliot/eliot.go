// Package eliot implements the ELIoT (IoT agent) service's Candidate
// Selector, product-code lookup, and device-side expiry update (spec
// §4.7, §4.9.1, §4.9.2). ELIoT is the one service that reads telemetry
// from MongoDB's `metricas` collection rather than the billing Postgres DB,
// and whose device-side expiry update targets a second, non-transactional
// logical database (the agent DB).
package eliot

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/mextic/rechargefleet/internal/domain"
)

// ProductPlan is one row of the importe_recarga → {productCode, days}
// lookup table of spec §4.9.2.
type ProductPlan struct {
	ProductCode string
	Days        int
}

// DefaultProductPlans is the lookup table named in spec §4.9.2's example:
// 10→TEL010/7d, 50→TEL050/30d, 500→TEL500/60d.
var DefaultProductPlans = map[int64]ProductPlan{
	10:  {ProductCode: "TEL010", Days: 7},
	50:  {ProductCode: "TEL050", Days: 30},
	500: {ProductCode: "TEL500", Days: 60},
}

// ErrUnmappedAmount is returned by ProductCode for a candidate whose plan
// carries no product code. SelectCandidates itself drops any agent whose
// importe_recarga has no entry in the product plan table, so such agents
// never become candidates.
var ErrUnmappedAmount = fmt.Errorf("eliot: unmapped importe_recarga")

// Selector implements recharge.Selector for ELIoT: a SQL query against the
// agentesEmpresa view, each result cross-referenced against MongoDB's
// metricas collection for last-report time (spec §4.7).
type Selector struct {
	Pool          *pgxpool.Pool
	Mongo         *mongo.Client
	MongoDatabase string
	Products      map[int64]ProductPlan
	DaysLimit     int
}

const selectELIoTCandidates = `
SELECT a.uuid, a.sim, a.descriptor, a.tenant, a.fecha_saldo, a.importe_recarga
FROM agentesEmpresa a
WHERE a.prepago = true
  AND a.activo = true
  AND a.comunicacion = 'gsm'
  AND a.importe_recarga > 0
  AND a.fecha_saldo <= $1
ORDER BY a.tenant, a.descriptor
`

// SelectCandidates implements recharge.Selector.
func (s *Selector) SelectCandidates(ctx context.Context) ([]domain.Candidate, error) {
	now := time.Now()
	endOfToday := domain.EndOfLocalDay(now)

	rows, err := s.Pool.Query(ctx, selectELIoTCandidates, endOfToday)
	if err != nil {
		return nil, fmt.Errorf("eliot: selecting candidates: %w", err)
	}
	defer rows.Close()

	type row struct {
		uuid, sim, descriptor, tenant string
		expiresAt                     time.Time
		importeRecarga                int64
	}
	var pending []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.uuid, &r.sim, &r.descriptor, &r.tenant, &r.expiresAt, &r.importeRecarga); err != nil {
			return nil, fmt.Errorf("eliot: scanning candidate row: %w", err)
		}
		pending = append(pending, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("eliot: iterating candidate rows: %w", err)
	}

	collection := s.Mongo.Database(s.MongoDatabase).Collection("metricas")

	var candidates []domain.Candidate
	for _, r := range pending {
		plan, ok := s.Products[r.importeRecarga]
		if !ok {
			continue // unmapped amount; rejected as BUSINESS at purchase time would need a staged item, so skip at selection
		}

		lastReport, err := lastReportFor(ctx, collection, r.uuid)
		if err != nil {
			return nil, fmt.Errorf("eliot: querying metricas for %s: %w", r.uuid, err)
		}
		if lastReport != nil {
			daysSince := now.Sub(*lastReport).Hours() / 24
			if daysSince > float64(s.DaysLimit) {
				continue
			}
		}

		candidates = append(candidates, domain.Candidate{
			Device: domain.Device{
				SIM: r.sim, Service: domain.ServiceELIoT, Descriptor: r.descriptor,
				Tenant: r.tenant, ExpiresAt: r.expiresAt, LastReport: lastReport,
			},
			Plan: domain.RechargePlan{
				SIM: r.sim, Amount: r.importeRecarga, Days: plan.Days, ProductCode: plan.ProductCode,
				State: domain.ClassifyPlanState(r.expiresAt, now),
			},
		})
	}
	return candidates, nil
}

func lastReportFor(ctx context.Context, collection *mongo.Collection, deviceUUID string) (*time.Time, error) {
	var doc struct {
		ReportedAt time.Time `bson:"reportedAt"`
	}
	filter := bson.D{{Key: "uuid", Value: deviceUUID}}
	opts := options.FindOne().SetSort(bson.D{{Key: "reportedAt", Value: -1}})
	err := collection.FindOne(ctx, filter, opts).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &doc.ReportedAt, nil
}

// DeviceUpdater implements recharge.DeviceUpdater for ELIoT: the agent's
// `fecha_saldo` column in the separate agent database (spec §4.9.1 — not
// co-transactional with the billing commit; ordering is billing-commit
// first, agent-update second, with recovery retrying only the latter on
// partial failure).
type DeviceUpdater struct {
	AgentPool *pgxpool.Pool
}

func (u *DeviceUpdater) UpdateExpiry(ctx context.Context, sim string, expiresAt int64) error {
	_, err := u.AgentPool.Exec(ctx, `UPDATE agentes SET fecha_saldo = $1 WHERE sim = $2`, expiresAt, sim)
	if err != nil {
		return fmt.Errorf("eliot: updating agent balance for sim %s: %w", sim, err)
	}
	return nil
}

// ProductCode returns the already-resolved product code the selector
// attached to the candidate's plan, or ErrUnmappedAmount if somehow absent.
func ProductCode(c domain.Candidate) (string, error) {
	if c.Plan.ProductCode == "" {
		return "", ErrUnmappedAmount
	}
	return c.Plan.ProductCode, nil
}
