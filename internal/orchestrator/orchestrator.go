// Package orchestrator boots the engine's infrastructure and runs one
// scheduler+processor pair per enabled service, replacing the teacher's
// internal/app.Run for this domain: instead of an HTTP API and a worker
// mode, rechargefleet has three concurrent schedule loops sharing a single
// connection pool and lock manager (spec §5), plus an ops HTTP surface.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/mextic/rechargefleet/internal/alert"
	"github.com/mextic/rechargefleet/internal/config"
	"github.com/mextic/rechargefleet/internal/httpserver"
	"github.com/mextic/rechargefleet/internal/lock"
	"github.com/mextic/rechargefleet/internal/platform"
	"github.com/mextic/rechargefleet/internal/provider"
	"github.com/mextic/rechargefleet/internal/queue"
	"github.com/mextic/rechargefleet/internal/recharge"
	"github.com/mextic/rechargefleet/internal/recharge/eliot"
	"github.com/mextic/rechargefleet/internal/recharge/gps"
	"github.com/mextic/rechargefleet/internal/recharge/voz"
	"github.com/mextic/rechargefleet/internal/retry"
	"github.com/mextic/rechargefleet/internal/scheduler"
	"github.com/mextic/rechargefleet/internal/telemetry"
)

// Run wires infrastructure from cfg, starts each enabled service's
// scheduler+processor pair, and the ops HTTP server, then blocks until ctx
// is cancelled. It returns once every goroutine has unwound.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	billingPool, err := platform.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to billing database: %w", err)
	}
	defer billingPool.Close()

	agentPool, err := platform.NewPostgresPool(ctx, cfg.AgentDatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to agent database: %w", err)
	}
	defer agentPool.Close()

	rdb, err := platform.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("closing redis", "error", err)
		}
	}()

	mongoClient, err := platform.NewMongoClient(ctx, cfg.MongoURL)
	if err != nil {
		return fmt.Errorf("connecting to mongo: %w", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Error("disconnecting mongo", "error", err)
		}
	}()

	lockTTL, err := time.ParseDuration(cfg.LockTTL)
	if err != nil {
		return fmt.Errorf("parsing RECHARGE_LOCK_TTL: %w", err)
	}
	delayBetweenCalls, err := time.ParseDuration(cfg.DelayBetweenCalls)
	if err != nil {
		return fmt.Errorf("parsing DELAY_BETWEEN_CALLS: %w", err)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	taecel := provider.NewTaecelClient(cfg.TaecelURL, cfg.TaecelKey, cfg.TaecelNIP, httpClient)
	mst := provider.NewMSTClient(cfg.MSTURL, cfg.MSTUser, cfg.MSTPassword, httpClient)
	router := provider.NewRouter(taecel, mst)

	locks := lock.NewManager(rdb)
	sink := &alert.LogSink{Logger: logger}

	metricsReg := telemetry.NewMetricsRegistry()
	ops := httpserver.New(logger, billingPool, rdb, mongoClient, metricsReg)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return ops.Run(gctx, cfg.ListenAddr())
	})

	{
		descriptor := gps.NewDescriptor(billingPool, router, gps.Config{
			Amount: int64(cfg.GPSAmount), Days: cfg.GPSDays,
			DaysLimit: cfg.GPSDaysLimit, MinutesNoReport: cfg.GPSMinutesNoReport,
			Blacklist: cfg.TenantBlacklist,
		})
		runService(g, gctx, logger, runnerArgs{
			service:           string(descriptor.Service),
			descriptor:        descriptor,
			pool:              billingPool,
			dataDir:           cfg.DataDir,
			locks:             locks,
			sink:              sink,
			lockTTL:           lockTTL,
			delayBetweenCalls: delayBetweenCalls,
			verbose:           cfg.TestGPS,
			trigger:           &scheduler.IntervalTrigger{Minutes: cfg.GPSIntervalMinutes},
		})
	}

	{
		descriptor := voz.NewDescriptor(billingPool, router, voz.DefaultPackages)
		var trigger scheduler.Trigger
		if cfg.VOZScheduleMode == "interval" {
			trigger = &scheduler.IntervalTrigger{Minutes: cfg.VOZMinutes}
		} else {
			trigger = &scheduler.FixedTimesTrigger{Times: cfg.VOZFixedTimes}
		}
		runService(g, gctx, logger, runnerArgs{
			service:           string(descriptor.Service),
			descriptor:        descriptor,
			pool:              billingPool,
			dataDir:           cfg.DataDir,
			locks:             locks,
			sink:              sink,
			lockTTL:           lockTTL,
			delayBetweenCalls: delayBetweenCalls,
			verbose:           cfg.TestVOZ,
			trigger:           trigger,
		})
	}

	{
		descriptor := eliot.NewDescriptor(billingPool, agentPool, mongoClient, router, eliot.Config{
			MongoDatabase: cfg.MongoDB, DaysLimit: cfg.ELIoTDaysLimit, Products: eliot.DefaultProductPlans,
		})
		runService(g, gctx, logger, runnerArgs{
			service:           string(descriptor.Service),
			descriptor:        descriptor,
			pool:              billingPool,
			dataDir:           cfg.DataDir,
			locks:             locks,
			sink:              sink,
			lockTTL:           lockTTL,
			delayBetweenCalls: delayBetweenCalls,
			verbose:           cfg.TestELIoT,
			trigger:           &scheduler.IntervalTrigger{Minutes: cfg.ELIoTIntervalMinutes},
		})
	}

	return g.Wait()
}

type runnerArgs struct {
	service           string
	descriptor        recharge.Descriptor
	pool              *pgxpool.Pool
	dataDir           string
	locks             *lock.Manager
	sink              alert.Sink
	lockTTL           time.Duration
	delayBetweenCalls time.Duration
	verbose           bool
	trigger           scheduler.Trigger
}

// runService builds one service's Queue/CrashMarker/Classifier/Processor and
// starts its Scheduler in the errgroup.
func runService(g *errgroup.Group, ctx context.Context, logger *slog.Logger, a runnerArgs) {
	svcLogger := logger.With("service", a.service)
	q := queue.New(a.dataDir, a.service)
	marker := queue.NewCrashMarker(a.dataDir, a.service)

	if state, err := marker.Read(); err != nil {
		svcLogger.Error("reading crash marker at startup", "error", err)
	} else if state.WasProcessing {
		svcLogger.Warn("crash marker found at startup: process died mid-cycle, recovery will run before any new purchase",
			"service", a.service, "recorded_at", state.RecordedAt, "items_in_process", len(state.ItemsInProcess))
	}

	classifier := retry.NewClassifier(svcLogger, a.sink)
	proc := recharge.NewProcessor(a.descriptor, a.pool, q, marker, a.locks, classifier, svcLogger, a.lockTTL, a.delayBetweenCalls, a.verbose)
	sched := scheduler.New(a.service, a.trigger, svcLogger)

	g.Go(func() error {
		return sched.Run(ctx, proc.RunOnce)
	})
}
