package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	"personlens/internal/batch"
	"personlens/internal/correlate"
	"personlens/internal/failover"
	"personlens/internal/monitor"
	"personlens/internal/notify"
	"personlens/internal/platform/config"
	"personlens/internal/platform/httpserver"
	"personlens/internal/platform/logger"
	"personlens/internal/platform/metrics"
	"personlens/internal/platform/redis"
	"personlens/internal/providers"
	httptransport "personlens/internal/transport/http"
	"personlens/internal/usage"
	"personlens/migrations"
	"personlens/pkg/platform/circuit"
)

const healthCheckInterval = 60 * time.Second

// main wires the dependency graph and keeps the process lifecycle small.
// Business logic lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Providers, breakers, failover.
	registry := providers.NewRegistry()
	httpClient := &http.Client{Timeout: cfg.Providers.SearchTimeout}
	if err := registry.Register(providers.NewPrimaryHTTP(cfg.Providers.PrimaryURL, cfg.Providers.PrimaryKey, httpClient)); err != nil {
		fatal(log, "register primary provider", err)
	}
	if err := registry.Register(providers.NewSecondaryHTTP(cfg.Providers.SecondaryURL, cfg.Providers.SecondaryKey, httpClient)); err != nil {
		fatal(log, "register secondary provider", err)
	}

	breakers := circuit.NewRegistry(
		circuit.WithBreakerOptions(
			circuit.WithFailureThreshold(cfg.Providers.BreakerFailureThreshold),
			circuit.WithResetTimeout(cfg.Providers.BreakerResetTimeout),
		),
		circuit.WithStateChangeHook(func(name string, from, to circuit.State) {
			m.RecordCircuitTransition(name, string(to))
			log.Info("circuit state change",
				slog.String("service", name),
				slog.String("from", string(from)),
				slog.String("to", string(to)))
		}),
	)

	orchestrator, err := failover.New(registry, breakers,
		failover.WithLogger(log),
		failover.WithMetrics(m),
		failover.WithSearchTimeout(cfg.Providers.SearchTimeout),
	)
	if err != nil {
		fatal(log, "build failover orchestrator", err)
	}

	engine := correlate.NewEngine()

	// Stores: Postgres when configured, in-memory otherwise.
	var (
		jobStore batch.JobStore
		subStore monitor.SubscriptionStore
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			fatal(log, "open postgres", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			fatal(log, "ping postgres", err)
		}
		if err := migrations.Apply(ctx, db); err != nil {
			fatal(log, "apply migrations", err)
		}
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			fatal(log, "create pgx pool", err)
		}
		defer pool.Close()

		jobStore = batch.NewPostgres(db)
		subStore = monitor.NewPostgres(pool)
	} else {
		log.Warn("no postgres DSN configured, using in-memory stores")
		jobStore = batch.NewInMemoryStore()
		subStore = monitor.NewInMemoryStore()
	}

	// Usage admission: redis-cached counters, in-memory fallback.
	var counterStore usage.CounterStore
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		fatal(log, "connect redis", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		counterStore, err = usage.NewRedisStore(redisClient)
		if err != nil {
			fatal(log, "build usage store", err)
		}
	} else {
		log.Warn("no redis URL configured, usage counters are process-local")
		counterStore = usage.NewInMemoryStore()
	}
	limiter, err := usage.NewLimiter(counterStore,
		usage.WithMonthlyLimit(cfg.Usage.MonthlyLimit),
		usage.WithCacheTTL(cfg.Usage.CacheTTL),
		usage.WithLogger(log),
	)
	if err != nil {
		fatal(log, "build usage limiter", err)
	}

	// Notifications: Kafka when configured, log-only otherwise.
	var (
		jobNotifier   batch.Notifier
		alertNotifier monitor.AlertNotifier
	)
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := notify.NewKafka(cfg.KafkaBrokers,
			notify.WithLogger(log),
			notify.WithMetrics(m),
		)
		if err != nil {
			fatal(log, "connect kafka", err)
		}
		defer kafka.Close()
		jobNotifier, alertNotifier = kafka, kafka
	} else {
		log.Warn("no kafka brokers configured, notifications are logged only")
		logging := notify.NewLogging(log)
		jobNotifier, alertNotifier = logging, logging
	}

	// Batch orchestration.
	jobs, err := batch.New(jobStore, orchestrator, engine,
		batch.WithLogger(log),
		batch.WithMetrics(m),
		batch.WithNotifier(jobNotifier),
		batch.WithUsageGate(limiter),
		batch.WithChunkSize(cfg.Batch.ChunkSize),
	)
	if err != nil {
		fatal(log, "build batch service", err)
	}
	worker, err := batch.NewWorker(jobs,
		batch.WithWorkerCount(cfg.Batch.WorkerCount),
		batch.WithMaxAttempts(cfg.Batch.MaxAttempts),
		batch.WithBackoffBase(cfg.Batch.RetryBase),
		batch.WithWorkerLogger(log),
	)
	if err != nil {
		fatal(log, "build batch worker", err)
	}

	// Monitoring.
	scheduler, err := monitor.NewScheduler(subStore, orchestrator, engine, alertNotifier,
		monitor.WithLogger(log),
		monitor.WithMetrics(m),
		monitor.WithTickInterval(cfg.Monitor.TickInterval),
	)
	if err != nil {
		fatal(log, "build monitoring scheduler", err)
	}

	// HTTP surface.
	handler, err := httptransport.NewHandler(orchestrator, engine, jobs, worker,
		httptransport.WithLogger(log),
		httptransport.WithMetrics(m),
		httptransport.WithHealthSources(orchestrator.Health(), breakers),
	)
	if err != nil {
		fatal(log, "build http handler", err)
	}
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

	worker.Start(ctx)
	go func() {
		if err := scheduler.Run(ctx); err != nil {
			log.Error("monitoring scheduler stopped", slog.Any("error", err))
		}
	}()
	go probeProviders(ctx, orchestrator)

	go func() {
		log.Info("starting personlens", slog.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", slog.Any("error", err))
	}
	worker.Wait()
}

// probeProviders keeps health observations fresh even when no searches are
// flowing, so breakers and /healthz reflect reality.
func probeProviders(ctx context.Context, orchestrator *failover.Orchestrator) {
	orchestrator.CheckAll(ctx)
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			orchestrator.CheckAll(ctx)
		}
	}
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, slog.Any("error", err))
	os.Exit(1)
}
