package main

import (
	"context"
	"crypto/tls"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rcm_backend/internal/calls"
	"rcm_backend/internal/claims"
	claimsscoring "rcm_backend/internal/claims/scoring"
	"rcm_backend/internal/dashboard"
	"rcm_backend/internal/denials"
	"rcm_backend/internal/events"
	apphttp "rcm_backend/internal/http"
	"rcm_backend/internal/http/router"
	"rcm_backend/internal/leads"
	"rcm_backend/internal/patients"
	"rcm_backend/internal/rules"
	"rcm_backend/internal/scheduler"
	"rcm_backend/internal/vob"
	vobclient "rcm_backend/internal/vob/client"
	vobscoring "rcm_backend/internal/vob/scoring"
	vobservice "rcm_backend/internal/vob/service"
	"rcm_backend/internal/vob/storage"
	"rcm_backend/migrations"
	"rcm_backend/platform/config"
	"rcm_backend/platform/db"
	"rcm_backend/platform/logger"
	"rcm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS, ".")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Redis backs the per-lead verification lease; without it concurrent
	// verifications for the same lead cannot be serialized.
	rdb, err := newRedisClient(cfg)
	if err != nil {
		log.Error("failed to initialize redis client", "error", err)
		panic("failed to initialize redis client: " + err.Error())
	}
	defer func() { _ = rdb.Close() }()

	vobWeights, err := vobscoring.LoadWeights(cfg.GetScoringWeightsPath())
	if err != nil {
		log.Warn("could not load vob scoring weights, using defaults", "error", err)
	}
	riskWeights, err := claimsscoring.LoadWeights(cfg.GetScoringWeightsPath())
	if err != nil {
		log.Warn("could not load risk scoring weights, using defaults", "error", err)
	}

	verifyClient := vobclient.New(
		cfg.GetVerifyBaseURL(),
		cfg.GetVerifyAPIKey(),
		cfg.GetVerifyAPISecret(),
		cfg.GetVerifyTokenTTL(),
		log,
	)
	if !cfg.IsVerifyEnabled() {
		log.Warn("verification API credentials not configured; upstream calls will fail")
	}

	var docStore vobservice.DocumentStore
	if cfg.IsMinIOEnabled() {
		store, err := storage.New(ctx, cfg)
		if err != nil {
			log.Error("failed to initialize document storage", "error", err)
			panic("failed to initialize document storage: " + err.Error())
		}
		docStore = store
		log.Info("document storage initialized", "bucket", cfg.GetMinioBucketVOBDocuments())
	} else {
		log.Warn("MINIO_ENDPOINT not configured; verification PDF export disabled")
	}

	schedClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize task queue client", "error", err)
		panic("failed to initialize task queue client: " + err.Error())
	}
	defer func() { _ = schedClient.Close() }()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	leadsModule := leads.NewModule(pool, eventBus, val, log)
	callsModule := calls.NewModule(pool, leadsModule.Repository(), eventBus, val, log)
	patientsModule := patients.NewModule(pool, leadsModule.Repository(), eventBus, log)
	rulesModule := rules.NewModule(pool, val, log)

	vobModule := vob.NewModule(vob.Deps{
		Pool:      pool,
		Leads:     leadsModule.Repository(),
		Patients:  patientsModule.Repository(),
		Calls:     callsModule.Repository(),
		Client:    verifyClient,
		Redis:     rdb,
		Docs:      docStore,
		Weights:   vobWeights,
		EventBus:  eventBus,
		Scheduler: schedClient,
		Val:       val,
		Log:       log,
	})

	claimsModule := claims.NewModule(claims.Deps{
		Pool:           pool,
		Leads:          leadsModule.Repository(),
		Patients:       patientsModule.Repository(),
		Verifications:  vobModule.Repository(),
		Rules:          rulesModule.Repository(),
		Weights:        riskWeights,
		StuckThreshold: cfg.GetStuckClaimThreshold(),
		EventBus:       eventBus,
		Val:            val,
		Log:            log,
	})

	denialsModule := denials.NewModule(pool, claimsModule.Service(), eventBus, val, log)
	dashboardModule := dashboard.NewModule(pool, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
			callsModule,
			patientsModule,
			rulesModule,
			vobModule,
			claimsModule,
			denialsModule,
			dashboardModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func newRedisClient(cfg config.SchedulerConfig) (*redis.Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	if cfg.GetRedisTLSInsecure() {
		if opt.TLSConfig != nil {
			opt.TLSConfig.InsecureSkipVerify = true
		} else {
			opt.TLSConfig = &tls.Config{InsecureSkipVerify: true}
		}
	}

	return redis.NewClient(opt), nil
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
