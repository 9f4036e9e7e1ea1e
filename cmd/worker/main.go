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
	"rcm_backend/internal/events"
	"rcm_backend/internal/leads"
	"rcm_backend/internal/notification"
	"rcm_backend/internal/patients"
	"rcm_backend/internal/rules"
	"rcm_backend/internal/scheduler"
	"rcm_backend/internal/vob"
	vobclient "rcm_backend/internal/vob/client"
	vobscoring "rcm_backend/internal/vob/scoring"
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
	log.Info("starting worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

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

	// Worker-side module wiring; no HTTP handlers are registered.
	leadsModule := leads.NewModule(pool, eventBus, val, log)
	callsModule := calls.NewModule(pool, leadsModule.Repository(), eventBus, val, log)
	patientsModule := patients.NewModule(pool, leadsModule.Repository(), eventBus, log)
	rulesModule := rules.NewModule(pool, val, log)

	vobModule := vob.NewModule(vob.Deps{
		Pool:     pool,
		Leads:    leadsModule.Repository(),
		Patients: patientsModule.Repository(),
		Calls:    callsModule.Repository(),
		Client:   verifyClient,
		Redis:    rdb,
		Weights:  vobWeights,
		EventBus: eventBus,
		Val:      val,
		Log:      log,
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

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = client.Close() }()

	dispatcher := scheduler.NewSweepDispatcher(client, log,
		getDurationEnv("CLAIM_RESCORE_INTERVAL", time.Hour),
		getDurationEnv("STUCK_SWEEP_INTERVAL", 24*time.Hour),
	)
	go dispatcher.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}
	worker.SetLeadVerifier(vobModule.Service())
	worker.SetClaimMaintainer(claimsModule.Service())

	if cfg.IsEmailEnabled() {
		worker.SetNotifier(notification.NewSMTPSender(cfg))
		log.Info("ops email alerts enabled", "to", cfg.GetOpsAlertAddress())
	} else {
		log.Warn("SMTP not configured; stuck claim digests disabled")
	}

	worker.Run(ctx)
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

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}

	return parsed
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
