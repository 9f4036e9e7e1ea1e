package scheduler

import (
	"context"
	"fmt"

	claimsrepo "rcm_backend/internal/claims/repository"
	"rcm_backend/internal/notification"
	vobrepo "rcm_backend/internal/vob/repository"
	"rcm_backend/platform/apperr"
	"rcm_backend/platform/config"
	"rcm_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// LeadVerifier runs an eligibility verification for a lead.
type LeadVerifier interface {
	Verify(ctx context.Context, leadID uuid.UUID, payerID string) (vobrepo.Verification, error)
}

// ClaimMaintainer exposes the claim housekeeping operations the worker drives.
type ClaimMaintainer interface {
	RescoreCreated(ctx context.Context) (int, error)
	ListStuck(ctx context.Context) ([]claimsrepo.StuckClaim, error)
}

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	verifier LeadVerifier
	claims   ClaimMaintainer
	notifier notification.Sender
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		log:    log,
	}

	mux.HandleFunc(TaskVerifyLead, w.handleVerifyLead)
	mux.HandleFunc(TaskRescoreClaims, w.handleRescoreClaims)
	mux.HandleFunc(TaskStuckClaimSweep, w.handleStuckClaimSweep)

	return w, nil
}

func (w *Worker) SetLeadVerifier(verifier LeadVerifier)     { w.verifier = verifier }
func (w *Worker) SetClaimMaintainer(claims ClaimMaintainer) { w.claims = claims }
func (w *Worker) SetNotifier(notifier notification.Sender)  { w.notifier = notifier }

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleVerifyLead(ctx context.Context, task *asynq.Task) error {
	if w.verifier == nil {
		return nil
	}

	payload, err := ParseVerifyLeadPayload(task)
	if err != nil {
		return err
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return err
	}

	if _, err := w.verifier.Verify(ctx, leadID, payload.PayerID); err != nil {
		// Another verification for this lead is already in flight. The
		// in-flight run will update the projection, so there is nothing
		// to retry.
		if apperr.Is(err, apperr.KindConflict) {
			w.log.Info("verification skipped, lead already in flight", "lead_id", payload.LeadID)
			return nil
		}
		return err
	}

	return nil
}

func (w *Worker) handleRescoreClaims(ctx context.Context, _ *asynq.Task) error {
	if w.claims == nil {
		return nil
	}

	count, err := w.claims.RescoreCreated(ctx)
	if err != nil {
		return err
	}

	w.log.Info("rescored open claims", "count", count)
	return nil
}

func (w *Worker) handleStuckClaimSweep(ctx context.Context, _ *asynq.Task) error {
	if w.claims == nil {
		return nil
	}

	stuck, err := w.claims.ListStuck(ctx)
	if err != nil {
		return err
	}
	if len(stuck) == 0 {
		return nil
	}

	w.log.Warn("stuck claims detected", "count", len(stuck))

	if w.notifier == nil {
		return nil
	}
	return w.notifier.SendStuckClaimsDigest(ctx, stuck)
}
