// Package patients provides the patient records bounded context module.
package patients

import (
	"context"

	"rcm_backend/internal/events"
	apphttp "rcm_backend/internal/http"
	leadsrepo "rcm_backend/internal/leads/repository"
	"rcm_backend/internal/patients/handler"
	"rcm_backend/internal/patients/repository"
	"rcm_backend/internal/patients/service"
	"rcm_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the patients bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	svc     *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the patients module with all its dependencies.
func NewModule(pool *pgxpool.Pool, leads *leadsrepo.Repository, eventBus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, leads, log)

	// Auto-create the patient record as soon as a lead qualifies. The HTTP
	// endpoint stays available for manual retries; creation is idempotent.
	eventBus.Subscribe(events.LeadQualified{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.LeadQualified)
		if !ok {
			return nil
		}
		if _, err := svc.CreateFromLead(ctx, e.LeadID); err != nil {
			log.Error("auto-create patient failed", "error", err, "leadId", e.LeadID)
		}
		return nil
	}))

	return &Module{
		handler: handler.New(svc),
		svc:     svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "patients" }

// RegisterRoutes mounts the patients routes on the authenticated API group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/patients"))
	m.handler.RegisterLeadRoutes(ctx.Protected.Group("/leads"))
}

// Repository exposes the patient repository for cross-module composition in main.
func (m *Module) Repository() *repository.Repository { return m.repo }
