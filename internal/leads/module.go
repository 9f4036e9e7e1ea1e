// Package leads provides the lead management bounded context module.
package leads

import (
	"rcm_backend/internal/events"
	apphttp "rcm_backend/internal/http"
	"rcm_backend/internal/leads/handler"
	"rcm_backend/internal/leads/repository"
	"rcm_backend/internal/leads/service"
	"rcm_backend/platform/logger"
	"rcm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	svc     *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, eventBus, log)

	return &Module{
		handler: handler.New(svc, val),
		svc:     svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "leads" }

// RegisterRoutes mounts the leads routes on the authenticated API group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/leads"))
}

// Repository exposes the lead repository for cross-module composition in main.
func (m *Module) Repository() *repository.Repository { return m.repo }

// Service exposes the lead service for cross-module composition in main.
func (m *Module) Service() *service.Service { return m.svc }
