// Package calls provides the call ingestion bounded context module.
package calls

import (
	"rcm_backend/internal/calls/handler"
	"rcm_backend/internal/calls/repository"
	"rcm_backend/internal/calls/service"
	"rcm_backend/internal/events"
	apphttp "rcm_backend/internal/http"
	leadsrepo "rcm_backend/internal/leads/repository"
	"rcm_backend/platform/logger"
	"rcm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the calls bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	repo    *repository.Repository
}

// NewModule creates and initializes the calls module with all its dependencies.
func NewModule(pool *pgxpool.Pool, leads *leadsrepo.Repository, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, leads, eventBus, log)

	return &Module{
		handler: handler.New(svc, val),
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "calls" }

// RegisterRoutes mounts the calls routes on the authenticated API group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/calls"))
	m.handler.RegisterLeadRoutes(ctx.Protected.Group("/leads"))
}

// Repository exposes the call repository for cross-module composition in main.
func (m *Module) Repository() *repository.Repository { return m.repo }
