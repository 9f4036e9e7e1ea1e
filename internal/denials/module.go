// Package denials provides the denial tracking bounded context module.
package denials

import (
	claimsservice "rcm_backend/internal/claims/service"
	"rcm_backend/internal/denials/handler"
	"rcm_backend/internal/denials/repository"
	"rcm_backend/internal/denials/service"
	"rcm_backend/internal/events"
	apphttp "rcm_backend/internal/http"
	"rcm_backend/platform/logger"
	"rcm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the denials bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	repo    *repository.Repository
}

// NewModule creates and initializes the denials module with all its dependencies.
func NewModule(pool *pgxpool.Pool, claims *claimsservice.Service, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, claims, eventBus, log)

	return &Module{
		handler: handler.New(svc, val),
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "denials" }

// RegisterRoutes mounts the denials routes on the authenticated API group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/denials"))
}

// Repository exposes the denial repository for cross-module composition.
func (m *Module) Repository() *repository.Repository { return m.repo }
