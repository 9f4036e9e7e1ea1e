// Package rules provides the denial-prevention rules bounded context module.
package rules

import (
	apphttp "rcm_backend/internal/http"
	"rcm_backend/internal/rules/handler"
	"rcm_backend/internal/rules/repository"
	"rcm_backend/internal/rules/service"
	"rcm_backend/platform/logger"
	"rcm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the rules bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	repo    *repository.Repository
}

// NewModule creates and initializes the rules module with all its dependencies.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)

	return &Module{
		handler: handler.New(svc, val),
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "rules" }

// RegisterRoutes mounts the rules routes on the authenticated API group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/rules"))
}

// Repository exposes the rule repository for cross-module composition in main.
func (m *Module) Repository() *repository.Repository { return m.repo }
