// Package dashboard provides the read-only operational metrics module.
package dashboard

import (
	"rcm_backend/internal/dashboard/handler"
	"rcm_backend/internal/dashboard/repository"
	"rcm_backend/internal/dashboard/service"
	apphttp "rcm_backend/internal/http"
	"rcm_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the dashboard bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the dashboard module.
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)

	return &Module{handler: handler.New(svc)}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "dashboard" }

// RegisterRoutes mounts the dashboard routes on the authenticated API group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/dashboard"))
}
