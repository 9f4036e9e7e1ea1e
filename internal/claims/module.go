// Package claims provides the claims bounded context module.
package claims

import (
	"time"

	"rcm_backend/internal/claims/handler"
	"rcm_backend/internal/claims/repository"
	"rcm_backend/internal/claims/scoring"
	"rcm_backend/internal/claims/service"
	"rcm_backend/internal/events"
	apphttp "rcm_backend/internal/http"
	leadsrepo "rcm_backend/internal/leads/repository"
	patientsrepo "rcm_backend/internal/patients/repository"
	rulesrepo "rcm_backend/internal/rules/repository"
	vobrepo "rcm_backend/internal/vob/repository"
	"rcm_backend/platform/logger"
	"rcm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the claims bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	svc     *service.Service
	repo    *repository.Repository
}

// Deps carries the external dependencies the claims module composes.
type Deps struct {
	Pool           *pgxpool.Pool
	Leads          *leadsrepo.Repository
	Patients       *patientsrepo.Repository
	Verifications  *vobrepo.Repository
	Rules          *rulesrepo.Repository
	Weights        scoring.Weights
	StuckThreshold time.Duration
	EventBus       events.Bus
	Val            *validator.Validator
	Log            *logger.Logger
}

// NewModule creates and initializes the claims module with all its dependencies.
func NewModule(deps Deps) *Module {
	repo := repository.New(deps.Pool)
	svc := service.New(service.Deps{
		Repo:           repo,
		Patients:       deps.Patients,
		Leads:          deps.Leads,
		Verifications:  deps.Verifications,
		Rules:          deps.Rules,
		Weights:        deps.Weights,
		StuckThreshold: deps.StuckThreshold,
		EventBus:       deps.EventBus,
		Log:            deps.Log,
	})

	return &Module{
		handler: handler.New(svc, deps.Val),
		svc:     svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "claims" }

// RegisterRoutes mounts the claims routes on the authenticated API group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/claims"))
}

// Service exposes the claims service for the worker and denials composition.
func (m *Module) Service() *service.Service { return m.svc }

// Repository exposes the claim repository for cross-module composition.
func (m *Module) Repository() *repository.Repository { return m.repo }
