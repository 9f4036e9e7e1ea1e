// Package vob provides the verification-of-benefits bounded context module.
package vob

import (
	"context"

	callsrepo "rcm_backend/internal/calls/repository"
	"rcm_backend/internal/events"
	apphttp "rcm_backend/internal/http"
	leadsrepo "rcm_backend/internal/leads/repository"
	patientsrepo "rcm_backend/internal/patients/repository"
	"rcm_backend/internal/scheduler"
	"rcm_backend/internal/vob/handler"
	"rcm_backend/internal/vob/repository"
	"rcm_backend/internal/vob/scoring"
	"rcm_backend/internal/vob/service"
	"rcm_backend/platform/logger"
	"rcm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Module is the VOB bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	svc     *service.Service
	repo    *repository.Repository
}

// Deps carries the external dependencies the VOB module composes.
type Deps struct {
	Pool     *pgxpool.Pool
	Leads    *leadsrepo.Repository
	Patients *patientsrepo.Repository
	Calls    *callsrepo.Repository
	Client   service.VerifyClient
	Redis    *redis.Client
	Docs     service.DocumentStore
	Weights  scoring.Weights
	EventBus events.Bus
	// Scheduler enqueues background verification runs; nil disables the
	// background path on the verify endpoint.
	Scheduler scheduler.VerificationScheduler
	Val       *validator.Validator
	Log       *logger.Logger
}

// NewModule creates and initializes the VOB module with all its dependencies.
func NewModule(deps Deps) *Module {
	repo := repository.New(deps.Pool)
	svc := service.New(service.Deps{
		Repo:     repo,
		Leads:    deps.Leads,
		Patients: deps.Patients,
		Calls:    deps.Calls,
		Client:   deps.Client,
		Lease:    service.NewVerificationLease(deps.Redis),
		Docs:     deps.Docs,
		Weights:  deps.Weights,
		EventBus: deps.EventBus,
		Log:      deps.Log,
	})

	// Any change to a contributing source recomputes the lead's completeness
	// projection.
	deps.EventBus.Subscribe(events.LeadFieldsChanged{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.LeadFieldsChanged)
		if !ok {
			return nil
		}
		// Verification completion already rescores inline.
		if e.Source == "verification" {
			return nil
		}
		if err := svc.Rescore(ctx, e.LeadID); err != nil {
			deps.Log.Error("completeness rescore failed", "error", err, "leadId", e.LeadID, "source", e.Source)
		}
		return nil
	}))

	return &Module{
		handler: handler.New(svc, deps.Scheduler, deps.Val),
		svc:     svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "vob" }

// RegisterRoutes mounts the VOB routes on the authenticated API group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/verifications"))
	m.handler.RegisterLeadRoutes(ctx.Protected.Group("/leads"))
}

// Service exposes the VOB service for the worker composition root.
func (m *Module) Service() *service.Service { return m.svc }

// Repository exposes the verification repository for cross-module composition.
func (m *Module) Repository() *repository.Repository { return m.repo }
