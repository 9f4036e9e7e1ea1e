// Package service assembles the operational dashboard summary. Every metric
// is computed from the live tables on each request; nothing is snapshotted.
package service

import (
	"context"
	"math"

	"rcm_backend/internal/dashboard/repository"
	"rcm_backend/internal/dashboard/transport"
	"rcm_backend/platform/apperr"
	"rcm_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

type Service struct {
	repo *repository.Repository
	log  *logger.Logger
}

func New(repo *repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Summary fans the aggregate queries out concurrently and combines them
// into a single response.
func (s *Service) Summary(ctx context.Context) (transport.SummaryResponse, error) {
	var (
		counts     repository.ClaimCounts
		prevention repository.PreventionTotals
		avgARDays  float64
		topPayer   repository.PayerRisk
		hasPayer   bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = s.repo.ClaimCounts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		prevention, err = s.repo.PreventionTotals(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		avgARDays, err = s.repo.AvgARDays(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		topPayer, hasPayer, err = s.repo.TopPayerRisk(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.DatabaseError("dashboard summary", err)
		return transport.SummaryResponse{}, apperr.Internal("could not compute dashboard summary")
	}

	summary := transport.SummaryResponse{
		DenialsPrevented:      prevention.DenialsPrevented,
		ClaimsAtRisk:          counts.AtRisk,
		AvgARDays:             math.Round(avgARDays*10) / 10,
		RevenueProtectedCents: prevention.ProtectedAmountCents,
		TotalClaims:           counts.Total,
		PendingClaims:         counts.Pending,
	}
	if hasPayer {
		summary.TopPayerRisk = &transport.PayerRisk{
			Payer:        topPayer.Payer,
			AvgRiskScore: math.Round(topPayer.AvgRiskScore*10) / 10,
			ClaimCount:   topPayer.ClaimCount,
		}
	}
	return summary, nil
}
