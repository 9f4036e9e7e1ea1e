package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ClaimCounts are the claim-level dashboard aggregates, computed in one scan.
type ClaimCounts struct {
	Total   int64
	Pending int64
	AtRisk  int64
}

func (r *Repository) ClaimCounts(ctx context.Context) (ClaimCounts, error) {
	var counts ClaimCounts
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'pending') AS pending,
			COUNT(*) FILTER (
				WHERE readiness_status = 'RED'
				  AND status NOT IN ('paid', 'denied')
			) AS at_risk
		FROM claims
	`).Scan(&counts.Total, &counts.Pending, &counts.AtRisk)
	return counts, err
}

// PreventionTotals sums the rule counters: how many denials the rule engine
// prevented and how much claim revenue that protected.
type PreventionTotals struct {
	DenialsPrevented     int64
	ProtectedAmountCents int64
}

func (r *Repository) PreventionTotals(ctx context.Context) (PreventionTotals, error) {
	var totals PreventionTotals
	err := r.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(prevented_count), 0),
			COALESCE(SUM(protected_amount_cents), 0)
		FROM rules
	`).Scan(&totals.DenialsPrevented, &totals.ProtectedAmountCents)
	return totals, err
}

// AvgARDays is the mean age in days of claims sitting in accounts receivable,
// measured from each claim's submitted event.
func (r *Repository) AvgARDays(ctx context.Context) (float64, error) {
	var avg *float64
	err := r.pool.QueryRow(ctx, `
		WITH submitted AS (
			SELECT claim_id, MIN(created_at) AS submitted_at
			FROM claim_events
			WHERE event_type = 'submitted'
			GROUP BY claim_id
		)
		SELECT AVG(EXTRACT(EPOCH FROM (NOW() - s.submitted_at)) / 86400.0)
		FROM claims c
		JOIN submitted s ON s.claim_id = c.id
		WHERE c.status IN ('submitted', 'acknowledged', 'pending', 'suspended', 'appealed')
	`).Scan(&avg)
	if err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}

// PayerRisk is the average risk score for one payer's open claims.
type PayerRisk struct {
	Payer        string
	AvgRiskScore float64
	ClaimCount   int64
}

// TopPayerRisk returns the payer with the highest average risk score across
// scored, unfinished claims.
func (r *Repository) TopPayerRisk(ctx context.Context) (PayerRisk, bool, error) {
	var risk PayerRisk
	err := r.pool.QueryRow(ctx, `
		SELECT payer, AVG(risk_score)::float8, COUNT(*)
		FROM claims
		WHERE risk_score IS NOT NULL
		  AND status NOT IN ('paid', 'denied')
		GROUP BY payer
		ORDER BY AVG(risk_score) DESC, COUNT(*) DESC
		LIMIT 1
	`).Scan(&risk.Payer, &risk.AvgRiskScore, &risk.ClaimCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PayerRisk{}, false, nil
		}
		return PayerRisk{}, false, err
	}
	return risk, true, nil
}
