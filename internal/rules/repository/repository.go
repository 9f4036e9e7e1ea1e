package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("rule not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Rule is a denial-prevention rule: a trigger pattern over payer and CPT
// codes, a signed risk contribution, and counters updated as claims are
// evaluated and denials prevented.
type Rule struct {
	ID                   uuid.UUID
	Name                 string
	Description          *string
	PayerPattern         string
	CPTPattern           string
	Contribution         int
	RequiresVerification bool
	PreventionAction     *string
	Active               bool
	TriggeredCount       int64
	PreventedCount       int64
	ProtectedAmountCents int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

const ruleSelectCols = `
	id, name, description, payer_pattern, cpt_pattern, contribution,
	requires_verification, prevention_action, active, triggered_count,
	prevented_count, protected_amount_cents, created_at, updated_at`

type ruleRowScanner interface {
	Scan(dest ...any) error
}

func scanRule(s ruleRowScanner) (Rule, error) {
	var rule Rule
	if err := s.Scan(
		&rule.ID,
		&rule.Name,
		&rule.Description,
		&rule.PayerPattern,
		&rule.CPTPattern,
		&rule.Contribution,
		&rule.RequiresVerification,
		&rule.PreventionAction,
		&rule.Active,
		&rule.TriggeredCount,
		&rule.PreventedCount,
		&rule.ProtectedAmountCents,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Rule{}, ErrNotFound
		}
		return Rule{}, err
	}
	return rule, nil
}

type CreateRuleParams struct {
	Name                 string
	Description          *string
	PayerPattern         string
	CPTPattern           string
	Contribution         int
	RequiresVerification bool
	PreventionAction     *string
}

func (r *Repository) Create(ctx context.Context, params CreateRuleParams) (Rule, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO rules (
			name, description, payer_pattern, cpt_pattern, contribution,
			requires_verification, prevention_action
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING`+ruleSelectCols+`
	`, params.Name, params.Description, params.PayerPattern, params.CPTPattern,
		params.Contribution, params.RequiresVerification, params.PreventionAction)
	return scanRule(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Rule, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+ruleSelectCols+`
		FROM rules
		WHERE id = $1
	`, id)
	return scanRule(row)
}

// List returns all rules, oldest first so evaluation order is stable.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]Rule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+ruleSelectCols+`
		FROM rules
		WHERE (NOT $1::bool OR active)
		ORDER BY created_at ASC
	`, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Rule, 0)
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rule)
	}
	return items, rows.Err()
}

type UpdateRuleParams struct {
	Name                 *string
	Description          *string
	PayerPattern         *string
	CPTPattern           *string
	Contribution         *int
	RequiresVerification *bool
	PreventionAction     *string
	Active               *bool
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateRuleParams) (Rule, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE rules SET
			name                  = COALESCE($2, name),
			description           = COALESCE($3, description),
			payer_pattern         = COALESCE($4, payer_pattern),
			cpt_pattern           = COALESCE($5, cpt_pattern),
			contribution          = COALESCE($6, contribution),
			requires_verification = COALESCE($7, requires_verification),
			prevention_action     = COALESCE($8, prevention_action),
			active                = COALESCE($9, active),
			updated_at            = NOW()
		WHERE id = $1
		RETURNING`+ruleSelectCols+`
	`, id, params.Name, params.Description, params.PayerPattern, params.CPTPattern,
		params.Contribution, params.RequiresVerification, params.PreventionAction,
		params.Active)
	return scanRule(row)
}

// IncrementTriggered bumps the trigger counter for every rule that fired
// during a scoring run.
func (r *Repository) IncrementTriggered(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE rules SET triggered_count = triggered_count + 1, updated_at = NOW()
		WHERE id = ANY($1)
	`, ids)
	return err
}

// RecordPrevented credits the rules that blocked a risky claim before
// submission, protecting the claim amount from denial.
func (r *Repository) RecordPrevented(ctx context.Context, ids []uuid.UUID, amountCents int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE rules SET
			prevented_count        = prevented_count + 1,
			protected_amount_cents = protected_amount_cents + $2,
			updated_at             = NOW()
		WHERE id = ANY($1)
	`, ids, amountCents)
	return err
}
