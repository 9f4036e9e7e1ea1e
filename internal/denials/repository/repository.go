package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("denial not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Denial records one payer denial against a claim, tagged with the CARC code
// and the root cause the billing team assigned.
type Denial struct {
	ID          uuid.UUID
	ClaimID     uuid.UUID
	CarcCode    *string
	RootCause   *string
	Description *string
	AmountCents int64
	CreatedAt   time.Time
}

const denialSelectCols = `
	id, claim_id, carc_code, root_cause, description, amount_cents, created_at`

type denialRowScanner interface {
	Scan(dest ...any) error
}

func scanDenial(s denialRowScanner) (Denial, error) {
	var denial Denial
	if err := s.Scan(
		&denial.ID,
		&denial.ClaimID,
		&denial.CarcCode,
		&denial.RootCause,
		&denial.Description,
		&denial.AmountCents,
		&denial.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Denial{}, ErrNotFound
		}
		return Denial{}, err
	}
	return denial, nil
}

type CreateDenialParams struct {
	ClaimID     uuid.UUID
	CarcCode    *string
	RootCause   *string
	Description *string
	AmountCents int64
}

func (r *Repository) Create(ctx context.Context, params CreateDenialParams) (Denial, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO denials (claim_id, carc_code, root_cause, description, amount_cents)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING`+denialSelectCols+`
	`, params.ClaimID, params.CarcCode, params.RootCause, params.Description, params.AmountCents)
	return scanDenial(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Denial, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+denialSelectCols+`
		FROM denials
		WHERE id = $1
	`, id)
	return scanDenial(row)
}

// List returns denials, newest first, optionally scoped to one claim.
func (r *Repository) List(ctx context.Context, claimID *uuid.UUID, limit int) ([]Denial, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT`+denialSelectCols+`
		FROM denials
		WHERE ($1::uuid IS NULL OR claim_id = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`, claimID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Denial, 0)
	for rows.Next() {
		denial, err := scanDenial(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, denial)
	}
	return items, rows.Err()
}
