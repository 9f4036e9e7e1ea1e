package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("verification not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Verification statuses.
const (
	StatusPending  = "pending"
	StatusVerified = "verified"
	StatusError    = "error"
)

// Verification is one append-only benefits verification attempt. Rows are
// never updated after completion; the latest row per lead is the one the UI
// and the scorers read.
type Verification struct {
	ID                uuid.UUID
	LeadID            uuid.UUID
	UpstreamID        *string
	Status            string
	PayerName         *string
	PlanType          *string
	CopayCents        *int64
	CoinsurancePct    *int
	DeductibleCents   *int64
	DeductibleMet     *int64
	OOPMaxCents       *int64
	OOPMetCents       *int64
	PriorAuthRequired bool
	NetworkStatus     *string
	PolicyStatus      *string
	EffectiveDate     *time.Time
	TermDate          *time.Time
	ErrorMessage      *string
	RawPayload        json.RawMessage
	PDFObjectKey      *string
	CreatedAt         time.Time
	VerifiedAt        *time.Time
}

const verificationSelectCols = `
	id, lead_id, upstream_id, status, payer_name, plan_type, copay_cents,
	coinsurance_pct, deductible_cents, deductible_met_cents, oop_max_cents,
	oop_met_cents, prior_auth_required, network_status, policy_status,
	effective_date, term_date, error_message, raw_payload, pdf_object_key,
	created_at, verified_at`

type verificationRowScanner interface {
	Scan(dest ...any) error
}

func scanVerification(s verificationRowScanner) (Verification, error) {
	var v Verification
	if err := s.Scan(
		&v.ID,
		&v.LeadID,
		&v.UpstreamID,
		&v.Status,
		&v.PayerName,
		&v.PlanType,
		&v.CopayCents,
		&v.CoinsurancePct,
		&v.DeductibleCents,
		&v.DeductibleMet,
		&v.OOPMaxCents,
		&v.OOPMetCents,
		&v.PriorAuthRequired,
		&v.NetworkStatus,
		&v.PolicyStatus,
		&v.EffectiveDate,
		&v.TermDate,
		&v.ErrorMessage,
		&v.RawPayload,
		&v.PDFObjectKey,
		&v.CreatedAt,
		&v.VerifiedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Verification{}, ErrNotFound
		}
		return Verification{}, err
	}
	return v, nil
}

// CreatePending inserts a new pending verification attempt for the lead.
func (r *Repository) CreatePending(ctx context.Context, leadID uuid.UUID) (Verification, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO vob_verifications (lead_id, status)
		VALUES ($1, $2)
		RETURNING`+verificationSelectCols+`
	`, leadID, StatusPending)
	return scanVerification(row)
}

type CompleteParams struct {
	UpstreamID        *string
	PayerName         *string
	PlanType          *string
	CopayCents        *int64
	CoinsurancePct    *int
	DeductibleCents   *int64
	DeductibleMet     *int64
	OOPMaxCents       *int64
	OOPMetCents       *int64
	PriorAuthRequired bool
	NetworkStatus     *string
	PolicyStatus      *string
	EffectiveDate     *time.Time
	TermDate          *time.Time
	RawPayload        json.RawMessage
}

// Complete finishes a pending attempt with the normalized upstream result.
// The only permitted mutation of a verification row is pending -> final.
func (r *Repository) Complete(ctx context.Context, id uuid.UUID, params CompleteParams) (Verification, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE vob_verifications SET
			upstream_id          = $2,
			status               = $3,
			payer_name           = $4,
			plan_type            = $5,
			copay_cents          = $6,
			coinsurance_pct      = $7,
			deductible_cents     = $8,
			deductible_met_cents = $9,
			oop_max_cents        = $10,
			oop_met_cents        = $11,
			prior_auth_required  = $12,
			network_status       = $13,
			policy_status        = $14,
			effective_date       = $15,
			term_date            = $16,
			raw_payload          = $17,
			verified_at          = NOW()
		WHERE id = $1 AND status = $18
		RETURNING`+verificationSelectCols+`
	`, id, params.UpstreamID, StatusVerified, params.PayerName, params.PlanType,
		params.CopayCents, params.CoinsurancePct, params.DeductibleCents,
		params.DeductibleMet, params.OOPMaxCents, params.OOPMetCents,
		params.PriorAuthRequired, params.NetworkStatus, params.PolicyStatus,
		params.EffectiveDate, params.TermDate, params.RawPayload, StatusPending)
	return scanVerification(row)
}

// Fail finishes a pending attempt with the upstream error message.
func (r *Repository) Fail(ctx context.Context, id uuid.UUID, message string) (Verification, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE vob_verifications SET
			status        = $2,
			error_message = $3,
			verified_at   = NOW()
		WHERE id = $1 AND status = $4
		RETURNING`+verificationSelectCols+`
	`, id, StatusError, message, StatusPending)
	return scanVerification(row)
}

// SetPDFObjectKey records where the exported PDF landed in object storage.
func (r *Repository) SetPDFObjectKey(ctx context.Context, id uuid.UUID, key string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE vob_verifications SET pdf_object_key = $2
		WHERE id = $1
	`, id, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Verification, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+verificationSelectCols+`
		FROM vob_verifications
		WHERE id = $1
	`, id)
	return scanVerification(row)
}

// LatestByLead returns the most recent verification attempt for the lead.
func (r *Repository) LatestByLead(ctx context.Context, leadID uuid.UUID) (Verification, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+verificationSelectCols+`
		FROM vob_verifications
		WHERE lead_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, leadID)
	return scanVerification(row)
}

// LatestVerifiedByLead returns the most recent successful verification.
func (r *Repository) LatestVerifiedByLead(ctx context.Context, leadID uuid.UUID) (Verification, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+verificationSelectCols+`
		FROM vob_verifications
		WHERE lead_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, leadID, StatusVerified)
	return scanVerification(row)
}

// ListByLead returns all verification attempts for a lead, newest first.
func (r *Repository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]Verification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+verificationSelectCols+`
		FROM vob_verifications
		WHERE lead_id = $1
		ORDER BY created_at DESC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Verification, 0)
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, rows.Err()
}
