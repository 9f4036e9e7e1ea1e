package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rcm_backend/internal/claims/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("claim not found")

	// ErrInvalidTransition is returned when an append would violate the
	// claim state machine.
	ErrInvalidTransition = errors.New("invalid claim status transition")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Claim is the persisted claim. Status is a cached projection of the latest
// claim event; the two are updated in one transaction so they never diverge.
type Claim struct {
	ID              uuid.UUID
	PatientID       uuid.UUID
	LeadID          uuid.UUID
	EncounterID     *string
	Payer           string
	CPTCodes        []string
	AmountCents     int64
	Status          string
	RiskScore       *int
	ReadinessStatus *string
	RiskExplanation json.RawMessage
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Event is one append-only claim lifecycle event.
type Event struct {
	ID        uuid.UUID
	ClaimID   uuid.UUID
	EventType string
	Note      *string
	CreatedAt time.Time
}

const claimSelectCols = `
	id, patient_id, lead_id, encounter_id, payer, cpt_codes, amount_cents,
	status, risk_score, readiness_status, risk_explanation, created_at,
	updated_at`

type claimRowScanner interface {
	Scan(dest ...any) error
}

func scanClaim(s claimRowScanner) (Claim, error) {
	var claim Claim
	if err := s.Scan(
		&claim.ID,
		&claim.PatientID,
		&claim.LeadID,
		&claim.EncounterID,
		&claim.Payer,
		&claim.CPTCodes,
		&claim.AmountCents,
		&claim.Status,
		&claim.RiskScore,
		&claim.ReadinessStatus,
		&claim.RiskExplanation,
		&claim.CreatedAt,
		&claim.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Claim{}, ErrNotFound
		}
		return Claim{}, err
	}
	return claim, nil
}

type CreateClaimParams struct {
	PatientID   uuid.UUID
	LeadID      uuid.UUID
	EncounterID *string
	Payer       string
	CPTCodes    []string
	AmountCents int64
}

// Create inserts the claim and its initial created event in one transaction.
func (r *Repository) Create(ctx context.Context, params CreateClaimParams) (Claim, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Claim{}, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO claims (patient_id, lead_id, encounter_id, payer, cpt_codes, amount_cents, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING`+claimSelectCols+`
	`, params.PatientID, params.LeadID, params.EncounterID, params.Payer,
		params.CPTCodes, params.AmountCents, domain.StatusCreated)
	claim, err := scanClaim(row)
	if err != nil {
		return Claim{}, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO claim_events (claim_id, event_type)
		VALUES ($1, $2)
	`, claim.ID, domain.StatusCreated); err != nil {
		return Claim{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Claim{}, err
	}
	return claim, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Claim, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+claimSelectCols+`
		FROM claims
		WHERE id = $1
	`, id)
	return scanClaim(row)
}

type ListClaimsFilter struct {
	Status    *string
	Readiness *string
	Limit     int
	Offset    int
}

func (r *Repository) List(ctx context.Context, filter ListClaimsFilter) ([]Claim, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT`+claimSelectCols+`
		FROM claims
		WHERE ($1::text IS NULL OR status = $1)
		  AND ($2::text IS NULL OR readiness_status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, filter.Status, filter.Readiness, limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Claim, 0)
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, claim)
	}
	return items, rows.Err()
}

// AppendEvent appends a lifecycle event and updates the status projection in
// the same transaction. The current status is locked for the duration so
// concurrent appends serialize, and the transition is validated against the
// locked value.
func (r *Repository) AppendEvent(ctx context.Context, claimID uuid.UUID, eventType string, note *string) (Claim, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Claim{}, err
	}
	defer tx.Rollback(ctx)

	var current string
	if err := tx.QueryRow(ctx, `
		SELECT status FROM claims WHERE id = $1 FOR UPDATE
	`, claimID).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Claim{}, ErrNotFound
		}
		return Claim{}, err
	}

	if !domain.CanTransition(current, eventType) {
		return Claim{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, eventType)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO claim_events (claim_id, event_type, note)
		VALUES ($1, $2, $3)
	`, claimID, eventType, note); err != nil {
		return Claim{}, err
	}

	row := tx.QueryRow(ctx, `
		UPDATE claims SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING`+claimSelectCols+`
	`, claimID, eventType)
	claim, err := scanClaim(row)
	if err != nil {
		return Claim{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Claim{}, err
	}
	return claim, nil
}

// ListEvents returns a claim's full timeline, oldest first.
func (r *Repository) ListEvents(ctx context.Context, claimID uuid.UUID) ([]Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, claim_id, event_type, note, created_at
		FROM claim_events
		WHERE claim_id = $1
		ORDER BY created_at ASC, id ASC
	`, claimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Event, 0)
	for rows.Next() {
		var event Event
		if err := rows.Scan(&event.ID, &event.ClaimID, &event.EventType, &event.Note, &event.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, event)
	}
	return items, rows.Err()
}

// LatestEvent returns the most recent event for a claim.
func (r *Repository) LatestEvent(ctx context.Context, claimID uuid.UUID) (Event, error) {
	var event Event
	err := r.pool.QueryRow(ctx, `
		SELECT id, claim_id, event_type, note, created_at
		FROM claim_events
		WHERE claim_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, claimID).Scan(&event.ID, &event.ClaimID, &event.EventType, &event.Note, &event.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Event{}, ErrNotFound
		}
		return Event{}, err
	}
	return event, nil
}

// SetRiskScore stores the scoring output on the claim projection.
func (r *Repository) SetRiskScore(ctx context.Context, id uuid.UUID, score int, readiness string, explanation json.RawMessage) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE claims SET risk_score = $2, readiness_status = $3, risk_explanation = $4, updated_at = NOW()
		WHERE id = $1
	`, id, score, readiness, explanation)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// StuckClaim pairs a pending claim with the age of its latest event, for the
// nightly sweep and the dashboard.
type StuckClaim struct {
	Claim         Claim
	LatestEventAt time.Time
}

// ListStuckPending returns claims whose latest event is pending and older
// than the threshold.
func (r *Repository) ListStuckPending(ctx context.Context, threshold time.Duration) ([]StuckClaim, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			c.id, c.patient_id, c.lead_id, c.encounter_id, c.payer, c.cpt_codes,
			c.amount_cents, c.status, c.risk_score, c.readiness_status,
			c.risk_explanation, c.created_at, c.updated_at,
			e.created_at AS latest_event_at
		FROM claims c
		JOIN LATERAL (
			SELECT event_type, created_at
			FROM claim_events
			WHERE claim_id = c.id
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) e ON true
		WHERE e.event_type = $1
		  AND e.created_at < NOW() - $2::interval
		ORDER BY e.created_at ASC
	`, domain.StatusPending, fmt.Sprintf("%d seconds", int(threshold.Seconds())))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]StuckClaim, 0)
	for rows.Next() {
		var item StuckClaim
		if err := rows.Scan(
			&item.Claim.ID,
			&item.Claim.PatientID,
			&item.Claim.LeadID,
			&item.Claim.EncounterID,
			&item.Claim.Payer,
			&item.Claim.CPTCodes,
			&item.Claim.AmountCents,
			&item.Claim.Status,
			&item.Claim.RiskScore,
			&item.Claim.ReadinessStatus,
			&item.Claim.RiskExplanation,
			&item.Claim.CreatedAt,
			&item.Claim.UpdatedAt,
			&item.LatestEventAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListIDsByStatus returns claim ids in a given status, for bulk re-scoring.
func (r *Repository) ListIDsByStatus(ctx context.Context, status string) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM claims WHERE status = $1 ORDER BY created_at ASC
	`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
