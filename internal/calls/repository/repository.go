package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("call not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Call is a persisted call record with its transcript and whatever the
// extractor recovered from it. Extracted fields are stored on the call for
// audit even after they are merged into the lead.
type Call struct {
	ID              uuid.UUID
	LeadID          uuid.UUID
	Direction       string
	DurationSeconds int
	RecordingURL    *string
	Transcript      string
	ExtCarrier      *string
	ExtMemberID     *string
	ExtState        *string
	ExtServiceType  *string
	ExtConsent      bool
	CreatedAt       time.Time
}

const callSelectCols = `
	id, lead_id, direction, duration_seconds, recording_url, transcript,
	ext_carrier, ext_member_id, ext_state, ext_service_type, ext_consent,
	created_at`

type callRowScanner interface {
	Scan(dest ...any) error
}

func scanCall(s callRowScanner) (Call, error) {
	var call Call
	if err := s.Scan(
		&call.ID,
		&call.LeadID,
		&call.Direction,
		&call.DurationSeconds,
		&call.RecordingURL,
		&call.Transcript,
		&call.ExtCarrier,
		&call.ExtMemberID,
		&call.ExtState,
		&call.ExtServiceType,
		&call.ExtConsent,
		&call.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Call{}, ErrNotFound
		}
		return Call{}, err
	}
	return call, nil
}

type CreateCallParams struct {
	LeadID          uuid.UUID
	Direction       string
	DurationSeconds int
	RecordingURL    *string
	Transcript      string
	ExtCarrier      *string
	ExtMemberID     *string
	ExtState        *string
	ExtServiceType  *string
	ExtConsent      bool
}

func (r *Repository) Create(ctx context.Context, params CreateCallParams) (Call, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO calls (
			lead_id, direction, duration_seconds, recording_url, transcript,
			ext_carrier, ext_member_id, ext_state, ext_service_type, ext_consent
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING`+callSelectCols+`
	`, params.LeadID, params.Direction, params.DurationSeconds, params.RecordingURL,
		params.Transcript, params.ExtCarrier, params.ExtMemberID, params.ExtState,
		params.ExtServiceType, params.ExtConsent)
	return scanCall(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Call, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+callSelectCols+`
		FROM calls
		WHERE id = $1
	`, id)
	return scanCall(row)
}

// ListByLead returns a lead's calls, newest first.
func (r *Repository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]Call, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+callSelectCols+`
		FROM calls
		WHERE lead_id = $1
		ORDER BY created_at DESC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Call, 0)
	for rows.Next() {
		call, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, call)
	}
	return items, rows.Err()
}

// LatestExtractedByLead returns the most recent extracted field values for a
// lead, one value per field, newest call wins. Used by the completeness
// scorer as the call-extract source.
func (r *Repository) LatestExtractedByLead(ctx context.Context, leadID uuid.UUID) (carrier, memberID, state, serviceType *string, consent bool, err error) {
	row := r.pool.QueryRow(ctx, `
		SELECT
			(array_remove(array_agg(ext_carrier ORDER BY created_at DESC), NULL))[1],
			(array_remove(array_agg(ext_member_id ORDER BY created_at DESC), NULL))[1],
			(array_remove(array_agg(ext_state ORDER BY created_at DESC), NULL))[1],
			(array_remove(array_agg(ext_service_type ORDER BY created_at DESC), NULL))[1],
			COALESCE(bool_or(ext_consent), false)
		FROM calls
		WHERE lead_id = $1
	`, leadID)
	if err := row.Scan(&carrier, &memberID, &state, &serviceType, &consent); err != nil {
		return nil, nil, nil, nil, false, err
	}
	return carrier, memberID, state, serviceType, consent, nil
}
