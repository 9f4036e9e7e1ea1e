package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Lead is the persisted lead record. Insurance fields may be populated at
// intake, by call extraction, or by manual edits; the vob_* columns are a
// projection maintained by the completeness scorer.
type Lead struct {
	ID               uuid.UUID
	FirstName        string
	LastName         string
	Phone            string
	Email            *string
	Source           *string
	Status           string
	Priority         string
	InsuranceCarrier *string
	MemberID         *string
	State            *string
	ServiceType      *string
	ConsentGiven     bool
	DateOfBirth      *time.Time
	VOBStatus        string
	VOBScore         int
	VOBMissingFields []string
	PatientID        *uuid.UUID
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

const leadSelectCols = `
	id, first_name, last_name, phone, email, source, status, priority,
	insurance_carrier, member_id, state, service_type, consent_given,
	date_of_birth, vob_status, vob_score, vob_missing_fields, patient_id,
	created_at, updated_at`

type leadRowScanner interface {
	Scan(dest ...any) error
}

func scanLead(s leadRowScanner) (Lead, error) {
	var lead Lead
	if err := s.Scan(
		&lead.ID,
		&lead.FirstName,
		&lead.LastName,
		&lead.Phone,
		&lead.Email,
		&lead.Source,
		&lead.Status,
		&lead.Priority,
		&lead.InsuranceCarrier,
		&lead.MemberID,
		&lead.State,
		&lead.ServiceType,
		&lead.ConsentGiven,
		&lead.DateOfBirth,
		&lead.VOBStatus,
		&lead.VOBScore,
		&lead.VOBMissingFields,
		&lead.PatientID,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, err
	}
	return lead, nil
}

type CreateLeadParams struct {
	FirstName        string
	LastName         string
	Phone            string
	Email            *string
	Source           *string
	Priority         string
	InsuranceCarrier *string
	MemberID         *string
	State            *string
	ServiceType      *string
	ConsentGiven     bool
	DateOfBirth      *time.Time
}

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (
			first_name, last_name, phone, email, source, priority,
			insurance_carrier, member_id, state, service_type, consent_given,
			date_of_birth
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING`+leadSelectCols+`
	`, params.FirstName, params.LastName, params.Phone, params.Email, params.Source,
		params.Priority, params.InsuranceCarrier, params.MemberID, params.State,
		params.ServiceType, params.ConsentGiven, params.DateOfBirth)
	return scanLead(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+leadSelectCols+`
		FROM leads
		WHERE id = $1
	`, id)
	return scanLead(row)
}

type ListLeadsFilter struct {
	Status   *string
	Priority *string
	Limit    int
	Offset   int
}

func (r *Repository) List(ctx context.Context, filter ListLeadsFilter) ([]Lead, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT`+leadSelectCols+`
		FROM leads
		WHERE ($1::text IS NULL OR status = $1)
		  AND ($2::text IS NULL OR priority = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, filter.Status, filter.Priority, limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, lead)
	}
	return items, rows.Err()
}

type UpdateLeadParams struct {
	Email            *string
	Priority         *string
	InsuranceCarrier *string
	MemberID         *string
	State            *string
	ServiceType      *string
	ConsentGiven     *bool
	DateOfBirth      *time.Time
}

// Update applies the non-nil fields. Insurance fields use COALESCE so a
// partial update never blanks data already captured from another source.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateLeadParams) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET
			email             = COALESCE($2, email),
			priority          = COALESCE($3, priority),
			insurance_carrier = COALESCE($4, insurance_carrier),
			member_id         = COALESCE($5, member_id),
			state             = COALESCE($6, state),
			service_type      = COALESCE($7, service_type),
			consent_given     = COALESCE($8, consent_given),
			date_of_birth     = COALESCE($9, date_of_birth),
			updated_at        = NOW()
		WHERE id = $1
		RETURNING`+leadSelectCols+`
	`, id, params.Email, params.Priority, params.InsuranceCarrier, params.MemberID,
		params.State, params.ServiceType, params.ConsentGiven, params.DateOfBirth)
	return scanLead(row)
}

// MergeExtractedFields fills blank insurance fields from call-extracted data.
// Existing values always win: extraction only supplies what intake missed.
func (r *Repository) MergeExtractedFields(ctx context.Context, id uuid.UUID, carrier, memberID, state, serviceType *string, consent *bool) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET
			insurance_carrier = COALESCE(insurance_carrier, $2),
			member_id         = COALESCE(member_id, $3),
			state             = COALESCE(state, $4),
			service_type      = COALESCE(service_type, $5),
			consent_given     = (consent_given OR COALESCE($6, false)),
			updated_at        = NOW()
		WHERE id = $1
		RETURNING`+leadSelectCols+`
	`, id, carrier, memberID, state, serviceType, consent)
	return scanLead(row)
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING`+leadSelectCols+`
	`, id, status)
	return scanLead(row)
}

// UpdateVOBProjection stores the completeness scorer output on the lead.
func (r *Repository) UpdateVOBProjection(ctx context.Context, id uuid.UUID, score int, status string, missingFields []string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET vob_score = $2, vob_status = $3, vob_missing_fields = $4, updated_at = NOW()
		WHERE id = $1
	`, id, score, status, missingFields)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPatientID links the lead to its 1:1 patient record after qualification.
func (r *Repository) SetPatientID(ctx context.Context, id, patientID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET patient_id = $2, updated_at = NOW()
		WHERE id = $1 AND patient_id IS NULL
	`, id, patientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New("lead already linked to a patient")
	}
	return nil
}
