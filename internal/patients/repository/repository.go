package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("patient not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Patient is the canonical demographic and coverage record, created 1:1 from
// a qualified lead. Immutable except through an explicit sync from the lead.
type Patient struct {
	ID               uuid.UUID
	LeadID           uuid.UUID
	FirstName        string
	LastName         string
	DateOfBirth      *time.Time
	State            *string
	InsuranceCarrier *string
	MemberID         *string
	PlanType         *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

const patientSelectCols = `
	id, lead_id, first_name, last_name, date_of_birth, state,
	insurance_carrier, member_id, plan_type, created_at, updated_at`

type patientRowScanner interface {
	Scan(dest ...any) error
}

func scanPatient(s patientRowScanner) (Patient, error) {
	var patient Patient
	if err := s.Scan(
		&patient.ID,
		&patient.LeadID,
		&patient.FirstName,
		&patient.LastName,
		&patient.DateOfBirth,
		&patient.State,
		&patient.InsuranceCarrier,
		&patient.MemberID,
		&patient.PlanType,
		&patient.CreatedAt,
		&patient.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Patient{}, ErrNotFound
		}
		return Patient{}, err
	}
	return patient, nil
}

type CreatePatientParams struct {
	LeadID           uuid.UUID
	FirstName        string
	LastName         string
	DateOfBirth      *time.Time
	State            *string
	InsuranceCarrier *string
	MemberID         *string
	PlanType         *string
}

func (r *Repository) Create(ctx context.Context, params CreatePatientParams) (Patient, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO patients (
			lead_id, first_name, last_name, date_of_birth, state,
			insurance_carrier, member_id, plan_type
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING`+patientSelectCols+`
	`, params.LeadID, params.FirstName, params.LastName, params.DateOfBirth,
		params.State, params.InsuranceCarrier, params.MemberID, params.PlanType)
	return scanPatient(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+patientSelectCols+`
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *Repository) GetByLeadID(ctx context.Context, leadID uuid.UUID) (Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+patientSelectCols+`
		FROM patients
		WHERE lead_id = $1
	`, leadID)
	return scanPatient(row)
}

type SyncPatientParams struct {
	DateOfBirth      *time.Time
	State            *string
	InsuranceCarrier *string
	MemberID         *string
	PlanType         *string
}

// Sync overwrites patient coverage fields from the lead. This is the only
// mutation patients support after creation.
func (r *Repository) Sync(ctx context.Context, id uuid.UUID, params SyncPatientParams) (Patient, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE patients SET
			date_of_birth     = COALESCE($2, date_of_birth),
			state             = COALESCE($3, state),
			insurance_carrier = COALESCE($4, insurance_carrier),
			member_id         = COALESCE($5, member_id),
			plan_type         = COALESCE($6, plan_type),
			updated_at        = NOW()
		WHERE id = $1
		RETURNING`+patientSelectCols+`
	`, id, params.DateOfBirth, params.State, params.InsuranceCarrier,
		params.MemberID, params.PlanType)
	return scanPatient(row)
}
