package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/abduss/clinstudy/internal/httpx"
	"github.com/abduss/clinstudy/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const patientColumns = `id, study_id, screening_number, initials, birth_date, sex, status, created_at, updated_at`

// Repository persists patients in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a patient.
func (r *Repository) Create(ctx context.Context, in CreateInput) (Patient, error) {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	query := `
INSERT INTO patients (study_id, screening_number, initials, birth_date, sex, status)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + patientColumns + `;`

	p, err := scanPatient(r.pool.QueryRow(ctx, query,
		in.StudyID, in.ScreeningNumber, in.Initials, in.BirthDate, in.Sex, in.Status))
	if err != nil {
		return Patient{}, mapWriteError("create patient", err)
	}
	return p, nil
}

// Get fetches a patient by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Patient, error) {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	p, err := scanPatient(r.pool.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1;`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Patient{}, ErrNotFound
		}
		return Patient{}, fmt.Errorf("get patient: %w", err)
	}
	return p, nil
}

// List returns patients ordered by screening number.
func (r *Repository) List(ctx context.Context, filter Filter, page httpx.Page) ([]Patient, error) {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	var where storage.Where
	if filter.StudyID != nil {
		where.Eq("study_id", *filter.StudyID)
	}
	if filter.Status != "" {
		where.Eq("status", filter.Status)
	}

	query := `SELECT ` + patientColumns + ` FROM patients` + where.SQL() +
		` ORDER BY study_id, screening_number` + where.Limit(page.Limit, page.Offset) + `;`

	rows, err := r.pool.Query(ctx, query, where.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var patients []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patients: %w", err)
	}
	return patients, nil
}

// Update writes every editable column of p.
func (r *Repository) Update(ctx context.Context, p Patient) (Patient, error) {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	query := `
UPDATE patients
SET screening_number = $2, initials = $3, birth_date = $4, sex = $5, status = $6, updated_at = NOW()
WHERE id = $1
RETURNING ` + patientColumns + `;`

	updated, err := scanPatient(r.pool.QueryRow(ctx, query,
		p.ID, p.ScreeningNumber, p.Initials, p.BirthDate, p.Sex, p.Status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Patient{}, ErrNotFound
		}
		return Patient{}, mapWriteError("update patient", err)
	}
	return updated, nil
}

// Delete removes a patient and their visits.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM patients WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func mapWriteError(op string, err error) error {
	switch {
	case storage.IsUniqueViolation(err):
		return ErrDuplicate
	case storage.IsForeignKeyViolation(err):
		return ErrStudyNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func scanPatient(row pgx.Row) (Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID,
		&p.StudyID,
		&p.ScreeningNumber,
		&p.Initials,
		&p.BirthDate,
		&p.Sex,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}
