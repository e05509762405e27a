package feasibility

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

const feasibilityColumns = `id, study_id, site_name, sponsor, expected_patients, status, submitted_at, notes, created_at, updated_at`

// Repository persists feasibilities in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a feasibility request in the requested state.
func (r *Repository) Create(ctx context.Context, in CreateInput) (Feasibility, error) {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	query := `
INSERT INTO feasibilities (study_id, site_name, sponsor, expected_patients, status, notes)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + feasibilityColumns + `;`

	f, err := scanFeasibility(r.pool.QueryRow(ctx, query,
		in.StudyID, in.SiteName, in.Sponsor, in.ExpectedPatients, StatusRequested, in.Notes))
	if err != nil {
		if storage.IsForeignKeyViolation(err) {
			return Feasibility{}, ErrStudyNotFound
		}
		return Feasibility{}, fmt.Errorf("create feasibility: %w", err)
	}
	return f, nil
}

// Get fetches a feasibility by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Feasibility, error) {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	f, err := scanFeasibility(r.pool.QueryRow(ctx, `SELECT `+feasibilityColumns+` FROM feasibilities WHERE id = $1;`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Feasibility{}, ErrNotFound
		}
		return Feasibility{}, fmt.Errorf("get feasibility: %w", err)
	}
	return f, nil
}

// List returns feasibilities, most recently updated first.
func (r *Repository) List(ctx context.Context, filter Filter, page httpx.Page) ([]Feasibility, error) {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	var where storage.Where
	if filter.StudyID != nil {
		where.Eq("study_id", *filter.StudyID)
	}
	if filter.Status != "" {
		where.Eq("status", filter.Status)
	}
	if filter.Sponsor != "" {
		where.Eq("sponsor", filter.Sponsor)
	}

	query := `SELECT ` + feasibilityColumns + ` FROM feasibilities` + where.SQL() +
		` ORDER BY updated_at DESC` + where.Limit(page.Limit, page.Offset) + `;`

	rows, err := r.pool.Query(ctx, query, where.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list feasibilities: %w", err)
	}
	defer rows.Close()

	var out []Feasibility
	for rows.Next() {
		f, err := scanFeasibility(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feasibility: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feasibilities: %w", err)
	}
	return out, nil
}

// Update writes every editable column of f.
func (r *Repository) Update(ctx context.Context, f Feasibility) (Feasibility, error) {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	query := `
UPDATE feasibilities
SET study_id = $2, site_name = $3, sponsor = $4, expected_patients = $5, status = $6,
    submitted_at = $7, notes = $8, updated_at = NOW()
WHERE id = $1
RETURNING ` + feasibilityColumns + `;`

	updated, err := scanFeasibility(r.pool.QueryRow(ctx, query,
		f.ID, f.StudyID, f.SiteName, f.Sponsor, f.ExpectedPatients, f.Status, f.SubmittedAt, f.Notes))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return Feasibility{}, ErrNotFound
		case storage.IsForeignKeyViolation(err):
			return Feasibility{}, ErrStudyNotFound
		}
		return Feasibility{}, fmt.Errorf("update feasibility: %w", err)
	}
	return updated, nil
}

// Delete removes a feasibility.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM feasibilities WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete feasibility: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanFeasibility(row pgx.Row) (Feasibility, error) {
	var f Feasibility
	err := row.Scan(
		&f.ID,
		&f.StudyID,
		&f.SiteName,
		&f.Sponsor,
		&f.ExpectedPatients,
		&f.Status,
		&f.SubmittedAt,
		&f.Notes,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	return f, err
}
