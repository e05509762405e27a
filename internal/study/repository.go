package study

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

const studyColumns = `id, code, title, sponsor, phase, status, principal_investigator, start_date, end_date, created_at, updated_at`

// Repository persists studies in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a study.
func (r *Repository) Create(ctx context.Context, in CreateInput) (Study, error) {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	query := `
INSERT INTO studies (code, title, sponsor, phase, status, principal_investigator, start_date, end_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + studyColumns + `;`

	s, err := scanStudy(r.pool.QueryRow(ctx, query,
		in.Code, in.Title, in.Sponsor, in.Phase, in.Status, in.PrincipalInvestigator, in.StartDate, in.EndDate))
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return Study{}, ErrDuplicate
		}
		return Study{}, fmt.Errorf("create study: %w", err)
	}
	return s, nil
}

// Get fetches a study by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Study, error) {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	s, err := scanStudy(r.pool.QueryRow(ctx, `SELECT `+studyColumns+` FROM studies WHERE id = $1;`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Study{}, ErrNotFound
		}
		return Study{}, fmt.Errorf("get study: %w", err)
	}
	return s, nil
}

// List returns studies matching filter, newest first.
func (r *Repository) List(ctx context.Context, filter Filter, page httpx.Page) ([]Study, error) {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	var where storage.Where
	if filter.Status != "" {
		where.Eq("status", filter.Status)
	}
	if filter.Phase != "" {
		where.Eq("phase", filter.Phase)
	}
	if filter.Sponsor != "" {
		where.Eq("sponsor", filter.Sponsor)
	}
	if filter.Search != "" {
		where.Search(filter.Search, "code", "title")
	}

	query := `SELECT ` + studyColumns + ` FROM studies` + where.SQL() +
		` ORDER BY created_at DESC` + where.Limit(page.Limit, page.Offset) + `;`

	rows, err := r.pool.Query(ctx, query, where.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list studies: %w", err)
	}
	defer rows.Close()

	var studies []Study
	for rows.Next() {
		s, err := scanStudy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan study: %w", err)
		}
		studies = append(studies, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate studies: %w", err)
	}
	return studies, nil
}

// Update writes every editable column of s.
func (r *Repository) Update(ctx context.Context, s Study) (Study, error) {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	query := `
UPDATE studies
SET code = $2, title = $3, sponsor = $4, phase = $5, status = $6, principal_investigator = $7,
    start_date = $8, end_date = $9, created_at = $10, updated_at = NOW()
WHERE id = $1
RETURNING ` + studyColumns + `;`

	updated, err := scanStudy(r.pool.QueryRow(ctx, query,
		s.ID, s.Code, s.Title, s.Sponsor, s.Phase, s.Status, s.PrincipalInvestigator, s.StartDate, s.EndDate, s.CreatedAt))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return Study{}, ErrNotFound
		case storage.IsUniqueViolation(err):
			return Study{}, ErrDuplicate
		}
		return Study{}, fmt.Errorf("update study: %w", err)
	}
	return updated, nil
}

// Delete removes a study together with its patients and activities.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM studies WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete study: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanStudy(row pgx.Row) (Study, error) {
	var s Study
	err := row.Scan(
		&s.ID,
		&s.Code,
		&s.Title,
		&s.Sponsor,
		&s.Phase,
		&s.Status,
		&s.PrincipalInvestigator,
		&s.StartDate,
		&s.EndDate,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	return s, err
}
