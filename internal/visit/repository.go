package visit

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

const visitColumns = `id, patient_id, name, scheduled_at, completed_at, status, notes, created_at, updated_at`

// Repository persists visits in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a visit.
func (r *Repository) Create(ctx context.Context, in CreateInput) (Visit, error) {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	query := `
INSERT INTO visits (patient_id, name, scheduled_at, completed_at, status, notes)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + visitColumns + `;`

	v, err := scanVisit(r.pool.QueryRow(ctx, query,
		in.PatientID, in.Name, in.ScheduledAt, in.CompletedAt, in.Status, in.Notes))
	if err != nil {
		if storage.IsForeignKeyViolation(err) {
			return Visit{}, ErrPatientNotFound
		}
		return Visit{}, fmt.Errorf("create visit: %w", err)
	}
	return v, nil
}

// Get fetches a visit by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Visit, error) {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	v, err := scanVisit(r.pool.QueryRow(ctx, `SELECT `+visitColumns+` FROM visits WHERE id = $1;`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Visit{}, ErrNotFound
		}
		return Visit{}, fmt.Errorf("get visit: %w", err)
	}
	return v, nil
}

// List returns visits in schedule order.
func (r *Repository) List(ctx context.Context, filter Filter, page httpx.Page) ([]Visit, error) {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	var where storage.Where
	if filter.PatientID != nil {
		where.Eq("patient_id", *filter.PatientID)
	}
	if filter.Status != "" {
		where.Eq("status", filter.Status)
	}
	if filter.From != nil {
		where.Since("scheduled_at", *filter.From)
	}
	if filter.To != nil {
		where.Until("scheduled_at", *filter.To)
	}

	query := `SELECT ` + visitColumns + ` FROM visits` + where.SQL() +
		` ORDER BY scheduled_at ASC` + where.Limit(page.Limit, page.Offset) + `;`

	rows, err := r.pool.Query(ctx, query, where.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate visits: %w", err)
	}
	return visits, nil
}

// Update writes every editable column of v.
func (r *Repository) Update(ctx context.Context, v Visit) (Visit, error) {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	query := `
UPDATE visits
SET name = $2, scheduled_at = $3, completed_at = $4, status = $5, notes = $6, updated_at = NOW()
WHERE id = $1
RETURNING ` + visitColumns + `;`

	updated, err := scanVisit(r.pool.QueryRow(ctx, query,
		v.ID, v.Name, v.ScheduledAt, v.CompletedAt, v.Status, v.Notes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Visit{}, ErrNotFound
		}
		return Visit{}, fmt.Errorf("update visit: %w", err)
	}
	return updated, nil
}

// Delete removes a visit.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM visits WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete visit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanVisit(row pgx.Row) (Visit, error) {
	var v Visit
	err := row.Scan(
		&v.ID,
		&v.PatientID,
		&v.Name,
		&v.ScheduledAt,
		&v.CompletedAt,
		&v.Status,
		&v.Notes,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	return v, err
}
