package activity

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

const activityColumns = `id, study_id, title, description, assignee_id, due_date, status, created_at, updated_at`

// Repository persists activities in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts an activity.
func (r *Repository) Create(ctx context.Context, in CreateInput) (Activity, error) {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	query := `
INSERT INTO activities (study_id, title, description, assignee_id, due_date, status)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + activityColumns + `;`

	a, err := scanActivity(r.pool.QueryRow(ctx, query,
		in.StudyID, in.Title, in.Description, in.AssigneeID, in.DueDate, in.Status))
	if err != nil {
		if storage.IsForeignKeyViolation(err) {
			return Activity{}, ErrInvalidReference
		}
		return Activity{}, fmt.Errorf("create activity: %w", err)
	}
	return a, nil
}

// Get fetches an activity by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Activity, error) {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	a, err := scanActivity(r.pool.QueryRow(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = $1;`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Activity{}, ErrNotFound
		}
		return Activity{}, fmt.Errorf("get activity: %w", err)
	}
	return a, nil
}

// List returns activities by due date, undated last.
func (r *Repository) List(ctx context.Context, filter Filter, page httpx.Page) ([]Activity, error) {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	var where storage.Where
	if filter.StudyID != nil {
		where.Eq("study_id", *filter.StudyID)
	}
	if filter.AssigneeID != nil {
		where.Eq("assignee_id", *filter.AssigneeID)
	}
	if filter.Status != "" {
		where.Eq("status", filter.Status)
	}

	query := `SELECT ` + activityColumns + ` FROM activities` + where.SQL() +
		` ORDER BY due_date ASC NULLS LAST, created_at ASC` + where.Limit(page.Limit, page.Offset) + `;`

	rows, err := r.pool.Query(ctx, query, where.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var activities []Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	return activities, nil
}

// Update writes every editable column of a.
func (r *Repository) Update(ctx context.Context, a Activity) (Activity, error) {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	query := `
UPDATE activities
SET title = $2, description = $3, assignee_id = $4, due_date = $5, status = $6, updated_at = NOW()
WHERE id = $1
RETURNING ` + activityColumns + `;`

	updated, err := scanActivity(r.pool.QueryRow(ctx, query,
		a.ID, a.Title, a.Description, a.AssigneeID, a.DueDate, a.Status))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return Activity{}, ErrNotFound
		case storage.IsForeignKeyViolation(err):
			return Activity{}, ErrInvalidReference
		}
		return Activity{}, fmt.Errorf("update activity: %w", err)
	}
	return updated, nil
}

// Delete removes an activity.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM activities WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanActivity(row pgx.Row) (Activity, error) {
	var a Activity
	err := row.Scan(
		&a.ID,
		&a.StudyID,
		&a.Title,
		&a.Description,
		&a.AssigneeID,
		&a.DueDate,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	return a, err
}
