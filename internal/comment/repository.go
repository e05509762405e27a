package comment

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

const commentColumns = `id, author_id, entity_type, entity_id, body, created_at, updated_at`

// Repository persists comments in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a comment.
func (r *Repository) Create(ctx context.Context, in CreateInput) (Comment, error) {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	query := `
INSERT INTO comments (author_id, entity_type, entity_id, body)
VALUES ($1, $2, $3, $4)
RETURNING ` + commentColumns + `;`

	c, err := scanComment(r.pool.QueryRow(ctx, query, in.AuthorID, in.EntityType, in.EntityID, in.Body))
	if err != nil {
		return Comment{}, fmt.Errorf("create comment: %w", err)
	}
	return c, nil
}

// Get fetches a comment by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Comment, error) {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	c, err := scanComment(r.pool.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1;`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Comment{}, ErrNotFound
		}
		return Comment{}, fmt.Errorf("get comment: %w", err)
	}
	return c, nil
}

// List returns comments oldest first so threads read top to bottom.
func (r *Repository) List(ctx context.Context, filter Filter, page httpx.Page) ([]Comment, error) {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	var where storage.Where
	if filter.EntityType != "" {
		where.Eq("entity_type", filter.EntityType)
	}
	if filter.EntityID != nil {
		where.Eq("entity_id", *filter.EntityID)
	}
	if filter.AuthorID != nil {
		where.Eq("author_id", *filter.AuthorID)
	}

	query := `SELECT ` + commentColumns + ` FROM comments` + where.SQL() +
		` ORDER BY created_at ASC, id` + where.Limit(page.Limit, page.Offset) + `;`

	rows, err := r.pool.Query(ctx, query, where.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return out, nil
}

// UpdateBody replaces the comment text.
func (r *Repository) UpdateBody(ctx context.Context, id uuid.UUID, body string) (Comment, error) {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	query := `UPDATE comments SET body = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + commentColumns + `;`

	c, err := scanComment(r.pool.QueryRow(ctx, query, id, body))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Comment{}, ErrNotFound
		}
		return Comment{}, fmt.Errorf("update comment: %w", err)
	}
	return c, nil
}

// Delete removes a comment.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanComment(row pgx.Row) (Comment, error) {
	var c Comment
	err := row.Scan(&c.ID, &c.AuthorID, &c.EntityType, &c.EntityID, &c.Body, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}
