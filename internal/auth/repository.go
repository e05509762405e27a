package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/abduss/clinstudy/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, email, password_hash, role, first_name, last_name, phone, documents, created_at, updated_at`

// Repository provides database access for authentication concerns.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a new Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateUser persists a new user record.
func (r *Repository) CreateUser(ctx context.Context, in NewUser) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	query := `
INSERT INTO users (email, password_hash, role, first_name, last_name, phone)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + userColumns + `;`

	user, err := scanUser(r.pool.QueryRow(ctx, query, in.Email, in.PasswordHash, in.Role, in.FirstName, in.LastName, in.Phone))
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return User{}, ErrEmailAlreadyExists
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// FindUserByEmail fetches a user by email.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1;`

	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("find user by email: %w", err)
	}

	return user, nil
}

// FindUserByID fetches a user by identifier.
func (r *Repository) FindUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1;`

	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("find user by id: %w", err)
	}

	return user, nil
}

// ListUsers returns every user ordered by creation time.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC;`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// UpdateUser writes the editable profile fields of user.
func (r *Repository) UpdateUser(ctx context.Context, user User) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	query := `
UPDATE users
SET email = $2, role = $3, first_name = $4, last_name = $5, phone = $6, updated_at = NOW()
WHERE id = $1
RETURNING ` + userColumns + `;`

	updated, err := scanUser(r.pool.QueryRow(ctx, query, user.ID, user.Email, user.Role, user.FirstName, user.LastName, user.Phone))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return User{}, ErrUserNotFound
		case storage.IsUniqueViolation(err):
			return User{}, ErrEmailAlreadyExists
		}
		return User{}, fmt.Errorf("update user: %w", err)
	}
	return updated, nil
}

// UpdatePasswordHash replaces the stored password hash.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1;`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateDocuments replaces the documents section of a user.
func (r *Repository) UpdateDocuments(ctx context.Context, id uuid.UUID, docs Documents) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	query := `
UPDATE users
SET documents = $2, updated_at = NOW()
WHERE id = $1
RETURNING ` + userColumns + `;`

	updated, err := scanUser(r.pool.QueryRow(ctx, query, id, docs))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("update documents: %w", err)
	}
	return updated, nil
}

// DeleteUser removes a user.
func (r *Repository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, storage.QueryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.FirstName,
		&user.LastName,
		&user.Phone,
		&user.Documents,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}
