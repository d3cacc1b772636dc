package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/georgemunganga/slist-backend/internal/database"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type sqlRepository struct {
	db *database.DB
}

// NewSQLRepository creates a user repository on top of postgres or sqlite.
func NewSQLRepository(db *database.DB) Repository {
	return &sqlRepository{db: db}
}

// isDuplicateKey reports whether err is a unique constraint violation.
func isDuplicateKey(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (r *sqlRepository) CreateUser(ctx context.Context, user *User) error {
	query := r.db.Rebind(`
		INSERT INTO users (id, email, password_hash, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`)
	_, err := r.db.SQL.ExecContext(ctx, query,
		user.ID.String(), user.Email, user.PasswordHash, nullable(user.Name), user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *sqlRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := r.db.Rebind(`
		SELECT id, email, password_hash, name, created_at, updated_at
		FROM users
		WHERE email = $1
	`)
	return scanUser(r.db.SQL.QueryRowContext(ctx, query, email))
}

func (r *sqlRepository) GetUserByID(ctx context.Context, id string) (*User, error) {
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	query := r.db.Rebind(`
		SELECT id, email, password_hash, name, created_at, updated_at
		FROM users
		WHERE id = $1
	`)
	return scanUser(r.db.SQL.QueryRowContext(ctx, query, parsedID.String()))
}

func scanUser(row *sql.Row) (*User, error) {
	user := &User{}
	var name sql.NullString
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&name,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	user.Name = name.String
	return user, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
