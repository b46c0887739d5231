package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

// User is a registered quiz admin.
type User struct {
	ID           int
	Email        string
	PasswordHash string
	Name         string
}

// UserStore abstracts user persistence.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash, name string) (int, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, userID int) (*User, error)
}

// Repository persists users in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a user repository over a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a user and returns its id.
func (r *Repository) Create(ctx context.Context, email, passwordHash, name string) (int, error) {
	var userID int
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, display_name)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (email) DO NOTHING
		 RETURNING user_id`,
		email, passwordHash, name,
	).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrEmailTaken, email)
	}
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return userID, nil
}

// GetByEmail loads a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.scanUser(r.pool.QueryRow(ctx,
		`SELECT user_id, email, password_hash, display_name FROM users WHERE email = $1`,
		email,
	))
}

// GetByID loads a user by id.
func (r *Repository) GetByID(ctx context.Context, userID int) (*User, error) {
	return r.scanUser(r.pool.QueryRow(ctx,
		`SELECT user_id, email, password_hash, display_name FROM users WHERE user_id = $1`,
		userID,
	))
}

func (r *Repository) scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}
