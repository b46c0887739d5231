package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Record is a quiz row as stored in Postgres. Questions live in a JSONB
// column so a quiz and its question list load and store atomically.
type Record struct {
	QuizID      int
	OwnerID     int
	Name        string
	Description string
	Questions   []Question
	Trashed     bool
}

// Repository persists quizzes in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a quiz repository over a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a quiz with an empty question list and returns its id.
func (r *Repository) Create(ctx context.Context, ownerID int, name, description string) (int, error) {
	var quizID int
	err := r.pool.QueryRow(ctx,
		`INSERT INTO quizzes (owner_id, name, description, questions)
		 VALUES ($1, $2, $3, '[]'::jsonb)
		 RETURNING quiz_id`,
		ownerID, name, description,
	).Scan(&quizID)
	if err != nil {
		return 0, fmt.Errorf("insert quiz: %w", err)
	}
	return quizID, nil
}

// Get loads a quiz row by id.
func (r *Repository) Get(ctx context.Context, quizID int) (*Record, error) {
	var (
		rec      Record
		rawQuestions []byte
	)
	err := r.pool.QueryRow(ctx,
		`SELECT quiz_id, owner_id, name, description, questions, is_trashed
		 FROM quizzes WHERE quiz_id = $1`,
		quizID,
	).Scan(&rec.QuizID, &rec.OwnerID, &rec.Name, &rec.Description, &rawQuestions, &rec.Trashed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: quiz %d", ErrNotFound, quizID)
	}
	if err != nil {
		return nil, fmt.Errorf("select quiz: %w", err)
	}
	if err := json.Unmarshal(rawQuestions, &rec.Questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return &rec, nil
}

// SaveQuestions replaces the quiz's question list.
func (r *Repository) SaveQuestions(ctx context.Context, quizID int, questions []Question) error {
	raw, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE quizzes SET questions = $2, updated_at = now() WHERE quiz_id = $1`,
		quizID, raw,
	)
	if err != nil {
		return fmt.Errorf("update questions: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: quiz %d", ErrNotFound, quizID)
	}
	return nil
}

// SetTrashed flips the quiz's trash flag.
func (r *Repository) SetTrashed(ctx context.Context, quizID int, trashed bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE quizzes SET is_trashed = $2, updated_at = now() WHERE quiz_id = $1`,
		quizID, trashed,
	)
	if err != nil {
		return fmt.Errorf("update trash flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: quiz %d", ErrNotFound, quizID)
	}
	return nil
}
