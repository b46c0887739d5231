package quiz

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Store abstracts quiz persistence.
type Store interface {
	Create(ctx context.Context, ownerID int, name, description string) (int, error)
	Get(ctx context.Context, quizID int) (*Record, error)
	SaveQuestions(ctx context.Context, quizID int, questions []Question) error
	SetTrashed(ctx context.Context, quizID int, trashed bool) error
}

// Service provides quiz authoring and read access for the session core.
type Service struct {
	store  Store
	logger zerolog.Logger
}

// NewService creates a quiz service.
func NewService(store Store, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.With().Str("component", "quiz").Logger(),
	}
}

// Create registers a new quiz owned by ownerID and returns its id.
func (s *Service) Create(ctx context.Context, ownerID int, name, description string) (int, error) {
	quizID, err := s.store.Create(ctx, ownerID, name, description)
	if err != nil {
		return 0, err
	}
	s.logger.Info().Int("quiz_id", quizID).Int("owner_id", ownerID).Msg("quiz created")
	return quizID, nil
}

// AddQuestion appends a question to the quiz and returns its id.
func (s *Service) AddQuestion(ctx context.Context, ownerID, quizID int, input QuestionInput) (int, error) {
	if err := validateQuestion(input); err != nil {
		return 0, err
	}

	rec, err := s.ownedRecord(ctx, ownerID, quizID)
	if err != nil {
		return 0, err
	}

	nextQuestionID := 1
	nextAnswerID := 1
	for _, q := range rec.Questions {
		if q.ID >= nextQuestionID {
			nextQuestionID = q.ID + 1
		}
		for _, a := range q.Answers {
			if a.ID >= nextAnswerID {
				nextAnswerID = a.ID + 1
			}
		}
	}

	question := Question{
		ID:       nextQuestionID,
		Text:     input.Text,
		Duration: input.Duration,
		Points:   input.Points,
		Answers:  make([]Answer, len(input.Answers)),
	}
	for i, a := range input.Answers {
		question.Answers[i] = Answer{ID: nextAnswerID + i, Text: a.Text, Correct: a.Correct}
	}

	questions := append(rec.Questions, question)
	if err := s.store.SaveQuestions(ctx, quizID, questions); err != nil {
		return 0, err
	}

	s.logger.Info().Int("quiz_id", quizID).Int("question_id", question.ID).Msg("question added")
	return question.ID, nil
}

// Trash moves the quiz to the trash; its non-END sessions are unaffected
// but no new sessions may start from it.
func (s *Service) Trash(ctx context.Context, ownerID, quizID int) error {
	if _, err := s.ownedRecord(ctx, ownerID, quizID); err != nil {
		return err
	}
	return s.store.SetTrashed(ctx, quizID, true)
}

// Restore takes the quiz back out of the trash.
func (s *Service) Restore(ctx context.Context, ownerID, quizID int) error {
	if _, err := s.ownedRecord(ctx, ownerID, quizID); err != nil {
		return err
	}
	return s.store.SetTrashed(ctx, quizID, false)
}

// Owned verifies the caller owns the quiz.
func (s *Service) Owned(ctx context.Context, ownerID, quizID int) error {
	_, err := s.ownedRecord(ctx, ownerID, quizID)
	return err
}

// OwnedSnapshot returns a value copy of the quiz for session start after
// verifying ownership.
func (s *Service) OwnedSnapshot(ctx context.Context, ownerID, quizID int) (Snapshot, error) {
	rec, err := s.ownedRecord(ctx, ownerID, quizID)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{
		QuizID:      rec.QuizID,
		Name:        rec.Name,
		Description: rec.Description,
		Questions:   rec.Questions,
		Trashed:     rec.Trashed,
	}
	return snap.Clone(), nil
}

func (s *Service) ownedRecord(ctx context.Context, ownerID, quizID int) (*Record, error) {
	rec, err := s.store.Get(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if rec.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: quiz %d", ErrOwnership, quizID)
	}
	return rec, nil
}

func validateQuestion(input QuestionInput) error {
	if input.Text == "" {
		return fmt.Errorf("%w: question text required", ErrValidation)
	}
	if input.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrValidation)
	}
	if input.Points <= 0 {
		return fmt.Errorf("%w: points must be positive", ErrValidation)
	}
	if len(input.Answers) == 0 {
		return fmt.Errorf("%w: at least one answer required", ErrValidation)
	}
	hasCorrect := false
	for _, a := range input.Answers {
		if a.Text == "" {
			return fmt.Errorf("%w: answer text required", ErrValidation)
		}
		if a.Correct {
			hasCorrect = true
		}
	}
	if !hasCorrect {
		return fmt.Errorf("%w: at least one correct answer required", ErrValidation)
	}
	return nil
}
