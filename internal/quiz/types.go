package quiz

import "errors"

var (
	// ErrNotFound is returned when the quiz id does not exist.
	ErrNotFound = errors.New("quiz not found")
	// ErrOwnership is returned when a caller acts on a quiz they do not own.
	ErrOwnership = errors.New("quiz not owned by caller")
	// ErrValidation is returned when a question is structurally invalid.
	ErrValidation = errors.New("invalid quiz input")
)

// Answer is one selectable answer to a question.
type Answer struct {
	ID      int    `json:"answerId"`
	Text    string `json:"answer"`
	Correct bool   `json:"correct"`
}

// Question holds the fields the session core needs to run a question.
// Duration is in seconds.
type Question struct {
	ID       int      `json:"questionId"`
	Text     string   `json:"question"`
	Duration int      `json:"duration"`
	Points   int      `json:"points"`
	Answers  []Answer `json:"answers"`
}

// CorrectAnswerIDs returns the ids of the correct answers.
func (q Question) CorrectAnswerIDs() []int {
	var ids []int
	for _, a := range q.Answers {
		if a.Correct {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// Snapshot is a point-in-time value copy of a quiz. Sessions clone it at
// start so later quiz edits never reach a running game.
type Snapshot struct {
	QuizID      int        `json:"quizId"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
	Trashed     bool       `json:"-"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Questions = make([]Question, len(s.Questions))
	for i, q := range s.Questions {
		cq := q
		cq.Answers = make([]Answer, len(q.Answers))
		copy(cq.Answers, q.Answers)
		out.Questions[i] = cq
	}
	return out
}

// QuestionInput is the authoring payload for a new question.
type QuestionInput struct {
	Text     string        `json:"question"`
	Duration int           `json:"duration"`
	Points   int           `json:"points"`
	Answers  []AnswerInput `json:"answers"`
}

// AnswerInput is the authoring payload for one answer.
type AnswerInput struct {
	Text    string `json:"answer"`
	Correct bool   `json:"correct"`
}
