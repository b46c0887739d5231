package session

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/toohak/toohak/internal/quiz"
)

// State is a phase of a running quiz session.
type State string

const (
	StateLobby             State = "LOBBY"
	StateQuestionCountdown State = "QUESTION_COUNTDOWN"
	StateQuestionOpen      State = "QUESTION_OPEN"
	StateQuestionClose     State = "QUESTION_CLOSE"
	StateAnswerShow        State = "ANSWER_SHOW"
	StateFinalResults      State = "FINAL_RESULTS"
	StateEnd               State = "END"
)

// Action is an admin- or timer-issued command against the session FSM.
type Action string

const (
	ActionNextQuestion     Action = "NEXT_QUESTION"
	ActionSkipCountdown    Action = "SKIP_COUNTDOWN"
	ActionGoToAnswer       Action = "GO_TO_ANSWER"
	ActionGoToFinalResults Action = "GO_TO_FINAL_RESULTS"
	ActionEnd              Action = "END"
)

// Player is a guest participant bound to one session for its lifetime.
type Player struct {
	ID   int    `json:"playerId"`
	Name string `json:"name"`
}

// RankEntry pairs a player with a score. Used both for per-question
// rankings and the cumulative session ranking.
type RankEntry struct {
	PlayerID int     `json:"playerId"`
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
}

// AnswerRecord is one player's recorded submission facts for one question.
type AnswerRecord struct {
	PlayerID   int     `json:"playerId"`
	AnswerTime int     `json:"answerTime"`
	Score      float64 `json:"score"`
	Correct    bool    `json:"correct"`
}

// QuestionResults is the aggregation output for a single question. The
// slot is pre-allocated at session creation and written exactly once when
// the question closes.
type QuestionResults struct {
	QuestionID         int            `json:"questionId"`
	PlayersCorrectList []string       `json:"playersCorrectList"`
	PlayersAnswered    []AnswerRecord `json:"playersAnsweredList"`
	AverageAnswerTime  int            `json:"averageAnswerTime"`
	PercentCorrect     int            `json:"percentCorrect"`
	QuestionRanking    []RankEntry    `json:"userRankingForQuestion"`
}

// Message is one chat entry. Immutable once appended; list order is
// arrival order.
type Message struct {
	Body       string `json:"messageBody"`
	PlayerID   int    `json:"playerId"`
	PlayerName string `json:"playerName"`
	TimeSent   int64  `json:"timeSent"`
}

// submission is a player's provisional answer while a question is open.
// Re-submission replaces the old entry and moves the player to the back of
// the arrival order.
type submission struct {
	playerID   int
	answerTime int
	correct    bool
}

// QuizSession is one live run of a quiz. Every read-then-mutate sequence,
// including end-of-question aggregation and timer callbacks, runs under mu.
type QuizSession struct {
	mu sync.Mutex

	ID           int
	Quiz         quiz.Snapshot // deep copy, isolated from later quiz edits
	State        State
	AtQuestion   int // 0 in LOBBY, else 1-based question cursor
	AutoStartNum int

	Players       []*Player // join order
	Results       []*QuestionResults
	RankedByScore []RankEntry
	Messages      []Message

	resultsUpdated bool
	questionOpenAt time.Time
	submissions    []*submission // arrival order, at most one per player
	submissionIdx  map[int]int   // playerID -> index into submissions

	// Timer-handle invalidation: a callback only runs if its captured
	// sequence still matches timerSeq.
	timerSeq uint64
	timer    *clock.Timer
}

func (sess *QuizSession) hasName(name string) bool {
	for _, p := range sess.Players {
		if p.Name == name {
			return true
		}
	}
	return false
}

func (sess *QuizSession) playerIDsLocked() []int {
	ids := make([]int, len(sess.Players))
	for i, p := range sess.Players {
		ids[i] = p.ID
	}
	return ids
}

// currentQuestionLocked returns the question the cursor points at.
// Callers must have verified AtQuestion is in range.
func (sess *QuizSession) currentQuestionLocked() quiz.Question {
	return sess.Quiz.Questions[sess.AtQuestion-1]
}
