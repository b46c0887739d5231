package session

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/toohak/toohak/internal/quiz"
)

// Notifier receives push events for session observers. Implementations
// must not block; they may be called while session locks are held.
type Notifier interface {
	StateChanged(sessionID int, playerIDs []int, state State, atQuestion int)
	ChatMessage(sessionID int, playerIDs []int, msg Message)
}

// Options configures gameplay constants.
type Options struct {
	QuestionCountdown time.Duration // delay before a question opens; default 3s
	MaxActiveSessions int           // non-END sessions allowed per quiz; default 10
	AutoStartLimit    int           // inclusive autoStartNum ceiling; default 50
}

func (o Options) withDefaults() Options {
	if o.QuestionCountdown == 0 {
		o.QuestionCountdown = 3 * time.Second
	}
	if o.MaxActiveSessions == 0 {
		o.MaxActiveSessions = 10
	}
	if o.AutoStartLimit == 0 {
		o.AutoStartLimit = 50
	}
	return o
}

// Service owns all quiz sessions and their players. It is the registry,
// the state machine driver and the scoring engine in one, operating on
// sessions it owns for their whole lifetime.
//
// Lock ordering: the service lock (when needed) is always taken before a
// session lock. Timer callbacks take only the session lock.
type Service struct {
	mu       sync.RWMutex
	sessions map[int]*QuizSession
	players  map[int]*QuizSession // playerID -> owning session; never shrinks

	clock    clock.Clock
	notifier Notifier
	opts     Options
	logger   zerolog.Logger
}

// NewService creates the session service. notifier may be nil.
func NewService(clk clock.Clock, notifier Notifier, opts Options, logger zerolog.Logger) *Service {
	return &Service{
		sessions: make(map[int]*QuizSession),
		players:  make(map[int]*QuizSession),
		clock:    clk,
		notifier: notifier,
		opts:     opts.withDefaults(),
		logger:   logger.With().Str("component", "session").Logger(),
	}
}

// CreateSession starts a new session for the quiz snapshot. The snapshot
// is deep-copied so concurrent quiz edits never reach the session.
func (s *Service) CreateSession(snap quiz.Snapshot, autoStartNum int) (int, error) {
	if autoStartNum < 0 || autoStartNum > s.opts.AutoStartLimit {
		return 0, fmt.Errorf("%w: autoStartNum must be between 0 and %d", ErrValidation, s.opts.AutoStartLimit)
	}
	if snap.Trashed {
		return 0, fmt.Errorf("%w: quiz is in the trash", ErrState)
	}
	if len(snap.Questions) == 0 {
		return 0, fmt.Errorf("%w: quiz has no questions", ErrState)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	active := 0
	for _, sess := range s.sessions {
		sess.mu.Lock()
		if sess.Quiz.QuizID == snap.QuizID && sess.State != StateEnd {
			active++
		}
		sess.mu.Unlock()
	}
	if active >= s.opts.MaxActiveSessions {
		return 0, fmt.Errorf("%w: quiz %d already has %d sessions", ErrLimit, snap.QuizID, active)
	}

	sess := &QuizSession{
		ID:            s.newSessionIDLocked(),
		Quiz:          snap.Clone(),
		State:         StateLobby,
		AutoStartNum:  autoStartNum,
		RankedByScore: []RankEntry{},
		Results:       make([]*QuestionResults, len(snap.Questions)),
	}
	for i, q := range sess.Quiz.Questions {
		sess.Results[i] = &QuestionResults{QuestionID: q.ID}
	}
	s.sessions[sess.ID] = sess

	s.logger.Info().
		Int("session_id", sess.ID).
		Int("quiz_id", snap.QuizID).
		Int("auto_start", autoStartNum).
		Msg("session created")

	return sess.ID, nil
}

// SessionList holds session ids for one quiz, split by liveness.
type SessionList struct {
	Active   []int `json:"activeSessions"`
	Inactive []int `json:"inactiveSessions"`
}

// ListSessions returns the quiz's session ids, END sessions under
// Inactive, both sorted ascending.
func (s *Service) ListSessions(quizID int) SessionList {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := SessionList{Active: []int{}, Inactive: []int{}}
	for id, sess := range s.sessions {
		sess.mu.Lock()
		match := sess.Quiz.QuizID == quizID
		ended := sess.State == StateEnd
		sess.mu.Unlock()
		if !match {
			continue
		}
		if ended {
			list.Inactive = append(list.Inactive, id)
		} else {
			list.Active = append(list.Active, id)
		}
	}
	sort.Ints(list.Active)
	sort.Ints(list.Inactive)
	return list
}

// findSession looks a session up by id.
func (s *Service) findSession(sessionID int) (*QuizSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: session %d", ErrNotFound, sessionID)
	}
	return sess, nil
}

// findPlayer resolves a player id to its session and player record.
func (s *Service) findPlayer(playerID int) (*QuizSession, *Player, error) {
	s.mu.RLock()
	sess, ok := s.players[playerID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("%w: player %d", ErrNotFound, playerID)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	for _, p := range sess.Players {
		if p.ID == playerID {
			return sess, p, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: player %d", ErrNotFound, playerID)
}

// newSessionIDLocked generates a session id unique across all sessions,
// ended ones included. Caller holds the service write lock.
func (s *Service) newSessionIDLocked() int {
	for {
		id := rand.Intn(9_000_000) + 1_000_000
		if _, exists := s.sessions[id]; !exists {
			return id
		}
	}
}

// newPlayerIDLocked generates a player id unique across all players in
// all sessions. Caller holds the service write lock.
func (s *Service) newPlayerIDLocked() int {
	for {
		id := rand.Intn(9_000_000) + 1_000_000
		if _, exists := s.players[id]; !exists {
			return id
		}
	}
}

func (s *Service) notifyStateLocked(sess *QuizSession) {
	if s.notifier == nil {
		return
	}
	s.notifier.StateChanged(sess.ID, sess.playerIDsLocked(), sess.State, sess.AtQuestion)
}
