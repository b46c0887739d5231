package session

import (
	"fmt"
	"time"
)

// transitions is the FSM table: (current state, action) -> next state.
// Entry effects run in enterLocked so timer-driven and admin-driven
// transitions share one code path.
var transitions = map[State]map[Action]State{
	StateLobby: {
		ActionNextQuestion: StateQuestionCountdown,
		ActionEnd:          StateEnd,
	},
	StateQuestionCountdown: {
		ActionSkipCountdown: StateQuestionOpen,
		ActionEnd:           StateEnd,
	},
	StateQuestionOpen: {
		ActionGoToAnswer: StateAnswerShow,
		ActionEnd:        StateEnd,
	},
	StateQuestionClose: {
		ActionNextQuestion:     StateQuestionCountdown,
		ActionGoToAnswer:       StateAnswerShow,
		ActionGoToFinalResults: StateFinalResults,
		ActionEnd:              StateEnd,
	},
	StateAnswerShow: {
		ActionNextQuestion:     StateQuestionCountdown,
		ActionGoToFinalResults: StateFinalResults,
		ActionEnd:              StateEnd,
	},
	StateFinalResults: {
		ActionEnd: StateEnd,
	},
	StateEnd: {},
}

var knownActions = map[Action]struct{}{
	ActionNextQuestion:     {},
	ActionSkipCountdown:    {},
	ActionGoToAnswer:       {},
	ActionGoToFinalResults: {},
	ActionEnd:              {},
}

// ApplyAction validates and performs an admin action against the session.
func (s *Service) ApplyAction(sessionID int, action Action) error {
	sess, err := s.findSession(sessionID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.applyLocked(sess, action)
}

func (s *Service) applyLocked(sess *QuizSession, action Action) error {
	if _, known := knownActions[action]; !known {
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	next, allowed := transitions[sess.State][action]
	if !allowed {
		return fmt.Errorf("%w: %s in state %s", ErrInvalidAction, action, sess.State)
	}
	if action == ActionNextQuestion && sess.AtQuestion >= len(sess.Quiz.Questions) {
		return fmt.Errorf("%w: no questions remain after question %d", ErrState, sess.AtQuestion)
	}

	// Every path leaving the current state invalidates its pending timer.
	s.cancelTimerLocked(sess)

	// Leaving an open question for answers or the end must not lose
	// submitted data: the aggregation guard keeps this idempotent.
	if sess.State == StateQuestionOpen && (action == ActionGoToAnswer || action == ActionEnd) {
		s.aggregateLocked(sess)
	}

	s.logger.Info().
		Int("session_id", sess.ID).
		Str("action", string(action)).
		Str("from", string(sess.State)).
		Str("to", string(next)).
		Msg("session transition")

	s.enterLocked(sess, next)
	return nil
}

// enterLocked records the new state and performs its entry effects.
// Both manual actions and timer firings funnel through here, so skipping
// a countdown is indistinguishable from the countdown elapsing.
func (s *Service) enterLocked(sess *QuizSession, next State) {
	switch next {
	case StateQuestionCountdown:
		sess.AtQuestion++
		sess.resultsUpdated = false
		sess.submissions = nil
		sess.submissionIdx = nil
		s.scheduleLocked(sess, s.opts.QuestionCountdown, func(sess *QuizSession) {
			s.enterLocked(sess, StateQuestionOpen)
		})

	case StateQuestionOpen:
		sess.questionOpenAt = s.clock.Now()
		duration := time.Duration(sess.currentQuestionLocked().Duration) * time.Second
		s.scheduleLocked(sess, duration, func(sess *QuizSession) {
			s.aggregateLocked(sess)
			s.enterLocked(sess, StateQuestionClose)
		})
	}

	sess.State = next
	s.notifyStateLocked(sess)
}

// scheduleLocked arms the session's single outstanding timer. Any timer
// armed earlier is superseded: its callback sees a stale sequence and
// no-ops, even if it is already in flight.
func (s *Service) scheduleLocked(sess *QuizSession, d time.Duration, fire func(*QuizSession)) {
	if sess.timer != nil {
		sess.timer.Stop()
	}
	sess.timerSeq++
	seq := sess.timerSeq
	sess.timer = s.clock.AfterFunc(d, func() {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		if sess.timerSeq != seq {
			return
		}
		sess.timer = nil
		fire(sess)
	})
}

// cancelTimerLocked invalidates the pending timer if any. Canceling an
// already-fired or absent timer is a no-op.
func (s *Service) cancelTimerLocked(sess *QuizSession) {
	sess.timerSeq++
	if sess.timer != nil {
		sess.timer.Stop()
		sess.timer = nil
	}
}
