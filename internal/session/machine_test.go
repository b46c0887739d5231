package session

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toohak/toohak/internal/quiz"
)

func newTestService() (*Service, *clock.Mock) {
	clk := clock.NewMock()
	svc := NewService(clk, nil, Options{}, zerolog.Nop())
	return svc, clk
}

func testQuiz(numQuestions int) quiz.Snapshot {
	snap := quiz.Snapshot{
		QuizID:      1,
		Name:        "World Capitals",
		Description: "Geography basics",
	}
	for i := 1; i <= numQuestions; i++ {
		snap.Questions = append(snap.Questions, quiz.Question{
			ID:       i,
			Text:     "Which one is correct?",
			Duration: 5,
			Points:   5,
			Answers: []quiz.Answer{
				{ID: i*10 + 1, Text: "right", Correct: true},
				{ID: i*10 + 2, Text: "wrong", Correct: false},
			},
		})
	}
	return snap
}

func startSession(t *testing.T, svc *Service, numQuestions int) int {
	t.Helper()
	id, err := svc.CreateSession(testQuiz(numQuestions), 0)
	require.NoError(t, err)
	return id
}

func sessionState(t *testing.T, svc *Service, sessionID int) (State, int) {
	t.Helper()
	status, err := svc.SessionStatus(sessionID)
	require.NoError(t, err)
	return status.State, status.AtQuestion
}

func TestNewSessionStartsInLobby(t *testing.T) {
	svc, _ := newTestService()
	id := startSession(t, svc, 2)

	state, atQuestion := sessionState(t, svc, id)
	assert.Equal(t, StateLobby, state)
	assert.Equal(t, 0, atQuestion)
}

func TestNextQuestionEntersCountdown(t *testing.T) {
	svc, _ := newTestService()
	id := startSession(t, svc, 2)

	require.NoError(t, svc.ApplyAction(id, ActionNextQuestion))

	state, atQuestion := sessionState(t, svc, id)
	assert.Equal(t, StateQuestionCountdown, state)
	assert.Equal(t, 1, atQuestion)
}

func TestCountdownElapsesIntoOpenQuestion(t *testing.T) {
	svc, clk := newTestService()
	id := startSession(t, svc, 2)
	require.NoError(t, svc.ApplyAction(id, ActionNextQuestion))

	clk.Add(3 * time.Second)

	state, _ := sessionState(t, svc, id)
	assert.Equal(t, StateQuestionOpen, state)
}

func TestSkipCountdownOpensImmediately(t *testing.T) {
	svc, clk := newTestService()
	id := startSession(t, svc, 2)
	require.NoError(t, svc.ApplyAction(id, ActionNextQuestion))
	require.NoError(t, svc.ApplyAction(id, ActionSkipCountdown))

	state, _ := sessionState(t, svc, id)
	assert.Equal(t, StateQuestionOpen, state)

	// The superseded countdown timer must not re-open or advance anything.
	clk.Add(3 * time.Second)
	state, atQuestion := sessionState(t, svc, id)
	assert.Equal(t, StateQuestionOpen, state)
	assert.Equal(t, 1, atQuestion)
}

func TestQuestionDurationElapsesIntoClose(t *testing.T) {
	svc, clk := newTestService()
	id := startSession(t, svc, 2)
	require.NoError(t, svc.ApplyAction(id, ActionNextQuestion))
	clk.Add(3 * time.Second)

	clk.Add(5 * time.Second)

	state, _ := sessionState(t, svc, id)
	assert.Equal(t, StateQuestionClose, state)
}

func TestGoToAnswerCancelsDurationTimer(t *testing.T) {
	svc, clk := newTestService()
	id := startSession(t, svc, 2)
	require.NoError(t, svc.ApplyAction(id, ActionNextQuestion))
	clk.Add(3 * time.Second)

	require.NoError(t, svc.ApplyAction(id, ActionGoToAnswer))
	state, _ := sessionState(t, svc, id)
	assert.Equal(t, StateAnswerShow, state)

	// The stale duration timer must not drag the session to QUESTION_CLOSE.
	clk.Add(10 * time.Second)
	state, _ = sessionState(t, svc, id)
	assert.Equal(t, StateAnswerShow, state)
}

func TestInvalidActionForState(t *testing.T) {
	svc, _ := newTestService()
	id := startSession(t, svc, 2)

	err := svc.ApplyAction(id, ActionSkipCountdown)
	assert.ErrorIs(t, err, ErrInvalidAction)

	err = svc.ApplyAction(id, ActionGoToAnswer)
	assert.ErrorIs(t, err, ErrInvalidAction)

	// A rejected action must not disturb the session.
	state, atQuestion := sessionState(t, svc, id)
	assert.Equal(t, StateLobby, state)
	assert.Equal(t, 0, atQuestion)
}

func TestUnknownActionRejected(t *testing.T) {
	svc, _ := newTestService()
	id := startSession(t, svc, 2)

	err := svc.ApplyAction(id, Action("DO_A_BARREL_ROLL"))
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestActionOnUnknownSession(t *testing.T) {
	svc, _ := newTestService()

	err := svc.ApplyAction(424242, ActionEnd)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNextQuestionPastLastQuestion(t *testing.T) {
	svc, clk := newTestService()
	id := startSession(t, svc, 1)
	require.NoError(t, svc.ApplyAction(id, ActionNextQuestion))
	clk.Add(3 * time.Second)
	require.NoError(t, svc.ApplyAction(id, ActionGoToAnswer))

	err := svc.ApplyAction(id, ActionNextQuestion)
	assert.ErrorIs(t, err, ErrState)

	state, _ := sessionState(t, svc, id)
	assert.Equal(t, StateAnswerShow, state)
}

func TestEndIsTerminal(t *testing.T) {
	svc, clk := newTestService()
	id := startSession(t, svc, 2)
	require.NoError(t, svc.ApplyAction(id, ActionNextQuestion))
	require.NoError(t, svc.ApplyAction(id, ActionEnd))

	state, atQuestion := sessionState(t, svc, id)
	assert.Equal(t, StateEnd, state)
	assert.Equal(t, 1, atQuestion, "ending must not reset the question cursor")

	for _, action := range []Action{ActionNextQuestion, ActionSkipCountdown, ActionGoToAnswer, ActionGoToFinalResults, ActionEnd} {
		err := svc.ApplyAction(id, action)
		assert.ErrorIs(t, err, ErrInvalidAction, "action %s", action)
	}

	// Pending countdown timer from before END must stay dead.
	clk.Add(time.Minute)
	state, _ = sessionState(t, svc, id)
	assert.Equal(t, StateEnd, state)
}

func TestEndReachableFromEveryState(t *testing.T) {
	advance := map[State]func(svc *Service, clk *clock.Mock, id int){
		StateLobby:             func(*Service, *clock.Mock, int) {},
		StateQuestionCountdown: func(svc *Service, clk *clock.Mock, id int) { svc.ApplyAction(id, ActionNextQuestion) },
		StateQuestionOpen: func(svc *Service, clk *clock.Mock, id int) {
			svc.ApplyAction(id, ActionNextQuestion)
			clk.Add(3 * time.Second)
		},
		StateQuestionClose: func(svc *Service, clk *clock.Mock, id int) {
			svc.ApplyAction(id, ActionNextQuestion)
			clk.Add(3 * time.Second)
			clk.Add(5 * time.Second)
		},
		StateAnswerShow: func(svc *Service, clk *clock.Mock, id int) {
			svc.ApplyAction(id, ActionNextQuestion)
			clk.Add(3 * time.Second)
			svc.ApplyAction(id, ActionGoToAnswer)
		},
		StateFinalResults: func(svc *Service, clk *clock.Mock, id int) {
			svc.ApplyAction(id, ActionNextQuestion)
			clk.Add(3 * time.Second)
			svc.ApplyAction(id, ActionGoToAnswer)
			svc.ApplyAction(id, ActionGoToFinalResults)
		},
	}

	for from, setup := range advance {
		svc, clk := newTestService()
		id := startSession(t, svc, 2)
		setup(svc, clk, id)

		state, _ := sessionState(t, svc, id)
		require.Equal(t, from, state)

		require.NoError(t, svc.ApplyAction(id, ActionEnd), "END from %s", from)
		state, _ = sessionState(t, svc, id)
		assert.Equal(t, StateEnd, state)
	}
}

func TestFullHappyPathThroughTwoQuestions(t *testing.T) {
	svc, clk := newTestService()
	id := startSession(t, svc, 2)

	require.NoError(t, svc.ApplyAction(id, ActionNextQuestion))
	clk.Add(3 * time.Second)
	clk.Add(5 * time.Second) // question 1 closes
	require.NoError(t, svc.ApplyAction(id, ActionGoToAnswer))

	require.NoError(t, svc.ApplyAction(id, ActionNextQuestion))
	state, atQuestion := sessionState(t, svc, id)
	assert.Equal(t, StateQuestionCountdown, state)
	assert.Equal(t, 2, atQuestion)

	clk.Add(3 * time.Second)
	require.NoError(t, svc.ApplyAction(id, ActionGoToAnswer))
	require.NoError(t, svc.ApplyAction(id, ActionGoToFinalResults))

	state, _ = sessionState(t, svc, id)
	assert.Equal(t, StateFinalResults, state)
}

func TestGoToFinalResultsFromQuestionClose(t *testing.T) {
	svc, clk := newTestService()
	id := startSession(t, svc, 1)
	require.NoError(t, svc.ApplyAction(id, ActionNextQuestion))
	clk.Add(3 * time.Second)
	clk.Add(5 * time.Second)

	require.NoError(t, svc.ApplyAction(id, ActionGoToFinalResults))
	state, _ := sessionState(t, svc, id)
	assert.Equal(t, StateFinalResults, state)
}
