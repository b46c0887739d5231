package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openFirstQuestion joins the named players, starts the session and lands
// it on question 1 in QUESTION_OPEN.
func openFirstQuestion(t *testing.T, svc *Service, clkAdd func(time.Duration), id int, names ...string) map[string]int {
	t.Helper()
	players := make(map[string]int, len(names))
	for _, name := range names {
		playerID, err := svc.Join(id, name)
		require.NoError(t, err)
		players[name] = playerID
	}
	require.NoError(t, svc.ApplyAction(id, ActionNextQuestion))
	clkAdd(3 * time.Second)
	return players
}

func TestSubmitAndScoreSplitBySpeed(t *testing.T) {
	svc, clk := newTestService()
	id := startSession(t, svc, 1)
	players := openFirstQuestion(t, svc, clk.Add, id, "alice", "bob")

	correctID := 11 // question 1's correct answer in the test quiz

	clk.Add(1 * time.Second)
	require.NoError(t, svc.SubmitAnswer(players["alice"], 1, []int{correctID}))
	clk.Add(1 * time.Second)
	require.NoError(t, svc.SubmitAnswer(players["bob"], 1, []int{correctID}))

	require.NoError(t, svc.ApplyAction(id, ActionGoToAnswer))

	res, err := svc.QuestionResultsFor(players["alice"], 1)
	require.NoError(t, err)

	// First correct answerer takes full points, second takes half.
	assert.Equal(t, []string{"alice", "bob"}, res.PlayersCorrectList)
	assert.Equal(t, 100, res.PercentCorrect)
	assert.Equal(t, 2, res.AverageAnswerTime, "mean of 1s and 2s rounds up")

	require.Len(t, res.QuestionRanking, 2)
	assert.Equal(t, "alice", res.QuestionRanking[0].Name)
	assert.Equal(t, 5.0, res.QuestionRanking[0].Score)
	assert.Equal(t, "bob", res.QuestionRanking[1].Name)
	assert.Equal(t, 2.5, res.QuestionRanking[1].Score)
}

func TestWrongAnswerScoresZero(t *testing.T) {
	svc, clk := newTestService()
	id := startSession(t, svc, 1)
	players := openFirstQuestion(t, svc, clk.Add, id, "alice", "bob")

	clk.Add(1 * time.Second)
	require.NoError(t, svc.SubmitAnswer(players["alice"], 1, []int{12})) // wrong
	require.NoError(t, svc.SubmitAnswer(players["bob"], 1, []int{11}))  // right

	require.NoError(t, svc.ApplyAction(id, ActionGoToAnswer))

	res, err := svc.QuestionResultsFor(players["alice"], 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"bob"}, res.PlayersCorrectList)
	assert.Equal(t, 50, res.PercentCorrect)

	// Bob answered second in arrival order but is the only correct player,
	// so rank 1 gives full points.
	assert.Equal(t, "bob", res.QuestionRanking[0].Name)
	assert.Equal(t, 5.0, res.QuestionRanking[0].Score)
	assert.Equal(t, 0.0, res.QuestionRanking[1].Score)
}

func TestSelectionMustMatchExactly(t *testing.T) {
	svc, clk := newTestService()
	id := startSession(t, svc, 1)
	players := openFirstQuestion(t, svc, clk.Add, id, "alice")

	// Right answer plus a wrong one is not an exact match.
	require.NoError(t, svc.SubmitAnswer(players["alice"], 1, []int{11, 12}))
	require.NoError(t, svc.ApplyAction(id, ActionGoToAnswer))

	res, err := svc.QuestionResultsFor(players["alice"], 1)
	require.NoError(t, err)
	assert.Empty(t, res.PlayersCorrectList)
	assert.Equal(t, 0, res.PercentCorrect)
}

func TestResubmissionReplacesEarlierAnswer(t *testing.T) {
	svc, clk := newTestService()
	id := startSession(t, svc, 1)
	players := openFirstQuestion(t, svc, clk.Add, id, "alice", "bob")

	clk.Add(1 * time.Second)
	require.NoError(t, svc.SubmitAnswer(players["alice"], 1, []int{12})) // wrong first
	require.NoError(t, svc.SubmitAnswer(players["bob"], 1, []int{11}))

	clk.Add(2 * time.Second)
	require.NoError(t, svc.SubmitAnswer(players["alice"], 1, []int{11})) // corrected

	require.NoError(t, svc.ApplyAction(id, ActionGoToAnswer))

	res, err := svc.QuestionResultsFor(players["alice"], 1)
	require.NoError(t, err)

	// Only the final submission counts, with its later answer time.
	assert.Equal(t, []string{"bob", "alice"}, res.PlayersCorrectList)
	assert.Len(t, res.PlayersAnswered, 2)
	assert.Equal(t, "bob", res.QuestionRanking[0].Name)
	assert.Equal(t, 5.0, res.QuestionRanking[0].Score)
	assert.Equal(t, "alice", res.QuestionRanking[1].Name)
	assert.Equal(t, 2.5, res.QuestionRanking[1].Score)
}

func TestSubmitValidation(t *testing.T) {
	svc, clk := newTestService()
	id := startSession(t, svc, 2)
	players := openFirstQuestion(t, svc, clk.Add, id, "alice")
	alice := players["alice"]

	err := svc.SubmitAnswer(999999, 1, []int{11})
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.SubmitAnswer(alice, 0, []int{11})
	assert.ErrorIs(t, err, ErrValidation)

	err = svc.SubmitAnswer(alice, 3, []int{11})
	assert.ErrorIs(t, err, ErrValidation)

	err = svc.SubmitAnswer(alice, 2, []int{11})
	assert.ErrorIs(t, err, ErrState, "session is on question 1")

	err = svc.SubmitAnswer(alice, 1, nil)
	assert.ErrorIs(t, err, ErrValidation)

	err = svc.SubmitAnswer(alice, 1, []int{11, 11})
	assert.ErrorIs(t, err, ErrValidation)

	err = svc.SubmitAnswer(alice, 1, []int{77})
	assert.ErrorIs(t, err, ErrValidation, "answer id from another question")
}

func TestSubmitOutsideOpenState(t *testing.T) {
	svc, _ := newTestService()
	id := startSession(t, svc, 1)
	alice, err := svc.Join(id, "alice")
	require.NoError(t, err)

	err = svc.SubmitAnswer(alice, 1, []int{11})
	assert.ErrorIs(t, err, ErrState, "lobby")

	require.NoError(t, svc.ApplyAction(id, ActionNextQuestion))
	err = svc.SubmitAnswer(alice, 1, []int{11})
	assert.ErrorIs(t, err, ErrState, "countdown")
}

func TestAggregationRunsOnceAcrossRacingTriggers(t *testing.T) {
	svc, clk := newTestService()
	id := startSession(t, svc, 1)
	players := openFirstQuestion(t, svc, clk.Add, id, "alice", "bob")

	clk.Add(1 * time.Second)
	require.NoError(t, svc.SubmitAnswer(players["alice"], 1, []int{11}))
	require.NoError(t, svc.SubmitAnswer(players["bob"], 1, []int{11}))

	// Duration timer closes the question, then the admin shows answers. The
	// second trigger must not double-count scores.
	clk.Add(4 * time.Second)
	require.NoError(t, svc.ApplyAction(id, ActionGoToAnswer))
	require.NoError(t, svc.ApplyAction(id, ActionGoToFinalResults))

	final, err := svc.SessionFinalResults(id)
	require.NoError(t, err)
	require.Len(t, final.UsersRankedByScore, 2)
	assert.Equal(t, 5.0, final.UsersRankedByScore[0].Score)
	assert.Equal(t, 2.5, final.UsersRankedByScore[1].Score)
}

func TestEndFromOpenQuestionStillAggregates(t *testing.T) {
	svc, clk := newTestService()
	id := startSession(t, svc, 1)
	players := openFirstQuestion(t, svc, clk.Add, id, "alice")

	clk.Add(1 * time.Second)
	require.NoError(t, svc.SubmitAnswer(players["alice"], 1, []int{11}))
	require.NoError(t, svc.ApplyAction(id, ActionEnd))

	// Session ended mid-question; scores were still folded in.
	svc.mu.RLock()
	sess := svc.sessions[id]
	svc.mu.RUnlock()
	sess.mu.Lock()
	defer sess.mu.Unlock()
	require.Len(t, sess.RankedByScore, 1)
	assert.Equal(t, 5.0, sess.RankedByScore[0].Score)
}

func TestCumulativeRankingAcrossQuestions(t *testing.T) {
	svc, clk := newTestService()
	id := startSession(t, svc, 2)
	players := openFirstQuestion(t, svc, clk.Add, id, "alice", "bob")

	// Question 1: alice first, bob second.
	clk.Add(1 * time.Second)
	require.NoError(t, svc.SubmitAnswer(players["alice"], 1, []int{11}))
	require.NoError(t, svc.SubmitAnswer(players["bob"], 1, []int{11}))
	require.NoError(t, svc.ApplyAction(id, ActionGoToAnswer))

	// Question 2: only bob answers.
	require.NoError(t, svc.ApplyAction(id, ActionNextQuestion))
	clk.Add(3 * time.Second)
	clk.Add(1 * time.Second)
	require.NoError(t, svc.SubmitAnswer(players["bob"], 2, []int{21}))
	require.NoError(t, svc.ApplyAction(id, ActionGoToAnswer))
	require.NoError(t, svc.ApplyAction(id, ActionGoToFinalResults))

	final, err := svc.SessionFinalResults(id)
	require.NoError(t, err)
	require.Len(t, final.UsersRankedByScore, 2)

	// bob: 2.5 + 5 = 7.5 beats alice's 5.
	assert.Equal(t, "bob", final.UsersRankedByScore[0].Name)
	assert.Equal(t, 7.5, final.UsersRankedByScore[0].Score)
	assert.Equal(t, "alice", final.UsersRankedByScore[1].Name)
	assert.Equal(t, 5.0, final.UsersRankedByScore[1].Score)
}

func TestFractionalScoresRoundToOneDecimal(t *testing.T) {
	svc, clk := newTestService()
	id := startSession(t, svc, 1)
	players := openFirstQuestion(t, svc, clk.Add, id, "alice", "bob", "carol")

	clk.Add(1 * time.Second)
	require.NoError(t, svc.SubmitAnswer(players["alice"], 1, []int{11}))
	clk.Add(1 * time.Second)
	require.NoError(t, svc.SubmitAnswer(players["bob"], 1, []int{11}))
	clk.Add(1 * time.Second)
	require.NoError(t, svc.SubmitAnswer(players["carol"], 1, []int{11}))

	require.NoError(t, svc.ApplyAction(id, ActionGoToAnswer))

	res, err := svc.QuestionResultsFor(players["alice"], 1)
	require.NoError(t, err)

	// 5 points over rank 3 is 1.666..., stored as 1.7.
	assert.Equal(t, 1.7, res.QuestionRanking[2].Score)
}

func TestNoAnswersProducesEmptyResults(t *testing.T) {
	svc, clk := newTestService()
	id := startSession(t, svc, 1)
	players := openFirstQuestion(t, svc, clk.Add, id, "alice")

	clk.Add(5 * time.Second) // duration elapses with no submissions
	require.NoError(t, svc.ApplyAction(id, ActionGoToAnswer))

	res, err := svc.QuestionResultsFor(players["alice"], 1)
	require.NoError(t, err)
	assert.Empty(t, res.PlayersCorrectList)
	assert.Empty(t, res.PlayersAnswered)
	assert.Equal(t, 0, res.AverageAnswerTime)
	assert.Equal(t, 0, res.PercentCorrect)
	require.Len(t, res.QuestionRanking, 1)
	assert.Equal(t, 0.0, res.QuestionRanking[0].Score)
}
