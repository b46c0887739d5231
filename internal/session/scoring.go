package session

import (
	"fmt"
	"math"
	"sort"
)

// SubmitAnswer records a player's answer set for the currently open
// question. Submitting again while the question is still open replaces
// the earlier submission.
func (s *Service) SubmitAnswer(playerID, questionPosition int, answerIDs []int) error {
	s.mu.RLock()
	sess, ok := s.players[playerID]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: player %d", ErrNotFound, playerID)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if questionPosition < 1 || questionPosition > len(sess.Quiz.Questions) {
		return fmt.Errorf("%w: question position %d out of range", ErrValidation, questionPosition)
	}
	if sess.State != StateQuestionOpen {
		return fmt.Errorf("%w: question is not open", ErrState)
	}
	if questionPosition != sess.AtQuestion {
		return fmt.Errorf("%w: session is on question %d", ErrState, sess.AtQuestion)
	}

	question := sess.currentQuestionLocked()
	if len(answerIDs) == 0 {
		return fmt.Errorf("%w: at least one answer id required", ErrValidation)
	}

	validIDs := make(map[int]bool, len(question.Answers))
	for _, a := range question.Answers {
		validIDs[a.ID] = true
	}
	chosen := make(map[int]bool, len(answerIDs))
	for _, id := range answerIDs {
		if chosen[id] {
			return fmt.Errorf("%w: duplicate answer id %d", ErrValidation, id)
		}
		if !validIDs[id] {
			return fmt.Errorf("%w: answer id %d does not belong to this question", ErrValidation, id)
		}
		chosen[id] = true
	}

	correct := true
	correctIDs := question.CorrectAnswerIDs()
	if len(correctIDs) != len(answerIDs) {
		correct = false
	} else {
		for _, id := range correctIDs {
			if !chosen[id] {
				correct = false
				break
			}
		}
	}

	elapsed := int(s.clock.Now().Sub(sess.questionOpenAt).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}

	sub := &submission{playerID: playerID, answerTime: elapsed, correct: correct}
	if sess.submissionIdx == nil {
		sess.submissionIdx = make(map[int]int)
	}
	if idx, resubmitted := sess.submissionIdx[playerID]; resubmitted {
		// Last write wins: drop the old entry and move to the back of the
		// arrival order.
		sess.submissions = append(sess.submissions[:idx], sess.submissions[idx+1:]...)
		for pid, i := range sess.submissionIdx {
			if i > idx {
				sess.submissionIdx[pid] = i - 1
			}
		}
	}
	sess.submissionIdx[playerID] = len(sess.submissions)
	sess.submissions = append(sess.submissions, sub)

	s.logger.Debug().
		Int("session_id", sess.ID).
		Int("player_id", playerID).
		Int("question", questionPosition).
		Bool("correct", correct).
		Int("answer_time", elapsed).
		Msg("answer submitted")

	return nil
}

// aggregateLocked computes the current question's results and folds them
// into the cumulative ranking. The resultsUpdated guard makes the racing
// triggers (close timer, GO_TO_ANSWER, END) run it exactly once.
func (s *Service) aggregateLocked(sess *QuizSession) {
	if sess.resultsUpdated || sess.AtQuestion == 0 {
		return
	}

	question := sess.currentQuestionLocked()
	res := sess.Results[sess.AtQuestion-1]

	// Correct answerers ranked by answer time; the stable sort keeps
	// arrival order as the tie-break.
	ranked := make([]*submission, len(sess.submissions))
	copy(ranked, sess.submissions)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].answerTime < ranked[j].answerTime
	})

	names := make(map[int]string, len(sess.Players))
	for _, p := range sess.Players {
		names[p.ID] = p.Name
	}

	scores := make(map[int]float64, len(ranked))
	correctList := []string{}
	rank := 0
	for _, sub := range ranked {
		if !sub.correct {
			continue
		}
		rank++
		scores[sub.playerID] = roundTenth(float64(question.Points) / float64(rank))
		correctList = append(correctList, names[sub.playerID])
	}

	answered := make([]AnswerRecord, len(ranked))
	totalTime := 0
	for i, sub := range ranked {
		totalTime += sub.answerTime
		answered[i] = AnswerRecord{
			PlayerID:   sub.playerID,
			AnswerTime: sub.answerTime,
			Score:      scores[sub.playerID],
			Correct:    sub.correct,
		}
	}

	res.PlayersCorrectList = correctList
	res.PlayersAnswered = answered
	res.AverageAnswerTime = 0
	if len(ranked) > 0 {
		res.AverageAnswerTime = int(math.Round(float64(totalTime) / float64(len(ranked))))
	}
	res.PercentCorrect = 0
	if len(sess.Players) > 0 {
		res.PercentCorrect = int(math.Round(100 * float64(len(correctList)) / float64(len(sess.Players))))
	}

	// Per-question ranking covers every player, zero if they never answered.
	questionRanking := make([]RankEntry, len(sess.Players))
	for i, p := range sess.Players {
		questionRanking[i] = RankEntry{PlayerID: p.ID, Name: p.Name, Score: scores[p.ID]}
	}
	sort.SliceStable(questionRanking, func(i, j int) bool {
		return questionRanking[i].Score > questionRanking[j].Score
	})
	res.QuestionRanking = questionRanking

	// Cumulative ranking: add this question's scores and re-sort.
	for i := range sess.RankedByScore {
		entry := &sess.RankedByScore[i]
		entry.Score = roundTenth(entry.Score + scores[entry.PlayerID])
	}
	sort.SliceStable(sess.RankedByScore, func(i, j int) bool {
		return sess.RankedByScore[i].Score > sess.RankedByScore[j].Score
	})

	sess.resultsUpdated = true

	s.logger.Info().
		Int("session_id", sess.ID).
		Int("question", sess.AtQuestion).
		Int("answers", len(answered)).
		Int("correct", len(correctList)).
		Msg("question results aggregated")
}

// roundTenth rounds to one decimal place, half away from zero.
func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
