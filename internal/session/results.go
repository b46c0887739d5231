package session

import (
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Status is the admin-facing view of a session.
type Status struct {
	State      State          `json:"state"`
	AtQuestion int            `json:"atQuestion"`
	Players    []string       `json:"players"`
	Metadata   StatusMetadata `json:"metadata"`
}

// StatusMetadata describes the quiz snapshot the session runs on.
type StatusMetadata struct {
	QuizID       int    `json:"quizId"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	NumQuestions int    `json:"numQuestions"`
}

// SessionStatus returns the admin view of a session.
func (s *Service) SessionStatus(sessionID int) (*Status, error) {
	sess, err := s.findSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	names := make([]string, len(sess.Players))
	for i, p := range sess.Players {
		names[i] = p.Name
	}
	return &Status{
		State:      sess.State,
		AtQuestion: sess.AtQuestion,
		Players:    names,
		Metadata: StatusMetadata{
			QuizID:       sess.Quiz.QuizID,
			Name:         sess.Quiz.Name,
			Description:  sess.Quiz.Description,
			NumQuestions: len(sess.Quiz.Questions),
		},
	}, nil
}

// QuestionInfo is the player-facing view of a question, with correctness
// stripped.
type QuestionInfo struct {
	QuestionID int          `json:"questionId"`
	Question   string       `json:"question"`
	Duration   int          `json:"duration"`
	Points     int          `json:"points"`
	Answers    []AnswerInfo `json:"answers"`
}

// AnswerInfo is one selectable answer without its correct flag.
type AnswerInfo struct {
	AnswerID int    `json:"answerId"`
	Answer   string `json:"answer"`
}

// QuestionInfoFor returns the question the session is currently on, for a
// player in that session.
func (s *Service) QuestionInfoFor(playerID, questionPosition int) (*QuestionInfo, error) {
	sess, _, err := s.findPlayer(playerID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if questionPosition < 1 || questionPosition > len(sess.Quiz.Questions) {
		return nil, fmt.Errorf("%w: question position %d out of range", ErrValidation, questionPosition)
	}
	if sess.State == StateLobby || sess.State == StateEnd {
		return nil, fmt.Errorf("%w: no question is available in state %s", ErrState, sess.State)
	}
	if questionPosition != sess.AtQuestion {
		return nil, fmt.Errorf("%w: session is on question %d", ErrState, sess.AtQuestion)
	}

	question := sess.Quiz.Questions[questionPosition-1]
	info := &QuestionInfo{
		QuestionID: question.ID,
		Question:   question.Text,
		Duration:   question.Duration,
		Points:     question.Points,
		Answers:    make([]AnswerInfo, len(question.Answers)),
	}
	for i, a := range question.Answers {
		info.Answers[i] = AnswerInfo{AnswerID: a.ID, Answer: a.Text}
	}
	return info, nil
}

// QuestionResultsFor returns the aggregated results of an already-closed
// question. Only valid while the session shows answers.
func (s *Service) QuestionResultsFor(playerID, questionPosition int) (*QuestionResults, error) {
	sess, _, err := s.findPlayer(playerID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if questionPosition < 1 || questionPosition > len(sess.Quiz.Questions) {
		return nil, fmt.Errorf("%w: question position %d out of range", ErrValidation, questionPosition)
	}
	if sess.State != StateAnswerShow {
		return nil, fmt.Errorf("%w: results are only available in %s", ErrState, StateAnswerShow)
	}
	if questionPosition > sess.AtQuestion {
		return nil, fmt.Errorf("%w: session has not reached question %d", ErrValidation, questionPosition)
	}

	res := *sess.Results[questionPosition-1]
	return &res, nil
}

// FinalResults is the session-final payload.
type FinalResults struct {
	UsersRankedByScore []RankEntry       `json:"usersRankedByScore"`
	QuestionResults    []QuestionResults `json:"questionResults"`
}

// SessionFinalResults returns the final results for the admin. Only valid
// in FINAL_RESULTS.
func (s *Service) SessionFinalResults(sessionID int) (*FinalResults, error) {
	sess, err := s.findSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.finalResults(sess)
}

// PlayerFinalResults returns the final results for a player in the session.
func (s *Service) PlayerFinalResults(playerID int) (*FinalResults, error) {
	sess, _, err := s.findPlayer(playerID)
	if err != nil {
		return nil, err
	}
	return s.finalResults(sess)
}

func (s *Service) finalResults(sess *QuizSession) (*FinalResults, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.State != StateFinalResults {
		return nil, fmt.Errorf("%w: final results are only available in %s", ErrState, StateFinalResults)
	}

	out := &FinalResults{
		UsersRankedByScore: make([]RankEntry, len(sess.RankedByScore)),
		QuestionResults:    make([]QuestionResults, len(sess.Results)),
	}
	copy(out.UsersRankedByScore, sess.RankedByScore)
	for i, res := range sess.Results {
		out.QuestionResults[i] = *res
	}
	return out, nil
}

// ExportCSV renders one row per player (sorted by name) with their score
// and rank for every question. Both cells are empty for questions the
// player did not answer. Only valid in FINAL_RESULTS.
func (s *Service) ExportCSV(sessionID int) (string, error) {
	sess, err := s.findSession(sessionID)
	if err != nil {
		return "", err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.State != StateFinalResults {
		return "", fmt.Errorf("%w: CSV export is only available in %s", ErrState, StateFinalResults)
	}

	header := []string{"Player"}
	for i := range sess.Quiz.Questions {
		header = append(header,
			fmt.Sprintf("question%dscore", i+1),
			fmt.Sprintf("question%drank", i+1),
		)
	}

	players := make([]*Player, len(sess.Players))
	copy(players, sess.Players)
	sort.Slice(players, func(i, j int) bool { return players[i].Name < players[j].Name })

	var buf strings.Builder
	writer := csv.NewWriter(&buf)
	if err := writer.Write(header); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}

	for _, player := range players {
		row := []string{player.Name}
		for _, res := range sess.Results {
			score, rank, answered := playerQuestionStanding(res, player.ID)
			if !answered {
				row = append(row, "", "")
				continue
			}
			row = append(row,
				strconv.FormatFloat(score, 'f', -1, 64),
				strconv.Itoa(rank),
			)
		}
		if err := writer.Write(row); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return buf.String(), nil
}

// playerQuestionStanding reports a player's score and 1-based rank within
// one question's ranking, and whether they answered it at all.
func playerQuestionStanding(res *QuestionResults, playerID int) (float64, int, bool) {
	answered := false
	for _, rec := range res.PlayersAnswered {
		if rec.PlayerID == playerID {
			answered = true
			break
		}
	}
	if !answered {
		return 0, 0, false
	}
	for i, entry := range res.QuestionRanking {
		if entry.PlayerID == playerID {
			return entry.Score, i + 1, true
		}
	}
	return 0, 0, false
}
