package session

import (
	"fmt"
	"math/rand"
)

// Join adds a guest player to a session still in the lobby. An empty
// requestedName gets a generated one: 5 distinct lowercase letters
// followed by 3 distinct digits, regenerated on collision. Reaching
// autoStartNum players triggers the first question automatically.
func (s *Service) Join(sessionID int, requestedName string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return 0, fmt.Errorf("%w: session %d", ErrNotFound, sessionID)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.State != StateLobby {
		return 0, fmt.Errorf("%w: session is not in the lobby", ErrState)
	}

	name := requestedName
	if name == "" {
		name = generatePlayerName()
		for sess.hasName(name) {
			name = generatePlayerName()
		}
	} else if sess.hasName(name) {
		return 0, fmt.Errorf("%w: %q", ErrNameTaken, name)
	}

	player := &Player{ID: s.newPlayerIDLocked(), Name: name}
	sess.Players = append(sess.Players, player)
	sess.RankedByScore = append(sess.RankedByScore, RankEntry{PlayerID: player.ID, Name: name})
	s.players[player.ID] = sess

	s.logger.Info().
		Int("session_id", sessionID).
		Int("player_id", player.ID).
		Str("name", name).
		Msg("player joined")

	if sess.AutoStartNum > 0 && len(sess.Players) == sess.AutoStartNum {
		// Same effect as an admin NEXT_QUESTION; the session is in LOBBY so
		// the transition cannot fail.
		if err := s.applyLocked(sess, ActionNextQuestion); err != nil {
			s.logger.Error().Err(err).Int("session_id", sessionID).Msg("auto-start failed")
		}
	}

	return player.ID, nil
}

// PlayerStatus is the player-facing view of session progress.
type PlayerStatus struct {
	State        State `json:"state"`
	NumQuestions int   `json:"numQuestions"`
	AtQuestion   int   `json:"atQuestion"`
}

// Status returns the player's view of their session.
func (s *Service) Status(playerID int) (*PlayerStatus, error) {
	sess, _, err := s.findPlayer(playerID)
	if err != nil {
		return nil, err
	}
	// findPlayer released the session lock; re-read under it.
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return &PlayerStatus{
		State:        sess.State,
		NumQuestions: len(sess.Quiz.Questions),
		AtQuestion:   sess.AtQuestion,
	}, nil
}

const (
	nameLetters = "abcdefghijklmnopqrstuvwxyz"
	nameDigits  = "0123456789"
)

// generatePlayerName builds a name from 5 distinct letters and 3 distinct
// digits.
func generatePlayerName() string {
	letters := []byte(nameLetters)
	digits := []byte(nameDigits)
	rand.Shuffle(len(letters), func(i, j int) { letters[i], letters[j] = letters[j], letters[i] })
	rand.Shuffle(len(digits), func(i, j int) { digits[i], digits[j] = digits[j], digits[i] })
	return string(letters[:5]) + string(digits[:3])
}
