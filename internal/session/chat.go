package session

import "fmt"

const (
	minMessageLen = 1
	maxMessageLen = 100
)

// SendMessage appends a chat message to the player's session.
func (s *Service) SendMessage(playerID int, body string) error {
	sess, player, err := s.findPlayer(playerID)
	if err != nil {
		return err
	}
	if len(body) < minMessageLen || len(body) > maxMessageLen {
		return fmt.Errorf("%w: message must be between %d and %d characters", ErrValidation, minMessageLen, maxMessageLen)
	}

	sess.mu.Lock()
	msg := Message{
		Body:       body,
		PlayerID:   player.ID,
		PlayerName: player.Name,
		TimeSent:   s.clock.Now().Unix(),
	}
	sess.Messages = append(sess.Messages, msg)
	playerIDs := sess.playerIDsLocked()
	sessionID := sess.ID
	sess.mu.Unlock()

	if s.notifier != nil {
		s.notifier.ChatMessage(sessionID, playerIDs, msg)
	}
	return nil
}

// ViewMessages returns the full ordered chat log of the player's session.
func (s *Service) ViewMessages(playerID int) ([]Message, error) {
	sess, _, err := s.findPlayer(playerID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]Message, len(sess.Messages))
	copy(out, sess.Messages)
	return out, nil
}
