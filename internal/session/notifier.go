package session

import "github.com/toohak/toohak/pkg/http/ws"

// EventPusher forwards session events to connected players over the
// WebSocket hub.
type EventPusher struct {
	hub *ws.Hub
}

// NewEventPusher wraps a hub as a session Notifier.
func NewEventPusher(hub *ws.Hub) *EventPusher {
	return &EventPusher{hub: hub}
}

// StateChanged pushes the new session state to every player in the session.
func (p *EventPusher) StateChanged(sessionID int, playerIDs []int, state State, atQuestion int) {
	p.hub.Broadcast(playerIDs, ws.NewMessage(ws.TypeSessionState, ws.SessionStatePayload{
		SessionID:  sessionID,
		State:      string(state),
		AtQuestion: atQuestion,
	}))
}

// ChatMessage pushes a chat message to every player in the session.
func (p *EventPusher) ChatMessage(sessionID int, playerIDs []int, msg Message) {
	p.hub.Broadcast(playerIDs, ws.NewMessage(ws.TypeChatMessage, ws.ChatMessagePayload{
		SessionID:   sessionID,
		PlayerID:    msg.PlayerID,
		PlayerName:  msg.PlayerName,
		MessageBody: msg.Body,
		TimeSent:    msg.TimeSent,
	}))
}
