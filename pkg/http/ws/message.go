package ws

import "encoding/json"

// MessageType constants for the session event protocol.
const (
	// Server -> Client
	TypeSessionState = "session_state"
	TypeChatMessage  = "chat_message"
	TypeError        = "error"

	// Client -> Server
	TypePing = "ping"
	TypePong = "pong"
)

// Message wraps all WebSocket payloads with a type tag.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SessionStatePayload is pushed on every session state transition.
type SessionStatePayload struct {
	SessionID  int    `json:"sessionId"`
	State      string `json:"state"`
	AtQuestion int    `json:"atQuestion"`
}

// ChatMessagePayload is pushed when a player sends a chat message.
type ChatMessagePayload struct {
	SessionID   int    `json:"sessionId"`
	PlayerID    int    `json:"playerId"`
	PlayerName  string `json:"playerName"`
	MessageBody string `json:"messageBody"`
	TimeSent    int64  `json:"timeSent"`
}

// ErrorPayload reports a protocol-level error to the client.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewMessage marshals payload into a typed Message. Marshal errors are
// impossible for the fixed payload structs above, so they are swallowed.
func NewMessage(msgType string, payload any) Message {
	raw, _ := json.Marshal(payload)
	return Message{Type: msgType, Payload: raw}
}
