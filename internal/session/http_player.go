package session

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	httperrors "github.com/toohak/toohak/pkg/http/errors"
	"github.com/toohak/toohak/pkg/http/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// JoinSession handles POST /v1/player/join.
func (h *HTTPHandlers) JoinSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID int    `json:"sessionId"`
		Name      string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	playerID, err := h.service.Join(req.SessionID, req.Name)
	if err != nil {
		h.respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"playerId": playerID})
}

// PlayerStatus handles GET /v1/player/{playerid}.
func (h *HTTPHandlers) PlayerStatus(w http.ResponseWriter, r *http.Request) {
	playerID, ok := pathInt(w, r, "playerid")
	if !ok {
		return
	}
	status, err := h.service.Status(playerID)
	if err != nil {
		h.respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// PlayerQuestionInfo handles GET /v1/player/{playerid}/question/{questionposition}.
func (h *HTTPHandlers) PlayerQuestionInfo(w http.ResponseWriter, r *http.Request) {
	playerID, ok := pathInt(w, r, "playerid")
	if !ok {
		return
	}
	position, ok := pathInt(w, r, "questionposition")
	if !ok {
		return
	}
	info, err := h.service.QuestionInfoFor(playerID, position)
	if err != nil {
		h.respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

// PlayerSubmitAnswer handles PUT /v1/player/{playerid}/question/{questionposition}/answer.
func (h *HTTPHandlers) PlayerSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	playerID, ok := pathInt(w, r, "playerid")
	if !ok {
		return
	}
	position, ok := pathInt(w, r, "questionposition")
	if !ok {
		return
	}

	var req struct {
		AnswerIDs []int `json:"answerIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	if err := h.service.SubmitAnswer(playerID, position, req.AnswerIDs); err != nil {
		h.respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, struct{}{})
}

// PlayerQuestionResults handles GET /v1/player/{playerid}/question/{questionposition}/results.
func (h *HTTPHandlers) PlayerQuestionResults(w http.ResponseWriter, r *http.Request) {
	playerID, ok := pathInt(w, r, "playerid")
	if !ok {
		return
	}
	position, ok := pathInt(w, r, "questionposition")
	if !ok {
		return
	}
	results, err := h.service.QuestionResultsFor(playerID, position)
	if err != nil {
		h.respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, results)
}

// PlayerFinalResults handles GET /v1/player/{playerid}/results.
func (h *HTTPHandlers) PlayerFinalResults(w http.ResponseWriter, r *http.Request) {
	playerID, ok := pathInt(w, r, "playerid")
	if !ok {
		return
	}
	results, err := h.service.PlayerFinalResults(playerID)
	if err != nil {
		h.respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, results)
}

// PlayerSendChat handles POST /v1/player/{playerid}/chat.
func (h *HTTPHandlers) PlayerSendChat(w http.ResponseWriter, r *http.Request) {
	playerID, ok := pathInt(w, r, "playerid")
	if !ok {
		return
	}

	var req struct {
		Message struct {
			MessageBody string `json:"messageBody"`
		} `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	if err := h.service.SendMessage(playerID, req.Message.MessageBody); err != nil {
		h.respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, struct{}{})
}

// PlayerViewChat handles GET /v1/player/{playerid}/chat.
func (h *HTTPHandlers) PlayerViewChat(w http.ResponseWriter, r *http.Request) {
	playerID, ok := pathInt(w, r, "playerid")
	if !ok {
		return
	}
	messages, err := h.service.ViewMessages(playerID)
	if err != nil {
		h.respondSessionError(w, err)
		return
	}

	payload := make([]map[string]any, len(messages))
	for i, msg := range messages {
		payload[i] = map[string]any{
			"messageBody": msg.Body,
			"playerId":    msg.PlayerID,
			"playerName":  msg.PlayerName,
			"timeSent":    msg.TimeSent,
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"messages": payload})
}

// PlayerWatch handles GET /v1/player/{playerid}/ws. It upgrades the
// connection and streams session state and chat events until the client
// disconnects.
func (h *HTTPHandlers) PlayerWatch(w http.ResponseWriter, r *http.Request) {
	playerID, ok := pathInt(w, r, "playerid")
	if !ok {
		return
	}
	sess, _, err := h.service.findPlayer(playerID)
	if err != nil {
		h.respondSessionError(w, err)
		return
	}

	sess.mu.Lock()
	initial := ws.SessionStatePayload{
		SessionID:  sess.ID,
		State:      string(sess.State),
		AtQuestion: sess.AtQuestion,
	}
	sess.mu.Unlock()

	raw, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Int("player_id", playerID).Msg("websocket upgrade failed")
		return
	}

	conn := ws.NewConnection(raw, h.logger.With().Int("player_id", playerID).Logger())
	h.hub.Register(playerID, conn)

	// Prime the stream with the current state so clients never have to poll
	// after connecting.
	conn.Send(ws.NewMessage(ws.TypeSessionState, initial))

	go conn.WritePump()
	conn.ReadPump()
	h.hub.Unregister(playerID)
}
