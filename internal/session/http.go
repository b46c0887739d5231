package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/toohak/toohak/internal/auth"
	"github.com/toohak/toohak/internal/quiz"
	httperrors "github.com/toohak/toohak/pkg/http/errors"
	"github.com/toohak/toohak/pkg/http/ws"
)

// TokenValidator resolves admin session tokens to claims.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*auth.Claims, error)
}

// QuizResolver provides owned-quiz read access for session start and
// admin-scoped session routes.
type QuizResolver interface {
	OwnedSnapshot(ctx context.Context, ownerID, quizID int) (quiz.Snapshot, error)
	Owned(ctx context.Context, ownerID, quizID int) error
}

// HTTPHandlers provides REST endpoints for session operations.
type HTTPHandlers struct {
	service *Service
	quizzes QuizResolver
	tokens  TokenValidator
	hub     *ws.Hub
	logger  zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for admin and player endpoints.
func NewHTTPHandlers(service *Service, quizzes QuizResolver, tokens TokenValidator, hub *ws.Hub, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		service: service,
		quizzes: quizzes,
		tokens:  tokens,
		hub:     hub,
		logger:  logger.With().Str("component", "session_http").Logger(),
	}
}

// StartSession handles POST /v1/admin/quiz/{quizid}/session/start.
func (h *HTTPHandlers) StartSession(w http.ResponseWriter, r *http.Request) {
	quizID, ok := pathInt(w, r, "quizid")
	if !ok {
		return
	}
	userID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req struct {
		AutoStartNum int `json:"autoStartNum"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	snap, err := h.quizzes.OwnedSnapshot(r.Context(), userID, quizID)
	if err != nil {
		h.respondQuizError(w, err)
		return
	}

	sessionID, err := h.service.CreateSession(snap, req.AutoStartNum)
	if err != nil {
		h.respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"sessionId": sessionID})
}

// ListSessions handles GET /v1/admin/quiz/{quizid}/sessions.
func (h *HTTPHandlers) ListSessions(w http.ResponseWriter, r *http.Request) {
	quizID, ok := pathInt(w, r, "quizid")
	if !ok {
		return
	}
	userID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	if err := h.quizzes.Owned(r.Context(), userID, quizID); err != nil {
		h.respondQuizError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.service.ListSessions(quizID))
}

// UpdateSessionState handles PUT /v1/admin/quiz/{quizid}/session/{sessionid}.
func (h *HTTPHandlers) UpdateSessionState(w http.ResponseWriter, r *http.Request) {
	quizID, ok := pathInt(w, r, "quizid")
	if !ok {
		return
	}
	sessionID, ok := pathInt(w, r, "sessionid")
	if !ok {
		return
	}
	userID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	if err := h.quizzes.Owned(r.Context(), userID, quizID); err != nil {
		h.respondQuizError(w, err)
		return
	}

	var req struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	if err := h.service.ApplyAction(sessionID, Action(req.Action)); err != nil {
		h.respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, struct{}{})
}

// GetSessionStatus handles GET /v1/admin/quiz/{quizid}/session/{sessionid}.
func (h *HTTPHandlers) GetSessionStatus(w http.ResponseWriter, r *http.Request) {
	quizID, ok := pathInt(w, r, "quizid")
	if !ok {
		return
	}
	sessionID, ok := pathInt(w, r, "sessionid")
	if !ok {
		return
	}
	userID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	if err := h.quizzes.Owned(r.Context(), userID, quizID); err != nil {
		h.respondQuizError(w, err)
		return
	}

	status, err := h.service.SessionStatus(sessionID)
	if err != nil {
		h.respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// GetFinalResults handles GET /v1/admin/quiz/{quizid}/session/{sessionid}/results.
func (h *HTTPHandlers) GetFinalResults(w http.ResponseWriter, r *http.Request) {
	quizID, ok := pathInt(w, r, "quizid")
	if !ok {
		return
	}
	sessionID, ok := pathInt(w, r, "sessionid")
	if !ok {
		return
	}
	userID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	if err := h.quizzes.Owned(r.Context(), userID, quizID); err != nil {
		h.respondQuizError(w, err)
		return
	}

	results, err := h.service.SessionFinalResults(sessionID)
	if err != nil {
		h.respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, results)
}

// GetFinalResultsCSV handles GET /v1/admin/quiz/{quizid}/session/{sessionid}/results/csv.
func (h *HTTPHandlers) GetFinalResultsCSV(w http.ResponseWriter, r *http.Request) {
	quizID, ok := pathInt(w, r, "quizid")
	if !ok {
		return
	}
	sessionID, ok := pathInt(w, r, "sessionid")
	if !ok {
		return
	}
	userID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	if err := h.quizzes.Owned(r.Context(), userID, quizID); err != nil {
		h.respondQuizError(w, err)
		return
	}

	csvData, err := h.service.ExportCSV(sessionID)
	if err != nil {
		h.respondSessionError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(csvData))
}

// authorize validates the bearer token and returns the caller's user id.
func (h *HTTPHandlers) authorize(w http.ResponseWriter, r *http.Request) (int, bool) {
	token := auth.BearerToken(r)
	if token == "" {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authorization header required")
		return 0, false
	}
	claims, err := h.tokens.Validate(r.Context(), token)
	if err != nil {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid session token")
		return 0, false
	}
	return claims.UserID, true
}

func (h *HTTPHandlers) respondQuizError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quiz.ErrNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeQuizNotFound, "Quiz does not exist")
	case errors.Is(err, quiz.ErrOwnership):
		httperrors.RespondForbidden(w, httperrors.ErrCodeNotQuizOwner, "Quiz is not owned by the caller")
	default:
		h.logger.Error().Err(err).Msg("quiz lookup failed")
		httperrors.RespondInternalError(w, "Internal error")
	}
}

func (h *HTTPHandlers) respondSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, err.Error())
	case errors.Is(err, ErrValidation):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeValidationFailed, err.Error())
	case errors.Is(err, ErrState):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidState, err.Error())
	case errors.Is(err, ErrInvalidAction):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidAction, err.Error())
	case errors.Is(err, ErrUnknownAction):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeUnknownAction, err.Error())
	case errors.Is(err, ErrNameTaken):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeNameTaken, err.Error())
	case errors.Is(err, ErrLimit):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeSessionLimit, err.Error())
	default:
		h.logger.Error().Err(err).Msg("session request failed")
		httperrors.RespondInternalError(w, "Internal error")
	}
}

// pathInt parses an integer path segment, writing a 400 on failure.
func pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	value, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidRequest, "Invalid path parameter", name)
		return 0, false
	}
	return value, true
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
