package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/toohak/toohak/internal/auth"
	httperrors "github.com/toohak/toohak/pkg/http/errors"
)

// TokenValidator resolves admin session tokens to claims.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*auth.Claims, error)
}

// HTTPHandlers provides REST endpoints for quiz authoring.
type HTTPHandlers struct {
	service *Service
	tokens  TokenValidator
	logger  zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for quiz endpoints.
func NewHTTPHandlers(service *Service, tokens TokenValidator, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		service: service,
		tokens:  tokens,
		logger:  logger.With().Str("component", "quiz_http").Logger(),
	}
}

// CreateQuizRequest is the POST /v1/admin/quiz payload.
type CreateQuizRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create handles POST /v1/admin/quiz.
func (h *HTTPHandlers) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req CreateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if req.Name == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "Quiz name required", "name")
		return
	}

	quizID, err := h.service.Create(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		h.respondQuizError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"quizId": quizID})
}

// AddQuestion handles POST /v1/admin/quiz/{quizid}/question.
func (h *HTTPHandlers) AddQuestion(w http.ResponseWriter, r *http.Request) {
	quizID, ok := h.pathInt(w, r, "quizid")
	if !ok {
		return
	}
	userID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req struct {
		Question QuestionInput `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	questionID, err := h.service.AddQuestion(r.Context(), userID, quizID, req.Question)
	if err != nil {
		h.respondQuizError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"questionId": questionID})
}

// Trash handles DELETE /v1/admin/quiz/{quizid}.
func (h *HTTPHandlers) Trash(w http.ResponseWriter, r *http.Request) {
	quizID, ok := h.pathInt(w, r, "quizid")
	if !ok {
		return
	}
	userID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	if err := h.service.Trash(r.Context(), userID, quizID); err != nil {
		h.respondQuizError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, struct{}{})
}

// Restore handles POST /v1/admin/quiz/{quizid}/restore.
func (h *HTTPHandlers) Restore(w http.ResponseWriter, r *http.Request) {
	quizID, ok := h.pathInt(w, r, "quizid")
	if !ok {
		return
	}
	userID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	if err := h.service.Restore(r.Context(), userID, quizID); err != nil {
		h.respondQuizError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, struct{}{})
}

// Info handles GET /v1/admin/quiz/{quizid}.
func (h *HTTPHandlers) Info(w http.ResponseWriter, r *http.Request) {
	quizID, ok := h.pathInt(w, r, "quizid")
	if !ok {
		return
	}
	userID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	snap, err := h.service.OwnedSnapshot(r.Context(), userID, quizID)
	if err != nil {
		h.respondQuizError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

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
	case errors.Is(err, ErrNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeQuizNotFound, "Quiz does not exist")
	case errors.Is(err, ErrOwnership):
		httperrors.RespondForbidden(w, httperrors.ErrCodeNotQuizOwner, "Quiz is not owned by the caller")
	case errors.Is(err, ErrValidation):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeValidationFailed, err.Error())
	default:
		h.logger.Error().Err(err).Msg("quiz request failed")
		httperrors.RespondInternalError(w, "Internal error")
	}
}

func (h *HTTPHandlers) pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
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
