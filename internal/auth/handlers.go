package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	httperrors "github.com/toohak/toohak/pkg/http/errors"
)

// RegisterRequest is the POST /v1/auth/register payload.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest is the POST /v1/auth/login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a fresh session token.
type TokenResponse struct {
	UserID int    `json:"userId"`
	Token  string `json:"token"`
}

// HTTPHandlers provides REST endpoints for auth operations.
type HTTPHandlers struct {
	service *Service
	logger  zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for auth endpoints.
func NewHTTPHandlers(service *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		service: service,
		logger:  logger.With().Str("component", "auth_http").Logger(),
	}
}

// Register handles POST /v1/auth/register.
func (h *HTTPHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	userID, token, err := h.service.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.respondAuthError(w, err, httperrors.ErrCodeRegistrationFailed)
		return
	}
	respondJSON(w, http.StatusOK, TokenResponse{UserID: userID, Token: token})
}

// Login handles POST /v1/auth/login.
func (h *HTTPHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	userID, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondAuthError(w, err, httperrors.ErrCodeLoginFailed)
		return
	}
	respondJSON(w, http.StatusOK, TokenResponse{UserID: userID, Token: token})
}

// Logout handles POST /v1/auth/logout.
func (h *HTTPHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	token := BearerToken(r)
	if token == "" {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authorization header required")
		return
	}
	if err := h.service.Logout(r.Context(), token); err != nil {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid session token")
		return
	}
	respondJSON(w, http.StatusOK, struct{}{})
}

func (h *HTTPHandlers) respondAuthError(w http.ResponseWriter, err error, fallbackCode string) {
	switch {
	case errors.Is(err, ErrEmailTaken):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeEmailTaken, "Email is already registered")
	case errors.Is(err, ErrPasswordTooShort):
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, err.Error(), "password")
	case errors.Is(err, ErrInvalidCredentials):
		httperrors.RespondBadRequest(w, fallbackCode, "Invalid email or password")
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrTokenRevoked):
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid session token")
	default:
		h.logger.Error().Err(err).Msg("auth request failed")
		httperrors.RespondInternalError(w, "Internal error")
	}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
