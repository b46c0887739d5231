package errors

// Error codes for standardized error responses.
const (
	// Authentication errors
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeForbidden              = "forbidden"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeAuthenticationRequired = "authentication_required"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"

	// Resource errors
	ErrCodeNotFound      = "not_found"
	ErrCodeAlreadyExists = "already_exists"

	// Account errors
	ErrCodeRegistrationFailed = "registration_failed"
	ErrCodeLoginFailed        = "login_failed"
	ErrCodeEmailTaken         = "email_taken"

	// Quiz errors
	ErrCodeQuizNotFound = "quiz_not_found"
	ErrCodeNotQuizOwner = "not_quiz_owner"
	ErrCodeQuizTrashed  = "quiz_trashed"

	// Session errors
	ErrCodeSessionLimit  = "session_limit_reached"
	ErrCodeInvalidState  = "invalid_session_state"
	ErrCodeInvalidAction = "invalid_action"
	ErrCodeUnknownAction = "unknown_action"

	// Player errors
	ErrCodePlayerNotFound = "player_not_found"
	ErrCodeNameTaken      = "name_taken"

	// Server errors
	ErrCodeInternalError = "internal_error"
)
