package response

// ErrCode is a typed error code enum for consistent API error
// identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Session-specific ──────────────────────────────────────────────
	ErrInvalidConfiguration ErrCode = "INVALID_CONFIGURATION"
	ErrNoQuestionsAvailable ErrCode = "NO_QUESTIONS_AVAILABLE"
	ErrSessionFinished      ErrCode = "SESSION_FINISHED"
	ErrSessionNotStarted    ErrCode = "SESSION_NOT_STARTED"
	ErrNoActiveSession      ErrCode = "NO_ACTIVE_SESSION"

	// ─── Persistence ───────────────────────────────────────────────────
	ErrStoreUnavailable ErrCode = "STORE_UNAVAILABLE"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid identifier format."
	case ErrInvalidPayload:
		return "The request payload is invalid."
	case ErrNotFound:
		return "Resource not found."
	case ErrInvalidConfiguration:
		return "The exam configuration is missing required fields."
	case ErrNoQuestionsAvailable:
		return "No questions are available for this configuration."
	case ErrSessionFinished:
		return "This exam session is finished; start a new one."
	case ErrSessionNotStarted:
		return "This exam session has not been started yet."
	case ErrNoActiveSession:
		return "You have no active exam session."
	case ErrStoreUnavailable:
		return "Persistent storage is currently unavailable."
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
