package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication / Authorization ────────────────────────────────
	ErrTokenRequired         ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid          ErrCode = "TOKEN_INVALID"
	ErrParticipantAccessOnly ErrCode = "PARTICIPANT_ACCESS_ONLY"
	ErrAdminAccessOnly       ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation       ErrCode = "VALIDATION_ERROR"
	ErrInvalidID        ErrCode = "INVALID_ID"
	ErrInvalidSelection ErrCode = "INVALID_SELECTION"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Session conflicts ─────────────────────────────────────────────
	ErrAlreadySubmitted ErrCode = "ALREADY_SUBMITTED"
	ErrExamExpired      ErrCode = "EXAM_EXPIRED"
	ErrAlreadyTaken     ErrCode = "ALREADY_TAKEN"
	ErrExamNotOpen      ErrCode = "EXAM_NOT_OPEN"
	ErrNoActiveSession  ErrCode = "NO_ACTIVE_SESSION"

	// ─── Server ────────────────────────────────────────────────────────
	ErrStorage  ErrCode = "STORAGE_ERROR"
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid or expired."
	case ErrParticipantAccessOnly:
		return "This resource is restricted to participants."
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators."
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid identifier format."
	case ErrInvalidSelection:
		return "The answer payload does not match the question type."
	case ErrNotFound:
		return "Resource not found."
	case ErrAlreadySubmitted:
		return "You have already submitted this exam."
	case ErrExamExpired:
		return "Exam time has expired. You cannot restart."
	case ErrAlreadyTaken:
		return "You have already taken this exam."
	case ErrExamNotOpen:
		return "This exam is not open right now."
	case ErrNoActiveSession:
		return "No active exam session."
	case ErrStorage:
		return "A storage error occurred. Please retry."
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
