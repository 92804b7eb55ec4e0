package constants

// API Error Codes
const (
	ErrCodeAuthInvalid      = "AUTH_INVALID"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeMissingParam     = "MISSING_PARAM"
	ErrCodeInvalidTimestamp = "INVALID_TIMESTAMP"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeRateLimited      = "RATE_LIMITED"

	// User management
	ErrCodeUserExists      = "USER_EXISTS"
	ErrCodeUsernameInvalid = "USERNAME_INVALID"
	ErrCodePasswordInvalid = "PASSWORD_INVALID"
	ErrCodeRoleInvalid     = "ROLE_INVALID"
)

// Generic messages that never carry internal detail.
const (
	MsgInternalError = "internal server error"
	MsgNotFound      = "not found"
	MsgForbidden     = "forbidden"
	MsgRateLimited   = "too many requests"
)
