package services

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"tasker/internal/auth"
	"tasker/internal/constants"
)

// ServiceError represents a service-level error with an error code
type ServiceError struct {
	Code    string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new service error
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{Code: code, Message: message}
}

// WrapServiceError wraps an existing error with a service error
func WrapServiceError(code, message string, err error) *ServiceError {
	return &ServiceError{Code: code, Message: message, Err: err}
}

// IsServiceError checks if an error is a ServiceError and returns its code
func IsServiceError(err error) (string, bool) {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Code, true
	}
	return "", false
}

// Pre-defined service errors for common cases. ErrNotFound and ErrForbidden
// wrap the auth sentinels so errors.Is matches either.
var (
	ErrNotFound  = WrapServiceError(constants.ErrCodeNotFound, constants.MsgNotFound, auth.ErrNotFound)
	ErrForbidden = WrapServiceError(constants.ErrCodeForbidden, constants.MsgForbidden, auth.ErrForbidden)

	// User management errors
	ErrUserExists     = NewServiceError(constants.ErrCodeUserExists, "user already exists")
	ErrUserNotFound   = WrapServiceError(constants.ErrCodeNotFound, "user not found", auth.ErrNotFound)
	ErrNothingToApply = NewServiceError(constants.ErrCodeInvalidRequest, "nothing to change")

	// Internal errors
	ErrInternal = NewServiceError(constants.ErrCodeInternalError, constants.MsgInternalError)
)

func ErrMissingParamWithName(name string) *ServiceError {
	return &ServiceError{
		Code:    constants.ErrCodeMissingParam,
		Message: fmt.Sprintf("required parameter missing: %s", name),
	}
}

func ErrInvalidParam(name, reason string) *ServiceError {
	return &ServiceError{
		Code:    constants.ErrCodeInvalidRequest,
		Message: fmt.Sprintf("invalid %s: %s", name, reason),
	}
}

func ErrInvalidTimestamp(name string) *ServiceError {
	return &ServiceError{
		Code:    constants.ErrCodeInvalidTimestamp,
		Message: fmt.Sprintf("%s must be a unix timestamp in seconds", name),
	}
}

// Wrap internal errors
func WrapInternalError(err error) *ServiceError {
	return WrapServiceError(constants.ErrCodeInternalError, constants.MsgInternalError, err)
}

// fromValidation converts the first validator failure into a 400 error.
// Anything that is not a validation error is returned as internal.
func fromValidation(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return WrapInternalError(err)
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return ErrMissingParamWithName(fe.Field())
	case "username":
		return NewServiceError(constants.ErrCodeUsernameInvalid,
			fmt.Sprintf("username must match pattern: %s", constants.AuthUsernameRegex))
	case "max":
		return ErrInvalidParam(fe.Field(), "must be at most "+fe.Param()+" characters")
	case "min":
		if fe.Field() == constants.ParamPassword {
			return NewServiceError(constants.ErrCodePasswordInvalid,
				fmt.Sprintf("password must be at least %d characters", constants.AuthMinPasswordLength))
		}
		return ErrInvalidParam(fe.Field(), "must be at least "+fe.Param())
	default:
		return ErrInvalidParam(fe.Field(), "failed "+fe.Tag()+" check")
	}
}

// mapStoreError turns store sentinels into service errors and wraps the rest.
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, auth.ErrNotFound):
		return ErrNotFound
	default:
		return WrapInternalError(err)
	}
}
