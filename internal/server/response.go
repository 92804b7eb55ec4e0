package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"tasker/internal/auth"
	"tasker/internal/constants"
	"tasker/internal/services"
)

// APIError represents a standard error response
type APIError struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// idResponse is the body of 201 responses.
type idResponse struct {
	ID int64 `json:"id"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// WriteError writes a standard error response
func WriteError(w http.ResponseWriter, status int, message string, code string) {
	WriteJSON(w, status, APIError{
		Error:   true,
		Message: message,
		Code:    code,
	})
}

// WriteSuccess writes a simple success response
func WriteSuccess(w http.ResponseWriter, data interface{}) {
	WriteJSON(w, http.StatusOK, data)
}

// WriteCreated writes a 201 with the public id of the new resource.
func WriteCreated(w http.ResponseWriter, id int64) {
	WriteJSON(w, http.StatusCreated, idResponse{ID: id})
}

// statusForCode maps a service error code to its HTTP status.
func statusForCode(code string) int {
	switch code {
	case constants.ErrCodeAuthInvalid:
		return http.StatusForbidden
	case constants.ErrCodeNotFound:
		return http.StatusNotFound
	case constants.ErrCodeForbidden:
		// Insufficient role on an existing resource.
		return http.StatusMethodNotAllowed
	case constants.ErrCodeInvalidRequest, constants.ErrCodeMissingParam, constants.ErrCodeInvalidTimestamp,
		constants.ErrCodeUsernameInvalid, constants.ErrCodePasswordInvalid, constants.ErrCodeRoleInvalid:
		return http.StatusBadRequest
	case constants.ErrCodeUserExists:
		return http.StatusConflict
	case constants.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// handleServiceError maps service and auth errors to HTTP responses.
// Internal errors are logged with the request id and answered with a
// generic message.
func (s *Server) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, auth.ErrUnauthenticated) {
		WriteError(w, http.StatusForbidden, constants.AuthInvalidTokensMessage, constants.ErrCodeAuthInvalid)
		return
	}

	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		status := statusForCode(svcErr.Code)
		if status == http.StatusInternalServerError {
			s.logInternal(r, err)
			WriteError(w, status, constants.MsgInternalError, constants.ErrCodeInternalError)
			return
		}
		WriteError(w, status, svcErr.Message, svcErr.Code)
		return
	}

	switch {
	case errors.Is(err, auth.ErrNotFound):
		WriteError(w, http.StatusNotFound, constants.MsgNotFound, constants.ErrCodeNotFound)
	case errors.Is(err, auth.ErrForbidden):
		WriteError(w, http.StatusMethodNotAllowed, constants.MsgForbidden, constants.ErrCodeForbidden)
	default:
		s.logInternal(r, err)
		WriteError(w, http.StatusInternalServerError, constants.MsgInternalError, constants.ErrCodeInternalError)
	}
}

func (s *Server) logInternal(r *http.Request, err error) {
	s.logger.Error("HTTP: %s %s req=%s: %v", r.Method, r.URL.Path, requestIDFrom(r.Context()), err)
}
