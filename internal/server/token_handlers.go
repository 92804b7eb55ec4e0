package server

import (
	"errors"
	"net/http"

	"tasker/internal/auth"
	"tasker/internal/constants"
)

// =============================================================================
// Token Endpoints (no token required)
// =============================================================================

// POST /api/tokens/new: Exchange username and password for a token set
func (s *Server) handleTokensNew(w http.ResponseWriter, r *http.Request) {
	if err := parseParams(r); err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	username, err := requiredParam(r, constants.ParamUsername)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	password, err := requiredParam(r, constants.ParamPassword)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}

	set, err := s.app.Tokens.Authenticate(r.Context(), username, password)
	if errors.Is(err, auth.ErrUnauthenticated) {
		WriteError(w, http.StatusForbidden, constants.AuthInvalidCredentialsMessage, constants.ErrCodeAuthInvalid)
		return
	}
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteSuccess(w, set)
}

// POST /api/tokens/renew: Replace a token set with a fresh one
//
// Missing parameters are reported exactly like wrong ones.
func (s *Server) handleTokensRenew(w http.ResponseWriter, r *http.Request) {
	if err := parseParams(r); err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	set, err := s.app.Tokens.Renew(r.Context(),
		r.Form.Get(constants.ParamTokenSelect),
		r.Form.Get(constants.ParamTokenVerify),
		r.Form.Get(constants.ParamTokenRenew),
	)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteSuccess(w, set)
}

// POST /api/tokens/revoke: Delete the token set (logout)
func (s *Server) handleTokensRevoke(w http.ResponseWriter, r *http.Request) {
	if err := parseParams(r); err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	err := s.app.Tokens.Revoke(r.Context(),
		r.Form.Get(constants.ParamTokenSelect),
		r.Form.Get(constants.ParamTokenVerify),
	)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
