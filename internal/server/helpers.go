package server

import (
	"fmt"
	"net/http"
	"strings"

	"tasker/internal/auth"
	"tasker/internal/services"
)

// getClientIP extracts the client IP address from the request
// It checks proxy headers first, then falls back to RemoteAddr
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first (reverse proxy)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Take the first IP in the chain (original client)
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Fall back to RemoteAddr
	ip := r.RemoteAddr
	// Remove port if present
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// parseParams parses the query string and a urlencoded body into r.Form.
func parseParams(r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return services.ErrInvalidParam("request body", "not a valid form encoding")
	}
	return nil
}

// optionalParam returns nil when name is absent, and a pointer to the first
// value otherwise (which may be empty).
func optionalParam(r *http.Request, name string) *string {
	vals, ok := r.Form[name]
	if !ok || len(vals) == 0 {
		return nil
	}
	v := vals[0]
	return &v
}

// requiredParam returns MISSING_PARAM when name is absent or empty.
func requiredParam(r *http.Request, name string) (string, error) {
	v := r.Form.Get(name)
	if v == "" {
		return "", services.ErrMissingParamWithName(name)
	}
	return v, nil
}

// scopeFrom returns the auth context the middleware attached, as type T.
// A mismatch means a route was registered with the wrong scope.
func scopeFrom[T auth.Context](r *http.Request) (T, error) {
	var zero T
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		return zero, auth.ErrUnauthenticated
	}
	sc, ok := ac.(T)
	if !ok {
		return zero, fmt.Errorf("route expects %T, got %T", zero, ac)
	}
	return sc, nil
}
