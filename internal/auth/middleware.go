package auth

import (
	"net/http"

	"tasker/internal/constants"
	"tasker/internal/logger"
)

// ErrorResponder writes an error response. The middleware never writes
// bodies itself so all status mapping stays in the HTTP layer.
type ErrorResponder func(w http.ResponseWriter, r *http.Request, err error)

// Middleware provides HTTP middleware for authentication and resource
// authorization.
type Middleware struct {
	manager  *Manager
	resolver *Resolver
	logger   *logger.Logger
	onError  ErrorResponder
}

// NewMiddleware creates the auth middleware.
func NewMiddleware(manager *Manager, resolver *Resolver, log *logger.Logger, onError ErrorResponder) *Middleware {
	if log == nil {
		log = logger.Discard()
	}
	return &Middleware{manager: manager, resolver: resolver, logger: log, onError: onError}
}

// RequireToken authenticates the request and attaches a UserOnly context.
func (m *Middleware) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := m.authenticate(r)
		if err != nil {
			m.onError(w, r, err)
			return
		}
		ctx := WithContext(r.Context(), UserOnly{User: *identity})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireScope authenticates the request, resolves the resource named by
// the route's {project}, {folder} and {task} wildcards up to scope, and
// attaches the matching scoped context.
func (m *Middleware) RequireScope(scope Scope) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := m.authenticate(r)
			if err != nil {
				m.onError(w, r, err)
				return
			}

			path, err := ParseResourcePath(pathSegments(r, scope))
			if err != nil {
				m.onError(w, r, err)
				return
			}

			ac, err := m.resolver.Resolve(r.Context(), *identity, path, r.Method)
			if err != nil {
				m.logger.Debug("Auth: user=%s denied %s %s: %v", identity.Username, r.Method, r.URL.Path, err)
				m.onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), ac)))
		})
	}
}

// authenticate reads the select and verify tokens from the query string or
// form body. DELETE bodies are parsed upstream by the server. Headers are not
// consulted.
func (m *Middleware) authenticate(r *http.Request) (*Identity, error) {
	tokenSelect := r.FormValue(constants.ParamTokenSelect)
	tokenVerify := r.FormValue(constants.ParamTokenVerify)
	if tokenSelect == "" || tokenVerify == "" {
		return nil, ErrUnauthenticated
	}
	return m.manager.Validate(r.Context(), tokenSelect, tokenVerify)
}

func pathSegments(r *http.Request, scope Scope) (project, folder, task string) {
	project = r.PathValue(constants.PathValueProject)
	if scope >= ScopeFolder {
		folder = r.PathValue(constants.PathValueFolder)
	}
	if scope >= ScopeTask {
		task = r.PathValue(constants.PathValueTask)
	}
	return project, folder, task
}
