package auth

import "context"

// contextKey is an unexported type for context keys in this package.
type contextKey int

const (
	authContextKey contextKey = iota
)

// Context is what the middleware attaches to an authenticated request. It is
// exactly one of UserOnly, ProjectScope, FolderScope or TaskScope.
type Context interface {
	// Identity returns the authenticated user.
	Identity() Identity
	isAuthContext()
}

// UserOnly is attached to routes that need a user but no resource.
type UserOnly struct {
	User Identity
}

// ProjectScope carries the resolved internal project id and the caller's
// membership role in it.
type ProjectScope struct {
	User      Identity
	ProjectID int64
	Role      int
}

type FolderScope struct {
	User      Identity
	ProjectID int64
	FolderID  int64
	Role      int
}

type TaskScope struct {
	User      Identity
	ProjectID int64
	FolderID  int64
	TaskID    int64
	Role      int
}

func (c UserOnly) Identity() Identity     { return c.User }
func (c ProjectScope) Identity() Identity { return c.User }
func (c FolderScope) Identity() Identity  { return c.User }
func (c TaskScope) Identity() Identity    { return c.User }

func (UserOnly) isAuthContext()     {}
func (ProjectScope) isAuthContext() {}
func (FolderScope) isAuthContext()  {}
func (TaskScope) isAuthContext()    {}

// WithContext returns a copy of ctx carrying ac.
func WithContext(ctx context.Context, ac Context) context.Context {
	return context.WithValue(ctx, authContextKey, ac)
}

// FromContext retrieves the auth context set by the middleware.
func FromContext(ctx context.Context) (Context, bool) {
	ac, ok := ctx.Value(authContextKey).(Context)
	return ac, ok
}
