package auth

import (
	"context"
	"net/http"
	"strconv"

	"tasker/internal/constants"
)

// Scope is the depth of resource a route addresses.
type Scope int

const (
	ScopeProject Scope = iota + 1
	ScopeFolder
	ScopeTask
)

func (s Scope) String() string {
	switch s {
	case ScopeProject:
		return "project"
	case ScopeFolder:
		return "folder"
	case ScopeTask:
		return "task"
	default:
		return "unknown"
	}
}

// ResourcePath is a parsed /project[/folder[/task]] path of public ids.
type ResourcePath struct {
	ProjectPubID int64
	FolderPubID  *int64
	TaskPubID    *int64
}

// Scope reports how deep the path goes.
func (p ResourcePath) Scope() Scope {
	switch {
	case p.TaskPubID != nil:
		return ScopeTask
	case p.FolderPubID != nil:
		return ScopeFolder
	default:
		return ScopeProject
	}
}

// ParseResourcePath parses path segments. Empty trailing segments are
// absent. A segment that is not a positive integer, or a task without a
// folder, returns ErrNotFound.
func ParseResourcePath(project, folder, task string) (ResourcePath, error) {
	var p ResourcePath
	id, err := parsePubID(project)
	if err != nil {
		return p, err
	}
	p.ProjectPubID = id

	if folder == "" {
		if task != "" {
			return p, ErrNotFound
		}
		return p, nil
	}
	id, err = parsePubID(folder)
	if err != nil {
		return p, err
	}
	p.FolderPubID = &id

	if task == "" {
		return p, nil
	}
	taskID, err := parsePubID(task)
	if err != nil {
		return p, err
	}
	p.TaskPubID = &taskID
	return p, nil
}

func parsePubID(s string) (int64, error) {
	if s == "" {
		return 0, ErrNotFound
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, ErrNotFound
		}
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrNotFound
	}
	return id, nil
}

// Resolver decides whether a user may reach a resource and with what role.
type Resolver struct {
	store AccessStore
}

func NewResolver(store AccessStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve runs the single membership query for the path's shape. A missing
// resource and a resource the user cannot see both return ErrNotFound.
// Read-only members get ErrForbidden for any method other than GET or HEAD.
func (r *Resolver) Resolve(ctx context.Context, user Identity, path ResourcePath, method string) (Context, error) {
	var (
		access *Access
		err    error
	)
	switch path.Scope() {
	case ScopeTask:
		access, err = r.store.FindTaskAccess(ctx, user.UserID, path.ProjectPubID, *path.FolderPubID, *path.TaskPubID)
	case ScopeFolder:
		access, err = r.store.FindFolderAccess(ctx, user.UserID, path.ProjectPubID, *path.FolderPubID)
	default:
		access, err = r.store.FindProjectAccess(ctx, user.UserID, path.ProjectPubID)
	}
	if err != nil {
		return nil, err
	}

	if access.Role == constants.RoleReadOnly && !IsReadMethod(method) {
		return nil, ErrForbidden
	}

	switch path.Scope() {
	case ScopeTask:
		return TaskScope{User: user, ProjectID: access.ProjectID, FolderID: access.FolderID, TaskID: access.TaskID, Role: access.Role}, nil
	case ScopeFolder:
		return FolderScope{User: user, ProjectID: access.ProjectID, FolderID: access.FolderID, Role: access.Role}, nil
	default:
		return ProjectScope{User: user, ProjectID: access.ProjectID, Role: access.Role}, nil
	}
}

// IsReadMethod reports whether method is allowed for read-only members.
func IsReadMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}
