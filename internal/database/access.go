package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tasker/internal/auth"
)

// ============================================================================
// Access Checks
// ============================================================================
//
// Each lookup confirms the user's membership and the public id chain in a
// single join. A miss is ErrNotFound whether the resource is absent or the
// user simply is not a member.

// FindProjectAccess resolves a project public id under userID's membership.
func (s *Store) FindProjectAccess(ctx context.Context, userID, projectPubID int64) (*auth.Access, error) {
	var a auth.Access
	err := s.conn.QueryRowContext(ctx, s.q(`
		SELECT p.project_id, pu.role
		FROM projects p
		INNER JOIN projects_users pu ON p.project_id = pu.project_id
		WHERE pu.user_id = ? AND p.project_pub_id = ?
	`), userID, projectPubID).Scan(&a.ProjectID, &a.Role)
	return accessResult(&a, err)
}

// FindFolderAccess resolves a folder inside a project the user belongs to.
func (s *Store) FindFolderAccess(ctx context.Context, userID, projectPubID, folderPubID int64) (*auth.Access, error) {
	var a auth.Access
	err := s.conn.QueryRowContext(ctx, s.q(`
		SELECT p.project_id, f.folder_id, pu.role
		FROM projects_users pu
		INNER JOIN projects p ON pu.project_id = p.project_id
		INNER JOIN folders f ON f.project_id = p.project_id
		WHERE pu.user_id = ? AND p.project_pub_id = ? AND f.folder_pub_id = ?
	`), userID, projectPubID, folderPubID).Scan(&a.ProjectID, &a.FolderID, &a.Role)
	return accessResult(&a, err)
}

// FindTaskAccess resolves a task inside the named folder and project.
func (s *Store) FindTaskAccess(ctx context.Context, userID, projectPubID, folderPubID, taskPubID int64) (*auth.Access, error) {
	var a auth.Access
	err := s.conn.QueryRowContext(ctx, s.q(`
		SELECT p.project_id, f.folder_id, t.task_id, pu.role
		FROM projects_users pu
		INNER JOIN projects p ON pu.project_id = p.project_id
		INNER JOIN folders f ON f.project_id = p.project_id
		INNER JOIN tasks t ON t.folder_id = f.folder_id AND t.project_id = p.project_id
		WHERE pu.user_id = ? AND p.project_pub_id = ? AND f.folder_pub_id = ? AND t.task_pub_id = ?
	`), userID, projectPubID, folderPubID, taskPubID).Scan(&a.ProjectID, &a.FolderID, &a.TaskID, &a.Role)
	return accessResult(&a, err)
}

func accessResult(a *auth.Access, err error) (*auth.Access, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check access: %w", err)
	}
	return a, nil
}
