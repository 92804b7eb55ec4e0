package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"tasker/internal/constants"
)

// ============================================================================
// Project Operations
// ============================================================================

// ListProjects returns every project userID is a member of.
func (s *Store) ListProjects(ctx context.Context, userID int64) ([]ProjectSummary, error) {
	rows, err := s.conn.QueryContext(ctx, s.q(`
		SELECT p.project_pub_id, pu.role, p.title, p.description
		FROM projects_users pu
		INNER JOIN projects p ON pu.project_id = p.project_id
		WHERE pu.user_id = ?
		ORDER BY p.project_id ASC
	`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []ProjectSummary
	for rows.Next() {
		var (
			p    ProjectSummary
			desc sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Role, &p.Title, &desc); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		p.Description = stringPtr(desc)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// CreateProject creates a project owned by ownerID together with its
// default folder, in one transaction.
func (s *Store) CreateProject(ctx context.Context, ownerID int64, title string, description *string) (*Project, error) {
	var project Project
	err := s.InTx(ctx, func(tx *Store) error {
		pubID, err := tx.insertWithPubID(ctx, `
			INSERT INTO projects (project_pub_id, title, description)
			VALUES (?, ?, ?)
			ON CONFLICT (project_pub_id) DO NOTHING
			RETURNING project_id
		`, []any{title, nullString(description)}, &project.ID)
		if err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}
		project.PubID = pubID

		if err := tx.AddMember(ctx, project.ID, ownerID, constants.RoleOwner); err != nil {
			return err
		}
		project.DefaultFolder, err = tx.CreateFolder(ctx, project.ID, constants.DefaultFolderTitle)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// AddMember grants userID a role in a project.
func (s *Store) AddMember(ctx context.Context, projectID, userID int64, role int) error {
	_, err := s.conn.ExecContext(ctx, s.q(`
		INSERT INTO projects_users (project_id, user_id, role) VALUES (?, ?, ?)
	`), projectID, userID, role)
	if err != nil {
		if IsUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to add project member: %w", err)
	}
	return nil
}

// GetProject returns a project and its members.
func (s *Store) GetProject(ctx context.Context, projectID int64) (*ProjectDetails, error) {
	var (
		p    ProjectDetails
		desc sql.NullString
	)
	err := s.conn.QueryRowContext(ctx, s.q(`
		SELECT project_pub_id, title, description FROM projects WHERE project_id = ?
	`), projectID).Scan(&p.ID, &p.Title, &desc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	p.Description = stringPtr(desc)

	rows, err := s.conn.QueryContext(ctx, s.q(`
		SELECT u.username, pu.role
		FROM projects_users pu INNER JOIN users u ON pu.user_id = u.user_id
		WHERE pu.project_id = ?
		ORDER BY pu.role DESC, u.username ASC
	`), projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project members: %w", err)
	}
	defer rows.Close()

	p.Users = []Member{}
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.Username, &m.Role); err != nil {
			return nil, fmt.Errorf("failed to scan project member: %w", err)
		}
		p.Users = append(p.Users, m)
	}
	return &p, rows.Err()
}

// UpdateProject changes the title (when non-nil) and description (when Set).
func (s *Store) UpdateProject(ctx context.Context, projectID int64, title *string, description Nullable[string]) error {
	var (
		sets []string
		args []any
	)
	if title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *title)
	}
	if description.Set {
		sets = append(sets, "description = ?")
		args = append(args, nullString(description.Value))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, projectID)

	res, err := s.conn.ExecContext(ctx, s.q(`UPDATE projects SET `+strings.Join(sets, ", ")+` WHERE project_id = ?`), args...)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

// DeleteProject removes a project with its folders, tasks and memberships.
func (s *Store) DeleteProject(ctx context.Context, projectID int64) error {
	res, err := s.conn.ExecContext(ctx, s.q(`DELETE FROM projects WHERE project_id = ?`), projectID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}
