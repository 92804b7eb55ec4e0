package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ============================================================================
// Task Operations
// ============================================================================

const taskColumns = `
	t.task_id, t.task_pub_id, p.project_pub_id, f.folder_pub_id, t.title, t.description,
	t.datetime_from, t.datetime_due, t.created, t.edited
	FROM tasks t
	INNER JOIN folders f ON t.folder_id = f.folder_id
	INNER JOIN projects p ON t.project_id = p.project_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*Task, error) {
	var (
		t        Task
		desc     sql.NullString
		from, to sql.NullInt64
	)
	if err := row.Scan(&t.ID, &t.PubID, &t.ProjectPubID, &t.FolderPubID, &t.Title, &desc,
		&from, &to, &t.Created, &t.Edited); err != nil {
		return nil, err
	}
	t.Description = stringPtr(desc)
	t.DatetimeFrom = int64Ptr(from)
	t.DatetimeDue = int64Ptr(to)
	return &t, nil
}

func (s *Store) listTasks(ctx context.Context, where string, args ...any) ([]Task, error) {
	rows, err := s.conn.QueryContext(ctx, s.q(`SELECT `+taskColumns+` WHERE `+where+` ORDER BY t.task_id ASC`), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// ListTasksByProject returns every task of a project.
func (s *Store) ListTasksByProject(ctx context.Context, projectID int64) ([]Task, error) {
	return s.listTasks(ctx, `t.project_id = ?`, projectID)
}

// ListTasksByFolder returns the tasks of one folder.
func (s *Store) ListTasksByFolder(ctx context.Context, folderID int64) ([]Task, error) {
	return s.listTasks(ctx, `t.folder_id = ?`, folderID)
}

// GetTask returns a task by internal id.
func (s *Store) GetTask(ctx context.Context, taskID int64) (*Task, error) {
	t, err := scanTask(s.conn.QueryRowContext(ctx, s.q(`SELECT `+taskColumns+` WHERE t.task_id = ?`), taskID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// CreateTask inserts a task and returns its public id.
func (s *Store) CreateTask(ctx context.Context, nt NewTask) (int64, error) {
	var taskID int64
	pubID, err := s.insertWithPubID(ctx, `
		INSERT INTO tasks (task_pub_id, title, description, datetime_from, datetime_due,
		                   user_id, project_id, folder_id, created, edited)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NOW_EPOCH, NOW_EPOCH)
		ON CONFLICT (task_pub_id) DO NOTHING
		RETURNING task_id
	`, []any{nt.Title, nullString(nt.Description), nullInt64(nt.DatetimeFrom), nullInt64(nt.DatetimeDue),
		nt.UserID, nt.ProjectID, nt.FolderID}, &taskID)
	if err != nil {
		return 0, fmt.Errorf("failed to create task: %w", err)
	}
	return pubID, nil
}

// UpdateTask applies u and bumps the edited timestamp.
func (s *Store) UpdateTask(ctx context.Context, taskID int64, u TaskUpdate) error {
	sets := []string{"edited = NOW_EPOCH"}
	var args []any
	if u.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *u.Title)
	}
	if u.Description.Set {
		sets = append(sets, "description = ?")
		args = append(args, nullString(u.Description.Value))
	}
	if u.DatetimeFrom.Set {
		sets = append(sets, "datetime_from = ?")
		args = append(args, nullInt64(u.DatetimeFrom.Value))
	}
	if u.DatetimeDue.Set {
		sets = append(sets, "datetime_due = ?")
		args = append(args, nullInt64(u.DatetimeDue.Value))
	}
	args = append(args, taskID)

	res, err := s.conn.ExecContext(ctx, s.q(`UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE task_id = ?`), args...)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

// DeleteTask removes a task.
func (s *Store) DeleteTask(ctx context.Context, taskID int64) error {
	res, err := s.conn.ExecContext(ctx, s.q(`DELETE FROM tasks WHERE task_id = ?`), taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}
