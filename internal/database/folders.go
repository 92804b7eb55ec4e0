package database

import (
	"context"
	"fmt"
)

// ============================================================================
// Folder Operations
// ============================================================================

// ListFolders returns the folders of a project.
func (s *Store) ListFolders(ctx context.Context, projectID int64) ([]Folder, error) {
	rows, err := s.conn.QueryContext(ctx, s.q(`
		SELECT folder_id, folder_pub_id, title FROM folders
		WHERE project_id = ?
		ORDER BY folder_id ASC
	`), projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	defer rows.Close()

	folders := []Folder{}
	for rows.Next() {
		var f Folder
		if err := rows.Scan(&f.ID, &f.PubID, &f.Title); err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// CreateFolder adds a folder to a project.
func (s *Store) CreateFolder(ctx context.Context, projectID int64, title string) (*Folder, error) {
	f := Folder{Title: title}
	pubID, err := s.insertWithPubID(ctx, `
		INSERT INTO folders (folder_pub_id, title, project_id)
		VALUES (?, ?, ?)
		ON CONFLICT (folder_pub_id) DO NOTHING
		RETURNING folder_id
	`, []any{title, projectID}, &f.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}
	f.PubID = pubID
	return &f, nil
}

// RenameFolder sets a folder's title.
func (s *Store) RenameFolder(ctx context.Context, folderID int64, title string) error {
	res, err := s.conn.ExecContext(ctx, s.q(`UPDATE folders SET title = ? WHERE folder_id = ?`), title, folderID)
	if err != nil {
		return fmt.Errorf("failed to rename folder: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

// DeleteFolder removes a folder and its tasks.
func (s *Store) DeleteFolder(ctx context.Context, folderID int64) error {
	res, err := s.conn.ExecContext(ctx, s.q(`DELETE FROM folders WHERE folder_id = ?`), folderID)
	if err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}
