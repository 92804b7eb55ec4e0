package services

import (
	"context"

	"tasker/internal/database"
	"tasker/internal/logger"
)

// FolderService manages folders inside a project.
type FolderService struct {
	store  *database.Store
	logger *logger.Logger
}

func NewFolderService(store *database.Store, log *logger.Logger) *FolderService {
	return &FolderService{store: store, logger: log}
}

type FolderRequest struct {
	Title string `json:"title" validate:"required,max=256"`
}

func (s *FolderService) List(ctx context.Context, projectID int64) ([]database.Folder, error) {
	folders, err := s.store.ListFolders(ctx, projectID)
	if err != nil {
		return nil, WrapInternalError(err)
	}
	if folders == nil {
		folders = []database.Folder{}
	}
	return folders, nil
}

func (s *FolderService) Create(ctx context.Context, projectID int64, req FolderRequest) (*database.Folder, error) {
	if err := fromValidation(validate.Struct(req)); err != nil {
		return nil, err
	}
	folder, err := s.store.CreateFolder(ctx, projectID, req.Title)
	if err != nil {
		return nil, WrapInternalError(err)
	}
	return folder, nil
}

func (s *FolderService) Rename(ctx context.Context, folderID int64, req FolderRequest) error {
	if err := fromValidation(validate.Struct(req)); err != nil {
		return err
	}
	return mapStoreError(s.store.RenameFolder(ctx, folderID, req.Title))
}

// Delete removes the folder and its tasks.
func (s *FolderService) Delete(ctx context.Context, folderID int64) error {
	if err := s.store.DeleteFolder(ctx, folderID); err != nil {
		return mapStoreError(err)
	}
	s.logger.Debug("Folders: folder_id=%d deleted", folderID)
	return nil
}
