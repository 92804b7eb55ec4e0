package services

import (
	"context"

	"tasker/internal/constants"
	"tasker/internal/database"
	"tasker/internal/logger"
)

// ProjectService manages projects and their memberships.
type ProjectService struct {
	store  *database.Store
	logger *logger.Logger
}

func NewProjectService(store *database.Store, log *logger.Logger) *ProjectService {
	return &ProjectService{store: store, logger: log}
}

// CreateProjectRequest is the input of Create. An empty description is
// stored as null.
type CreateProjectRequest struct {
	Title       string  `json:"title" validate:"required,max=256"`
	Description *string `json:"description" validate:"omitempty,max=8192"`
}

// UpdateProjectRequest changes only the fields that are set. An empty
// description clears it.
type UpdateProjectRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=256"`
	Description *string `json:"description" validate:"omitempty,max=8192"`
}

// List returns the projects userID belongs to. A user with no projects gets
// ErrNotFound.
func (s *ProjectService) List(ctx context.Context, userID int64) ([]database.ProjectSummary, error) {
	projects, err := s.store.ListProjects(ctx, userID)
	if err != nil {
		return nil, WrapInternalError(err)
	}
	if len(projects) == 0 {
		return nil, ErrNotFound
	}
	return projects, nil
}

// Create makes userID the owner of a new project with a default folder.
func (s *ProjectService) Create(ctx context.Context, userID int64, req CreateProjectRequest) (*database.Project, error) {
	if err := fromValidation(validate.Struct(req)); err != nil {
		return nil, err
	}
	project, err := s.store.CreateProject(ctx, userID, req.Title, emptyToNil(req.Description))
	if err != nil {
		return nil, WrapInternalError(err)
	}
	s.logger.Info("Projects: user_id=%d created project=%d", userID, project.PubID)
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, projectID int64) (*database.ProjectDetails, error) {
	details, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return details, nil
}

// Update applies req. A request that sets nothing is a no-op.
func (s *ProjectService) Update(ctx context.Context, projectID int64, req UpdateProjectRequest) error {
	if err := fromValidation(validate.Struct(req)); err != nil {
		return err
	}
	if req.Title != nil && *req.Title == "" {
		return ErrInvalidParam(constants.ParamTitle, "must not be empty")
	}
	if req.Title == nil && req.Description == nil {
		return nil
	}

	var desc database.Nullable[string]
	if req.Description != nil {
		desc = database.Nullable[string]{Set: true, Value: emptyToNil(req.Description)}
	}
	return mapStoreError(s.store.UpdateProject(ctx, projectID, req.Title, desc))
}

// Delete removes a project and everything in it. Only owners may delete.
func (s *ProjectService) Delete(ctx context.Context, projectID int64, role int) error {
	if role < constants.RoleOwner {
		return ErrForbidden
	}
	if err := s.store.DeleteProject(ctx, projectID); err != nil {
		return mapStoreError(err)
	}
	s.logger.Info("Projects: project_id=%d deleted", projectID)
	return nil
}
