package services

import (
	"context"
	"strconv"

	"tasker/internal/constants"
	"tasker/internal/database"
	"tasker/internal/logger"
)

// TaskService manages tasks. Timestamps travel as decimal unix seconds.
type TaskService struct {
	store  *database.Store
	logger *logger.Logger
}

func NewTaskService(store *database.Store, log *logger.Logger) *TaskService {
	return &TaskService{store: store, logger: log}
}

// CreateTaskRequest is the input of Create. Empty optional values are null.
type CreateTaskRequest struct {
	Title        string  `json:"title" validate:"required,max=256"`
	Description  *string `json:"description" validate:"omitempty,max=8192"`
	DatetimeFrom *string `json:"datetime_from"`
	DatetimeDue  *string `json:"datetime_due"`
}

// UpdateTaskRequest: nil fields are unchanged, empty optional fields become
// null, an empty title is rejected.
type UpdateTaskRequest struct {
	Title        *string `json:"title" validate:"omitempty,max=256"`
	Description  *string `json:"description" validate:"omitempty,max=8192"`
	DatetimeFrom *string `json:"datetime_from"`
	DatetimeDue  *string `json:"datetime_due"`
}

// TaskLocation names where a task is created and by whom.
type TaskLocation struct {
	ProjectID int64
	FolderID  int64
	UserID    int64
}

func (s *TaskService) ListByProject(ctx context.Context, projectID int64) ([]database.Task, error) {
	tasks, err := s.store.ListTasksByProject(ctx, projectID)
	return nonNilTasks(tasks), wrapListError(err)
}

func (s *TaskService) ListByFolder(ctx context.Context, folderID int64) ([]database.Task, error) {
	tasks, err := s.store.ListTasksByFolder(ctx, folderID)
	return nonNilTasks(tasks), wrapListError(err)
}

func (s *TaskService) Get(ctx context.Context, taskID int64) (*database.Task, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return task, nil
}

// Create stores a task and returns its public id.
func (s *TaskService) Create(ctx context.Context, loc TaskLocation, req CreateTaskRequest) (int64, error) {
	if err := fromValidation(validate.Struct(req)); err != nil {
		return 0, err
	}
	from, err := parseTimestamp(constants.ParamDatetimeFrom, req.DatetimeFrom)
	if err != nil {
		return 0, err
	}
	due, err := parseTimestamp(constants.ParamDatetimeDue, req.DatetimeDue)
	if err != nil {
		return 0, err
	}

	pubID, err := s.store.CreateTask(ctx, database.NewTask{
		ProjectID:    loc.ProjectID,
		FolderID:     loc.FolderID,
		UserID:       loc.UserID,
		Title:        req.Title,
		Description:  emptyToNil(req.Description),
		DatetimeFrom: from.Value,
		DatetimeDue:  due.Value,
	})
	if err != nil {
		return 0, WrapInternalError(err)
	}
	return pubID, nil
}

// Update applies a partial update. A request with no fields is a no-op.
func (s *TaskService) Update(ctx context.Context, taskID int64, req UpdateTaskRequest) error {
	if err := fromValidation(validate.Struct(req)); err != nil {
		return err
	}
	if req.Title != nil && *req.Title == "" {
		return ErrInvalidParam(constants.ParamTitle, "must not be empty")
	}

	var (
		u   database.TaskUpdate
		err error
	)
	u.Title = req.Title
	if req.Description != nil {
		u.Description = database.Nullable[string]{Set: true, Value: emptyToNil(req.Description)}
	}
	if u.DatetimeFrom, err = parseTimestamp(constants.ParamDatetimeFrom, req.DatetimeFrom); err != nil {
		return err
	}
	if u.DatetimeDue, err = parseTimestamp(constants.ParamDatetimeDue, req.DatetimeDue); err != nil {
		return err
	}
	if u.Empty() {
		return nil
	}
	return mapStoreError(s.store.UpdateTask(ctx, taskID, u))
}

func (s *TaskService) Delete(ctx context.Context, taskID int64) error {
	return mapStoreError(s.store.DeleteTask(ctx, taskID))
}

// parseTimestamp reads an optional decimal unix timestamp. nil is unset, the
// empty string is an explicit null.
func parseTimestamp(name string, raw *string) (database.Nullable[int64], error) {
	if raw == nil {
		return database.Nullable[int64]{}, nil
	}
	if *raw == "" {
		return database.Nullable[int64]{Set: true}, nil
	}
	v, err := strconv.ParseInt(*raw, 10, 64)
	if err != nil {
		return database.Nullable[int64]{}, ErrInvalidTimestamp(name)
	}
	return database.Nullable[int64]{Set: true, Value: &v}, nil
}

func nonNilTasks(tasks []database.Task) []database.Task {
	if tasks == nil {
		return []database.Task{}
	}
	return tasks
}

func wrapListError(err error) error {
	if err != nil {
		return WrapInternalError(err)
	}
	return nil
}
