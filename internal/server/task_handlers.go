package server

import (
	"net/http"

	"tasker/internal/auth"
	"tasker/internal/constants"
	"tasker/internal/database"
	"tasker/internal/services"
)

type taskList struct {
	Tasks []database.Task `json:"tasks"`
}

// GET /api/task/{project}
func (s *Server) handleTaskListByProject(w http.ResponseWriter, r *http.Request) {
	ps, err := scopeFrom[auth.ProjectScope](r)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	tasks, err := s.app.Services.Tasks.ListByProject(r.Context(), ps.ProjectID)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteSuccess(w, taskList{tasks})
}

// GET /api/task/{project}/{folder}
func (s *Server) handleTaskListByFolder(w http.ResponseWriter, r *http.Request) {
	fs, err := scopeFrom[auth.FolderScope](r)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	tasks, err := s.app.Services.Tasks.ListByFolder(r.Context(), fs.FolderID)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteSuccess(w, taskList{tasks})
}

// POST /api/task/{project}/{folder}
func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	fs, err := scopeFrom[auth.FolderScope](r)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	if err := parseParams(r); err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	loc := services.TaskLocation{ProjectID: fs.ProjectID, FolderID: fs.FolderID, UserID: fs.User.UserID}
	id, err := s.app.Services.Tasks.Create(r.Context(), loc, services.CreateTaskRequest{
		Title:        r.Form.Get(constants.ParamTitle),
		Description:  optionalParam(r, constants.ParamDescription),
		DatetimeFrom: optionalParam(r, constants.ParamDatetimeFrom),
		DatetimeDue:  optionalParam(r, constants.ParamDatetimeDue),
	})
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteCreated(w, id)
}

// GET /api/task/{project}/{folder}/{task}
func (s *Server) handleTaskGet(w http.ResponseWriter, r *http.Request) {
	ts, err := scopeFrom[auth.TaskScope](r)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	task, err := s.app.Services.Tasks.Get(r.Context(), ts.TaskID)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteSuccess(w, task)
}

// PUT /api/task/{project}/{folder}/{task}: Absent fields are left unchanged
func (s *Server) handleTaskUpdate(w http.ResponseWriter, r *http.Request) {
	ts, err := scopeFrom[auth.TaskScope](r)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	if err := parseParams(r); err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	err = s.app.Services.Tasks.Update(r.Context(), ts.TaskID, services.UpdateTaskRequest{
		Title:        optionalParam(r, constants.ParamTitle),
		Description:  optionalParam(r, constants.ParamDescription),
		DatetimeFrom: optionalParam(r, constants.ParamDatetimeFrom),
		DatetimeDue:  optionalParam(r, constants.ParamDatetimeDue),
	})
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteSuccess(w, struct{}{})
}

// DELETE /api/task/{project}/{folder}/{task}
func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	ts, err := scopeFrom[auth.TaskScope](r)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	if err := s.app.Services.Tasks.Delete(r.Context(), ts.TaskID); err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteSuccess(w, struct{}{})
}
