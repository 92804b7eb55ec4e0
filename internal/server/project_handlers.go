package server

import (
	"net/http"

	"tasker/internal/auth"
	"tasker/internal/constants"
	"tasker/internal/database"
	"tasker/internal/services"
)

// =============================================================================
// Projects
// =============================================================================

// GET /api/project: List the caller's projects
func (s *Server) handleProjectList(w http.ResponseWriter, r *http.Request) {
	uc, err := scopeFrom[auth.UserOnly](r)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	projects, err := s.app.Services.Projects.List(r.Context(), uc.User.UserID)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteSuccess(w, struct {
		Projects []database.ProjectSummary `json:"projects"`
	}{projects})
}

// POST /api/project: Create a project owned by the caller
func (s *Server) handleProjectCreate(w http.ResponseWriter, r *http.Request) {
	uc, err := scopeFrom[auth.UserOnly](r)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	if err := parseParams(r); err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	project, err := s.app.Services.Projects.Create(r.Context(), uc.User.UserID, services.CreateProjectRequest{
		Title:       r.Form.Get(constants.ParamTitle),
		Description: optionalParam(r, constants.ParamDescription),
	})
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteCreated(w, project.PubID)
}

// GET /api/project/{project}
func (s *Server) handleProjectGet(w http.ResponseWriter, r *http.Request) {
	ps, err := scopeFrom[auth.ProjectScope](r)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	details, err := s.app.Services.Projects.Get(r.Context(), ps.ProjectID)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteSuccess(w, details)
}

// PUT /api/project/{project}
func (s *Server) handleProjectUpdate(w http.ResponseWriter, r *http.Request) {
	ps, err := scopeFrom[auth.ProjectScope](r)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	if err := parseParams(r); err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	err = s.app.Services.Projects.Update(r.Context(), ps.ProjectID, services.UpdateProjectRequest{
		Title:       optionalParam(r, constants.ParamTitle),
		Description: optionalParam(r, constants.ParamDescription),
	})
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteSuccess(w, struct{}{})
}

// DELETE /api/project/{project}: Owners only
func (s *Server) handleProjectDelete(w http.ResponseWriter, r *http.Request) {
	ps, err := scopeFrom[auth.ProjectScope](r)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	if err := s.app.Services.Projects.Delete(r.Context(), ps.ProjectID, ps.Role); err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	s.logger.Info("Projects: user=%s deleted project_id=%d", ps.User.Username, ps.ProjectID)
	WriteSuccess(w, struct{}{})
}

// =============================================================================
// Folders
// =============================================================================

// GET /api/folder/{project}
func (s *Server) handleFolderList(w http.ResponseWriter, r *http.Request) {
	ps, err := scopeFrom[auth.ProjectScope](r)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	folders, err := s.app.Services.Folders.List(r.Context(), ps.ProjectID)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteSuccess(w, struct {
		Folders []database.Folder `json:"folders"`
	}{folders})
}

// POST /api/folder/{project}
func (s *Server) handleFolderCreate(w http.ResponseWriter, r *http.Request) {
	ps, err := scopeFrom[auth.ProjectScope](r)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	if err := parseParams(r); err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	folder, err := s.app.Services.Folders.Create(r.Context(), ps.ProjectID, services.FolderRequest{
		Title: r.Form.Get(constants.ParamTitle),
	})
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteCreated(w, folder.PubID)
}

// PUT /api/folder/{project}/{folder}
func (s *Server) handleFolderRename(w http.ResponseWriter, r *http.Request) {
	fs, err := scopeFrom[auth.FolderScope](r)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	if err := parseParams(r); err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	err = s.app.Services.Folders.Rename(r.Context(), fs.FolderID, services.FolderRequest{
		Title: r.Form.Get(constants.ParamTitle),
	})
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteSuccess(w, struct{}{})
}

// DELETE /api/folder/{project}/{folder}: Removes the folder's tasks too
func (s *Server) handleFolderDelete(w http.ResponseWriter, r *http.Request) {
	fs, err := scopeFrom[auth.FolderScope](r)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	if err := s.app.Services.Folders.Delete(r.Context(), fs.FolderID); err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteSuccess(w, struct{}{})
}
