// Package services provides the business logic layer for tasker.
// Services orchestrate operations over the database store; HTTP handlers and
// the admin CLI delegate to them for all business logic.
package services

import (
	"time"

	"tasker/internal/auth"
	"tasker/internal/database"
	"tasker/internal/logger"
	"tasker/internal/metrics"
)

// validate carries the "username" tag and reports fields by json name.
var validate = auth.Validator()

// Options wires the service container.
type Options struct {
	Store           *database.Store
	Hasher          *auth.PasswordHasher
	Logger          *logger.Logger
	Metrics         *metrics.Metrics
	JanitorInterval time.Duration
	RenewWindow     time.Duration
}

// Services holds all service instances for the application.
// It acts as a service container that is initialized once at startup.
type Services struct {
	Users    *UserService
	Projects *ProjectService
	Folders  *FolderService
	Tasks    *TaskService
	Janitor  *TokenJanitor
}

// New creates all services. The janitor is created but not started.
func New(opts Options) *Services {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &Services{
		Users:    NewUserService(opts.Store, opts.Hasher, log),
		Projects: NewProjectService(opts.Store, log),
		Folders:  NewFolderService(opts.Store, log),
		Tasks:    NewTaskService(opts.Store, log),
		Janitor:  NewTokenJanitor(opts.Store, opts.JanitorInterval, opts.RenewWindow, log, opts.Metrics),
	}
}

// Stop stops background goroutines (call during graceful shutdown).
func (s *Services) Stop() {
	s.Janitor.Stop()
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
