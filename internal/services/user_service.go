package services

import (
	"context"
	"errors"
	"fmt"

	"tasker/internal/auth"
	"tasker/internal/constants"
	"tasker/internal/database"
	"tasker/internal/logger"
)

// UserService manages accounts. It backs the admin CLI; there is no HTTP
// surface for user management.
type UserService struct {
	store  *database.Store
	hasher *auth.PasswordHasher
	logger *logger.Logger
}

func NewUserService(store *database.Store, hasher *auth.PasswordHasher, log *logger.Logger) *UserService {
	return &UserService{store: store, hasher: hasher, logger: log}
}

// AddUserRequest is the input of AddUser.
type AddUserRequest struct {
	Username    string  `json:"username" validate:"required,username"`
	Password    string  `json:"password" validate:"required,min=8,max=128"`
	DisplayName *string `json:"display_name" validate:"omitempty,max=256"`
	Role        int     `json:"role" validate:"min=0,max=2"`
}

// AddUserResult reports what AddUser created.
type AddUserResult struct {
	User        *database.User
	HomeProject *database.Project
	DemoTasks   []int64
}

// AddUser creates the user together with a home project, its default folder
// and a few demo tasks, all in one transaction.
func (s *UserService) AddUser(ctx context.Context, req AddUserRequest) (*AddUserResult, error) {
	if err := fromValidation(validate.Struct(req)); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		return nil, WrapInternalError(err)
	}

	var res AddUserResult
	err = s.store.InTx(ctx, func(tx *database.Store) error {
		user, err := tx.CreateUser(ctx, req.Username, hash, emptyToNil(req.DisplayName), req.Role)
		if err != nil {
			return err
		}
		res.User = user

		project, err := tx.CreateProject(ctx, user.ID, constants.HomeProjectTitle, nil)
		if err != nil {
			return err
		}
		res.HomeProject = project

		for i := 1; i <= constants.DemoTaskCount; i++ {
			pubID, err := tx.CreateTask(ctx, database.NewTask{
				ProjectID: project.ID,
				FolderID:  project.DefaultFolder.ID,
				UserID:    user.ID,
				Title:     fmt.Sprintf(constants.DemoTaskTitleFmt, i),
			})
			if err != nil {
				return err
			}
			res.DemoTasks = append(res.DemoTasks, pubID)
		}
		return nil
	})
	if errors.Is(err, database.ErrConflict) {
		return nil, ErrUserExists
	}
	if err != nil {
		return nil, WrapInternalError(err)
	}

	s.logger.Info("Users: created user=%s with home project=%d", req.Username, res.HomeProject.PubID)
	return &res, nil
}

// DeleteUser removes the user, their token sets and memberships.
func (s *UserService) DeleteUser(ctx context.Context, username string) error {
	err := s.store.DeleteUser(ctx, username)
	if errors.Is(err, database.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return WrapInternalError(err)
	}
	s.logger.Info("Users: deleted user=%s", username)
	return nil
}

// ModifyUserRequest changes the display name and/or global role. An empty
// display name clears it.
type ModifyUserRequest struct {
	Username    string  `json:"username" validate:"required"`
	DisplayName *string `json:"display_name" validate:"omitempty,max=256"`
	Role        *int    `json:"role" validate:"omitempty,min=0,max=2"`
}

func (s *UserService) ModifyUser(ctx context.Context, req ModifyUserRequest) error {
	if err := fromValidation(validate.Struct(req)); err != nil {
		return err
	}
	if req.Role != nil {
		if err := auth.ValidateRole(*req.Role); err != nil {
			return NewServiceError(constants.ErrCodeRoleInvalid, err.Error())
		}
	}
	if req.DisplayName == nil && req.Role == nil {
		return ErrNothingToApply
	}

	err := s.store.UpdateUserProfile(ctx, req.Username, req.DisplayName, req.Role)
	if errors.Is(err, database.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return WrapInternalError(err)
	}
	s.logger.Info("Users: modified user=%s", req.Username)
	return nil
}

// ChangePasswordResult reports the side effects of ChangePassword.
type ChangePasswordResult struct {
	// RevokedTokenSets is how many token sets were deleted.
	RevokedTokenSets int64
	// Rehashed is true when the old hash used another scheme or parameters.
	Rehashed bool
}

// ChangePassword stores a new hash and revokes every token set of the user
// in the same transaction.
func (s *UserService) ChangePassword(ctx context.Context, username, password string) (*ChangePasswordResult, error) {
	if err := auth.ValidatePassword(password); err != nil {
		return nil, NewServiceError(constants.ErrCodePasswordInvalid, err.Error())
	}

	old, err := s.store.FindUserPasswordHash(ctx, username)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, WrapInternalError(err)
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, WrapInternalError(err)
	}

	res := &ChangePasswordResult{Rehashed: s.hasher.NeedsRehash(old)}
	err = s.store.InTx(ctx, func(tx *database.Store) error {
		if err := tx.UpdateUserPassword(ctx, username, hash); err != nil {
			return err
		}
		res.RevokedTokenSets, err = tx.DeleteUserTokens(ctx, username)
		return err
	})
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, WrapInternalError(err)
	}

	s.logger.Info("Users: password changed for user=%s, revoked %d token sets", username, res.RevokedTokenSets)
	return res, nil
}
