package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tasker/internal/auth"
	"tasker/internal/constants"
)

func TestAddUserCreatesHomeProject(t *testing.T) {
	svc, store := setupTestServices(t)
	ctx := context.Background()

	res := addTestUser(t, svc, "alice")
	require.NotNil(t, res.HomeProject)
	assert.Len(t, res.DemoTasks, constants.DemoTaskCount)

	projects, err := svc.Projects.List(ctx, res.User.ID)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, constants.HomeProjectTitle, projects[0].Title)
	assert.Equal(t, constants.RoleOwner, projects[0].Role)

	tasks, err := svc.Tasks.ListByFolder(ctx, res.HomeProject.DefaultFolder.ID)
	require.NoError(t, err)
	require.Len(t, tasks, constants.DemoTaskCount)
	assert.Equal(t, "Demo task 1", tasks[0].Title)

	hash, err := store.FindUserPasswordHash(ctx, "alice")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")
}

func TestAddUserValidation(t *testing.T) {
	svc, _ := setupTestServices(t)
	ctx := context.Background()

	_, err := svc.Users.AddUser(ctx, AddUserRequest{Username: "x", Password: "longenough"})
	requireCode(t, err, constants.ErrCodeUsernameInvalid)

	_, err = svc.Users.AddUser(ctx, AddUserRequest{Username: "valid", Password: "short"})
	requireCode(t, err, constants.ErrCodePasswordInvalid)

	_, err = svc.Users.AddUser(ctx, AddUserRequest{Username: "valid", Password: "longenough", Role: 5})
	requireCode(t, err, constants.ErrCodeInvalidRequest)
}

func TestAddUserDuplicateRollsBack(t *testing.T) {
	svc, store := setupTestServices(t)
	ctx := context.Background()
	first := addTestUser(t, svc, "bob")

	_, err := svc.Users.AddUser(ctx, AddUserRequest{Username: "bob", Password: "another-password"})
	assert.ErrorIs(t, err, ErrUserExists)

	projects, err := store.ListProjects(ctx, first.User.ID)
	require.NoError(t, err)
	assert.Len(t, projects, 1, "failed add must not create another home project")
}

func TestDeleteUser(t *testing.T) {
	svc, _ := setupTestServices(t)
	ctx := context.Background()
	addTestUser(t, svc, "carol")

	require.NoError(t, svc.Users.DeleteUser(ctx, "carol"))
	assert.ErrorIs(t, svc.Users.DeleteUser(ctx, "carol"), auth.ErrNotFound)
}

func TestModifyUser(t *testing.T) {
	svc, store := setupTestServices(t)
	ctx := context.Background()
	addTestUser(t, svc, "dave")

	role := constants.RoleOwner
	require.NoError(t, svc.Users.ModifyUser(ctx, ModifyUserRequest{Username: "dave", DisplayName: strPtr("Dave"), Role: &role}))
	u, err := store.GetUserByUsername(ctx, "dave")
	require.NoError(t, err)
	assert.Equal(t, constants.RoleOwner, u.RoleGlobal)
	assert.Equal(t, "Dave", *u.DisplayName)

	bad := 7
	err = svc.Users.ModifyUser(ctx, ModifyUserRequest{Username: "dave", Role: &bad})
	require.Error(t, err)

	assert.ErrorIs(t, svc.Users.ModifyUser(ctx, ModifyUserRequest{Username: "dave"}), ErrNothingToApply)
	assert.ErrorIs(t, svc.Users.ModifyUser(ctx, ModifyUserRequest{Username: "ghost", DisplayName: strPtr("x")}), auth.ErrNotFound)
}

func TestChangePasswordRevokesTokens(t *testing.T) {
	svc, store := setupTestServices(t)
	ctx := context.Background()
	addTestUser(t, svc, "erin")

	for _, sel := range []string{"s1", "s2"} {
		_, err := store.InsertTokenSet(ctx, auth.NewTokenSet{Select: sel, VerifyHash: "h", Renew: "r" + sel, Username: "erin", TTL: 60})
		require.NoError(t, err)
	}

	res, err := svc.Users.ChangePassword(ctx, "erin", "brand-new-password")
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.RevokedTokenSets)
	assert.False(t, res.Rehashed)

	_, err = store.FindTokenBySelect(ctx, "s1")
	assert.ErrorIs(t, err, auth.ErrNotFound)

	_, err = svc.Users.ChangePassword(ctx, "erin", "short")
	requireCode(t, err, constants.ErrCodePasswordInvalid)
	_, err = svc.Users.ChangePassword(ctx, "ghost", "long-enough-pass")
	assert.ErrorIs(t, err, auth.ErrNotFound)
}

func TestChangePasswordReportsLegacyHash(t *testing.T) {
	svc, store := setupTestServices(t)
	ctx := context.Background()

	legacy, err := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.MinCost)
	require.NoError(t, err)
	_, err = store.CreateUser(ctx, "frank", string(legacy), nil, constants.DefaultGlobalRole)
	require.NoError(t, err)

	res, err := svc.Users.ChangePassword(ctx, "frank", "new-password-1")
	require.NoError(t, err)
	assert.True(t, res.Rehashed)
}
