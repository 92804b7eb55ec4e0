package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"tasker/internal/auth"
	"tasker/internal/constants"
	"tasker/internal/database"
	"tasker/internal/logger"
)

// =============================================================================
// Shared fixtures for all service tests
// =============================================================================

func setupTestServices(t *testing.T) (*Services, *database.Store) {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, constants.DriverSQLite, filepath.Join(t.TempDir(), "services.db"), database.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = database.Migrate(ctx, db, constants.DriverSQLite)
	require.NoError(t, err)

	store := database.NewStore(db, constants.DriverSQLite)
	hasher := auth.NewPasswordHasher(auth.PasswordParams{Memory: 64, Iterations: 1, Parallelism: 1}, nil)
	svc := New(Options{Store: store, Hasher: hasher, Logger: logger.Discard()})
	t.Cleanup(svc.Stop)
	return svc, store
}

func addTestUser(t *testing.T, svc *Services, username string) *AddUserResult {
	t.Helper()
	res, err := svc.Users.AddUser(context.Background(), AddUserRequest{
		Username: username,
		Password: "password-" + username,
		Role:     constants.DefaultGlobalRole,
	})
	require.NoError(t, err)
	return res
}

func strPtr(s string) *string { return &s }

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	got, ok := IsServiceError(err)
	require.True(t, ok, "expected ServiceError, got %v", err)
	require.Equal(t, code, got, "error: %v", err)
}
