package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasker/internal/auth"
	"tasker/internal/constants"
	"tasker/internal/database"
)

type ctlEnv struct {
	configPath string
	dbPath     string
}

func newCtlEnv(t *testing.T) *ctlEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv(constants.ConfigEnvVar, "")

	env := &ctlEnv{
		configPath: filepath.Join(dir, "config.yaml"),
		dbPath:     filepath.Join(dir, "tasker.db"),
	}
	yaml := fmt.Sprintf(`database:
  driver: sqlite3
  dsn: %s
auth:
  argon2_memory_kib: 8192
  argon2_iterations: 1
  argon2_parallelism: 1
`, env.dbPath)
	require.NoError(t, os.WriteFile(env.configPath, []byte(yaml), 0600))
	return env
}

func (e *ctlEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(strings.NewReader(""), &out, &errOut)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *ctlEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err, "taskerctl %s", strings.Join(args, " "))
	return out
}

func (e *ctlEnv) store(t *testing.T) *database.Store {
	t.Helper()
	db, err := database.Open(context.Background(), constants.DriverSQLite, e.dbPath, database.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return database.NewStore(db, constants.DriverSQLite)
}

func stubPasswords(t *testing.T, answers ...string) {
	t.Helper()
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })
	readPassword = func(int) ([]byte, error) {
		if len(answers) == 0 {
			return nil, errors.New("no more input")
		}
		next := answers[0]
		answers = answers[1:]
		return []byte(next), nil
	}
}

func TestInitDB(t *testing.T) {
	env := newCtlEnv(t)

	out := env.mustRun(t, "init-db")
	assert.Contains(t, out, "database ready")

	out = env.mustRun(t, "init-db")
	assert.Contains(t, out, "(0 migration(s) applied)")
}

func TestUserAdd_PasswordFlag(t *testing.T) {
	env := newCtlEnv(t)
	env.mustRun(t, "init-db")

	out := env.mustRun(t, "user-add", "-u", "alice", "-p", "correct-horse", "-d", "Alice", "-r", "2")
	assert.Contains(t, out, "created user alice")
	assert.NotContains(t, out, "correct-horse")

	user, err := env.store(t).GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, constants.RoleOwner, user.RoleGlobal)
	require.NotNil(t, user.DisplayName)
	assert.Equal(t, "Alice", *user.DisplayName)
}

func TestUserAdd_Duplicate(t *testing.T) {
	env := newCtlEnv(t)
	env.mustRun(t, "init-db")
	env.mustRun(t, "user-add", "-u", "alice", "-p", "correct-horse")

	_, err := env.run(t, "user-add", "-u", "alice", "-p", "another-pass")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestUserAdd_InvalidUsername(t *testing.T) {
	env := newCtlEnv(t)
	env.mustRun(t, "init-db")

	_, err := env.run(t, "user-add", "-u", "", "-p", "correct-horse")
	assert.Error(t, err)
}

func TestUserAdd_MissingUsernameFlag(t *testing.T) {
	env := newCtlEnv(t)

	_, err := env.run(t, "user-add", "-p", "correct-horse")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username")
}

func TestUserAdd_GeneratedPasswordPrintedOnce(t *testing.T) {
	env := newCtlEnv(t)
	env.mustRun(t, "init-db")

	out := env.mustRun(t, "user-add", "-u", "bob", "--generate-password")
	m := regexp.MustCompile(`(?m)^password: (\S+)$`).FindAllStringSubmatch(out, -1)
	require.Len(t, m, 1)
	assert.NotEmpty(t, m[0][1])

	ctx := context.Background()
	stored, err := env.store(t).FindUserPasswordHash(ctx, "bob")
	require.NoError(t, err)
	ok, err := auth.NewPasswordHasher(auth.DefaultPasswordParams(), nil).Verify(ctx, m[0][1], stored)
	require.NoError(t, err)
	assert.True(t, ok, "printed password must match the stored hash")
}

func TestUserAdd_Prompted(t *testing.T) {
	env := newCtlEnv(t)
	env.mustRun(t, "init-db")

	stubPasswords(t, "typed-secret", "typed-secret")
	out := env.mustRun(t, "user-add", "-u", "carol")
	assert.Contains(t, out, "Password: ")
	assert.Contains(t, out, "Repeat password: ")
	assert.Contains(t, out, "created user carol")
}

func TestUserAdd_PromptMismatch(t *testing.T) {
	env := newCtlEnv(t)
	env.mustRun(t, "init-db")

	stubPasswords(t, "typed-secret", "typo-secret")
	_, err := env.run(t, "user-add", "-u", "carol")
	assert.ErrorIs(t, err, errPasswordMismatch)

	_, err = env.store(t).GetUserByUsername(context.Background(), "carol")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestUserAdd_ConflictingPasswordFlags(t *testing.T) {
	env := newCtlEnv(t)
	env.mustRun(t, "init-db")

	_, err := env.run(t, "user-add", "-u", "dave", "-p", "correct-horse", "--generate-password")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestUserMod(t *testing.T) {
	env := newCtlEnv(t)
	env.mustRun(t, "init-db")
	env.mustRun(t, "user-add", "-u", "alice", "-p", "correct-horse", "-d", "Alice")

	env.mustRun(t, "user-mod", "-u", "alice", "-r", "0")
	user, err := env.store(t).GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, constants.RoleReadOnly, user.RoleGlobal)
	require.NotNil(t, user.DisplayName, "display name untouched when -d is absent")
	assert.Equal(t, "Alice", *user.DisplayName)

	env.mustRun(t, "user-mod", "-u", "alice", "-d", "")
	user, err = env.store(t).GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Nil(t, user.DisplayName)
}

func TestUserMod_NothingToChange(t *testing.T) {
	env := newCtlEnv(t)
	env.mustRun(t, "init-db")
	env.mustRun(t, "user-add", "-u", "alice", "-p", "correct-horse")

	_, err := env.run(t, "user-mod", "-u", "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to change")
}

func TestUserModPasswd_RevokesTokens(t *testing.T) {
	env := newCtlEnv(t)
	env.mustRun(t, "init-db")
	env.mustRun(t, "user-add", "-u", "alice", "-p", "correct-horse")

	out := env.mustRun(t, "user-mod-passwd", "-u", "alice", "-p", "new-password")
	assert.Contains(t, out, "0 token set(s) revoked")

	_, err := env.run(t, "user-mod-passwd", "-u", "nobody", "-p", "new-password")
	assert.Error(t, err)
}

func TestUserDel(t *testing.T) {
	env := newCtlEnv(t)
	env.mustRun(t, "init-db")
	env.mustRun(t, "user-add", "-u", "alice", "-p", "correct-horse")

	out := env.mustRun(t, "user-del", "-u", "alice")
	assert.Contains(t, out, "deleted user alice")

	_, err := env.store(t).GetUserByUsername(context.Background(), "alice")
	assert.ErrorIs(t, err, database.ErrNotFound)

	_, err = env.run(t, "user-del", "-u", "alice")
	assert.Error(t, err)
}
