package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository/sqlite"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SECRET_KEY", "cli-test-secret-0123456789")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestInitDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "blog.db")

	out, err := run(t, "init-db", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized the database.")

	db, err := sqlite.Open(path)
	require.NoError(t, err)
	defer db.Close()
	assert.NoError(t, db.EnsureSchema(context.Background()))
}

func TestInitDB_ClearsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blog.db")
	_, err := run(t, "init-db", "--db", path)
	require.NoError(t, err)

	require.NoError(t, func() error {
		db, err := sqlite.Open(path)
		if err != nil {
			return err
		}
		defer db.Close()
		return db.CreateUser(context.Background(), newUser("alice"))
	}())

	_, err = run(t, "init-db", "--db", path)
	require.NoError(t, err)

	db, err := sqlite.Open(path)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.GetUserByUsername(context.Background(), "alice")
	assert.Error(t, err)
}

func TestServe_RefusesUninitialisedDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blog.db")

	_, err := run(t, "serve", "--db", path)
	assert.ErrorIs(t, err, sqlite.ErrSchemaMissing)
}

func TestServe_RejectsBadConfig(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	_, err := run(t, "serve", "--db", filepath.Join(t.TempDir(), "blog.db"))
	assert.ErrorContains(t, err, "PORT")
}

func TestUnknownArgs(t *testing.T) {
	_, err := run(t, "init-db", "extra")
	assert.Error(t, err)
}

func newUser(username string) *model.User {
	return &model.User{Username: username, PasswordHash: "x"}
}
