package seeds_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/natours/natours-api/internal/auth"
	"github.com/natours/natours-api/internal/seeds"
	"github.com/natours/natours-api/internal/users"
)

const fixture = `
- id: 5c8a1d5b-0190-4b21-8360-dc057000c0de
  name: Jonas Schmedtmann
  email: Admin@Natours.io
  role: admin
  password: test1234
  photo: user-1.jpg
- name: Kate Morrison
  email: kate@example.com
  password: pw
`

func writeFixture(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadUsers(t *testing.T) {
	fixtures, err := seeds.LoadUsers(writeFixture(t, fixture))
	require.NoError(t, err)
	require.Len(t, fixtures, 2)

	assert.Equal(t, "Jonas Schmedtmann", fixtures[0].Name)
	assert.Equal(t, "admin", fixtures[0].Role)
	assert.Empty(t, fixtures[1].Role)

	_, err = seeds.LoadUsers(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = seeds.LoadUsers(writeFixture(t, "name: [unterminated"))
	assert.Error(t, err)
}

func TestImportAndDeleteUsers(t *testing.T) {
	ctx := context.Background()
	store := users.NewMemStore()
	hasher := auth.NewHasher(bcrypt.MinCost)

	fixtures, err := seeds.LoadUsers(writeFixture(t, fixture))
	require.NoError(t, err)

	n, err := seeds.ImportUsers(ctx, store, hasher, fixtures, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	admin, err := store.FindByEmail(ctx, "admin@natours.io")
	require.NoError(t, err)
	assert.Equal(t, "5c8a1d5b-0190-4b21-8360-dc057000c0de", admin.ID.String())
	assert.Equal(t, users.RoleAdmin, admin.Role)
	assert.Equal(t, "user-1.jpg", admin.Photo)
	assert.True(t, hasher.Verify("test1234", admin.PasswordHash))

	// Fixtures skip validation, so a short password is imported as is.
	kate, err := store.FindByEmail(ctx, "kate@example.com")
	require.NoError(t, err)
	assert.Equal(t, users.RoleUser, kate.Role)
	assert.Equal(t, users.DefaultPhoto, kate.Photo)
	assert.True(t, hasher.Verify("pw", kate.PasswordHash))

	_, err = seeds.ImportUsers(ctx, store, hasher, fixtures[:1], time.Now())
	assert.Error(t, err, "importing twice clashes on email")

	deleted, err := seeds.DeleteUsers(ctx, store)
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	list, err := store.List(ctx, users.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, list)
}
