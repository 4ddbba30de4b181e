package seeds

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"

	"github.com/natours/natours-api/internal/auth"
	"github.com/natours/natours-api/internal/users"
)

// UserFixture is one entry of the dev-data users file.
type UserFixture struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Role     string `yaml:"role"`
	Password string `yaml:"password"`
	Photo    string `yaml:"photo"`
}

func LoadUsers(path string) ([]UserFixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}

	var fixtures []UserFixture
	if err := yaml.Unmarshal(data, &fixtures); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return fixtures, nil
}

// ImportUsers creates a user per fixture. Passwords are hashed but the
// fixtures are otherwise trusted: no field validation runs.
func ImportUsers(ctx context.Context, store users.Store, hasher auth.Hasher, fixtures []UserFixture, now time.Time) (int, error) {
	for i, f := range fixtures {
		u := users.New(f.Name, users.NormalizeEmail(f.Email), now)
		if f.ID != "" {
			id, err := uuid.Parse(f.ID)
			if err != nil {
				return i, fmt.Errorf("user %s: bad id: %w", f.Email, err)
			}
			u.ID = id
		}
		if f.Role != "" {
			u.Role = users.Role(f.Role)
		}
		if f.Photo != "" {
			u.Photo = f.Photo
		}

		hash, err := hasher.Hash(f.Password)
		if err != nil {
			return i, fmt.Errorf("user %s: hash password: %w", f.Email, err)
		}
		u.PasswordHash = hash

		if err := store.Create(ctx, &u); err != nil {
			return i, fmt.Errorf("user %s: %w", f.Email, err)
		}
	}
	return len(fixtures), nil
}

func DeleteUsers(ctx context.Context, store users.Store) (int64, error) {
	return store.DeleteAll(ctx)
}
