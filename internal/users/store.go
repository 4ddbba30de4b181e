package users

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists users. Lookups only see active users. Missing users are
// reported as apperr.ErrNotFound and unique email clashes as apperr.ErrDuplicate.
type Store interface {
	Create(ctx context.Context, u *User) error
	// Save writes every field of u, inserting it if needed.
	Save(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id uuid.UUID) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	// ClaimResetToken finds the active user whose reset token hash equals hash
	// and expires after now, clears the token and returns the user. Matching
	// and clearing happen in one step, so a token can be claimed only once.
	ClaimResetToken(ctx context.Context, hash string, now time.Time) (User, error)
	List(ctx context.Context, opts ListOptions) ([]User, error)
	// Delete removes a user for good, active or not.
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAll(ctx context.Context) (int64, error)
}
