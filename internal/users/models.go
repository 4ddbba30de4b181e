package users

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"
)

const DefaultPhoto = "default.jpg"

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name                 string     `gorm:"not null" json:"name"`
	Email                string     `gorm:"uniqueIndex;not null" json:"email"`
	Photo                string     `gorm:"not null" json:"photo"`
	Role                 Role       `gorm:"type:text;not null" json:"role"`
	PasswordHash         string     `gorm:"not null" json:"-"`
	PasswordChangedAt    *time.Time `json:"passwordChangedAt,omitempty"`
	PasswordResetToken   *string    `gorm:"index" json:"-"`
	PasswordResetExpires *time.Time `json:"-"`
	Active               bool       `gorm:"not null" json:"-"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

func (User) TableName() string { return "app_auth.users" }

// New returns an active user with the default role and photo. The password
// must be set with SetPassword before the user is stored.
func New(name, email string, now time.Time) User {
	now = now.UTC()
	return User{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Photo:     DefaultPhoto,
		Role:      RoleUser,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetPassword stores a new hash and records the change. The change time is
// kept one millisecond behind now so that a token minted at now is newer.
func (u *User) SetPassword(hash string, now time.Time) {
	changed := now.UTC().Add(-time.Millisecond).Truncate(time.Millisecond)
	u.PasswordHash = hash
	u.PasswordChangedAt = &changed
	u.UpdatedAt = now.UTC()
}

// ChangedPasswordAfter reports whether a token issued at issuedAt predates the
// latest password change. Both sides are compared at millisecond precision.
func (u User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return issuedAt.UnixMilli() <= u.PasswordChangedAt.UnixMilli()
}

func (u *User) SetResetToken(hash string, expires time.Time) {
	expires = expires.UTC()
	u.PasswordResetToken = &hash
	u.PasswordResetExpires = &expires
}

func (u *User) ClearResetToken() {
	u.PasswordResetToken = nil
	u.PasswordResetExpires = nil
}

// ListOptions pages through users. A zero Limit means no limit.
type ListOptions struct {
	Limit  int
	Offset int
}

// Update holds the profile fields a user or an admin may change. Nil fields
// are left alone.
type Update struct {
	Name  *string
	Email *string
	Photo *string
	Role  *Role
}
