package users

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/natours/natours-api/internal/apperr"
	"github.com/natours/natours-api/internal/db"
)

const schema = "app_auth"

// GormStore keeps users in postgres.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates the schema and users table if they are missing.
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := db.EnsureSchema(s.db.WithContext(ctx), schema); err != nil {
		return fmt.Errorf("ensure schema %s: %w", schema, err)
	}
	if err := s.db.WithContext(ctx).AutoMigrate(&User{}); err != nil {
		return fmt.Errorf("auto-migrate users: %w", err)
	}
	return nil
}

func (s *GormStore) Create(ctx context.Context, u *User) error {
	return apperr.FromDB(s.db.WithContext(ctx).Create(u).Error)
}

func (s *GormStore) Save(ctx context.Context, u *User) error {
	return apperr.FromDB(s.db.WithContext(ctx).Save(u).Error)
}

func (s *GormStore) FindByID(ctx context.Context, id uuid.UUID) (User, error) {
	var u User
	err := s.db.WithContext(ctx).First(&u, "id = ? AND active", id).Error
	return u, apperr.FromDB(err)
}

func (s *GormStore) FindByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.db.WithContext(ctx).First(&u, "email = ? AND active", email).Error
	return u, apperr.FromDB(err)
}

func (s *GormStore) ClaimResetToken(ctx context.Context, hash string, now time.Time) (User, error) {
	var claimed []User
	res := s.db.WithContext(ctx).
		Model(&claimed).
		Clauses(clause.Returning{}).
		Where("password_reset_token = ? AND password_reset_expires > ? AND active", hash, now.UTC()).
		Updates(map[string]any{
			"password_reset_token":   nil,
			"password_reset_expires": nil,
		})
	if res.Error != nil {
		return User{}, apperr.FromDB(res.Error)
	}
	if len(claimed) == 0 {
		return User{}, apperr.ErrNotFound
	}
	return claimed[0], nil
}

func (s *GormStore) List(ctx context.Context, opts ListOptions) ([]User, error) {
	q := s.db.WithContext(ctx).Where("active").Order("created_at, email")
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	out := []User{}
	if err := q.Find(&out).Error; err != nil {
		return nil, apperr.FromDB(err)
	}
	return out, nil
}

func (s *GormStore) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&User{}, "id = ?", id)
	if res.Error != nil {
		return apperr.FromDB(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteAll(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&User{})
	return res.RowsAffected, apperr.FromDB(res.Error)
}
