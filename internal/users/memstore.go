package users

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/natours/natours-api/internal/apperr"
)

var errDuplicateEmail = apperr.New(apperr.KindDuplicate, "Duplicate field value: email. Please use another value!")

// MemStore keeps users in memory. It backs tests and the memory store driver.
type MemStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]User
}

func NewMemStore() *MemStore {
	return &MemStore{users: make(map[uuid.UUID]User)}
}

func (s *MemStore) Create(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.ID]; ok {
		return apperr.ErrDuplicate
	}
	if s.emailTaken(u.Email, u.ID) {
		return errDuplicateEmail
	}
	s.users[u.ID] = clone(*u)
	return nil
}

func (s *MemStore) Save(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.emailTaken(u.Email, u.ID) {
		return errDuplicateEmail
	}
	s.users[u.ID] = clone(*u)
	return nil
}

func (s *MemStore) FindByID(_ context.Context, id uuid.UUID) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok || !u.Active {
		return User{}, apperr.ErrNotFound
	}
	return clone(u), nil
}

func (s *MemStore) FindByEmail(_ context.Context, email string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email && u.Active {
			return clone(u), nil
		}
	}
	return User{}, apperr.ErrNotFound
}

func (s *MemStore) ClaimResetToken(_ context.Context, hash string, now time.Time) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, u := range s.users {
		if !u.Active || u.PasswordResetToken == nil || *u.PasswordResetToken != hash {
			continue
		}
		if u.PasswordResetExpires == nil || !u.PasswordResetExpires.After(now) {
			continue
		}
		u.ClearResetToken()
		u.UpdatedAt = now.UTC()
		s.users[id] = u
		return clone(u), nil
	}
	return User{}, apperr.ErrNotFound
}

func (s *MemStore) List(_ context.Context, opts ListOptions) ([]User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		if u.Active {
			out = append(out, clone(u))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Email < out[j].Email
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	if opts.Offset >= len(out) {
		return []User{}, nil
	}
	out = out[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *MemStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *MemStore) DeleteAll(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := int64(len(s.users))
	s.users = make(map[uuid.UUID]User)
	return n, nil
}

// emailTaken must be called with mu held.
func (s *MemStore) emailTaken(email string, except uuid.UUID) bool {
	for id, u := range s.users {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}

func clone(u User) User {
	if u.PasswordChangedAt != nil {
		t := *u.PasswordChangedAt
		u.PasswordChangedAt = &t
	}
	if u.PasswordResetToken != nil {
		h := *u.PasswordResetToken
		u.PasswordResetToken = &h
	}
	if u.PasswordResetExpires != nil {
		t := *u.PasswordResetExpires
		u.PasswordResetExpires = &t
	}
	return u
}
