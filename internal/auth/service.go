package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/natours/natours-api/internal/apperr"
	"github.com/natours/natours-api/internal/users"
)

// ResetPath is where the emailed reset link points, relative to the site origin.
const ResetPath = "/api/v1/users/resetPassword/"

var errMissingCredentials = apperr.New(apperr.KindInvalidInput, "Please provide email and password!")

// Mailer delivers the account emails.
type Mailer interface {
	SendWelcome(ctx context.Context, u users.User, url string) error
	SendPasswordReset(ctx context.Context, u users.User, url string) error
}

// ServiceConfig is the configuration for the Service.
type ServiceConfig struct {
	// ResetTokenTTL is how long an emailed reset token stays usable.
	ResetTokenTTL time.Duration
}

// Service implements signup, login, session checks and the password flows.
type Service struct {
	store  users.Store
	hasher Hasher
	issuer *Issuer
	mailer Mailer
	logger *slog.Logger
	cfg    ServiceConfig

	// comparisonHash is compared against when no user was found, so unknown
	// emails take as long as wrong passwords.
	comparisonHash string

	// NowFunc is used to get the current time.
	// Exposed for testing purposes.
	NowFunc func() time.Time
}

func NewService(store users.Store, hasher Hasher, issuer *Issuer, mailer Mailer, logger *slog.Logger, cfg ServiceConfig) (*Service, error) {
	tok, err := NewResetToken()
	if err != nil {
		return nil, err
	}
	hash, err := hasher.Hash(string(tok))
	if err != nil {
		return nil, err
	}

	return &Service{
		store:          store,
		hasher:         hasher,
		issuer:         issuer,
		mailer:         mailer,
		logger:         logger,
		cfg:            cfg,
		comparisonHash: hash,
		NowFunc:        time.Now,
	}, nil
}

func (s *Service) issue(u users.User) (Session, error) {
	token, err := s.issuer.Issue(u.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, Token: token}, nil
}

// Signup creates a user and logs them in. welcomeURL is linked from the
// welcome email; a failed email is logged and does not fail the signup.
func (s *Service) Signup(ctx context.Context, in SignupInput, welcomeURL string) (Session, error) {
	in.Email = users.NormalizeEmail(in.Email)
	if err := users.Validate(in); err != nil {
		return Session{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.NowFunc()
	u := users.New(in.Name, in.Email, now)
	u.PasswordHash = hash
	if err := s.store.Create(ctx, &u); err != nil {
		return Session{}, err
	}

	if err := s.mailer.SendWelcome(ctx, u, welcomeURL); err != nil {
		s.logger.Error("failed to send welcome email", "user_id", u.ID, "error", err)
	}

	return s.issue(u)
}

// Login checks credentials. An unknown email and a wrong password fail with
// the same error.
func (s *Service) Login(ctx context.Context, in LoginInput) (Session, error) {
	if in.Email == "" || in.Password == "" {
		return Session{}, errMissingCredentials
	}

	u, err := s.store.FindByEmail(ctx, users.NormalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			_ = s.hasher.Compare(in.Password, s.comparisonHash)
			return Session{}, apperr.ErrInvalidCredentials
		}
		return Session{}, err
	}

	if err := s.hasher.Compare(in.Password, u.PasswordHash); err != nil {
		if !isMismatch(err) {
			s.logger.Error("stored password hash is malformed", "user_id", u.ID, "error", err)
		}
		return Session{}, apperr.ErrInvalidCredentials
	}

	return s.issue(u)
}

// Authenticate resolves the user a session token belongs to. Every failure is
// an apperr.ErrAuthRequired, except store errors other than not found.
func (s *Service) Authenticate(ctx context.Context, token string) (users.User, error) {
	if token == "" {
		return users.User{}, apperr.ErrAuthRequired
	}

	claims, err := s.issuer.Verify(token)
	if err != nil {
		if errors.Is(err, ErrExpiredToken) {
			return users.User{}, apperr.AuthRequired("Your token has expired! Please log in again.")
		}
		return users.User{}, apperr.AuthRequired("Invalid token. Please log in again!")
	}

	u, err := s.store.FindByID(ctx, uuid.MustParse(claims.UserID))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return users.User{}, apperr.AuthRequired("The user belonging to this token does no longer exist.")
		}
		return users.User{}, err
	}

	if u.ChangedPasswordAfter(claims.IssueTime()) {
		return users.User{}, apperr.AuthRequired("User recently changed password! Please log in again.")
	}

	return u, nil
}

// UpdatePassword changes the password of an authenticated user and returns a
// fresh session, since every earlier token is now stale.
func (s *Service) UpdatePassword(ctx context.Context, u users.User, in UpdatePasswordInput) (Session, error) {
	if err := s.hasher.Compare(in.PasswordCurrent, u.PasswordHash); err != nil {
		if !isMismatch(err) {
			s.logger.Error("stored password hash is malformed", "user_id", u.ID, "error", err)
		}
		return Session{}, apperr.ErrWrongCurrentPassword
	}
	if err := users.Validate(in); err != nil {
		return Session{}, err
	}

	if err := s.setPassword(ctx, &u, in.Password); err != nil {
		return Session{}, err
	}
	return s.issue(u)
}

func (s *Service) setPassword(ctx context.Context, u *users.User, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.SetPassword(hash, s.NowFunc())
	return s.store.Save(ctx, u)
}

// RequestPasswordReset emails a reset link to the owner of email. resetBase is
// the link without the token. An unknown email is not an error, so callers
// cannot learn which addresses have accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email, resetBase string) error {
	if email == "" {
		return apperr.Invalid("Please provide an email address")
	}

	u, err := s.store.FindByEmail(ctx, users.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.logger.Info("password reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := NewResetToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	u.SetResetToken(token.Hash(), s.NowFunc().Add(s.cfg.ResetTokenTTL))
	if err := s.store.Save(ctx, &u); err != nil {
		return err
	}

	if err := s.mailer.SendPasswordReset(ctx, u, resetBase+string(token)); err != nil {
		u.ClearResetToken()
		if saveErr := s.store.Save(ctx, &u); saveErr != nil {
			s.logger.Error("failed to clear reset token", "user_id", u.ID, "error", saveErr)
		}
		return apperr.Wrap(apperr.KindDeliveryFailure, apperr.ErrDeliveryFailure.Message, err)
	}

	s.logger.Info("password reset email sent", "user_id", u.ID)
	return nil
}

// ResetPassword exchanges a reset token for a new password and logs the user
// in. A token works once and only before it expires.
func (s *Service) ResetPassword(ctx context.Context, token ResetToken, in ResetPasswordInput) (Session, error) {
	if err := users.Validate(in); err != nil {
		return Session{}, err
	}

	u, err := s.store.ClaimResetToken(ctx, token.Hash(), s.NowFunc())
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Session{}, apperr.ErrInvalidOrExpiredToken
		}
		return Session{}, err
	}

	if err := s.setPassword(ctx, &u, in.Password); err != nil {
		return Session{}, err
	}
	return s.issue(u)
}
