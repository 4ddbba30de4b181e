package auth

import (
	"log/slog"

	"github.com/natours/natours-api/internal/config"
	"github.com/natours/natours-api/internal/users"
)

// Init builds the auth service from configuration.
func Init(cfg config.Auth, store users.Store, mailer Mailer, logger *slog.Logger) (*Service, error) {
	return NewService(
		store,
		NewHasher(cfg.BcryptCost),
		NewIssuer(cfg.JWTSecret, cfg.JWTExpiresIn),
		mailer,
		logger,
		ServiceConfig{ResetTokenTTL: cfg.ResetTokenTTL},
	)
}
