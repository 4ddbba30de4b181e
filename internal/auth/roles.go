package auth

import (
	"slices"

	"github.com/natours/natours-api/internal/apperr"
	"github.com/natours/natours-api/internal/users"
)

// Authorize fails with apperr.ErrForbidden unless u holds one of roles.
func Authorize(u users.User, roles ...users.Role) error {
	if slices.Contains(roles, u.Role) {
		return nil
	}
	return apperr.ErrForbidden
}
