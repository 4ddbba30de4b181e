package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/natours/natours-api/internal/apperr"
	"github.com/natours/natours-api/internal/auth"
	"github.com/natours/natours-api/internal/users"
)

func TestSignupInput_Validate(t *testing.T) {
	valid := auth.SignupInput{
		Name:            "Alice",
		Email:           "alice@example.com",
		Password:        "Password123!",
		PasswordConfirm: "Password123!",
	}
	with := func(edit func(*auth.SignupInput)) auth.SignupInput {
		in := valid
		edit(&in)
		return in
	}
	// 25 runes, 75 bytes: long enough by count, too long for bcrypt.
	wide := strings.Repeat("€", 25)

	tests := map[string]struct {
		in   auth.SignupInput
		want []string
	}{
		"ok": {in: valid},
		"fail, blank name": {
			in:   with(func(in *auth.SignupInput) { in.Name = "  " }),
			want: []string{"Please provide a name"},
		},
		"fail, no email": {
			in:   with(func(in *auth.SignupInput) { in.Email = "" }),
			want: []string{"Please provide an email address"},
		},
		"fail, bad email": {
			in:   with(func(in *auth.SignupInput) { in.Email = "alice@" }),
			want: []string{"Please provide a valid email"},
		},
		"fail, display name": {
			in:   with(func(in *auth.SignupInput) { in.Email = "Alice <alice@example.com>" }),
			want: []string{"Please provide a valid email"},
		},
		"fail, short": {
			in:   with(func(in *auth.SignupInput) { in.Password, in.PasswordConfirm = "short", "short" }),
			want: []string{"A password must have at least 8 characters"},
		},
		"fail, too many bytes": {
			in:   with(func(in *auth.SignupInput) { in.Password, in.PasswordConfirm = wide, wide }),
			want: []string{"A password must have at most 72 bytes"},
		},
		"fail, mismatch": {
			in:   with(func(in *auth.SignupInput) { in.PasswordConfirm = "Password123?" }),
			want: []string{"The inserted passwords does not match"},
		},
		"fail, no confirm": {
			in:   with(func(in *auth.SignupInput) { in.PasswordConfirm = "" }),
			want: []string{"Please confirm your password"},
		},
		"fail, everything": {
			in: auth.SignupInput{},
			want: []string{
				"Please provide a name",
				"Please provide an email address",
				"Please provide a password",
				"Please confirm your password",
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			err := users.Validate(tc.in)
			if len(tc.want) == 0 {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, apperr.ErrInvalidInput)
			assert.Equal(t, "Invalid input data. "+strings.Join(tc.want, ". "), err.Error())
		})
	}
}

func TestPasswordInputs_Validate(t *testing.T) {
	assert.NoError(t, users.Validate(auth.ResetPasswordInput{Password: "newpassword", PasswordConfirm: "newpassword"}))

	err := users.Validate(auth.ResetPasswordInput{Password: "newpassword", PasswordConfirm: "other"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	// The current password is checked against the hash, not by tag.
	assert.NoError(t, users.Validate(auth.UpdatePasswordInput{Password: "newpassword", PasswordConfirm: "newpassword"}))

	err = users.Validate(auth.UpdatePasswordInput{PasswordCurrent: "old", Password: "short", PasswordConfirm: "short"})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.Contains(t, err.Error(), "at least 8 characters")
}
