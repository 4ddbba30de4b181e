package auth

import "github.com/natours/natours-api/internal/users"

// SignupInput is the signup request body. A role sent by the client is not
// read: new accounts always start as users. Passwords are capped in bytes
// since bcrypt ignores everything past 72.
type SignupInput struct {
	Name            string `json:"name" validate:"notblank"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,maxbytes=72"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordInput struct {
	Email string `json:"email"`
}

type ResetPasswordInput struct {
	Password        string `json:"password" validate:"required,min=8,maxbytes=72"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// UpdatePasswordInput is checked against the stored hash before its tags run,
// so a wrong current password wins over a bad new one.
type UpdatePasswordInput struct {
	PasswordCurrent string `json:"passwordCurrent"`
	Password        string `json:"password" validate:"required,min=8,maxbytes=72"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// Session is what a successful signup, login or password change hands back.
type Session struct {
	User  users.User
	Token string
}

type userData struct {
	User users.User `json:"user"`
}

type tokenResponse struct {
	Status string   `json:"status"`
	Token  string   `json:"token"`
	Data   userData `json:"data"`
}
