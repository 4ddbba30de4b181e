package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/natours/natours-api/internal/users"
)

// Address is a bare email address, without a display name.
type Address string

// Sender is responsible for actually sending an email.
type Sender interface {
	Send(ctx context.Context, from, recipient Address, subject, body string) error
}

// Mailer writes the account emails and hands them to a Sender.
type Mailer struct {
	sender Sender
	from   Address
}

func NewMailer(sender Sender, from string) *Mailer {
	return &Mailer{sender: sender, from: Address(from)}
}

func firstName(u users.User) string {
	if fields := strings.Fields(u.Name); len(fields) > 0 {
		return fields[0]
	}
	return "there"
}

func (m *Mailer) SendWelcome(ctx context.Context, u users.User, url string) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nWelcome to Natours, we're glad to have you!\n\nYou can upload a photo and manage your account here:\n%s\n\nThe Natours team\n",
		firstName(u), url,
	)
	return m.sender.Send(ctx, m.from, Address(u.Email), "Welcome to the Natours Family!", body)
}

func (m *Mailer) SendPasswordReset(ctx context.Context, u users.User, url string) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nForgot your password? Submit a PATCH request with your new password and passwordConfirm to:\n%s\n\nThe link is valid for 10 minutes. If you didn't forget your password, please ignore this email.\n",
		firstName(u), url,
	)
	return m.sender.Send(ctx, m.from, Address(u.Email), "Your password reset token (valid for 10 minutes)", body)
}
