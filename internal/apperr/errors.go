// Package apperr holds the error kinds the API reports to clients and the
// translation of storage and token errors into them.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"gorm.io/gorm"
)

type Kind int

const (
	KindInternal Kind = iota
	KindAuthRequired
	KindInvalidCredentials
	KindForbidden
	KindInvalidOrExpiredToken
	KindWrongCurrentPassword
	KindDeliveryFailure
	KindInvalidInput
	KindNotFound
	KindDuplicate
	KindTooManyRequests
)

var kindStatus = map[Kind]int{
	KindInternal:              http.StatusInternalServerError,
	KindAuthRequired:          http.StatusUnauthorized,
	KindInvalidCredentials:    http.StatusUnauthorized,
	KindForbidden:             http.StatusForbidden,
	KindInvalidOrExpiredToken: http.StatusBadRequest,
	KindWrongCurrentPassword:  http.StatusUnauthorized,
	KindDeliveryFailure:       http.StatusInternalServerError,
	KindInvalidInput:          http.StatusBadRequest,
	KindNotFound:              http.StatusNotFound,
	KindDuplicate:             http.StatusBadRequest,
	KindTooManyRequests:       http.StatusTooManyRequests,
}

// Error is an operational error: its Message is safe to show to a client.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so callers can compare against the
// sentinels below regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func (e *Error) Status() int {
	if s, ok := kindStatus[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

var (
	ErrAuthRequired          = &Error{Kind: KindAuthRequired, Message: "You are not logged in! Please log in to get access."}
	ErrInvalidCredentials    = &Error{Kind: KindInvalidCredentials, Message: "Incorrect email or password"}
	ErrForbidden             = &Error{Kind: KindForbidden, Message: "You do not have permission to perform this action"}
	ErrInvalidOrExpiredToken = &Error{Kind: KindInvalidOrExpiredToken, Message: "Token is invalid or has expired"}
	ErrWrongCurrentPassword  = &Error{Kind: KindWrongCurrentPassword, Message: "Your current password is wrong."}
	ErrDeliveryFailure       = &Error{Kind: KindDeliveryFailure, Message: "There was an error sending the email. Try again later!"}
	ErrInvalidInput          = &Error{Kind: KindInvalidInput, Message: "Invalid input data."}
	ErrNotFound              = &Error{Kind: KindNotFound, Message: "No document found with that ID"}
	ErrDuplicate             = &Error{Kind: KindDuplicate, Message: "Duplicate field value. Please use another value!"}
	ErrTooManyRequests       = &Error{Kind: KindTooManyRequests, Message: "Too many requests from this IP, please try again later!"}
)

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap keeps the client message of kind and attaches cause for logging.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

func AuthRequired(msg string) *Error {
	return New(KindAuthRequired, msg)
}

// Invalid builds an InvalidInput error out of one or more validation messages.
func Invalid(msgs ...string) *Error {
	if len(msgs) == 0 {
		return ErrInvalidInput
	}
	return New(KindInvalidInput, "Invalid input data. "+strings.Join(msgs, ". "))
}

// From returns the *Error in err's chain. Anything else is reported as an
// internal error wrapping err.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindInternal, Message: "Something went wrong", Err: err}
}

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// FromDB maps gorm, postgres and mongo errors to client errors. Errors it does
// not recognise are returned unchanged. FromDB(nil) is nil.
func FromDB(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, mongo.ErrNoDocuments) {
		return Wrap(KindNotFound, ErrNotFound.Message, err)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || mongo.IsDuplicateKeyError(err) {
		return Wrap(KindDuplicate, ErrDuplicate.Message, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return Wrap(KindDuplicate, duplicateMessage(pgErr.Detail), err)
		case "22P02":
			return Wrap(KindInvalidInput, "Invalid id.", err)
		}
	}

	return err
}

// duplicateMessage reads the column name out of a postgres unique violation
// detail such as `Key (email)=(a@b.c) already exists.`
func duplicateMessage(detail string) string {
	start := strings.Index(detail, "(")
	end := strings.Index(detail, ")=")
	if start < 0 || end <= start {
		return ErrDuplicate.Message
	}
	return fmt.Sprintf("Duplicate field value: %s. Please use another value!", detail[start+1:end])
}
