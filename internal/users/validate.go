package users

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/natours/natours-api/internal/apperr"
)

var lower = cases.Lower(language.Und)

// NormalizeEmail trims and lowercases an address. Emails are unique after
// normalization.
func NormalizeEmail(email string) string {
	return lower.String(strings.TrimSpace(email))
}

var validate = newValidator()

// newValidator reports fields by their json name and adds the tags the
// request bodies need on top of the built-in ones:
//
//	notblank  rejects whitespace-only strings
//	maxbytes  caps the byte length, min and max count runes
//	role      accepts one of the known roles
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	must(v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}))
	must(v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			panic(fmt.Sprintf("maxbytes: bad param %q", fl.Param()))
		}
		return len(fl.Field().String()) <= limit
	}))
	must(v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return Role(fl.Field().String()).Valid()
	}))

	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// messages maps "<json field>.<tag>" to what the client is told.
var messages = map[string]string{
	"name.required":            "Please provide a name",
	"name.notblank":            "Please provide a name",
	"email.required":           "Please provide an email address",
	"email.email":              "Please provide a valid email",
	"password.required":        "Please provide a password",
	"password.min":             "A password must have at least 8 characters",
	"password.maxbytes":        "A password must have at most 72 bytes",
	"passwordConfirm.required": "Please confirm your password",
	"passwordConfirm.eqfield":  "The inserted passwords does not match",
	"role.role":                "Role is either: user, guide, lead-guide, admin",
}

func message(fe validator.FieldError) string {
	if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	return fmt.Sprintf("Invalid value for %s", fe.Field())
}

// Validate checks the validate tags of a request body. Every failing field
// ends up in a single invalid-input error, in field order.
func Validate(body any) error {
	err := validate.Struct(body)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate %T: %w", body, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, message(fe))
	}
	return apperr.Invalid(msgs...)
}

// Apply copies the fields present in up onto u.
func (u *User) Apply(up Update) {
	if up.Name != nil {
		u.Name = strings.TrimSpace(*up.Name)
	}
	if up.Email != nil {
		u.Email = *up.Email
	}
	if up.Photo != nil {
		u.Photo = *up.Photo
	}
	if up.Role != nil {
		u.Role = *up.Role
	}
}
