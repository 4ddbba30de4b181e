package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/natours/natours-api/internal/auth"
	"github.com/natours/natours-api/internal/users"
)

// Authenticator resolves the user a session token belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (users.User, error)
}

// ExtractToken reads the session token from the Authorization header, falling
// back to the session cookie. It returns "" when there is neither.
func ExtractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(auth.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// ErrorWriter reports a failed request to the client. apperr.Responder writes
// JSON; the views write an error page.
type ErrorWriter interface {
	Write(w http.ResponseWriter, r *http.Request, err error)
}

// Protect rejects requests without a valid session and binds the user to the
// request context otherwise.
func Protect(a Authenticator, errs ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, err := a.Authenticate(r.Context(), ExtractToken(r))
			if err != nil {
				errs.Write(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(users.NewContext(r.Context(), u)))
		})
	}
}

// IsLoggedIn binds the user when the request carries a valid session, read
// the same way Protect reads it, and otherwise lets the request through
// anonymously. It is meant for rendered pages.
func IsLoggedIn(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			u, err := a.Authenticate(r.Context(), token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(users.NewContext(r.Context(), u)))
		})
	}
}

// RestrictTo lets only the given roles through. It must run after Protect.
func RestrictTo(errs ErrorWriter, roles ...users.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := users.FromContext(r.Context())
			if !ok {
				errs.Write(w, r, errors.New("middleware: RestrictTo used without Protect"))
				return
			}

			if err := auth.Authorize(u, roles...); err != nil {
				errs.Write(w, r, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CORSMiddleware echoes the Origin header back for allowed origins only.
func CORSMiddleware(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[strings.TrimSpace(o)] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if _, ok := allowed[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods",
					"GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers",
					"Content-Type, Authorization")
			}

			w.Header().Set("Access-Control-Expose-Headers", "Retry-After")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
