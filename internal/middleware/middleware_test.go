package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/natours/natours-api/internal/apperr"
	"github.com/natours/natours-api/internal/middleware"
	"github.com/natours/natours-api/internal/users"
)

// mockAuthenticator implements middleware.Authenticator without any store or token logic.
type mockAuthenticator struct {
	user users.User
	err  error
	got  string
}

func (m *mockAuthenticator) Authenticate(_ context.Context, token string) (users.User, error) {
	m.got = token
	return m.user, m.err
}

// echoUser writes the bound user's email, or "anonymous".
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	u, ok := users.FromContext(r.Context())
	if !ok {
		w.Write([]byte("anonymous"))
		return
	}
	w.Write([]byte(u.Email))
})

func serve(mw func(http.Handler) http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mw(echoUser).ServeHTTP(rec, req)
	return rec
}

func alice() users.User {
	return users.User{ID: uuid.New(), Email: "alice@example.com", Role: users.RoleUser, Active: true}
}

func TestExtractToken(t *testing.T) {
	tests := map[string]struct {
		header string
		cookie string
		want   string
	}{
		"none":              {},
		"bearer":            {header: "Bearer abc", want: "abc"},
		"cookie":            {cookie: "def", want: "def"},
		"bearer wins":       {header: "Bearer abc", cookie: "def", want: "abc"},
		"other auth scheme": {header: "Basic abc", cookie: "def", want: "def"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "jwt", Value: tc.cookie})
			}

			if got := middleware.ExtractToken(req); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

// TestProtect_NoToken verifies that a request without a token gets a 401 JSON body.
func TestProtect_NoToken(t *testing.T) {
	a := &mockAuthenticator{err: apperr.ErrAuthRequired}
	req := httptest.NewRequest(http.MethodGet, "/test", nil)

	rec := serve(middleware.Protect(a, apperr.Responder{}), req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"fail"`) {
		t.Errorf("expected fail status, got: %q", rec.Body.String())
	}
	if a.got != "" {
		t.Errorf("expected empty token, got %q", a.got)
	}
}

// TestProtect_StoreError verifies that unexpected failures are reported as 500.
func TestProtect_StoreError(t *testing.T) {
	a := &mockAuthenticator{err: errors.New("connection refused")}
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer abc")

	rec := serve(middleware.Protect(a, apperr.Responder{}), req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Errorf("internal error leaked: %q", rec.Body.String())
	}
}

// TestProtect_ValidToken verifies that the user is bound to the request context.
func TestProtect_ValidToken(t *testing.T) {
	a := &mockAuthenticator{user: alice()}
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.AddCookie(&http.Cookie{Name: "jwt", Value: "cookie-token"})

	rec := serve(middleware.Protect(a, apperr.Responder{}), req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "alice@example.com" {
		t.Errorf("expected bound user, got %q", rec.Body.String())
	}
	if a.got != "cookie-token" {
		t.Errorf("expected cookie token, got %q", a.got)
	}
}

func TestIsLoggedIn(t *testing.T) {
	t.Run("no session", func(t *testing.T) {
		a := &mockAuthenticator{user: alice()}
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		rec := serve(middleware.IsLoggedIn(a), req)

		if rec.Body.String() != "anonymous" {
			t.Errorf("expected anonymous, got %q", rec.Body.String())
		}
		if a.got != "" {
			t.Errorf("expected no authentication attempt, got token %q", a.got)
		}
	})

	t.Run("bearer only", func(t *testing.T) {
		a := &mockAuthenticator{user: alice()}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer header-token")

		rec := serve(middleware.IsLoggedIn(a), req)

		if rec.Body.String() != "alice@example.com" {
			t.Errorf("expected bound user, got %q", rec.Body.String())
		}
		if a.got != "header-token" {
			t.Errorf("expected the header token, got %q", a.got)
		}
	})

	t.Run("invalid cookie", func(t *testing.T) {
		a := &mockAuthenticator{err: apperr.ErrAuthRequired}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "jwt", Value: "loggedout"})

		rec := serve(middleware.IsLoggedIn(a), req)

		if rec.Code != http.StatusOK || rec.Body.String() != "anonymous" {
			t.Errorf("expected anonymous 200, got %d %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("valid cookie", func(t *testing.T) {
		a := &mockAuthenticator{user: alice()}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "jwt", Value: "good"})

		rec := serve(middleware.IsLoggedIn(a), req)

		if rec.Body.String() != "alice@example.com" {
			t.Errorf("expected bound user, got %q", rec.Body.String())
		}
	})
}

// TestRestrictTo_MissingUser verifies that RestrictTo without a bound user is a
// server error, since Protect must run first.
func TestRestrictTo_MissingUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)

	rec := serve(middleware.RestrictTo(apperr.Responder{}, users.RoleAdmin), req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestRestrictTo(t *testing.T) {
	tests := map[string]struct {
		role users.Role
		want int
	}{
		"user":       {role: users.RoleUser, want: http.StatusForbidden},
		"guide":      {role: users.RoleGuide, want: http.StatusForbidden},
		"lead-guide": {role: users.RoleLeadGuide, want: http.StatusOK},
		"admin":      {role: users.RoleAdmin, want: http.StatusOK},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			u := alice()
			u.Role = tc.role
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req = req.WithContext(users.NewContext(req.Context(), u))

			rec := serve(middleware.RestrictTo(apperr.Responder{}, users.RoleAdmin, users.RoleLeadGuide), req)

			if rec.Code != tc.want {
				t.Errorf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	mw := middleware.CORSMiddleware([]string{"https://natours.dev"})

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://natours.dev")

		rec := serve(mw, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://natours.dev" {
			t.Errorf("expected origin echoed, got %q", got)
		}
	})

	t.Run("other origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example")

		rec := serve(mw, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("expected no allow-origin, got %q", got)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", "https://natours.dev")

		rec := serve(mw, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
	})
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := middleware.NewRateLimiter(60, 2)
	l.NowFunc = func() time.Time { return now }
	mw := l.Middleware(apperr.Responder{})

	request := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":1234"
		return serve(mw, req).Code
	}

	if got := request("10.0.0.1"); got != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", got)
	}
	if got := request("10.0.0.1"); got != http.StatusOK {
		t.Fatalf("second request: expected 200, got %d", got)
	}
	if got := request("10.0.0.1"); got != http.StatusTooManyRequests {
		t.Fatalf("third request: expected 429, got %d", got)
	}
	if got := request("10.0.0.2"); got != http.StatusOK {
		t.Fatalf("other client: expected 200, got %d", got)
	}

	now = now.Add(time.Second)
	if got := request("10.0.0.1"); got != http.StatusOK {
		t.Fatalf("after refill: expected 200, got %d", got)
	}
}
