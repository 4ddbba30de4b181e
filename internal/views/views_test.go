package views_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/natours/natours-api/internal/apperr"
	"github.com/natours/natours-api/internal/middleware"
	"github.com/natours/natours-api/internal/users"
	"github.com/natours/natours-api/internal/views"
)

type stubAuthenticator struct {
	tokens map[string]users.User
}

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (users.User, error) {
	if u, ok := s.tokens[token]; ok {
		return u, nil
	}
	return users.User{}, apperr.AuthRequired("You are not logged in! Please log in to get access.")
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()

	rn, err := views.NewRenderer(slog.New(slog.DiscardHandler), false)
	require.NoError(t, err)

	a := stubAuthenticator{tokens: map[string]users.User{
		"good": {Name: "Alice Liddell", Email: "alice@example.com", Role: users.RoleUser, Photo: "alice.jpg"},
	}}

	r := chi.NewRouter()
	views.NewHandlers(rn).RegisterRoutes(r, middleware.IsLoggedIn(a), middleware.Protect(a, rn))
	return r
}

func get(h http.Handler, path, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "jwt", Value: cookie})
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestOverview(t *testing.T) {
	h := newRouter(t)

	t.Run("anonymous", func(t *testing.T) {
		rec := get(h, "/", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, rec.Body.String(), `href="/login"`)
		assert.Contains(t, rec.Body.String(), "Natours | All Tours")
	})

	t.Run("logged in", func(t *testing.T) {
		rec := get(h, "/", "good")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Welcome back, Alice!")
		assert.Contains(t, rec.Body.String(), "/img/users/alice.jpg")
	})

	t.Run("bad cookie is anonymous", func(t *testing.T) {
		rec := get(h, "/", "loggedout")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "Welcome back")
	})
}

func TestLogin(t *testing.T) {
	h := newRouter(t)

	rec := get(h, "/login", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="login"`)

	rec = get(h, "/login", "good")
	assert.Contains(t, rec.Body.String(), "You are logged in as alice@example.com")
}

func TestAccount(t *testing.T) {
	h := newRouter(t)

	t.Run("ok", func(t *testing.T) {
		rec := get(h, "/me", "good")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "alice@example.com")
	})

	t.Run("fail, not logged in renders the error page", func(t *testing.T) {
		rec := get(h, "/me", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, rec.Body.String(), "You are not logged in! Please log in to get access.")
	})
}

func TestRenderer_WriteHidesInternalErrors(t *testing.T) {
	rn, err := views.NewRenderer(slog.New(slog.DiscardHandler), false)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	rn.Write(rec, httptest.NewRequest(http.MethodGet, "/me", nil), assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Something went wrong")
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}
