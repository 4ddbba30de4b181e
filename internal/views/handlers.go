package views

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/natours/natours-api/internal/users"
)

var errNoUser = errors.New("views: no authenticated user in request context")

type Handlers struct {
	rn *Renderer
}

func NewHandlers(rn *Renderer) *Handlers {
	return &Handlers{rn: rn}
}

func current(r *http.Request) *users.User {
	if u, ok := users.FromContext(r.Context()); ok {
		return &u
	}
	return nil
}

func (h *Handlers) Overview(w http.ResponseWriter, r *http.Request) {
	h.rn.render(w, http.StatusOK, pageOverview, pageData{Title: "All Tours", User: current(r)})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	h.rn.render(w, http.StatusOK, pageLogin, pageData{Title: "Log into your account", User: current(r)})
}

func (h *Handlers) Account(w http.ResponseWriter, r *http.Request) {
	u := current(r)
	if u == nil {
		h.rn.Write(w, r, errNoUser)
		return
	}
	h.rn.render(w, http.StatusOK, pageAccount, pageData{Title: "Your account", User: u})
}

// RegisterRoutes mounts the pages. soft binds the user when there is a valid
// session cookie; protect requires one.
func (h *Handlers) RegisterRoutes(r chi.Router, soft, protect func(http.Handler) http.Handler) {
	r.With(soft).Get("/", h.Overview)
	r.With(soft).Get("/login", h.Login)
	r.With(protect).Get("/me", h.Account)
}
