package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/natours/natours-api/internal/apperr"
	"github.com/natours/natours-api/internal/users"
	"github.com/natours/natours-api/internal/utils"
)

const (
	CookieName = "jwt"

	loggedOutValue = "loggedout"
	loggedOutTTL   = 10 * time.Second
)

// Handlers serves the public auth routes and the password change route.
type Handlers struct {
	svc       *Service
	errs      apperr.Responder
	cookieTTL time.Duration
	// baseURL prefixes the links sent by email.
	baseURL string
}

func NewHandlers(svc *Service, errs apperr.Responder, cookieTTL time.Duration, baseURL string) *Handlers {
	return &Handlers{svc: svc, errs: errs, cookieTTL: cookieTTL, baseURL: baseURL}
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := utils.DecodeJSON(w, r, dst); err != nil {
		h.errs.Write(w, r, apperr.Wrap(apperr.KindInvalidInput, "Invalid request body", err))
		return false
	}
	return true
}

// sendSession sets the session cookie and writes the token and user.
func (h *Handlers) sendSession(w http.ResponseWriter, r *http.Request, status int, s Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.Token,
		Path:     "/",
		Expires:  time.Now().Add(h.cookieTTL),
		HttpOnly: true,
		Secure:   utils.IsSecure(r),
		SameSite: http.SameSiteLaxMode,
	})

	utils.WriteJSON(w, status, tokenResponse{
		Status: "success",
		Token:  s.Token,
		Data:   userData{User: s.User},
	})
}

func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var in SignupInput
	if !h.decode(w, r, &in) {
		return
	}

	s, err := h.svc.Signup(r.Context(), in, h.baseURL+"/me")
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	h.sendSession(w, r, http.StatusCreated, s)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in LoginInput
	if !h.decode(w, r, &in) {
		return
	}

	s, err := h.svc.Login(r.Context(), in)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	h.sendSession(w, r, http.StatusOK, s)
}

// Logout overwrites the session cookie with a short-lived placeholder.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    loggedOutValue,
		Path:     "/",
		Expires:  time.Now().Add(loggedOutTTL),
		HttpOnly: true,
		Secure:   utils.IsSecure(r),
		SameSite: http.SameSiteLaxMode,
	})

	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (h *Handlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in ForgotPasswordInput
	if !h.decode(w, r, &in) {
		return
	}

	if err := h.svc.RequestPasswordReset(r.Context(), in.Email, h.baseURL+ResetPath); err != nil {
		h.errs.Write(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "If that email belongs to an account, a reset link has been sent to it.",
	})
}

func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var in ResetPasswordInput
	if !h.decode(w, r, &in) {
		return
	}

	token := ResetToken(chi.URLParam(r, "token"))
	s, err := h.svc.ResetPassword(r.Context(), token, in)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	h.sendSession(w, r, http.StatusOK, s)
}

func (h *Handlers) UpdateMyPassword(w http.ResponseWriter, r *http.Request) {
	u, ok := users.FromContext(r.Context())
	if !ok {
		h.errs.Write(w, r, errors.New("auth: no authenticated user in request context"))
		return
	}

	var in UpdatePasswordInput
	if !h.decode(w, r, &in) {
		return
	}

	s, err := h.svc.UpdatePassword(r.Context(), u, in)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	h.sendSession(w, r, http.StatusOK, s)
}
