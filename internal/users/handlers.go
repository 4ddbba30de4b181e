package users

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/natours/natours-api/internal/apperr"
	"github.com/natours/natours-api/internal/utils"
)

const defaultPageSize = 100

var errPasswordRoute = apperr.New(apperr.KindInvalidInput,
	"This route is not for password updates. Please use /updateMyPassword.")

// Handlers serves the current-user and admin user routes.
type Handlers struct {
	store Store
	errs  apperr.Responder

	// NowFunc is used to get the current time.
	NowFunc func() time.Time
}

func NewHandlers(store Store, errs apperr.Responder) *Handlers {
	return &Handlers{
		store:   store,
		errs:    errs,
		NowFunc: time.Now,
	}
}

type updateMeRequest struct {
	Name            *string `json:"name" validate:"omitempty,notblank"`
	Email           *string `json:"email" validate:"omitempty,email"`
	Password        *string `json:"password"`
	PasswordConfirm *string `json:"passwordConfirm"`
}

type adminUpdateRequest struct {
	Name  *string `json:"name" validate:"omitempty,notblank"`
	Email *string `json:"email" validate:"omitempty,email"`
	Photo *string `json:"photo"`
	Role  *Role   `json:"role" validate:"omitempty,role"`
}

func writeUser(w http.ResponseWriter, status int, u User) {
	utils.WriteJSON(w, status, map[string]any{
		"status": "success",
		"data":   map[string]any{"user": u},
	})
}

func (h *Handlers) current(w http.ResponseWriter, r *http.Request) (User, bool) {
	u, ok := FromContext(r.Context())
	if !ok {
		h.errs.Write(w, r, errors.New("users: no authenticated user in request context"))
	}
	return u, ok
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := h.current(w, r)
	if !ok {
		return
	}
	writeUser(w, http.StatusOK, u)
}

func (h *Handlers) UpdateMe(w http.ResponseWriter, r *http.Request) {
	u, ok := h.current(w, r)
	if !ok {
		return
	}

	var req updateMeRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		h.errs.Write(w, r, apperr.Wrap(apperr.KindInvalidInput, "Invalid request body", err))
		return
	}
	if req.Password != nil || req.PasswordConfirm != nil {
		h.errs.Write(w, r, errPasswordRoute)
		return
	}

	if req.Email != nil {
		email := NormalizeEmail(*req.Email)
		req.Email = &email
	}
	if err := Validate(req); err != nil {
		h.errs.Write(w, r, err)
		return
	}

	up := Update{Name: req.Name, Email: req.Email}

	u.Apply(up)
	u.UpdatedAt = h.NowFunc().UTC()
	if err := h.store.Save(r.Context(), &u); err != nil {
		h.errs.Write(w, r, err)
		return
	}

	writeUser(w, http.StatusOK, u)
}

// DeleteMe deactivates the account. The record stays but lookups no longer see it.
func (h *Handlers) DeleteMe(w http.ResponseWriter, r *http.Request) {
	u, ok := h.current(w, r)
	if !ok {
		return
	}

	u.Active = false
	u.UpdatedAt = h.NowFunc().UTC()
	if err := h.store.Save(r.Context(), &u); err != nil {
		h.errs.Write(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	opts, err := pageOptions(r)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	list, err := h.store.List(r.Context(), opts)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"results": len(list),
		"data":    map[string]any{"users": list},
	})
}

func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	u, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	writeUser(w, http.StatusOK, u)
}

// Update changes profile fields and the role. Passwords are never changed here.
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	var req adminUpdateRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		h.errs.Write(w, r, apperr.Wrap(apperr.KindInvalidInput, "Invalid request body", err))
		return
	}

	if req.Email != nil {
		email := NormalizeEmail(*req.Email)
		req.Email = &email
	}
	if err := Validate(req); err != nil {
		h.errs.Write(w, r, err)
		return
	}

	up := Update{Name: req.Name, Email: req.Email, Photo: req.Photo, Role: req.Role}

	u, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	u.Apply(up)
	u.UpdatedAt = h.NowFunc().UTC()
	if err := h.store.Save(r.Context(), &u); err != nil {
		h.errs.Write(w, r, err)
		return
	}

	writeUser(w, http.StatusOK, u)
}

func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		h.errs.Write(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ParseID reads a user id from a path parameter.
func ParseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Wrap(apperr.KindInvalidInput, "Invalid id: "+raw, err)
	}
	return id, nil
}

// pageOptions reads ?page=&limit= the way the rest of the API paginates:
// pages start at 1 and default to 100 results.
func pageOptions(r *http.Request) (ListOptions, error) {
	page, limit := 1, defaultPageSize

	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return ListOptions{}, apperr.Invalid("page must be a positive integer")
		}
		page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return ListOptions{}, apperr.Invalid("limit must be a positive integer")
		}
		limit = n
	}

	return ListOptions{Limit: limit, Offset: (page - 1) * limit}, nil
}
