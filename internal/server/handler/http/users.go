package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/NoteKeeper/internal/httpx"
	"github.com/atinyakov/NoteKeeper/internal/models"
	"github.com/atinyakov/NoteKeeper/internal/query"
	"github.com/atinyakov/NoteKeeper/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UserService defines the admin user operations required by UserHandler.
type UserService interface {
	List(ctx context.Context, q query.Query) ([]models.User, int, error)
	Get(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, in service.RegisterInput) (*models.User, error)
	Update(ctx context.Context, id string, in service.UserInput) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

// UserHandler serves the admin /users endpoints.
type UserHandler struct {
	Service UserService
	Schema  query.Schema
	Log     *zap.Logger
}

type userRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

// List returns a page of users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := query.Parse(r.URL.Query(), h.Schema)
	if err != nil {
		httpx.WriteError(w, h.Log, err)
		return
	}
	users, total, err := h.Service.List(r.Context(), q)
	if err != nil {
		httpx.WriteError(w, h.Log, err)
		return
	}
	resp, err := httpx.Page(users, total, q)
	if err != nil {
		httpx.WriteError(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// Get returns one user.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.OK(u))
}

// Create adds a user with any role.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, h.Log, err)
		return
	}
	u, err := h.Service.Create(r.Context(), service.RegisterInput{
		Name:     deref(req.Name),
		Email:    deref(req.Email),
		Password: deref(req.Password),
		Role:     deref(req.Role),
	})
	if err != nil {
		httpx.WriteError(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, httpx.OK(u))
}

// Update changes any field of a user.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, h.Log, err)
		return
	}
	u, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), service.UserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		httpx.WriteError(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.OK(u))
}

// Delete removes a user and the user's notes.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.WriteError(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.OK(httpx.Empty))
}
