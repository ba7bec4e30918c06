package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/NoteKeeper/internal/apperr"
	"github.com/atinyakov/NoteKeeper/internal/auth"
	"github.com/atinyakov/NoteKeeper/internal/httpx"
	"github.com/atinyakov/NoteKeeper/internal/middleware"
	"github.com/atinyakov/NoteKeeper/internal/models"
	"github.com/atinyakov/NoteKeeper/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AuthService defines the account operations required by AuthHandler.
type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.Session, error)
	Login(ctx context.Context, email, password string) (*service.Session, error)
	Me(ctx context.Context, id string) (*models.User, error)
	UpdateDetails(ctx context.Context, id string, in service.DetailsInput) (*models.User, error)
	UpdatePassword(ctx context.Context, id, current, next string) (*service.Session, error)
	ForgotPassword(ctx context.Context, email, resetURL string) error
	ResetPassword(ctx context.Context, rawToken, password string) (*service.Session, error)
}

// SessionCookies builds the cookies that carry or clear a session token.
type SessionCookies interface {
	Cookie(t auth.Token) *http.Cookie
	LogoutCookie() *http.Cookie
}

// AuthHandler serves the /auth endpoints.
type AuthHandler struct {
	// Service performs the underlying account operations.
	Service AuthService
	// Cookies issues and clears the session cookie.
	Cookies SessionCookies
	// Log records server errors.
	Log *zap.Logger
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type detailsRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type forgotRequest struct {
	Email string `json:"email"`
}

type resetRequest struct {
	Password string `json:"password"`
}

// Register creates an account and signs it in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, h.Log, err)
		return
	}
	sess, err := h.Service.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		httpx.WriteError(w, h.Log, err)
		return
	}
	h.sendToken(w, sess)
}

// Login signs in with email and password.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, h.Log, err)
		return
	}
	sess, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.WriteError(w, h.Log, err)
		return
	}
	h.sendToken(w, sess)
}

// Logout overwrites the session cookie. Bearer tokens stay valid until
// they expire.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.Cookies.LogoutCookie())
	httpx.WriteJSON(w, http.StatusOK, httpx.OK(httpx.Empty))
}

// Me returns the signed-in user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r, h.Log)
	if !ok {
		return
	}
	u, err := h.Service.Me(r.Context(), actor.ID)
	if err != nil {
		httpx.WriteError(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.OK(u))
}

// UpdateDetails changes the signed-in user's name and email.
func (h *AuthHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r, h.Log)
	if !ok {
		return
	}
	var req detailsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, h.Log, err)
		return
	}
	u, err := h.Service.UpdateDetails(r.Context(), actor.ID, service.DetailsInput{Name: req.Name, Email: req.Email})
	if err != nil {
		httpx.WriteError(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.OK(u))
}

// UpdatePassword changes the signed-in user's password and issues a new token.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r, h.Log)
	if !ok {
		return
	}
	var req passwordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, h.Log, err)
		return
	}
	sess, err := h.Service.UpdatePassword(r.Context(), actor.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		httpx.WriteError(w, h.Log, err)
		return
	}
	h.sendToken(w, sess)
}

// ForgotPassword mails a reset link to the account's email.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, h.Log, err)
		return
	}
	if err := h.Service.ForgotPassword(r.Context(), req.Email, resetURL(r)); err != nil {
		httpx.WriteError(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.OK("Email sent"))
}

// ResetPassword sets a new password using a mailed reset token.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, h.Log, err)
		return
	}
	sess, err := h.Service.ResetPassword(r.Context(), chi.URLParam(r, "resetToken"), req.Password)
	if err != nil {
		httpx.WriteError(w, h.Log, err)
		return
	}
	h.sendToken(w, sess)
}

func (h *AuthHandler) sendToken(w http.ResponseWriter, sess *service.Session) {
	http.SetCookie(w, h.Cookies.Cookie(sess.Token))
	httpx.WriteJSON(w, http.StatusOK, httpx.Response{Success: true, Token: sess.Token.Value})
}

// resetURL is the absolute URL of the reset endpoint, without the token.
func resetURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/api/v1/auth/resetpassword"
}

// actorFrom returns the authenticated user or writes a 401.
func actorFrom(w http.ResponseWriter, r *http.Request, log *zap.Logger) (*models.User, bool) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, log, apperr.Authentication("Not authorized to access this route"))
	}
	return u, ok
}
