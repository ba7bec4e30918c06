// Package http provides the HTTP handlers and routing of the NoteKeeper API.
package http

import (
	"net/http"

	"github.com/atinyakov/NoteKeeper/internal/apperr"
	"github.com/atinyakov/NoteKeeper/internal/httpx"
	"github.com/atinyakov/NoteKeeper/internal/middleware"
	"github.com/atinyakov/NoteKeeper/internal/models"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// RouterOptions configures the cross-cutting middleware of the router.
type RouterOptions struct {
	// Authenticate resolves the session token; see middleware.Authenticate.
	Authenticate func(http.Handler) http.Handler
	// RateLimiter throttles clients. Nil disables rate limiting.
	RateLimiter *middleware.RateLimiter
	// CORSOrigin lists the allowed origins, or "*".
	CORSOrigin string
}

// NewRouter constructs the HTTP handler serving the API under /api/v1.
//
// Routes:
//
//	POST   /auth/register                  public
//	POST   /auth/login                     public
//	GET    /auth/logout                    public
//	POST   /auth/forgotpassword            public
//	PUT    /auth/resetpassword/{token}     public
//	GET    /auth/me                        token
//	PUT    /auth/updatedetails             token
//	PUT    /auth/updatepassword            token
//	GET    /notes, /notes/{id}             public
//	POST   /notes                          publisher, admin
//	PUT    /notes/{id}, /notes/{id}/photo  publisher, admin; owner or admin
//	DELETE /notes/{id}                     publisher, admin; owner or admin
//	*      /users, /users/{id}             admin
func NewRouter(
	authHandler *AuthHandler,
	noteHandler *NoteHandler,
	userHandler *UserHandler,
	opts RouterOptions,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.CORS(opts.CORSOrigin))
	if opts.RateLimiter != nil {
		r.Use(opts.RateLimiter.Middleware)
	}
	r.Use(chiMiddleware.AllowContentType("application/json", "multipart/form-data"))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, logger, apperr.NotFound("Route %s not found", r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusMethodNotAllowed, httpx.Response{Error: "Method not allowed"})
	})

	publishers := middleware.Authorize(logger, models.RolePublisher, models.RoleAdmin)
	admins := middleware.Authorize(logger, models.RoleAdmin)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Get("/logout", authHandler.Logout)
			r.Post("/forgotpassword", authHandler.ForgotPassword)
			r.Put("/resetpassword/{resetToken}", authHandler.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(opts.Authenticate)
				r.Get("/me", authHandler.Me)
				r.Put("/updatedetails", authHandler.UpdateDetails)
				r.Put("/updatepassword", authHandler.UpdatePassword)
			})
		})

		r.Route("/notes", func(r chi.Router) {
			r.Get("/", noteHandler.List)
			r.Get("/{id}", noteHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(opts.Authenticate, publishers)
				r.Post("/", noteHandler.Create)
				r.Put("/{id}", noteHandler.Update)
				r.Delete("/{id}", noteHandler.Delete)
				r.Put("/{id}/photo", noteHandler.UploadPhoto)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(opts.Authenticate, admins)
			r.Get("/", userHandler.List)
			r.Post("/", userHandler.Create)
			r.Get("/{id}", userHandler.Get)
			r.Put("/{id}", userHandler.Update)
			r.Delete("/{id}", userHandler.Delete)
		})
	})

	return r
}
