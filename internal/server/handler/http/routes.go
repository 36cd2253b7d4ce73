package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/atinyakov/NoteKeeper/internal/middleware"
)

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Auth  *AuthHandler
	Notes *NoteHandler
	AI    *AIHandler
	// Debug is mounted only when non-nil.
	Debug *DebugHandler
}

// RouterOptions configures the middleware around the handlers.
type RouterOptions struct {
	Verifier       middleware.TokenVerifier
	AILimiter      *middleware.UserRateLimiter
	MediaDir       string
	MaxUploadBytes int64
	AllowedOrigins []string
}

// NewRouter constructs and returns an HTTP handler that serves
// the NoteKeeper API.
//
// Routes:
//
//	POST /api/register            → Auth.Register
//	POST /api/login               → Auth.Login
//	GET  /api/me                  → Auth.Me            (bearer)
//	GET  /api/data                → Notes.List         (bearer)
//	POST /api/data                → Notes.Create       (bearer)
//	GET  /api/search              → Notes.Search       (bearer)
//	GET  /api/tags/stats          → Notes.TagStats     (bearer)
//	POST /api/ai/query            → AI.Query           (bearer, rate limited)
//	GET  /api/debug/file/{user}   → Debug.File         (bearer, optional)
//	GET  /media/*                 → uploaded files
//	GET  /healthz                 → liveness probe
//
// Middleware chain (applied in order):
//  1. RequestID, RealIP: request metadata for logs
//  2. WithRequestLogging: logs every request
//  3. Recoverer: turns panics into 500
//  4. CORS: AllowedOrigins
//  5. RequestSize: caps bodies at MaxUploadBytes
//  6. BearerAuth: on the protected group only
func NewRouter(h Handlers, opts RouterOptions, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if opts.MaxUploadBytes > 0 {
		r.Use(chiMiddleware.RequestSize(opts.MaxUploadBytes))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if opts.MediaDir != "" {
		r.Handle("/media/*", http.StripPrefix("/media/", noListing(http.FileServer(http.Dir(opts.MediaDir)))))
	}

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.AllowContentType("application/json"))
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
		})

		// Protected group: requires a valid bearer token
		r.Group(func(r chi.Router) {
			r.Use(middleware.BearerAuth(opts.Verifier))

			r.Get("/me", h.Auth.Me)
			r.Get("/data", h.Notes.List)
			r.Post("/data", h.Notes.Create)
			r.Get("/search", h.Notes.Search)
			r.Get("/tags/stats", h.Notes.TagStats)

			r.Group(func(r chi.Router) {
				r.Use(chiMiddleware.AllowContentType("application/json"))
				if opts.AILimiter != nil {
					r.Use(opts.AILimiter.Middleware)
				}
				r.Post("/ai/query", h.AI.Query)
			})

			if h.Debug != nil {
				r.Get("/debug/file/{username}", h.Debug.File)
			}
		})
	})

	return r
}

// noListing hides directory indexes from the media file server.
func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
