package chi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"github.com/kailas-cloud/movierec/internal/metrics"
)

// RouterConfig tunes the router.
type RouterConfig struct {
	// LoginRateLimit is the number of auth requests allowed per IP per minute; 0 disables the limit.
	LoginRateLimit int
}

// NewRouter mounts every route of s behind the standard middleware stack.
func NewRouter(s *Server, cfg RouterConfig, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(logger))
	r.Use(metrics.Middleware())

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			if cfg.LoginRateLimit > 0 {
				r.Use(httprate.Limit(
					cfg.LoginRateLimit, time.Minute,
					httprate.WithKeyFuncs(httprate.KeyByIP),
					httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
						writeError(w, http.StatusTooManyRequests, codeRateLimited, "too many authentication attempts")
					}),
				))
			}
			r.Post("/register", s.Register)
			r.Post("/login", s.Login)
		})

		r.Get("/movies", s.ListTitles)
		r.Get("/movies/details", s.MovieDetails)
		r.Get("/recommendations", s.Recommend)

		r.Route("/admin/users", func(r chi.Router) {
			r.Use(AdminBasicAuthMiddleware(s.users))
			r.Get("/", s.ListUsers)
			r.Put("/{username}", s.UpdateUser)
			r.Delete("/{username}", s.DeleteUser)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeBadRequest, "method not allowed")
	})

	return r
}
