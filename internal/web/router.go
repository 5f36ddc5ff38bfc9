package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dailies-app/dailies/internal/web/auth"
	"github.com/dailies-app/dailies/internal/web/middleware"
)

const healthzPath = "/healthz"

// RouterConfig controls route mounting.
type RouterConfig struct {
	// APIPrefix is mounted in front of entity routes, e.g. "/api/v1".
	APIPrefix string
	// AuthService enables bearer auth when non-nil.
	AuthService *auth.Service
	// RequestTimeout bounds each request's context; zero uses a default.
	RequestTimeout time.Duration
}

// NewRouter mounts the API behind the standard middleware stack:
// request ids, structured logging, panic recovery, CORS, a request
// deadline, and optional bearer auth. The health endpoint bypasses auth
// and logging.
func NewRouter(api *API, cfg RouterConfig, log *zap.Logger) http.Handler {
	mux := chi.NewRouter()

	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	chain := middleware.NewChain(
		middleware.RequestID(),
		middleware.Logging(log, healthzPath),
		middleware.Recovery(log),
		middleware.CORS(),
		middleware.Timeout(timeout),
		middleware.Auth(cfg.AuthService, healthzPath),
	)

	mux.Get(healthzPath, api.handleHealthz)

	prefix := cfg.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	mux.Route(prefix, func(r chi.Router) {
		r.Route("/{entity}", func(r chi.Router) {
			r.Get("/fields", api.handleFields)
			r.Get("/records", api.handleRecords)
			r.Get("/options", api.handleOptions)
			r.Get("/facets", api.handleFacets)
			r.Patch("/{id}", api.handleUpdate)
			r.Delete("/{id}", api.handleDelete)
		})
	})

	return chain.Apply(mux)
}
