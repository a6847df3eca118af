package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/budgetshare/internal/auth"
	"github.com/mmynk/budgetshare/internal/metrics"
	"github.com/mmynk/budgetshare/internal/middleware"
	"github.com/mmynk/budgetshare/internal/service"
)

// RouterConfig holds what the top-level router needs besides the service.
type RouterConfig struct {
	JWTManager         *auth.JWTManager
	Metrics            *metrics.Metrics
	Gatherer           prometheus.Gatherer
	CORSAllowedOrigins []string

	// RPCPath and RPCHandler mount the Connect service, when set.
	RPCPath    string
	RPCHandler http.Handler
}

// NewRouter returns the server's root handler: health and metrics endpoints,
// the REST routes and the optional Connect mount.
func NewRouter(svc *service.LedgerService, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	h := NewHandler(svc)
	r.Route("/shared-budgets", func(r chi.Router) {
		r.Use(middleware.Authenticate(cfg.JWTManager))
		h.Routes(r)
	})

	if cfg.RPCHandler != nil {
		r.Mount(cfg.RPCPath, cfg.RPCHandler)
	}
	return r
}
