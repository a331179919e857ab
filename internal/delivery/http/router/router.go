package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/user/audit-service/internal/delivery/http/handler"
	"github.com/user/audit-service/internal/delivery/http/middleware"
	"github.com/user/audit-service/pkg/metrics"
)

// Options configures the router.
type Options struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	Logger         *zap.Logger
}

func New(h *handler.Handler, opts Options) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(opts.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics(opts.Metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(chimw.Timeout(opts.RequestTimeout))

	r.Get("/", h.HandleHealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))

	r.Post("/audit", h.HandleSubmitAudit)
	r.Options("/audit", h.HandlePreflight)
	r.Get("/audits", h.HandleListAudits)
	r.Get("/stats", h.HandleStats)
	r.Get("/certificates/{tokenId}", h.HandleGetCertificate)

	r.Route("/audit/{id}", func(r chi.Router) {
		r.Get("/", h.HandleGetAudit)
		r.Options("/", h.HandlePreflight)
		r.Get("/verify", h.HandleVerifyAudit)
		r.Post("/certificates", h.HandleMintCertificate)
		r.Get("/certificates/metadata", h.HandleCertificateMetadata)
		r.Post("/proposals", h.HandleCreateProposal)
		r.Get("/proposals", h.HandleListProposals)
	})

	return r
}
