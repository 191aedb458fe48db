package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/Credia/internal/deals"
)

// Options configures the API router.
type Options struct {
	AdminToken         string
	RateLimitPerMinute int
}

func NewRouter(svc *deals.Service, opts Options, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(opts.RateLimitPerMinute))

	scoringH := NewScoringHandler(svc, logger)
	dealsH := NewDealsHandler(svc, logger)
	smes := NewSMEsHandler(svc, logger)
	admin := NewAdminHandler(svc, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/score", scoringH.Score)
		r.Get("/payers/{name}/tier", scoringH.PayerTier)

		r.Group(func(r chi.Router) {
			r.Use(ActorMiddleware)

			r.Post("/extract", scoringH.Extract)
			r.Post("/deals", dealsH.Submit)
			r.Get("/deals", dealsH.List)
			r.Get("/deals/{id}", dealsH.Get)
			r.Get("/deals/{id}/explain", dealsH.Explain)

			r.Group(func(r chi.Router) {
				r.Use(RequireAdmin)
				r.Use(AdminAuthMiddleware(opts.AdminToken))

				r.Post("/deals/{id}/approve", dealsH.Approve)
				r.Post("/deals/{id}/reject", dealsH.Reject)
				r.Post("/deals/{id}/request-docs", dealsH.RequestDocs)
				r.Post("/deals/{id}/rate", dealsH.OverrideRate)
				r.Post("/deals/{id}/fund", dealsH.Fund)
				r.Post("/deals/{id}/paid", dealsH.MarkPaid)
				r.Post("/deals/{id}/payer-notice", dealsH.PayerNotice)

				r.Get("/smes", smes.List)
				r.Get("/smes/{id}", smes.Get)
				r.Post("/smes/{id}/suspend", smes.Suspend)
				r.Post("/smes/{id}/reactivate", smes.Reactivate)

				r.Get("/payers", admin.Payers)
				r.Get("/audit", admin.Audit)
				r.Get("/stats", admin.Stats)
				r.Post("/admin/reset", admin.Reset)
			})
		})
	})

	return r
}

// Pinger reports backend health for /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

func NewMetricsRouter(p Pinger) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
