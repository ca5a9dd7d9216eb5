package handler

import (
	"net/http"
	"time"

	"github.com/boddenberg/driver-finance-go/internal/domain"
	"github.com/boddenberg/driver-finance-go/internal/infra/observability"
	"github.com/boddenberg/driver-finance-go/internal/port"
	"github.com/boddenberg/driver-finance-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services groups what the router dispatches to.
type Services struct {
	Records  *service.RecordService
	Configs  *service.ConfigService
	Analysis *service.AnalysisService
	Auth     *service.AuthService

	// Store is probed by /healthz. Nil skips the probe.
	Store   port.Pinger
	Backend string

	// DevAuth accepts an X-User-ID header in place of a token.
	DevAuth bool
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc Services, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svc.Store, svc.Backend, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(svc.Auth, svc.DevAuth, logger))

		// Cost configuration versions
		r.Route("/config-versions", func(r chi.Router) {
			r.Get("/", listConfigVersionsHandler(svc.Configs, logger))
			r.Post("/", createConfigVersionHandler(svc.Configs, logger))
			r.Get("/defaults", configDefaultsHandler(svc.Configs))
			r.Get("/active", activeConfigHandler(svc.Configs, logger))
			r.Post("/import-legacy", importLegacyHandler(svc.Configs, logger))
			r.Put("/{versionId}", updateConfigVersionHandler(svc.Configs, logger))
		})

		// Daily records
		r.Route("/records", func(r chi.Router) {
			r.Get("/", listRecordsHandler(svc.Records, logger))
			r.Post("/", saveRecordHandler(svc.Records, logger))
			r.Post("/preview", previewRecordHandler(svc.Records, logger))
			r.Get("/{date}", getRecordHandler(svc.Records, logger))
			r.Delete("/{recordId}", deleteRecordHandler(svc.Records, logger))
		})

		// Analysis and reports
		r.Get("/dashboard", dashboardHandler(svc.Analysis, logger))
		r.Get("/analysis/{date}", dayAnalysisHandler(svc.Analysis, logger))
		r.Get("/reports/weekly", weeklyReportHandler(svc.Analysis, logger))
		r.Get("/reports/monthly", monthlyReportHandler(svc.Analysis, logger))
		r.Get("/reports/monthly/export", exportMonthlyReportHandler(svc.Analysis, logger))

		r.Get("/metrics/summary", metricsSummaryHandler(metrics))
	})

	return r
}

// ============================================================
// Health & metrics
// ============================================================

func healthzHandler(store port.Pinger, backend string, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "driver-finance-api", Status: "healthy", LastChecked: now},
		}

		if store != nil {
			start := time.Now()
			err := store.Ping(ctx)
			sh := domain.ServiceHealth{
				Name:        backend,
				Status:      "healthy",
				LatencyMs:   time.Since(start).Milliseconds(),
				LastChecked: now,
			}
			if err != nil {
				logger.Warn("store health check failed", zap.String("backend", backend), zap.Error(err))
				sh.Status = "degraded"
				sh.Error = err.Error()
			}
			services = append(services, sh)
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func metricsSummaryHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetSnapshot())
	}
}
