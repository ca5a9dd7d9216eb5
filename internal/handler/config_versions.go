package handler

import (
	"net/http"

	"github.com/boddenberg/driver-finance-go/internal/domain"
	"github.com/boddenberg/driver-finance-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Cost configuration versions
// ============================================================

func listConfigVersionsHandler(svc *service.ConfigService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/config-versions")
		defer span.End()

		versions, err := svc.List(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"versions": versions})
	}
}

func configDefaultsHandler(svc *service.ConfigService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Defaults())
	}
}

func activeConfigHandler(svc *service.ConfigService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/config-versions/active")
		defer span.End()

		view, err := svc.ActiveView(ctx, UserIDFromContext(ctx), r.URL.Query().Get("date"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func createConfigVersionHandler(svc *service.ConfigService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/config-versions")
		defer span.End()

		var in domain.ConfigVersionInput
		if !decodeBody(w, r, &in) {
			return
		}

		view, err := svc.Create(ctx, UserIDFromContext(ctx), &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, view)
	}
}

func updateConfigVersionHandler(svc *service.ConfigService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/config-versions/{versionId}")
		defer span.End()

		var in domain.ConfigVersionInput
		if !decodeBody(w, r, &in) {
			return
		}

		view, err := svc.Update(ctx, UserIDFromContext(ctx), chi.URLParam(r, "versionId"), &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

type importLegacyRequest struct {
	EffectiveDate string `json:"effective_date"`
}

// importLegacyHandler accepts an empty body, which imports effective today.
func importLegacyHandler(svc *service.ConfigService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/config-versions/import-legacy")
		defer span.End()

		var req importLegacyRequest
		if r.ContentLength > 0 && !decodeBody(w, r, &req) {
			return
		}

		view, err := svc.ImportLegacy(ctx, UserIDFromContext(ctx), req.EffectiveDate)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, view)
	}
}
