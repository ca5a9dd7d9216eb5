package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/boddenberg/driver-finance-go/internal/infra/export"
	"github.com/boddenberg/driver-finance-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Dashboard, day analysis & reports
// ============================================================

func dashboardHandler(svc *service.AnalysisService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard")
		defer span.End()

		dash, err := svc.Dashboard(ctx, UserIDFromContext(ctx), r.URL.Query().Get("date"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, dash)
	}
}

func dayAnalysisHandler(svc *service.AnalysisService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/analysis/{date}")
		defer span.End()

		analysis, err := svc.DayAnalysis(ctx, UserIDFromContext(ctx), chi.URLParam(r, "date"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, analysis)
	}
}

func weeklyReportHandler(svc *service.AnalysisService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reports/weekly")
		defer span.End()

		report, err := svc.WeeklyReport(ctx, UserIDFromContext(ctx), r.URL.Query().Get("date"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func monthlyReportHandler(svc *service.AnalysisService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reports/monthly")
		defer span.End()

		report, err := svc.MonthlyReport(ctx, UserIDFromContext(ctx), r.URL.Query().Get("month"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// exportMonthlyReportHandler renders into memory first so a failure can
// still be reported as JSON.
func exportMonthlyReportHandler(svc *service.AnalysisService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reports/monthly/export")
		defer span.End()

		var buf bytes.Buffer
		month, err := svc.ExportMonthlyReport(ctx, UserIDFromContext(ctx), r.URL.Query().Get("month"), &buf)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.Header().Set("Content-Type", export.ContentTypeXLSX)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(month)))
		w.WriteHeader(http.StatusOK)
		if _, err := buf.WriteTo(w); err != nil {
			logger.Warn("failed to stream workbook", zap.Error(err))
		}
	}
}
