package handler

import (
	"net/http"

	"github.com/boddenberg/driver-finance-go/internal/domain"
	"github.com/boddenberg/driver-finance-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Daily records
// ============================================================

func saveRecordHandler(svc *service.RecordService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/records")
		defer span.End()

		var in domain.RecordInput
		if !decodeBody(w, r, &in) {
			return
		}
		userID := UserIDFromContext(ctx)
		span.SetAttributes(attribute.String("user.id", userID), attribute.String("record.date", in.RecordDate))

		result, err := svc.Save(ctx, userID, &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		status := http.StatusOK
		if result.Created {
			status = http.StatusCreated
		}
		writeJSON(w, status, result)
	}
}

func previewRecordHandler(svc *service.RecordService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/records/preview")
		defer span.End()

		var in domain.RecordInput
		if !decodeBody(w, r, &in) {
			return
		}

		result, err := svc.Preview(ctx, UserIDFromContext(ctx), &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func listRecordsHandler(svc *service.RecordService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/records")
		defer span.End()

		q := r.URL.Query()
		ascending := false
		switch q.Get("order") {
		case "", "desc":
		case "asc":
			ascending = true
		default:
			handleServiceError(w, &domain.ErrValidation{Field: "order", Message: "use 'asc' ou 'desc'"}, logger)
			return
		}

		records, err := svc.List(ctx, UserIDFromContext(ctx), q.Get("from"), q.Get("to"), ascending)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"records": records, "count": len(records)})
	}
}

func getRecordHandler(svc *service.RecordService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/records/{date}")
		defer span.End()

		rec, err := svc.Get(ctx, UserIDFromContext(ctx), chi.URLParam(r, "date"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func deleteRecordHandler(svc *service.RecordService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/records/{recordId}")
		defer span.End()

		if err := svc.Delete(ctx, UserIDFromContext(ctx), chi.URLParam(r, "recordId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
