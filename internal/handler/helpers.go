package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/boddenberg/driver-finance-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Field string `json:"field,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeErrorCode(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// writeJSON encodes data before writing the status, so a value that
// cannot be encoded is answered with a 500 instead of an empty success.
func writeJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		zap.L().Error("failed to encode response",
			zap.Int("status", status),
			zap.Error(err),
		)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"internal server error"}` + "\n"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// decodeBody reads a JSON request body into dst. Unknown fields are rejected.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "invalid_body", "Corpo da requisição inválido")
		return false
	}
	return true
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var circuitOpen *domain.ErrCircuitOpen
	var timeout *domain.ErrTimeout
	var validation *domain.ErrValidation
	var unauthorized *domain.ErrUnauthorized
	var conflict *domain.ErrConflict
	var missingConfig *domain.ErrMissingConfiguration
	var external *domain.ErrExternalService

	switch {
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("field", validation.Field), zap.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "validation_error", Field: validation.Field})
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeErrorCode(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeErrorCode(w, http.StatusNotFound, "not_found", err.Error())
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		writeErrorCode(w, http.StatusConflict, "conflict", err.Error())
	case errors.As(err, &missingConfig):
		logger.Info("setup required", zap.String("user_id", missingConfig.UserID), zap.String("date", missingConfig.Date))
		writeErrorCode(w, http.StatusPreconditionFailed, "setup_required", err.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeErrorCode(w, http.StatusServiceUnavailable, "unavailable", err.Error())
	case errors.As(err, &timeout):
		logger.Error("request timeout", zap.Error(err))
		writeErrorCode(w, http.StatusGatewayTimeout, "timeout", err.Error())
	case errors.As(err, &external):
		logger.Error("store unavailable", zap.String("service", external.Service), zap.Error(err))
		writeErrorCode(w, http.StatusBadGateway, "store_error", "Falha ao acessar o armazenamento")
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
