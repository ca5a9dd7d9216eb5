package handler

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusCreated, map[string]float64{"net_profit": 129})

	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"net_profit":129}` {
		t.Errorf("unexpected body %q", got)
	}
}

func TestWriteJSON_EncodeFailure(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusCreated, map[string]float64{"profit_per_km": math.Inf(1)})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "internal server error") {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
	if logs.FilterMessage("failed to encode response").Len() != 1 {
		t.Error("expected the encode failure to be logged")
	}
}
