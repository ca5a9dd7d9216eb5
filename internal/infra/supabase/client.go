// Package supabase provides a client for Supabase PostgREST.
// Used as the hosted data backend for daily records and config versions.
package supabase

import (
	"context"
	"fmt"
	"net/http"

	"github.com/boddenberg/driver-finance-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("supabase")

// Tables
const (
	tableRecords  = "daily_records"
	tableConfigs  = "config_versions"
	tableSettings = "user_settings"
)

// Client wraps HTTP calls to Supabase PostgREST API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	bulkhead       *resilience.Bulkhead
	cfg            resilience.Config
	logger         *zap.Logger
}

// NewClient creates a Supabase client.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		bulkhead:       resilience.NewBulkhead(cfg.MaxConcurrency),
		cfg:            cfg,
		logger:         logger,
	}
}

// Ping issues a single cheap read, bypassing retries.
func (c *Client) Ping(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Supabase.Ping")
	defer span.End()

	if _, err := c.doGet(ctx, fmt.Sprintf("%s?select=id&limit=1", tableConfigs)); err != nil {
		return c.mapError("supabase/ping", err)
	}
	return nil
}
