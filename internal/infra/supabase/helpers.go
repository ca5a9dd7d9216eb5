package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/boddenberg/driver-finance-go/internal/domain"
	"github.com/boddenberg/driver-finance-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ============================================================
// HTTP helpers for PostgREST
// ============================================================

// postgrestError is the error body PostgREST returns on 4xx/5xx.
type postgrestError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

const uniqueViolation = "23505"

// doRequest executes an authenticated request and returns the body.
// A 404 or 204 yields a nil body. Client errors are marked permanent so
// they are not retried.
func (c *Client) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)

	var reader io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return nil, resilience.Permanent(err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		c.logger.Error("supabase: failed to create request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, resilience.Permanent(err)
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, statusError(resp.StatusCode, body)
	}

	c.logger.Debug("supabase: request OK",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)
	return body, nil
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	return c.doRequest(ctx, http.MethodGet, path, nil)
}

func (c *Client) doPost(ctx context.Context, table string, payload any) ([]byte, error) {
	return c.doRequest(ctx, http.MethodPost, table, payload)
}

func (c *Client) doPatch(ctx context.Context, path string, payload any) ([]byte, error) {
	return c.doRequest(ctx, http.MethodPatch, path, payload)
}

func (c *Client) doDelete(ctx context.Context, path string) ([]byte, error) {
	return c.doRequest(ctx, http.MethodDelete, path, nil)
}

// statusError turns a non-2xx response into an error. Unique violations
// become *domain.ErrConflict; every 4xx is permanent.
func statusError(status int, body []byte) error {
	var pe postgrestError
	_ = json.Unmarshal(body, &pe)

	if status == http.StatusConflict || pe.Code == uniqueViolation {
		msg := "registro duplicado"
		if pe.Details != "" {
			msg = pe.Details
		}
		return resilience.Permanent(&domain.ErrConflict{Message: msg})
	}

	err := fmt.Errorf("supabase returned status %d: %s", status, strings.TrimSpace(string(body)))
	if status >= 400 && status < 500 && status != http.StatusTooManyRequests && status != http.StatusRequestTimeout {
		return resilience.Permanent(err)
	}
	return err
}

// execute runs fn inside the bulkhead, the circuit breaker and the retry
// loop, then maps the outcome onto domain errors.
func (c *Client) execute(ctx context.Context, service string, fn func() error) error {
	err := c.bulkhead.Do(ctx, func() error {
		_, cbErr := c.cb.Execute(func() (any, error) {
			return nil, resilience.RetryWithBackoff(ctx, c.cfg, fn)
		})
		return cbErr
	})
	return c.mapError(service, err)
}

func (c *Client) mapError(service string, err error) error {
	if err == nil {
		return nil
	}

	var conflict *domain.ErrConflict
	if errors.As(err, &conflict) {
		return conflict
	}
	var notFound *domain.ErrNotFound
	if errors.As(err, &notFound) {
		return notFound
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &domain.ErrCircuitOpen{Service: "supabase"}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.ErrTimeout{Operation: service}
	}
	return &domain.ErrExternalService{Service: service, Err: err}
}

// decodeRows unmarshals a PostgREST array body. A nil body is an empty set.
func decodeRows[T any](body []byte) ([]T, error) {
	if len(body) == 0 {
		return nil, nil
	}
	var rows []T
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, resilience.Permanent(fmt.Errorf("failed to decode rows: %w", err))
	}
	return rows, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
