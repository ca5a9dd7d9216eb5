package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
	Error       string `json:"error,omitempty"`
}

// MetricsSummary is returned by GET /v1/metrics/summary.
type MetricsSummary struct {
	RecordsSaved       map[string]float64 `json:"recordsSaved"`
	Classifications    map[string]float64 `json:"classifications"`
	Insights           map[string]float64 `json:"insights"`
	PaymentAdvisories  float64            `json:"paymentAdvisories"`
	StoreErrors        float64            `json:"storeErrors"`
	ConfigCacheHitRate float64            `json:"configCacheHitRate"`
	Period             string             `json:"period"`
}
