package observability

import (
	"time"

	"github.com/boddenberg/driver-finance-go/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration   *prometheus.HistogramVec
	storeErrors       *prometheus.CounterVec
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
	recordsSaved      *prometheus.CounterVec
	classifications   *prometheus.CounterVec
	insights          *prometheus.CounterVec
	paymentAdvisories prometheus.Counter
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. A private registry lets tests build as many
// instances as they like.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "driverfin_request_duration_seconds",
				Help:    "Duration of service operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		storeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "driverfin_store_errors_total",
				Help: "Total errors returned by the persistence backend.",
			},
			[]string{"store"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "driverfin_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "driverfin_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		recordsSaved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "driverfin_records_saved_total",
				Help: "Daily records saved, by created or updated.",
			},
			[]string{"mode"},
		),
		classifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "driverfin_classifications_total",
				Help: "Day classifications produced, by label.",
			},
			[]string{"label"},
		),
		insights: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "driverfin_insights_total",
				Help: "Insights produced, by severity.",
			},
			[]string{"severity"},
		),
		paymentAdvisories: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "driverfin_payment_advisories_total",
				Help: "Saved records whose itemized payments did not match gross revenue.",
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrStoreError increments the store error counter.
func (m *Metrics) IncrStoreError(store string) {
	m.storeErrors.WithLabelValues(store).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrRecordSaved counts a saved record.
func (m *Metrics) IncrRecordSaved(created bool) {
	mode := "updated"
	if created {
		mode = "created"
	}
	m.recordsSaved.WithLabelValues(mode).Inc()
}

// IncrClassification counts a produced classification.
func (m *Metrics) IncrClassification(label domain.PerformanceLabel) {
	m.classifications.WithLabelValues(string(label)).Inc()
}

// ObserveInsights counts insights by severity.
func (m *Metrics) ObserveInsights(insights []domain.Insight) {
	for _, in := range insights {
		m.insights.WithLabelValues(string(in.Severity)).Inc()
	}
}

// IncrPaymentAdvisory counts a payment mismatch.
func (m *Metrics) IncrPaymentAdvisory() {
	m.paymentAdvisories.Inc()
}

// GetSnapshot returns the counters behind GET /v1/metrics/summary.
// Values are cumulative since process start.
func (m *Metrics) GetSnapshot() *domain.MetricsSummary {
	hits := getCounterValue(m.cacheHits, "config")
	misses := getCounterValue(m.cacheMisses, "config")
	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	return &domain.MetricsSummary{
		RecordsSaved: map[string]float64{
			"created": getCounterValue(m.recordsSaved, "created"),
			"updated": getCounterValue(m.recordsSaved, "updated"),
		},
		Classifications: map[string]float64{
			string(domain.LabelGood):    getCounterValue(m.classifications, string(domain.LabelGood)),
			string(domain.LabelAverage): getCounterValue(m.classifications, string(domain.LabelAverage)),
			string(domain.LabelPoor):    getCounterValue(m.classifications, string(domain.LabelPoor)),
		},
		Insights: map[string]float64{
			string(domain.SeveritySuccess): getCounterValue(m.insights, string(domain.SeveritySuccess)),
			string(domain.SeverityWarning): getCounterValue(m.insights, string(domain.SeverityWarning)),
			string(domain.SeverityError):   getCounterValue(m.insights, string(domain.SeverityError)),
			string(domain.SeverityInfo):    getCounterValue(m.insights, string(domain.SeverityInfo)),
		},
		PaymentAdvisories:  readCounter(m.paymentAdvisories),
		StoreErrors:        sumCounterVec(m.storeErrors),
		ConfigCacheHitRate: hitRate,
		Period:             "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	return readCounter(cv.WithLabelValues(label))
}

func readCounter(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

// sumCounterVec adds up every label combination of cv.
func sumCounterVec(cv *prometheus.CounterVec) float64 {
	ch := make(chan prometheus.Metric, 16)
	go func() {
		cv.Collect(ch)
		close(ch)
	}()

	var total float64
	for metric := range ch {
		m := &dto.Metric{}
		if err := metric.Write(m); err == nil && m.Counter != nil {
			total += m.Counter.GetValue()
		}
	}
	return total
}
