package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "smart_billboard"

// Metrics holds the Prometheus collectors for the message service.
type Metrics struct {
	MessagesGenerated *prometheus.CounterVec // labels: outcome={success,invalid,weather_error,generation_error,error}
	Recommendations   *prometheus.CounterVec // labels: policy, offering
	GenerationCalls   *prometheus.CounterVec // labels: provider
	ContentRejections *prometheus.CounterVec // labels: term
	RequestDuration   prometheus.Histogram

	// Geocoding metrics.
	GeocodeCache *prometheus.CounterVec // labels: method={forward,reverse}, result={hit,miss}
	WeatherFails *prometheus.CounterVec // labels: provider
}

// NewMetrics creates the collectors and registers them with reg. Tests pass
// a fresh prometheus.NewRegistry() to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		MessagesGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Message generation requests by outcome.",
		}, []string{"outcome"}),
		Recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_total",
			Help:      "Offerings selected by the recommendation policy.",
		}, []string{"policy", "offering"}),
		GenerationCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_calls_total",
			Help:      "Language model calls, including content guard retries.",
		}, []string{"provider"}),
		ContentRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_rejections_total",
			Help:      "Generated messages rejected by the content guard.",
		}, []string{"term"}),
		RequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "message_duration_seconds",
			Help:      "End-to-end duration of a message generation request.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
		WeatherFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_provider_failures_total",
			Help:      "Weather provider failures before failover.",
		}, []string{"provider"}),
	}

	reg.MustRegister(
		m.MessagesGenerated,
		m.Recommendations,
		m.GenerationCalls,
		m.ContentRejections,
		m.RequestDuration,
		m.GeocodeCache,
		m.WeatherFails,
	)

	return m
}

// ObserveGeocodeCache matches geo.LookupObserver.
func (m *Metrics) ObserveGeocodeCache(method string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.GeocodeCache.WithLabelValues(method, result).Inc()
}

// GenerationCall and ContentRejected satisfy compose.Observer.
func (m *Metrics) GenerationCall(provider string) {
	m.GenerationCalls.WithLabelValues(provider).Inc()
}

func (m *Metrics) ContentRejected(term string) {
	m.ContentRejections.WithLabelValues(term).Inc()
}

// WeatherFailure matches the weather failure hook.
func (m *Metrics) WeatherFailure(provider string, _ error) {
	m.WeatherFails.WithLabelValues(provider).Inc()
}
