// Package metrics описывает метрики обработки архивов в формате Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Исходы прогона для метки outcome.
const (
	OutcomeCompleted    = "completed"
	OutcomeNoData       = "no_data"
	OutcomeInvalidInput = "invalid_input"
	OutcomeFailed       = "failed"
)

// Metrics хранит счетчики сервиса. Нулевое значение не используется,
// создавайте через New.
type Metrics struct {
	registry *prometheus.Registry

	Runs              *prometheus.CounterVec
	MessagesProcessed prometheus.Counter
	CacheHits         prometheus.Counter
	RunDuration       prometheus.Histogram
}

// New создает метрики в собственном реестре, чтобы тесты и несколько
// экземпляров сервера не конфликтовали в глобальном.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chatstats_runs_total",
			Help: "Total number of processed archives by outcome.",
		}, []string{"outcome"}),
		MessagesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatstats_messages_processed_total",
			Help: "Total number of user messages aggregated.",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatstats_cache_hits_total",
			Help: "Total number of reports served from cache.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chatstats_run_duration_seconds",
			Help:    "Duration of a single archive processing run.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(m.Runs, m.MessagesProcessed, m.CacheHits, m.RunDuration)
	return m
}

// ObserveRun учитывает один завершенный прогон.
func (m *Metrics) ObserveRun(outcome string, seconds float64, messages int) {
	m.Runs.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe(seconds)
	if messages > 0 {
		m.MessagesProcessed.Add(float64(messages))
	}
}

// Handler возвращает обработчик /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
