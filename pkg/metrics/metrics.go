// Package metrics provides metrics implementations for altsheet
package metrics

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/memtensor/altsheet/pkg/interfaces"
)

// Metric names recorded by the publish and audit runs
const (
	DocumentsTotal     = "altsheet_documents_total"
	UploadsTotal       = "altsheet_uploads_total"
	RowsWrittenTotal   = "altsheet_rows_written_total"
	APICallSeconds     = "altsheet_api_call_duration_seconds"
	AuditDocuments     = "altsheet_audit_documents"
	AuditFiguresTotal  = "altsheet_audit_figures_total"
	AuditMissingAltSum = "altsheet_audit_missing_alt_total"
)

// NoOpMetrics is a no-operation metrics implementation
type NoOpMetrics struct{}

// Counter increments a counter metric
func (m *NoOpMetrics) Counter(name string, value float64, labels map[string]string) {}

// Gauge sets a gauge metric
func (m *NoOpMetrics) Gauge(name string, value float64, labels map[string]string) {}

// Histogram records a histogram metric
func (m *NoOpMetrics) Histogram(name string, value float64, labels map[string]string) {}

// Timer records timing metrics
func (m *NoOpMetrics) Timer(name string, duration float64, labels map[string]string) {}

// PrometheusMetrics records metrics in a private Prometheus registry.
// Vectors are created on first use; their label names are fixed by that
// first call and later calls with a different label set are dropped.
type PrometheusMetrics struct {
	registry   *prometheus.Registry
	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
	rejected   map[string]struct{}
}

// Counter increments a counter metric. Negative values are ignored.
func (m *PrometheusMetrics) Counter(name string, value float64, labels map[string]string) {
	if value < 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	vec, ok := m.counters[name]
	if !ok {
		if _, bad := m.rejected[name]; bad {
			return
		}
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: name}, labelNames(labels))
		if err := m.registry.Register(vec); err != nil {
			m.rejected[name] = struct{}{}
			return
		}
		m.counters[name] = vec
	}
	if c, err := vec.GetMetricWith(prometheus.Labels(labels)); err == nil {
		c.Add(value)
	}
}

// Gauge sets a gauge metric
func (m *PrometheusMetrics) Gauge(name string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	vec, ok := m.gauges[name]
	if !ok {
		if _, bad := m.rejected[name]; bad {
			return
		}
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: name}, labelNames(labels))
		if err := m.registry.Register(vec); err != nil {
			m.rejected[name] = struct{}{}
			return
		}
		m.gauges[name] = vec
	}
	if g, err := vec.GetMetricWith(prometheus.Labels(labels)); err == nil {
		g.Set(value)
	}
}

// Histogram records a histogram metric
func (m *PrometheusMetrics) Histogram(name string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	vec, ok := m.histograms[name]
	if !ok {
		if _, bad := m.rejected[name]; bad {
			return
		}
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    name,
			Help:    name,
			Buckets: prometheus.DefBuckets,
		}, labelNames(labels))
		if err := m.registry.Register(vec); err != nil {
			m.rejected[name] = struct{}{}
			return
		}
		m.histograms[name] = vec
	}
	if h, err := vec.GetMetricWith(prometheus.Labels(labels)); err == nil {
		h.Observe(value)
	}
}

// Timer records timing metrics; duration is in seconds
func (m *PrometheusMetrics) Timer(name string, duration float64, labels map[string]string) {
	m.Histogram(name, duration, labels)
}

// Gatherer exposes the underlying registry
func (m *PrometheusMetrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes every collected metric to path in the text
// exposition format, for pickup by a node_exporter textfile collector.
func (m *PrometheusMetrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func labelNames(labels map[string]string) []string {
	names := make([]string, 0, len(labels))
	for k := range labels {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

var _ interfaces.Metrics = (*NoOpMetrics)(nil)
var _ interfaces.Metrics = (*PrometheusMetrics)(nil)

// NewNoOpMetrics creates a new no-op metrics implementation
func NewNoOpMetrics() interfaces.Metrics {
	return &NoOpMetrics{}
}

// NewPrometheusMetrics creates a new Prometheus metrics implementation
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		registry:   prometheus.NewRegistry(),
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		rejected:   make(map[string]struct{}),
	}
}

// NewTestMetrics creates a metrics implementation for testing
func NewTestMetrics() interfaces.Metrics {
	return &NoOpMetrics{}
}
