package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Enumeration source label values.
const (
	SourceCache   = "cache"
	SourceBackend = "backend"
)

// DeviceMetrics contains Prometheus metrics for device sessions.
// A nil *DeviceMetrics is valid and records nothing.
type DeviceMetrics struct {
	registry *prometheus.Registry

	sessionOpens        *prometheus.CounterVec
	sessionActive       prometheus.Gauge
	deviceErrors        *prometheus.CounterVec
	enumerations        *prometheus.CounterVec
	enumerationDuration prometheus.Histogram
	negotiatedRate      prometheus.Gauge
	negotiatedPeriod    prometheus.Gauge

	collectors []prometheus.Collector
}

// NewDeviceMetrics creates and registers device metrics.
func NewDeviceMetrics(registry *prometheus.Registry) (*DeviceMetrics, error) {
	m := &DeviceMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *DeviceMetrics) initMetrics() {
	m.sessionOpens = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "koto_device_session_opens_total",
		Help: "Device session open attempts",
	}, []string{"backend", "status"})
	m.sessionActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "koto_device_session_active",
		Help: "1 while a device session is running",
	})
	m.deviceErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "koto_device_errors_total",
		Help: "Device errors by kind",
	}, []string{"kind"})
	m.enumerations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "koto_device_enumerations_total",
		Help: "Device list requests by source",
	}, []string{"source"})
	m.enumerationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "koto_device_enumeration_duration_seconds",
		Help:    "Time spent enumerating devices through the backend",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	})
	m.negotiatedRate = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "koto_device_sample_rate_hz",
		Help: "Sample rate negotiated by the active session",
	})
	m.negotiatedPeriod = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "koto_device_period_frames",
		Help: "Period size negotiated by the active session",
	})

	m.collectors = []prometheus.Collector{
		m.sessionOpens,
		m.sessionActive,
		m.deviceErrors,
		m.enumerations,
		m.enumerationDuration,
		m.negotiatedRate,
		m.negotiatedPeriod,
	}
}

// Describe implements the Collector interface
func (m *DeviceMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *DeviceMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordSessionOpen counts an open attempt. On success it also publishes the
// negotiated format and marks the session active.
func (m *DeviceMetrics) RecordSessionOpen(backend string, err error, sampleRate, periodFrames int) {
	if m == nil {
		return
	}
	if err != nil {
		m.sessionOpens.WithLabelValues(backend, "error").Inc()
		return
	}
	m.sessionOpens.WithLabelValues(backend, "success").Inc()
	m.sessionActive.Set(1)
	m.negotiatedRate.Set(float64(sampleRate))
	m.negotiatedPeriod.Set(float64(periodFrames))
}

// RecordSessionClosed marks the session inactive.
func (m *DeviceMetrics) RecordSessionClosed() {
	if m == nil {
		return
	}
	m.sessionActive.Set(0)
}

// RecordDeviceError counts an error of the given kind.
func (m *DeviceMetrics) RecordDeviceError(kind string) {
	if m == nil {
		return
	}
	m.deviceErrors.WithLabelValues(kind).Inc()
}

// RecordEnumeration counts a device list request. Duration is observed only
// for backend enumerations.
func (m *DeviceMetrics) RecordEnumeration(source string, seconds float64) {
	if m == nil {
		return
	}
	m.enumerations.WithLabelValues(source).Inc()
	if source == SourceBackend {
		m.enumerationDuration.Observe(seconds)
	}
}
