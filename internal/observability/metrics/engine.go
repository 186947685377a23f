// Package metrics provides the Prometheus collectors for the audio engine and
// device layer.
//
// Collectors used from the audio thread are resolved when the metrics are
// created, so hot-path updates are plain atomic adds with no label lookup.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Queue label values.
const (
	QueueCommand = "command"
	QueueEvent   = "event"
	QueueMIDI    = "midi"
	QueueNotice  = "notice"
)

// Recording skip reasons.
const (
	SkipContention = "contention"
	SkipOverflow   = "overflow"
)

// EngineMetrics contains Prometheus metrics for the audio callback engine.
// A nil *EngineMetrics is valid and records nothing.
type EngineMetrics struct {
	registry *prometheus.Registry

	callbacks        prometheus.Counter
	framesProcessed  prometheus.Counter
	underruns        prometheus.Counter
	panics           prometheus.Counter
	poolExhausted    prometheus.Counter
	callbackDuration prometheus.Histogram
	droppedRoutes    prometheus.Gauge
	transportPlaying prometheus.Gauge
	tempo            prometheus.Gauge

	commands      *prometheus.CounterVec
	queueDropped  *prometheus.CounterVec
	recordSkipped *prometheus.CounterVec
	recordedBytes prometheus.Counter

	// pre-resolved children
	droppedCommand    prometheus.Counter
	droppedEvent      prometheus.Counter
	droppedMIDI       prometheus.Counter
	droppedNotice     prometheus.Counter
	skippedContention prometheus.Counter
	skippedOverflow   prometheus.Counter

	collectors []prometheus.Collector
}

// NewEngineMetrics creates and registers engine metrics.
func NewEngineMetrics(registry *prometheus.Registry) (*EngineMetrics, error) {
	m := &EngineMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *EngineMetrics) initMetrics() {
	m.callbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "koto_engine_callbacks_total",
		Help: "Total number of audio callback invocations",
	})
	m.framesProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "koto_engine_frames_processed_total",
		Help: "Total number of frames rendered by the engine",
	})
	m.underruns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "koto_engine_underruns_total",
		Help: "Callbacks that exceeded their real-time budget",
	})
	m.panics = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "koto_engine_callback_panics_total",
		Help: "Panics recovered inside the audio callback",
	})
	m.poolExhausted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "koto_engine_buffer_pool_exhausted_total",
		Help: "Blocks skipped because the buffer pool ran out",
	})
	m.callbackDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "koto_engine_callback_duration_seconds",
		Help:    "Time spent inside the audio callback",
		Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12), // 50us to ~100ms
	})
	m.droppedRoutes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "koto_engine_dropped_routes",
		Help: "Connections skipped by the active plan because of invalid ports",
	})
	m.transportPlaying = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "koto_engine_transport_playing",
		Help: "1 while the transport is playing",
	})
	m.tempo = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "koto_engine_tempo_bpm",
		Help: "Current transport tempo",
	})
	m.commands = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "koto_engine_commands_total",
		Help: "Commands applied by the audio thread",
	}, []string{"kind"})
	m.queueDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "koto_engine_queue_dropped_total",
		Help: "Items dropped because a queue was full",
	}, []string{"queue"})
	m.recordSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "koto_engine_recording_skipped_total",
		Help: "Capture periods skipped by the recorder",
	}, []string{"reason"})
	m.recordedBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "koto_engine_recorded_bytes_total",
		Help: "Bytes drained from the capture buffer by the writer",
	})

	m.droppedCommand = m.queueDropped.WithLabelValues(QueueCommand)
	m.droppedEvent = m.queueDropped.WithLabelValues(QueueEvent)
	m.droppedMIDI = m.queueDropped.WithLabelValues(QueueMIDI)
	m.droppedNotice = m.queueDropped.WithLabelValues(QueueNotice)
	m.skippedContention = m.recordSkipped.WithLabelValues(SkipContention)
	m.skippedOverflow = m.recordSkipped.WithLabelValues(SkipOverflow)

	m.collectors = []prometheus.Collector{
		m.callbacks,
		m.framesProcessed,
		m.underruns,
		m.panics,
		m.poolExhausted,
		m.callbackDuration,
		m.droppedRoutes,
		m.transportPlaying,
		m.tempo,
		m.commands,
		m.queueDropped,
		m.recordSkipped,
		m.recordedBytes,
	}
}

// Describe implements the Collector interface
func (m *EngineMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *EngineMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// CommandCounter resolves the counter for a command kind. Call it at
// construction time and keep the result for the audio thread.
func (m *EngineMetrics) CommandCounter(kind string) prometheus.Counter {
	if m == nil {
		return nil
	}
	return m.commands.WithLabelValues(kind)
}

// Audio-thread recorders

// RecordCallback counts one callback and its duration.
func (m *EngineMetrics) RecordCallback(frames int, seconds float64) {
	if m == nil {
		return
	}
	m.callbacks.Inc()
	m.framesProcessed.Add(float64(frames))
	m.callbackDuration.Observe(seconds)
}

// RecordUnderrun counts a callback that overran its budget.
func (m *EngineMetrics) RecordUnderrun() {
	if m == nil {
		return
	}
	m.underruns.Inc()
}

// RecordPanic counts a recovered callback panic.
func (m *EngineMetrics) RecordPanic() {
	if m == nil {
		return
	}
	m.panics.Inc()
}

// RecordPoolExhausted counts a block abandoned for lack of buffers.
func (m *EngineMetrics) RecordPoolExhausted() {
	if m == nil {
		return
	}
	m.poolExhausted.Inc()
}

// RecordQueueDrop counts one dropped item on the named queue.
func (m *EngineMetrics) RecordQueueDrop(queue string) {
	if m == nil {
		return
	}
	switch queue {
	case QueueCommand:
		m.droppedCommand.Inc()
	case QueueEvent:
		m.droppedEvent.Inc()
	case QueueMIDI:
		m.droppedMIDI.Inc()
	case QueueNotice:
		m.droppedNotice.Inc()
	}
}

// RecordRecordingSkip counts a capture period the recorder could not store.
func (m *EngineMetrics) RecordRecordingSkip(reason string) {
	if m == nil {
		return
	}
	switch reason {
	case SkipContention:
		m.skippedContention.Inc()
	case SkipOverflow:
		m.skippedOverflow.Inc()
	}
}

// SetDroppedRoutes publishes the invalid-route count of the active plan.
func (m *EngineMetrics) SetDroppedRoutes(n int) {
	if m == nil {
		return
	}
	m.droppedRoutes.Set(float64(n))
}

// Control-thread recorders

// SetTransport publishes the transport state folded from engine events.
func (m *EngineMetrics) SetTransport(playing bool, bpm float64) {
	if m == nil {
		return
	}
	if playing {
		m.transportPlaying.Set(1)
	} else {
		m.transportPlaying.Set(0)
	}
	m.tempo.Set(bpm)
}

// AddRecordedBytes counts bytes moved from the capture buffer to disk.
func (m *EngineMetrics) AddRecordedBytes(n int) {
	if m == nil {
		return
	}
	m.recordedBytes.Add(float64(n))
}
