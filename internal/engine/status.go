package engine

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/u-stem/koto/internal/logger"
	"github.com/u-stem/koto/internal/observability/metrics"
	"github.com/u-stem/koto/internal/timebase"
)

// Status is the control thread's latest-known view of the engine, folded
// from drained events. Events are lossy, so later events always win.
type Status struct {
	Playing         bool
	Recording       bool
	Playhead        timebase.SamplePosition
	Meter           MeterLevels
	LastDeviceError string
	Underruns       uint64
	DroppedRoutes   int
}

// Apply folds events into s.
func (s *Status) Apply(events []Event) {
	for _, ev := range events {
		switch ev.Kind {
		case EventPlayheadMoved:
			s.Playhead = ev.Position
		case EventMeterUpdate:
			s.Meter = ev.Meter
		case EventTransportStateChanged:
			s.Playing = ev.Playing
			s.Recording = ev.Recording
		case EventDeviceError:
			s.LastDeviceError = ev.Message
		case EventBufferUnderrun:
			s.Underruns++
		case EventGraphError:
			s.DroppedRoutes = ev.DroppedRoutes
		}
	}
}

// PlayheadSeconds returns the playhead in seconds at the given rate.
func (s Status) PlayheadSeconds(r timebase.SampleRate) float64 {
	return s.Playhead.Seconds(r)
}

// StatusReporter drains engine events, folds them into a Status and logs
// them. Meter and playhead lines are rate limited; transport changes and
// errors are logged as they arrive.
type StatusReporter struct {
	engine  *Engine
	log     logger.Logger
	metrics *metrics.EngineMetrics
	limiter *rate.Limiter
	tempo   timebase.Tempo

	status Status
	buf    []Event
}

// NewStatusReporter logs at most perSecond meter lines per second.
func NewStatusReporter(e *Engine, perSecond float64) *StatusReporter {
	if perSecond <= 0 {
		perSecond = 1
	}
	return &StatusReporter{
		engine:  e,
		log:     e.log.Module("status"),
		metrics: e.metrics,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		tempo:   e.cfg.Tempo,
		buf:     make([]Event, 0, e.cfg.EventCapacity),
	}
}

// SetTempo updates the tempo published alongside transport metrics.
func (r *StatusReporter) SetTempo(t timebase.Tempo) { r.tempo = t }

// Status returns the folded state.
func (r *StatusReporter) Status() Status { return r.status }

// Poll drains pending events and returns them. The returned slice is reused
// by the next call.
func (r *StatusReporter) Poll() []Event {
	r.buf = r.engine.ReceiveEvents(r.buf[:0])
	r.status.Apply(r.buf)

	rateHz := r.engine.SampleRate()
	for _, ev := range r.buf {
		switch ev.Kind {
		case EventTransportStateChanged:
			r.log.Info("transport changed",
				logger.Bool("playing", ev.Playing),
				logger.Bool("recording", ev.Recording))
			r.metrics.SetTransport(ev.Playing, r.tempo.BPM())
		case EventDeviceError:
			r.log.Error("device error", logger.String("message", ev.Message))
		case EventBufferUnderrun:
			r.log.Warn("buffer underrun", logger.Uint64("total", r.status.Underruns))
		case EventGraphError:
			r.log.Warn("graph plan dropped invalid connections",
				logger.Int("dropped_routes", ev.DroppedRoutes))
		}
	}

	if len(r.buf) > 0 && r.limiter.Allow() {
		m := r.status.Meter
		r.log.Debug("engine status",
			logger.Float64("playhead_seconds", r.status.PlayheadSeconds(rateHz)),
			logger.Float64("peak_left_dbfs", PeakToDBFS(m.PeakLeft)),
			logger.Float64("peak_right_dbfs", PeakToDBFS(m.PeakRight)),
			logger.Float32("rms_left", m.RMSLeft),
			logger.Float32("rms_right", m.RMSRight))
	}
	return r.buf
}

// DefaultPollInterval is how often the control loop drains events.
const DefaultPollInterval = 50 * time.Millisecond
