package device

import (
	"sync"
	"sync/atomic"

	"github.com/u-stem/koto/internal/errors"
	"github.com/u-stem/koto/internal/logger"
	"github.com/u-stem/koto/internal/observability/metrics"
)

// unexpectedStopMessage is reported when the backend stops a running stream.
const unexpectedStopMessage = "audio stream stopped unexpectedly"

type processorRef struct{ p Processor }

// Session is an opened device stream. The data callback renders through the
// installed Processor, or outputs silence when none is installed or the
// session is being torn down.
type Session struct {
	id       string
	backend  string
	stream   Stream
	format   Format
	output   DeviceInfo
	input    *DeviceInfo
	reporter ErrorReporter
	log      logger.Logger
	metrics  *metrics.DeviceMetrics

	processor  atomic.Pointer[processorRef]
	callbackMu sync.Mutex // held by the data callback, and by Stop during teardown
	stopping   atomic.Bool
	running    atomic.Bool

	stopOnce sync.Once
	stopErr  error
}

// ID is a unique identifier for this session, used in logs.
func (s *Session) ID() string { return s.id }

// Format returns the negotiated stream format.
func (s *Session) Format() Format { return s.format }

// OutputDevice returns the playback device.
func (s *Session) OutputDevice() DeviceInfo { return s.output }

// InputDevice returns the capture device, or false for playback-only sessions.
func (s *Session) InputDevice() (DeviceInfo, bool) {
	if s.input == nil {
		return DeviceInfo{}, false
	}
	return *s.input, true
}

// Running reports whether the stream has been started and not stopped.
func (s *Session) Running() bool { return s.running.Load() }

// Start installs p and starts the stream. A stream that fails to start is
// torn down.
func (s *Session) Start(p Processor) error {
	if p == nil {
		return errors.Newf("nil processor").
			Component(ComponentDevice).
			Category(errors.CategoryValidation).
			Build()
	}
	if s.stopping.Load() {
		return errors.Newf("session %s is stopped", s.id).
			Component(ComponentDevice).
			Category(errors.CategoryState).
			Build()
	}
	if s.running.Load() {
		return errors.Newf("session %s already running", s.id).
			Component(ComponentDevice).
			Category(errors.CategoryState).
			Build()
	}

	s.processor.Store(&processorRef{p: p})
	if err := s.stream.Start(); err != nil {
		s.metrics.RecordDeviceError(KindStream.String())
		_ = s.Stop()
		return newError(KindStream, "start_stream", err)
	}
	s.running.Store(true)
	s.log.Info("audio stream started", logger.String("session_id", s.id))
	return nil
}

// Stop detaches the processor, waits for an in-flight callback, stops the
// stream and releases it. Only the first call does any work.
func (s *Session) Stop() error {
	s.stopOnce.Do(func() {
		s.stopping.Store(true)
		s.processor.Store(nil)

		s.callbackMu.Lock()
		var errs []error
		if err := s.stream.Stop(); err != nil {
			errs = append(errs, newError(KindStream, "stop_stream", err))
		}
		s.stream.Close()
		s.callbackMu.Unlock()

		s.running.Store(false)
		s.metrics.RecordSessionClosed()
		s.stopErr = errors.Join(errs...)
		s.log.Info("audio session closed", logger.String("session_id", s.id))
	})
	return s.stopErr
}

// onData runs on the audio thread.
func (s *Session) onData(out, in []float32) {
	if !s.callbackMu.TryLock() {
		clear(out)
		return
	}
	defer s.callbackMu.Unlock()

	ref := s.processor.Load()
	if ref == nil {
		clear(out)
		return
	}
	ref.p.Process(out, in)
}

// onStopped runs on a backend thread whenever the stream stops.
func (s *Session) onStopped() {
	if s.stopping.Load() {
		return
	}
	s.running.Store(false)
	s.metrics.RecordDeviceError(KindStream.String())
	if s.reporter != nil {
		s.reporter.ReportDeviceError(unexpectedStopMessage)
	}
	s.log.Warn("audio stream stopped by backend", logger.String("session_id", s.id))
}
