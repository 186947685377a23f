// Package telemetry initialises opt-in Sentry error reporting and connects it
// to the errors package. Prometheus metrics live in observability.
package telemetry

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/u-stem/koto/internal/conf"
	"github.com/u-stem/koto/internal/errors"
	"github.com/u-stem/koto/internal/logger"
)

var initialized atomic.Bool

// InitSentry initialises the Sentry SDK when telemetry is enabled and a DSN is
// configured, and installs the Sentry reporter for enhanced errors.
func InitSentry(settings *conf.Settings, version string) error {
	log := logger.Global().Module("telemetry")

	if !settings.Telemetry.Enabled {
		log.Debug("error telemetry is disabled (opt-in required)")
		return nil
	}
	if settings.Telemetry.DSN == "" {
		log.Warn("error telemetry enabled without a DSN, reporting stays off")
		return nil
	}

	errors.SetPrivacyScrubber(logger.RedactSensitiveData)

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              settings.Telemetry.DSN,
		SampleRate:       1.0,
		AttachStacktrace: false,
		Environment:      "production",
		ServerName:       "",
		Release:          fmt.Sprintf("koto@%s", version),
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return applyPrivacyFilters(event)
		},
	})
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}

	errors.SetTelemetryReporter(errors.NewSentryReporter(true))
	initialized.Store(true)
	log.Info("error telemetry enabled", logger.String("release", version))
	return nil
}

// Enabled reports whether Sentry was initialised.
func Enabled() bool { return initialized.Load() }

// Flush waits up to timeout for queued events to be sent.
func Flush(timeout time.Duration) bool {
	if !initialized.Load() {
		return true
	}
	return sentry.Flush(timeout)
}

// applyPrivacyFilters strips host and user identification from an event
func applyPrivacyFilters(event *sentry.Event) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""
	event.Message = errors.ScrubMessage(event.Message)
	for i := range event.Exception {
		event.Exception[i].Value = errors.ScrubMessage(event.Exception[i].Value)
	}

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
		delete(event.Contexts, "runtime")
	}

	for k := range event.Extra {
		if k != "error_type" && k != "component" {
			delete(event.Extra, k)
		}
	}

	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}

	return event
}
