// Package run implements `koto run`: open the audio device, start the engine
// and keep it running until interrupted.
package run

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/u-stem/koto/internal/audiocore/export"
	"github.com/u-stem/koto/internal/buildinfo"
	"github.com/u-stem/koto/internal/conf"
	"github.com/u-stem/koto/internal/cpuspec"
	"github.com/u-stem/koto/internal/device"
	"github.com/u-stem/koto/internal/engine"
	"github.com/u-stem/koto/internal/errors"
	"github.com/u-stem/koto/internal/logger"
	"github.com/u-stem/koto/internal/midi"
	"github.com/u-stem/koto/internal/observability"
	"github.com/u-stem/koto/internal/timebase"
)

// statusLinesPerSecond limits debug status lines from the poll loop.
const statusLinesPerSecond = 1

// Options are the per-invocation flags of the run command.
type Options struct {
	Duration time.Duration // stop after this long, 0 runs until interrupted
	Record   bool          // capture input into a WAV take
	Monitor  bool          // route input through the mixer to the output
}

// Command returns the run command.
func Command(settings *conf.Settings) *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the audio engine",
		Long:  "Open the configured audio device, start the transport and run until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return Run(ctx, settings, opts)
		},
	}

	if err := setupFlags(cmd, settings, &opts); err != nil {
		logger.Global().Module("run").Error("error setting up flags", logger.Error(err))
	}
	return cmd
}

func setupFlags(cmd *cobra.Command, settings *conf.Settings, opts *Options) error {
	flags := cmd.Flags()
	flags.DurationVar(&opts.Duration, "duration", 0, "Stop after this duration (0 runs until interrupted)")
	flags.BoolVar(&opts.Record, "record", false, "Record the input to a WAV file")
	flags.BoolVar(&opts.Monitor, "monitor", false, "Route the input to the output")
	flags.Float64("tempo", settings.Transport.Tempo, "Initial tempo in BPM")
	flags.Bool("metronome", settings.Transport.Metronome, "Enable the metronome click")
	flags.Float32("volume", settings.Transport.MasterVolume, "Master volume 0.0 - 1.0")
	flags.String("input-device", settings.Audio.InputDevice, "Capture device name, ID or name fragment")
	flags.String("output", settings.Recording.Path, "Directory for recorded takes")

	bindings := map[string]string{
		"tempo":        "transport.tempo",
		"metronome":    "transport.metronome",
		"volume":       "transport.mastervolume",
		"input-device": "audio.inputdevice",
		"output":       "recording.path",
	}
	for flag, key := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return err
		}
	}
	return nil
}

// Run opens the device, starts the engine and blocks until ctx is cancelled
// or opts.Duration has elapsed.
func Run(ctx context.Context, settings *conf.Settings, opts Options) error {
	log := logger.Global().Module("run")

	info := buildinfo.Current()
	log.Info("starting koto",
		logger.String("version", info.Version),
		logger.String("commit", info.Commit),
		logger.String("go_version", info.GoVersion))
	log.Info("host cpu", cpuspec.GetCPUSpec().Fields()...)
	if hostSpec, err := cpuspec.GetHostSpec(); err != nil {
		log.Debug("host information incomplete", logger.Error(err))
	} else {
		log.Info("host system", hostSpec.Fields()...)
	}

	m, err := observability.NewMetrics()
	if err != nil {
		return err
	}

	backend, err := device.NewMalgoBackend(settings.Audio.Backend, logger.Global().Module("device"))
	if err != nil {
		return err
	}
	mgr := device.NewManager(backend,
		time.Duration(settings.Audio.DeviceCacheTTL)*time.Second,
		device.WithMetrics(m.Device))
	defer func() {
		if err := mgr.Close(); err != nil {
			log.Warn("failed to close audio backend", logger.Error(err))
		}
	}()

	devCfg := device.ConfigFromSettings(&settings.Audio)
	if opts.Record || opts.Monitor {
		devCfg.InputEnabled = true
	}

	reporter := &engineReporter{}
	session, err := mgr.Open(devCfg, reporter)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Stop(); err != nil {
			log.Warn("failed to stop audio session", logger.Error(err))
		}
	}()

	format := session.Format()
	eng, err := newEngine(settings, format, m)
	if err != nil {
		return err
	}
	reporter.engine.Store(eng)

	g, err := buildGraph(format, opts.Monitor)
	if err != nil {
		return err
	}
	if err := eng.SetGraph(g); err != nil {
		return err
	}

	if err := session.Start(eng); err != nil {
		return err
	}
	log.Info("audio session started",
		logger.String("session_id", session.ID()),
		logger.String("device", session.OutputDevice().Name),
		logger.Int("sample_rate", int(format.SampleRate)),
		logger.Int("channels", format.Channels),
		logger.Int("input_channels", format.InputChannels),
		logger.Int("buffer_frames", format.BufferFrames))

	if opts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	group, gctx := errgroup.WithContext(ctx)

	if settings.Metrics.Enabled {
		endpoint, err := observability.NewEndpoint(settings, m)
		if err != nil {
			return err
		}
		group.Go(func() error { return endpoint.Run(gctx) })
	}

	if opts.Record {
		writer, err := openTake(settings, format, opts.Duration)
		if err != nil {
			return err
		}
		log.Info("recording take", logger.String("path", writer.Path()))
		group.Go(func() error {
			werr := eng.RunRecordingWriter(gctx, writer, engine.DefaultDrainInterval)
			cerr := writer.Close()
			if werr != nil {
				return werr
			}
			if cerr != nil {
				return cerr
			}
			log.Info("take saved",
				logger.String("path", writer.Path()),
				logger.Duration("length", writer.Duration()))
			return nil
		})
		eng.StartRecording()
		eng.StartTake()
	}

	eng.Play()

	group.Go(func() error {
		return pollEvents(gctx, eng)
	})

	err = group.Wait()
	eng.Stop()
	if eng.TakeRecording() {
		logTake(log, eng.StopTake())
	}
	if rec := eng.Recorder(); rec != nil {
		stats := rec.Stats()
		log.Info("capture statistics",
			logger.Uint64("captured_frames", stats.CapturedFrames),
			logger.Uint64("contention_skipped", stats.ContentionSkipped),
			logger.Uint64("overflow_skipped", stats.OverflowSkipped))
	}
	log.Info("koto stopped")
	return err
}

// logTake summarises the MIDI events recorded alongside the audio take.
func logTake(log logger.Logger, events []midi.Stamped) {
	fields := []logger.Field{logger.Int("midi_events", len(events))}
	if len(events) > 0 {
		fields = append(fields,
			logger.Int64("first_position", int64(events[0].Position)),
			logger.Int64("last_position", int64(events[len(events)-1].Position)))
	}
	log.Info("midi take stopped", fields...)
}

// newEngine builds the engine for the negotiated device format.
func newEngine(settings *conf.Settings, format device.Format, m *observability.Metrics) (*engine.Engine, error) {
	cfg := engine.ConfigFromSettings(settings)
	cfg.SampleRate = timebase.SampleRate(format.SampleRate)
	cfg.Channels = format.Channels
	cfg.InputChannels = format.InputChannels
	cfg.Metrics = m.Engine
	cfg.Logger = logger.Global().Module("engine")
	return engine.New(cfg)
}

// openTake creates the WAV file for a recorded take.
// The output directory must have room for a take of length d.
func openTake(settings *conf.Settings, format device.Format, d time.Duration) (*export.WAVWriter, error) {
	if format.InputChannels == 0 {
		return nil, errors.Newf("recording requires an input device").
			Component("run").
			Category(errors.CategoryConfiguration).
			Build()
	}
	cfg := export.DefaultConfig()
	cfg.OutputPath = settings.Recording.Path
	cfg.BitDepth = settings.Recording.BitDepth
	cfg.SampleRate = int(format.SampleRate)
	cfg.Channels = format.InputChannels
	if err := export.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.EnsureSpace(cfg.RequiredBytes(d)); err != nil {
		return nil, err
	}
	name := "take-" + uuid.NewString()[:8]
	return export.CreateWAV(cfg.FilePath(name, time.Now()), cfg.SampleRate, cfg.Channels, cfg.BitDepth)
}

// pollEvents drains engine events until ctx is done.
func pollEvents(ctx context.Context, eng *engine.Engine) error {
	reporter := engine.NewStatusReporter(eng, statusLinesPerSecond)
	ticker := time.NewTicker(engine.DefaultPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			reporter.Poll()
			return nil
		case <-ticker.C:
			reporter.Poll()
		}
	}
}

// engineReporter forwards device errors to the engine once it exists. The
// session needs a reporter at open time, before the negotiated format is
// known and the engine can be built.
type engineReporter struct {
	engine atomic.Pointer[engine.Engine]
}

func (r *engineReporter) ReportDeviceError(message string) bool {
	if e := r.engine.Load(); e != nil {
		return e.ReportDeviceError(message)
	}
	logger.Global().Module("run").Error("device error before engine start", logger.String("message", message))
	return false
}
