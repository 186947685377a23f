// Package cmd wires the koto command line.
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/u-stem/koto/cmd/configcmd"
	"github.com/u-stem/koto/cmd/devices"
	"github.com/u-stem/koto/cmd/run"
	"github.com/u-stem/koto/internal/buildinfo"
	"github.com/u-stem/koto/internal/conf"
	"github.com/u-stem/koto/internal/logger"
	"github.com/u-stem/koto/internal/telemetry"
)

// skipInitAnnotation marks commands that run without loading settings.
const skipInitAnnotation = "koto/skip-init"

const telemetryFlushTimeout = 2 * time.Second

// RootCommand creates the root command. settings is filled from config
// files, environment and flags before any subcommand runs.
func RootCommand() *cobra.Command {
	settings := conf.Defaults()
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "koto",
		Short:         "koto real-time audio engine",
		Version:       buildinfo.Current().Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config.yaml (default: search ., ~/.config/koto, /etc/koto)")
	if err := setupFlags(rootCmd, settings); err != nil {
		panic(fmt.Sprintf("error setting up flags: %v", err))
	}

	rootCmd.AddCommand(
		run.Command(settings),
		devices.Command(settings),
		configcmd.Command(skipInitAnnotation),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if _, skip := cmd.Annotations[skipInitAnnotation]; skip {
			return nil
		}
		return initialize(settings, configFile)
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		telemetry.Flush(telemetryFlushTimeout)
		_ = logger.Global().Flush()
	}

	return rootCmd
}

// initialize loads settings and sets up logging and telemetry.
func initialize(settings *conf.Settings, configFile string) error {
	loaded, err := conf.Load(configFile)
	if err != nil {
		return err
	}
	*settings = *loaded

	if err := setupLogging(settings); err != nil {
		return err
	}

	info := buildinfo.Current()
	if err := telemetry.InitSentry(settings, info.Version); err != nil {
		logger.Global().Module("telemetry").Warn("telemetry disabled", logger.Error(err))
	}
	return nil
}

// setupLogging replaces the global logger with one built from settings.
func setupLogging(settings *conf.Settings) error {
	cfg := settings.Logging
	if settings.Debug {
		cfg.DefaultLevel = string(logger.LogLevelDebug)
		if cfg.Console != nil {
			console := *cfg.Console
			console.Level = string(logger.LogLevelDebug)
			cfg.Console = &console
		}
	}
	central, err := logger.NewCentralLogger(&cfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	logger.SetGlobal(central)
	return nil
}

// setupFlags defines global flags and binds them to their settings keys.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	flags := rootCmd.PersistentFlags()
	flags.BoolP("debug", "d", settings.Debug, "Enable debug output")
	flags.String("backend", settings.Audio.Backend, "Audio host API (auto, alsa, pulse, jack, wasapi, dsound, coreaudio, null)")
	flags.String("device", settings.Audio.Device, "Output device name, ID or name fragment")
	flags.Uint32("samplerate", settings.Audio.SampleRate, "Requested sample rate in Hz")
	flags.Int("bufferframes", settings.Audio.BufferFrames, "Requested period size in frames")

	bindings := map[string]string{
		"debug":        "debug",
		"backend":      "audio.backend",
		"device":       "audio.device",
		"samplerate":   "audio.samplerate",
		"bufferframes": "audio.bufferframes",
	}
	for flag, key := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", flag, err)
		}
	}
	return nil
}
