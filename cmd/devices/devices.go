// Package devices implements `koto devices`.
package devices

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/u-stem/koto/internal/conf"
	"github.com/u-stem/koto/internal/device"
	"github.com/u-stem/koto/internal/logger"
)

// Command lists playback and capture devices.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio devices",
		Long:  "List playback and capture devices of the configured audio backend.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := device.NewMalgoBackend(settings.Audio.Backend, logger.Global().Module("device"))
			if err != nil {
				return err
			}
			mgr := device.NewManager(backend, time.Duration(settings.Audio.DeviceCacheTTL)*time.Second)
			defer func() { _ = mgr.Close() }()

			list, err := mgr.AllDevices()
			if err != nil {
				return err
			}
			return Print(cmd.OutOrStdout(), backend.Name(), list)
		},
	}
}

// Print writes devices as an aligned table.
func Print(w io.Writer, backend string, list []device.DeviceInfo) error {
	fmt.Fprintf(w, "backend: %s\n\n", backend)
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "no devices found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DIRECTION\tDEFAULT\tNAME\tID\tRATE\tCHANNELS")
	for _, d := range list {
		direction := "output"
		if d.IsInput {
			direction = "input"
		}
		isDefault := ""
		if d.IsDefault {
			isDefault = "*"
		}
		rate := "-"
		if d.SampleRate > 0 {
			rate = fmt.Sprintf("%d", d.SampleRate)
		}
		channels := "-"
		if d.Channels > 0 {
			channels = fmt.Sprintf("%d", d.Channels)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", direction, isDefault, d.Name, d.ID, rate, channels)
	}
	return tw.Flush()
}
