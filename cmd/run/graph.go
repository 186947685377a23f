package run

import (
	"github.com/u-stem/koto/internal/audiocore/processors"
	"github.com/u-stem/koto/internal/device"
	"github.com/u-stem/koto/internal/graph"
)

// monitorGain is the input trim applied before the monitor strip.
const monitorGain = 1.0

// buildGraph returns the session graph: Master alone, or
// Input -> Gain -> Strip -> Master when monitoring a capture input.
func buildGraph(format device.Format, monitor bool) (*graph.Graph, error) {
	g := graph.New()
	master := g.AddNode(processors.NewMaster(format.Channels))
	if !monitor || format.InputChannels == 0 {
		return g, nil
	}

	const stereo = 2
	in := g.AddNode(processors.NewInput(format.InputChannels))
	gain, err := processors.NewGain("input", stereo, monitorGain)
	if err != nil {
		return nil, err
	}
	trim := g.AddNode(gain)
	strip := g.AddNode(processors.NewStrip("monitor", &processors.SoloGroup{}))

	for port := range stereo {
		// A mono input feeds both sides of the strip.
		g.Connect(graph.Connection{Source: in, SourcePort: port % format.InputChannels, Target: trim, TargetPort: port})
		g.Connect(graph.Connection{Source: trim, SourcePort: port, Target: strip, TargetPort: port})
		g.Connect(graph.Connection{Source: strip, SourcePort: port, Target: master, TargetPort: port % format.Channels})
	}
	return g, nil
}
