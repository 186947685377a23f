package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineMetrics(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := NewEngineMetrics(registry)
	require.NoError(t, err)

	m.RecordCallback(256, 0.001)
	m.RecordCallback(256, 0.002)
	m.RecordUnderrun()
	m.RecordPanic()
	m.RecordQueueDrop(QueueEvent)
	m.RecordQueueDrop(QueueEvent)
	m.RecordQueueDrop("unknown")
	m.RecordRecordingSkip(SkipContention)
	m.SetDroppedRoutes(3)
	m.SetTransport(true, 128)
	m.AddRecordedBytes(1024)
	m.CommandCounter("play").Inc()

	assert.InDelta(t, 2, testutil.ToFloat64(m.callbacks), 0)
	assert.InDelta(t, 512, testutil.ToFloat64(m.framesProcessed), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.underruns), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.panics), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.queueDropped.WithLabelValues(QueueEvent)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.recordSkipped.WithLabelValues(SkipContention)), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.droppedRoutes), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.transportPlaying), 0)
	assert.InDelta(t, 128, testutil.ToFloat64(m.tempo), 0)
	assert.InDelta(t, 1024, testutil.ToFloat64(m.recordedBytes), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.commands.WithLabelValues("play")), 0)

	_, err = NewEngineMetrics(registry)
	require.Error(t, err, "duplicate registration")
}

func TestNilMetricsAreNoops(t *testing.T) {
	t.Parallel()

	var em *EngineMetrics
	em.RecordCallback(1, 1)
	em.RecordUnderrun()
	em.RecordQueueDrop(QueueCommand)
	assert.Nil(t, em.CommandCounter("play"))

	var dm *DeviceMetrics
	dm.RecordSessionOpen("null", nil, 48000, 256)
	dm.RecordDeviceError("stream")
}

func TestDeviceMetrics(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := NewDeviceMetrics(registry)
	require.NoError(t, err)

	m.RecordSessionOpen("null", errors.New("boom"), 0, 0)
	m.RecordSessionOpen("null", nil, 48000, 256)
	m.RecordDeviceError("stream")
	m.RecordEnumeration(SourceBackend, 0.01)
	m.RecordEnumeration(SourceCache, 0)

	assert.InDelta(t, 1, testutil.ToFloat64(m.sessionOpens.WithLabelValues("null", "error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.sessionOpens.WithLabelValues("null", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.sessionActive), 0)
	assert.InDelta(t, 48000, testutil.ToFloat64(m.negotiatedRate), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.enumerations.WithLabelValues(SourceCache)), 0)

	m.RecordSessionClosed()
	assert.InDelta(t, 0, testutil.ToFloat64(m.sessionActive), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.deviceErrors))
}
