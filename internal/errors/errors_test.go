package errors

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSentinel = NewStd("sentinel")

func TestBuildDefaults(t *testing.T) {
	t.Parallel()

	ee := New(fmt.Errorf("test error")).Build()

	assert.Equal(t, "test error", ee.Error())
	assert.Equal(t, ComponentUnknown, ee.Component)
	assert.Equal(t, CategoryGeneric, ee.Category)
	assert.False(t, ee.Timestamp.IsZero())
}

func TestBuilderCarriesMetadata(t *testing.T) {
	t.Parallel()

	ee := New(errSentinel).
		Component("graph").
		Category(CategoryGraph).
		Priority(PriorityHigh).
		Context("nodes", 3).
		Build()

	assert.Equal(t, "graph", ee.Component)
	assert.Equal(t, CategoryGraph, ee.Category)
	assert.Equal(t, PriorityHigh, ee.Priority)
	assert.Equal(t, map[string]any{"nodes": 3}, ee.GetContext())
}

func TestInvalidPriorityFallsBack(t *testing.T) {
	t.Parallel()

	assert.Equal(t, PriorityMedium, New(errSentinel).Priority("urgent").Build().Priority)
	assert.Empty(t, New(errSentinel).Priority("").Build().Priority)
}

func TestSentinelMatchesThroughWrapping(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("scheduling: %w", New(errSentinel).Category(CategoryGraph).Build())

	require.ErrorIs(t, err, errSentinel)
	assert.True(t, IsCategory(err, CategoryGraph))
	assert.False(t, IsNotFound(err))
}

func TestCategoryDetectedFromWrappedError(t *testing.T) {
	t.Parallel()

	inner := New(errSentinel).Category(CategoryMIDI).Build()
	outer := New(inner).Component("midi").Build()

	assert.Equal(t, CategoryMIDI, outer.Category)
}

func TestEnhancedErrorIsComparesCategory(t *testing.T) {
	t.Parallel()

	a := New(NewStd("a")).Category(CategoryLimit).Build()
	b := New(NewStd("b")).Category(CategoryLimit).Build()
	c := New(NewStd("c")).Category(CategoryState).Build()

	assert.ErrorIs(t, a, b)
	assert.NotErrorIs(t, a, c)
}

func TestTimingContext(t *testing.T) {
	t.Parallel()

	ee := New(errSentinel).Timing("open_device", 0).Build()
	assert.Equal(t, "open_device", ee.Context["operation"])
	assert.Equal(t, int64(0), ee.Context["duration_ms"])
}

func TestGenerateErrorTitle(t *testing.T) {
	t.Parallel()

	ee := New(errSentinel).
		Component("device").
		Category(CategoryAudioDevice).
		Context("operation", "open_stream").
		Build()

	assert.Equal(t, "Device Audio Device Error Open Stream", generateErrorTitle(ee))
}

func TestBasicScrub(t *testing.T) {
	t.Parallel()

	scrubbed := basicScrub("Error at https://example.com/x?token=abc")
	assert.Equal(t, "Error at https://example.com/x?[REDACTED]", scrubbed)

	scrubbed = basicScrub("cannot open /home/alice/koto/take.wav")
	assert.NotContains(t, scrubbed, "alice")
	assert.Contains(t, scrubbed, "/home/[USER]")

	scrubbed = basicScrub("dsn=https://abc@sentry.example/1 failed")
	assert.True(t, strings.Contains(scrubbed, "[SECRET_REDACTED]"))
}

// The scrubber is package state, so this test does not run in parallel.
func TestPrivacyScrubberRunsAfterBuiltinRules(t *testing.T) {
	SetPrivacyScrubber(func(m string) string {
		return strings.ReplaceAll(m, "Studio Monitor", "[DEVICE]")
	})
	t.Cleanup(func() { SetPrivacyScrubber(nil) })

	scrubbed := ScrubMessage("Studio Monitor lost at /home/alice/koto")
	assert.Equal(t, "[DEVICE] lost at /home/[USER]/koto", scrubbed)

	SetPrivacyScrubber(nil)
	assert.Equal(t, "Studio Monitor lost", ScrubMessage("Studio Monitor lost"))
}

// Hook registration mutates package state, so this test does not run in parallel.
func TestErrorHooks(t *testing.T) {
	var seen atomic.Int32
	AddErrorHook(func(ee *EnhancedError) {
		if ee.Component == "hook-test" {
			seen.Add(1)
		}
	})
	t.Cleanup(ClearErrorHooks)

	New(errSentinel).Component("hook-test").Build()
	assert.Equal(t, int32(1), seen.Load())

	ClearErrorHooks()
	New(errSentinel).Component("hook-test").Build()
	assert.Equal(t, int32(1), seen.Load())
}
