package devices

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/u-stem/koto/internal/device"
)

func TestPrint(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Print(&buf, "alsa", []device.DeviceInfo{
		{ID: "hw:0,0", Name: "Speakers", IsOutput: true, IsDefault: true, SampleRate: 48000, Channels: 2},
		{ID: "hw:1,0", Name: "Mic", IsInput: true},
	}))

	out := buf.String()
	assert.Contains(t, out, "backend: alsa")
	assert.Regexp(t, `output\s+\*\s+Speakers\s+hw:0,0\s+48000\s+2`, out)
	assert.Regexp(t, `input\s+Mic\s+hw:1,0\s+-\s+-`, out)
}

func TestPrintEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Print(&buf, "null", nil))
	assert.Contains(t, buf.String(), "no devices found")
}
