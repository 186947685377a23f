package device

import (
	"encoding/hex"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"unsafe"

	"github.com/gen2brain/malgo"

	"github.com/u-stem/koto/internal/logger"
)

// BackendAuto lets miniaudio pick the host API.
const BackendAuto = "auto"

var malgoBackends = map[string]malgo.Backend{
	"alsa":      malgo.BackendAlsa,
	"pulse":     malgo.BackendPulseaudio,
	"jack":      malgo.BackendJack,
	"wasapi":    malgo.BackendWasapi,
	"dsound":    malgo.BackendDsound,
	"coreaudio": malgo.BackendCoreaudio,
	"null":      malgo.BackendNull,
}

// platformBackend returns the preferred host API for the running OS.
func platformBackend() (malgo.Backend, bool) {
	switch runtime.GOOS {
	case "linux":
		return malgo.BackendAlsa, true
	case "windows":
		return malgo.BackendWasapi, true
	case "darwin":
		return malgo.BackendCoreaudio, true
	}
	return 0, false
}

// MalgoBackend drives hardware through miniaudio.
type MalgoBackend struct {
	name string
	ctx  *malgo.AllocatedContext
	log  logger.Logger

	mu     sync.Mutex
	closed bool
}

// NewMalgoBackend initialises a miniaudio context. name is one of the keys of
// the backend table or "auto", which prefers the platform API.
func NewMalgoBackend(name string, log logger.Logger) (*MalgoBackend, error) {
	if log == nil {
		log = logger.Global().Module(ComponentDevice)
	}
	if name == "" {
		name = BackendAuto
	}
	key := strings.ToLower(name)

	var backends []malgo.Backend
	if key == BackendAuto {
		if b, ok := platformBackend(); ok {
			backends = []malgo.Backend{b}
		}
	} else {
		b, ok := malgoBackends[key]
		if !ok {
			return nil, newError(KindNoHost, "select_backend", fmt.Errorf("unknown audio backend %q", name))
		}
		backends = []malgo.Backend{b}
	}

	ctx, err := malgo.InitContext(backends, malgo.ContextConfig{}, func(message string) {
		log.Debug("miniaudio", logger.String("message", strings.TrimSpace(message)))
	})
	if err != nil {
		return nil, newError(KindNoHost, "init_context", err)
	}
	log.Info("audio host initialised", logger.String("backend", key), logger.String("os", runtime.GOOS))
	return &MalgoBackend{name: key, ctx: ctx, log: log}, nil
}

func (b *MalgoBackend) Name() string { return b.name }

// Devices lists playback or capture endpoints.
func (b *MalgoBackend) Devices(dir Direction) ([]DeviceInfo, error) {
	kind := malgo.Playback
	if dir == Input {
		kind = malgo.Capture
	}
	infos, err := b.ctx.Devices(kind)
	if err != nil {
		return nil, newError(KindNoHost, "enumerate_devices", err)
	}

	devices := make([]DeviceInfo, 0, len(infos))
	for i := range infos {
		info := &infos[i]
		if strings.Contains(info.Name(), "Discard all samples") {
			continue
		}
		d := DeviceInfo{
			ID:        decodeDeviceID(info.ID.String()),
			Name:      info.Name(),
			IsInput:   dir == Input,
			IsOutput:  dir == Output,
			IsDefault: info.IsDefault != 0,
		}
		if n := min(int(info.FormatCount), len(info.Formats)); n > 0 {
			d.SampleRate = info.Formats[0].SampleRate
			d.Channels = int(info.Formats[0].Channels)
		}
		devices = append(devices, d)
	}
	return devices, nil
}

// lookupID finds the malgo device ID behind a DeviceInfo.
func (b *MalgoBackend) lookupID(dir Direction, id string) (malgo.DeviceID, error) {
	kind := malgo.Playback
	if dir == Input {
		kind = malgo.Capture
	}
	infos, err := b.ctx.Devices(kind)
	if err != nil {
		return malgo.DeviceID{}, err
	}
	for i := range infos {
		if decodeDeviceID(infos[i].ID.String()) == id {
			return infos[i].ID, nil
		}
	}
	return malgo.DeviceID{}, fmt.Errorf("device %q disappeared", id)
}

// OpenStream initialises a playback or duplex device with float32 samples.
func (b *MalgoBackend) OpenStream(cfg StreamConfig, cb StreamCallbacks) (Stream, error) {
	kind := malgo.Playback
	if cfg.Input != nil {
		kind = malgo.Duplex
	}

	outID, err := b.lookupID(Output, cfg.Output.ID)
	if err != nil {
		return nil, newError(KindNoOutputDevice, "lookup_output", err)
	}

	dc := malgo.DefaultDeviceConfig(kind)
	dc.SampleRate = cfg.SampleRate
	dc.PeriodSizeInFrames = uint32(max(cfg.BufferFrames, 0))
	dc.Playback.Format = malgo.FormatF32
	dc.Playback.Channels = uint32(cfg.Channels)
	dc.Playback.DeviceID = outID.Pointer()
	dc.Alsa.NoMMap = 1

	if cfg.Input != nil {
		inID, err := b.lookupID(Input, cfg.Input.ID)
		if err != nil {
			return nil, newError(KindNoInputDevice, "lookup_input", err)
		}
		dc.Capture.Format = malgo.FormatF32
		dc.Capture.Channels = uint32(cfg.InputChannels)
		dc.Capture.DeviceID = inID.Pointer()
	}

	s := &malgoStream{}
	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutput, pInput []byte, frames uint32) {
			cb.Data(floatView(pOutput), floatView(pInput))
		},
		Stop: func() {
			if cb.Stopped != nil {
				cb.Stopped()
			}
		},
	}

	device, err := malgo.InitDevice(b.ctx.Context, dc, callbacks)
	if err != nil {
		return nil, newError(KindConfig, "init_device", err)
	}
	s.device = device
	s.format = Format{
		SampleRate:   device.SampleRate(),
		Channels:     int(device.PlaybackChannels()),
		BufferFrames: cfg.BufferFrames,
	}
	if cfg.Input != nil {
		s.format.InputChannels = int(device.CaptureChannels())
	}
	if device.PlaybackFormat() != malgo.FormatF32 {
		device.Uninit()
		return nil, newError(KindConfig, "negotiate_format",
			fmt.Errorf("device opened with sample format %d, want f32", device.PlaybackFormat()))
	}
	return s, nil
}

// Close releases the miniaudio context. It is safe to call twice.
func (b *MalgoBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	err := b.ctx.Uninit()
	b.ctx.Free()
	return err
}

type malgoStream struct {
	device *malgo.Device
	format Format
}

func (s *malgoStream) Format() Format { return s.format }
func (s *malgoStream) Start() error   { return s.device.Start() }
func (s *malgoStream) Stop() error    { return s.device.Stop() }
func (s *malgoStream) Close()         { s.device.Uninit() }

// floatView reinterprets a byte buffer of f32 samples without copying.
func floatView(b []byte) []float32 {
	if len(b) < 4 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), len(b)/4)
}

// decodeDeviceID turns miniaudio's hex encoded ID into text where possible.
func decodeDeviceID(hexID string) string {
	raw, err := hex.DecodeString(hexID)
	if err != nil {
		return hexID
	}
	id := strings.TrimRight(string(raw), "\x00")
	if id == "" {
		return hexID
	}
	return id
}
