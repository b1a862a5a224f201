package audio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"go.uber.org/zap"

	"github.com/thindery/pantry-pal/internal/voice"
)

// playbackDevice plays 24 kHz mono PCM16 through the default output device.
// Queued bytes sit in a buffer drained by the device callback; when the
// buffer runs dry the callback emits silence, so the device can stay running
// across gaps between responses.
type playbackDevice struct {
	logger *zap.Logger

	mu  sync.Mutex
	dev *malgo.Device
	buf []byte
}

func newPlaybackDevice(ctx *malgo.AllocatedContext, logger *zap.Logger) (*playbackDevice, error) {
	p := &playbackDevice{logger: logger}

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.SampleRate = voice.OutputSampleRate
	config.PeriodSizeInMilliseconds = periodMS
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = voice.Channels
	config.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(output, _ []byte, frameCount uint32) {
			p.fill(output)
		},
	}

	dev, err := malgo.InitDevice(ctx.Context, config, callbacks)
	if err != nil {
		return nil, fmt.Errorf("failed to open playback device: %w", err)
	}
	if err := dev.Start(); err != nil {
		dev.Uninit()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}
	p.dev = dev
	logger.Info("playback device started",
		zap.Int("sample_rate", voice.OutputSampleRate))
	return p, nil
}

// fill copies queued bytes into the device buffer and zero-fills the rest.
func (p *playbackDevice) fill(output []byte) {
	p.mu.Lock()
	n := copy(output, p.buf)
	p.buf = p.buf[n:]
	p.mu.Unlock()
	for i := n; i < len(output); i++ {
		output[i] = 0
	}
}

// Write queues PCM16 bytes for playback.
func (p *playbackDevice) Write(pcm []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dev == nil {
		return fmt.Errorf("playback device is closed")
	}
	p.buf = append(p.buf, pcm...)
	return nil
}

// Reset discards anything queued but not yet played.
func (p *playbackDevice) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buf = nil
	return nil
}

// Close stops the device and releases it. Safe to call more than once.
// Uninit waits for the data callback to drain, so it runs outside the lock.
func (p *playbackDevice) Close() error {
	p.mu.Lock()
	dev := p.dev
	p.dev = nil
	p.buf = nil
	p.mu.Unlock()
	if dev == nil {
		return nil
	}
	dev.Uninit()
	p.logger.Info("playback device closed")
	return nil
}
