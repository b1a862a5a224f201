// Package audio provides microphone capture and speaker playback devices
// backed by malgo (miniaudio).
package audio

import (
	"fmt"

	"github.com/gen2brain/malgo"
	"go.uber.org/zap"

	"github.com/thindery/pantry-pal/internal/voice"
)

// periodMS is the device period for both directions. 20ms of input at
// 16 kHz is 320 samples per capture frame.
const periodMS = 20

// Provider hands out capture and playback devices over one shared malgo
// context. It implements voice.DeviceProvider.
type Provider struct {
	ctx    *malgo.AllocatedContext
	logger *zap.Logger
}

// NewProvider initializes the audio backend context.
func NewProvider(logger *zap.Logger) (*Provider, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logger.Debug("audio backend", zap.String("message", message))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}
	return &Provider{ctx: ctx, logger: logger}, nil
}

// Close releases the backend context. Devices must be closed first.
func (p *Provider) Close() error {
	if err := p.ctx.Uninit(); err != nil {
		return err
	}
	p.ctx.Free()
	return nil
}

// Capture returns a handle on the default capture device. The microphone is
// not opened until Start.
func (p *Provider) Capture() (voice.CaptureDevice, error) {
	return &captureDevice{ctx: p.ctx, logger: p.logger}, nil
}

// Player opens and starts the default playback device.
func (p *Provider) Player() (voice.Player, error) {
	return newPlaybackDevice(p.ctx, p.logger)
}
