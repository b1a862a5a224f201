package voice

import (
	"encoding/base64"
	"sync/atomic"
)

// CapturePipeline turns microphone frames into outbound audio packets.
// Every device callback produces exactly one packet: PCM16-converted,
// base64-encoded and tagged with the fixed input media type. Emission is
// fire-and-forget; the pipeline never waits on the channel before producing
// the next packet.
type CapturePipeline struct {
	dev     CaptureDevice
	emit    func(OutboundAudioPacket)
	started atomic.Bool
	stopped atomic.Bool
}

// NewCapturePipeline binds a capture device to an emit function.
func NewCapturePipeline(dev CaptureDevice, emit func(OutboundAudioPacket)) *CapturePipeline {
	return &CapturePipeline{dev: dev, emit: emit}
}

// Start begins capture. Calling Start on an already-started pipeline is a
// no-op.
func (p *CapturePipeline) Start() error {
	if !p.started.CompareAndSwap(false, true) {
		return nil
	}
	return p.dev.Start(p.onFrame)
}

// Stop halts capture and releases the microphone. Safe to call repeatedly;
// only the first call releases the device.
func (p *CapturePipeline) Stop() error {
	if p.stopped.Swap(true) {
		return nil
	}
	return p.dev.Stop()
}

func (p *CapturePipeline) onFrame(samples []float32) {
	if p.stopped.Load() {
		return
	}
	p.emit(OutboundAudioPacket{
		Data:     base64.StdEncoding.EncodeToString(EncodePCM16(samples)),
		MIMEType: OutboundMIMEType,
	})
}
