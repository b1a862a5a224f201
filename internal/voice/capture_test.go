package voice

import "testing"

func TestCapturePipelineStartIsIdempotent(t *testing.T) {
	dev := &fakeCapture{}
	p := NewCapturePipeline(dev, func(OutboundAudioPacket) {})

	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := p.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}

	dev.mu.Lock()
	starts := dev.starts
	dev.mu.Unlock()
	if starts != 1 {
		t.Errorf("device started %d times, want 1", starts)
	}
}

func TestCapturePipelineStopDropsLateFrames(t *testing.T) {
	dev := &fakeCapture{}
	var emitted int
	p := NewCapturePipeline(dev, func(OutboundAudioPacket) { emitted++ })

	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	dev.frame([]float32{0.5, -0.5})
	if emitted != 1 {
		t.Fatalf("emitted %d packets before Stop, want 1", emitted)
	}

	if err := p.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	if got := dev.stopCount(); got != 1 {
		t.Errorf("device stopped %d times, want 1", got)
	}

	dev.frame([]float32{0.25})
	if emitted != 1 {
		t.Errorf("emitted %d packets after Stop, want 1", emitted)
	}
}
