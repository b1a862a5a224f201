package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
	"go.uber.org/zap"

	"github.com/thindery/pantry-pal/internal/voice"
)

// captureDevice records 16 kHz mono float32 frames from the default
// microphone and hands them to the pipeline callback on the device thread.
type captureDevice struct {
	ctx    *malgo.AllocatedContext
	logger *zap.Logger

	mu      sync.Mutex
	dev     *malgo.Device
	stopped bool
}

func (d *captureDevice) Start(onFrame func(samples []float32)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dev != nil {
		return fmt.Errorf("capture device already started")
	}

	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.SampleRate = voice.InputSampleRate
	config.PeriodSizeInMilliseconds = periodMS
	config.Capture.Format = malgo.FormatF32
	config.Capture.Channels = voice.Channels
	config.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, frameCount uint32) {
			samples := make([]float32, frameCount)
			for i := range samples {
				bits := binary.LittleEndian.Uint32(input[i*4:])
				samples[i] = math.Float32frombits(bits)
			}
			onFrame(samples)
		},
	}

	dev, err := malgo.InitDevice(d.ctx.Context, config, callbacks)
	if err != nil {
		return fmt.Errorf("failed to open microphone: %w", err)
	}
	if err := dev.Start(); err != nil {
		dev.Uninit()
		return fmt.Errorf("failed to start microphone: %w", err)
	}
	d.dev = dev
	d.logger.Info("microphone capture started",
		zap.Int("sample_rate", voice.InputSampleRate),
		zap.Int("period_ms", periodMS))
	return nil
}

// Stop releases the microphone. Safe to call more than once.
func (d *captureDevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped || d.dev == nil {
		d.stopped = true
		return nil
	}
	d.stopped = true
	d.dev.Uninit()
	d.dev = nil
	d.logger.Info("microphone capture stopped")
	return nil
}
