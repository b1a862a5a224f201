package voice

import (
	"encoding/binary"
	"time"
)

// Audio format constants shared by the capture and playback paths. The
// channel expects 16 kHz mono PCM16 in and produces 24 kHz mono PCM16 out.
const (
	InputSampleRate  = 16000
	OutputSampleRate = 24000
	Channels         = 1

	bytesPerSample = 2

	// OutboundMIMEType tags every captured packet sent over the channel.
	OutboundMIMEType = "audio/pcm;rate=16000"
)

// EncodePCM16 converts normalized samples to little-endian 16-bit signed PCM.
// Each sample is scaled by 32768 and truncated; out-of-range input wraps
// rather than clamps, matching the Int16Array assignment semantics of the
// upstream web clients this format interoperates with.
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*bytesPerSample)
	for i, s := range samples {
		v := int16(int32(s * 32768))
		binary.LittleEndian.PutUint16(out[i*bytesPerSample:], uint16(v))
	}
	return out
}

// DecodePCM16 converts little-endian 16-bit signed PCM into normalized
// samples in [-1.0, 1.0). A trailing odd byte is ignored.
func DecodePCM16(pcm []byte) []float32 {
	n := len(pcm) / bytesPerSample
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(pcm[i*bytesPerSample:]))
		out[i] = float32(v) / 32768.0
	}
	return out
}

// PCMDuration returns the playback duration of a PCM16 byte buffer at the
// given sample rate, assuming mono.
func PCMDuration(numBytes, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	samples := numBytes / bytesPerSample
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}
