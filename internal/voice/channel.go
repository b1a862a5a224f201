package voice

import "context"

// OutboundAudioPacket is one fixed-size chunk of captured microphone audio,
// PCM16-encoded and base64-wrapped, tagged with its media type. Packets are
// ephemeral and are not retained after transmission.
type OutboundAudioPacket struct {
	Data     string `json:"data"`
	MIMEType string `json:"mimeType"`
}

// ToolCallRequest is a single function call issued by the model.
type ToolCallRequest struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolCallResponse answers one ToolCallRequest, correlated by ID. Result is
// opaque text handed back to the model verbatim.
type ToolCallResponse struct {
	ID     string
	Name   string
	Result string
}

// ToolParam declares one parameter of a tool exposed to the model.
type ToolParam struct {
	Name        string
	Type        string // "string" or "number"
	Description string
}

// ToolDecl declares a callable function in the channel setup payload.
type ToolDecl struct {
	Name        string
	Description string
	Params      []ToolParam
}

// ChannelConfig is the configuration payload sent when opening the duplex
// channel.
type ChannelConfig struct {
	Model               string
	SystemInstruction   string
	Tools               []ToolDecl
	OutputTranscription bool
}

// Channel is the duplex connection to the speech-and-language service.
// Sends never wait for acknowledgment. Events terminates with a ClosedEvent
// (or by closing) when the connection ends for any reason.
type Channel interface {
	SendAudio(pkt OutboundAudioPacket) error
	SendToolResponses(resps []ToolCallResponse) error
	Events() <-chan Event
	Close() error
}

// Dialer opens the duplex channel during session connect.
type Dialer interface {
	Dial(ctx context.Context, cfg ChannelConfig) (Channel, error)
}

// CaptureDevice is a platform microphone handle. Start begins delivering
// fixed-size frames of normalized mono samples at the input sample rate.
// Stop releases the device and must be safe to call more than once.
type CaptureDevice interface {
	Start(onFrame func(samples []float32)) error
	Stop() error
}

// Player is a platform audio-output handle at the output sample rate.
// Write queues PCM16 bytes for playback, Reset discards anything queued but
// not yet played, and Close releases the device.
type Player interface {
	Write(pcm []byte) error
	Reset() error
	Close() error
}

// DeviceProvider hands out the audio device handles a session owns for its
// lifetime.
type DeviceProvider interface {
	Capture() (CaptureDevice, error)
	Player() (Player, error)
}
