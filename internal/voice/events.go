package voice

// Event is the tagged union of inbound channel events. The session's event
// loop matches on the concrete type; there is no optional-field probing.
type Event interface {
	// EventType returns the event type string for logging.
	EventType() string
}

// AudioChunkEvent carries one base64-encoded PCM16 payload of spoken
// response audio at the output sample rate.
type AudioChunkEvent struct {
	Data     string
	MIMEType string
}

func (e *AudioChunkEvent) EventType() string { return "audio.chunk" }

// TranscriptDeltaEvent carries a partial transcript fragment of the spoken
// response.
type TranscriptDeltaEvent struct {
	Text string
}

func (e *TranscriptDeltaEvent) EventType() string { return "transcript.delta" }

// TurnCompleteEvent signals that the model finished its spoken turn.
type TurnCompleteEvent struct{}

func (e *TurnCompleteEvent) EventType() string { return "turn.complete" }

// InterruptedEvent signals user barge-in: all scheduled playback must stop
// immediately.
type InterruptedEvent struct{}

func (e *InterruptedEvent) EventType() string { return "interrupted" }

// ToolCallEvent carries one or more function-call requests issued by the
// model. Each request receives exactly one response.
type ToolCallEvent struct {
	Calls []ToolCallRequest
}

func (e *ToolCallEvent) EventType() string { return "tool.call" }

// ClosedEvent is the final event on the stream. Err is nil on an orderly
// close and carries the transport error otherwise.
type ClosedEvent struct {
	Err error
}

func (e *ClosedEvent) EventType() string { return "closed" }
