package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/thindery/pantry-pal/internal/voice"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Supported message types
const (
	// Server to client
	MessageTypeUpdate MessageType = "update"
	MessageTypeError  MessageType = "error"

	// Client to server
	MessageTypeVoiceStart MessageType = "voice_start"
	MessageTypeVoiceStop  MessageType = "voice_stop"
)

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp string      `json:"timestamp"`
}

// ControlMessage is a client request to start or stop the voice session
type ControlMessage struct {
	BaseMessage
}

// UpdateMessage carries one voice session update to UI clients
type UpdateMessage struct {
	BaseMessage
	Update voice.Update `json:"update"`
}

// ErrorMessage reports a failed control request back to the client
type ErrorMessage struct {
	BaseMessage
	Message string `json:"message"`
}

// NewUpdateMessage wraps a session update in the wire envelope
func NewUpdateMessage(u voice.Update) UpdateMessage {
	return UpdateMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeUpdate,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		Update: u,
	}
}

// NewErrorMessage wraps an error string in the wire envelope
func NewErrorMessage(message string) ErrorMessage {
	return ErrorMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeError,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		Message: message,
	}
}

// ParseControlMessage parses and validates an inbound client message
func ParseControlMessage(data []byte) (*ControlMessage, error) {
	var msg ControlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}
	switch msg.Type {
	case MessageTypeVoiceStart, MessageTypeVoiceStop:
		return &msg, nil
	case "":
		return nil, fmt.Errorf("message missing type field")
	default:
		return nil, fmt.Errorf("unknown message type %q", msg.Type)
	}
}
