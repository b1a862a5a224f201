package websocket

import (
	"encoding/json"
	"testing"

	"github.com/thindery/pantry-pal/internal/voice"
)

func TestParseControlMessage(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    MessageType
		wantErr bool
	}{
		{"voice start", `{"type":"voice_start"}`, MessageTypeVoiceStart, false},
		{"voice stop", `{"type":"voice_stop"}`, MessageTypeVoiceStop, false},
		{"missing type", `{}`, "", true},
		{"unknown type", `{"type":"reboot"}`, "", true},
		{"server-only type", `{"type":"update"}`, "", true},
		{"not json", `voice_start`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseControlMessage([]byte(tt.payload))
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %s", tt.payload)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseControlMessage: %v", err)
			}
			if msg.Type != tt.want {
				t.Errorf("Type = %q, want %q", msg.Type, tt.want)
			}
		})
	}
}

func TestUpdateMessageRoundTrip(t *testing.T) {
	original := NewUpdateMessage(voice.Update{
		Kind:   "tool",
		Tool:   "adjustStock",
		Result: "eggs now has quantity 9.",
	})

	payload, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded UpdateMessage
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Type != MessageTypeUpdate {
		t.Errorf("Type = %q", decoded.Type)
	}
	if decoded.Update.Tool != "adjustStock" || decoded.Update.Result != "eggs now has quantity 9." {
		t.Errorf("Update = %+v", decoded.Update)
	}
}
