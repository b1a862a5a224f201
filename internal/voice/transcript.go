package voice

import "sync"

// TranscriptBuffer accumulates partial spoken-response text for live
// display. It is cleared at every turn boundary and never persisted.
type TranscriptBuffer struct {
	mu   sync.Mutex
	text string
}

// Append adds a transcript fragment and returns the accumulated text.
func (t *TranscriptBuffer) Append(fragment string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.text += fragment
	return t.text
}

// Reset clears the buffer. A cleared buffer implies a new turn.
func (t *TranscriptBuffer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.text = ""
}

// String returns the current accumulated text.
func (t *TranscriptBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.text
}
