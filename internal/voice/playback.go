package voice

import (
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// scheduledEntry is one decoded audio buffer with an absolute start offset
// and duration, measured against the scheduler's own clock epoch. Entries in
// the active set never overlap and their start offsets are non-decreasing in
// arrival order.
type scheduledEntry struct {
	id       uint64
	start    time.Duration
	duration time.Duration

	startTimer *clock.Timer
	doneTimer  *clock.Timer
}

// Scheduler turns inbound audio chunks into gap-free, cancelable playback.
// Each chunk is scheduled at max(nextStart, now): back-to-back when chunks
// arrive faster than they play, immediately when there is a gap. All state
// mutation is serialized by one mutex; decoding happens outside it and may
// overlap playback of earlier chunks.
type Scheduler struct {
	player     Player
	clk        clock.Clock
	log        *zap.Logger
	sampleRate int

	mu        sync.Mutex
	epoch     time.Time
	nextStart time.Duration
	entries   map[uint64]*scheduledEntry
	lastID    uint64
}

// NewScheduler creates a scheduler writing to player at the given sample
// rate. The clock epoch is captured at construction.
func NewScheduler(player Player, sampleRate int, clk clock.Clock, log *zap.Logger) *Scheduler {
	return &Scheduler{
		player:     player,
		clk:        clk,
		log:        log,
		sampleRate: sampleRate,
		epoch:      clk.Now(),
		entries:    make(map[uint64]*scheduledEntry),
	}
}

// Schedule decodes one base64 PCM payload and queues it for playback.
// A decode failure is returned to the caller so the chunk can be dropped
// without terminating the session.
func (s *Scheduler) Schedule(data string) error {
	pcm, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return fmt.Errorf("decode audio chunk: %w", err)
	}
	if len(pcm) < bytesPerSample {
		return fmt.Errorf("audio chunk too short: %d bytes", len(pcm))
	}
	duration := PCMDuration(len(pcm), s.sampleRate)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clk.Now().Sub(s.epoch)
	start := s.nextStart
	if now > start {
		start = now
	}

	s.lastID++
	e := &scheduledEntry{id: s.lastID, start: start, duration: duration}
	// Registered before the timers are armed so the entry is cancelable
	// from the moment it exists.
	s.entries[e.id] = e
	e.startTimer = s.clk.AfterFunc(start-now, func() {
		if err := s.player.Write(pcm); err != nil {
			s.log.Warn("playback write failed", zap.Error(err))
		}
	})
	e.doneTimer = s.clk.AfterFunc(start+duration-now, func() {
		s.complete(e.id)
	})
	s.nextStart = start + duration
	return nil
}

// complete removes an entry whose playback finished naturally.
func (s *Scheduler) complete(id uint64) {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
}

// StopAll cancels every scheduled entry and silences the output device
// immediately. nextStart resets to zero, not to the current clock: the next
// chunk schedules as if at the start of time, and the max(nextStart, now)
// clamp in Schedule recovers the correct start. This mirrors the interrupt
// semantics the remote service was built against; do not "fix" it to reset
// to the current clock without revisiting that clamp.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	for id, e := range s.entries {
		e.startTimer.Stop()
		e.doneTimer.Stop()
		delete(s.entries, id)
	}
	s.nextStart = 0
	s.mu.Unlock()

	if err := s.player.Reset(); err != nil {
		s.log.Warn("playback reset failed", zap.Error(err))
	}
}

// Active returns the number of entries currently in the active set.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// NextStart returns the offset at which the next chunk would be appended.
func (s *Scheduler) NextStart() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextStart
}
