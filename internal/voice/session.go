// Package voice implements the live voice-control session: microphone
// capture, the duplex channel to the speech-and-language service, gap-free
// playback scheduling with barge-in cancellation, transcript aggregation,
// and the bridge from model-issued function calls to inventory mutations.
package voice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// State is the session connection state.
type State string

const (
	StateConnecting State = "connecting"
	StateOpen       State = "open"
	StateClosing    State = "closing"
	StateClosed     State = "closed"
	StateError      State = "error"
)

// Outbound packets produced before the channel is open (or faster than the
// transport drains them) accumulate here; beyond the cap the oldest packet
// is dropped rather than queuing without bound.
const outboundBufferCap = 32

// Update is a display-oriented notification emitted to the host UI. Kind
// selects which of the remaining fields are meaningful.
type Update struct {
	Kind       string `json:"kind"` // "state", "transcript", "tool", "closed"
	State      State  `json:"state,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Tool       string `json:"tool,omitempty"`
	Result     string `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Config carries everything a session needs from its host.
type Config struct {
	Model             string
	SystemInstruction string

	Devices DeviceProvider
	Dialer  Dialer

	// Mutate is the inventory-mutation callback invoked synchronously for
	// every adjustStock call the model issues.
	Mutate MutateFunc

	// OnClose is invoked exactly once whenever the session ends, on every
	// exit path including startup failure. The error is nil on an orderly
	// close.
	OnClose func(err error)

	// Notify, when set, receives display updates. It must not block.
	Notify func(Update)

	Clock  clock.Clock
	Logger *zap.Logger
}

// Session is one live voice interaction. It owns the microphone, the output
// device and the duplex channel for its whole lifetime, and releases all
// three exactly once no matter how many times teardown is triggered.
type Session struct {
	cfg Config
	log *zap.Logger

	capture    *CapturePipeline
	player     Player
	scheduler  *Scheduler
	transcript *TranscriptBuffer
	tools      *ToolDispatcher
	channel    Channel

	outbound chan OutboundAudioPacket
	done     chan struct{}
	closed   atomic.Bool
	wg       sync.WaitGroup

	mu    sync.Mutex
	state State
}

// Open acquires the microphone and dials the duplex channel concurrently,
// then binds the capture pipeline and starts the event loop. On any startup
// failure every already-acquired device is released and OnClose is invoked
// before the error is returned; there is no retry.
func Open(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Devices == nil || cfg.Dialer == nil || cfg.Mutate == nil {
		return nil, errors.New("voice: devices, dialer and mutate callback are required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	s := &Session{
		cfg:        cfg,
		log:        cfg.Logger,
		transcript: &TranscriptBuffer{},
		outbound:   make(chan OutboundAudioPacket, outboundBufferCap),
		done:       make(chan struct{}),
	}
	s.tools = NewToolDispatcher(cfg.Mutate, s.log)
	s.setState(StateConnecting)

	player, err := cfg.Devices.Player()
	if err != nil {
		return s.failStartup(fmt.Errorf("open playback device: %w", err))
	}
	s.player = player
	s.scheduler = NewScheduler(player, OutputSampleRate, cfg.Clock, s.log)

	// Microphone acquisition and the channel dial proceed concurrently.
	// Captured packets land in the bounded outbound buffer until the
	// channel is open; the send loop only starts once it is.
	type dialResult struct {
		ch  Channel
		err error
	}
	dialc := make(chan dialResult, 1)
	go func() {
		ch, err := cfg.Dialer.Dial(ctx, ChannelConfig{
			Model:               cfg.Model,
			SystemInstruction:   cfg.SystemInstruction,
			Tools:               []ToolDecl{AdjustStockDecl},
			OutputTranscription: true,
		})
		dialc <- dialResult{ch: ch, err: err}
	}()

	capDev, capErr := cfg.Devices.Capture()
	if capErr == nil {
		s.capture = NewCapturePipeline(capDev, s.emitPacket)
		capErr = s.capture.Start()
	}

	dr := <-dialc
	if capErr != nil {
		if dr.ch != nil {
			_ = dr.ch.Close()
		}
		return s.failStartup(fmt.Errorf("acquire microphone: %w", capErr))
	}
	if dr.err != nil {
		return s.failStartup(fmt.Errorf("open live channel: %w", dr.err))
	}
	s.channel = dr.ch

	s.setState(StateOpen)
	s.log.Info("voice session open", zap.String("model", cfg.Model))

	s.wg.Add(2)
	go s.sendLoop()
	go s.eventLoop()
	return s, nil
}

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transcript returns the in-progress transcript of the current turn.
func (s *Session) Transcript() string {
	return s.transcript.String()
}

// Close ends the session and waits for its loops to drain. Safe to call
// more than once.
func (s *Session) Close() error {
	s.teardown(nil)
	s.wg.Wait()
	return nil
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	s.notify(Update{Kind: "state", State: st})
}

func (s *Session) notify(u Update) {
	if s.cfg.Notify != nil {
		s.cfg.Notify(u)
	}
}

// emitPacket runs on the capture device's callback thread. It never blocks:
// when the buffer is full the oldest packet is dropped to make room, and if
// another producer races us for the freed slot the new packet is dropped
// instead.
func (s *Session) emitPacket(pkt OutboundAudioPacket) {
	if s.closed.Load() {
		return
	}
	select {
	case s.outbound <- pkt:
		return
	default:
	}
	select {
	case <-s.outbound:
	default:
	}
	select {
	case s.outbound <- pkt:
	default:
	}
}

func (s *Session) sendLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case pkt := <-s.outbound:
			if err := s.channel.SendAudio(pkt); err != nil {
				s.log.Warn("send audio packet failed", zap.Error(err))
			}
		}
	}
}

// eventLoop demultiplexes inbound channel events. It is the only goroutine
// that routes events, so per-event handling needs no further ordering.
func (s *Session) eventLoop() {
	defer s.wg.Done()
	for ev := range s.channel.Events() {
		switch e := ev.(type) {
		case *AudioChunkEvent:
			if err := s.scheduler.Schedule(e.Data); err != nil {
				// Undecodable chunks are dropped; the session continues.
				s.log.Warn("dropping inbound audio chunk", zap.Error(err))
			}
		case *TranscriptDeltaEvent:
			text := s.transcript.Append(e.Text)
			s.notify(Update{Kind: "transcript", Transcript: text})
		case *TurnCompleteEvent:
			s.transcript.Reset()
			s.notify(Update{Kind: "transcript", Transcript: ""})
		case *InterruptedEvent:
			s.scheduler.StopAll()
		case *ToolCallEvent:
			resps := s.tools.Dispatch(e.Calls)
			if err := s.channel.SendToolResponses(resps); err != nil {
				s.log.Warn("send tool responses failed", zap.Error(err))
			}
			for _, r := range resps {
				s.notify(Update{Kind: "tool", Tool: r.Name, Result: r.Result})
			}
		case *ClosedEvent:
			s.teardown(e.Err)
			return
		default:
			s.log.Warn("unhandled channel event", zap.String("type", ev.EventType()))
		}
	}
	s.teardown(nil)
}

// teardown releases the microphone, the output device and the channel.
// Idempotent: only the first call releases anything.
func (s *Session) teardown(cause error) {
	if s.closed.Swap(true) {
		return
	}
	if cause != nil {
		s.log.Error("voice session ended by transport error", zap.Error(cause))
		s.setState(StateError)
	} else {
		s.setState(StateClosing)
	}
	close(s.done)

	if s.capture != nil {
		if err := s.capture.Stop(); err != nil {
			s.log.Warn("stop capture failed", zap.Error(err))
		}
	}
	s.scheduler.StopAll()
	if err := s.player.Close(); err != nil {
		s.log.Warn("close playback device failed", zap.Error(err))
	}
	if s.channel != nil {
		_ = s.channel.Close()
	}

	if cause == nil {
		s.setState(StateClosed)
	}
	if s.cfg.OnClose != nil {
		s.cfg.OnClose(cause)
	}
	s.notify(Update{Kind: "closed", Error: errText(cause)})
}

// failStartup aborts session creation before the event loops exist.
func (s *Session) failStartup(err error) (*Session, error) {
	s.closed.Store(true)
	s.setState(StateError)
	if s.capture != nil {
		_ = s.capture.Stop()
	}
	if s.player != nil {
		_ = s.player.Close()
	}
	if s.cfg.OnClose != nil {
		s.cfg.OnClose(err)
	}
	s.notify(Update{Kind: "closed", Error: errText(err)})
	return nil, err
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
