package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/thindery/pantry-pal/internal/voice"
)

// LiveDialer opens realtime voice sessions against the Gemini Live API. It
// implements voice.Dialer.
type LiveDialer struct {
	client *genai.Client
	logger *zap.Logger
}

// NewLiveDialer creates a dialer over an existing client.
func NewLiveDialer(client *genai.Client, logger *zap.Logger) *LiveDialer {
	return &LiveDialer{client: client, logger: logger}
}

// Dial connects a live session with audio responses and the declared tools,
// then starts the receive pump.
func (d *LiveDialer) Dial(ctx context.Context, cfg voice.ChannelConfig) (voice.Channel, error) {
	model := cfg.Model
	if model == "" {
		model = DefaultLiveModel
	}

	connectCfg := &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
	}
	if cfg.SystemInstruction != "" {
		connectCfg.SystemInstruction = genai.NewContentFromText(cfg.SystemInstruction, genai.RoleUser)
	}
	if len(cfg.Tools) > 0 {
		connectCfg.Tools = []*genai.Tool{{FunctionDeclarations: toFunctionDeclarations(cfg.Tools)}}
	}
	if cfg.OutputTranscription {
		connectCfg.OutputAudioTranscription = &genai.AudioTranscriptionConfig{}
	}

	session, err := d.client.Live.Connect(ctx, model, connectCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect live session: %w", err)
	}
	d.logger.Info("live session connected", zap.String("model", model))

	ch := &liveChannel{
		session: session,
		logger:  d.logger,
		events:  make(chan voice.Event, 32),
	}
	go ch.receiveLoop()
	return ch, nil
}

// toFunctionDeclarations converts tool declarations to the Gemini schema.
func toFunctionDeclarations(tools []voice.ToolDecl) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		props := make(map[string]*genai.Schema, len(t.Params))
		required := make([]string, 0, len(t.Params))
		for _, p := range t.Params {
			typ := genai.TypeString
			if p.Type == "number" {
				typ = genai.TypeNumber
			}
			props[p.Name] = &genai.Schema{Type: typ, Description: p.Description}
			required = append(required, p.Name)
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: props,
				Required:   required,
			},
		})
	}
	return decls
}

// liveChannel adapts a genai live session to the voice.Channel interface.
type liveChannel struct {
	session *genai.Session
	logger  *zap.Logger
	events  chan voice.Event
	closed  atomic.Bool
}

func (c *liveChannel) SendAudio(pkt voice.OutboundAudioPacket) error {
	pcm, err := base64.StdEncoding.DecodeString(pkt.Data)
	if err != nil {
		return fmt.Errorf("malformed audio packet: %w", err)
	}
	return c.session.SendRealtimeInput(genai.LiveRealtimeInput{
		Media: &genai.Blob{Data: pcm, MIMEType: pkt.MIMEType},
	})
}

func (c *liveChannel) SendToolResponses(resps []voice.ToolCallResponse) error {
	out := make([]*genai.FunctionResponse, 0, len(resps))
	for _, r := range resps {
		out = append(out, &genai.FunctionResponse{
			ID:       r.ID,
			Name:     r.Name,
			Response: map[string]any{"result": r.Result},
		})
	}
	return c.session.SendToolResponse(genai.LiveToolResponseInput{FunctionResponses: out})
}

func (c *liveChannel) Events() <-chan voice.Event {
	return c.events
}

// Close ends the session. The receive loop observes the broken connection
// and finishes the event stream.
func (c *liveChannel) Close() error {
	c.closed.Store(true)
	return c.session.Close()
}

// receiveLoop pumps server messages into the event stream until the
// connection ends. It is the only writer to the events channel.
func (c *liveChannel) receiveLoop() {
	defer close(c.events)
	for {
		msg, err := c.session.Receive()
		if err != nil {
			if c.closed.Load() {
				// Local close; not an error.
				c.events <- &voice.ClosedEvent{}
				return
			}
			// The terminal event is never dropped.
			c.events <- &voice.ClosedEvent{Err: fmt.Errorf("live session receive: %w", err)}
			return
		}
		for _, ev := range translate(msg) {
			c.emit(ev)
		}
	}
}

func (c *liveChannel) emit(ev voice.Event) {
	select {
	case c.events <- ev:
	default:
		// A stalled consumer must not wedge the receive pump.
		c.logger.Warn("dropping live event, consumer is behind",
			zap.String("type", ev.EventType()))
	}
}

// translate maps one server message onto zero or more events, preserving
// the order parts appear in the message.
func translate(msg *genai.LiveServerMessage) []voice.Event {
	var events []voice.Event
	if sc := msg.ServerContent; sc != nil {
		if sc.ModelTurn != nil {
			for _, part := range sc.ModelTurn.Parts {
				if part.InlineData != nil && len(part.InlineData.Data) > 0 {
					events = append(events, &voice.AudioChunkEvent{
						Data:     base64.StdEncoding.EncodeToString(part.InlineData.Data),
						MIMEType: part.InlineData.MIMEType,
					})
				}
			}
		}
		if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
			events = append(events, &voice.TranscriptDeltaEvent{Text: sc.OutputTranscription.Text})
		}
		if sc.Interrupted {
			events = append(events, &voice.InterruptedEvent{})
		}
		if sc.TurnComplete {
			events = append(events, &voice.TurnCompleteEvent{})
		}
	}
	if tc := msg.ToolCall; tc != nil && len(tc.FunctionCalls) > 0 {
		calls := make([]voice.ToolCallRequest, 0, len(tc.FunctionCalls))
		for _, fc := range tc.FunctionCalls {
			calls = append(calls, voice.ToolCallRequest{
				ID:   fc.ID,
				Name: fc.Name,
				Args: fc.Args,
			})
		}
		events = append(events, &voice.ToolCallEvent{Calls: calls})
	}
	return events
}
