package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/kokorolabs/kokoro-gateway/internal/audio"
	"github.com/kokorolabs/kokoro-gateway/internal/config"
	"github.com/kokorolabs/kokoro-gateway/internal/observability"
	"github.com/kokorolabs/kokoro-gateway/internal/tts"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// In production, validate the origin against known clients.
		// For now, allow all origins (development only)
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// ClientMessage is a control message from a streaming client.
type ClientMessage struct {
	Event string  `json:"event"` // synthesize, cancel, stop
	Text  string  `json:"text,omitempty"`
	Voice string  `json:"voice,omitempty"`
	Speed float64 `json:"speed,omitempty"`
}

// ServerMessage is a message sent to a streaming client.
type ServerMessage struct {
	Event     string        `json:"event"` // media, done, error
	RequestID string        `json:"requestId,omitempty"`
	Media     *MediaPayload `json:"media,omitempty"`
	Frames    int           `json:"frames,omitempty"`
	Kind      string        `json:"kind,omitempty"`
	Message   string        `json:"message,omitempty"`
	Status    int           `json:"status,omitempty"`
}

// MediaPayload carries one audio frame, base64 encoded.
type MediaPayload struct {
	Payload    string `json:"payload"` // base64 little-endian 16-bit PCM
	SampleRate int    `json:"sampleRate"`
	Channels   int    `json:"channels"`
}

// Session holds the state of a single streaming client connection. One
// synthesis may be in flight at a time; a new synthesize request interrupts
// the previous one.
type Session struct {
	conn   *websocket.Conn
	synth  tts.Synthesizer
	config *config.Config

	mu          sync.RWMutex
	isActive    bool
	cancelSynth context.CancelFunc

	outgoing chan ServerMessage

	correlationID string
	logger        zerolog.Logger

	done chan struct{}
}

// NewSession creates a session for an upgraded WebSocket connection.
func NewSession(conn *websocket.Conn, synth tts.Synthesizer, cfg *config.Config) *Session {
	correlationID := observability.NewCorrelationID()
	logger := observability.WithCorrelationID(correlationID).
		With().
		Str("component", "gateway_session").
		Logger()

	return &Session{
		conn:          conn,
		synth:         synth,
		config:        cfg,
		isActive:      true,
		outgoing:      make(chan ServerMessage, 64),
		correlationID: correlationID,
		logger:        logger,
		done:          make(chan struct{}),
	}
}

// HandleSynthesizeWS is the entry point for streaming synthesis connections.
func HandleSynthesizeWS(cfg *config.Config, synth tts.Synthesizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger := observability.GetLogger()
			logger.Error().Err(err).Msg("Failed to upgrade connection to WebSocket")
			return
		}
		defer conn.Close()

		session := NewSession(conn, synth, cfg)
		session.logger.Info().Msg("Streaming session established")

		observability.RecordSessionStart()
		defer observability.RecordSessionEnd()

		go session.writeMessages()
		session.readMessages()

		<-session.done
		session.logger.Info().Msg("Streaming session ended")
	}
}

// readMessages handles all incoming control messages until the connection
// closes or the client sends stop.
func (s *Session) readMessages() {
	defer func() {
		s.interrupt()
		close(s.done)
	}()

	for {
		s.mu.RLock()
		active := s.isActive
		s.mu.RUnlock()
		if !active {
			return
		}

		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn().Err(err).Msg("WebSocket read error")
			}
			s.setInactive()
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			s.logger.Error().Err(err).Msg("Failed to parse client message")
			continue
		}

		switch msg.Event {
		case "synthesize":
			if msg.Text == "" {
				s.send(ServerMessage{Event: "error", Kind: "invalid", Message: "text must not be empty"})
				continue
			}
			s.startSynthesis(msg)

		case "cancel":
			s.interrupt()

		case "stop":
			s.logger.Info().Msg("Client requested stop")
			s.setInactive()
			return

		default:
			s.logger.Warn().Str("event", msg.Event).Msg("Unknown client event")
		}
	}
}

// startSynthesis interrupts any in-flight synthesis and starts a new one.
func (s *Session) startSynthesis(msg ClientMessage) {
	s.interrupt()

	// Per-message overrides apply to this synthesis only; the synthesizer's
	// stored options stay untouched.
	var update tts.OptionsUpdate
	if msg.Voice != "" {
		update.Voice = tts.String(msg.Voice)
	}
	if msg.Speed > 0 {
		update.Speed = tts.Float64(msg.Speed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancelSynth = cancel
	s.mu.Unlock()

	go s.runSynthesis(ctx, msg.Text, update)
}

// runSynthesis drives one synthesis stream and republishes its frames as
// media messages.
func (s *Session) runSynthesis(ctx context.Context, text string, update tts.OptionsUpdate) {
	metrics := observability.NewSynthesisMetrics()
	silence := audio.NewSilenceDetector(nil)
	stream := s.synth.SynthesizeWithOptions(text, update, tts.DefaultConnectOptions)

	events, errs := stream.Stream(ctx)

	var frames int
	var requestID string
	for ev := range events {
		frames++
		requestID = ev.RequestID
		metrics.RecordFrame(len(ev.Frame.Data))

		samples := audio.DecodePCM16(ev.Frame.Data)
		silence.Observe(samples)

		s.logger.Debug().
			Str("request_id", ev.RequestID).
			Int("bytes", len(ev.Frame.Data)).
			Float64("rms", audio.RMS(samples)).
			Msg("Emitting audio frame")

		s.send(ServerMessage{
			Event:     "media",
			RequestID: ev.RequestID,
			Media: &MediaPayload{
				Payload:    base64.StdEncoding.EncodeToString(ev.Frame.Data),
				SampleRate: ev.Frame.SampleRate,
				Channels:   ev.Frame.Channels,
			},
		})
	}

	if err := <-errs; err != nil {
		// An interrupt is client-initiated; reporting it as an error would
		// make the client treat its own cancel as a failure.
		if ctx.Err() != nil {
			s.logger.Info().Str("request_id", requestID).Int("frames", frames).Msg("Synthesis interrupted")
			metrics.RecordEnd(false)
			return
		}

		kind, status, message := classifyError(err)
		s.logger.Error().Err(err).Str("kind", kind).Msg("Synthesis failed")
		metrics.RecordEnd(false)
		observability.RecordError(kind, "tts")
		s.send(ServerMessage{
			Event:     "error",
			RequestID: requestID,
			Kind:      kind,
			Status:    status,
			Message:   message,
		})
		return
	}

	if silence.AllSilent() {
		s.logger.Warn().
			Str("request_id", requestID).
			Int("frames", frames).
			Msg("Synthesis produced only silence, check voice and model settings")
	}

	metrics.RecordEnd(true)
	s.send(ServerMessage{Event: "done", RequestID: requestID, Frames: frames})
}

// writeMessages serializes all outgoing traffic onto the connection.
func (s *Session) writeMessages() {
	for {
		select {
		case msg := <-s.outgoing:
			if err := s.conn.WriteJSON(msg); err != nil {
				s.logger.Error().Err(err).Msg("WebSocket write error")
				s.setInactive()
				return
			}
		case <-s.done:
			return
		}
	}
}

// send queues a message for the client, dropping it if the session is
// backed up.
func (s *Session) send(msg ServerMessage) {
	select {
	case s.outgoing <- msg:
	default:
		s.logger.Warn().Str("event", msg.Event).Msg("Outgoing queue full, dropping message")
	}
}

// interrupt cancels the in-flight synthesis, if any.
func (s *Session) interrupt() {
	s.mu.Lock()
	cancel := s.cancelSynth
	s.cancelSynth = nil
	s.mu.Unlock()

	if cancel != nil {
		s.logger.Info().Msg("Interrupting active synthesis")
		cancel()
	}
}

func (s *Session) setInactive() {
	s.mu.Lock()
	s.isActive = false
	s.mu.Unlock()
}

// IsActive returns whether the session is still active
func (s *Session) IsActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isActive
}

// classifyError maps a synthesis error onto the wire taxonomy.
func classifyError(err error) (kind string, status int, message string) {
	var statusErr *tts.StatusError
	if errors.As(err, &statusErr) {
		return "status", statusErr.StatusCode, statusErr.Message
	}

	var timeoutErr *tts.TimeoutError
	if errors.As(err, &timeoutErr) {
		return "timeout", 0, timeoutErr.Error()
	}

	return "connection", 0, err.Error()
}
