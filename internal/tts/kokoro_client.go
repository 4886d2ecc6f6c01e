package tts

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kokorolabs/kokoro-gateway/internal/config"
	"github.com/kokorolabs/kokoro-gateway/internal/observability"
	"github.com/rs/zerolog"
)

// KokoroTTS synthesizes speech through an OpenAI-API-compatible Kokoro
// server. It holds the synthesis options and acts as a factory for
// ChunkedStreams; all streams share one pooled HTTP client.
type KokoroTTS struct {
	baseURL    string
	apiKey     string
	frameDur   time.Duration
	httpClient *http.Client
	logger     zerolog.Logger

	mu   sync.RWMutex
	opts Options
}

// NewKokoroTTS creates a client with a connection pool tuned for a local
// Kokoro server: 15s dial timeout, 5s header/handshake timeouts, at most 50
// concurrent connections with 50 idle kept for 120s. Redirects follow the
// default client policy; no retries happen at this layer.
func NewKokoroTTS(cfg *config.Config) *KokoroTTS {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   time.Duration(cfg.ConnectTimeout) * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   time.Duration(cfg.ReadTimeout) * time.Second,
		ResponseHeaderTimeout: time.Duration(cfg.ReadTimeout) * time.Second,
		MaxConnsPerHost:       cfg.MaxConnections,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConns,
		IdleConnTimeout:       time.Duration(cfg.IdleConnExpiry) * time.Second,
	}

	return NewKokoroTTSWithClient(cfg, &http.Client{Transport: transport})
}

// NewKokoroTTSWithClient creates a client around an injected *http.Client,
// which then owns all timeout and pooling behavior.
func NewKokoroTTSWithClient(cfg *config.Config, client *http.Client) *KokoroTTS {
	logger := observability.GetLogger().With().Str("component", "kokoro_tts").Logger()
	logger.Info().Str("base_url", cfg.KokoroBaseURL).Msg("Using Kokoro TTS server")

	return &KokoroTTS{
		baseURL:    strings.TrimRight(cfg.KokoroBaseURL, "/"),
		apiKey:     cfg.KokoroAPIKey,
		frameDur:   time.Duration(cfg.FrameDurationMs) * time.Millisecond,
		httpClient: client,
		logger:     logger,
		opts: Options{
			Model: cfg.KokoroModel,
			Voice: cfg.KokoroVoice,
			Speed: cfg.KokoroSpeed,
		},
	}
}

// Capabilities reports that Kokoro requires the full input text up front.
func (t *KokoroTTS) Capabilities() Capabilities {
	return Capabilities{Streaming: false}
}

// SampleRate returns the output sample rate in Hz.
func (t *KokoroTTS) SampleRate() int { return SampleRate }

// NumChannels returns the output channel count.
func (t *KokoroTTS) NumChannels() int { return NumChannels }

// UpdateOptions replaces the provided option fields in place. Fields left
// nil keep their prior value. Streams created before the update keep their
// snapshot and are unaffected. Values are not validated here; the server
// rejects invalid ones at synthesis time.
func (t *KokoroTTS) UpdateOptions(update OptionsUpdate) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.opts.apply(update)
}

// Options returns a copy of the current synthesis options.
func (t *KokoroTTS) Options() Options {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.opts
}

// Synthesize returns a new stream bound to a snapshot of the current options
// and the shared HTTP client. No network call occurs until the stream is
// driven.
func (t *KokoroTTS) Synthesize(text string, connOpts ConnectOptions) *ChunkedStream {
	return t.SynthesizeWithOptions(text, OptionsUpdate{}, connOpts)
}

// SynthesizeWithOptions merges per-call overrides into the option snapshot
// for a single stream. The stored options are left untouched.
func (t *KokoroTTS) SynthesizeWithOptions(text string, update OptionsUpdate, connOpts ConnectOptions) *ChunkedStream {
	t.mu.RLock()
	opts := t.opts
	t.mu.RUnlock()
	opts.apply(update)

	return &ChunkedStream{
		text:       text,
		opts:       opts,
		connOpts:   connOpts,
		baseURL:    t.baseURL,
		apiKey:     t.apiKey,
		frameDur:   t.frameDur,
		httpClient: t.httpClient,
		logger:     t.logger,
	}
}
