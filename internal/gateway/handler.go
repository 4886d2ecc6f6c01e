package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kokorolabs/kokoro-gateway/internal/config"
	"github.com/kokorolabs/kokoro-gateway/internal/observability"
	"github.com/kokorolabs/kokoro-gateway/internal/resilience"
	"github.com/kokorolabs/kokoro-gateway/internal/tts"
)

// SynthesizeRequest is the body of a one-shot HTTP synthesis request.
type SynthesizeRequest struct {
	Text  string  `json:"text"`
	Voice string  `json:"voice,omitempty"`
	Speed float64 `json:"speed,omitempty"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Kind   string `json:"kind"`
	Status int    `json:"status,omitempty"`
}

// HandleSynthesize serves POST /v1/synthesize, streaming raw little-endian
// 16-bit PCM to the response as frames arrive. Retry policy lives here, on
// the caller side of the TTS adapter: a failed request is retried only while
// no audio has been written, since a restarted stream would otherwise
// duplicate audio already delivered.
func HandleSynthesize(cfg *config.Config, synth tts.Synthesizer, breaker *resilience.CircuitBreaker) http.HandlerFunc {
	retryCfg := &resilience.RetryConfig{
		MaxAttempts:       cfg.RetryMaxAttempts,
		InitialBackoff:    time.Duration(cfg.RetryInitialBackoff) * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            true,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeError(w, http.StatusMethodNotAllowed, "invalid", "method not allowed")
			return
		}

		var req SynthesizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid", "malformed request body")
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			writeError(w, http.StatusBadRequest, "invalid", "text must not be empty")
			return
		}

		// Overrides are scoped to this request; the synthesizer's stored
		// options are not modified.
		var update tts.OptionsUpdate
		if req.Voice != "" {
			update.Voice = tts.String(req.Voice)
		}
		if req.Speed > 0 {
			update.Speed = tts.Float64(req.Speed)
		}

		logger := observability.GetLogger().With().Str("component", "synthesize_handler").Logger()
		metrics := observability.NewSynthesisMetrics()
		flusher, _ := w.(http.Flusher)

		framesSent := 0
		headersSent := false
		attempt := func() error {
			ctx, cancel := context.WithCancel(r.Context())
			defer cancel()

			stream := synth.SynthesizeWithOptions(req.Text, update, tts.DefaultConnectOptions)
			events, errs := stream.Stream(ctx)

			for ev := range events {
				if !headersSent {
					w.Header().Set("Content-Type", fmt.Sprintf("audio/L16;rate=%d;channels=%d",
						synth.SampleRate(), synth.NumChannels()))
					w.Header().Set("X-Request-Id", ev.RequestID)
					w.WriteHeader(http.StatusOK)
					headersSent = true
				}
				if _, err := w.Write(ev.Frame.Data); err != nil {
					// Client went away; abort the stream and drain.
					logger.Warn().Err(err).Msg("Client write failed, aborting synthesis")
					cancel()
					for range events {
					}
					<-errs
					return nil
				}
				framesSent++
				metrics.RecordFrame(len(ev.Frame.Data))
				if flusher != nil {
					flusher.Flush()
				}
			}

			return <-errs
		}

		err := resilience.Retry(r.Context(), func() error {
			return breaker.Call(attempt)
		}, retryCfg, func(err error) bool {
			return !headersSent && tts.IsRetryable(err)
		})

		if err == nil {
			if !headersSent {
				// Synthesis produced no audio at all; still a success.
				w.Header().Set("Content-Type", fmt.Sprintf("audio/L16;rate=%d;channels=%d",
					synth.SampleRate(), synth.NumChannels()))
				w.WriteHeader(http.StatusOK)
			}
			metrics.RecordEnd(true)
			return
		}

		metrics.RecordEnd(false)
		kind, status, message := classifyError(err)
		observability.RecordError(kind, "tts")

		if headersSent {
			// Headers are out; nothing to do but stop the stream.
			logger.Error().Err(err).Int("frames_sent", framesSent).Msg("Synthesis failed mid-stream")
			return
		}

		switch {
		case errors.Is(err, resilience.ErrCircuitOpen):
			writeError(w, http.StatusServiceUnavailable, "unavailable", "synthesis temporarily unavailable")
		case kind == "timeout":
			writeError(w, http.StatusGatewayTimeout, kind, message)
		case kind == "status":
			resp := errorResponse{Error: message, Kind: kind, Status: status}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			json.NewEncoder(w).Encode(resp)
		default:
			writeError(w, http.StatusBadGateway, kind, message)
		}
	}
}

func writeError(w http.ResponseWriter, httpStatus int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(errorResponse{Error: message, Kind: kind})
}
