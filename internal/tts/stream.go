package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/kokorolabs/kokoro-gateway/internal/audio"
	"github.com/rs/zerolog"
)

// requestTimeout is the fixed upper bound on one synthesis request. It is
// enforced alongside the caller's connect timeout; both bounds apply
// independently.
const requestTimeout = 30 * time.Second

const speechPath = "/audio/speech"

// speechRequest is the OpenAI-compatible speech synthesis payload.
type speechRequest struct {
	Input          string  `json:"input"`
	Model          string  `json:"model"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed,omitempty"`
}

// errorBody is the structured payload Kokoro returns on non-2xx responses.
// Some OpenAI-compatible servers nest it under an "error" key instead.
type errorBody struct {
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

type errorEnvelope struct {
	Error *errorBody `json:"error"`
}

// ChunkedStream performs one synthesis call: a single streaming POST whose
// response bytes are re-framed into fixed-duration PCM frames and emitted in
// arrival order. A stream is single-use; it holds an immutable snapshot of
// the synthesizer's options taken at creation.
type ChunkedStream struct {
	text       string
	opts       Options
	connOpts   ConnectOptions
	baseURL    string
	apiKey     string
	frameDur   time.Duration
	httpClient *http.Client
	logger     zerolog.Logger

	started   atomic.Bool
	requestID atomic.Value // string, set once the server accepts the request
}

// InputText returns the text this stream synthesizes.
func (s *ChunkedStream) InputText() string { return s.text }

// RequestID returns the identifier tagging this stream's events. Empty until
// the server has accepted the request. Safe to call while the stream is being
// driven.
func (s *ChunkedStream) RequestID() string {
	if v := s.requestID.Load(); v != nil {
		return v.(string)
	}
	return ""
}

// Options returns the option snapshot the stream was created with.
func (s *ChunkedStream) Options() Options { return s.opts }

// Run issues the synthesis request and sends one SynthesizedAudio per frame
// on out until the response is exhausted, then flushes any buffered
// remainder as a final short frame. Run never closes out and never retries;
// on any fault it stops emitting and returns a TimeoutError, StatusError or
// ConnectionError. Frames already emitted before a fault stand.
func (s *ChunkedStream) Run(ctx context.Context, out chan<- SynthesizedAudio) error {
	if !s.started.CompareAndSwap(false, true) {
		return &ConnectionError{Err: errors.New("stream already driven")}
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	payload, err := json.Marshal(speechRequest{
		Input:          s.text,
		Model:          s.opts.Model,
		Voice:          s.opts.Voice,
		ResponseFormat: "pcm",
		Speed:          s.opts.Speed,
	})
	if err != nil {
		return &ConnectionError{Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, s.baseURL+speechPath, bytes.NewReader(payload))
	if err != nil {
		return &ConnectionError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	// The caller's connect timeout bounds the header wait independently of
	// the overall request deadline.
	var connTimedOut atomic.Bool
	var headerTimer *time.Timer
	if s.connOpts.Timeout > 0 {
		headerTimer = time.AfterFunc(s.connOpts.Timeout, func() {
			connTimedOut.Store(true)
			cancel()
		})
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if headerTimer != nil {
		headerTimer.Stop()
	}
	if err != nil {
		if connTimedOut.Load() {
			return &TimeoutError{Err: err}
		}
		return translateTransportErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusErrorFromResponse(resp)
	}

	requestID := fmt.Sprintf("req-%s", uuid.New().String())
	s.requestID.Store(requestID)
	logger := s.logger.With().Str("request_id", requestID).Logger()
	logger.Debug().
		Dur("header_wait", time.Since(start)).
		Str("voice", s.opts.Voice).
		Msg("Synthesis stream started")

	bs := audio.NewByteStreamWithDuration(SampleRate, NumChannels, s.frameDur)
	var frames, bytesOut int

	emit := func(f audio.Frame) error {
		select {
		case out <- SynthesizedAudio{RequestID: requestID, Frame: f}:
			frames++
			bytesOut += len(f.Data)
			return nil
		case <-reqCtx.Done():
			if connTimedOut.Load() || errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
				return &TimeoutError{Err: reqCtx.Err()}
			}
			return &ConnectionError{Err: reqCtx.Err()}
		}
	}

	buf := make([]byte, 4096)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			for _, f := range bs.Write(buf[:n]) {
				if err := emit(f); err != nil {
					return err
				}
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			if connTimedOut.Load() {
				return &TimeoutError{Err: rerr}
			}
			return translateTransportErr(rerr)
		}
	}

	for _, f := range bs.Flush() {
		if err := emit(f); err != nil {
			return err
		}
	}

	logger.Info().
		Int("frames", frames).
		Int("bytes", bytesOut).
		Dur("elapsed", time.Since(start)).
		Msg("Synthesis completed")
	return nil
}

// Stream drives the synthesis in a background goroutine and returns the
// event and error channels. Both are closed once the run finishes; the error
// channel delivers at most one error.
func (s *ChunkedStream) Stream(ctx context.Context) (<-chan SynthesizedAudio, <-chan error) {
	events := make(chan SynthesizedAudio, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errCh)
		if err := s.Run(ctx, events); err != nil {
			errCh <- err
		}
	}()

	return events, errCh
}

// statusErrorFromResponse drains a non-2xx response into a StatusError,
// preserving the raw body and extracting {message, request_id} when the body
// parses as JSON.
func statusErrorFromResponse(resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	serr := &StatusError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get("X-Request-Id"),
		Body:       body,
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Message != "" {
		serr.Message = eb.Message
		if serr.RequestID == "" {
			serr.RequestID = eb.RequestID
		}
		return serr
	}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		serr.Message = env.Error.Message
		if serr.RequestID == "" {
			serr.RequestID = env.Error.RequestID
		}
	}
	return serr
}

func translateTransportErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{Err: err}
	}

	return &ConnectionError{Err: err}
}
