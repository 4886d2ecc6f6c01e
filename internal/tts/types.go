package tts

import (
	"time"

	"github.com/kokorolabs/kokoro-gateway/internal/audio"
)

// Output format of the Kokoro server: raw 16-bit PCM, 24kHz mono.
const (
	SampleRate  = 24000
	NumChannels = 1
)

// Capabilities describes what a synthesizer supports.
type Capabilities struct {
	// Streaming reports whether the synthesizer accepts incremental text
	// input. Kokoro does not: the full input text must be known before a
	// synthesis call starts.
	Streaming bool
}

// SynthesizedAudio is one emitted audio frame tagged with the request that
// produced it. Events for a single synthesis call share one request ID and
// arrive in the order their bytes were received.
type SynthesizedAudio struct {
	RequestID string
	Frame     audio.Frame
}

// ConnectOptions is the caller-supplied connection policy for one synthesis
// call. Timeout bounds the wait for response headers. MaxRetries and
// RetryInterval are advisory for callers that wrap Synthesize in a retry
// loop; the transport itself never retries.
type ConnectOptions struct {
	Timeout       time.Duration
	MaxRetries    int
	RetryInterval time.Duration
}

// DefaultConnectOptions is used when the caller has no specific policy.
var DefaultConnectOptions = ConnectOptions{
	Timeout:       10 * time.Second,
	MaxRetries:    3,
	RetryInterval: 2 * time.Second,
}

// Synthesizer is the contract consumed by the gateway to produce audio
// streams from text.
type Synthesizer interface {
	// Capabilities reports the synthesizer's streaming capability flags.
	Capabilities() Capabilities

	// SampleRate returns the output sample rate in Hz.
	SampleRate() int

	// NumChannels returns the output channel count.
	NumChannels() int

	// UpdateOptions applies a partial update to the stored synthesis
	// options. Streams already created keep their snapshot.
	UpdateOptions(update OptionsUpdate)

	// Synthesize returns a stream bound to a snapshot of the current
	// options. No network call occurs until the stream is driven.
	Synthesize(text string, connOpts ConnectOptions) *ChunkedStream

	// SynthesizeWithOptions is Synthesize with per-call overrides merged
	// into the snapshot. The stored options are not modified, so overrides
	// never leak into later calls.
	SynthesizeWithOptions(text string, update OptionsUpdate, connOpts ConnectOptions) *ChunkedStream
}
