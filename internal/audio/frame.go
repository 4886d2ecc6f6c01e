package audio

import "time"

// BytesPerSample is the width of one signed 16-bit PCM sample.
const BytesPerSample = 2

// Frame is a fixed chunk of interleaved little-endian signed 16-bit PCM.
// Frames are immutable once emitted by a ByteStream.
type Frame struct {
	SampleRate int
	Channels   int
	Data       []byte
}

// Samples returns the number of samples per channel in the frame.
func (f Frame) Samples() int {
	if f.Channels == 0 {
		return 0
	}
	return len(f.Data) / (BytesPerSample * f.Channels)
}

// Duration returns the playback duration of the frame.
func (f Frame) Duration() time.Duration {
	return PCMDuration(len(f.Data), f.SampleRate, f.Channels)
}
