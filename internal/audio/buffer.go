package audio

import "time"

// DefaultFrameDuration is the target duration of frames emitted by a ByteStream.
const DefaultFrameDuration = 100 * time.Millisecond

// ByteStream re-frames an incoming PCM byte stream into fixed-duration frames.
// Bytes are appended in arrival order; whole frames are extracted as soon as
// enough bytes have accumulated, and trailing bytes that do not fill a frame
// stay buffered for the next write. A ByteStream is owned by a single
// synthesis stream and is not safe for concurrent use.
type ByteStream struct {
	sampleRate int
	channels   int
	frameSize  int // bytes per emitted frame, always whole-sample aligned
	buf        []byte
}

// NewByteStream creates a ByteStream emitting frames of DefaultFrameDuration.
func NewByteStream(sampleRate, channels int) *ByteStream {
	return NewByteStreamWithDuration(sampleRate, channels, DefaultFrameDuration)
}

// NewByteStreamWithDuration creates a ByteStream with a custom target frame
// duration. The frame size is rounded down to a whole number of samples and
// never below one sample.
func NewByteStreamWithDuration(sampleRate, channels int, frameDur time.Duration) *ByteStream {
	samplesPerFrame := int(time.Duration(sampleRate) * frameDur / time.Second)
	if samplesPerFrame < 1 {
		samplesPerFrame = 1
	}
	return &ByteStream{
		sampleRate: sampleRate,
		channels:   channels,
		frameSize:  samplesPerFrame * channels * BytesPerSample,
	}
}

// Write appends p to the internal buffer and returns every complete frame
// that can be extracted, in order. The returned frames own their data; p may
// be reused by the caller.
func (bs *ByteStream) Write(p []byte) []Frame {
	bs.buf = append(bs.buf, p...)

	var frames []Frame
	for len(bs.buf) >= bs.frameSize {
		data := make([]byte, bs.frameSize)
		copy(data, bs.buf[:bs.frameSize])
		bs.buf = bs.buf[bs.frameSize:]
		frames = append(frames, Frame{
			SampleRate: bs.sampleRate,
			Channels:   bs.channels,
			Data:       data,
		})
	}
	return frames
}

// Flush drains the buffer into one final frame, shorter than the target frame
// size if need be. The remainder is truncated to the largest whole-sample
// prefix so a frame never carries a partial sample. Returns no frames when
// the buffer holds less than one sample.
func (bs *ByteStream) Flush() []Frame {
	align := bs.channels * BytesPerSample
	n := len(bs.buf) - len(bs.buf)%align
	if n == 0 {
		bs.buf = bs.buf[:0]
		return nil
	}

	data := make([]byte, n)
	copy(data, bs.buf[:n])
	bs.buf = bs.buf[:0]
	return []Frame{{
		SampleRate: bs.sampleRate,
		Channels:   bs.channels,
		Data:       data,
	}}
}

// Buffered returns the number of bytes currently held back.
func (bs *ByteStream) Buffered() int {
	return len(bs.buf)
}

// FrameSize returns the size in bytes of a full frame.
func (bs *ByteStream) FrameSize() int {
	return bs.frameSize
}
