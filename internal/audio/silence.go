package audio

// SilenceConfig holds thresholds for output silence detection.
type SilenceConfig struct {
	RMSThreshold float64 // RMS level below which a frame counts as silent
}

// DefaultSilenceConfig returns thresholds tuned for 16-bit synthesis output.
func DefaultSilenceConfig() *SilenceConfig {
	return &SilenceConfig{
		RMSThreshold: 50.0, // Well below audible speech, above dither noise
	}
}

// SilenceDetector watches a stream of synthesized frames and tracks whether
// any of them carried audible content. An all-silent result usually means a
// misconfigured voice or model on the synthesis server.
type SilenceDetector struct {
	config       *SilenceConfig
	frames       int
	silentFrames int
}

// NewSilenceDetector creates a detector; a nil config uses the defaults.
func NewSilenceDetector(config *SilenceConfig) *SilenceDetector {
	if config == nil {
		config = DefaultSilenceConfig()
	}
	return &SilenceDetector{config: config}
}

// Observe records one frame and reports whether it was silent.
func (d *SilenceDetector) Observe(samples []int16) bool {
	d.frames++
	if RMS(samples) < d.config.RMSThreshold {
		d.silentFrames++
		return true
	}
	return false
}

// AllSilent reports whether every observed frame was below the threshold.
// False until at least one frame has been observed.
func (d *SilenceDetector) AllSilent() bool {
	return d.frames > 0 && d.silentFrames == d.frames
}

// Frames returns how many frames have been observed.
func (d *SilenceDetector) Frames() int {
	return d.frames
}

// Reset clears the detector state for reuse across synthesis calls.
func (d *SilenceDetector) Reset() {
	d.frames = 0
	d.silentFrames = 0
}
