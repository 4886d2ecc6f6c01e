package audio

import (
	"math"
	"time"
)

// DecodePCM16 converts little-endian 16-bit PCM bytes to samples. A trailing
// partial sample, if any, is ignored.
func DecodePCM16(data []byte) []int16 {
	samples := make([]int16, len(data)/BytesPerSample)
	for i := range samples {
		samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
	return samples
}

// EncodePCM16 converts samples to little-endian 16-bit PCM bytes.
func EncodePCM16(samples []int16) []byte {
	data := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		data[i*2] = byte(s)
		data[i*2+1] = byte(s >> 8)
	}
	return data
}

// RMS returns the root mean square level of the samples.
// Useful for logging output levels and spotting silent synthesis results.
func RMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// PCMDuration returns the playback duration of n bytes of 16-bit PCM at the
// given sample rate and channel count.
func PCMDuration(n, sampleRate, channels int) time.Duration {
	if sampleRate <= 0 || channels <= 0 {
		return 0
	}
	samplesPerChannel := n / (BytesPerSample * channels)
	return time.Duration(samplesPerChannel) * time.Second / time.Duration(sampleRate)
}
