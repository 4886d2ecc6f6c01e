package audio

import (
	"bytes"
	"math"
	"testing"
	"time"
)

func TestDecodePCM16(t *testing.T) {
	// -1 is 0xFFFF, 256 is 0x0100, little-endian
	data := []byte{0xFF, 0xFF, 0x00, 0x01}
	samples := DecodePCM16(data)
	if len(samples) != 2 {
		t.Fatalf("Expected 2 samples, got %d", len(samples))
	}
	if samples[0] != -1 {
		t.Errorf("Expected sample -1, got %d", samples[0])
	}
	if samples[1] != 256 {
		t.Errorf("Expected sample 256, got %d", samples[1])
	}
}

func TestDecodePCM16_IgnoresTrailingByte(t *testing.T) {
	samples := DecodePCM16([]byte{0x01, 0x00, 0x7F})
	if len(samples) != 1 {
		t.Errorf("Expected 1 sample from 3 bytes, got %d", len(samples))
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 12345}
	data := EncodePCM16(samples)
	if len(data) != len(samples)*BytesPerSample {
		t.Fatalf("Expected %d bytes, got %d", len(samples)*BytesPerSample, len(data))
	}

	decoded := DecodePCM16(data)
	for i := range samples {
		if decoded[i] != samples[i] {
			t.Errorf("Sample %d: expected %d, got %d", i, samples[i], decoded[i])
		}
	}

	if !bytes.Equal(EncodePCM16(decoded), data) {
		t.Error("Re-encoding decoded samples changed the bytes")
	}
}

func TestRMS(t *testing.T) {
	if rms := RMS(nil); rms != 0.0 {
		t.Errorf("Expected RMS 0 for empty input, got %f", rms)
	}

	if rms := RMS([]int16{0, 0, 0}); rms != 0.0 {
		t.Errorf("Expected RMS 0 for silence, got %f", rms)
	}

	// Constant amplitude: RMS equals the amplitude.
	rms := RMS([]int16{1000, -1000, 1000, -1000})
	if math.Abs(rms-1000.0) > 0.001 {
		t.Errorf("Expected RMS 1000, got %f", rms)
	}
}

func TestPCMDuration(t *testing.T) {
	// 48000 bytes of 24kHz mono 16-bit = 1 second
	if d := PCMDuration(48000, 24000, 1); d != time.Second {
		t.Errorf("Expected 1s, got %v", d)
	}

	// 4800 bytes = 100ms
	if d := PCMDuration(4800, 24000, 1); d != 100*time.Millisecond {
		t.Errorf("Expected 100ms, got %v", d)
	}

	if d := PCMDuration(100, 0, 1); d != 0 {
		t.Errorf("Expected 0 for zero sample rate, got %v", d)
	}
}
