package config

import (
	"os"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default Port '8080', got '%s'", cfg.Port)
	}

	if cfg.KokoroBaseURL != "http://localhost:8000/v1" {
		t.Errorf("Expected default KokoroBaseURL 'http://localhost:8000/v1', got '%s'", cfg.KokoroBaseURL)
	}

	if cfg.KokoroAPIKey != "sk-kokoro" {
		t.Errorf("Expected default KokoroAPIKey 'sk-kokoro', got '%s'", cfg.KokoroAPIKey)
	}

	if cfg.KokoroModel != "tts-1" {
		t.Errorf("Expected default KokoroModel 'tts-1', got '%s'", cfg.KokoroModel)
	}

	if cfg.KokoroVoice != "af_heart" {
		t.Errorf("Expected default KokoroVoice 'af_heart', got '%s'", cfg.KokoroVoice)
	}

	if cfg.KokoroSpeed != 1.0 {
		t.Errorf("Expected default KokoroSpeed 1.0, got %f", cfg.KokoroSpeed)
	}

	if cfg.FrameDurationMs != 100 {
		t.Errorf("Expected default FrameDurationMs 100, got %d", cfg.FrameDurationMs)
	}
}

func TestLoad_ConnectionPoolDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.ConnectTimeout != 15 {
		t.Errorf("Expected default ConnectTimeout 15, got %d", cfg.ConnectTimeout)
	}

	if cfg.ReadTimeout != 5 {
		t.Errorf("Expected default ReadTimeout 5, got %d", cfg.ReadTimeout)
	}

	if cfg.MaxConnections != 50 {
		t.Errorf("Expected default MaxConnections 50, got %d", cfg.MaxConnections)
	}

	if cfg.MaxIdleConns != 50 {
		t.Errorf("Expected default MaxIdleConns 50, got %d", cfg.MaxIdleConns)
	}

	if cfg.IdleConnExpiry != 120 {
		t.Errorf("Expected default IdleConnExpiry 120, got %d", cfg.IdleConnExpiry)
	}
}

func TestLoad_Overrides(t *testing.T) {
	os.Setenv("KOKORO_BASE_URL", "http://tts.internal:9000/v1")
	os.Setenv("KOKORO_VOICE", "af_bella")
	os.Setenv("KOKORO_SPEED", "1.25")
	os.Setenv("AUDIO_FRAME_MS", "20")
	defer os.Unsetenv("KOKORO_BASE_URL")
	defer os.Unsetenv("KOKORO_VOICE")
	defer os.Unsetenv("KOKORO_SPEED")
	defer os.Unsetenv("AUDIO_FRAME_MS")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.KokoroBaseURL != "http://tts.internal:9000/v1" {
		t.Errorf("Expected overridden KokoroBaseURL, got '%s'", cfg.KokoroBaseURL)
	}

	if cfg.KokoroVoice != "af_bella" {
		t.Errorf("Expected overridden KokoroVoice 'af_bella', got '%s'", cfg.KokoroVoice)
	}

	if cfg.KokoroSpeed != 1.25 {
		t.Errorf("Expected overridden KokoroSpeed 1.25, got %f", cfg.KokoroSpeed)
	}

	if cfg.FrameDurationMs != 20 {
		t.Errorf("Expected overridden FrameDurationMs 20, got %d", cfg.FrameDurationMs)
	}
}

func TestLoadFromEnv_InvalidFrameDuration(t *testing.T) {
	os.Setenv("AUDIO_FRAME_MS", "0")
	defer os.Unsetenv("AUDIO_FRAME_MS")

	_, err := LoadFromEnv()
	if err == nil {
		t.Error("Expected error for non-positive frame duration")
	}
}

func TestGetEnv(t *testing.T) {
	os.Setenv("TEST_KEY", "test-value")
	defer os.Unsetenv("TEST_KEY")

	value := GetEnv("TEST_KEY", "default")
	if value != "test-value" {
		t.Errorf("Expected 'test-value', got '%s'", value)
	}

	value = GetEnv("NON_EXISTENT_KEY", "default")
	if value != "default" {
		t.Errorf("Expected 'default', got '%s'", value)
	}
}

func TestConfig_ResilienceDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.CircuitBreakerMaxFailures != 5 {
		t.Errorf("Expected default CircuitBreakerMaxFailures 5, got %d", cfg.CircuitBreakerMaxFailures)
	}

	if cfg.CircuitBreakerResetTimeout != 30 {
		t.Errorf("Expected default CircuitBreakerResetTimeout 30, got %d", cfg.CircuitBreakerResetTimeout)
	}

	if cfg.RetryMaxAttempts != 3 {
		t.Errorf("Expected default RetryMaxAttempts 3, got %d", cfg.RetryMaxAttempts)
	}

	if cfg.RetryInitialBackoff != 100 {
		t.Errorf("Expected default RetryInitialBackoff 100, got %d", cfg.RetryInitialBackoff)
	}
}

func TestConfig_ObservabilityDefaults(t *testing.T) {
	// Clear LOG_LEVEL to ensure we get the default
	os.Unsetenv("LOG_LEVEL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default LogLevel 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.LogPretty {
		t.Error("Expected default LogPretty false, got true")
	}

	if !cfg.MetricsEnabled {
		t.Error("Expected default MetricsEnabled true, got false")
	}
}
