package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_StateClosed(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 1*time.Second)

	if cb.GetState() != StateClosed {
		t.Errorf("Expected initial state to be Closed, got %d", cb.GetState())
	}

	if !cb.allowRequest() {
		t.Error("Expected to allow request in Closed state")
	}
}

func TestCircuitBreaker_OpenAfterFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 1*time.Second)

	cb.RecordResult(false)
	cb.RecordResult(false)
	if cb.GetState() != StateClosed {
		t.Error("Expected state to still be Closed after 2 failures")
	}

	// Third failure should open circuit
	cb.RecordResult(false)
	if cb.GetState() != StateOpen {
		t.Error("Expected state to be Open after 3 failures")
	}

	if cb.allowRequest() {
		t.Error("Expected to not allow request in Open state")
	}
}

func TestCircuitBreaker_HalfOpen(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 50*time.Millisecond)

	cb.RecordResult(false)
	cb.RecordResult(false)
	cb.RecordResult(false)

	if cb.GetState() != StateOpen {
		t.Fatal("Expected circuit to be Open")
	}

	time.Sleep(80 * time.Millisecond)

	// First request after the reset timeout probes in half-open
	if !cb.allowRequest() {
		t.Error("Expected to allow request after timeout (HalfOpen)")
	}
	if cb.GetState() != StateHalfOpen {
		t.Errorf("Expected state to be HalfOpen, got %d", cb.GetState())
	}
}

func TestCircuitBreaker_CloseAfterSuccess(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 50*time.Millisecond)

	cb.RecordResult(false)
	cb.RecordResult(false)
	cb.RecordResult(false)

	time.Sleep(80 * time.Millisecond)
	cb.allowRequest()

	// Enough successes in half-open close the circuit
	for i := 0; i < 3; i++ {
		cb.RecordResult(true)
	}

	if cb.GetState() != StateClosed {
		t.Error("Expected state to be Closed after successes in HalfOpen")
	}
}

func TestCircuitBreaker_OpenAfterFailureInHalfOpen(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 50*time.Millisecond)

	cb.RecordResult(false)
	cb.RecordResult(false)
	cb.RecordResult(false)

	time.Sleep(80 * time.Millisecond)
	cb.allowRequest()

	// Any failure in half-open reopens immediately
	cb.RecordResult(false)

	if cb.GetState() != StateOpen {
		t.Error("Expected state to be Open after failure in HalfOpen")
	}
}

func TestCircuitBreaker_Call(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 1*time.Second)

	err := cb.Call(func() error {
		return nil
	})
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	err = cb.Call(func() error {
		return errors.New("test error")
	})
	if err == nil {
		t.Error("Expected error from failed call")
	}
}

func TestCircuitBreaker_CallOpen(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, 1*time.Second)

	cb.RecordResult(false)

	err := cb.Call(func() error {
		t.Error("Function should not run while circuit is open")
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen, got %v", err)
	}
}

func TestCircuitBreaker_GetStats(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 1*time.Second)

	cb.RecordResult(true)
	cb.RecordResult(true)
	cb.RecordResult(false)

	state, requestCount, failureCount, failureRate := cb.GetStats()

	if state != StateClosed {
		t.Errorf("Expected state Closed, got %d", state)
	}
	if requestCount != 3 {
		t.Errorf("Expected 3 requests, got %d", requestCount)
	}
	if failureCount != 1 {
		t.Errorf("Expected 1 failure, got %d", failureCount)
	}
	if failureRate < 33.0 || failureRate > 34.0 {
		t.Errorf("Expected failure rate around 33.33%%, got %.2f%%", failureRate)
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 1*time.Second)

	cb.RecordResult(false)
	cb.RecordResult(false)
	cb.RecordResult(false)

	if cb.GetState() != StateOpen {
		t.Fatal("Expected circuit to be Open")
	}

	cb.Reset()

	state, requestCount, failureCount, _ := cb.GetStats()
	if state != StateClosed || requestCount != 0 || failureCount != 0 {
		t.Error("Expected stats to be cleared after reset")
	}
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	cb := NewCircuitBreaker("kokoro", 2, 1*time.Second)

	var transitions []CircuitState
	cb.OnStateChange(func(name string, state CircuitState) {
		if name != "kokoro" {
			t.Errorf("Expected breaker name 'kokoro', got %q", name)
		}
		transitions = append(transitions, state)
	})

	cb.RecordResult(false)
	cb.RecordResult(false)

	if len(transitions) != 1 || transitions[0] != StateOpen {
		t.Errorf("Expected one transition to Open, got %v", transitions)
	}
}
