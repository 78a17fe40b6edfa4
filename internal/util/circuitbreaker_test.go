package util

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestCircuitBreakerOpensAtThreshold(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute, time.Minute, nil, zap.NewNop())

	if !cb.CanExecute() {
		t.Fatal("new breaker should allow execution")
	}

	cb.RecordFailure(0)
	cb.RecordFailure(0)
	if cb.GetStatus().State != CircuitStateClosed {
		t.Errorf("state after 2 failures = %v, want CLOSED", cb.GetStatus().State)
	}

	cb.RecordFailure(0)
	if cb.GetStatus().State != CircuitStateOpen {
		t.Errorf("state after 3 failures = %v, want OPEN", cb.GetStatus().State)
	}
	if cb.CanExecute() {
		t.Error("open breaker should reject execution")
	}
}

func TestCircuitBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute, time.Minute, nil, zap.NewNop())

	cb.RecordFailure(0)
	cb.RecordFailure(0)
	cb.RecordSuccess()

	if got := cb.GetStatus().FailureCount; got != 0 {
		t.Errorf("FailureCount after success = %d, want 0", got)
	}
}

func TestCircuitBreakerRecoversAfterTimeout(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond, time.Minute, nil, zap.NewNop())

	cb.RecordFailure(0)
	if cb.CanExecute() {
		t.Fatal("breaker should be open after threshold failure")
	}

	time.Sleep(20 * time.Millisecond)

	// Elapsed timeout moves the breaker to HALF_OPEN, allowing a probe.
	if !cb.CanExecute() {
		t.Fatal("breaker should allow a probe after the reset timeout")
	}

	cb.RecordSuccess()
	if cb.GetStatus().State != CircuitStateClosed {
		t.Errorf("state after successful probe = %v, want CLOSED", cb.GetStatus().State)
	}
}

func TestCircuitBreakerReopensOnProbeFailure(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond, time.Minute, nil, zap.NewNop())

	cb.RecordFailure(0)
	time.Sleep(20 * time.Millisecond)
	if !cb.CanExecute() {
		t.Fatal("breaker should allow a probe after the reset timeout")
	}

	cb.RecordFailure(time.Minute)
	if cb.GetStatus().State != CircuitStateOpen {
		t.Errorf("state after failed probe = %v, want OPEN", cb.GetStatus().State)
	}
}

func TestCircuitBreakerManualReset(t *testing.T) {
	cb := NewCircuitBreaker(1, time.Hour, time.Minute, nil, zap.NewNop())

	cb.RecordFailure(0)
	cb.Reset()

	if cb.GetStatus().State != CircuitStateClosed || !cb.CanExecute() {
		t.Error("reset breaker should be CLOSED and executable")
	}
}
