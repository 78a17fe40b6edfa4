package util

import (
	"math"
	"testing"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{3.333333, 3.33},
		{3.336, 3.34},
		{-3.336, -3.34},
		{0, 0},
		{math.NaN(), 0},
		{math.Inf(1), 0},
		{math.Inf(-1), 0},
	}

	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(150, 0, 100); got != 100 {
		t.Errorf("Clamp(150, 0, 100) = %v, want 100", got)
	}
	if got := Clamp(-5, 0, 100); got != 0 {
		t.Errorf("Clamp(-5, 0, 100) = %v, want 0", got)
	}
	if got := Clamp(42, 0, 100); got != 42 {
		t.Errorf("Clamp(42, 0, 100) = %v, want 42", got)
	}
}

func TestMeanAndVariance(t *testing.T) {
	if got := Mean(nil); got != 0 {
		t.Errorf("Mean(nil) = %v, want 0", got)
	}
	if got := Mean([]float64{2, 4, 6}); got != 4 {
		t.Errorf("Mean() = %v, want 4", got)
	}

	if got := Variance([]float64{5}); got != 0 {
		t.Errorf("Variance(single) = %v, want 0", got)
	}
	if got := Variance([]float64{3, 3, 3}); got != 0 {
		t.Errorf("Variance(flat) = %v, want 0", got)
	}
	// Population variance of {2, 4} is 1.
	if got := Variance([]float64{2, 4}); got != 1 {
		t.Errorf("Variance({2,4}) = %v, want 1", got)
	}
}

func TestSafeRatio(t *testing.T) {
	if got := SafeRatio(10, 0); got != 0 {
		t.Errorf("SafeRatio(10, 0) = %v, want 0", got)
	}
	if got := SafeRatio(10, 4); got != 2.5 {
		t.Errorf("SafeRatio(10, 4) = %v, want 2.5", got)
	}
}
