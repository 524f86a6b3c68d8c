package stimulus

import (
	"math"
	"testing"
)

func TestStepCurrent(t *testing.T) {
	s, err := NewStepCurrent([]float64{10, 20, 30}, []float64{0.5, 1, -1})
	if err != nil {
		t.Fatalf("new step current: %v", err)
	}
	cases := []struct {
		t, want float64
	}{
		{t: 0, want: 0},
		{t: 9.9, want: 0},
		{t: 10, want: 0.5},
		{t: 15, want: 0.5},
		{t: 20, want: 1},
		{t: 29.9, want: 1},
		{t: 1000, want: -1},
	}
	for _, tc := range cases {
		if got := s.At(tc.t); got != tc.want {
			t.Fatalf("At(%g): got=%g want=%g", tc.t, got, tc.want)
		}
	}
}

func TestStepCurrentValidation(t *testing.T) {
	if _, err := NewStepCurrent([]float64{1, 2}, []float64{1}); err == nil {
		t.Fatal("expected length mismatch error")
	}
	if _, err := NewStepCurrent([]float64{2, 1}, []float64{1, 1}); err == nil {
		t.Fatal("expected ordering error")
	}
	if _, err := NewStepCurrent([]float64{math.NaN()}, []float64{1}); err == nil {
		t.Fatal("expected non-finite time error")
	}
}

func TestConstantAndSinusoid(t *testing.T) {
	if got := Constant(0.3).At(123); got != 0.3 {
		t.Fatalf("constant: got=%g", got)
	}
	s := Sinusoid{Offset: 1, Amplitude: 2, FrequencyHz: 10}
	if got := s.At(0); math.Abs(got-1) > 1e-12 {
		t.Fatalf("sinusoid at 0: got=%g", got)
	}
	if got := s.At(25); math.Abs(got-3) > 1e-9 {
		t.Fatalf("sinusoid at quarter period: got=%g", got)
	}
}
