package transfer

import (
	"errors"
	"math"
	"testing"
)

func TestClampedLinearScenario(t *testing.T) {
	fn := ClampedLinear{MinRate: 1, MaxRate: 10, MinCurrent: 0, MaxCurrent: 1}
	inputs := []float64{0, 0.5, 1, 2}
	want := []float64{1, 5.5, 10, 10}
	got := Curve(fn, inputs)
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("rate at %g: got=%g want=%g", inputs[i], got[i], want[i])
		}
	}
}

func TestClampedLinearClampsAndIsMonotonic(t *testing.T) {
	fn := ClampedLinear{MinRate: 2, MaxRate: 40, MinCurrent: -0.5, MaxCurrent: 1.5}

	for _, x := range []float64{-100, -1, -0.5} {
		if got := fn.Rate(x); got != fn.MinRate {
			t.Fatalf("expected min_rate below window at %g, got %g", x, got)
		}
	}
	for _, x := range []float64{1.5, 2, 1e6} {
		if got := fn.Rate(x); got != fn.MaxRate {
			t.Fatalf("expected max_rate above window at %g, got %g", x, got)
		}
	}

	prev := fn.Rate(-0.5)
	for x := -0.49; x < 1.5; x += 0.01 {
		got := fn.Rate(x)
		if got <= prev {
			t.Fatalf("rate not strictly increasing at %g: prev=%g got=%g", x, prev, got)
		}
		if got < fn.MinRate || got > fn.MaxRate {
			t.Fatalf("rate %g outside [%g, %g]", got, fn.MinRate, fn.MaxRate)
		}
		prev = got
	}
}

func TestClampedLinearZeroWidthWindowIsThreshold(t *testing.T) {
	fn := ClampedLinear{MinRate: 0, MaxRate: 5, MinCurrent: 1, MaxCurrent: 1}
	if got := fn.Rate(0.999); got != 0 {
		t.Fatalf("below threshold: got=%g", got)
	}
	if got := fn.Rate(1); got != 0 {
		t.Fatalf("at threshold: got=%g", got)
	}
	if got := fn.Rate(1.001); got != 5 {
		t.Fatalf("above threshold: got=%g", got)
	}
	if err := fn.Validate(); err != nil {
		t.Fatalf("zero-width window should validate: %v", err)
	}
}

func TestGaussianBumpScenario(t *testing.T) {
	fn := GaussianBump{MinRate: 1, MaxRate: 10, MeanCurrent: 0, SigmaCurrent: 1}
	if got := fn.Rate(0); got != 10 {
		t.Fatalf("peak: got=%g want=10", got)
	}
	want := 1 + 9*math.Exp(-2)
	if got := fn.Rate(2); math.Abs(got-want) > 1e-12 {
		t.Fatalf("rate at 2: got=%g want=%g", got, want)
	}
	if math.Abs(fn.Rate(2)-2.218) > 1e-3 {
		t.Fatalf("rate at 2 should be about 2.218, got %g", fn.Rate(2))
	}
}

func TestGaussianBumpSymmetryAndTails(t *testing.T) {
	fn := GaussianBump{MinRate: 3, MaxRate: 50, MeanCurrent: 0.7, SigmaCurrent: 0.25}
	for _, d := range []float64{0.01, 0.1, 0.3, 1, 4} {
		left := fn.Rate(fn.MeanCurrent - d)
		right := fn.Rate(fn.MeanCurrent + d)
		if math.Abs(left-right) > 1e-9 {
			t.Fatalf("asymmetric at d=%g: left=%g right=%g", d, left, right)
		}
		if left < fn.MinRate || left > fn.MaxRate {
			t.Fatalf("rate %g outside [%g, %g]", left, fn.MinRate, fn.MaxRate)
		}
	}
	if got := fn.Rate(1e6); got != fn.MinRate {
		t.Fatalf("far tail: got=%g want=%g", got, fn.MinRate)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		params Params
		ok     bool
	}{
		{name: "linear defaults", params: Params{Kind: KindClampedLinear, Linear: DefaultClampedLinear()}, ok: true},
		{name: "gaussian defaults", params: Params{Kind: KindGaussianBump, Gaussian: DefaultGaussianBump()}, ok: true},
		{name: "negative min rate", params: Params{Kind: KindClampedLinear, Linear: ClampedLinear{MinRate: -1, MaxRate: 1, MaxCurrent: 1}}},
		{name: "negative max rate", params: Params{Kind: KindGaussianBump, Gaussian: GaussianBump{MinRate: 0, MaxRate: -1, SigmaCurrent: 1}}},
		{name: "inverted rates", params: Params{Kind: KindClampedLinear, Linear: ClampedLinear{MinRate: 5, MaxRate: 1, MaxCurrent: 1}}},
		{name: "inverted current window", params: Params{Kind: KindClampedLinear, Linear: ClampedLinear{MinRate: 1, MaxRate: 2, MinCurrent: 2, MaxCurrent: 1}}},
		{name: "zero sigma", params: Params{Kind: KindGaussianBump, Gaussian: GaussianBump{MinRate: 1, MaxRate: 2}}},
		{name: "nan rate", params: Params{Kind: KindGaussianBump, Gaussian: GaussianBump{MinRate: math.NaN(), MaxRate: 2, SigmaCurrent: 1}}},
		{name: "unknown kind", params: Params{}},
	}
	for _, tc := range cases {
		err := tc.params.Validate()
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind("gaussian_bump")
	if err != nil || kind != KindGaussianBump {
		t.Fatalf("unexpected parse result: kind=%v err=%v", kind, err)
	}
	if _, err := ParseKind("sigmoid"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
	params, err := DefaultParams(KindClampedLinear)
	if err != nil {
		t.Fatalf("default params: %v", err)
	}
	if got := params.Rate(0.5); got != 5.5 {
		t.Fatalf("dispatch rate: got=%g want=5.5", got)
	}
	if min, max := params.RateBounds(); min != 1 || max != 10 {
		t.Fatalf("unexpected bounds: %g %g", min, max)
	}
}
