package transfer

import (
	"errors"
	"fmt"
	"math"
)

// Kind tags the transfer-function variant carried by a Params value.
type Kind int

const (
	KindClampedLinear Kind = iota + 1
	KindGaussianBump
)

var ErrUnknownKind = errors.New("unknown transfer function kind")

func (k Kind) String() string {
	switch k {
	case KindClampedLinear:
		return "clamped_linear"
	case KindGaussianBump:
		return "gaussian_bump"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind resolves a transfer function kind by name.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "clamped_linear", "linear":
		return KindClampedLinear, nil
	case "gaussian_bump", "gaussian", "rbf":
		return KindGaussianBump, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownKind, name)
	}
}

// Func maps an input current (or slice-average current) to a rate in Hz.
type Func interface {
	Kind() Kind
	Rate(current float64) float64
}

// Params is the tagged variant holding the parameters of exactly one
// transfer function. Only the field matching Kind is meaningful.
type Params struct {
	Kind     Kind
	Linear   ClampedLinear
	Gaussian GaussianBump
}

// Func returns the active variant.
func (p Params) Func() (Func, error) {
	switch p.Kind {
	case KindClampedLinear:
		return p.Linear, nil
	case KindGaussianBump:
		return p.Gaussian, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, p.Kind)
	}
}

// DefaultParams returns the reference defaults for kind.
func DefaultParams(kind Kind) (Params, error) {
	switch kind {
	case KindClampedLinear:
		return Params{Kind: kind, Linear: DefaultClampedLinear()}, nil
	case KindGaussianBump:
		return Params{Kind: kind, Gaussian: DefaultGaussianBump()}, nil
	default:
		return Params{}, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
}

// Validate checks the active variant.
func (p Params) Validate() error {
	switch p.Kind {
	case KindClampedLinear:
		return p.Linear.Validate()
	case KindGaussianBump:
		return p.Gaussian.Validate()
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKind, p.Kind)
	}
}

// Rate dispatches to the active variant. Unknown kinds yield 0.
func (p Params) Rate(current float64) float64 {
	fn, err := p.Func()
	if err != nil {
		return 0
	}
	return fn.Rate(current)
}

// RateBounds returns the configured rate window of the active variant.
func (p Params) RateBounds() (min, max float64) {
	switch p.Kind {
	case KindClampedLinear:
		return p.Linear.MinRate, p.Linear.MaxRate
	case KindGaussianBump:
		return p.Gaussian.MinRate, p.Gaussian.MaxRate
	default:
		return 0, 0
	}
}

// Curve evaluates fn at every input.
func Curve(fn Func, inputs []float64) []float64 {
	out := make([]float64, len(inputs))
	for i, x := range inputs {
		out[i] = fn.Rate(x)
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
