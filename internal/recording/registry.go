package recording

import (
	"errors"
	"fmt"
)

var (
	ErrObservableExists   = errors.New("observable already registered")
	ErrObservableNotFound = errors.New("observable not found")
)

// Accessor reads the current value of one observable quantity.
type Accessor func() float64

// Registry holds the observables one device exposes. It is built when the
// device is constructed; there is no process-wide registry.
type Registry struct {
	names []string
	m     map[string]Accessor
}

func NewRegistry() *Registry {
	return &Registry{m: make(map[string]Accessor)}
}

func (r *Registry) Register(name string, fn Accessor) error {
	if name == "" {
		return errors.New("observable name is required")
	}
	if fn == nil {
		return errors.New("observable accessor is required")
	}
	if _, exists := r.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrObservableExists, name)
	}
	r.m[name] = fn
	r.names = append(r.names, name)
	return nil
}

func (r *Registry) MustRegister(name string, fn Accessor) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

func (r *Registry) Lookup(name string) (Accessor, bool) {
	fn, ok := r.m[name]
	return fn, ok
}

// Names lists observables in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}
