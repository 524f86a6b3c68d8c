package recording

import "fmt"

// Row is one sample of every connected observable at a simulation step.
type Row struct {
	Step   int64
	Values []float64
}

// Logger samples a fixed set of observables every IntervalSteps steps.
type Logger struct {
	names     []string
	accessors []Accessor
	interval  int64
	rows      []Row
}

// Connect binds the logger to names from reg. An empty names list connects
// every observable reg exposes. interval <= 0 samples every step.
func (l *Logger) Connect(reg *Registry, names []string, interval int64) error {
	if len(names) == 0 {
		names = reg.Names()
	}
	accessors := make([]Accessor, 0, len(names))
	for _, name := range names {
		fn, ok := reg.Lookup(name)
		if !ok {
			return fmt.Errorf("%w: %s", ErrObservableNotFound, name)
		}
		accessors = append(accessors, fn)
	}
	if interval <= 0 {
		interval = 1
	}
	l.names = append([]string(nil), names...)
	l.accessors = accessors
	l.interval = interval
	l.rows = nil
	return nil
}

func (l *Logger) Connected() bool {
	return len(l.accessors) > 0
}

func (l *Logger) Names() []string {
	return append([]string(nil), l.names...)
}

// Record samples the connected observables if step falls on the interval.
func (l *Logger) Record(step int64) {
	if !l.Connected() || step%l.interval != 0 {
		return
	}
	values := make([]float64, len(l.accessors))
	for i, fn := range l.accessors {
		values[i] = fn()
	}
	l.rows = append(l.rows, Row{Step: step, Values: values})
}

// Drain returns the buffered rows and empties the buffer.
func (l *Logger) Drain() []Row {
	rows := l.rows
	l.rows = nil
	return rows
}

func (l *Logger) Rows() []Row {
	out := make([]Row, len(l.rows))
	copy(out, l.rows)
	return out
}

// Reset drops buffered rows but keeps the connection.
func (l *Logger) Reset() {
	l.rows = nil
}
