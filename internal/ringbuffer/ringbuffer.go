// Package ringbuffer accumulates weighted input that arrives with a delivery
// delay. Slots are addressed relative to the start of the current slice.
package ringbuffer

import (
	"errors"
	"fmt"
)

var ErrDeliveryOutOfRange = errors.New("delivery offset outside ring buffer")

type RingBuffer struct {
	values []float64
	origin int
}

// New returns a buffer able to hold contributions up to size-1 steps ahead of
// the slice origin.
func New(size int) (*RingBuffer, error) {
	if size <= 0 {
		return nil, errors.New("ring buffer size must be > 0")
	}
	return &RingBuffer{values: make([]float64, size)}, nil
}

func (b *RingBuffer) Len() int {
	return len(b.values)
}

// AddValue sums v into the slot offset steps after the slice origin.
func (b *RingBuffer) AddValue(offset int64, v float64) error {
	if offset < 0 || offset >= int64(len(b.values)) {
		return fmt.Errorf("%w: offset=%d size=%d", ErrDeliveryOutOfRange, offset, len(b.values))
	}
	b.values[b.index(offset)] += v
	return nil
}

// Value returns the accumulated input for lag without modifying it.
func (b *RingBuffer) Value(lag int64) float64 {
	if lag < 0 || lag >= int64(len(b.values)) {
		return 0
	}
	return b.values[b.index(lag)]
}

// Advance zeroes the first n slots and moves the origin past them. Hosts call
// it once the slice covering those slots is done.
func (b *RingBuffer) Advance(n int64) {
	if n <= 0 {
		return
	}
	if n > int64(len(b.values)) {
		n = int64(len(b.values))
	}
	for i := int64(0); i < n; i++ {
		b.values[b.index(i)] = 0
	}
	b.origin = b.index(n)
}

func (b *RingBuffer) Clear() {
	for i := range b.values {
		b.values[i] = 0
	}
	b.origin = 0
}

func (b *RingBuffer) index(offset int64) int {
	return (b.origin + int(offset)) % len(b.values)
}
