// File: buffer/fixed.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fixed is a fixed-capacity circular byte buffer satisfying the api.Buffer
// producer/consumer contract. Data wraps at the end of the backing array,
// so either cursor sequence is at most two contiguous ranges.

package buffer

import "github.com/momentics/hioload-aio/api"

// Fixed is a single-producer/single-consumer circular byte buffer.
// Not safe for concurrent use; callers serialize access, matching the
// channel layer's ordering model.
type Fixed struct {
	data []byte
	head int // consumer position
	tail int // producer position
	full bool
}

var _ api.Buffer = (*Fixed)(nil)

// NewFixed allocates a buffer of the given capacity.
func NewFixed(capacity int) *Fixed {
	if capacity <= 0 {
		panic("buffer: fixed capacity must be positive")
	}
	return &Fixed{data: make([]byte, capacity)}
}

// Cap returns the buffer capacity.
func (b *Fixed) Cap() int { return len(b.data) }

// Len returns the number of readable bytes.
func (b *Fixed) Len() int {
	if b.full {
		return len(b.data)
	}
	if b.tail >= b.head {
		return b.tail - b.head
	}
	return len(b.data) - b.head + b.tail
}

// Free returns the number of writable bytes.
func (b *Fixed) Free() int { return len(b.data) - b.Len() }

// ReadableRanges returns up to two contiguous views over buffered data.
func (b *Fixed) ReadableRanges() [][]byte {
	n := b.Len()
	if n == 0 {
		return nil
	}
	if b.head+n <= len(b.data) {
		return [][]byte{b.data[b.head : b.head+n]}
	}
	return [][]byte{b.data[b.head:], b.data[:b.tail]}
}

// WritableRanges returns up to two contiguous views over free space.
func (b *Fixed) WritableRanges() [][]byte {
	free := b.Free()
	if free == 0 {
		return nil
	}
	if b.tail+free <= len(b.data) {
		return [][]byte{b.data[b.tail : b.tail+free]}
	}
	return [][]byte{b.data[b.tail:], b.data[:b.head]}
}

// Commit advances the producer cursor by n bytes written into the leading
// writable ranges.
func (b *Fixed) Commit(n int) {
	if n == 0 {
		return
	}
	if n < 0 || n > b.Free() {
		panic("buffer: commit beyond writable space")
	}
	b.tail = (b.tail + n) % len(b.data)
	if b.tail == b.head {
		b.full = true
	}
}

// Discard advances the consumer cursor by n consumed bytes.
func (b *Fixed) Discard(n int) {
	if n == 0 {
		return
	}
	if n < 0 || n > b.Len() {
		panic("buffer: discard beyond readable data")
	}
	b.head = (b.head + n) % len(b.data)
	b.full = false
}

// Write copies p into free space, returning the number of bytes accepted.
func (b *Fixed) Write(p []byte) int {
	total := 0
	for len(p) > 0 {
		ranges := b.WritableRanges()
		if len(ranges) == 0 {
			break
		}
		n := copy(ranges[0], p)
		b.Commit(n)
		p = p[n:]
		total += n
	}
	return total
}

// Read copies buffered data into p, returning the number of bytes moved.
func (b *Fixed) Read(p []byte) int {
	total := 0
	for len(p) > 0 {
		ranges := b.ReadableRanges()
		if len(ranges) == 0 {
			break
		}
		n := copy(p, ranges[0])
		b.Discard(n)
		p = p[n:]
		total += n
	}
	return total
}

// Reset empties the buffer.
func (b *Fixed) Reset() {
	b.head, b.tail, b.full = 0, 0, false
}
