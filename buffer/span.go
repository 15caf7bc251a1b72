// File: buffer/span.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package buffer

import "github.com/momentics/hioload-aio/api"

// Span adapts a caller-owned slice to the api.Buffer contract as a
// one-shot window: the readable side walks existing contents, the writable
// side walks the remaining capacity. Useful for feeding a plain slice to
// the buffer-aware channel algorithms without copying.
type Span struct {
	data []byte
	rpos int
	wpos int
}

var _ api.Buffer = (*Span)(nil)

// NewReadSpan wraps p as fully readable data.
func NewReadSpan(p []byte) *Span {
	return &Span{data: p, wpos: len(p)}
}

// NewWriteSpan wraps p as fully writable space.
func NewWriteSpan(p []byte) *Span {
	return &Span{data: p}
}

// Written returns the prefix of the span produced so far.
func (s *Span) Written() []byte { return s.data[:s.wpos] }

func (s *Span) ReadableRanges() [][]byte {
	if s.rpos >= s.wpos {
		return nil
	}
	return [][]byte{s.data[s.rpos:s.wpos]}
}

func (s *Span) WritableRanges() [][]byte {
	if s.wpos >= len(s.data) {
		return nil
	}
	return [][]byte{s.data[s.wpos:]}
}

func (s *Span) Commit(n int) {
	if n < 0 || s.wpos+n > len(s.data) {
		panic("buffer: commit beyond span")
	}
	s.wpos += n
}

func (s *Span) Discard(n int) {
	if n < 0 || s.rpos+n > s.wpos {
		panic("buffer: discard beyond produced data")
	}
	s.rpos += n
}
