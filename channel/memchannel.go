// File: channel/memchannel.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Memory channel over a caller-supplied byte span. Supports both the
// sequential and direct-access capability sets; the async forms complete
// immediately but are still lazy tasks, so memory endpoints slot into
// the same algorithms as files and sockets.

package channel

import (
	"github.com/momentics/hioload-aio/api"
	"github.com/momentics/hioload-aio/task"
)

// MemChannel is a byte channel over caller-owned memory. The caller
// guarantees the span outlives the channel; Close drops the reference.
type MemChannel struct {
	span []byte
	open bool
	rpos int64
	wpos int64
}

var (
	_ api.SeqChannel    = (*MemChannel)(nil)
	_ api.DirectChannel = (*MemChannel)(nil)
)

// NewMemChannel creates a closed memory channel.
func NewMemChannel() *MemChannel { return &MemChannel{} }

// Open attaches the channel to span and resets both cursors.
func (m *MemChannel) Open(span []byte) error {
	if m.open {
		return api.ErrChannelAlreadyOpen
	}
	m.span = span
	m.open = true
	m.rpos, m.wpos = 0, 0
	return nil
}

// IsOpen reports whether a span is attached.
func (m *MemChannel) IsOpen() bool { return m.open }

// Close detaches the span.
func (m *MemChannel) Close() error {
	if !m.open {
		return api.ErrChannelNotOpen
	}
	m.span = nil
	m.open = false
	return nil
}

// AsyncClose is the asynchronous twin of Close.
func (m *MemChannel) AsyncClose() *task.Task[struct{}] {
	return task.New(func() (struct{}, error) {
		return struct{}{}, m.Close()
	})
}

// ReadSomeAt copies from the span at off. An offset at or past the end
// of the span reports ErrEndOfFile.
func (m *MemChannel) ReadSomeAt(off int64, p []byte) (int, error) {
	if !m.open {
		return 0, api.ErrChannelNotOpen
	}
	if len(p) == 0 {
		return 0, api.ErrNoSpaceInBuffer
	}
	if off >= int64(len(m.span)) {
		return 0, api.ErrEndOfFile
	}
	n := copy(p, m.span[off:])
	return n, nil
}

// WriteSomeAt copies into the span at off, clamping to the remaining
// space. An offset past the end, or at the end with data to write,
// reports ErrEndOfFile.
func (m *MemChannel) WriteSomeAt(off int64, p []byte) (int, error) {
	if !m.open {
		return 0, api.ErrChannelNotOpen
	}
	if len(p) == 0 {
		return 0, api.ErrNoDataInBuffer
	}
	if off >= int64(len(m.span)) {
		return 0, api.ErrEndOfFile
	}
	n := copy(m.span[off:], p)
	return n, nil
}

// ReadSome reads at the channel's read cursor.
func (m *MemChannel) ReadSome(p []byte) (int, error) {
	n, err := m.ReadSomeAt(m.rpos, p)
	if err != nil {
		return 0, err
	}
	m.rpos += int64(n)
	return n, nil
}

// WriteSome writes at the channel's write cursor.
func (m *MemChannel) WriteSome(p []byte) (int, error) {
	n, err := m.WriteSomeAt(m.wpos, p)
	if err != nil {
		return 0, err
	}
	m.wpos += int64(n)
	return n, nil
}

func (m *MemChannel) AsyncReadSomeAt(off int64, p []byte) *task.Task[int] {
	return task.New(func() (int, error) { return m.ReadSomeAt(off, p) })
}

func (m *MemChannel) AsyncWriteSomeAt(off int64, p []byte) *task.Task[int] {
	return task.New(func() (int, error) { return m.WriteSomeAt(off, p) })
}

func (m *MemChannel) AsyncReadSome(p []byte) *task.Task[int] {
	return task.New(func() (int, error) { return m.ReadSome(p) })
}

func (m *MemChannel) AsyncWriteSome(p []byte) *task.Task[int] {
	return task.New(func() (int, error) { return m.WriteSome(p) })
}
