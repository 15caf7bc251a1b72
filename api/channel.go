// File: api/channel.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Channel capability contracts.
//
// A channel is a stateful byte-oriented endpoint. Each endpoint implements
// some subset of the capabilities below: the base lifecycle, sequential
// read/write with internal cursors, and direct access at caller-supplied
// offsets. Algorithms in the channel package are written against these
// interfaces, never against concrete endpoints.
//
// Contract shared by every *Some operation: a success returns a strictly
// positive byte count; end of stream is ErrEndOfFile, never a zero count;
// operations on a closed channel fail with ErrChannelNotOpen.

package api

import "github.com/momentics/hioload-aio/task"

// Channel is the base capability every endpoint carries.
type Channel interface {
	// IsOpen reports whether the channel owns a live endpoint.
	IsOpen() bool

	// Close releases the endpoint. Close on a closed channel fails with
	// ErrChannelNotOpen. Callers should prefer the explicit result over
	// relying on finalization.
	Close() error

	// AsyncClose is the asynchronous twin of Close.
	AsyncClose() *task.Task[struct{}]
}

// SeqReadChannel reads bytes at an internal read cursor that advances
// only on success.
type SeqReadChannel interface {
	Channel
	ReadSome(p []byte) (int, error)
	AsyncReadSome(p []byte) *task.Task[int]
}

// SeqWriteChannel writes bytes at an internal write cursor that advances
// only on success.
type SeqWriteChannel interface {
	Channel
	WriteSome(p []byte) (int, error)
	AsyncWriteSome(p []byte) *task.Task[int]
}

// DirectReadChannel reads bytes at caller-supplied absolute offsets.
type DirectReadChannel interface {
	Channel
	ReadSomeAt(off int64, p []byte) (int, error)
	AsyncReadSomeAt(off int64, p []byte) *task.Task[int]
}

// DirectWriteChannel writes bytes at caller-supplied absolute offsets.
type DirectWriteChannel interface {
	Channel
	WriteSomeAt(off int64, p []byte) (int, error)
	AsyncWriteSomeAt(off int64, p []byte) *task.Task[int]
}

// SeqChannel combines sequential read and write capability.
type SeqChannel interface {
	SeqReadChannel
	SeqWriteChannel
}

// DirectChannel combines direct read and write capability.
type DirectChannel interface {
	DirectReadChannel
	DirectWriteChannel
}
