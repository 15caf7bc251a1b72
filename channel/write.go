// File: channel/write.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Uniform write algorithms, mirroring read.go: the buffer forms take the
// first readable range, clamp by the cap, issue the operation, and
// advance the consumed cursor with Discard.

package channel

import (
	"github.com/momentics/hioload-aio/api"
	"github.com/momentics/hioload-aio/task"
)

// firstReadable picks and clamps the buffer's leading readable range.
func firstReadable(b api.Buffer, n int) ([]byte, error) {
	ranges := b.ReadableRanges()
	if len(ranges) == 0 || len(ranges[0]) == 0 {
		return nil, api.ErrNoDataInBuffer
	}
	span := ranges[0]
	if n > 0 && n < len(span) {
		span = span[:n]
	}
	return span, nil
}

// WriteSome performs one write from the buffer's first readable range.
func WriteSome(ch api.SeqWriteChannel, b api.Buffer, n int) (int, error) {
	span, err := firstReadable(b, n)
	if err != nil {
		return 0, err
	}
	cnt, err := ch.WriteSome(span)
	if err != nil {
		return 0, err
	}
	b.Discard(cnt)
	return cnt, nil
}

// AsyncWriteSome is the asynchronous twin of WriteSome.
func AsyncWriteSome(ch api.SeqWriteChannel, b api.Buffer, n int) *task.Task[int] {
	return task.New(func() (int, error) {
		span, err := firstReadable(b, n)
		if err != nil {
			return 0, err
		}
		cnt, err := task.Await(ch.AsyncWriteSome(span))
		if err != nil {
			return 0, err
		}
		b.Discard(cnt)
		return cnt, nil
	})
}

// WriteSomeAt performs one write at an absolute offset.
func WriteSomeAt(ch api.DirectWriteChannel, off int64, b api.Buffer, n int) (int, error) {
	span, err := firstReadable(b, n)
	if err != nil {
		return 0, err
	}
	cnt, err := ch.WriteSomeAt(off, span)
	if err != nil {
		return 0, err
	}
	b.Discard(cnt)
	return cnt, nil
}

// AsyncWriteSomeAt is the asynchronous twin of WriteSomeAt.
func AsyncWriteSomeAt(ch api.DirectWriteChannel, off int64, b api.Buffer, n int) *task.Task[int] {
	return task.New(func() (int, error) {
		span, err := firstReadable(b, n)
		if err != nil {
			return 0, err
		}
		cnt, err := task.Await(ch.AsyncWriteSomeAt(off, span))
		if err != nil {
			return 0, err
		}
		b.Discard(cnt)
		return cnt, nil
	})
}

// WriteAll loops WriteSome until n bytes leave (or the buffer drains,
// with n unlimited) or an error stops it.
func WriteAll(ch api.SeqWriteChannel, b api.Buffer, n int) (int64, error) {
	var total int64
	for {
		remaining := remainingCap(n, total)
		if remaining == 0 {
			return total, nil
		}
		cnt, err := WriteSome(ch, b, remaining)
		if err != nil {
			if err == api.ErrNoDataInBuffer && n <= 0 && total > 0 {
				return total, nil
			}
			return total, err
		}
		total += int64(cnt)
	}
}

// AsyncWriteAll is the asynchronous twin of WriteAll.
func AsyncWriteAll(ch api.SeqWriteChannel, b api.Buffer, n int) *task.Task[int64] {
	return task.New(func() (int64, error) {
		var total int64
		for {
			remaining := remainingCap(n, total)
			if remaining == 0 {
				return total, nil
			}
			cnt, err := task.Await(AsyncWriteSome(ch, b, remaining))
			if err != nil {
				if err == api.ErrNoDataInBuffer && n <= 0 && total > 0 {
					return total, nil
				}
				return total, err
			}
			total += int64(cnt)
		}
	})
}

// WriteAllAt is WriteAll for direct-access channels; the offset advances
// past each partial write.
func WriteAllAt(ch api.DirectWriteChannel, off int64, b api.Buffer, n int) (int64, error) {
	var total int64
	for {
		remaining := remainingCap(n, total)
		if remaining == 0 {
			return total, nil
		}
		cnt, err := WriteSomeAt(ch, off+total, b, remaining)
		if err != nil {
			if err == api.ErrNoDataInBuffer && n <= 0 && total > 0 {
				return total, nil
			}
			return total, err
		}
		total += int64(cnt)
	}
}

// AsyncWriteAllAt is the asynchronous twin of WriteAllAt.
func AsyncWriteAllAt(ch api.DirectWriteChannel, off int64, b api.Buffer, n int) *task.Task[int64] {
	return task.New(func() (int64, error) {
		var total int64
		for {
			remaining := remainingCap(n, total)
			if remaining == 0 {
				return total, nil
			}
			cnt, err := task.Await(AsyncWriteSomeAt(ch, off+total, b, remaining))
			if err != nil {
				if err == api.ErrNoDataInBuffer && n <= 0 && total > 0 {
					return total, nil
				}
				return total, err
			}
			total += int64(cnt)
		}
	})
}
