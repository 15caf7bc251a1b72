// File: channel/read.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Uniform read algorithms over the channel capability contracts. The
// buffer forms take the buffer's first writable range, clamp it by the
// caller's cap, issue one underlying operation, and advance the buffer's
// produced cursor with Commit. The *All forms loop until the cap is met
// or an error stops them, returning the bytes moved so far alongside the
// error (end-of-file included).
//
// A cap of Unlimited (or any non-positive value) means "as much as the
// buffer allows".

package channel

import (
	"github.com/momentics/hioload-aio/api"
	"github.com/momentics/hioload-aio/task"
)

// Unlimited removes the byte cap from an algorithm call.
const Unlimited = 0

// firstWritable picks and clamps the buffer's leading writable range.
func firstWritable(b api.Buffer, n int) ([]byte, error) {
	ranges := b.WritableRanges()
	if len(ranges) == 0 || len(ranges[0]) == 0 {
		return nil, api.ErrNoSpaceInBuffer
	}
	span := ranges[0]
	if n > 0 && n < len(span) {
		span = span[:n]
	}
	return span, nil
}

// ReadSome performs one read into the buffer's first writable range.
func ReadSome(ch api.SeqReadChannel, b api.Buffer, n int) (int, error) {
	span, err := firstWritable(b, n)
	if err != nil {
		return 0, err
	}
	cnt, err := ch.ReadSome(span)
	if err != nil {
		return 0, err
	}
	b.Commit(cnt)
	return cnt, nil
}

// AsyncReadSome is the asynchronous twin of ReadSome.
func AsyncReadSome(ch api.SeqReadChannel, b api.Buffer, n int) *task.Task[int] {
	return task.New(func() (int, error) {
		span, err := firstWritable(b, n)
		if err != nil {
			return 0, err
		}
		cnt, err := task.Await(ch.AsyncReadSome(span))
		if err != nil {
			return 0, err
		}
		b.Commit(cnt)
		return cnt, nil
	})
}

// ReadSomeAt performs one read at an absolute offset.
func ReadSomeAt(ch api.DirectReadChannel, off int64, b api.Buffer, n int) (int, error) {
	span, err := firstWritable(b, n)
	if err != nil {
		return 0, err
	}
	cnt, err := ch.ReadSomeAt(off, span)
	if err != nil {
		return 0, err
	}
	b.Commit(cnt)
	return cnt, nil
}

// AsyncReadSomeAt is the asynchronous twin of ReadSomeAt.
func AsyncReadSomeAt(ch api.DirectReadChannel, off int64, b api.Buffer, n int) *task.Task[int] {
	return task.New(func() (int, error) {
		span, err := firstWritable(b, n)
		if err != nil {
			return 0, err
		}
		cnt, err := task.Await(ch.AsyncReadSomeAt(off, span))
		if err != nil {
			return 0, err
		}
		b.Commit(cnt)
		return cnt, nil
	})
}

// ReadAll loops ReadSome until n bytes arrive (or the buffer fills, with
// n unlimited) or an error stops it. The transferred total accompanies
// the error.
func ReadAll(ch api.SeqReadChannel, b api.Buffer, n int) (int64, error) {
	var total int64
	for {
		remaining := remainingCap(n, total)
		if remaining == 0 {
			return total, nil
		}
		cnt, err := ReadSome(ch, b, remaining)
		if err != nil {
			if err == api.ErrNoSpaceInBuffer && n <= 0 && total > 0 {
				return total, nil
			}
			return total, err
		}
		total += int64(cnt)
	}
}

// AsyncReadAll is the asynchronous twin of ReadAll.
func AsyncReadAll(ch api.SeqReadChannel, b api.Buffer, n int) *task.Task[int64] {
	return task.New(func() (int64, error) {
		var total int64
		for {
			remaining := remainingCap(n, total)
			if remaining == 0 {
				return total, nil
			}
			cnt, err := task.Await(AsyncReadSome(ch, b, remaining))
			if err != nil {
				if err == api.ErrNoSpaceInBuffer && n <= 0 && total > 0 {
					return total, nil
				}
				return total, err
			}
			total += int64(cnt)
		}
	})
}

// ReadAllAt is ReadAll for direct-access channels; the offset advances
// past each partial read.
func ReadAllAt(ch api.DirectReadChannel, off int64, b api.Buffer, n int) (int64, error) {
	var total int64
	for {
		remaining := remainingCap(n, total)
		if remaining == 0 {
			return total, nil
		}
		cnt, err := ReadSomeAt(ch, off+total, b, remaining)
		if err != nil {
			if err == api.ErrNoSpaceInBuffer && n <= 0 && total > 0 {
				return total, nil
			}
			return total, err
		}
		total += int64(cnt)
	}
}

// AsyncReadAllAt is the asynchronous twin of ReadAllAt.
func AsyncReadAllAt(ch api.DirectReadChannel, off int64, b api.Buffer, n int) *task.Task[int64] {
	return task.New(func() (int64, error) {
		var total int64
		for {
			remaining := remainingCap(n, total)
			if remaining == 0 {
				return total, nil
			}
			cnt, err := task.Await(AsyncReadSomeAt(ch, off+total, b, remaining))
			if err != nil {
				if err == api.ErrNoSpaceInBuffer && n <= 0 && total > 0 {
					return total, nil
				}
				return total, err
			}
			total += int64(cnt)
		}
	})
}

// remainingCap computes the per-iteration cap: zero means "stop", a
// negative n never caps.
func remainingCap(n int, total int64) int {
	if n <= 0 {
		return -1
	}
	left := int64(n) - total
	if left <= 0 {
		return 0
	}
	return int(left)
}
