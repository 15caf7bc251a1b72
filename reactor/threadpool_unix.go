//go:build !windows

// File: reactor/threadpool_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Thread-pool file backend: each operation is a blocking syscall posted to
// a dedicated I/O pool; the pool worker fills the continuation record when
// the syscall returns. The pool is separate from the reactor's public
// executor so awaiters blocked on those workers can never starve the
// syscalls that would resume them. Used on POSIX systems without a usable
// kernel completion port.

package reactor

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-aio/api"
	"github.com/momentics/hioload-aio/concurrency"
	"github.com/momentics/hioload-aio/task"
)

type threadPoolFiles struct {
	ex      *concurrency.Executor
	stopped atomic.Bool

	mu       sync.Mutex
	inflight map[*task.Completion]struct{}
}

func newThreadPoolFiles(workers int) *threadPoolFiles {
	return &threadPoolFiles{
		ex:       concurrency.NewExecutor(workers),
		inflight: make(map[*task.Completion]struct{}),
	}
}

func (t *threadPoolFiles) name() string { return "threadpool" }

func (t *threadPoolFiles) start() error { return nil }

func (t *threadPoolFiles) stop() {
	t.stopped.Store(true)
	t.ex.Close()
	t.mu.Lock()
	pending := make([]*task.Completion, 0, len(t.inflight))
	for c := range t.inflight {
		pending = append(pending, c)
	}
	t.inflight = make(map[*task.Completion]struct{})
	t.mu.Unlock()
	for _, c := range pending {
		c.Complete(0, api.ErrCancelled)
	}
}

// dispatch posts op to the pool and completes c with its result. Records
// are tracked so stop can fail operations the pool will never run.
func (t *threadPoolFiles) dispatch(c *task.Completion, op func() (int, error)) error {
	if t.stopped.Load() {
		return api.ErrReactorClosed
	}
	t.mu.Lock()
	t.inflight[c] = struct{}{}
	t.mu.Unlock()
	err := t.ex.Submit(func() {
		n, err := op()
		t.mu.Lock()
		_, live := t.inflight[c]
		delete(t.inflight, c)
		t.mu.Unlock()
		if live {
			c.Complete(n, err)
		}
	})
	if err != nil {
		t.mu.Lock()
		delete(t.inflight, c)
		t.mu.Unlock()
		return api.ErrReactorClosed
	}
	return nil
}

func (t *threadPoolFiles) open(path string, flags int, mode uint32, c *task.Completion) error {
	return t.dispatch(c, func() (int, error) { return SysOpen(path, flags, mode) })
}

func (t *threadPoolFiles) closeFD(fd int, c *task.Completion) error {
	return t.dispatch(c, func() (int, error) { return 0, SysClose(fd) })
}

func (t *threadPoolFiles) read(fd int, p []byte, c *task.Completion) error {
	return t.dispatch(c, func() (int, error) { return SysRead(fd, p) })
}

func (t *threadPoolFiles) pread(fd int, p []byte, off int64, c *task.Completion) error {
	return t.dispatch(c, func() (int, error) { return SysPread(fd, p, off) })
}

func (t *threadPoolFiles) write(fd int, p []byte, c *task.Completion) error {
	return t.dispatch(c, func() (int, error) { return SysWrite(fd, p) })
}

func (t *threadPoolFiles) pwrite(fd int, p []byte, off int64, c *task.Completion) error {
	return t.dispatch(c, func() (int, error) { return SysPwrite(fd, p, off) })
}
