// File: reactor/backend.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Backend contracts the facade dispatches to. Submission calls never
// block: they either hand the operation to the OS (or the worker pool) and
// return nil, or fail fast. The backend fills the completion record and
// fires its resume hook from a completion or worker thread.

package reactor

import (
	"github.com/momentics/hioload-aio/addr"
	"github.com/momentics/hioload-aio/task"
)

// fileBackend performs file I/O: completion-port driven where available,
// worker-pool blocking syscalls otherwise.
type fileBackend interface {
	start() error
	stop()

	// name identifies the backend in logs and stats.
	name() string

	open(path string, flags int, mode uint32, c *task.Completion) error
	closeFD(fd int, c *task.Completion) error
	read(fd int, p []byte, c *task.Completion) error
	pread(fd int, p []byte, off int64, c *task.Completion) error
	write(fd int, p []byte, c *task.Completion) error
	pwrite(fd int, p []byte, off int64, c *task.Completion) error
}

// socketBackend performs socket I/O through the platform readiness or
// completion mechanism.
type socketBackend interface {
	start() error
	stop()

	associate(fd int) error
	deassociate(fd int)

	recv(fd int, p []byte, flags int, c *task.Completion) error
	send(fd int, p []byte, flags int, c *task.Completion) error

	// connect completes with the unit value; the record's count is unused.
	connect(fd int, a addr.Addr, c *task.Completion) error

	// accept completes with the new descriptor as the count and stores the
	// peer address through out when non-nil.
	accept(fd int, out *addr.Addr, c *task.Completion) error
}
