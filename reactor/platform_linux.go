//go:build linux

// File: reactor/platform_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux backend wiring. Sockets always go through the epoll poller:
// completion-port submission queues are bounded, and parking long-lived
// socket waits in them would starve file I/O. File operations use
// io_uring when the kernel probe passes, otherwise blocking syscalls on
// a dedicated I/O pool.

package reactor

import "go.uber.org/zap"

func newPlatformBackends(r *Reactor) (fileBackend, socketBackend) {
	sockets := newPollerSockets(newEpollPoller(r.opts.pollBatch))

	if !r.opts.disableUring {
		uring, err := newURingFiles(r.opts.sqDepth)
		if err != nil {
			Logger().Warn("io_uring setup failed, using thread pool",
				zap.Error(err))
		} else if uring == nil {
			Logger().Info("io_uring unusable on this kernel, using thread pool")
		} else {
			return uring, sockets
		}
	}
	return newThreadPoolFiles(r.opts.workers), sockets
}
