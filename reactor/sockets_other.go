//go:build !linux && !windows

// File: reactor/sockets_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fallback socket backend for POSIX systems without a wired poller:
// each operation occupies one dedicated-pool worker, waiting for
// readiness with poll(2) and then issuing the non-blocking syscall.

package reactor

import (
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-aio/addr"
	"github.com/momentics/hioload-aio/api"
	"github.com/momentics/hioload-aio/task"
)

type blockingSockets struct {
	pool *threadPoolFiles
}

func newBlockingSockets(pool *threadPoolFiles) *blockingSockets {
	return &blockingSockets{pool: pool}
}

func (s *blockingSockets) start() error { return nil }
func (s *blockingSockets) stop() {}

func (s *blockingSockets) associate(fd int) error {
	// No poller to register against; the pool serves every wait.
	return nil
}

func (s *blockingSockets) deassociate(int) {}

// pollWait blocks the calling pool worker until fd reports the events.
// The wait is time-sliced so a reactor shutdown can reclaim the worker.
func (s *blockingSockets) pollWait(fd int, events int16) error {
	fds := []unix.PollFd{{Fd: int32(fd), Events: events}}
	for {
		n, err := unix.Poll(fds, 500)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return api.WrapOS("poll", err)
		}
		if n > 0 {
			return nil
		}
		if s.pool.stopped.Load() {
			return api.ErrCancelled
		}
	}
}

func (s *blockingSockets) recv(fd int, p []byte, flags int, c *task.Completion) error {
	return s.pool.dispatch(c, func() (int, error) {
		for {
			n, _, err := unix.Recvfrom(fd, p, flags)
			switch err {
			case unix.EINTR:
				continue
			case unix.EAGAIN:
				if werr := s.pollWait(fd, unix.POLLIN); werr != nil {
					return 0, werr
				}
			case nil:
				return n, nil
			default:
				return 0, api.WrapOS("recv", err)
			}
		}
	})
}

func (s *blockingSockets) send(fd int, p []byte, flags int, c *task.Completion) error {
	return s.pool.dispatch(c, func() (int, error) {
		for {
			n, err := unix.SendmsgN(fd, p, nil, nil, flags)
			switch err {
			case unix.EINTR:
				continue
			case unix.EAGAIN:
				if werr := s.pollWait(fd, unix.POLLOUT); werr != nil {
					return 0, werr
				}
			case nil:
				return n, nil
			default:
				return 0, api.WrapOS("send", err)
			}
		}
	})
}

func (s *blockingSockets) connect(fd int, a addr.Addr, c *task.Completion) error {
	sa, err := a.Sockaddr()
	if err != nil {
		return err
	}
	return s.pool.dispatch(c, func() (int, error) {
		for {
			err := unix.Connect(fd, sa)
			switch err {
			case unix.EINTR:
				continue
			case unix.EINPROGRESS, unix.EALREADY:
				if werr := s.pollWait(fd, unix.POLLOUT); werr != nil {
					return 0, werr
				}
				soerr, gerr := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
				if gerr != nil {
					return 0, api.WrapOS("getsockopt SO_ERROR", gerr)
				}
				if soerr != 0 {
					return 0, api.WrapOS("connect", unix.Errno(soerr))
				}
				return 0, nil
			case nil, unix.EISCONN:
				return 0, nil
			default:
				return 0, api.WrapOS("connect", err)
			}
		}
	})
}

func (s *blockingSockets) accept(fd int, out *addr.Addr, c *task.Completion) error {
	return s.pool.dispatch(c, func() (int, error) {
		for {
			nfd, sa, err := unix.Accept(fd)
			switch err {
			case unix.EINTR, unix.ECONNABORTED:
				continue
			case unix.EAGAIN:
				if werr := s.pollWait(fd, unix.POLLIN); werr != nil {
					return 0, werr
				}
			case nil:
				unix.SetNonblock(nfd, true)
				if out != nil {
					if peer, aerr := addr.FromSockaddr(sa); aerr == nil {
						*out = peer
					}
				}
				return nfd, nil
			default:
				return 0, api.WrapOS("accept", err)
			}
		}
	})
}
