//go:build linux

// File: reactor/sockets_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Socket backend over the epoll poller. Every operation tries the
// non-blocking syscall first; on EAGAIN it parks a readiness waiter and
// retries when the poller wakes it on the poll thread.

package reactor

import (
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-aio/addr"
	"github.com/momentics/hioload-aio/api"
	"github.com/momentics/hioload-aio/task"
)

type pollerSockets struct {
	poller *epollPoller
}

func newPollerSockets(p *epollPoller) *pollerSockets {
	return &pollerSockets{poller: p}
}

func (s *pollerSockets) start() error { return s.poller.start() }
func (s *pollerSockets) stop() { s.poller.stop() }

func (s *pollerSockets) associate(fd int) error { return s.poller.associate(fd) }
func (s *pollerSockets) deassociate(fd int) { s.poller.deassociate(fd) }

func (s *pollerSockets) recv(fd int, p []byte, flags int, c *task.Completion) error {
	var attempt func()
	attempt = func() {
		for {
			n, _, err := unix.Recvfrom(fd, p, flags)
			switch err {
			case unix.EINTR:
				continue
			case unix.EAGAIN:
				s.park(fd, false, c, attempt)
				return
			case nil:
				c.Complete(n, nil)
				return
			default:
				c.Complete(0, api.WrapOS("recv", err))
				return
			}
		}
	}
	attempt()
	return nil
}

func (s *pollerSockets) send(fd int, p []byte, flags int, c *task.Completion) error {
	var attempt func()
	attempt = func() {
		for {
			n, err := unix.SendmsgN(fd, p, nil, nil, flags)
			switch err {
			case unix.EINTR:
				continue
			case unix.EAGAIN:
				s.park(fd, true, c, attempt)
				return
			case nil:
				c.Complete(n, nil)
				return
			default:
				c.Complete(0, api.WrapOS("send", err))
				return
			}
		}
	}
	attempt()
	return nil
}

func (s *pollerSockets) connect(fd int, a addr.Addr, c *task.Completion) error {
	sa, err := a.Sockaddr()
	if err != nil {
		return err
	}
	var settle func()
	settle = func() {
		// Connection outcome lands in SO_ERROR once the socket is writable.
		soerr, gerr := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
		if gerr != nil {
			c.Complete(0, api.WrapOS("getsockopt SO_ERROR", gerr))
			return
		}
		if soerr != 0 {
			c.Complete(0, api.WrapOS("connect", unix.Errno(soerr)))
			return
		}
		c.Complete(0, nil)
	}
	for {
		err := unix.Connect(fd, sa)
		switch err {
		case unix.EINTR:
			continue
		case unix.EINPROGRESS, unix.EALREADY:
			s.park(fd, true, c, settle)
			return nil
		case nil, unix.EISCONN:
			c.Complete(0, nil)
			return nil
		default:
			c.Complete(0, api.WrapOS("connect", err))
			return nil
		}
	}
}

func (s *pollerSockets) accept(fd int, out *addr.Addr, c *task.Completion) error {
	var attempt func()
	attempt = func() {
		for {
			nfd, sa, err := unix.Accept4(fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
			switch err {
			case unix.EINTR, unix.ECONNABORTED:
				continue
			case unix.EAGAIN:
				s.park(fd, false, c, attempt)
				return
			case nil:
				if out != nil {
					if peer, aerr := addr.FromSockaddr(sa); aerr == nil {
						*out = peer
					}
				}
				c.Complete(nfd, nil)
				return
			default:
				c.Complete(0, api.WrapOS("accept", err))
				return
			}
		}
	}
	attempt()
	return nil
}

// park registers a readiness waiter that re-runs retry on the poll thread, or
// fails the record if the poller refuses the wait.
func (s *pollerSockets) park(fd int, write bool, c *task.Completion, retry func()) {
	wait := s.poller.waitReadable
	if write {
		wait = s.poller.waitWritable
	}
	err := wait(fd, func(perr error) {
		if perr != nil {
			c.Complete(0, perr)
			return
		}
		retry()
	})
	if err != nil {
		c.Complete(0, err)
	}
}
