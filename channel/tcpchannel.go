// File: channel/tcpchannel.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// TCP channels. Connection-oriented, byte-oriented, sequential only.
// Connect binds a fresh socket to the unspecified address of the peer's
// family, associates it with the reactor, and drives the platform's
// asynchronous connect. A zero-byte read means the peer closed the
// stream and is canonicalized to ErrEndOfFile.

package channel

import (
	"github.com/momentics/hioload-aio/addr"
	"github.com/momentics/hioload-aio/api"
	"github.com/momentics/hioload-aio/reactor"
	"github.com/momentics/hioload-aio/task"
)

// TCPChannel is a sequential byte channel over one TCP connection.
type TCPChannel struct {
	r    *reactor.Reactor
	fd   int
	open bool
}

var _ api.SeqChannel = (*TCPChannel)(nil)

// NewTCPChannel creates a closed TCP channel.
func NewTCPChannel(r *reactor.Reactor) *TCPChannel {
	return &TCPChannel{r: r}
}

// newConnectedTCP wraps an accepted descriptor.
func newConnectedTCP(r *reactor.Reactor, fd int) *TCPChannel {
	return &TCPChannel{r: r, fd: fd, open: true}
}

// IsOpen reports whether the channel owns a live socket.
func (c *TCPChannel) IsOpen() bool { return c.open }

// AsyncConnect establishes a connection to a. The channel must be closed.
func (c *TCPChannel) AsyncConnect(a addr.Addr) *task.Task[struct{}] {
	return task.New(func() (struct{}, error) {
		if c.open {
			return struct{}{}, api.ErrChannelAlreadyOpen
		}
		fd, err := newTCPSocket(a.Family())
		if err != nil {
			return struct{}{}, err
		}
		if err := bindAny(fd, a.Family()); err != nil {
			closeSocket(fd)
			return struct{}{}, err
		}
		if err := c.r.Associate(fd); err != nil {
			closeSocket(fd)
			return struct{}{}, err
		}
		if _, err := task.Await(c.r.AsyncConnect(fd, a)); err != nil {
			c.r.Deassociate(fd)
			closeSocket(fd)
			return struct{}{}, err
		}
		c.fd = fd
		c.open = true
		return struct{}{}, nil
	})
}

// Close releases the socket.
func (c *TCPChannel) Close() error {
	if !c.open {
		return api.ErrChannelNotOpen
	}
	c.open = false
	c.r.Deassociate(c.fd)
	return closeSocket(c.fd)
}

// AsyncClose is the asynchronous twin of Close.
func (c *TCPChannel) AsyncClose() *task.Task[struct{}] {
	return task.New(func() (struct{}, error) {
		return struct{}{}, c.Close()
	})
}

// AsyncReadSome receives up to len(p) bytes.
func (c *TCPChannel) AsyncReadSome(p []byte) *task.Task[int] {
	return task.New(func() (int, error) {
		if !c.open {
			return 0, api.ErrChannelNotOpen
		}
		n, err := task.Await(c.r.AsyncRecv(c.fd, p, 0))
		if err != nil {
			return 0, err
		}
		if n == 0 && len(p) > 0 {
			return 0, api.ErrEndOfFile
		}
		return n, nil
	})
}

// AsyncWriteSome sends up to len(p) bytes.
func (c *TCPChannel) AsyncWriteSome(p []byte) *task.Task[int] {
	return task.New(func() (int, error) {
		if !c.open {
			return 0, api.ErrChannelNotOpen
		}
		return task.Await(c.r.AsyncSend(c.fd, p, 0))
	})
}

// ReadSome is the synchronous twin of AsyncReadSome; it blocks the
// calling goroutine until the socket delivers data or closes.
func (c *TCPChannel) ReadSome(p []byte) (int, error) {
	return task.Await(c.AsyncReadSome(p))
}

// WriteSome is the synchronous twin of AsyncWriteSome.
func (c *TCPChannel) WriteSome(p []byte) (int, error) {
	return task.Await(c.AsyncWriteSome(p))
}

// LocalAddr reports the socket's bound address.
func (c *TCPChannel) LocalAddr() (addr.Addr, error) {
	if !c.open {
		return addr.Addr{}, api.ErrChannelNotOpen
	}
	return localAddr(c.fd)
}

/*************************************************************************
 *
 * TCPListener: accepts inbound connections as TCPChannels.
 */

type TCPListener struct {
	r    *reactor.Reactor
	fd   int
	open bool
}

// ListenTCP binds and listens on a, associating the listening socket
// with the reactor.
func ListenTCP(r *reactor.Reactor, a addr.Addr, backlog int) (*TCPListener, error) {
	if backlog <= 0 {
		backlog = 128
	}
	fd, err := newTCPSocket(a.Family())
	if err != nil {
		return nil, err
	}
	if err := bindListen(fd, a, backlog); err != nil {
		closeSocket(fd)
		return nil, err
	}
	if err := r.Associate(fd); err != nil {
		closeSocket(fd)
		return nil, err
	}
	return &TCPListener{r: r, fd: fd, open: true}, nil
}

// IsOpen reports whether the listener owns a live socket.
func (l *TCPListener) IsOpen() bool { return l.open }

// Addr reports the bound address, including the kernel-chosen port when
// the listener was bound to port zero.
func (l *TCPListener) Addr() (addr.Addr, error) {
	if !l.open {
		return addr.Addr{}, api.ErrChannelNotOpen
	}
	return localAddr(l.fd)
}

// AsyncAccept waits for one inbound connection.
func (l *TCPListener) AsyncAccept() *task.Task[*TCPChannel] {
	return task.New(func() (*TCPChannel, error) {
		if !l.open {
			return nil, api.ErrChannelNotOpen
		}
		var peer addr.Addr
		nfd, err := task.Await(l.r.AsyncAccept(l.fd, &peer))
		if err != nil {
			return nil, err
		}
		if err := l.r.Associate(nfd); err != nil {
			closeSocket(nfd)
			return nil, err
		}
		return newConnectedTCP(l.r, nfd), nil
	})
}

// Close releases the listening socket.
func (l *TCPListener) Close() error {
	if !l.open {
		return api.ErrChannelNotOpen
	}
	l.open = false
	l.r.Deassociate(l.fd)
	return closeSocket(l.fd)
}
