//go:build !windows

// File: channel/tcpsock_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// POSIX socket plumbing for the TCP channel.

package channel

import (
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-aio/addr"
	"github.com/momentics/hioload-aio/api"
)

func newTCPSocket(family addr.Family) (int, error) {
	af := unix.AF_INET
	if family == addr.FamilyINet6 {
		af = unix.AF_INET6
	}
	fd, err := unix.Socket(af, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return -1, api.WrapOS("socket", err)
	}
	return fd, nil
}

func bindAny(fd int, family addr.Family) error {
	wildcard, err := addrUnspecified(family).Sockaddr()
	if err != nil {
		return err
	}
	if err := unix.Bind(fd, wildcard); err != nil {
		return api.WrapOS("bind", err)
	}
	return nil
}

func addrUnspecified(family addr.Family) addr.Addr {
	a, _ := addr.ParseTCP("0.0.0.0", 0)
	if family == addr.FamilyINet6 {
		a, _ = addr.ParseTCP("::", 0)
	}
	return a
}

func bindListen(fd int, a addr.Addr, backlog int) error {
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return api.WrapOS("setsockopt SO_REUSEADDR", err)
	}
	sa, err := a.Sockaddr()
	if err != nil {
		return err
	}
	if err := unix.Bind(fd, sa); err != nil {
		return api.WrapOS("bind", err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		return api.WrapOS("listen", err)
	}
	return nil
}

func closeSocket(fd int) error {
	if err := unix.Close(fd); err != nil {
		return api.WrapOS("close", err)
	}
	return nil
}

func localAddr(fd int) (addr.Addr, error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return addr.Addr{}, api.WrapOS("getsockname", err)
	}
	return addr.FromSockaddr(sa)
}
