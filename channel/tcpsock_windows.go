//go:build windows

// File: channel/tcpsock_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Windows socket plumbing for the TCP channel. Sockets are created
// overlapped so WSARecv/WSASend and ConnectEx can ride the completion
// port.

package channel

import (
	"golang.org/x/sys/windows"

	"github.com/momentics/hioload-aio/addr"
	"github.com/momentics/hioload-aio/api"
)

func newTCPSocket(family addr.Family) (int, error) {
	af := int32(windows.AF_INET)
	if family == addr.FamilyINet6 {
		af = windows.AF_INET6
	}
	s, err := windows.WSASocket(af, windows.SOCK_STREAM, windows.IPPROTO_TCP,
		nil, 0, windows.WSA_FLAG_OVERLAPPED)
	if err != nil {
		return -1, api.WrapOS("WSASocket", err)
	}
	return int(s), nil
}

func bindAny(fd int, family addr.Family) error {
	wildcard, err := addrUnspecified(family).Sockaddr()
	if err != nil {
		return err
	}
	if err := windows.Bind(windows.Handle(fd), wildcard); err != nil {
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
	sa, err := a.Sockaddr()
	if err != nil {
		return err
	}
	if err := windows.Bind(windows.Handle(fd), sa); err != nil {
		return api.WrapOS("bind", err)
	}
	if err := windows.Listen(windows.Handle(fd), backlog); err != nil {
		return api.WrapOS("listen", err)
	}
	return nil
}

func closeSocket(fd int) error {
	if err := windows.Closesocket(windows.Handle(fd)); err != nil {
		return api.WrapOS("closesocket", err)
	}
	return nil
}

func localAddr(fd int) (addr.Addr, error) {
	sa, err := windows.Getsockname(windows.Handle(fd))
	if err != nil {
		return addr.Addr{}, api.WrapOS("getsockname", err)
	}
	return addr.FromSockaddr(sa)
}
