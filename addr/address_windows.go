//go:build windows

// File: addr/address_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Windows sockaddr conversions.

package addr

import (
	"fmt"
	"net"

	"golang.org/x/sys/windows"
)

// NativeFamily returns the platform AF_* constant.
func (a Addr) NativeFamily() int {
	switch a.family {
	case FamilyINet:
		return windows.AF_INET
	case FamilyINet6:
		return windows.AF_INET6
	}
	return windows.AF_UNSPEC
}

// Sockaddr converts to the x/sys/windows form used by connect and bind.
func (a Addr) Sockaddr() (windows.Sockaddr, error) {
	switch a.family {
	case FamilyINet:
		sa := &windows.SockaddrInet4{Port: a.port}
		copy(sa.Addr[:], a.ip.To4())
		return sa, nil
	case FamilyINet6:
		sa := &windows.SockaddrInet6{Port: a.port}
		copy(sa.Addr[:], a.ip.To16())
		return sa, nil
	}
	return nil, fmt.Errorf("addr: no native form for family %d", a.family)
}

// FromSockaddr builds an Addr from a kernel-provided socket address.
func FromSockaddr(sa windows.Sockaddr) (Addr, error) {
	switch s := sa.(type) {
	case *windows.SockaddrInet4:
		ip := make(net.IP, 4)
		copy(ip, s.Addr[:])
		return Addr{family: FamilyINet, ip: ip, port: s.Port}, nil
	case *windows.SockaddrInet6:
		ip := make(net.IP, 16)
		copy(ip, s.Addr[:])
		return Addr{family: FamilyINet6, ip: ip, port: s.Port}, nil
	}
	return Addr{}, fmt.Errorf("addr: unsupported sockaddr %T", sa)
}
