//go:build !windows

// File: addr/address_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// POSIX sockaddr conversions.

package addr

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// NativeFamily returns the platform AF_* constant.
func (a Addr) NativeFamily() int {
	switch a.family {
	case FamilyINet:
		return unix.AF_INET
	case FamilyINet6:
		return unix.AF_INET6
	}
	return unix.AF_UNSPEC
}

// Sockaddr converts to the x/sys/unix form used by connect and bind.
func (a Addr) Sockaddr() (unix.Sockaddr, error) {
	switch a.family {
	case FamilyINet:
		sa := &unix.SockaddrInet4{Port: a.port}
		copy(sa.Addr[:], a.ip.To4())
		return sa, nil
	case FamilyINet6:
		sa := &unix.SockaddrInet6{Port: a.port}
		copy(sa.Addr[:], a.ip.To16())
		if a.zone != "" {
			ifi, err := net.InterfaceByName(a.zone)
			if err == nil {
				sa.ZoneId = uint32(ifi.Index)
			}
		}
		return sa, nil
	}
	return nil, fmt.Errorf("addr: no native form for family %d", a.family)
}

// FromSockaddr builds an Addr from a kernel-provided socket address, as
// returned by accept or getsockname.
func FromSockaddr(sa unix.Sockaddr) (Addr, error) {
	switch s := sa.(type) {
	case *unix.SockaddrInet4:
		ip := make(net.IP, 4)
		copy(ip, s.Addr[:])
		return Addr{family: FamilyINet, ip: ip, port: s.Port}, nil
	case *unix.SockaddrInet6:
		ip := make(net.IP, 16)
		copy(ip, s.Addr[:])
		return Addr{family: FamilyINet6, ip: ip, port: s.Port}, nil
	}
	return Addr{}, fmt.Errorf("addr: unsupported sockaddr %T", sa)
}
