// File: addr/address.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Socket address values consumed by the TCP channel. An Addr carries an
// address family, IP bytes, port, and IPv6 zone; Sockaddr converts it to
// the native form. Channels only observe the family and hand the native
// form to the platform connect, bind, and accept calls.

package addr

import (
	"fmt"
	"net"
	"strconv"
)

// Family is a socket address family.
type Family int

const (
	FamilyUnspec Family = iota
	FamilyINet          // IPv4
	FamilyINet6         // IPv6
)

// Addr is an immutable socket address value.
type Addr struct {
	family Family
	ip     net.IP
	port   int
	zone   string
}

// Family returns the address family.
func (a Addr) Family() Family { return a.family }

// Port returns the transport port.
func (a Addr) Port() int { return a.port }

// IP returns the raw address bytes (4 or 16 bytes).
func (a Addr) IP() net.IP { return a.ip }

// Zone returns the IPv6 scope zone, if any.
func (a Addr) Zone() string { return a.zone }

// String renders host:port form.
func (a Addr) String() string {
	host := a.ip.String()
	if a.zone != "" {
		host += "%" + a.zone
	}
	return net.JoinHostPort(host, strconv.Itoa(a.port))
}

// Unspecified returns the wildcard address of the same family, used to
// bind a socket before an outgoing connect.
func (a Addr) Unspecified() Addr {
	if a.family == FamilyINet6 {
		return Addr{family: FamilyINet6, ip: net.IPv6unspecified}
	}
	return Addr{family: FamilyINet, ip: net.IPv4zero.To4()}
}

// WithPort returns a copy of the address carrying the given port.
func (a Addr) WithPort(port int) Addr {
	a.port = port
	return a
}

// FromIP builds an Addr from an IP and port.
func FromIP(ip net.IP, port int) (Addr, error) {
	if v4 := ip.To4(); v4 != nil {
		return Addr{family: FamilyINet, ip: v4, port: port}, nil
	}
	if v6 := ip.To16(); v6 != nil {
		return Addr{family: FamilyINet6, ip: v6, port: port}, nil
	}
	return Addr{}, fmt.Errorf("addr: not an IP address: %v", ip)
}

// ParseTCP parses a literal host and port; no name resolution happens.
func ParseTCP(host string, port int) (Addr, error) {
	ip := net.ParseIP(host)
	if ip == nil {
		return Addr{}, fmt.Errorf("addr: not an address literal: %q", host)
	}
	return FromIP(ip, port)
}

// ResolveTCP resolves a host name (or literal) to the first address the
// system resolver returns, preferring IPv4 for wider reachability.
func ResolveTCP(host string, port int) (Addr, error) {
	if a, err := ParseTCP(host, port); err == nil {
		return a, nil
	}
	ips, err := net.LookupIP(host)
	if err != nil {
		return Addr{}, fmt.Errorf("addr: resolve %q: %w", host, err)
	}
	for _, ip := range ips {
		if ip.To4() != nil {
			return FromIP(ip, port)
		}
	}
	return FromIP(ips[0], port)
}
