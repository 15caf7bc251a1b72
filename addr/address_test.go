// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

// address_test.go — address parsing, families, wildcard derivation.
package addr

import (
	"net"
	"testing"
)

func TestParseTCP_V4(t *testing.T) {
	a, err := ParseTCP("192.168.1.10", 8080)
	if err != nil {
		t.Fatalf("ParseTCP: %v", err)
	}
	if a.Family() != FamilyINet {
		t.Fatalf("family = %v, want FamilyINet", a.Family())
	}
	if a.Port() != 8080 {
		t.Fatalf("port = %d", a.Port())
	}
	if a.String() != "192.168.1.10:8080" {
		t.Fatalf("String = %q", a.String())
	}
}

func TestParseTCP_V6(t *testing.T) {
	a, err := ParseTCP("2001:db8::1", 443)
	if err != nil {
		t.Fatalf("ParseTCP: %v", err)
	}
	if a.Family() != FamilyINet6 {
		t.Fatalf("family = %v, want FamilyINet6", a.Family())
	}
	if a.String() != "[2001:db8::1]:443" {
		t.Fatalf("String = %q", a.String())
	}
}

func TestParseTCP_RejectsNames(t *testing.T) {
	if _, err := ParseTCP("localhost", 80); err == nil {
		t.Fatal("ParseTCP accepted a host name")
	}
}

func TestUnspecified_KeepsFamily(t *testing.T) {
	v4, _ := ParseTCP("10.0.0.1", 1234)
	w := v4.Unspecified()
	if w.Family() != FamilyINet || !w.IP().Equal(net.IPv4zero) {
		t.Fatalf("v4 wildcard = %v", w)
	}
	v6, _ := ParseTCP("::1", 1234)
	w6 := v6.Unspecified()
	if w6.Family() != FamilyINet6 || !w6.IP().Equal(net.IPv6unspecified) {
		t.Fatalf("v6 wildcard = %v", w6)
	}
}

func TestWithPort(t *testing.T) {
	a, _ := ParseTCP("127.0.0.1", 0)
	b := a.WithPort(9999)
	if b.Port() != 9999 || a.Port() != 0 {
		t.Fatalf("WithPort mutated or failed: %d %d", a.Port(), b.Port())
	}
}

func TestFromIP_Mapped(t *testing.T) {
	a, err := FromIP(net.ParseIP("::ffff:127.0.0.1"), 80)
	if err != nil {
		t.Fatalf("FromIP: %v", err)
	}
	if a.Family() != FamilyINet {
		t.Fatalf("mapped v4 family = %v, want FamilyINet", a.Family())
	}
}
