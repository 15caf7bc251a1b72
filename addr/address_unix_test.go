//go:build !windows

// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

package addr

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestSockaddr_RoundTrip(t *testing.T) {
	a, _ := ParseTCP("127.0.0.1", 4321)
	sa, err := a.Sockaddr()
	if err != nil {
		t.Fatalf("Sockaddr: %v", err)
	}
	sa4, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		t.Fatalf("native form is %T", sa)
	}
	if sa4.Port != 4321 || sa4.Addr != [4]byte{127, 0, 0, 1} {
		t.Fatalf("native form = %+v", sa4)
	}

	back, err := FromSockaddr(sa)
	if err != nil {
		t.Fatalf("FromSockaddr: %v", err)
	}
	if back.String() != a.String() {
		t.Fatalf("round trip %q != %q", back.String(), a.String())
	}
}

func TestNativeFamily(t *testing.T) {
	v4, _ := ParseTCP("1.2.3.4", 1)
	if v4.NativeFamily() != unix.AF_INET {
		t.Fatalf("v4 native family = %d", v4.NativeFamily())
	}
	v6, _ := ParseTCP("::1", 1)
	if v6.NativeFamily() != unix.AF_INET6 {
		t.Fatalf("v6 native family = %d", v6.NativeFamily())
	}
}
