//go:build !windows

// File: reactor/syscall_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Blocking POSIX syscall wrappers with EINTR retry, shared by the
// thread-pool backend and the channels' synchronous paths.

package reactor

import (
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-aio/api"
)

// SysOpen opens path, retrying on EINTR.
func SysOpen(path string, flags int, mode uint32) (int, error) {
	for {
		fd, err := unix.Open(path, flags|unix.O_CLOEXEC, mode)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return -1, api.WrapOS("open "+path, err)
		}
		return fd, nil
	}
}

// SysClose closes a descriptor.
func SysClose(fd int) error {
	if err := unix.Close(fd); err != nil {
		return api.WrapOS("close", err)
	}
	return nil
}

// SysRead reads at the current file position.
func SysRead(fd int, p []byte) (int, error) {
	for {
		n, err := unix.Read(fd, p)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, api.WrapOS("read", err)
		}
		return n, nil
	}
}

// SysPread reads at an absolute offset.
func SysPread(fd int, p []byte, off int64) (int, error) {
	for {
		n, err := unix.Pread(fd, p, off)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, api.WrapOS("pread", err)
		}
		return n, nil
	}
}

// SysWrite writes at the current file position.
func SysWrite(fd int, p []byte) (int, error) {
	for {
		n, err := unix.Write(fd, p)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, api.WrapOS("write", err)
		}
		return n, nil
	}
}

// SysPwrite writes at an absolute offset.
func SysPwrite(fd int, p []byte, off int64) (int, error) {
	for {
		n, err := unix.Pwrite(fd, p, off)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, api.WrapOS("pwrite", err)
		}
		return n, nil
	}
}
