//go:build !windows

// File: channel/filechannel_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// POSIX flag translation and synchronous file syscalls.

package channel

import (
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-aio/reactor"
)

// osOpenFlags maps normalized channel flags to open(2) flags. A writable
// channel creates the file unless the caller pinned the behavior:
// FlagCreateNew alone demands a fresh file, FlagOpenExisting alone
// demands a present one, both together mean open-or-create.
func osOpenFlags(f FileFlag) int {
	var o int
	switch {
	case f&FlagRead != 0 && f&FlagWrite != 0:
		o = unix.O_RDWR
	case f&FlagWrite != 0:
		o = unix.O_WRONLY
	default:
		o = unix.O_RDONLY
	}
	if f&FlagTrunc != 0 {
		o |= unix.O_TRUNC
	}
	if f&FlagAppend != 0 {
		o |= unix.O_APPEND
	}
	if f&FlagWrite != 0 {
		switch {
		case f&FlagCreateNew != 0 && f&FlagOpenExisting != 0:
			o |= unix.O_CREAT
		case f&FlagCreateNew != 0:
			o |= unix.O_CREAT | unix.O_EXCL
		case f&FlagOpenExisting != 0:
			// open existing only
		default:
			o |= unix.O_CREAT
		}
	}
	return o
}

func sysOpenFile(_ *reactor.Reactor, path string, f FileFlag) (int, error) {
	return reactor.SysOpen(path, osOpenFlags(f), 0o666)
}

func sysCloseFile(_ *reactor.Reactor, fd int) error {
	return reactor.SysClose(fd)
}

func sysPreadFile(_ *reactor.Reactor, fd int, p []byte, off int64) (int, error) {
	return reactor.SysPread(fd, p, off)
}

func sysPwriteFile(_ *reactor.Reactor, fd int, p []byte, off int64) (int, error) {
	return reactor.SysPwrite(fd, p, off)
}

func sysWriteFile(_ *reactor.Reactor, fd int, p []byte) (int, error) {
	return reactor.SysWrite(fd, p)
}
