//go:build windows

// File: channel/filechannel_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Windows flag translation. File handles are overlapped, so even the
// synchronous paths run through the reactor and wait on the task.

package channel

import (
	"golang.org/x/sys/windows"

	"github.com/momentics/hioload-aio/reactor"
	"github.com/momentics/hioload-aio/task"
)

func osOpenFlags(f FileFlag) int {
	var o int
	switch {
	case f&FlagRead != 0 && f&FlagWrite != 0:
		o = windows.O_RDWR
	case f&FlagWrite != 0:
		o = windows.O_WRONLY
	default:
		o = windows.O_RDONLY
	}
	if f&FlagTrunc != 0 {
		o |= windows.O_TRUNC
	}
	if f&FlagAppend != 0 {
		o |= windows.O_APPEND
	}
	if f&FlagWrite != 0 {
		switch {
		case f&FlagCreateNew != 0 && f&FlagOpenExisting != 0:
			o |= windows.O_CREAT
		case f&FlagCreateNew != 0:
			o |= windows.O_CREAT | windows.O_EXCL
		case f&FlagOpenExisting != 0:
			// open existing only
		default:
			o |= windows.O_CREAT
		}
	}
	return o
}

func sysOpenFile(r *reactor.Reactor, path string, f FileFlag) (int, error) {
	return task.Await(r.AsyncOpen(path, osOpenFlags(f), 0o666))
}

func sysCloseFile(r *reactor.Reactor, fd int) error {
	_, err := task.Await(r.AsyncClose(fd))
	return err
}

func sysPreadFile(r *reactor.Reactor, fd int, p []byte, off int64) (int, error) {
	return task.Await(r.AsyncPread(fd, p, off))
}

func sysPwriteFile(r *reactor.Reactor, fd int, p []byte, off int64) (int, error) {
	return task.Await(r.AsyncPwrite(fd, p, off))
}

func sysWriteFile(r *reactor.Reactor, fd int, p []byte) (int, error) {
	return task.Await(r.AsyncWrite(fd, p))
}
