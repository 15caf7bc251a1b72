// File: reactor/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package reactor is the process-wide I/O multiplexer. It owns the worker
// executor and the platform completion machinery, and exposes the async
// primitive surface (AsyncOpen, AsyncRead, AsyncRecv, AsyncConnect, ...)
// that the channel layer builds on.
//
// Two backend families coexist. File operations go through a kernel
// completion port where one exists (io_uring on Linux, IOCP on Windows)
// and fall back to blocking syscalls on a dedicated I/O pool otherwise.
// On Linux, socket operations always go through the epoll readiness
// poller: io_uring submission queues are bounded, and parking long-lived
// socket waits in them would starve file I/O. On Windows one IOCP port
// serves both files and sockets; other POSIX systems wait for socket
// readiness with poll(2) on the I/O pool.
//
// The reactor never serializes operations on the same descriptor; callers
// do. Completion order is whatever order the OS reports.
package reactor
