//go:build windows

// File: reactor/iocp_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Windows IOCP backend serving both files and sockets. Every in-flight
// operation embeds its OVERLAPPED as the first field, so the completion
// thread recovers the operation record from the dequeued OVERLAPPED
// pointer. A posted packet with a nil OVERLAPPED is the shutdown
// sentinel.

package reactor

import (
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/momentics/hioload-aio/addr"
	"github.com/momentics/hioload-aio/api"
	"github.com/momentics/hioload-aio/concurrency"
	"github.com/momentics/hioload-aio/task"
)

type iocpKind uint8

const (
	iocpFile iocpKind = iota
	iocpRecv
	iocpSend
	iocpConnect
	iocpAccept
)

// iocpOp is one in-flight overlapped operation. The Overlapped member
// must stay first: the completion thread casts the dequeued pointer back
// to the containing record.
type iocpOp struct {
	ov   windows.Overlapped
	kind iocpKind
	c    *task.Completion

	keepBuf []byte

	// connect/accept bookkeeping
	sock       windows.Handle
	lsock      windows.Handle
	acceptSock windows.Handle
	acceptBuf  []byte
	out        *addr.Addr
}

type iocpBackend struct {
	ex   *concurrency.Executor
	port windows.Handle

	mu       sync.Mutex
	inflight map[*iocpOp]struct{}
	stopped  bool

	loopDone chan struct{}
}

// newIOCPBackend builds the backend with a dedicated pool for the few
// operations (CreateFile, CloseHandle) that have no overlapped form, so
// awaiters blocked on the public executor can never starve them.
func newIOCPBackend(workers int) *iocpBackend {
	return &iocpBackend{
		ex:       concurrency.NewExecutor(workers),
		inflight: make(map[*iocpOp]struct{}),
		loopDone: make(chan struct{}),
	}
}

func (b *iocpBackend) name() string { return "iocp" }

func (b *iocpBackend) start() error {
	// The facade starts the file and socket sides separately; both resolve
	// to this one backend on Windows.
	b.mu.Lock()
	started := b.port != 0
	b.mu.Unlock()
	if started {
		return nil
	}
	port, err := windows.CreateIoCompletionPort(windows.InvalidHandle, 0, 0, 0)
	if err != nil {
		return api.WrapOS("CreateIoCompletionPort", err)
	}
	b.port = port
	go b.loop()
	return nil
}

func (b *iocpBackend) stop() {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	b.stopped = true
	port := b.port
	b.mu.Unlock()
	if port == 0 {
		// start never brought the port (and its loop) up
		b.ex.Close()
		return
	}

	windows.PostQueuedCompletionStatus(b.port, 0, 0, nil)
	<-b.loopDone
	b.ex.Close()

	b.mu.Lock()
	inflight := b.inflight
	b.inflight = make(map[*iocpOp]struct{})
	b.mu.Unlock()
	for op := range inflight {
		op.c.Complete(0, api.ErrCancelled)
	}
	windows.CloseHandle(b.port)
}

// associate attaches a handle to the completion port.
func (b *iocpBackend) associate(fd int) error {
	_, err := windows.CreateIoCompletionPort(windows.Handle(fd), b.port, 0, 0)
	if err != nil {
		return api.WrapOS("iocp associate", err)
	}
	return nil
}

func (b *iocpBackend) deassociate(int) {
	// IOCP association ends when the handle closes.
}

// track registers op; begin issues the overlapped call. ERROR_IO_PENDING
// means the completion packet will arrive; any other error completes now.
func (b *iocpBackend) track(op *iocpOp, begin func() error) error {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return api.ErrReactorClosed
	}
	b.inflight[op] = struct{}{}
	b.mu.Unlock()

	err := begin()
	if err == nil || err == windows.ERROR_IO_PENDING {
		return nil
	}
	b.mu.Lock()
	delete(b.inflight, op)
	b.mu.Unlock()
	if err == windows.ERROR_HANDLE_EOF {
		op.c.Complete(0, nil)
		return nil
	}
	op.c.Complete(0, api.WrapOS("iocp submit", err))
	return nil
}

// loop is the completion thread.
func (b *iocpBackend) loop() {
	defer close(b.loopDone)
	for {
		var qty uint32
		var key uintptr
		var ov *windows.Overlapped
		err := windows.GetQueuedCompletionStatus(b.port, &qty, &key, &ov, windows.INFINITE)
		if ov == nil {
			if err != nil {
				continue
			}
			return // shutdown sentinel
		}
		op := (*iocpOp)(unsafe.Pointer(ov))
		b.mu.Lock()
		_, live := b.inflight[op]
		delete(b.inflight, op)
		b.mu.Unlock()
		if !live {
			continue
		}
		b.finish(op, int(qty), err)
	}
}

func (b *iocpBackend) finish(op *iocpOp, n int, err error) {
	if err == windows.ERROR_HANDLE_EOF {
		// Zero-count success; the channel layer canonicalizes EOF.
		n, err = 0, nil
	}
	if err != nil {
		err = api.WrapOS("iocp", err)
	} else if op.kind == iocpConnect {
		windows.Setsockopt(op.sock, windows.SOL_SOCKET,
			windows.SO_UPDATE_CONNECT_CONTEXT, nil, 0)
	} else if op.kind == iocpAccept {
		n = int(op.acceptSock)
		ls := op.lsock
		windows.Setsockopt(op.acceptSock, windows.SOL_SOCKET,
			windows.SO_UPDATE_ACCEPT_CONTEXT,
			(*byte)(unsafe.Pointer(&ls)), int32(unsafe.Sizeof(ls)))
		if op.out != nil {
			if peer, aerr := acceptPeer(op); aerr == nil {
				*op.out = peer
			}
		}
	}
	op.c.Complete(n, err)
}

func acceptPeer(op *iocpOp) (addr.Addr, error) {
	var localSA, remoteSA *windows.RawSockaddrAny
	var localLen, remoteLen int32
	addrLen := uint32(len(op.acceptBuf) / 2)
	windows.GetAcceptExSockaddrs(&op.acceptBuf[0], 0, addrLen, addrLen,
		&localSA, &localLen, &remoteSA, &remoteLen)
	sa, err := remoteSA.Sockaddr()
	if err != nil {
		return addr.Addr{}, err
	}
	return addr.FromSockaddr(sa)
}

/*
 * fileBackend surface. CreateFile runs on the worker pool; data transfer
 * is overlapped through the port. Current-position reads and writes use
 * the handle's file pointer, which the reactor moves after completion;
 * callers serialize operations on one descriptor, as everywhere else.
 */

func (b *iocpBackend) open(path string, flags int, mode uint32, c *task.Completion) error {
	return b.post(c, func() (int, error) {
		h, err := openOverlapped(path, flags, mode)
		if err != nil {
			return 0, err
		}
		if _, err := windows.CreateIoCompletionPort(h, b.port, 0, 0); err != nil {
			windows.CloseHandle(h)
			return 0, api.WrapOS("iocp associate", err)
		}
		return int(h), nil
	})
}

func (b *iocpBackend) closeFD(fd int, c *task.Completion) error {
	return b.post(c, func() (int, error) {
		if err := windows.CloseHandle(windows.Handle(fd)); err != nil {
			return 0, api.WrapOS("CloseHandle", err)
		}
		return 0, nil
	})
}

// post runs a short, non-overlapped operation on the worker pool.
func (b *iocpBackend) post(c *task.Completion, fn func() (int, error)) error {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return api.ErrReactorClosed
	}
	b.mu.Unlock()
	if err := b.ex.Submit(func() {
		n, err := fn()
		c.Complete(n, err)
	}); err != nil {
		return api.ErrReactorClosed
	}
	return nil
}

func (b *iocpBackend) read(fd int, p []byte, c *task.Completion) error {
	off, err := currentPos(fd)
	if err != nil {
		return err
	}
	return b.preadAdvance(fd, p, off, true, c)
}

func (b *iocpBackend) pread(fd int, p []byte, off int64, c *task.Completion) error {
	return b.preadAdvance(fd, p, off, false, c)
}

func (b *iocpBackend) preadAdvance(fd int, p []byte, off int64, advance bool, c *task.Completion) error {
	inner := c
	if advance {
		inner = advancePointer(fd, off, c)
	}
	op := &iocpOp{kind: iocpFile, c: inner, keepBuf: p}
	op.ov.Offset = uint32(off)
	op.ov.OffsetHigh = uint32(off >> 32)
	return b.track(op, func() error {
		var done uint32
		return windows.ReadFile(windows.Handle(fd), p, &done, &op.ov)
	})
}

func (b *iocpBackend) write(fd int, p []byte, c *task.Completion) error {
	off, err := currentPos(fd)
	if err != nil {
		return err
	}
	return b.pwriteAdvance(fd, p, off, true, c)
}

func (b *iocpBackend) pwrite(fd int, p []byte, off int64, c *task.Completion) error {
	return b.pwriteAdvance(fd, p, off, false, c)
}

func (b *iocpBackend) pwriteAdvance(fd int, p []byte, off int64, advance bool, c *task.Completion) error {
	inner := c
	if advance {
		inner = advancePointer(fd, off, c)
	}
	op := &iocpOp{kind: iocpFile, c: inner, keepBuf: p}
	op.ov.Offset = uint32(off)
	op.ov.OffsetHigh = uint32(off >> 32)
	return b.track(op, func() error {
		var done uint32
		return windows.WriteFile(windows.Handle(fd), p, &done, &op.ov)
	})
}

func currentPos(fd int) (int64, error) {
	pos, err := windows.Seek(windows.Handle(fd), 0, windows.FILE_CURRENT)
	if err != nil {
		return 0, api.WrapOS("seek", err)
	}
	return pos, nil
}

// advancePointer interposes a record that moves the handle's file pointer
// past the transferred bytes before resuming the caller.
func advancePointer(fd int, off int64, c *task.Completion) *task.Completion {
	inner := new(task.Completion)
	go func() {
		n, err := task.AwaitOp[int](inner)
		if err == nil && n > 0 {
			windows.Seek(windows.Handle(fd), off+int64(n), windows.FILE_BEGIN)
		}
		c.Complete(n, err)
	}()
	return inner
}

/*
 * socketBackend surface.
 */

func (b *iocpBackend) recv(fd int, p []byte, flags int, c *task.Completion) error {
	op := &iocpOp{kind: iocpRecv, c: c, keepBuf: p}
	return b.track(op, func() error {
		buf := windows.WSABuf{Len: uint32(len(p))}
		if len(p) > 0 {
			buf.Buf = &p[0]
		}
		var done, wsaFlags uint32
		wsaFlags = uint32(flags)
		return windows.WSARecv(windows.Handle(fd), &buf, 1, &done, &wsaFlags, &op.ov, nil)
	})
}

func (b *iocpBackend) send(fd int, p []byte, flags int, c *task.Completion) error {
	op := &iocpOp{kind: iocpSend, c: c, keepBuf: p}
	return b.track(op, func() error {
		buf := windows.WSABuf{Len: uint32(len(p))}
		if len(p) > 0 {
			buf.Buf = &p[0]
		}
		var done uint32
		return windows.WSASend(windows.Handle(fd), &buf, 1, &done, uint32(flags), &op.ov, nil)
	})
}

func (b *iocpBackend) connect(fd int, a addr.Addr, c *task.Completion) error {
	sa, err := a.Sockaddr()
	if err != nil {
		return err
	}
	op := &iocpOp{kind: iocpConnect, c: c, sock: windows.Handle(fd)}
	return b.track(op, func() error {
		return windows.ConnectEx(windows.Handle(fd), sa, nil, 0, nil, &op.ov)
	})
}

func (b *iocpBackend) accept(fd int, out *addr.Addr, c *task.Completion) error {
	family := int32(windows.AF_INET)
	if sa, err := windows.Getsockname(windows.Handle(fd)); err == nil {
		if _, v6 := sa.(*windows.SockaddrInet6); v6 {
			family = windows.AF_INET6
		}
	}
	as, err := windows.WSASocket(family, windows.SOCK_STREAM,
		windows.IPPROTO_TCP, nil, 0, windows.WSA_FLAG_OVERLAPPED)
	if err != nil {
		return api.WrapOS("WSASocket", err)
	}
	const addrSpace = uint32(unsafe.Sizeof(windows.RawSockaddrAny{})) + 16
	op := &iocpOp{
		kind:       iocpAccept,
		c:          c,
		lsock:      windows.Handle(fd),
		acceptSock: as,
		acceptBuf:  make([]byte, 2*addrSpace),
		out:        out,
	}
	return b.track(op, func() error {
		var done uint32
		return windows.AcceptEx(windows.Handle(fd), as, &op.acceptBuf[0], 0,
			addrSpace, addrSpace, &done, &op.ov)
	})
}

func openOverlapped(path string, flags int, mode uint32) (windows.Handle, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return windows.InvalidHandle, api.WrapOS("open "+path, err)
	}
	var access uint32
	switch {
	case flags&windows.O_RDWR != 0:
		access = windows.GENERIC_READ | windows.GENERIC_WRITE
	case flags&windows.O_WRONLY != 0:
		access = windows.GENERIC_WRITE
	default:
		access = windows.GENERIC_READ
	}
	disposition := uint32(windows.OPEN_EXISTING)
	switch {
	case flags&windows.O_CREAT != 0 && flags&windows.O_EXCL != 0:
		disposition = windows.CREATE_NEW
	case flags&windows.O_CREAT != 0 && flags&windows.O_TRUNC != 0:
		disposition = windows.CREATE_ALWAYS
	case flags&windows.O_CREAT != 0:
		disposition = windows.OPEN_ALWAYS
	case flags&windows.O_TRUNC != 0:
		disposition = windows.TRUNCATE_EXISTING
	}
	share := uint32(windows.FILE_SHARE_READ | windows.FILE_SHARE_WRITE)
	h, err := windows.CreateFile(p, access, share, nil, disposition,
		windows.FILE_ATTRIBUTE_NORMAL|windows.FILE_FLAG_OVERLAPPED, 0)
	if err != nil {
		return windows.InvalidHandle, api.WrapOS("open "+path, err)
	}
	return h, nil
}
