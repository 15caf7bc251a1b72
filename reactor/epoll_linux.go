//go:build linux

// File: reactor/epoll_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// epoll(7) readiness poller. Descriptors are registered disarmed and armed
// one-shot per wait with the union of pending read/write interest, so a
// quiet socket costs nothing and a readiness edge wakes exactly the
// waiters it satisfies. Waiter callbacks run on the poll thread and must
// stay non-blocking: one non-blocking syscall attempt plus a completion
// handoff, nothing more.

package reactor

import (
	"sync"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-aio/api"
)

// pollWaiter is one parked readiness wait.
type pollWaiter struct {
	fn func(err error)
}

type pollDesc struct {
	readers []*pollWaiter
	writers []*pollWaiter
}

type epollPoller struct {
	batch    int
	epfd     int
	wakeFD   int // eventfd used to interrupt epoll_wait on stop
	mu       sync.Mutex
	fds      map[int]*pollDesc
	closed   bool
	loopDone chan struct{}
}

func newEpollPoller(batch int) *epollPoller {
	return &epollPoller{
		batch:    batch,
		epfd:     -1,
		wakeFD:   -1,
		fds:      make(map[int]*pollDesc),
		loopDone: make(chan struct{}),
	}
}

func (p *epollPoller) start() error {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return api.WrapOS("epoll_create1", err)
	}
	wakeFD, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(epfd)
		return api.WrapOS("eventfd", err)
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakeFD)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakeFD, &ev); err != nil {
		unix.Close(wakeFD)
		unix.Close(epfd)
		return api.WrapOS("epoll_ctl add wake", err)
	}
	p.epfd = epfd
	p.wakeFD = wakeFD
	go p.loop()
	return nil
}

func (p *epollPoller) stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	var one = []byte{1, 0, 0, 0, 0, 0, 0, 0}
	unix.Write(p.wakeFD, one)
	<-p.loopDone

	// Fail everything still parked.
	p.mu.Lock()
	fds := p.fds
	p.fds = make(map[int]*pollDesc)
	p.mu.Unlock()
	for _, d := range fds {
		for _, w := range append(d.readers, d.writers...) {
			p.post(w, api.ErrCancelled)
		}
	}
	unix.Close(p.wakeFD)
	unix.Close(p.epfd)
}

// associate registers fd disarmed.
func (p *epollPoller) associate(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return api.ErrReactorClosed
	}
	if _, ok := p.fds[fd]; ok {
		return nil
	}
	ev := unix.EpollEvent{Events: unix.EPOLLONESHOT, Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return api.WrapOS("epoll_ctl add", err)
	}
	p.fds[fd] = &pollDesc{}
	return nil
}

func (p *epollPoller) deassociate(fd int) {
	p.mu.Lock()
	d, ok := p.fds[fd]
	if ok {
		delete(p.fds, fd)
		unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	}
	p.mu.Unlock()
	if !ok {
		return
	}
	for _, w := range append(d.readers, d.writers...) {
		p.post(w, api.ErrCancelled)
	}
}

// waitReadable parks fn until fd is readable (or errored).
func (p *epollPoller) waitReadable(fd int, fn func(err error)) error {
	return p.wait(fd, false, fn)
}

// waitWritable parks fn until fd is writable (or errored).
func (p *epollPoller) waitWritable(fd int, fn func(err error)) error {
	return p.wait(fd, true, fn)
}

func (p *epollPoller) wait(fd int, write bool, fn func(err error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return api.ErrReactorClosed
	}
	d, ok := p.fds[fd]
	if !ok {
		return api.WrapOS("poll wait", unix.EBADF)
	}
	w := &pollWaiter{fn: fn}
	if write {
		d.writers = append(d.writers, w)
	} else {
		d.readers = append(d.readers, w)
	}
	return p.arm(fd, d)
}

// arm re-arms fd one-shot with the union of pending interest. Caller
// holds p.mu.
func (p *epollPoller) arm(fd int, d *pollDesc) error {
	ev := unix.EpollEvent{Events: unix.EPOLLONESHOT, Fd: int32(fd)}
	if len(d.readers) > 0 {
		ev.Events |= unix.EPOLLIN | unix.EPOLLRDHUP
	}
	if len(d.writers) > 0 {
		ev.Events |= unix.EPOLLOUT
	}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &ev); err != nil {
		return api.WrapOS("epoll_ctl mod", err)
	}
	return nil
}

func (p *epollPoller) loop() {
	defer close(p.loopDone)
	events := make([]unix.EpollEvent, p.batch)
	for {
		n, err := unix.EpollWait(p.epfd, events, -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return
		}
		for i := 0; i < n; i++ {
			ev := events[i]
			fd := int(ev.Fd)
			if fd == p.wakeFD {
				return
			}
			p.dispatch(fd, ev.Events)
		}
		p.mu.Lock()
		closed := p.closed
		p.mu.Unlock()
		if closed {
			return
		}
	}
}

// dispatch wakes the waiters an event satisfies and re-arms the rest.
func (p *epollPoller) dispatch(fd int, events uint32) {
	errEvent := events&(unix.EPOLLERR|unix.EPOLLHUP) != 0

	p.mu.Lock()
	d, ok := p.fds[fd]
	if !ok {
		p.mu.Unlock()
		return
	}
	var woken []*pollWaiter
	if errEvent || events&(unix.EPOLLIN|unix.EPOLLRDHUP) != 0 {
		woken = append(woken, d.readers...)
		d.readers = nil
	}
	if errEvent || events&unix.EPOLLOUT != 0 {
		woken = append(woken, d.writers...)
		d.writers = nil
	}
	if len(d.readers)+len(d.writers) > 0 {
		p.arm(fd, d)
	}
	p.mu.Unlock()

	for _, w := range woken {
		p.post(w, nil)
	}
}

// post invokes a waiter's callback. Callbacks are bounded non-blocking
// retries, so running them on the poll (or stopping) thread is safe.
func (p *epollPoller) post(w *pollWaiter, err error) {
	w.fn(err)
}
