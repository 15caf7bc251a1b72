// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Reactor facade. Owns the worker executor and the platform backends and
// exposes the async primitive surface as lazily-started tasks: awaiting a
// primitive submits the operation and suspends until the backend fills
// the continuation record under its mutex, which resumes the awaiter.

package reactor

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/momentics/hioload-aio/addr"
	"github.com/momentics/hioload-aio/api"
	"github.com/momentics/hioload-aio/concurrency"
	"github.com/momentics/hioload-aio/task"
)

type reactorState int32

const (
	stateCreated reactorState = iota
	stateRunning
	stateStopped
)

// Reactor multiplexes asynchronous I/O for the whole process.
type Reactor struct {
	opts    options
	ex      *concurrency.Executor
	files   fileBackend
	sockets socketBackend

	state atomic.Int32

	mu         sync.Mutex
	associated map[int]struct{}

	stats statCounters
}

type statCounters struct {
	submitted atomic.Int64
	completed atomic.Int64
	posted    atomic.Int64
}

// Stats is a point-in-time snapshot of reactor activity.
type Stats struct {
	Submitted   int64
	Completed   int64
	InFlight    int64
	Posted      int64
	Workers     int
	FileBackend string
}

var (
	defaultReactor *Reactor
	defaultOnce    sync.Once
)

// Default returns the process-global reactor, creating it on first use.
// The caller still owns Start and Stop.
func Default() *Reactor {
	defaultOnce.Do(func() {
		defaultReactor = New()
	})
	return defaultReactor
}

// New constructs a reactor. Nothing runs until Start.
func New(opts ...Option) *Reactor {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	r := &Reactor{
		opts:       o,
		associated: make(map[int]struct{}),
	}
	r.ex = concurrency.NewExecutor(o.workers)
	r.files, r.sockets = newPlatformBackends(r)
	return r
}

// Start brings up the platform backends and begins dispatching.
func (r *Reactor) Start() error {
	if !r.state.CompareAndSwap(int32(stateCreated), int32(stateRunning)) {
		return api.ErrReactorClosed
	}
	if err := r.sockets.start(); err != nil {
		r.state.Store(int32(stateStopped))
		return err
	}
	if err := r.files.start(); err != nil {
		r.sockets.stop()
		r.state.Store(int32(stateStopped))
		return err
	}
	Logger().Info("reactor started",
		zap.Int("workers", r.ex.NumWorkers()),
		zap.String("file_backend", r.files.name()))
	return nil
}

// Stop shuts the backends down, fails pending submissions with
// api.ErrCancelled, and joins the worker pool.
func (r *Reactor) Stop() {
	if !r.state.CompareAndSwap(int32(stateRunning), int32(stateStopped)) {
		return
	}
	r.files.stop()
	r.sockets.stop()
	r.ex.Close()
	Logger().Info("reactor stopped",
		zap.Int64("completed", r.stats.completed.Load()))
}

// Executor exposes the reactor's worker pool.
func (r *Reactor) Executor() api.Executor { return r.ex }

// Post enqueues work onto the worker pool.
func (r *Reactor) Post(fn func()) error {
	if r.state.Load() != int32(stateRunning) {
		return api.ErrReactorClosed
	}
	r.stats.posted.Add(1)
	return r.ex.Submit(fn)
}

// Associate registers a socket descriptor with the readiness machinery.
// Idempotent for the same descriptor on the same reactor.
func (r *Reactor) Associate(fd int) error {
	if r.state.Load() != int32(stateRunning) {
		return api.ErrReactorClosed
	}
	r.mu.Lock()
	if _, ok := r.associated[fd]; ok {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()
	if err := r.sockets.associate(fd); err != nil {
		return err
	}
	r.mu.Lock()
	r.associated[fd] = struct{}{}
	r.mu.Unlock()
	return nil
}

// Deassociate removes a descriptor from the readiness machinery.
func (r *Reactor) Deassociate(fd int) {
	r.mu.Lock()
	_, ok := r.associated[fd]
	delete(r.associated, fd)
	r.mu.Unlock()
	if ok {
		r.sockets.deassociate(fd)
	}
}

// Stats returns a snapshot of reactor activity.
func (r *Reactor) Stats() Stats {
	submitted := r.stats.submitted.Load()
	completed := r.stats.completed.Load()
	return Stats{
		Submitted:   submitted,
		Completed:   completed,
		InFlight:    submitted - completed,
		Posted:      r.stats.posted.Load(),
		Workers:     r.ex.NumWorkers(),
		FileBackend: r.files.name(),
	}
}

func (r *Reactor) running() error {
	if r.state.Load() != int32(stateRunning) {
		return api.ErrReactorClosed
	}
	return nil
}

// awaitCount submits via submit and waits for the completion count.
func (r *Reactor) awaitCount(submit func(c *task.Completion) error) (int, error) {
	if err := r.running(); err != nil {
		return 0, err
	}
	c := new(task.Completion)
	if err := submit(c); err != nil {
		return 0, err
	}
	r.stats.submitted.Add(1)
	n, err := task.AwaitOp[int](c)
	r.stats.completed.Add(1)
	return n, err
}

// AsyncOpen opens a file; the completion count is the new descriptor.
func (r *Reactor) AsyncOpen(path string, flags int, mode uint32) *task.Task[int] {
	return task.New(func() (int, error) {
		return r.awaitCount(func(c *task.Completion) error {
			return r.files.open(path, flags, mode, c)
		})
	})
}

// AsyncClose closes a file descriptor.
func (r *Reactor) AsyncClose(fd int) *task.Task[struct{}] {
	return task.New(func() (struct{}, error) {
		_, err := r.awaitCount(func(c *task.Completion) error {
			return r.files.closeFD(fd, c)
		})
		return struct{}{}, err
	})
}

// AsyncRead reads at the descriptor's current file position.
func (r *Reactor) AsyncRead(fd int, p []byte) *task.Task[int] {
	return task.New(func() (int, error) {
		return r.awaitCount(func(c *task.Completion) error {
			return r.files.read(fd, p, c)
		})
	})
}

// AsyncPread reads at an absolute offset.
func (r *Reactor) AsyncPread(fd int, p []byte, off int64) *task.Task[int] {
	return task.New(func() (int, error) {
		return r.awaitCount(func(c *task.Completion) error {
			return r.files.pread(fd, p, off, c)
		})
	})
}

// AsyncWrite writes at the descriptor's current file position.
func (r *Reactor) AsyncWrite(fd int, p []byte) *task.Task[int] {
	return task.New(func() (int, error) {
		return r.awaitCount(func(c *task.Completion) error {
			return r.files.write(fd, p, c)
		})
	})
}

// AsyncPwrite writes at an absolute offset.
func (r *Reactor) AsyncPwrite(fd int, p []byte, off int64) *task.Task[int] {
	return task.New(func() (int, error) {
		return r.awaitCount(func(c *task.Completion) error {
			return r.files.pwrite(fd, p, off, c)
		})
	})
}

// AsyncRecv receives from a socket previously passed to Associate.
func (r *Reactor) AsyncRecv(fd int, p []byte, flags int) *task.Task[int] {
	return task.New(func() (int, error) {
		return r.awaitCount(func(c *task.Completion) error {
			return r.sockets.recv(fd, p, flags, c)
		})
	})
}

// AsyncSend sends on a socket previously passed to Associate.
func (r *Reactor) AsyncSend(fd int, p []byte, flags int) *task.Task[int] {
	return task.New(func() (int, error) {
		return r.awaitCount(func(c *task.Completion) error {
			return r.sockets.send(fd, p, flags, c)
		})
	})
}

// AsyncConnect connects a socket; success yields the unit value.
func (r *Reactor) AsyncConnect(fd int, a addr.Addr) *task.Task[struct{}] {
	return task.New(func() (struct{}, error) {
		_, err := r.awaitCount(func(c *task.Completion) error {
			return r.sockets.connect(fd, a, c)
		})
		return struct{}{}, err
	})
}

// AsyncAccept accepts a connection; the completion count is the new
// descriptor. The peer address is stored through out when non-nil.
func (r *Reactor) AsyncAccept(fd int, out *addr.Addr) *task.Task[int] {
	return task.New(func() (int, error) {
		return r.awaitCount(func(c *task.Completion) error {
			return r.sockets.accept(fd, out, c)
		})
	})
}
