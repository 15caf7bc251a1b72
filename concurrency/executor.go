// File: concurrency/executor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Executor dispatches work across a pool of worker goroutines. Each worker
// drains a bounded lock-free local queue; submissions that miss the fast
// path land on a shared FIFO overflow queue guarded by a mutex and drained
// under a condition variable, so idle workers sleep instead of spinning.

package concurrency

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
)

// TaskFunc aliases the bare callable shape so Executor satisfies the
// api.Executor contract directly.
type TaskFunc = func()

const localQueueSize = 1024

// Executor manages a pool of worker goroutines.
type Executor struct {
	mu       sync.Mutex
	cond     *sync.Cond
	overflow *queue.Queue // FIFO of TaskFunc
	locals   []*BoundedQueue[TaskFunc]
	workers  []*worker
	next     atomic.Uint64
	closed   atomic.Bool
	wg       sync.WaitGroup

	submitted atomic.Int64
	executed  atomic.Int64
}

type worker struct {
	id     int
	local  *BoundedQueue[TaskFunc]
	stopCh chan struct{}
}

// NewExecutor creates an executor with the given worker count. A count of
// zero or less means runtime.NumCPU().
func NewExecutor(numWorkers int) *Executor {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	e := &Executor{overflow: queue.New()}
	e.cond = sync.NewCond(&e.mu)
	e.grow(numWorkers)
	return e
}

// grow adds workers up to count. Caller must not hold e.mu.
func (e *Executor) grow(count int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for len(e.workers) < count {
		w := &worker{
			id:     len(e.workers),
			local:  NewBoundedQueue[TaskFunc](localQueueSize),
			stopCh: make(chan struct{}),
		}
		e.locals = append(e.locals, w.local)
		e.workers = append(e.workers, w)
		e.wg.Add(1)
		go e.run(w)
	}
}

// Submit enqueues work. Returns ErrExecutorClosed after Close.
func (e *Executor) Submit(task TaskFunc) error {
	if e.closed.Load() {
		return ErrExecutorClosed
	}
	e.submitted.Add(1)
	idx := int(e.next.Add(1))
	e.mu.Lock()
	if n := len(e.locals); n > 0 && e.locals[idx%n].Enqueue(task) {
		e.cond.Signal()
		e.mu.Unlock()
		return nil
	}
	e.overflow.Add(task)
	e.cond.Signal()
	e.mu.Unlock()
	return nil
}

// Resize adjusts the worker count. Shrinking signals the highest-numbered
// workers to stop and drains their local queues into the overflow queue;
// each signalled worker exits once it finds no queued work left to take.
func (e *Executor) Resize(newCount int) {
	if newCount <= 0 {
		newCount = 1
	}
	e.mu.Lock()
	current := len(e.workers)
	if newCount < current {
		for _, w := range e.workers[newCount:] {
			close(w.stopCh)
			for {
				task, ok := w.local.Dequeue()
				if !ok {
					break
				}
				e.overflow.Add(task)
			}
		}
		e.workers = e.workers[:newCount]
		e.locals = e.locals[:newCount]
		e.cond.Broadcast()
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()
	if newCount > current {
		e.grow(newCount)
	}
}

// NumWorkers returns the active worker count.
func (e *Executor) NumWorkers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.workers)
}

// Pending returns the number of submitted-but-not-executed items.
func (e *Executor) Pending() int64 {
	return e.submitted.Load() - e.executed.Load()
}

// Close shuts the executor down and waits for workers to exit. Workers
// drain work already queued before exiting; new submissions fail.
func (e *Executor) Close() {
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	e.mu.Lock()
	for _, w := range e.workers {
		select {
		case <-w.stopCh:
		default:
			close(w.stopCh)
		}
	}
	e.cond.Broadcast()
	e.mu.Unlock()
	e.wg.Wait()
}

func (e *Executor) run(w *worker) {
	defer e.wg.Done()
	for {
		if task, ok := w.local.Dequeue(); ok {
			e.execute(task)
			continue
		}
		e.mu.Lock()
		if e.overflow.Length() > 0 {
			task := e.overflow.Remove().(TaskFunc)
			e.mu.Unlock()
			e.execute(task)
			continue
		}
		// Steal from sibling queues before sleeping; a signal may wake a
		// different worker than the one whose queue received the item.
		if task, ok := e.steal(w); ok {
			e.mu.Unlock()
			e.execute(task)
			continue
		}
		select {
		case <-w.stopCh:
			e.mu.Unlock()
			return
		default:
		}
		e.cond.Wait()
		e.mu.Unlock()
	}
}

// steal scans sibling local queues. Caller holds e.mu.
func (e *Executor) steal(w *worker) (TaskFunc, bool) {
	for _, q := range e.locals {
		if q == w.local {
			continue
		}
		if task, ok := q.Dequeue(); ok {
			return task, true
		}
	}
	return nil, false
}

// execute runs one item with panic isolation.
func (e *Executor) execute(task TaskFunc) {
	defer func() { _ = recover() }()
	defer e.executed.Add(1)
	task()
}
