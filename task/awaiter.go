// File: task/awaiter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Awaiter shapes. An Awaiter is the unit of suspension: ready-check,
// suspend with a resume hook, then resume to collect the value.

package task

// Awaiter describes how a suspend point interacts with its caller.
//
// AwaitOp first consults Ready; if the operation already finished, Resume
// is called without suspending. Otherwise Suspend registers a resume hook
// which the completion side invokes exactly once, after which Resume
// collects the value.
type Awaiter[T any] interface {
	// Ready reports whether the operation already completed.
	Ready() bool

	// Suspend registers the continuation to invoke on completion. If the
	// operation completed between Ready and Suspend, the awaiter must
	// invoke resume itself.
	Suspend(resume func())

	// Resume returns the operation's result. Only valid after the resume
	// hook has fired or Ready returned true.
	Resume() (T, error)
}

// AwaitOp drives an awaiter to completion, blocking the calling flow while
// the operation is in flight.
func AwaitOp[T any](a Awaiter[T]) (T, error) {
	if a.Ready() {
		return a.Resume()
	}
	gate := make(chan struct{})
	a.Suspend(func() { close(gate) })
	<-gate
	return a.Resume()
}
