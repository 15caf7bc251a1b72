// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

// task_test.go — lifecycle laws of the lazy task runtime.
package task

import (
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/momentics/hioload-aio/concurrency"
)

// TestTask_LazyStart verifies that creating a task runs nothing until it
// is awaited.
func TestTask_LazyStart(t *testing.T) {
	var ran atomic.Bool
	tk := New(func() (int, error) {
		ran.Store(true)
		return 42, nil
	})
	if ran.Load() {
		t.Fatal("task body ran before await")
	}
	if st := tk.State(); st != StateCreated {
		t.Fatalf("expected StateCreated, got %v", st)
	}
	v, err := Await(tk)
	if err != nil || v != 42 {
		t.Fatalf("Await = (%d, %v), want (42, nil)", v, err)
	}
	if !ran.Load() {
		t.Fatal("task body did not run on await")
	}
	if st := tk.State(); st != StateDone {
		t.Fatalf("expected StateDone, got %v", st)
	}
}

// TestTask_AwaitCompletedYieldsStoredResult checks awaiting twice.
func TestTask_AwaitCompletedYieldsStoredResult(t *testing.T) {
	calls := 0
	tk := New(func() (string, error) {
		calls++
		return "once", nil
	})
	if v, _ := Await(tk); v != "once" {
		t.Fatalf("first await: %q", v)
	}
	if v, _ := Await(tk); v != "once" {
		t.Fatalf("second await: %q", v)
	}
	if calls != 1 {
		t.Fatalf("body ran %d times, want 1", calls)
	}
}

// TestTask_NestedAwaitChain runs a chain of awaits synchronously.
func TestTask_NestedAwaitChain(t *testing.T) {
	const depth = 1000
	var build func(level int) *Task[int]
	build = func(level int) *Task[int] {
		return New(func() (int, error) {
			if level == 0 {
				return 0, nil
			}
			v, err := Await(build(level - 1))
			return v + 1, err
		})
	}
	v, err := Await(build(depth))
	if err != nil {
		t.Fatalf("chain failed: %v", err)
	}
	if v != depth {
		t.Fatalf("chain sum = %d, want %d", v, depth)
	}
}

// TestTask_PanicBecomesError ensures no panic escapes the task body.
func TestTask_PanicBecomesError(t *testing.T) {
	tk := New(func() (int, error) {
		panic("boom")
	})
	v, err := Await(tk)
	if v != 0 || err == nil {
		t.Fatalf("Await = (%d, %v), want error", v, err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("error does not carry panic value: %v", err)
	}
}

// TestTask_ErrorPropagatesThroughChain checks failures flow to the root.
func TestTask_ErrorPropagatesThroughChain(t *testing.T) {
	sentinel := errors.New("inner failure")
	inner := New(func() (int, error) { return 0, sentinel })
	outer := New(func() (int, error) {
		return Await(inner)
	})
	if _, err := Await(outer); !errors.Is(err, sentinel) {
		t.Fatalf("want sentinel, got %v", err)
	}
}

// TestTask_StartAndWait runs a task on an executor.
func TestTask_StartAndWait(t *testing.T) {
	ex := concurrency.NewExecutor(2)
	defer ex.Close()

	tk := New(func() (int, error) {
		return 7, nil
	})
	if err := tk.Start(ex); err != nil {
		t.Fatalf("Start: %v", err)
	}
	v, err := tk.Wait()
	if err != nil || v != 7 {
		t.Fatalf("Wait = (%d, %v), want (7, nil)", v, err)
	}
}

// TestTask_StartTwiceFails verifies a started task cannot start again.
func TestTask_StartTwiceFails(t *testing.T) {
	ex := concurrency.NewExecutor(1)
	defer ex.Close()

	tk := New(func() (int, error) { return 1, nil })
	if err := tk.Start(ex); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := tk.Start(ex); err == nil {
		t.Fatal("second Start succeeded")
	}
	tk.Wait()
}

// TestTask_Detach runs fire-and-forget work to completion.
func TestTask_Detach(t *testing.T) {
	ex := concurrency.NewExecutor(1)
	defer ex.Close()

	done := make(chan struct{})
	tk := New(func() (struct{}, error) {
		close(done)
		return struct{}{}, nil
	})
	if err := tk.Detach(ex); err != nil {
		t.Fatalf("Detach: %v", err)
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("detached task never ran")
	}
}

// TestCompletion_AwaitOp suspends until a cross-thread completion.
func TestCompletion_AwaitOp(t *testing.T) {
	c := new(Completion)
	go func() {
		time.Sleep(10 * time.Millisecond)
		c.Complete(123, nil)
	}()
	n, err := AwaitOp[int](c)
	if n != 123 || err != nil {
		t.Fatalf("AwaitOp = (%d, %v), want (123, nil)", n, err)
	}
}

// TestCompletion_ReadyFastPath skips suspension when already complete.
func TestCompletion_ReadyFastPath(t *testing.T) {
	c := new(Completion)
	c.Complete(5, nil)
	if !c.Ready() {
		t.Fatal("record not ready after Complete")
	}
	n, err := AwaitOp[int](c)
	if n != 5 || err != nil {
		t.Fatalf("AwaitOp = (%d, %v), want (5, nil)", n, err)
	}
}

// TestCompletion_Error carries the failure side.
func TestCompletion_Error(t *testing.T) {
	sentinel := errors.New("io failed")
	c := new(Completion)
	go c.Complete(0, sentinel)
	if _, err := AwaitOp[int](c); !errors.Is(err, sentinel) {
		t.Fatalf("want sentinel, got %v", err)
	}
}
