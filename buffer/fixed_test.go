// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

// fixed_test.go — circular buffer range and cursor arithmetic.
package buffer

import (
	"bytes"
	"testing"
)

func TestFixed_WriteReadRoundTrip(t *testing.T) {
	b := NewFixed(8)
	n := b.Write([]byte("abcde"))
	if n != 5 {
		t.Fatalf("Write = %d, want 5", n)
	}
	if b.Len() != 5 || b.Free() != 3 {
		t.Fatalf("Len/Free = %d/%d, want 5/3", b.Len(), b.Free())
	}
	out := make([]byte, 5)
	if got := b.Read(out); got != 5 || !bytes.Equal(out, []byte("abcde")) {
		t.Fatalf("Read = %d %q", got, out)
	}
	if b.Len() != 0 {
		t.Fatalf("Len after drain = %d", b.Len())
	}
}

func TestFixed_WrapAroundRanges(t *testing.T) {
	b := NewFixed(8)
	b.Write([]byte("abcdef"))
	b.Read(make([]byte, 4)) // head=4, tail=6
	b.Write([]byte("ghij")) // wraps: tail=2

	if b.Len() != 6 {
		t.Fatalf("Len = %d, want 6", b.Len())
	}
	ranges := b.ReadableRanges()
	if len(ranges) != 2 {
		t.Fatalf("readable range count = %d, want 2", len(ranges))
	}
	joined := append(append([]byte{}, ranges[0]...), ranges[1]...)
	if !bytes.Equal(joined, []byte("efghij")) {
		t.Fatalf("wrapped content = %q", joined)
	}
}

func TestFixed_FullAndEmptyRanges(t *testing.T) {
	b := NewFixed(4)
	if got := b.ReadableRanges(); got != nil {
		t.Fatalf("empty buffer has readable ranges: %v", got)
	}
	b.Write([]byte("wxyz"))
	if got := b.WritableRanges(); got != nil {
		t.Fatalf("full buffer has writable ranges: %v", got)
	}
	if b.Write([]byte("!")) != 0 {
		t.Fatal("write into full buffer accepted data")
	}
}

func TestFixed_CommitDiscardContract(t *testing.T) {
	b := NewFixed(8)
	w := b.WritableRanges()
	copy(w[0], "1234")
	b.Commit(4)
	r := b.ReadableRanges()
	if !bytes.Equal(r[0], []byte("1234")) {
		t.Fatalf("readable after commit = %q", r[0])
	}
	b.Discard(2)
	r = b.ReadableRanges()
	if !bytes.Equal(r[0], []byte("34")) {
		t.Fatalf("readable after discard = %q", r[0])
	}
}

func TestFixed_OverCommitPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("over-commit did not panic")
		}
	}()
	b := NewFixed(4)
	b.Commit(5)
}

func TestSpan_ReadWriteWindows(t *testing.T) {
	storage := make([]byte, 6)
	w := NewWriteSpan(storage)
	wr := w.WritableRanges()
	if len(wr) != 1 || len(wr[0]) != 6 {
		t.Fatalf("writable window wrong: %v", wr)
	}
	copy(wr[0], "hello!")
	w.Commit(6)
	if w.WritableRanges() != nil {
		t.Fatal("exhausted span still writable")
	}
	if !bytes.Equal(w.Written(), []byte("hello!")) {
		t.Fatalf("Written = %q", w.Written())
	}

	r := NewReadSpan([]byte("data"))
	rr := r.ReadableRanges()
	if len(rr) != 1 || !bytes.Equal(rr[0], []byte("data")) {
		t.Fatalf("readable window wrong: %v", rr)
	}
	r.Discard(4)
	if r.ReadableRanges() != nil {
		t.Fatal("drained span still readable")
	}
}
