// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

// algorithms_test.go — uniform read/write algorithms over memory
// channels and the buffer contract.
package channel

import (
	"bytes"
	"testing"

	"github.com/momentics/hioload-aio/api"
	"github.com/momentics/hioload-aio/buffer"
	"github.com/momentics/hioload-aio/task"
)

func openedMem(t *testing.T, contents []byte) *MemChannel {
	t.Helper()
	mc := NewMemChannel()
	if err := mc.Open(contents); err != nil {
		t.Fatalf("Open: %v", err)
	}
	return mc
}

func TestReadSome_CommitsIntoBuffer(t *testing.T) {
	mc := openedMem(t, []byte("stream data"))
	b := buffer.NewFixed(32)
	n, err := ReadSome(mc, b, Unlimited)
	if err != nil {
		t.Fatalf("ReadSome: %v", err)
	}
	if n != len("stream data") || b.Len() != n {
		t.Fatalf("n=%d buffered=%d", n, b.Len())
	}
	out := make([]byte, n)
	b.Read(out)
	if !bytes.Equal(out, []byte("stream data")) {
		t.Fatalf("buffered %q", out)
	}
}

func TestReadSome_CapLimitsTransfer(t *testing.T) {
	mc := openedMem(t, []byte("abcdef"))
	b := buffer.NewFixed(32)
	n, err := ReadSome(mc, b, 2)
	if err != nil || n != 2 {
		t.Fatalf("ReadSome cap=2 = (%d, %v)", n, err)
	}
}

func TestReadSome_FullBufferFails(t *testing.T) {
	mc := openedMem(t, []byte("abc"))
	b := buffer.NewFixed(2)
	b.Write([]byte("..")) // fill
	if _, err := ReadSome(mc, b, Unlimited); err != api.ErrNoSpaceInBuffer {
		t.Fatalf("ReadSome into full buffer = %v, want ErrNoSpaceInBuffer", err)
	}
}

func TestWriteSome_DiscardsFromBuffer(t *testing.T) {
	mc := openedMem(t, make([]byte, 16))
	b := buffer.NewFixed(16)
	b.Write([]byte("payload"))
	n, err := WriteSome(mc, b, Unlimited)
	if err != nil || n != 7 {
		t.Fatalf("WriteSome = (%d, %v)", n, err)
	}
	if b.Len() != 0 {
		t.Fatalf("buffer kept %d bytes after discard", b.Len())
	}
}

func TestWriteSome_EmptyBufferFails(t *testing.T) {
	mc := openedMem(t, make([]byte, 4))
	b := buffer.NewFixed(4)
	if _, err := WriteSome(mc, b, Unlimited); err != api.ErrNoDataInBuffer {
		t.Fatalf("WriteSome from empty buffer = %v, want ErrNoDataInBuffer", err)
	}
}

func TestReadAll_DrainsToEOFWithPartialCount(t *testing.T) {
	payload := []byte("all the bytes in the stream")
	mc := openedMem(t, payload)
	b := buffer.NewFixed(256)
	total, err := ReadAll(mc, b, len(payload)+100)
	if err != api.ErrEndOfFile {
		t.Fatalf("ReadAll past end err = %v, want ErrEndOfFile", err)
	}
	if total != int64(len(payload)) {
		t.Fatalf("ReadAll total = %d, want %d", total, len(payload))
	}
}

func TestReadAll_StopsAtCap(t *testing.T) {
	mc := openedMem(t, []byte("0123456789"))
	b := buffer.NewFixed(256)
	total, err := ReadAll(mc, b, 4)
	if err != nil || total != 4 {
		t.Fatalf("ReadAll cap=4 = (%d, %v)", total, err)
	}
}

func TestWriteAll_PushesEverything(t *testing.T) {
	span := make([]byte, 64)
	mc := openedMem(t, span)
	b := buffer.NewFixed(64)
	b.Write([]byte("complete transfer"))
	total, err := WriteAll(mc, b, Unlimited)
	if err != nil || total != int64(len("complete transfer")) {
		t.Fatalf("WriteAll = (%d, %v)", total, err)
	}
	if !bytes.Equal(span[:total], []byte("complete transfer")) {
		t.Fatalf("span prefix = %q", span[:total])
	}
}

func TestWriteAllAt_AdvancesOffset(t *testing.T) {
	span := make([]byte, 16)
	mc := openedMem(t, span)
	b := buffer.NewFixed(16)
	b.Write([]byte("abcdef"))
	total, err := WriteAllAt(mc, 4, b, Unlimited)
	if err != nil || total != 6 {
		t.Fatalf("WriteAllAt = (%d, %v)", total, err)
	}
	if !bytes.Equal(span[4:10], []byte("abcdef")) {
		t.Fatalf("span = %q", span)
	}
}

func TestReadAllAt_RoundTrip(t *testing.T) {
	span := []byte("....hidden....")
	mc := openedMem(t, span)
	b := buffer.NewFixed(16)
	total, err := ReadAllAt(mc, 4, b, 6)
	if err != nil || total != 6 {
		t.Fatalf("ReadAllAt = (%d, %v)", total, err)
	}
	out := make([]byte, 6)
	b.Read(out)
	if !bytes.Equal(out, []byte("hidden")) {
		t.Fatalf("read back %q", out)
	}
}

func TestAsyncAlgorithms_MirrorSyncBehavior(t *testing.T) {
	payload := []byte("async mirror")
	mc := openedMem(t, payload)
	b := buffer.NewFixed(64)

	n, err := task.Await(AsyncReadSome(mc, b, Unlimited))
	if err != nil || n != len(payload) {
		t.Fatalf("AsyncReadSome = (%d, %v)", n, err)
	}

	sink := openedMem(t, make([]byte, 64))
	total, err := task.Await(AsyncWriteAll(sink, b, Unlimited))
	if err != nil || total != int64(len(payload)) {
		t.Fatalf("AsyncWriteAll = (%d, %v)", total, err)
	}
}

func TestSpanBuffers_FeedAlgorithms(t *testing.T) {
	mc := openedMem(t, []byte("span source"))
	out := make([]byte, 11)
	w := buffer.NewWriteSpan(out)
	total, err := ReadAll(mc, w, Unlimited)
	if err != api.ErrEndOfFile && err != nil {
		t.Fatalf("ReadAll err = %v", err)
	}
	if total != 11 || !bytes.Equal(w.Written(), []byte("span source")) {
		t.Fatalf("total=%d written=%q", total, w.Written())
	}
}
