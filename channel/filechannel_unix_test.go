//go:build !windows

// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

// filechannel_unix_test.go — flag validation matrix and synchronous file
// channel semantics against real files.
package channel

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/momentics/hioload-aio/api"
	"github.com/momentics/hioload-aio/reactor"
)

func scratchFile(t *testing.T, contents []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.bin")
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatalf("scratch file: %v", err)
	}
	return path
}

func TestSeqReadFile_RejectsWriteFlags(t *testing.T) {
	r := reactor.Default()
	path := scratchFile(t, []byte("x"))

	for _, f := range []FileFlag{FlagWrite, FlagWrite | FlagRead, FlagTrunc, FlagAppend} {
		c := NewSeqReadFile()
		if err := c.Open(r, path, f); err != api.ErrInvalidFileFlags {
			t.Fatalf("Open(%#x) = %v, want ErrInvalidFileFlags", f, err)
		}
		if c.IsOpen() {
			t.Fatalf("channel open after invalid flags %#x", f)
		}
	}
}

func TestSeqWriteFile_RejectsReadFlag(t *testing.T) {
	r := reactor.Default()
	path := filepath.Join(t.TempDir(), "out.bin")
	c := NewSeqWriteFile()
	if err := c.Open(r, path, FlagRead); err != api.ErrInvalidFileFlags {
		t.Fatalf("Open(FlagRead) = %v, want ErrInvalidFileFlags", err)
	}
}

func TestFileFlags_TruncAppendConflict(t *testing.T) {
	r := reactor.Default()
	path := filepath.Join(t.TempDir(), "out.bin")
	c := NewSeqWriteFile()
	if err := c.Open(r, path, FlagTrunc|FlagAppend); err != api.ErrInvalidFileFlags {
		t.Fatalf("Open(Trunc|Append) = %v, want ErrInvalidFileFlags", err)
	}
}

func TestDirectWriteFile_RejectsAppend(t *testing.T) {
	r := reactor.Default()
	path := filepath.Join(t.TempDir(), "out.bin")
	c := NewDirectWriteFile()
	if err := c.Open(r, path, FlagAppend); err != api.ErrInvalidFileFlags {
		t.Fatalf("direct open with append = %v, want ErrInvalidFileFlags", err)
	}
}

func TestFileFlags_CreateNewRefusesExisting(t *testing.T) {
	r := reactor.Default()
	path := scratchFile(t, []byte("present"))
	c := NewSeqWriteFile()
	if err := c.Open(r, path, FlagCreateNew); err == nil {
		c.Close()
		t.Fatal("FlagCreateNew opened an existing file")
	}
}

func TestSeqReadFile_ReadsToEOF(t *testing.T) {
	r := reactor.Default()
	payload := []byte("sequential file contents")
	path := scratchFile(t, payload)

	c := NewSeqReadFile()
	if err := c.Open(r, path, FlagNone); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	var got []byte
	chunk := make([]byte, 7)
	for {
		n, err := c.ReadSome(chunk)
		if err == api.ErrEndOfFile {
			break
		}
		if err != nil {
			t.Fatalf("ReadSome: %v", err)
		}
		if n <= 0 {
			t.Fatal("success with non-positive count")
		}
		got = append(got, chunk[:n]...)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("read %q, want %q", got, payload)
	}
}

func TestSeqFile_IndependentCursors(t *testing.T) {
	r := reactor.Default()
	path := filepath.Join(t.TempDir(), "rw.bin")

	c := NewSeqFile()
	if err := c.Open(r, path, FlagNone); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	if n, err := c.WriteSome([]byte("cursor test")); err != nil || n != 11 {
		t.Fatalf("WriteSome = (%d, %v)", n, err)
	}
	got := make([]byte, 11)
	if n, err := c.ReadSome(got); err != nil || n != 11 {
		t.Fatalf("ReadSome = (%d, %v)", n, err)
	}
	if !bytes.Equal(got, []byte("cursor test")) {
		t.Fatalf("read back %q", got)
	}
}

func TestDirectFile_ReadAfterWriteAtOffset(t *testing.T) {
	r := reactor.Default()
	path := filepath.Join(t.TempDir(), "da.bin")

	c := NewDirectFile()
	if err := c.Open(r, path, FlagNone); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	payload := []byte("offset payload")
	if n, err := c.WriteSomeAt(128, payload); err != nil || n != len(payload) {
		t.Fatalf("WriteSomeAt = (%d, %v)", n, err)
	}
	got := make([]byte, len(payload))
	if n, err := c.ReadSomeAt(128, got); err != nil || n != len(payload) {
		t.Fatalf("ReadSomeAt = (%d, %v)", n, err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("round trip %q != %q", got, payload)
	}
}

func TestSeqWriteFile_AppendForcesEnd(t *testing.T) {
	r := reactor.Default()
	path := scratchFile(t, []byte("base-"))

	c := NewSeqWriteFile()
	if err := c.Open(r, path, FlagAppend|FlagOpenExisting); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := c.WriteSome([]byte("tail")); err != nil {
		t.Fatalf("WriteSome: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, []byte("base-tail")) {
		t.Fatalf("file = %q, want %q", got, "base-tail")
	}
}

func TestFileChannel_ConcurrentReaderAndWriterShapes(t *testing.T) {
	r := reactor.Default()
	path := filepath.Join(t.TempDir(), "shared.bin")

	w := NewSeqWriteFile()
	if err := w.Open(r, path, FlagNone); err != nil {
		t.Fatalf("writer Open: %v", err)
	}
	rd := NewSeqReadFile()
	if err := rd.Open(r, path, FlagNone); err != nil {
		t.Fatalf("reader Open: %v", err)
	}
	defer rd.Close()

	if _, err := w.WriteSome([]byte("hello")); err != nil {
		t.Fatalf("WriteSome: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("writer Close: %v", err)
	}

	got := make([]byte, 5)
	if n, err := rd.ReadSome(got); err != nil || n != 5 {
		t.Fatalf("ReadSome = (%d, %v)", n, err)
	}
	if string(got) != "hello" {
		t.Fatalf("read %q", got)
	}
	if _, err := rd.ReadSome(got); err != api.ErrEndOfFile {
		t.Fatalf("second read = %v, want ErrEndOfFile", err)
	}
}

func TestFileChannel_LifecycleErrors(t *testing.T) {
	r := reactor.Default()
	path := scratchFile(t, []byte("x"))

	c := NewSeqReadFile()
	if err := c.Open(r, path, FlagNone); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := c.Open(r, path, FlagNone); err != api.ErrChannelAlreadyOpen {
		t.Fatalf("reopen = %v, want ErrChannelAlreadyOpen", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Close(); err != api.ErrChannelNotOpen {
		t.Fatalf("double close = %v, want ErrChannelNotOpen", err)
	}
	if _, err := c.ReadSome(make([]byte, 1)); err != api.ErrChannelNotOpen {
		t.Fatalf("read closed = %v, want ErrChannelNotOpen", err)
	}
}
