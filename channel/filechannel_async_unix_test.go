//go:build !windows

// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

// filechannel_async_unix_test.go — asynchronous file channel paths driven
// through a running reactor.
package channel

import (
	"bytes"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/momentics/hioload-aio/api"
	"github.com/momentics/hioload-aio/task"
)

func TestSeqReadFile_AsyncReadLoopDrainsLargeFile(t *testing.T) {
	r := startedReactor(t)

	payload := make([]byte, 1<<20) // 1 MiB through a 1 KiB buffer
	rand.Read(payload)
	path := filepath.Join(t.TempDir(), "large.bin")
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	total, err := task.Await(task.New(func() (int, error) {
		c := NewSeqReadFile()
		if _, err := task.Await(c.AsyncOpen(r, path, FlagNone)); err != nil {
			return 0, err
		}
		defer c.Close()

		sum := 0
		chunk := make([]byte, 1024)
		for {
			n, err := task.Await(c.AsyncReadSome(chunk))
			if err == api.ErrEndOfFile {
				return sum, nil
			}
			if err != nil {
				return sum, err
			}
			if n <= 0 {
				t.Error("async read success with non-positive count")
				return sum, nil
			}
			if !bytes.Equal(chunk[:n], payload[sum:sum+n]) {
				t.Errorf("content mismatch at offset %d", sum)
				return sum, nil
			}
			sum += n
		}
	}))
	if err != nil {
		t.Fatalf("read loop: %v", err)
	}
	if total != len(payload) {
		t.Fatalf("drained %d bytes, want %d", total, len(payload))
	}
}

func TestSeqWriteFile_AsyncWritePersists(t *testing.T) {
	r := startedReactor(t)
	path := filepath.Join(t.TempDir(), "async-out.bin")

	_, err := task.Await(task.New(func() (struct{}, error) {
		c := NewSeqWriteFile()
		if _, err := task.Await(c.AsyncOpen(r, path, FlagNone)); err != nil {
			return struct{}{}, err
		}
		payload := []byte("written asynchronously")
		sent := 0
		for sent < len(payload) {
			n, err := task.Await(c.AsyncWriteSome(payload[sent:]))
			if err != nil {
				return struct{}{}, err
			}
			sent += n
		}
		if _, err := task.Await(c.AsyncClose()); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	}))
	if err != nil {
		t.Fatalf("write task: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, []byte("written asynchronously")) {
		t.Fatalf("file = %q", got)
	}
}

func TestDirectFile_AsyncAtOffsets(t *testing.T) {
	r := startedReactor(t)
	path := filepath.Join(t.TempDir(), "async-da.bin")

	c := NewDirectFile()
	if err := c.Open(r, path, FlagNone); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	if n, err := task.Await(c.AsyncWriteSomeAt(64, []byte("sparse"))); err != nil || n != 6 {
		t.Fatalf("AsyncWriteSomeAt = (%d, %v)", n, err)
	}
	got := make([]byte, 6)
	if n, err := task.Await(c.AsyncReadSomeAt(64, got)); err != nil || n != 6 {
		t.Fatalf("AsyncReadSomeAt = (%d, %v)", n, err)
	}
	if string(got) != "sparse" {
		t.Fatalf("read back %q", got)
	}
	if _, err := task.Await(c.AsyncReadSomeAt(4096, got)); err != api.ErrEndOfFile {
		t.Fatalf("read past end = %v, want ErrEndOfFile", err)
	}
}
