//go:build !windows

// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

// tcpchannel_unix_test.go — connect/accept/echo over the reactor and the
// end-of-stream contract on peer close.
package channel

import (
	"bytes"
	"testing"

	"github.com/momentics/hioload-aio/addr"
	"github.com/momentics/hioload-aio/api"
	"github.com/momentics/hioload-aio/reactor"
	"github.com/momentics/hioload-aio/task"
)

func startedReactor(t *testing.T) *reactor.Reactor {
	t.Helper()
	r := reactor.New()
	if err := r.Start(); err != nil {
		t.Fatalf("reactor Start: %v", err)
	}
	t.Cleanup(r.Stop)
	return r
}

func loopbackListener(t *testing.T, r *reactor.Reactor) (*TCPListener, addr.Addr) {
	t.Helper()
	bind, err := addr.ParseTCP("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("ParseTCP: %v", err)
	}
	ln, err := ListenTCP(r, bind, 8)
	if err != nil {
		t.Fatalf("ListenTCP: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	local, err := ln.Addr()
	if err != nil {
		t.Fatalf("listener Addr: %v", err)
	}
	return ln, local
}

func TestTCP_EchoRoundTrip(t *testing.T) {
	r := startedReactor(t)
	ln, local := loopbackListener(t, r)

	// Echo server: one connection, echo until peer closes.
	server := task.New(func() (struct{}, error) {
		conn, err := task.Await(ln.AsyncAccept())
		if err != nil {
			return struct{}{}, err
		}
		defer conn.Close()
		buf := make([]byte, 512)
		for {
			n, err := task.Await(conn.AsyncReadSome(buf))
			if err == api.ErrEndOfFile {
				return struct{}{}, nil
			}
			if err != nil {
				return struct{}{}, err
			}
			sent := 0
			for sent < n {
				w, err := task.Await(conn.AsyncWriteSome(buf[sent:n]))
				if err != nil {
					return struct{}{}, err
				}
				sent += w
			}
		}
	})
	serverDone := make(chan error, 1)
	go func() {
		_, err := task.Await(server)
		serverDone <- err
	}()

	client := NewTCPChannel(r)
	if _, err := task.Await(client.AsyncConnect(local)); err != nil {
		t.Fatalf("AsyncConnect: %v", err)
	}

	payload := bytes.Repeat([]byte("0123456789abcdef"), 64) // 1 KiB
	sent := 0
	for sent < len(payload) {
		n, err := task.Await(client.AsyncWriteSome(payload[sent:]))
		if err != nil {
			t.Fatalf("AsyncWriteSome: %v", err)
		}
		if n <= 0 {
			t.Fatal("write success with non-positive count")
		}
		sent += n
	}

	var got []byte
	chunk := make([]byte, 256)
	for len(got) < len(payload) {
		n, err := task.Await(client.AsyncReadSome(chunk))
		if err != nil {
			t.Fatalf("AsyncReadSome: %v", err)
		}
		got = append(got, chunk[:n]...)
	}
	if !bytes.Equal(got, payload) {
		t.Fatal("echoed bytes differ from sent bytes")
	}

	if err := client.Close(); err != nil {
		t.Fatalf("client Close: %v", err)
	}
	if err := <-serverDone; err != nil {
		t.Fatalf("server: %v", err)
	}
}

func TestTCP_ReadAfterPeerCloseIsEOF(t *testing.T) {
	r := startedReactor(t)
	ln, local := loopbackListener(t, r)

	accepted := make(chan *TCPChannel, 1)
	go func() {
		conn, err := task.Await(ln.AsyncAccept())
		if err != nil {
			accepted <- nil
			return
		}
		accepted <- conn
	}()

	client := NewTCPChannel(r)
	if _, err := task.Await(client.AsyncConnect(local)); err != nil {
		t.Fatalf("AsyncConnect: %v", err)
	}
	conn := <-accepted
	if conn == nil {
		t.Fatal("accept failed")
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("server-side Close: %v", err)
	}

	buf := make([]byte, 16)
	if _, err := task.Await(client.AsyncReadSome(buf)); err != api.ErrEndOfFile {
		t.Fatalf("read after peer close = %v, want ErrEndOfFile", err)
	}
	client.Close()
}

func TestTCP_ConnectOnOpenChannelFails(t *testing.T) {
	r := startedReactor(t)
	ln, local := loopbackListener(t, r)

	go func() {
		if conn, err := task.Await(ln.AsyncAccept()); err == nil {
			defer conn.Close()
			// hold until test end
			buf := make([]byte, 1)
			task.Await(conn.AsyncReadSome(buf))
		}
	}()

	client := NewTCPChannel(r)
	if _, err := task.Await(client.AsyncConnect(local)); err != nil {
		t.Fatalf("AsyncConnect: %v", err)
	}
	defer client.Close()
	if _, err := task.Await(client.AsyncConnect(local)); err != api.ErrChannelAlreadyOpen {
		t.Fatalf("second connect = %v, want ErrChannelAlreadyOpen", err)
	}
}

func TestTCP_LifecycleErrors(t *testing.T) {
	r := startedReactor(t)
	c := NewTCPChannel(r)
	if c.IsOpen() {
		t.Fatal("fresh channel reports open")
	}
	if err := c.Close(); err != api.ErrChannelNotOpen {
		t.Fatalf("close on closed = %v, want ErrChannelNotOpen", err)
	}
	if _, err := task.Await(c.AsyncReadSome(make([]byte, 1))); err != api.ErrChannelNotOpen {
		t.Fatalf("read on closed = %v, want ErrChannelNotOpen", err)
	}
}
