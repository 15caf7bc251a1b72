// File: channel/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package channel implements byte-stream endpoints over files, memory
// spans, and TCP sockets, plus the uniform read/write algorithms layered
// on the api capability contracts.
//
// Endpoints come in capability shapes mirroring what the medium supports:
// sequential channels carry internal read/write cursors, direct-access
// channels take absolute offsets. Every channel read, write, and close
// operation has a synchronous and an asynchronous form; the async forms
// return lazily-started tasks driven by the reactor. TCP connect and
// accept are async only; TCPListener.Close is sync only.
package channel
