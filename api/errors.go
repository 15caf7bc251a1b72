// File: api/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Channel error registry for hioload-aio. These are the only errors the
// channel layer produces itself; operating-system errors are wrapped with
// %w so callers can still reach the underlying errno via errors.As.

package api

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a channel-layer error condition.
type ErrorCode int

const (
	CodeOK ErrorCode = iota

	// End of file reached.
	CodeEndOfFile

	// The buffer passed to a read operation has no space to read into.
	CodeNoSpaceInBuffer

	// The buffer passed to a write operation has no data in it.
	CodeNoDataInBuffer

	// The flags passed to a file channel's Open were not valid.
	CodeInvalidFileFlags

	// Attempt to open a channel which is already open.
	CodeChannelAlreadyOpen

	// Attempt to use a channel which is not open.
	CodeChannelNotOpen

	// The operation was abandoned because the reactor shut down.
	CodeCancelled
)

// Sentinel errors matching the ErrorCode registry.
var (
	ErrEndOfFile          = errors.New("end of file")
	ErrNoSpaceInBuffer    = errors.New("no space in buffer")
	ErrNoDataInBuffer     = errors.New("no data in buffer")
	ErrInvalidFileFlags   = errors.New("invalid file channel flags")
	ErrChannelAlreadyOpen = errors.New("channel is already open")
	ErrChannelNotOpen     = errors.New("channel is not open")
	ErrCancelled          = errors.New("operation cancelled")
	ErrReactorClosed      = errors.New("reactor is closed")
)

var codeTable = []struct {
	code ErrorCode
	err  error
}{
	{CodeEndOfFile, ErrEndOfFile},
	{CodeNoSpaceInBuffer, ErrNoSpaceInBuffer},
	{CodeNoDataInBuffer, ErrNoDataInBuffer},
	{CodeInvalidFileFlags, ErrInvalidFileFlags},
	{CodeChannelAlreadyOpen, ErrChannelAlreadyOpen},
	{CodeChannelNotOpen, ErrChannelNotOpen},
	{CodeCancelled, ErrCancelled},
}

// CodeOf maps an error back to its registry code. Unrecognized errors,
// including wrapped OS errors, report CodeOK with ok=false.
func CodeOf(err error) (code ErrorCode, ok bool) {
	if err == nil {
		return CodeOK, true
	}
	for _, e := range codeTable {
		if errors.Is(err, e.err) {
			return e.code, true
		}
	}
	return CodeOK, false
}

// WrapOS annotates an operating-system error with the failing operation.
// The native error remains reachable through errors.Is / errors.As.
func WrapOS(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
