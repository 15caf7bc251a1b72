// Package api
// Author: momentics
//
// Producer/consumer buffer contract consumed by the channel layer.
//
// A Buffer exposes two lazy sequences of contiguous byte ranges: readable
// ranges hold data waiting for a consumer, writable ranges hold free space
// waiting for a producer. Channels take the first range of either sequence
// per call and advance the matching cursor with Commit or Discard.

package api

// Buffer is the minimal surface a channel needs from any buffer container.
// Concrete containers (fixed rings, pooled slabs) live outside the channel
// layer and only have to satisfy this contract.
type Buffer interface {
	// ReadableRanges returns contiguous views over data available to
	// consumers, in consumption order. May be empty.
	ReadableRanges() [][]byte

	// WritableRanges returns contiguous views over free space available
	// to producers, in production order. May be empty.
	WritableRanges() [][]byte

	// Commit advances the producer cursor by n bytes previously written
	// into the leading writable ranges.
	Commit(n int)

	// Discard advances the consumer cursor by n bytes previously consumed
	// from the leading readable ranges.
	Discard(n int)
}
