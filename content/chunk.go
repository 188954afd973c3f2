// File: content/chunk.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Package content implements the pull/push byte-stream layer (spec §3,
// §4.6-4.8) above Endpoint: Chunk, Source, Sink, and the Copy pump built
// on the Iterating Step Driver. Grounded on pool/batch.go's zero-alloc
// slicing style and protocol/wsconn.go's pool-release-on-write pattern
// from the teacher.
package content

import "sync/atomic"

// releaser returns a buffer to whatever pool produced it. A Chunk calls
// this exactly once, when its retain count reaches zero.
type releaser func([]byte)

// Chunk is an immutable reference to a byte view plus last/failure flags
// (spec §3). It is either a data chunk, a terminal empty chunk, or a
// failure chunk.
type Chunk struct {
	view    []byte
	last    bool
	failure error
	fatal   bool

	retain   int32
	release  releaser
}

// Of constructs a data chunk from view. last marks it as the terminal
// chunk for its Source. The returned Chunk starts with a retain count of
// 1, owned by the caller.
func Of(view []byte, last bool, release releaser) *Chunk {
	return &Chunk{view: view, last: last, retain: 1, release: release}
}

// EndOfStream returns the canonical terminal empty chunk.
func EndOfStream() *Chunk {
	return &Chunk{last: true, retain: 1}
}

// Failure constructs a failure chunk. fatal distinguishes a permanent
// failure from a transient one a reader may choose to ignore (spec §4.7).
func Failure(cause error, fatal bool) *Chunk {
	return &Chunk{last: fatal, failure: cause, fatal: fatal, retain: 1}
}

// Bytes returns the chunk's byte view. Failure and terminal chunks return
// nil.
func (c *Chunk) Bytes() []byte { return c.view }

// IsLast reports whether this is the terminal chunk for its Source.
func (c *Chunk) IsLast() bool { return c.last }

// FailureCause returns the chunk's failure cause, or nil for a data chunk.
func (c *Chunk) FailureCause() error { return c.failure }

// Fatal reports whether a non-nil failure cause is permanent.
func (c *Chunk) Fatal() bool { return c.fatal }

// Retain increments the reference count. Call it only when a reference
// must outlive the scope that received the Chunk from Source.Read.
func (c *Chunk) Retain() {
	atomic.AddInt32(&c.retain, 1)
}

// Release decrements the reference count, returning the underlying
// buffer to its pool when it reaches zero. Releasing a failure chunk is
// optional (spec §3) but harmless.
func (c *Chunk) Release() {
	if atomic.AddInt32(&c.retain, -1) == 0 && c.release != nil {
		c.release(c.view)
		c.release = nil
	}
}

// Slice returns a new chunk sharing the same underlying allocation,
// zero-copy, over view[from:to]. The new chunk is never last/failure even
// if the receiver is, since slicing a data window only makes sense on
// data chunks; callers must not slice terminal or failure chunks.
func (c *Chunk) Slice(from, to int) *Chunk {
	c.Retain()
	return &Chunk{
		view:    c.view[from:to],
		retain:  1,
		release: func([]byte) { c.Release() },
	}
}
