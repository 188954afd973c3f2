// File: endpoint/endpoint.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Package endpoint implements the channel-facing, non-blocking read/write
// abstraction (spec §4.3): exclusive owner of one api.Channel, exposing
// fill-interested/fill/write with callback completion and idle-timeout
// signalling. Grounded on protocol/connection.go's atomic counter style
// from the teacher, generalized from a WebSocket-specific connection into
// the protocol-agnostic core primitive the spec requires.
package endpoint

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flowgate/reactorcore/api"
)

// readState mirrors spec §4.3's per-direction state machine.
type readState int32

const (
	readIdle readState = iota
	readInterested
)

type writeState int32

const (
	writeIdle writeState = iota
	writePending
)

// Endpoint is the exclusive owner of one Channel (spec §3, §4.3). Its
// bound Connection is stored as `any` rather than a named interface: the
// richer Connection contract (OnOpen/OnFillable/OnClose) lives in the
// connection package, which depends on Endpoint, not the other way
// around — this keeps the dependency edge one-directional while still
// letting Endpoint hold and atomically swap the binding for Upgrade.
type Endpoint struct {
	ID      string
	channel api.Channel

	createdAt  time.Time
	lastRead   atomic.Int64 // unix nanos
	lastWrite  atomic.Int64
	idleTimeout time.Duration

	mu         sync.Mutex
	conn       any
	readState  readState
	readCB     api.Callback
	writeState writeState
	writeCB    api.Callback
	writeBufs  [][]byte

	open           atomic.Bool
	shutdownOutput atomic.Bool

	interestListener func()
}

// SetInterestListener registers fn to be called whenever a change to this
// Endpoint's read/write state may require the owning ManagedSelector to
// update the channel's readiness interest mask. The listener is called at
// most synchronously with the state change; the selector is responsible
// for marshaling the actual mask update through its action queue (spec
// §5: "mutated only from the selector thread; cross-thread changes are
// marshaled through the action queue").
func (e *Endpoint) SetInterestListener(fn func()) {
	e.mu.Lock()
	e.interestListener = fn
	e.mu.Unlock()
}

func (e *Endpoint) notifyInterestChanged() {
	e.mu.Lock()
	fn := e.interestListener
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// New adopts channel as a new Endpoint (spec §3: "created when a Channel
// is adopted by a Managed Selector").
func New(id string, ch api.Channel, idleTimeout time.Duration) *Endpoint {
	e := &Endpoint{ID: id, channel: ch, createdAt: time.Now(), idleTimeout: idleTimeout}
	e.open.Store(true)
	now := time.Now().UnixNano()
	e.lastRead.Store(now)
	e.lastWrite.Store(now)
	return e
}

// Channel returns the bound api.Channel.
func (e *Endpoint) Channel() api.Channel { return e.channel }

// CreatedAt, LastRead, LastWrite report the Endpoint's activity times.
func (e *Endpoint) CreatedAt() time.Time  { return e.createdAt }
func (e *Endpoint) LastRead() time.Time   { return time.Unix(0, e.lastRead.Load()) }
func (e *Endpoint) LastWrite() time.Time  { return time.Unix(0, e.lastWrite.Load()) }
func (e *Endpoint) IdleTimeout() time.Duration { return e.idleTimeout }

// IsOpen reports whether the Endpoint has not yet been closed.
func (e *Endpoint) IsOpen() bool { return e.open.Load() }

// BindConnection binds conn as the Endpoint's Connection. connection.Open
// calls it once the ConnectionFactory has built conn, before the
// Connection's OnOpen hook runs.
func (e *Endpoint) BindConnection(conn any) {
	e.mu.Lock()
	e.conn = conn
	e.mu.Unlock()
}

// Connection returns the currently bound Connection, or nil.
func (e *Endpoint) Connection() any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conn
}

// Upgrade atomically releases the currently bound Connection and binds
// next in its place, clearing any pending read interest (spec §3: "Pending
// read interest on the Endpoint is cleared across upgrade"). It returns
// the outgoing Connection so the caller (connection.Upgrade) can run its
// OnClose(nil) hook before next's OnOpen, preserving P7.
func (e *Endpoint) Upgrade(next any) any {
	e.mu.Lock()
	old := e.conn
	e.conn = next
	e.readCB = nil
	e.readState = readIdle
	e.mu.Unlock()
	return old
}

// FillInterested declares interest in "readable" (spec §4.3). Fails
// immediately if another read callback is already registered (P1).
func (e *Endpoint) FillInterested(cb api.Callback) error {
	e.mu.Lock()
	if !e.open.Load() {
		e.mu.Unlock()
		cb.Failed(api.ErrClosed)
		return api.ErrClosed
	}
	if e.readState == readInterested {
		e.mu.Unlock()
		cb.Failed(api.ErrUsage)
		return api.ErrUsage
	}
	e.readState = readInterested
	e.readCB = cb
	e.mu.Unlock()
	e.notifyInterestChanged()
	return nil
}

// onReadable is invoked by the owning ManagedSelector when the channel
// reports read readiness. It clears read interest (single-shot, spec
// §4.1) and fires the registered callback exactly once.
func (e *Endpoint) onReadable() {
	e.mu.Lock()
	if e.readState != readInterested {
		e.mu.Unlock()
		return // benign: notification arrived while IDLE
	}
	cb := e.readCB
	e.readCB = nil
	e.readState = readIdle
	e.mu.Unlock()
	e.notifyInterestChanged()
	if cb != nil {
		cb.Succeeded()
	}
}

// Fill performs one non-blocking read into buf (spec §4.3). It returns
// bytes read (>=0), or -1 if the peer closed for writing.
func (e *Endpoint) Fill(buf []byte) (int, error) {
	if !e.open.Load() {
		return 0, api.ErrClosed
	}
	n, err := e.channel.Read(buf)
	if n > 0 {
		e.lastRead.Store(time.Now().UnixNano())
	}
	if err != nil {
		return -1, fmt.Errorf("endpoint: read: %w: %v", api.ErrIO, err)
	}
	return n, nil
}

// Write performs a non-blocking gather-write of bufs (spec §4.3). Only
// one write may be outstanding at a time (P2); completion fires exactly
// once when all bytes have been transmitted, with partial progress
// absorbed internally via re-arming.
func (e *Endpoint) Write(cb api.Callback, bufs ...[]byte) error {
	e.mu.Lock()
	if !e.open.Load() {
		e.mu.Unlock()
		cb.Failed(api.ErrClosed)
		return api.ErrClosed
	}
	if e.writeState == writePending {
		e.mu.Unlock()
		cb.Failed(api.ErrUsage)
		return api.ErrUsage
	}
	e.writeState = writePending
	e.writeCB = cb
	e.writeBufs = bufs
	e.mu.Unlock()
	e.notifyInterestChanged()

	e.pumpWrite()
	return nil
}

// pumpWrite drains as much of the pending gather-write as the channel
// will currently accept, completing the write callback once every byte
// has gone out. The caller (Write, or onWritable on re-arm) holds no
// lock while this runs.
func (e *Endpoint) pumpWrite() {
	for {
		e.mu.Lock()
		if e.writeState != writePending {
			e.mu.Unlock()
			return
		}
		bufs := e.writeBufs
		e.mu.Unlock()

		for len(bufs) > 0 && len(bufs[0]) == 0 {
			bufs = bufs[1:]
		}
		if len(bufs) == 0 {
			e.finishWrite(nil)
			return
		}

		n, err := e.channel.Write(bufs[0])
		if n > 0 {
			e.lastWrite.Store(time.Now().UnixNano())
		}
		if err != nil {
			e.finishWrite(fmt.Errorf("endpoint: write: %w: %v", api.ErrIO, err))
			return
		}
		if n < len(bufs[0]) {
			bufs[0] = bufs[0][n:]
			e.mu.Lock()
			e.writeBufs = bufs
			e.mu.Unlock()
			// OS buffer is full; wait for write-readiness to resume.
			return
		}
		bufs = bufs[1:]
		e.mu.Lock()
		e.writeBufs = bufs
		e.mu.Unlock()
	}
}

// onWritable is invoked by the owning ManagedSelector when the channel
// reports write readiness, resuming a partially drained gather-write.
func (e *Endpoint) onWritable() {
	e.mu.Lock()
	pending := e.writeState == writePending
	e.mu.Unlock()
	if pending {
		e.pumpWrite()
	}
}

func (e *Endpoint) finishWrite(cause error) {
	e.mu.Lock()
	cb := e.writeCB
	e.writeCB = nil
	e.writeBufs = nil
	e.writeState = writeIdle
	e.mu.Unlock()
	e.notifyInterestChanged()
	if cb == nil {
		return
	}
	if cause != nil {
		cb.Failed(cause)
	} else {
		cb.Succeeded()
	}
}

// NeedsWriteReady reports whether the Endpoint currently needs
// write-readiness notifications, for the ManagedSelector's interest mask.
func (e *Endpoint) NeedsWriteReady() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.writeState == writePending
}

// NeedsReadReady reports whether the Endpoint currently needs
// read-readiness notifications.
func (e *Endpoint) NeedsReadReady() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.readState == readInterested
}

// ShutdownOutput records that the write side is shut down and leaves
// the read side open. Only the flag changes: Write does not consult it,
// a pending write callback is not failed, and nothing is sent to the
// peer through the Channel.
func (e *Endpoint) ShutdownOutput() error {
	e.shutdownOutput.Store(true)
	return nil
}

// Close terminates the Endpoint, failing any pending callbacks with
// api.ErrClosed. Close is idempotent.
func (e *Endpoint) Close() error {
	return e.CloseWithCause(api.ErrClosed)
}

// CloseWithCause terminates the Endpoint, failing pending callbacks with
// cause.
func (e *Endpoint) CloseWithCause(cause error) error {
	if !e.open.CompareAndSwap(true, false) {
		return nil
	}
	e.mu.Lock()
	readCB := e.readCB
	writeCB := e.writeCB
	e.readCB, e.writeCB = nil, nil
	e.readState, e.writeState = readIdle, writeIdle
	e.mu.Unlock()

	if readCB != nil {
		readCB.Failed(cause)
	}
	if writeCB != nil {
		writeCB.Failed(cause)
	}
	return e.channel.Close()
}

// TimeoutExpired fires pending read/write callbacks (if any) with a
// transient timeout failure (spec §4.3). It does not close the channel;
// the Connection decides whether to close in response.
func (e *Endpoint) TimeoutExpired() {
	e.mu.Lock()
	readCB := e.readCB
	writeCB := e.writeCB
	if readCB != nil {
		e.readCB = nil
		e.readState = readIdle
	}
	if writeCB != nil {
		e.writeCB = nil
		e.writeBufs = nil
		e.writeState = writeIdle
	}
	e.mu.Unlock()

	if readCB != nil {
		readCB.Failed(api.ErrTimeout)
	}
	if writeCB != nil {
		writeCB.Failed(api.ErrTimeout)
	}
}

// Deadline returns the time at which this Endpoint's idle timeout next
// expires, for the ManagedSelector's idle-timeout heap.
func (e *Endpoint) Deadline() time.Time {
	if e.idleTimeout <= 0 {
		return time.Time{}
	}
	last := e.lastRead.Load()
	if w := e.lastWrite.Load(); w > last {
		last = w
	}
	return time.Unix(0, last).Add(e.idleTimeout)
}

// Dispatch is called by the ManagedSelector with the readiness bits
// observed for this Endpoint's channel: readable first, then writable,
// matching spec §4.1's dispatch policy.
func (e *Endpoint) Dispatch(readable, writable bool) {
	if readable {
		e.onReadable()
	}
	if writable {
		e.onWritable()
	}
}
