// File: channel/quic.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// QUIC adapts a quic-go stream to api.Channel. quic-go streams have no
// OS-level fd of their own (the connection multiplexes many streams
// over one UDP socket internally driven by quic-go's own goroutines),
// so this Channel cannot participate in the reactor's epoll/IOCP
// readiness path directly. Instead a background pump goroutine drains
// the stream's blocking Read into a buffered queue that Read below
// drains non-blockingly, and FD exists only so Manager
// bookkeeping (idle timeout, registration) still applies uniformly;
// readiness for QUIC streams is signalled by the pump posting to a
// self-pipe fd registered with the owning reactor, the same mechanism
// used for cross-thread wakeups.
package channel

import (
	"bytes"
	"net"
	"sync"
	"sync/atomic"

	"github.com/quic-go/quic-go"
)

// QUIC wraps a quic.Stream belonging to conn.
type QUIC struct {
	stream quic.Stream
	conn   quic.Connection

	mu  sync.Mutex
	buf bytes.Buffer

	wake     *wakeFD
	readErr  error
	open     atomic.Bool
}

// NewQUIC wraps stream, starting its background read pump immediately.
func NewQUIC(conn quic.Connection, stream quic.Stream) (*QUIC, error) {
	w, err := newWakeFD()
	if err != nil {
		return nil, err
	}
	q := &QUIC{stream: stream, conn: conn, wake: w}
	q.open.Store(true)
	go q.pump()
	return q, nil
}

func (q *QUIC) pump() {
	tmp := make([]byte, 32*1024)
	for {
		n, err := q.stream.Read(tmp)
		q.mu.Lock()
		if n > 0 {
			q.buf.Write(tmp[:n])
		}
		if err != nil {
			q.readErr = err
		}
		q.mu.Unlock()
		_ = q.wake.signal()
		if err != nil {
			return
		}
	}
}

// Read drains bytes already pumped from the stream; it never blocks.
func (q *QUIC) Read(p []byte) (int, error) {
	q.wake.drain()
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.buf.Len() == 0 {
		if q.readErr != nil {
			return 0, q.readErr
		}
		return 0, nil
	}
	return q.buf.Read(p)
}

// Write performs a direct blocking write to the stream. quic-go applies
// flow control per-stream; a full send window blocks this call, which
// is an accepted simplification for this Channel (see package doc).
func (q *QUIC) Write(p []byte) (int, error) {
	return q.stream.Write(p)
}

func (q *QUIC) Close() error {
	if !q.open.CompareAndSwap(true, false) {
		return nil
	}
	_ = q.wake.close()
	return q.stream.Close()
}

func (q *QUIC) IsOpen() bool { return q.open.Load() }

func (q *QUIC) LocalAddr() net.Addr  { return q.conn.LocalAddr() }
func (q *QUIC) RemoteAddr() net.Addr { return q.conn.RemoteAddr() }

// FD returns the self-pipe fd the pump signals on, registered with the
// reactor purely as a readiness proxy for this stream.
func (q *QUIC) FD() uintptr { return q.wake.fd() }
