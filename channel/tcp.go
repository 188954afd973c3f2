// File: channel/tcp.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Package channel implements api.Channel over concrete transports:
// TCP, UDP, QUIC streams, and an in-process Pipe for tests. Grounded on
// the teacher's transport/netconn.go wrapper and transport/tcp's
// listener, generalized from a WebSocket-only net.Conn wrapper into the
// reactor's general-purpose, non-blocking Channel contract.
package channel

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync/atomic"
	"syscall"
	"time"
)

// immediate is a deadline already in the past, used to turn a
// net.Conn's blocking Read/Write into a single non-blocking attempt
// without bypassing the runtime's own poller registration on the fd.
var immediate = time.Unix(0, 1)

// TCP adapts a net.TCPConn (or any net.Conn backed by a real fd) to
// api.Channel.
type TCP struct {
	conn net.Conn
	fd   uintptr
	open atomic.Bool
}

// NewTCP wraps conn. conn must support SyscallConn (net.TCPConn does),
// since FD() is required to register with the reactor.
func NewTCP(conn net.Conn) (*TCP, error) {
	fd, err := extractFD(conn)
	if err != nil {
		return nil, err
	}
	t := &TCP{conn: conn, fd: fd}
	t.open.Store(true)
	return t, nil
}

// extractFD pulls the raw OS fd out of conn via syscall.Conn, the
// standard hook net.TCPConn/UDPConn expose for exactly this purpose.
func extractFD(conn net.Conn) (uintptr, error) {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return 0, fmt.Errorf("channel: %T does not support SyscallConn", conn)
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return 0, fmt.Errorf("channel: SyscallConn: %w", err)
	}
	var fd uintptr
	if err := raw.Control(func(f uintptr) { fd = f }); err != nil {
		return 0, fmt.Errorf("channel: Control: %w", err)
	}
	return fd, nil
}

// Read performs one non-blocking read attempt (spec api.Channel
// contract): an already-expired deadline makes the underlying Read
// return immediately with os.ErrDeadlineExceeded when no data is
// currently buffered, which this translates to (0, nil).
func (t *TCP) Read(p []byte) (int, error) {
	_ = t.conn.SetReadDeadline(immediate)
	n, err := t.conn.Read(p)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return 0, nil
		}
		return n, err
	}
	return n, nil
}

// Write performs one non-blocking write attempt.
func (t *TCP) Write(p []byte) (int, error) {
	_ = t.conn.SetWriteDeadline(immediate)
	n, err := t.conn.Write(p)
	if err != nil && errors.Is(err, os.ErrDeadlineExceeded) {
		return n, nil
	}
	return n, err
}

func (t *TCP) Close() error {
	if !t.open.CompareAndSwap(true, false) {
		return nil
	}
	return t.conn.Close()
}

func (t *TCP) IsOpen() bool          { return t.open.Load() }
func (t *TCP) LocalAddr() net.Addr   { return t.conn.LocalAddr() }
func (t *TCP) RemoteAddr() net.Addr  { return t.conn.RemoteAddr() }
func (t *TCP) FD() uintptr           { return t.fd }
