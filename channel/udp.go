// File: channel/udp.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package channel

import (
	"errors"
	"net"
	"os"
	"sync/atomic"
)

// UDP adapts a connected net.UDPConn to api.Channel. Connection-less
// datagram semantics are out of scope here (spec Non-goals): UDP is
// modeled as one Channel per 5-tuple, established via net.DialUDP on
// the embedder's side before being handed to Manager.Adopt.
type UDP struct {
	conn *net.UDPConn
	fd   uintptr
	open atomic.Bool
}

// NewUDP wraps a connected net.UDPConn.
func NewUDP(conn *net.UDPConn) (*UDP, error) {
	fd, err := extractFD(conn)
	if err != nil {
		return nil, err
	}
	u := &UDP{conn: conn, fd: fd}
	u.open.Store(true)
	return u, nil
}

func (u *UDP) Read(p []byte) (int, error) {
	_ = u.conn.SetReadDeadline(immediate)
	n, err := u.conn.Read(p)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return 0, nil
		}
		return n, err
	}
	return n, nil
}

func (u *UDP) Write(p []byte) (int, error) {
	_ = u.conn.SetWriteDeadline(immediate)
	n, err := u.conn.Write(p)
	if err != nil && errors.Is(err, os.ErrDeadlineExceeded) {
		return n, nil
	}
	return n, err
}

func (u *UDP) Close() error {
	if !u.open.CompareAndSwap(true, false) {
		return nil
	}
	return u.conn.Close()
}

func (u *UDP) IsOpen() bool         { return u.open.Load() }
func (u *UDP) LocalAddr() net.Addr  { return u.conn.LocalAddr() }
func (u *UDP) RemoteAddr() net.Addr { return u.conn.RemoteAddr() }
func (u *UDP) FD() uintptr          { return u.fd }
