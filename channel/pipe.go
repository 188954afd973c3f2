// File: channel/pipe.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Pipe is an in-process api.Channel over net.Pipe, used by tests that
// need a real full-duplex stream without a socket. Grounded on the
// teacher's fake/transport.go in-memory double, reworked onto
// net.Pipe plus the same self-pipe readiness signal QUIC uses, since
// net.Pipe connections also have no OS fd.
package channel

import (
	"bytes"
	"net"
	"sync"
	"sync/atomic"
)

// Pipe adapts one side of a net.Pipe to api.Channel.
type Pipe struct {
	conn net.Conn
	wake *wakeFD

	mu  sync.Mutex
	buf bytes.Buffer
	err error

	open atomic.Bool
}

// NewPipe wraps conn (one end of net.Pipe), starting a background pump
// that turns its blocking Read into the non-blocking Channel contract.
func NewPipe(conn net.Conn) (*Pipe, error) {
	w, err := newWakeFD()
	if err != nil {
		return nil, err
	}
	p := &Pipe{conn: conn, wake: w}
	p.open.Store(true)
	go p.pump()
	return p, nil
}

func (p *Pipe) pump() {
	tmp := make([]byte, 32*1024)
	for {
		n, err := p.conn.Read(tmp)
		p.mu.Lock()
		if n > 0 {
			p.buf.Write(tmp[:n])
		}
		if err != nil {
			p.err = err
		}
		p.mu.Unlock()
		_ = p.wake.signal()
		if err != nil {
			return
		}
	}
}

func (p *Pipe) Read(buf []byte) (int, error) {
	p.wake.drain()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.buf.Len() == 0 {
		if p.err != nil {
			return 0, p.err
		}
		return 0, nil
	}
	return p.buf.Read(buf)
}

func (p *Pipe) Write(buf []byte) (int, error) {
	return p.conn.Write(buf)
}

func (p *Pipe) Close() error {
	if !p.open.CompareAndSwap(true, false) {
		return nil
	}
	_ = p.wake.close()
	return p.conn.Close()
}

func (p *Pipe) IsOpen() bool          { return p.open.Load() }
func (p *Pipe) LocalAddr() net.Addr   { return p.conn.LocalAddr() }
func (p *Pipe) RemoteAddr() net.Addr  { return p.conn.RemoteAddr() }
func (p *Pipe) FD() uintptr           { return p.wake.fd() }
