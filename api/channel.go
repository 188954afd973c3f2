// File: api/channel.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Channel abstracts the OS-level transport the reactor multiplexes. It is
// opaque to the core beyond this capability set: register for readiness,
// read/write raw bytes, close, and report addressing. Stream channels
// (TCP, QUIC streams) and datagram channels (UDP) both satisfy it.

package api

import "net"

// Channel is a handle to a stream- or datagram-oriented transport.
type Channel interface {
	// Read performs one non-blocking read attempt into p. It returns
	// (0, nil) when no data is currently available, (n, nil) for n>0
	// bytes read, or (0, io.EOF)-compatible error on peer half-close.
	Read(p []byte) (int, error)

	// Write performs one non-blocking write attempt of p. It returns the
	// number of bytes accepted by the OS send buffer, which may be less
	// than len(p).
	Write(p []byte) (int, error)

	// Close releases the underlying OS resource. Close is idempotent.
	Close() error

	// IsOpen reports whether the channel has not yet been closed.
	IsOpen() bool

	// LocalAddr and RemoteAddr report channel endpoints, when known.
	LocalAddr() net.Addr
	RemoteAddr() net.Addr

	// FD returns the raw readiness handle (fd on Unix, internal id on
	// platforms without a numeric fd) used to register with a reactor.
	FD() uintptr
}
