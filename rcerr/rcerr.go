// File: rcerr/rcerr.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Package rcerr defines the reactor core's error taxonomy (spec §7) as
// a set of sentinel causes, each satisfying errors.Is/errors.As once
// wrapped with fmt.Errorf("...: %w", ...). Grounded on the teacher's
// api/errors.go structured-error style (a handful of named causes
// rather than one generic error type), generalized from hioload-ws's
// WebSocket-specific codes to the spec's Closed/Timeout/IOError/
// ProtocolExhaustion/UsageError taxonomy.
package rcerr

import "errors"

var (
	// Closed marks a fatal failure: the Endpoint was closed, locally or
	// by the peer.
	Closed = errors.New("endpoint closed")

	// Timeout marks a transient failure: an idle deadline elapsed with
	// no read or write progress.
	Timeout = errors.New("idle timeout")

	// IOError marks a fatal OS-level read/write error.
	IOError = errors.New("io error")

	// ProtocolExhaustion marks a fatal failure signalled by a Connection
	// when the peer sent invalid bytes.
	ProtocolExhaustion = errors.New("protocol exhaustion")

	// UsageError marks a non-recoverable programmer error: overlapping
	// reads/writes, retain/release underflow, and similar contract
	// violations.
	UsageError = errors.New("usage error")
)

// Transient reports whether cause should be treated as recoverable by a
// Content.Source reader (spec §7, item 6) rather than fatal.
func Transient(cause error) bool {
	return errors.Is(cause, Timeout)
}
