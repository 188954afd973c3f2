// File: api/errors.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Re-exports the rcerr taxonomy under the names Callback/Channel
// implementers already import from api, so the error identities stay
// single-sourced in rcerr while api keeps a self-contained embedder
// surface.

package api

import "github.com/flowgate/reactorcore/rcerr"

var (
	ErrClosed             = rcerr.Closed
	ErrTimeout            = rcerr.Timeout
	ErrIO                 = rcerr.IOError
	ErrProtocolExhaustion = rcerr.ProtocolExhaustion
	ErrUsage              = rcerr.UsageError
)

// Transient reports whether cause should be treated as recoverable by a
// Content.Source reader (spec §7, item 6) rather than fatal.
func Transient(cause error) bool {
	return rcerr.Transient(cause)
}
