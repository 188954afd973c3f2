// File: content/sink.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package content

import (
	"sync"

	"github.com/flowgate/reactorcore/api"
)

// Writer is supplied by whatever layer backs a Sink (typically an
// Endpoint). Write performs one non-blocking write attempt and calls
// cb when the whole view has been transmitted.
type Writer interface {
	Write(cb api.Callback, view []byte) error
}

// Sink is a push stream of writes with a single outstanding write at a
// time and explicit terminal-write signalling (spec §4.8).
type Sink struct {
	writer Writer

	mu       sync.Mutex
	writing  bool
	closed   bool
}

// NewSink wraps writer as a Sink.
func NewSink(writer Writer) *Sink {
	return &Sink{writer: writer}
}

// Write enqueues one write. last=true marks the terminal write; any
// write attempted after a terminal write fails with api.ErrClosed.
// Attempting a second concurrent write fails the new callback, leaving
// the first write's callback to fire normally (spec §4.4 write state
// machine, mirrored here for the pull-based Sink).
func (s *Sink) Write(last bool, view []byte, cb api.Callback) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cb.Failed(api.ErrClosed)
		return
	}
	if s.writing {
		s.mu.Unlock()
		cb.Failed(api.ErrUsage)
		return
	}
	s.writing = true
	s.mu.Unlock()

	wrapped := api.CallbackFunc{
		OnSucceeded: func() {
			s.mu.Lock()
			s.writing = false
			if last {
				s.closed = true
			}
			s.mu.Unlock()
			cb.Succeeded()
		},
		OnFailed: func(cause error) {
			s.mu.Lock()
			s.writing = false
			s.mu.Unlock()
			cb.Failed(cause)
		},
	}

	if err := s.writer.Write(wrapped, view); err != nil {
		wrapped.Failed(err)
	}
}
