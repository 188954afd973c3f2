// File: content/source.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package content

import (
	"sync"

	"github.com/flowgate/reactorcore/api"
)

// Producer is supplied by whatever layer backs a Source (an Endpoint, a
// higher protocol layer, or a test fixture). TryRead performs one
// non-blocking attempt to produce the next Chunk; it returns (nil, nil)
// when nothing is available yet.
type Producer interface {
	TryRead() (*Chunk, error)
}

// DemandArmer is optionally implemented by a Producer that needs to
// arm some underlying readiness mechanism (typically an Endpoint's
// FillInterested) each time Demand finds nothing available. Source
// calls ArmDemand with its own Notify method; the Producer is
// responsible for eventually calling it back.
type DemandArmer interface {
	ArmDemand(notify func())
}

// Source is a lazy, finite, non-restartable producer of Chunks (spec
// §3, §4.7).
type Source struct {
	producer Producer

	mu       sync.Mutex
	terminal *Chunk // sticky terminal chunk once reached (P5)
	demand   api.Callback
}

// NewSource wraps producer as a Source.
func NewSource(producer Producer) *Source {
	return &Source{producer: producer}
}

// Read performs one non-blocking read. It returns nil when no chunk is
// currently available and the caller should call Demand. Once terminal,
// every subsequent Read returns the same terminal chunk (P5).
func (s *Source) Read() (*Chunk, error) {
	s.mu.Lock()
	if s.terminal != nil {
		t := s.terminal
		s.mu.Unlock()
		return t, nil
	}
	s.mu.Unlock()

	c, err := s.producer.TryRead()
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, nil
	}
	if c.IsLast() || (c.FailureCause() != nil && c.Fatal()) {
		s.mu.Lock()
		s.terminal = c
		s.mu.Unlock()
	}
	return c, nil
}

// Demand registers a one-shot notification fired the next time content
// may be available. Calling Demand while one is already outstanding is a
// usage error (spec §4.7).
func (s *Source) Demand(cb api.Callback) error {
	s.mu.Lock()
	if s.demand != nil {
		s.mu.Unlock()
		return api.ErrUsage
	}
	if s.terminal != nil {
		s.mu.Unlock()
		cb.Succeeded()
		return nil
	}
	s.demand = cb
	s.mu.Unlock()
	if armer, ok := s.producer.(DemandArmer); ok {
		armer.ArmDemand(s.Notify)
	}
	return nil
}

// Notify fires any outstanding demand callback. Call this from whatever
// drives the Producer (typically an Endpoint's fillable callback) when
// new content may be available.
func (s *Source) Notify() {
	s.mu.Lock()
	cb := s.demand
	s.demand = nil
	s.mu.Unlock()
	if cb != nil {
		cb.Succeeded()
	}
}

// Fail transitions the Source to failed-terminal; every subsequent Read
// returns a fatal failure chunk with cause. Any outstanding demand fires.
func (s *Source) Fail(cause error) {
	s.mu.Lock()
	if s.terminal == nil {
		s.terminal = Failure(cause, true)
	}
	cb := s.demand
	s.demand = nil
	s.mu.Unlock()
	if cb != nil {
		cb.Succeeded()
	}
}
