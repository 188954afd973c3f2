// File: content/endpoint_adapter.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// EndpointSource and EndpointSink bind the Content layer to a real
// Endpoint, the concrete Producer/Writer the rest of this package was
// built against (spec §2's "writes flow through a Content Sink backed
// by the Endpoint"). Grounded on the teacher's protocol/wsconn.go
// ReadFrame/WriteFrame pattern: read into a pool buffer, wrap it, and
// release the buffer back to the pool once the reader is done with it.
package content

import (
	"github.com/flowgate/reactorcore/api"
	"github.com/flowgate/reactorcore/bufpool"
	"github.com/flowgate/reactorcore/endpoint"
)

// EndpointSource adapts an Endpoint into a content.Source. When pool is
// non-nil (config.Options.DirectBuffers, spec §6) each Chunk's backing
// buffer is drawn from it and released back once the last reference to
// the Chunk is released (P4); a nil pool falls back to a fresh
// allocation per read, for embedders that opt out of pooling.
type EndpointSource struct {
	ep      *endpoint.Endpoint
	pool    *bufpool.Pool
	bufSize int
	src     *Source
}

// NewEndpointSource wraps ep as a Source, sizing each read buffer at
// bufSize. pool may be nil to disable pooling.
func NewEndpointSource(ep *endpoint.Endpoint, pool *bufpool.Pool, bufSize int) *EndpointSource {
	es := &EndpointSource{ep: ep, pool: pool, bufSize: bufSize}
	es.src = NewSource(es)
	return es
}

// Source returns the content.Source this adapter drives.
func (es *EndpointSource) Source() *Source { return es.src }

// TryRead performs one non-blocking Fill against the Endpoint. A
// read-side error becomes a failure Chunk, fatal unless api.Transient
// reports the cause as recoverable.
func (es *EndpointSource) TryRead() (*Chunk, error) {
	if es.pool == nil {
		buf := make([]byte, es.bufSize)
		n, err := es.ep.Fill(buf)
		if err != nil {
			return Failure(err, !api.Transient(err)), nil
		}
		if n <= 0 {
			return nil, nil
		}
		return Of(buf[:n], false, nil), nil
	}

	buf := es.pool.Get(es.bufSize)
	n, err := es.ep.Fill(buf)
	if err != nil {
		es.pool.Put(buf)
		return Failure(err, !api.Transient(err)), nil
	}
	if n <= 0 {
		es.pool.Put(buf)
		return nil, nil
	}
	release := es.pool.Releaser()
	return Of(buf[:n], false, func(b []byte) { release(buf) }), nil
}

// ArmDemand satisfies content.DemandArmer: it re-arms the Endpoint's
// read interest and calls notify from the resulting Fillable callback.
func (es *EndpointSource) ArmDemand(notify func()) {
	if err := es.ep.FillInterested(api.CallbackFunc{
		OnSucceeded: notify,
		OnFailed:    func(cause error) { es.src.Fail(cause) },
	}); err != nil {
		es.src.Fail(err)
	}
}

// EndpointSink adapts an Endpoint into the single-argument content.Writer
// contract a Sink requires; Endpoint.Write itself takes a variadic
// []byte list, a different method signature that cannot satisfy Writer
// directly.
type EndpointSink struct {
	ep *endpoint.Endpoint
}

// NewEndpointSink wraps ep as a content.Writer.
func NewEndpointSink(ep *endpoint.Endpoint) *EndpointSink {
	return &EndpointSink{ep: ep}
}

func (s *EndpointSink) Write(cb api.Callback, view []byte) error {
	return s.ep.Write(cb, view)
}

var _ Producer = (*EndpointSource)(nil)
var _ DemandArmer = (*EndpointSource)(nil)
var _ Writer = (*EndpointSink)(nil)
