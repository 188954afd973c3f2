// File: content/blocking.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Blocking adaptors convert callback completion into thread park/unpark.
// The explicit trade-off (spec §4.8) is a goroutine blocked per
// outstanding operation; use only at the edge of the reactor, never from
// a selector thread.

package content

import "github.com/flowgate/reactorcore/api"

// BlockingRead reads the next chunk from src, demanding and parking if
// none is immediately available.
func BlockingRead(src *Source) (*Chunk, error) {
	for {
		c, err := src.Read()
		if err != nil {
			return nil, err
		}
		if c != nil {
			return c, nil
		}
		done := make(chan struct{})
		var demandErr error
		if err := src.Demand(api.CallbackFunc{
			OnSucceeded: func() { close(done) },
			OnFailed:    func(e error) { demandErr = e; close(done) },
		}); err != nil {
			return nil, err
		}
		<-done
		if demandErr != nil {
			return nil, demandErr
		}
	}
}

// BlockingWrite writes one chunk to dst and parks until it completes.
func BlockingWrite(dst *Sink, last bool, view []byte) error {
	done := make(chan error, 1)
	dst.Write(last, view, api.CallbackFunc{
		OnSucceeded: func() { done <- nil },
		OnFailed:    func(e error) { done <- e },
	})
	return <-done
}

// BlockingCopy streams src to dst synchronously, parking the calling
// goroutine until the copy finishes or fails.
func BlockingCopy(src *Source, dst *Sink) error {
	done := make(chan error, 1)
	Copy(src, dst, api.CallbackFunc{
		OnSucceeded: func() { done <- nil },
		OnFailed:    func(e error) { done <- e },
	})
	return <-done
}
