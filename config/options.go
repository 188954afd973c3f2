// File: config/options.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Package config holds the embedder-facing configuration surface
// (spec §6), applied via functional options. Grounded on the teacher's
// server/options.go ServerOption pattern, generalized from
// reactor-batch/affinity-scope fields to the spec's selector-pool/
// idle-timeout/buffer/connect-timeout/dispatch-io table. No other
// package of this module reads Options: the embedder copies the values
// it needs into selector.Options, or passes them to bufpool.NewRange
// and content.NewEndpointSource.
package config

import "time"

// Options holds every tunable spec.md §6 names.
type Options struct {
	// Selectors is the size of the ManagedSelector pool.
	Selectors int
	// AcceptQueue bounds how many admitted-but-not-yet-dispatched
	// Channels may queue before Manager.Accept/Adopt/Connect blocks
	// the caller.
	AcceptQueue int
	// IdleTimeout is applied to every Endpoint unless overridden.
	// Zero disables idle-timeout scanning.
	IdleTimeout time.Duration
	// BufferMin and BufferMax bound the size classes bufpool.Pool
	// serves; requests above BufferMax fall back to a fresh allocation
	// and requests below BufferMin use the smallest class (see
	// bufpool.Pool.Get).
	BufferMin int
	BufferMax int
	// DirectBuffers selects pool-backed (true) vs. per-call allocated
	// (false) Content.Chunk backing storage.
	DirectBuffers bool
	// ConnectTimeout bounds how long a Manager.Connect registration may
	// sit connect-pending before its attachment's OnFailed fires with
	// api.ErrTimeout (see workerpool.Scheduler).
	ConnectTimeout time.Duration
	// DispatchIO, when true, routes OnFillable/write-completion
	// callbacks through workerpool.Pool.Execute instead of running them
	// inline on the selector thread (spec §5).
	DispatchIO bool
}

// Option mutates an Options value under construction.
type Option func(*Options)

// Default returns the baseline Options applied before any Option
// overrides: one selector, no idle timeout, pool-backed buffers sized
// 4KiB-256KiB, inline dispatch.
func Default() Options {
	return Options{
		Selectors:     1,
		AcceptQueue:   1024,
		IdleTimeout:   0,
		BufferMin:     4 << 10,
		BufferMax:     256 << 10,
		DirectBuffers: true,
		DispatchIO:    false,
	}
}

// New builds Options starting from Default and applying opts in order.
func New(opts ...Option) Options {
	o := Default()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithSelectors sets the selector pool size.
func WithSelectors(n int) Option {
	return func(o *Options) { o.Selectors = n }
}

// WithAcceptQueue sets the accept-queue depth.
func WithAcceptQueue(n int) Option {
	return func(o *Options) { o.AcceptQueue = n }
}

// WithIdleTimeout sets the per-Endpoint idle timeout.
func WithIdleTimeout(d time.Duration) Option {
	return func(o *Options) { o.IdleTimeout = d }
}

// WithBufferRange sets the pool's size-class bounds.
func WithBufferRange(min, max int) Option {
	return func(o *Options) { o.BufferMin, o.BufferMax = min, max }
}

// WithDirectBuffers toggles pool-backed buffer allocation.
func WithDirectBuffers(direct bool) Option {
	return func(o *Options) { o.DirectBuffers = direct }
}

// WithConnectTimeout sets the dial timeout embedders should honor.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *Options) { o.ConnectTimeout = d }
}

// WithDispatchIO toggles off-selector-thread callback dispatch.
func WithDispatchIO(enabled bool) Option {
	return func(o *Options) { o.DispatchIO = enabled }
}
