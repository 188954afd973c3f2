// File: workerpool/pool.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Package workerpool implements api.Executor and api.Scheduler for
// embedders that enable config.Options.DispatchIO, moving
// OnFillable/write-completion callbacks off the selector thread.
// Grounded on the teacher's internal/concurrency/executor.go
// work-stealing pool, reworked here onto
// github.com/creachadair/taskgroup.Group's simpler goroutine-per-task
// idiom (the same one peer.go uses for its own goroutine lifecycle),
// since the spec's dispatch-io requirement needs fire-and-forget task
// submission and graceful drain, not a custom work-stealing scheduler.
package workerpool

import (
	"github.com/creachadair/taskgroup"

	"github.com/flowgate/reactorcore/api"
)

// Pool is an api.Executor backed by taskgroup.Group: every Execute call
// spawns one goroutine tracked by the group, so Close can wait for all
// outstanding callbacks to finish before the selector shuts down.
type Pool struct {
	tasks *taskgroup.Group
}

// New constructs a Pool. onError, if non-nil, is called with the
// (never expected, since tasks here don't return errors) first
// non-nil error any task produces.
func New(onError func(error)) *Pool {
	return &Pool{tasks: taskgroup.New(onError)}
}

// Execute submits task for asynchronous execution (api.Executor).
func (p *Pool) Execute(task func()) {
	p.tasks.Go(func() error {
		task()
		return nil
	})
}

// Close waits for all submitted tasks to finish. It does not stop later
// Execute calls from starting new tasks.
func (p *Pool) Close() error {
	p.tasks.Wait()
	return nil
}

var _ api.Executor = (*Pool)(nil)
