// File: selector/managed.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// ManagedSelector is one readiness loop bound to a single OS thread
// (spec §4.1): it owns a reactor.EventReactor, an action queue through
// which every cross-thread mutation is marshaled, and an idle-timeout
// heap. Grounded on the teacher's internal/concurrency event-loop
// idiom (single goroutine draining a work queue between blocking
// selects), re-purposed here from WebSocket framing onto the
// Endpoint/Channel readiness contract the spec requires.
package selector

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/flowgate/reactorcore/affinity"
	"github.com/flowgate/reactorcore/api"
	"github.com/flowgate/reactorcore/endpoint"
	"github.com/flowgate/reactorcore/reactor"
)

// defaultIdleScanInterval bounds how long a ManagedSelector will block
// in Poll when no Endpoint carries an idle timeout, so Close and newly
// queued actions are still observed promptly.
const defaultIdleScanInterval = time.Second

// ManagedSelector runs its event loop on exactly one goroutine (Run),
// matching spec §4.1's "selector's interest mask is mutated only from
// the selector thread" invariant: every external call here only
// enqueues an action and wakes the reactor; the loop goroutine is the
// only place registrations, masks, and the idle heap are touched.
type ManagedSelector struct {
	id int

	reactor  reactor.EventReactor
	actions  *actionQueue
	idle     *idleHeap
	executor api.Executor

	mu    sync.Mutex
	regs  map[uintptr]*registration
	closed bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewManagedSelector constructs a ManagedSelector with its own reactor
// backend, identified by id for logging and round-robin assignment by
// the owning Manager. executor may be nil, in which case Endpoint
// callbacks run inline on the loop thread (spec §5's dispatch-io
// disabled default); when non-nil (config.Options.DispatchIO), every
// Dispatch call for a readable/writable Endpoint is submitted to it
// instead.
func NewManagedSelector(id int, executor api.Executor) (*ManagedSelector, error) {
	r, err := reactor.NewReactor()
	if err != nil {
		return nil, fmt.Errorf("selector %d: new reactor: %w", id, err)
	}
	return &ManagedSelector{
		id:       id,
		reactor:  r,
		actions:  newActionQueue(),
		idle:     newIdleHeap(),
		executor: executor,
		regs:     make(map[uintptr]*registration),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Register admits ch, constructing its Endpoint, and registers it with
// the reactor under whatever read/write interest the Endpoint declares
// when the registration runs; later interest changes update the mask.
// It may be called from any goroutine; the actual registration runs on
// the loop thread.
func (ms *ManagedSelector) Register(id string, ch api.Channel, idleTimeout time.Duration) *endpoint.Endpoint {
	return ms.RegisterWithDone(id, ch, idleTimeout, nil)
}

// RegisterWithDone is Register plus a callback run once the
// registration has actually left the action queue and been processed,
// letting Manager bound how many admitted-but-not-yet-dispatched
// Channels may accumulate there (config.Options.AcceptQueue, spec §6).
func (ms *ManagedSelector) RegisterWithDone(id string, ch api.Channel, idleTimeout time.Duration, done func()) *endpoint.Endpoint {
	ep := endpoint.New(id, ch, idleTimeout)
	reg := &registration{fd: ch.FD(), ch: ch, ep: ep, heapIndex: -1}
	ep.SetInterestListener(func() { ms.requestInterestUpdate(reg) })

	ms.actions.push(action{kind: actionRegister, reg: reg, done: done})
	_ = ms.reactor.Wakeup()
	return ep
}

// RegisterConnect arms ch for connect-readiness only (spec §4.2
// connect): no Endpoint is built yet. done is invoked exactly once,
// on the loop thread, once the connect either completes (err == nil,
// caller may now call Register on the same Channel) or fails.
func (ms *ManagedSelector) RegisterConnect(ch api.Channel, done func(error)) {
	reg := &registration{fd: ch.FD(), ch: ch, heapIndex: -1, connectDone: done}
	ms.actions.push(action{kind: actionRegisterConnect, reg: reg})
	_ = ms.reactor.Wakeup()
}

func (ms *ManagedSelector) requestInterestUpdate(reg *registration) {
	ms.actions.push(action{kind: actionUpdateInterest, key: reg.fd})
	_ = ms.reactor.Wakeup()
}

// Close stops the loop after the current iteration, closing every
// registered channel and failing outstanding callbacks with
// api.ErrClosed (spec §4.1 "Shutdown").
func (ms *ManagedSelector) Close() error {
	ms.mu.Lock()
	if ms.closed {
		ms.mu.Unlock()
		return nil
	}
	ms.closed = true
	ms.mu.Unlock()

	close(ms.stopCh)
	_ = ms.reactor.Wakeup()
	<-ms.doneCh
	return nil
}

// Run drives the event loop until Close is called. It must be called
// on the goroutine that owns this ManagedSelector (spec §4.1's "one
// readiness loop per OS thread").
func (ms *ManagedSelector) Run() {
	defer close(ms.doneCh)

	// Pinning the loop's OS thread to a distinct CPU keeps the reactor's
	// readiness polling and the Endpoint callbacks it drives off of the
	// Go scheduler's load-balancing, matching spec §4.1's one-selector-
	// one-thread model. Best effort: unsupported platforms just run
	// unpinned.
	runtime.LockOSThread()
	_ = affinity.SetAffinity(affinity.ClampCPU(ms.id))

	for {
		select {
		case <-ms.stopCh:
			ms.shutdown()
			return
		default:
		}

		ms.drainActions()

		timeout := ms.nextTimeoutMs()
		if err := ms.reactor.Poll(timeout); err != nil {
			continue
		}

		ms.scanIdle()
	}
}

func (ms *ManagedSelector) drainActions() {
	for _, a := range ms.actions.drain() {
		switch a.kind {
		case actionRegister:
			ms.doRegister(a.reg)
		case actionRegisterConnect:
			ms.doRegisterConnect(a.reg)
		case actionUpdateInterest:
			ms.doUpdateInterest(a.key)
		case actionClose:
			ms.doClose(a.key)
		case actionTask:
			if a.task != nil {
				ms.runTask(a.task)
			}
		}
		if a.done != nil {
			a.done()
		}
	}
}

func (ms *ManagedSelector) runTask(task func()) {
	defer func() { _ = recover() }()
	task()
}

func (ms *ManagedSelector) doRegister(reg *registration) {
	mask := computeMask(reg.ep)
	reg.current = mask
	err := ms.reactor.Register(reg.fd, mask, func(fd uintptr, events reactor.FDEventType) {
		ms.dispatch(fd, events)
	})
	if err != nil {
		reg.ep.CloseWithCause(api.ErrIO)
		return
	}
	ms.mu.Lock()
	ms.regs[reg.fd] = reg
	ms.mu.Unlock()
	ms.idle.add(reg)
}

// doRegisterConnect registers a connect-pending fd for write-readiness
// only: a non-blocking connect() reports completion (success or
// failure) as writable, per POSIX; there is no Endpoint to compute a
// mask from yet.
func (ms *ManagedSelector) doRegisterConnect(reg *registration) {
	reg.current = reactor.EventWrite
	err := ms.reactor.Register(reg.fd, reactor.EventWrite, func(fd uintptr, events reactor.FDEventType) {
		ms.dispatch(fd, events)
	})
	if err != nil {
		if reg.connectDone != nil {
			reg.connectDone(fmt.Errorf("selector: connect: register: %w", api.ErrIO))
		}
		return
	}
	ms.mu.Lock()
	ms.regs[reg.fd] = reg
	ms.mu.Unlock()
}

func (ms *ManagedSelector) doUpdateInterest(fd uintptr) {
	ms.mu.Lock()
	reg, ok := ms.regs[fd]
	ms.mu.Unlock()
	if !ok {
		return
	}
	mask := computeMask(reg.ep)
	if mask == reg.current {
		return
	}
	reg.current = mask
	_ = ms.reactor.Modify(fd, mask)
}

func (ms *ManagedSelector) doClose(fd uintptr) {
	ms.mu.Lock()
	reg, ok := ms.regs[fd]
	if ok {
		delete(ms.regs, fd)
	}
	ms.mu.Unlock()
	if !ok {
		return
	}
	ms.idle.remove(reg)
	_ = ms.reactor.Unregister(fd)
}

// dispatch runs on the reactor's own callback invocation, which this
// package guarantees only ever happens from within Poll on the loop
// thread (spec §4.1).
func (ms *ManagedSelector) dispatch(fd uintptr, events reactor.FDEventType) {
	ms.mu.Lock()
	reg, ok := ms.regs[fd]
	ms.mu.Unlock()
	if !ok {
		return
	}

	if reg.ep == nil {
		ms.completeConnect(reg, events)
		return
	}

	readable := events&reactor.EventRead != 0 || events&reactor.EventError != 0
	writable := events&reactor.EventWrite != 0

	// The Endpoint's callbacks may change its interest state
	// synchronously (e.g. re-armed FillInterested from inside its own
	// read callback); notifyInterestChanged already queues an
	// actionUpdateInterest for that case regardless of which goroutine
	// runs Dispatch, so touching the idle heap here (loop-thread only,
	// unlike Dispatch itself) is all that's left to do up front.
	ms.idle.touch(reg)

	if ms.executor != nil {
		ms.executor.Execute(func() { reg.ep.Dispatch(readable, writable) })
		return
	}
	reg.ep.Dispatch(readable, writable)
}

// completeConnect fires once a connect-pending registration's fd first
// reports writable (success) or error (failure), per POSIX non-
// blocking connect semantics. The registration is dropped either way;
// on success the caller's continuation is expected to call Register
// on the same Channel to build its Endpoint (spec §4.2 connect).
func (ms *ManagedSelector) completeConnect(reg *registration, events reactor.FDEventType) {
	ms.mu.Lock()
	delete(ms.regs, reg.fd)
	ms.mu.Unlock()
	_ = ms.reactor.Unregister(reg.fd)

	var err error
	if events&reactor.EventError != 0 {
		err = fmt.Errorf("selector: connect: %w", api.ErrIO)
	}
	if reg.connectDone != nil {
		reg.connectDone(err)
	}
}

// computeMask derives the readiness bitmask a registration currently
// needs from its Endpoint's read/write interest flags.
func computeMask(ep *endpoint.Endpoint) reactor.FDEventType {
	var mask reactor.FDEventType
	if ep.NeedsReadReady() {
		mask |= reactor.EventRead
	}
	if ep.NeedsWriteReady() {
		mask |= reactor.EventWrite
	}
	return mask
}

// nextTimeoutMs computes the Poll timeout from the earliest pending
// idle deadline, capped at defaultIdleScanInterval so the loop always
// wakes often enough to notice Close or newly queued actions even when
// no Endpoint carries an idle timeout.
func (ms *ManagedSelector) nextTimeoutMs() int {
	reg := ms.idle.peek()
	if reg == nil {
		return int(defaultIdleScanInterval / time.Millisecond)
	}
	d := time.Until(reg.ep.Deadline())
	if d <= 0 {
		return 0
	}
	if d > defaultIdleScanInterval {
		d = defaultIdleScanInterval
	}
	return int(d / time.Millisecond)
}

// scanIdle fires every registration whose deadline has passed.
// TimeoutExpired does not close the Endpoint (spec §4.3: idle timeout
// is a transient, non-closing signal), so its last-read/last-write
// timestamps are unchanged by the fire; touch below re-reads the
// (unchanged) Deadline and re-inserts it, which would busy-loop if the
// Connection does not react by closing or issuing new I/O. Embedders
// are expected to close on a delivered timeout when they have no
// further work pending.
func (ms *ManagedSelector) scanIdle() {
	now := time.Now()
	for {
		reg := ms.idle.peek()
		if reg == nil || reg.ep.Deadline().After(now) {
			return
		}
		ms.idle.remove(reg)
		reg.ep.TimeoutExpired()
		if reg.ep.IsOpen() {
			ms.idle.add(reg)
		}
	}
}

func (ms *ManagedSelector) shutdown() {
	ms.mu.Lock()
	regs := make([]*registration, 0, len(ms.regs))
	for _, reg := range ms.regs {
		regs = append(regs, reg)
	}
	ms.regs = make(map[uintptr]*registration)
	ms.mu.Unlock()

	for _, reg := range regs {
		if reg.ep == nil {
			// Connect still pending: no Endpoint exists yet.
			_ = reg.ch.Close()
			if reg.connectDone != nil {
				reg.connectDone(fmt.Errorf("selector: connect: %w", api.ErrClosed))
			}
			continue
		}
		reg.ep.CloseWithCause(api.ErrClosed)
	}
	ms.actions.drain()
	_ = ms.reactor.Close()
}
