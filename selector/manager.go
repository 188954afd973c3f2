// File: selector/manager.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Manager owns a fixed-size pool of ManagedSelectors and assigns each
// newly admitted Channel to one by round-robin (spec §4.2), giving it
// a stable selector for its whole lifetime. Grounded on the teacher's
// peer.go task-group idiom (creachadair/taskgroup.Group) for running
// and draining one goroutine per selector thread.
package selector

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/creachadair/taskgroup"

	"github.com/flowgate/reactorcore/api"
	"github.com/flowgate/reactorcore/connection"
	"github.com/flowgate/reactorcore/endpoint"
	"github.com/flowgate/reactorcore/workerpool"
)

// Manager fans admitted Channels out across a pool of ManagedSelectors,
// one readiness loop per OS thread (spec §4.1-§4.2).
type Manager struct {
	selectors []*ManagedSelector
	next      atomic.Uint64

	idleTimeout    time.Duration
	connectTimeout time.Duration
	connFactory    connection.Factory

	acceptSem chan struct{}
	executor  api.Executor
	scheduler *workerpool.Scheduler

	tasks *taskgroup.Group
}

// Options configures a Manager at construction time.
type Options struct {
	// Selectors is the size of the selector pool. Defaults to 1.
	Selectors int
	// AcceptQueue bounds how many Channels may sit in a selector's
	// action queue awaiting registration before Accept/Adopt/Connect
	// blocks the caller. A Connect holds its slot until the connect
	// completes, fails or times out. Zero/negative disables the bound.
	AcceptQueue int
	// IdleTimeout is applied to every Endpoint this Manager creates,
	// unless overridden per-call. Zero disables idle timeout scanning.
	IdleTimeout time.Duration
	// ConnectTimeout bounds how long a Connect registration may sit
	// connect-pending before its attachment's OnFailed is invoked with
	// api.ErrTimeout. Zero disables the bound.
	ConnectTimeout time.Duration
	// DispatchIO, when true, routes Endpoint dispatch (OnFillable and
	// write-completion callbacks) through a workerpool.Pool instead of
	// running it inline on each selector's loop thread (spec §5).
	DispatchIO bool
	// ConnectionFactory builds the embedder's Connection for each newly
	// admitted Channel (spec §6: "the core never constructs concrete
	// Connection types itself").
	ConnectionFactory connection.Factory
}

// NewManager constructs a Manager and starts every selector's event
// loop on its own goroutine.
func NewManager(opts Options) (*Manager, error) {
	n := opts.Selectors
	if n <= 0 {
		n = 1
	}
	if opts.ConnectionFactory == nil {
		return nil, fmt.Errorf("selector: ConnectionFactory is required")
	}

	m := &Manager{
		idleTimeout:    opts.IdleTimeout,
		connectTimeout: opts.ConnectTimeout,
		connFactory:    opts.ConnectionFactory,
		tasks:          taskgroup.New(nil),
	}
	if opts.AcceptQueue > 0 {
		m.acceptSem = make(chan struct{}, opts.AcceptQueue)
	}
	if opts.DispatchIO {
		m.executor = workerpool.New(nil)
	}
	if opts.ConnectTimeout > 0 {
		m.scheduler = workerpool.NewScheduler()
	}

	for i := 0; i < n; i++ {
		ms, err := NewManagedSelector(i, m.executor)
		if err != nil {
			m.Close()
			return nil, err
		}
		m.selectors = append(m.selectors, ms)
	}

	for _, ms := range m.selectors {
		ms := ms
		m.tasks.Go(func() error {
			ms.Run()
			return nil
		})
	}
	return m, nil
}

// pick returns the next selector by round-robin, giving every Channel a
// stable selector assignment for its lifetime once Accept, Adopt or
// Connect returns.
func (m *Manager) pick() *ManagedSelector {
	i := m.next.Add(1) - 1
	return m.selectors[i%uint64(len(m.selectors))]
}

// Accept binds a channel a listening socket just accepted to a
// selector by round-robin and builds its Endpoint and Connection
// immediately (spec §4.2 accept): the channel has already completed
// its handshake below the reactor, so there is nothing left to wait
// on. ctx is passed through to the ConnectionFactory unchanged (ALPN
// token, explicit request, ...).
func (m *Manager) Accept(ch api.Channel, ctx any) *endpoint.Endpoint {
	return m.open(ch, ctx)
}

// Adopt accepts a fully prepared channel for use, including one that
// has already exchanged bytes outside the reactor (spec §4.2 adopt).
// It is behaviorally identical to Accept; the two are kept distinct
// because the spec names them as separate operations covering distinct
// origins for the same "channel is already usable" precondition.
func (m *Manager) Adopt(ch api.Channel, ctx any) *endpoint.Endpoint {
	return m.open(ch, ctx)
}

func (m *Manager) open(ch api.Channel, ctx any) *endpoint.Endpoint {
	m.acquireAcceptSlot()
	ms := m.pick()
	ep := ms.RegisterWithDone(api.NewID(), ch, m.idleTimeout, m.releaseAcceptSlot)
	conn := m.connFactory(ep, ctx)
	connection.Open(ep, conn)
	return ep
}

func (m *Manager) acquireAcceptSlot() {
	if m.acceptSem != nil {
		m.acceptSem <- struct{}{}
	}
}

func (m *Manager) releaseAcceptSlot() {
	if m.acceptSem != nil {
		<-m.acceptSem
	}
}

// ConnectAttachment carries what Connect needs once an outbound
// connect either completes or fails (spec §4.2 connect): Context flows
// unchanged into the ConnectionFactory on success, exactly like
// Accept/Adopt's ctx argument; OnFailed, if set, is invoked instead of
// ever building an Endpoint when the connect does not succeed.
type ConnectAttachment struct {
	Context  any
	OnFailed func(error)
}

// Connect registers ch for connect-readiness on a selector chosen by
// round-robin and returns immediately; no Endpoint exists yet. Once
// the underlying connect reports completion, the selector builds the
// Endpoint and Connection and runs OnOpen on success, or invokes
// attachment.OnFailed on failure (spec §4.2 connect: "registers for
// connect-readiness; on completion builds the Endpoint and invokes the
// attachment's continuation").
func (m *Manager) Connect(ch api.Channel, attachment ConnectAttachment) {
	m.acquireAcceptSlot()
	ms := m.pick()

	var timer api.Cancelable
	var fired atomic.Bool
	complete := func(err error) {
		if !fired.CompareAndSwap(false, true) {
			return
		}
		if timer != nil {
			timer.Cancel()
		}
		m.releaseAcceptSlot()
		if err != nil {
			if attachment.OnFailed != nil {
				attachment.OnFailed(err)
			}
			return
		}
		ep := ms.Register(api.NewID(), ch, m.idleTimeout)
		conn := m.connFactory(ep, attachment.Context)
		connection.Open(ep, conn)
	}

	if m.scheduler != nil && m.connectTimeout > 0 {
		timer = m.scheduler.Schedule(m.connectTimeout, func() {
			complete(fmt.Errorf("selector: connect: %w", api.ErrTimeout))
		})
	}

	ms.RegisterConnect(ch, complete)
}

// Close stops every selector's event loop and waits for its goroutine
// to exit, closing all registered Channels in the process.
func (m *Manager) Close() error {
	for _, ms := range m.selectors {
		_ = ms.Close()
	}
	m.tasks.Wait()
	if m.executor != nil {
		_ = m.executor.Close()
	}
	if m.scheduler != nil {
		_ = m.scheduler.Close()
	}
	return nil
}
