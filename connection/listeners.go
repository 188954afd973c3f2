// File: connection/listeners.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package connection

import (
	"sync"
	"sync/atomic"

	"github.com/flowgate/reactorcore/endpoint"
)

// OpenListener is notified synchronously when a Connection is bound and
// opened. Implementations must not block (spec §5).
type OpenListener func(ep *endpoint.Endpoint, conn Connection)

// CloseListener is notified synchronously after a Connection's OnClose
// hook has run.
type CloseListener func(ep *endpoint.Endpoint, conn Connection, cause error)

// Listeners is a global-ish registry for connection-opened/closed events,
// used for statistics and connection-limit policies (spec §4.4). A
// program typically owns one Listeners and passes it down via whatever
// context its ConnectionFactory receives; defaultListeners exists so
// this package's Open, Close and Upgrade have somewhere to fire without
// threading a registry through every call. Those three fire only
// defaultListeners.
type Listeners struct {
	mu     sync.Mutex
	opened []OpenListener
	closed []CloseListener

	openCount  atomic.Int64
	closeCount atomic.Int64
}

// NewListeners constructs an empty registry.
func NewListeners() *Listeners { return &Listeners{} }

// OnOpened subscribes fn to connection-opened events.
func (l *Listeners) OnOpened(fn OpenListener) {
	l.mu.Lock()
	l.opened = append(l.opened, fn)
	l.mu.Unlock()
}

// OnClosed subscribes fn to connection-closed events.
func (l *Listeners) OnClosed(fn CloseListener) {
	l.mu.Lock()
	l.closed = append(l.closed, fn)
	l.mu.Unlock()
}

// OpenCount and CloseCount report lock-free running totals for metrics.
func (l *Listeners) OpenCount() int64  { return l.openCount.Load() }
func (l *Listeners) CloseCount() int64 { return l.closeCount.Load() }

func (l *Listeners) fireOpened(ep *endpoint.Endpoint, conn Connection) {
	l.openCount.Add(1)
	l.mu.Lock()
	fns := append([]OpenListener(nil), l.opened...)
	l.mu.Unlock()
	for _, fn := range fns {
		func() {
			defer recoverListener("opened")
			fn(ep, conn)
		}()
	}
}

func (l *Listeners) fireClosed(ep *endpoint.Endpoint, conn Connection, cause ...error) {
	l.closeCount.Add(1)
	var c error
	if len(cause) > 0 {
		c = cause[0]
	}
	l.mu.Lock()
	fns := append([]CloseListener(nil), l.closed...)
	l.mu.Unlock()
	for _, fn := range fns {
		func() {
			defer recoverListener("closed")
			fn(ep, conn, c)
		}()
	}
}

var defaultListeners = NewListeners()

// DefaultListeners returns the package-level registry used by Open,
// Close, and Upgrade when no per-program registry is threaded through.
// Embedders that need isolated statistics should construct their own
// Listeners and call fireOpened/fireClosed-equivalent logic themselves
// via OnOpened/OnClosed subscriptions on DefaultListeners.
func DefaultListeners() *Listeners { return defaultListeners }
