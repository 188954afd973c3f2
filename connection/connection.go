// File: connection/connection.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Package connection implements the protocol-facing consumer/producer
// bound to an Endpoint (spec §4.4), its listener hooks, and the atomic
// upgrade operation. Grounded on server/run.go's handler-chain
// composition and api/events.go's OpenEvent/CloseEvent from the teacher.
package connection

import (
	"log"

	"github.com/flowgate/reactorcore/endpoint"
)

// Connection is bound to an Endpoint and receives lifecycle callbacks
// (spec §4.4). OnOpen is called after binding, before first read
// interest; implementations are expected to call
// endpoint.FillInterested(self) from OnOpen. OnFillable is invoked when
// the Endpoint reports readable and should loop via the Iterating Step
// Driver (package iterate). OnClose is invoked at most once and precedes
// resource release.
type Connection interface {
	OnOpen()
	OnFillable()
	OnClose(cause error)
}

// Factory constructs a Connection bound to ep, given an embedder-defined
// context (ALPN token, connector configuration, explicit request, ...).
// The core never constructs concrete Connection types itself (spec §6).
type Factory func(ep *endpoint.Endpoint, ctx any) Connection

// Open binds conn to ep and runs its OnOpen hook, firing the "opened"
// listener event strictly before any OnFillable (spec §5 ordering).
func Open(ep *endpoint.Endpoint, conn Connection) {
	ep.BindConnection(conn)
	defaultListeners.fireOpened(ep, conn)
	conn.OnOpen()
}

// Close runs conn's OnClose(cause) hook and fires the "closed" listener
// event, which strictly follows OnClose (spec §5).
func Close(ep *endpoint.Endpoint, conn Connection, cause error) {
	conn.OnClose(cause)
	defaultListeners.fireClosed(ep, conn, cause)
}

// Upgrade atomically swaps the Connection bound to ep: the outgoing
// Connection receives OnClose(nil), the incoming receives OnOpen, and no
// fill callback reaches the outgoing Connection after the swap (P7).
func Upgrade(ep *endpoint.Endpoint, next Connection) {
	oldAny := ep.Upgrade(next)
	if old, ok := oldAny.(Connection); ok && old != nil {
		old.OnClose(nil)
		defaultListeners.fireClosed(ep, old)
	}
	defaultListeners.fireOpened(ep, next)
	next.OnOpen()
}

// recoverListener isolates a panicking listener so it cannot affect other
// listeners or the Connection (spec §7).
func recoverListener(event string) {
	if r := recover(); r != nil {
		log.Printf("connection: listener panic during %s: %v", event, r)
	}
}
