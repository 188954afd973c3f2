// File: selector/registration.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package selector

import (
	"github.com/flowgate/reactorcore/api"
	"github.com/flowgate/reactorcore/endpoint"
	"github.com/flowgate/reactorcore/reactor"
)

// interestMask reuses reactor's readiness bitmask type for the
// ManagedSelector's own interest bookkeeping.
type interestMask = reactor.FDEventType

// registration is one Channel admitted to a ManagedSelector, pairing its
// raw fd with the Endpoint constructed for it. While a connect is
// pending (spec §4.2 connect), ep is nil and connectDone carries the
// continuation to run once the fd reports writable; doRegister later
// fills in ep once the Endpoint actually exists.
type registration struct {
	fd  uintptr
	ch  api.Channel
	ep  *endpoint.Endpoint

	connectDone func(error)

	current interestMask
	// heapIndex is maintained by container/heap via deadlineHeap.Swap;
	// -1 means "not currently in the idle-timeout heap".
	heapIndex int
}
