// File: api/scheduler.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Scheduler contract for connect-timeout and other one-shot delayed work
// that is not itself an Endpoint idle timeout (those are tracked directly
// by the owning ManagedSelector).

package api

import "time"

// Scheduler abstracts delayed, cancelable task execution.
type Scheduler interface {
	// Schedule runs fn after delay elapses, unless canceled first.
	Schedule(delay time.Duration, fn func()) Cancelable
}

// Cancelable is a handle to a scheduled or in-flight operation.
type Cancelable interface {
	// Cancel attempts to abort the operation; it is a no-op if the
	// operation already ran or was already canceled.
	Cancel()
}
