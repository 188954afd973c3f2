// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Package reactor provides the OS readiness-selection primitive a
// ManagedSelector drives: register a raw fd/handle for read/write
// readiness, block in Poll until something is ready, dispatch callbacks,
// and support an explicit Wakeup so cross-thread registration changes
// don't wait out a long or infinite poll timeout (spec §4.1). Grounded on
// the teacher's reactor/epoll_reactor.go and reactor/reactor_windows.go,
// generalized to the common interface both now implement.
package reactor

// FDEventType is a bitmask of readiness conditions.
type FDEventType int

const (
	EventRead FDEventType = 1 << iota
	EventWrite
	EventError
)

// FDCallback is invoked with the readiness bits observed for fd.
type FDCallback func(fd uintptr, events FDEventType)

// EventReactor is the platform-neutral readiness-selection primitive.
type EventReactor interface {
	// Register starts watching fd for the given interest, invoking cb on
	// each readiness notification until Unregister is called.
	Register(fd uintptr, events FDEventType, cb FDCallback) error

	// Modify updates the interest mask for an already-registered fd.
	Modify(fd uintptr, events FDEventType) error

	// Unregister stops watching fd.
	Unregister(fd uintptr) error

	// Poll blocks up to timeoutMs (negative = forever) waiting for
	// readiness, dispatching callbacks for whatever became ready.
	Poll(timeoutMs int) error

	// Wakeup causes a blocked Poll call to return promptly, used after
	// enqueuing a registration-queue action from another goroutine.
	Wakeup() error

	// Close releases the reactor's OS resources.
	Close() error
}
