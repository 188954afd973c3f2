//go:build windows
// +build windows

// File: reactor/reactor_windows.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Windows IOCP (I/O Completion Port) reactor implementation and factory.

package reactor

import (
	"fmt"
	"sync"

	"golang.org/x/sys/windows"
)

type iocpReactor struct {
	iocp windows.Handle

	mu        sync.Mutex
	callbacks map[uintptr]FDCallback
}

// NewReactor constructs a new platform-specific EventReactor for Windows.
func NewReactor() (EventReactor, error) {
	port, err := windows.CreateIoCompletionPort(windows.InvalidHandle, 0, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("create iocp: %w", err)
	}
	return &iocpReactor{iocp: port, callbacks: make(map[uintptr]FDCallback)}, nil
}

func (r *iocpReactor) Register(fd uintptr, events FDEventType, cb FDCallback) error {
	h := windows.Handle(fd)
	if _, err := windows.CreateIoCompletionPort(h, r.iocp, fd, 0); err != nil {
		return fmt.Errorf("associate iocp: %w", err)
	}
	r.mu.Lock()
	r.callbacks[fd] = cb
	r.mu.Unlock()
	return nil
}

// Modify is a no-op under IOCP: completion notifications are driven by
// outstanding overlapped operations rather than a persistent interest
// mask, so there is nothing to update here.
func (r *iocpReactor) Modify(fd uintptr, events FDEventType) error { return nil }

func (r *iocpReactor) Unregister(fd uintptr) error {
	r.mu.Lock()
	delete(r.callbacks, fd)
	r.mu.Unlock()
	return nil
}

func (r *iocpReactor) Poll(timeoutMs int) error {
	ms := uint32(windows.INFINITE)
	if timeoutMs >= 0 {
		ms = uint32(timeoutMs)
	}

	var bytes uint32
	var key uintptr
	var overlapped *windows.Overlapped

	err := windows.GetQueuedCompletionStatus(r.iocp, &bytes, &key, &overlapped, ms)
	if err != nil {
		if err == windows.WAIT_TIMEOUT {
			return nil
		}
		return fmt.Errorf("get queued completion status: %w", err)
	}
	if overlapped == nil {
		// A Wakeup posting: key carries no fd, nothing to dispatch.
		return nil
	}

	r.mu.Lock()
	cb, ok := r.callbacks[key]
	r.mu.Unlock()
	if !ok {
		return nil
	}

	func() {
		defer func() { _ = recover() }()
		cb(key, EventRead|EventWrite)
	}()
	return nil
}

func (r *iocpReactor) Wakeup() error {
	return windows.PostQueuedCompletionStatus(r.iocp, 0, 0, nil)
}

func (r *iocpReactor) Close() error {
	return windows.CloseHandle(r.iocp)
}
