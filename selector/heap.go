// File: selector/heap.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Idle-timeout scan structure: a time-ordered min-heap of registrations,
// grounded on the teacher's internal/concurrency/scheduler.go taskHeap
// idiom, re-purposed here to the spec §4.1 "time-ordered structure of
// endpoints for expiry" rather than generic timer callbacks.

package selector

import "container/heap"

type deadlineHeap struct {
	items []*registration
}

func (h *deadlineHeap) Len() int { return len(h.items) }
func (h *deadlineHeap) Less(i, j int) bool {
	return h.items[i].ep.Deadline().Before(h.items[j].ep.Deadline())
}
func (h *deadlineHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].heapIndex = i
	h.items[j].heapIndex = j
}
func (h *deadlineHeap) Push(x any) {
	r := x.(*registration)
	r.heapIndex = len(h.items)
	h.items = append(h.items, r)
}
func (h *deadlineHeap) Pop() any {
	n := len(h.items)
	r := h.items[n-1]
	h.items[n-1] = nil
	h.items = h.items[:n-1]
	r.heapIndex = -1
	return r
}

type idleHeap struct {
	h deadlineHeap
}

func newIdleHeap() *idleHeap {
	return &idleHeap{}
}

func (ih *idleHeap) add(r *registration) {
	if r.ep.IdleTimeout() <= 0 {
		return
	}
	heap.Push(&ih.h, r)
}

func (ih *idleHeap) remove(r *registration) {
	if r.heapIndex < 0 || r.heapIndex >= len(ih.h.items) {
		return
	}
	heap.Remove(&ih.h, r.heapIndex)
}

func (ih *idleHeap) touch(r *registration) {
	ih.remove(r)
	ih.add(r)
}

// peek returns the registration with the earliest pending deadline, or
// nil if nothing is tracked.
func (ih *idleHeap) peek() *registration {
	if len(ih.h.items) == 0 {
		return nil
	}
	return ih.h.items[0]
}
