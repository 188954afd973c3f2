// File: bufpool/pool.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Package bufpool implements the reference-counted buffer pool backing
// content.Chunk (spec §4.5, P4): a configurable ladder of size classes,
// each sharded per NUMA node, grounded on the teacher's
// pool/base_bufferpool.go channel-backed free list generalized here
// from a single api.Buffer type to raw []byte slices with explicit
// release callbacks.
package bufpool

import (
	"sync"
	"sync/atomic"

	"github.com/flowgate/reactorcore/affinity"
)

// defaultMinClass and defaultMaxClass bound the size-class ladder New
// builds when the caller has no preference; they mirror the spec §6
// buffer-min/buffer-max configuration range's own defaults.
const (
	defaultMinClass = 4 << 10
	defaultMaxClass = 256 << 10
)

type shard struct {
	mu   sync.Mutex
	free [][]byte
}

// Pool is a NUMA-tagged, size-classed free list of []byte buffers.
// Gets that miss the free list allocate fresh; Puts beyond the
// configured high-water mark are dropped rather than retained, so the
// Pool never grows without bound under bursty churn.
type Pool struct {
	numaNode int
	maxFree  int
	classes  []int

	shards []shard

	outstanding atomic.Int64
	hits        atomic.Int64
	misses      atomic.Int64
}

// New constructs a Pool tagged with numaNode (for embedders that also
// pin selector goroutines to NUMA nodes; the pool itself does not
// perform any affinity syscalls), with a class ladder doubling from
// defaultMinClass to defaultMaxClass. maxFree bounds each size class's
// free list; zero selects a default of 256 buffers per class.
func New(numaNode int, maxFree int) *Pool {
	return NewRange(numaNode, maxFree, defaultMinClass, defaultMaxClass)
}

// NewRange is New with an explicit size-class range, grounded on
// config.Options.BufferMin/BufferMax (spec §6): classes double from
// min to max, so a request larger than max always misses the free
// list and falls back to a fresh allocation (see Get); a request
// smaller than min is served from the smallest class.
func NewRange(numaNode, maxFree, min, max int) *Pool {
	if maxFree <= 0 {
		maxFree = 256
	}
	classes := buildClasses(min, max)
	return &Pool{
		numaNode: affinity.ClampNUMANode(numaNode),
		maxFree:  maxFree,
		classes:  classes,
		shards:   make([]shard, len(classes)),
	}
}

func buildClasses(min, max int) []int {
	if min <= 0 {
		min = defaultMinClass
	}
	if max < min {
		max = min
	}
	var classes []int
	for c := min; c < max; c *= 2 {
		classes = append(classes, c)
	}
	return append(classes, max)
}

// NUMANode reports the NUMA node this Pool is tagged with.
func (p *Pool) NUMANode() int { return p.numaNode }

func (p *Pool) classFor(size int) int {
	for i, c := range p.classes {
		if size <= c {
			return i
		}
	}
	return -1
}

// Get returns a buffer with length size, either recycled from the free
// list or freshly allocated. The returned slice's capacity may exceed
// size when drawn from a size class.
func (p *Pool) Get(size int) []byte {
	class := p.classFor(size)
	if class < 0 {
		p.misses.Add(1)
		p.outstanding.Add(1)
		return make([]byte, size)
	}

	s := &p.shards[class]
	s.mu.Lock()
	n := len(s.free)
	if n == 0 {
		s.mu.Unlock()
		p.misses.Add(1)
		p.outstanding.Add(1)
		return make([]byte, size, p.classes[class])
	}
	buf := s.free[n-1]
	s.free = s.free[:n-1]
	s.mu.Unlock()

	p.hits.Add(1)
	p.outstanding.Add(1)
	return buf[:size]
}

// Put returns buf to its size class's free list for reuse. Put is safe
// to call with a buffer this Pool did not allocate: unless its capacity
// is exactly one of the Pool's size classes it is dropped instead of
// retained, still decrementing the outstanding count so P4 ("every
// Retain is matched by exactly one Release") remains observable via
// Outstanding.
func (p *Pool) Put(buf []byte) {
	p.outstanding.Add(-1)

	class := p.classFor(cap(buf))
	if class < 0 || cap(buf) != p.classes[class] {
		return
	}
	s := &p.shards[class]
	s.mu.Lock()
	if len(s.free) < p.maxFree {
		s.free = append(s.free, buf[:0])
	}
	s.mu.Unlock()
}

// Releaser returns a release function suitable for content.Of, capturing
// this Pool so the Chunk's eventual Release call returns its backing
// buffer here.
func (p *Pool) Releaser() func([]byte) {
	return p.Put
}

// Outstanding reports the number of buffers currently checked out and
// not yet returned, for leak detection in tests (P4).
func (p *Pool) Outstanding() int64 { return p.outstanding.Load() }

// Stats is a point-in-time snapshot of pool effectiveness.
type Stats struct {
	Outstanding int64
	Hits        int64
	Misses      int64
}

// Snapshot reports current pool counters.
func (p *Pool) Snapshot() Stats {
	return Stats{
		Outstanding: p.outstanding.Load(),
		Hits:        p.hits.Load(),
		Misses:      p.misses.Load(),
	}
}
