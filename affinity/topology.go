// File: affinity/topology.go
// Author: momentics <momentics@gmail.com>
//
// Index normalization against actual hardware topology, grounded on
// the teacher's internal/normalize normalizer.go, trimmed to the two
// call sites this module has: clamping a selector id to a real CPU
// before pinning, and clamping a requested NUMA node before it tags a
// bufpool.Pool. NUMA topology itself is not queried on platforms this
// module targets; Nodes always reports the teacher's own NUMA stub
// value (pool/numa_stub.go: one node).

package affinity

import "runtime"

// Nodes reports the number of NUMA nodes visible to the allocator.
// Always 1 without NUMA-aware allocation wired in, matching the
// teacher's stub behavior on platforms without topology queries.
func Nodes() int { return 1 }

// ClampCPU normalizes requested against the number of logical CPUs
// actually available, falling back to 0 when out of range.
func ClampCPU(requested int) int {
	max := runtime.NumCPU()
	if max < 1 || requested < 0 || requested >= max {
		return 0
	}
	return requested
}

// ClampNUMANode normalizes requested against Nodes(), falling back to
// 0 when out of range.
func ClampNUMANode(requested int) int {
	max := Nodes()
	if requested < 0 || requested >= max {
		return 0
	}
	return requested
}
