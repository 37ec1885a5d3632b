// Package registry holds the set of available complex64 block-arithmetic
// kernel implementations (multiply, multiply-add, add) and picks the
// highest-priority one supported by the running CPU.
//
// Grounded on algo-dsp's biquad kernel registry: architecture packages
// register an OpEntry from their init(), and Lookup returns the
// highest-priority entry whose SIMDLevel the caller's cpufeatures.Features
// satisfies.
package registry

import (
	"sort"
	"sync"

	"github.com/meko-audio/fircrossover/internal/kernel/cpufeatures"
)

// ComplexBlockFn applies a block operation over dst/a/b, which all have
// equal length.
type ComplexBlockFn func(dst, a, b []complex64)

// Ops is the set of block kernels one registered implementation provides.
type Ops struct {
	// Multiply computes dst = a * b elementwise.
	Multiply ComplexBlockFn
	// MultiplyAdd computes dst += a * b elementwise.
	MultiplyAdd ComplexBlockFn
	// Add computes dst = a + b elementwise.
	Add ComplexBlockFn
}

// OpEntry is one registered kernel implementation.
type OpEntry struct {
	Name      string
	SIMDLevel cpufeatures.SIMDLevel
	Priority  int
	Ops       Ops
}

// OpRegistry stores available kernel implementations and resolves the best
// one for a given feature set.
type OpRegistry struct {
	mu      sync.RWMutex
	entries []OpEntry
	sorted  bool
}

// Global is the package-wide kernel registry; architecture packages
// register into it from their init() functions.
var Global = &OpRegistry{}

// Register adds an implementation entry.
func (r *OpRegistry) Register(entry OpEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, entry)
	r.sorted = false
}

// Lookup returns the highest-priority implementation supported by
// features, or nil if no registered entry is supported (callers should
// always find at least the generic kernel, which every process registers).
func (r *OpRegistry) Lookup(features cpufeatures.Features) *OpEntry {
	r.mu.Lock()
	if !r.sorted {
		sort.SliceStable(r.entries, func(i, j int) bool {
			return r.entries[i].Priority > r.entries[j].Priority
		})
		r.sorted = true
	}
	r.mu.Unlock()

	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.entries {
		entry := &r.entries[i]
		if cpufeatures.Supports(features, entry.SIMDLevel) {
			return entry
		}
	}

	return nil
}

// ListEntries returns a copy of the registered entries, for tests.
func (r *OpRegistry) ListEntries() []OpEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]OpEntry, len(r.entries))
	copy(entries, r.entries)

	return entries
}
