// Package kernel is the dispatch entry point for complex64 block
// arithmetic used by Convolution's fan, combine, and shift tasks.
// Architecture-specific implementations register themselves into
// registry.Global from init(), wired in by the init_<arch>.go files in
// this package; Select resolves the best one for the running CPU.
package kernel

import (
	"github.com/meko-audio/fircrossover/internal/kernel/cpufeatures"
	"github.com/meko-audio/fircrossover/internal/kernel/registry"
)

// Ops is the set of block kernels Convolution calls into.
type Ops = registry.Ops

// Select returns the highest-priority Ops implementation the running CPU
// supports, detected once per process. Every architecture registers at
// least the generic kernel, so Select only returns the zero Ops if no
// init_<arch>.go file for the running GOARCH was compiled in.
func Select() Ops {
	entry := registry.Global.Lookup(cpufeatures.Detect())
	if entry == nil {
		return Ops{}
	}

	return entry.Ops
}
