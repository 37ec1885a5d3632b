// Package generic registers the portable, non-SIMD complex64 block kernels
// that back Convolution's multiply/multiply-add/add operations on any
// architecture.
package generic

import (
	"github.com/meko-audio/fircrossover/internal/kernel/cpufeatures"
	"github.com/meko-audio/fircrossover/internal/kernel/registry"
)

func init() {
	registry.Global.Register(registry.OpEntry{
		Name:      "generic",
		SIMDLevel: cpufeatures.SIMDNone,
		Priority:  0,
		Ops: registry.Ops{
			Multiply:    multiply,
			MultiplyAdd: multiplyAdd,
			Add:         add,
		},
	})
}

func multiply(dst, a, b []complex64) {
	for i := range dst {
		dst[i] = a[i] * b[i]
	}
}

func multiplyAdd(dst, a, b []complex64) {
	for i := range dst {
		dst[i] += a[i] * b[i]
	}
}

func add(dst, a, b []complex64) {
	for i := range dst {
		dst[i] = a[i] + b[i]
	}
}
