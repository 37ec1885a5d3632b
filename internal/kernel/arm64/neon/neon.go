//go:build arm64 && !purego

// Package neon registers a 2x loop-unrolled complex64 block kernel for
// NEON-capable arm64 CPUs. ARMv8 makes NEON mandatory, so this is really
// "the arm64 kernel", kept distinct from generic for symmetry with the
// amd64 path and to leave a home for an eventual assembly kernel.
package neon

import (
	"github.com/meko-audio/fircrossover/internal/kernel/cpufeatures"
	"github.com/meko-audio/fircrossover/internal/kernel/registry"
)

func init() {
	registry.Global.Register(registry.OpEntry{
		Name:      "neon",
		SIMDLevel: cpufeatures.SIMDNEON,
		Priority:  15,
		Ops: registry.Ops{
			Multiply:    multiply,
			MultiplyAdd: multiplyAdd,
			Add:         add,
		},
	})
}

func multiply(dst, a, b []complex64) {
	n := len(dst)

	i := 0
	for ; i+1 < n; i += 2 {
		dst[i] = a[i] * b[i]
		dst[i+1] = a[i+1] * b[i+1]
	}

	for ; i < n; i++ {
		dst[i] = a[i] * b[i]
	}
}

func multiplyAdd(dst, a, b []complex64) {
	n := len(dst)

	i := 0
	for ; i+1 < n; i += 2 {
		dst[i] += a[i] * b[i]
		dst[i+1] += a[i+1] * b[i+1]
	}

	for ; i < n; i++ {
		dst[i] += a[i] * b[i]
	}
}

func add(dst, a, b []complex64) {
	n := len(dst)

	i := 0
	for ; i+1 < n; i += 2 {
		dst[i] = a[i] + b[i]
		dst[i+1] = a[i+1] + b[i+1]
	}

	for ; i < n; i++ {
		dst[i] = a[i] + b[i]
	}
}
