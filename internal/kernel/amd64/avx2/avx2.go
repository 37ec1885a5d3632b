//go:build amd64 && !purego

// Package avx2 registers a 4x loop-unrolled complex64 block kernel for
// AVX2-capable amd64 CPUs, selected in preference to the generic kernel.
//
// This is a pure-Go unrolled kernel, not hand-written AVX2 assembly,
// matching the same placeholder the biquad arch registry it's grounded on
// carries for its own amd64 path.
package avx2

import (
	"github.com/meko-audio/fircrossover/internal/kernel/cpufeatures"
	"github.com/meko-audio/fircrossover/internal/kernel/registry"
)

func init() {
	registry.Global.Register(registry.OpEntry{
		Name:      "avx2",
		SIMDLevel: cpufeatures.SIMDAVX2,
		Priority:  20,
		Ops: registry.Ops{
			Multiply:    multiply,
			MultiplyAdd: multiplyAdd,
			Add:         add,
		},
	})
}

// TODO: replace with explicit AVX2 asm kernels.

func multiply(dst, a, b []complex64) {
	n := len(dst)

	i := 0
	for ; i+3 < n; i += 4 {
		dst[i] = a[i] * b[i]
		dst[i+1] = a[i+1] * b[i+1]
		dst[i+2] = a[i+2] * b[i+2]
		dst[i+3] = a[i+3] * b[i+3]
	}

	for ; i < n; i++ {
		dst[i] = a[i] * b[i]
	}
}

func multiplyAdd(dst, a, b []complex64) {
	n := len(dst)

	i := 0
	for ; i+3 < n; i += 4 {
		dst[i] += a[i] * b[i]
		dst[i+1] += a[i+1] * b[i+1]
		dst[i+2] += a[i+2] * b[i+2]
		dst[i+3] += a[i+3] * b[i+3]
	}

	for ; i < n; i++ {
		dst[i] += a[i] * b[i]
	}
}

func add(dst, a, b []complex64) {
	n := len(dst)

	i := 0
	for ; i+3 < n; i += 4 {
		dst[i] = a[i] + b[i]
		dst[i+1] = a[i+1] + b[i+1]
		dst[i+2] = a[i+2] + b[i+2]
		dst[i+3] = a[i+3] + b[i+3]
	}

	for ; i < n; i++ {
		dst[i] = a[i] + b[i]
	}
}
