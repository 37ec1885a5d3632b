// Package fftplan wraps algo-fft's real-to-complex transform plans with the
// fixed input/output buffer pairs the crossover's convolution graph needs,
// mirroring the ForwardFFT/BackwardFFT RAII wrappers from fft.h (which wrap
// fftwf_plan_dft_r2c_1d/c2r_1d the same way).
//
// A size-N real signal transforms to N/2+1 complex bins and back. Forward
// is an unnormalized DFT, matching FFTW's convention; Inverse is normalized
// by algo-fft internally (1/N), unlike FFTW's c2r which is also
// unnormalized. See Forward's doc comment for how this changes Convolution
// relative to the original.
package fftplan

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// SpectrumLen returns the number of complex bins a size-N real FFT
// produces: N/2+1.
func SpectrumLen(size int) int {
	return size/2 + 1
}

// Forward computes the forward real-to-complex FFT of a fixed size. Input
// and Output are owned buffers the caller writes into and reads from
// in-place; Run performs no allocation.
type Forward struct {
	Input  []float32
	Output []complex64

	plan *algofft.PlanRealT[float32, complex64]
}

// NewForward creates a forward FFT plan and its buffers for the given
// transform size.
func NewForward(size int) (*Forward, error) {
	plan, err := algofft.NewPlanReal32(size)
	if err != nil {
		return nil, fmt.Errorf("fftplan: new forward plan size %d: %w", size, err)
	}

	return &Forward{
		Input:  make([]float32, size),
		Output: make([]complex64, SpectrumLen(size)),
		plan:   plan,
	}, nil
}

// Run transforms Input into Output.
//
// The original scales each filter-tap block by 1/fftSize before the
// forward transform, to compensate for FFTW's c2r inverse leaving the
// factor of N in place. algo-fft's Inverse normalizes by 1/N itself (see
// Backward.Run), so that compensation is not carried over here: applying
// it on top of algo-fft's own normalization would attenuate every
// convolution result by an extra factor of N. Convolution's H spectrum is
// built from raw, unscaled filter taps.
func (f *Forward) Run() error {
	return f.plan.Forward(f.Output, f.Input)
}

// Backward computes the inverse complex-to-real FFT of a fixed size.
type Backward struct {
	Input  []complex64
	Output []float32

	plan *algofft.PlanRealT[float32, complex64]
}

// NewBackward creates an inverse FFT plan and its buffers for the given
// transform size.
func NewBackward(size int) (*Backward, error) {
	plan, err := algofft.NewPlanReal32(size)
	if err != nil {
		return nil, fmt.Errorf("fftplan: new backward plan size %d: %w", size, err)
	}

	return &Backward{
		Input:  make([]complex64, SpectrumLen(size)),
		Output: make([]float32, size),
		plan:   plan,
	}, nil
}

// Run transforms Input into Output, normalized by 1/N.
func (b *Backward) Run() error {
	return b.plan.Inverse(b.Output, b.Input)
}
