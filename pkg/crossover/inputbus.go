package crossover

import (
	"fmt"

	"github.com/meko-audio/fircrossover/internal/taskgraph"
	"github.com/meko-audio/fircrossover/pkg/fftplan"
)

// InputBus is the per-bus shared forward-FFT stage: one single-channel bus
// (e.g. the left input, or a low-frequency sum) feeds every Convolution configured to read
// from it. Its Task is a predecessor shared by every such Convolution's
// output graph.
//
// Grounded on Convolution::getInputTask in convolution.h.
type InputBus struct {
	// Buffer is the host-writable window: the host copies blockSize new
	// samples into it each period, before calling
	// FirMultiChannelCrossover.UpdateInputs. It aliases the forward FFT's
	// input buffer and must not be retained past the bus's lifetime.
	Buffer []float32

	forward       *fftplan.Forward
	overlap       []float32
	subFilterSize int
	task          *taskgraph.Task
}

// NewInputBus creates an input bus sized for the given block size. The
// bus's sub-filter size equals blockSize, so its transform size is
// 2*blockSize, matching every Convolution attached to it.
func NewInputBus(blockSize int) (*InputBus, error) {
	if blockSize == 0 {
		return nil, fmt.Errorf("%w: input bus block size must be positive", ErrConfigurationInvalid)
	}

	forward, err := fftplan.NewForward(2 * blockSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigurationInvalid, err)
	}

	ib := &InputBus{
		forward:       forward,
		overlap:       make([]float32, blockSize),
		subFilterSize: blockSize,
	}
	ib.Buffer = forward.Input[blockSize:]

	ib.task = taskgraph.New(func(*taskgraph.Task) {
		n := ib.subFilterSize

		copy(forward.Input[:n], ib.overlap)
		copy(ib.overlap, forward.Input[n:])

		// forward.Run can only fail on a buffer-size mismatch, which
		// would already have surfaced during construction; the task
		// callback signature has no error return, matching the
		// original's func(Task&) callback.
		_ = forward.Run()
	}, nil, forward.Output)

	return ib, nil
}

// Task returns the bus's forward-FFT task, used as a predecessor by every
// Convolution reading from this bus.
func (ib *InputBus) Task() *taskgraph.Task {
	return ib.task
}
