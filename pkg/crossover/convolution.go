package crossover

import (
	"fmt"

	"github.com/meko-audio/fircrossover/internal/kernel"
	"github.com/meko-audio/fircrossover/internal/taskgraph"
	"github.com/meko-audio/fircrossover/pkg/fftplan"
)

// DefaultFanWidth is the number of delay-line partitions each fan task
// multiply-adds together, and the branching factor of the reduction tree
// that sums their results. It is a performance knob only: §8 requires the
// output to be independent of its value. Matches combine_blocks' default
// in the original getOutputTasks.
const DefaultFanWidth = 4

// Convolution is one channel's partitioned overlap-save FIR filter: a
// frequency-domain filter H split into fixed-size partitions, a circular
// delay line D of the same shape holding past input spectra, and the task
// graph that multiplies, sums, and inverse-transforms them once per
// period.
//
// Grounded on the Convolution class in convolution.h.
type Convolution struct {
	subFilterSize int
	blockSize     int // complex bins per partition: fftSize/2+1
	numBlocks     int

	h          []complex64 // numBlocks partitions, concatenated
	delayLine  []complex64 // numBlocks partitions, concatenated, circular
	firstBlock int

	inverseFFT *fftplan.Backward
	ops        kernel.Ops
}

// NewConvolution partitions h into fixed-size blocks of inputBlockSize
// taps each, zero-padding the final block, and pre-transforms every
// partition into H. A filter no longer than one partition (P == 1) is
// accepted per §4.5's edge case: BuildOutputTasks degenerates its graph
// to a bare combine step with no fan/tree, since there is nothing in the
// delay line to multiply-add against.
func NewConvolution(h []float32, inputBlockSize int) (*Convolution, error) {
	if inputBlockSize == 0 {
		return nil, fmt.Errorf("%w: convolution block size must be positive", ErrConfigurationInvalid)
	}

	if len(h) == 0 {
		return nil, fmt.Errorf("%w: filter must have at least one tap", ErrConfigurationInvalid)
	}

	fftSize := 2 * inputBlockSize
	blockSize := fftplan.SpectrumLen(fftSize)
	numBlocks := (len(h) + inputBlockSize - 1) / inputBlockSize

	inverseFFT, err := fftplan.NewBackward(fftSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigurationInvalid, err)
	}

	c := &Convolution{
		subFilterSize: inputBlockSize,
		blockSize:     blockSize,
		numBlocks:     numBlocks,
		h:             make([]complex64, blockSize*numBlocks),
		delayLine:     make([]complex64, blockSize*numBlocks),
		inverseFFT:    inverseFFT,
		ops:           kernel.Select(),
	}

	if err := c.transformFilter(h); err != nil {
		return nil, err
	}

	return c, nil
}

// transformFilter fills h with the forward FFT of each zero-padded
// partition of taps. Unlike the original, taps are not divided by
// fftSize: algo-fft's inverse transform already normalizes by 1/N, so
// that compensation (needed for FFTW's unnormalized c2r) would double up.
// See pkg/fftplan's Forward doc comment.
func (c *Convolution) transformFilter(h []float32) error {
	fwd, err := fftplan.NewForward(2 * c.subFilterSize)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfigurationInvalid, err)
	}

	for i := 0; i < c.numBlocks; i++ {
		start := i * c.subFilterSize

		for j := 0; j < c.subFilterSize; j++ {
			src := start + j
			if src < len(h) {
				fwd.Input[j] = h[src]
			} else {
				fwd.Input[j] = 0
			}
		}

		for j := c.subFilterSize; j < len(fwd.Input); j++ {
			fwd.Input[j] = 0
		}

		if err := fwd.Run(); err != nil {
			return fmt.Errorf("%w: transforming filter partition %d: %w", ErrConfigurationInvalid, i, err)
		}

		copy(c.h[i*c.blockSize:(i+1)*c.blockSize], fwd.Output)
	}

	return nil
}

func (c *Convolution) hBlock(index int) []complex64 {
	return c.h[index*c.blockSize : (index+1)*c.blockSize]
}

// getDataBlock returns the delay-line partition at logical index, mapped
// through firstBlock onto the physical circular storage. Between pushes,
// logical index k (1 <= k < numBlocks) holds the spectrum pushed k pushes
// ago, and index 0 holds the oldest one, which the next pushDataBlock
// overwrites with the newest spectrum before rotating it to index 1.
// Matches getDataBlock in convolution.h.
func (c *Convolution) getDataBlock(index int) []complex64 {
	i := (index - c.firstBlock) % c.numBlocks
	if i < 0 {
		i += c.numBlocks
	}

	return c.delayLine[i*c.blockSize : (i+1)*c.blockSize]
}

// pushDataBlock writes the newest input spectrum into logical slot 0 and
// rotates the circular buffer so next period's slot 0 points elsewhere.
func (c *Convolution) pushDataBlock(spectrum []complex64) {
	copy(c.getDataBlock(0), spectrum)

	c.firstBlock++
	if c.firstBlock == c.numBlocks {
		c.firstBlock = 0
	}
}

// multiplyAddBlocks computes H[index]*D[index] into result, then
// accumulates H[k]*D[k] for up to fanWidth-1 further partitions.
func (c *Convolution) multiplyAddBlocks(index int, result []complex64, fanWidth int) {
	c.ops.Multiply(result, c.hBlock(index), c.getDataBlock(index))

	maxIndex := c.numBlocks
	if index+fanWidth < maxIndex {
		maxIndex = index + fanWidth
	}

	for index++; index < maxIndex; index++ {
		c.ops.MultiplyAdd(result, c.hBlock(index), c.getDataBlock(index))
	}
}

// sumBlocks adds the artifacts of operands[1:] onto operands[0] into
// result.
func (c *Convolution) sumBlocks(result []complex64, operands []*taskgraph.Task) {
	c.ops.Add(result, taskgraph.Artifact[[]complex64](operands[0]), taskgraph.Artifact[[]complex64](operands[1]))

	for i := 2; i < len(operands); i++ {
		c.ops.Add(result, result, taskgraph.Artifact[[]complex64](operands[i]))
	}
}

// OutputGraph is the per-channel task subgraph Convolution.BuildOutputTasks
// returns: Root has no predecessors and exists purely to fan out the
// partition-multiply tasks together; Result is this subgraph's sink.
type OutputGraph struct {
	Root   *taskgraph.Task
	Result *taskgraph.Task

	// Buffer is the channel's output window: blockSize samples of time-
	// domain output, refreshed once per period after Result executes.
	Buffer []float32
}

// BuildOutputTasks builds this convolution's output task graph, reading
// the shared spectrum produced by input (an InputBus's task). fanWidth
// controls both the multiply-add grouping and the summation tree's
// branching factor; DefaultFanWidth matches the original's default.
//
// Grounded on Convolution::getOutputTasks in convolution.h.
func (c *Convolution) BuildOutputTasks(input *taskgraph.Task, fanWidth int) (*OutputGraph, error) {
	if fanWidth <= 0 {
		return nil, fmt.Errorf("%w: fan width must be positive", ErrConfigurationInvalid)
	}

	root := taskgraph.New(func(*taskgraph.Task) {}, nil, 0)

	// §4.5 edge case: P == 1 has no delay-line partitions to multiply-add
	// against, so the fan/tree/shift machinery collapses to a bare
	// combine of H[0] with the input spectrum. root is still wired in (as
	// an unused dependency of combine) purely so it keeps a successor and
	// the single-sink invariant holds when this graph is folded into the
	// crossover's background job set alongside other channels.
	if c.numBlocks == 1 {
		combine := taskgraph.New(func(t *taskgraph.Task) {
			result := taskgraph.Artifact[[]complex64](t)
			c.ops.Multiply(result, c.hBlock(0), taskgraph.Artifact[[]complex64](t.Dependencies()[0]))
		}, []*taskgraph.Task{input, root}, c.inverseFFT.Input)

		result := taskgraph.New(func(*taskgraph.Task) {
			_ = c.inverseFFT.Run()
		}, []*taskgraph.Task{combine}, 0)

		if !result.IsFinal() {
			return nil, fmt.Errorf("%w: convolution result task must be a sink", ErrGraphShapeInvalid)
		}

		return &OutputGraph{
			Root:   root,
			Result: result,
			Buffer: c.inverseFFT.Output[c.subFilterSize:],
		}, nil
	}

	deps := []*taskgraph.Task{input}

	for i := 1; i < c.numBlocks; i += fanWidth {
		index := i

		deps = append(deps, taskgraph.New(func(t *taskgraph.Task) {
			c.multiplyAddBlocks(index, taskgraph.Artifact[[]complex64](t), fanWidth)
		}, []*taskgraph.Task{root}, make([]complex64, c.blockSize)))
	}

	shift := taskgraph.New(func(t *taskgraph.Task) {
		c.pushDataBlock(taskgraph.Artifact[[]complex64](t.Dependencies()[0]))
	}, deps, 0)

	sumUpTasks := append([]*taskgraph.Task{}, deps[1:]...)

	for len(sumUpTasks) > 1 {
		groupSize := fanWidth
		if groupSize < 2 {
			groupSize = 2
		}
		if groupSize > len(sumUpTasks) {
			groupSize = len(sumUpTasks)
		}

		chunk := sumUpTasks[:groupSize]
		sumUpTasks = sumUpTasks[groupSize:]

		sumUpTasks = append(sumUpTasks, taskgraph.New(func(t *taskgraph.Task) {
			c.sumBlocks(taskgraph.Artifact[[]complex64](t), t.Dependencies())
		}, chunk, make([]complex64, c.blockSize)))
	}

	combine := taskgraph.New(func(t *taskgraph.Task) {
		result := taskgraph.Artifact[[]complex64](t)
		c.ops.Multiply(result, c.hBlock(0), taskgraph.Artifact[[]complex64](t.Dependencies()[0]))
		c.ops.Add(result, result, taskgraph.Artifact[[]complex64](t.Dependencies()[1]))
	}, []*taskgraph.Task{input, sumUpTasks[0]}, c.inverseFFT.Input)

	result := taskgraph.New(func(*taskgraph.Task) {
		_ = c.inverseFFT.Run()
	}, []*taskgraph.Task{combine, shift}, 0)

	if !result.IsFinal() {
		return nil, fmt.Errorf("%w: convolution result task must be a sink", ErrGraphShapeInvalid)
	}

	return &OutputGraph{
		Root:   root,
		Result: result,
		Buffer: c.inverseFFT.Output[c.subFilterSize:],
	}, nil
}
