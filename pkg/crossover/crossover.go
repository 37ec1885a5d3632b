// Package crossover implements a realtime multi-channel FIR crossover: N
// input buses, each forward-FFT'd once per period, feed any number of
// partitioned overlap-save convolutions whose outputs are combined under a
// single task-graph sink so one Runner drives the whole thing.
//
// Grounded on fir_crossover.h (FirMultiChannelCrossover) and
// convolution.h (Convolution), translating the fftw/std::thread host from
// _examples/original_source into Go's task graph and goroutine pool.
package crossover

import (
	"fmt"
	"sync/atomic"

	"github.com/meko-audio/fircrossover/internal/taskgraph"
)

// ChannelFilter configures one output channel: which input bus it reads
// from, and the time-domain filter taps that define it. Matches
// FirMultiChannelCrossover::ConfigType.
type ChannelFilter struct {
	InputChannel int
	Taps         []float32
}

// FirMultiChannelCrossover wires I input buses into N independently
// configured convolutions, running them all on one taskgraph.Runner.
type FirMultiChannelCrossover struct {
	runner *taskgraph.Runner

	inputBuses     []*InputBus
	inputJobs      []*taskgraph.Task
	backgroundJobs []*taskgraph.Task
	convolutions   []*Convolution
	outputBuffers  [][]float32

	// inUse enforces the host contract that UpdateInputs is never called
	// concurrently with itself (§6/§7 HostContractViolation).
	inUse atomic.Bool
}

// New builds a crossover for numInputChannels input buses and the given
// per-channel filters, running background convolution work across
// workerCount goroutines. fanWidth controls every convolution's task
// graph shape; pass DefaultFanWidth unless tuning for a specific core
// count.
func New(blockSize, numInputChannels int, channelFilters []ChannelFilter, workerCount, fanWidth int) (*FirMultiChannelCrossover, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("%w: block size must be positive", ErrConfigurationInvalid)
	}

	if numInputChannels <= 0 {
		return nil, fmt.Errorf("%w: at least one input channel is required", ErrConfigurationInvalid)
	}

	if workerCount <= 0 {
		return nil, fmt.Errorf("%w: worker count must be positive", ErrConfigurationInvalid)
	}

	if len(channelFilters) == 0 {
		return nil, fmt.Errorf("%w: at least one channel filter is required", ErrConfigurationInvalid)
	}

	inputBuses := make([]*InputBus, numInputChannels)
	inputJobs := make([]*taskgraph.Task, numInputChannels)

	for i := range inputBuses {
		bus, err := NewInputBus(blockSize)
		if err != nil {
			return nil, err
		}

		inputBuses[i] = bus
		inputJobs[i] = bus.Task()
	}

	var (
		finalDeps      []*taskgraph.Task
		backgroundJobs []*taskgraph.Task
		convolutions   []*Convolution
		outputBuffers  [][]float32
	)

	for _, cf := range channelFilters {
		if cf.InputChannel < 0 || cf.InputChannel >= numInputChannels {
			return nil, fmt.Errorf("%w: channel filter references input channel %d, have %d channels",
				ErrConfigurationInvalid, cf.InputChannel, numInputChannels)
		}

		conv, err := NewConvolution(cf.Taps, blockSize)
		if err != nil {
			return nil, err
		}

		graph, err := conv.BuildOutputTasks(inputBuses[cf.InputChannel].Task(), fanWidth)
		if err != nil {
			return nil, err
		}

		outputBuffers = append(outputBuffers, graph.Buffer)
		finalDeps = append(finalDeps, graph.Result)
		backgroundJobs = append(backgroundJobs, graph.Root, graph.Result)
		convolutions = append(convolutions, conv)
	}

	combined := taskgraph.New(func(*taskgraph.Task) {}, finalDeps, 0)
	backgroundJobs = append(backgroundJobs, combined)

	runner := taskgraph.NewRunner(workerCount)

	fc := &FirMultiChannelCrossover{
		runner:         runner,
		inputBuses:     inputBuses,
		inputJobs:      inputJobs,
		backgroundJobs: backgroundJobs,
		convolutions:   convolutions,
		outputBuffers:  outputBuffers,
	}

	// Prime the background graph, matching the original constructor's
	// runner_.run(backgroundJobs_, false): the first UpdateInputs call's
	// Run(inputJobs) then has a finalTask to wait on.
	if err := runner.RunAsync(backgroundJobs); err != nil {
		runner.Close()
		return nil, fmt.Errorf("%w: %w", ErrGraphShapeInvalid, err)
	}

	return fc, nil
}

// UpdateInputs runs one period. Its Run(inputJobs) computes the forward FFT
// of every input bus and then waits for the background convolution graph
// that the previous call (or New) started, which can only reach its sink
// once those input tasks have run (see Runner.Run's doc comment). When
// that returns, every output buffer holds this period's result. It then
// starts the next period's background work (the fan tasks, which read only
// H and the delay line) asynchronously and returns.
//
// UpdateInputs returns ErrHostContractViolation if called concurrently
// with itself.
func (f *FirMultiChannelCrossover) UpdateInputs() error {
	if !f.inUse.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: UpdateInputs called concurrently", ErrHostContractViolation)
	}
	defer f.inUse.Store(false)

	if err := f.runner.Run(f.inputJobs); err != nil {
		return err
	}

	return f.runner.RunAsync(f.backgroundJobs)
}

// GetInputBuffer returns the host-writable window for inputChannel: the
// host copies blockSize new samples into it before calling UpdateInputs.
func (f *FirMultiChannelCrossover) GetInputBuffer(inputChannel int) []float32 {
	return f.inputBuses[inputChannel].Buffer
}

// GetOutputBuffer returns outputChannel's time-domain output window,
// refreshed once per period.
func (f *FirMultiChannelCrossover) GetOutputBuffer(outputChannel int) []float32 {
	return f.outputBuffers[outputChannel]
}

// Close stops the background worker pool. A crossover must not be used
// after Close.
func (f *FirMultiChannelCrossover) Close() {
	f.runner.Close()
}
