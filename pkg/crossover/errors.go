package crossover

import "errors"

// The four error kinds a host integrating this package needs to
// distinguish. Construction-time and runtime errors returned by this
// package wrap one of these with errors.Is-compatible context via
// fmt.Errorf's %w.
var (
	// ErrConfigurationInvalid indicates a construction-time parameter is
	// out of range or internally inconsistent: zero block size, zero
	// input channels, zero worker count, no channel filters, a channel
	// filter naming an input channel that does not exist, or a filter with
	// no taps.
	ErrConfigurationInvalid = errors.New("crossover: configuration invalid")

	// ErrFileFormatInvalid indicates a coefficient or filter-library file
	// could not be parsed.
	ErrFileFormatInvalid = errors.New("crossover: file format invalid")

	// ErrGraphShapeInvalid indicates the task graph built for a
	// convolution or the combined crossover does not have the expected
	// single-sink shape.
	ErrGraphShapeInvalid = errors.New("crossover: task graph shape invalid")

	// ErrHostContractViolation indicates the host violated the
	// construction/runtime/destruction contract, most commonly by
	// calling UpdateInputs concurrently from two goroutines.
	ErrHostContractViolation = errors.New("crossover: host contract violation")
)
