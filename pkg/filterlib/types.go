// Package filterlib provides reading and writing of filter library files
// (.flib): a chunk-based binary container for named crossover filter
// coefficient sets, using IEEE 754 half-precision (f16) encoding for the
// tap data.
//
// Adapted from pkg/irformat's IR-library container: the chunk layout and
// index/metadata scheme are unchanged, but each entry holds a single-
// channel coefficient vector plus category/tag metadata instead of a
// multi-channel impulse response.
package filterlib

import "errors"

// Format constants.
const (
	// MagicNumber identifies a filter library file.
	MagicNumber = "FLIB"

	// CurrentVersion is the format version implemented by this package.
	CurrentVersion uint16 = 1

	// Chunk type identifiers.
	ChunkTypeFilter = "FILT"
	ChunkTypeIndex  = "INDX"
	ChunkTypeMeta   = "META"
	ChunkTypeCoeffs = "COEF"
)

// Header sizes in bytes.
const (
	FileHeaderSize     = 18 // Magic(4) + Version(2) + FilterCount(4) + IndexOffset(8)
	ChunkHeaderSize    = 12 // ChunkID(4) + ChunkSize(8)
	SubChunkHeaderSize = 8  // ChunkID(4) + ChunkSize(4)
)

// Errors.
var (
	ErrInvalidMagic       = errors.New("filterlib: invalid magic number")
	ErrUnsupportedVersion = errors.New("filterlib: unsupported format version")
	ErrInvalidChunk       = errors.New("filterlib: invalid chunk")
	ErrCorruptedData      = errors.New("filterlib: corrupted data")
	ErrFilterNotFound     = errors.New("filterlib: filter not found")
	ErrInvalidIndex       = errors.New("filterlib: invalid filter index")
)

// Library represents a collection of named filters stored in a single
// file.
type Library struct {
	Version uint16
	Filters []*FilterSet
}

// NewLibrary creates a new empty filter library.
func NewLibrary() *Library {
	return &Library{
		Version: CurrentVersion,
		Filters: make([]*FilterSet, 0),
	}
}

// AddFilter adds a filter set to the library.
func (lib *Library) AddFilter(f *FilterSet) {
	lib.Filters = append(lib.Filters, f)
}

// FilterSet is a single named filter with metadata and its coefficient
// vector.
type FilterSet struct {
	Metadata     FilterMetadata
	Coefficients []float32
}

// NewFilterSet creates a new filter set with the given name, sample rate,
// and taps.
func NewFilterSet(name string, sampleRate float64, taps []float32) *FilterSet {
	return &FilterSet{
		Metadata: FilterMetadata{
			Name:       name,
			SampleRate: sampleRate,
			Length:     len(taps),
		},
		Coefficients: taps,
	}
}

// Duration returns the filter's duration in seconds at its stored sample
// rate.
func (f *FilterSet) Duration() float64 {
	if f.Metadata.SampleRate <= 0 {
		return 0
	}

	return float64(f.Metadata.Length) / f.Metadata.SampleRate
}

// FilterMetadata contains descriptive information about a filter set.
type FilterMetadata struct {
	Name        string   // Short name for the filter
	Description string   // Longer description
	Category    string   // Category (e.g., "Crossover", "EQ", "Tilt")
	Tags        []string // Additional tags for organization
	SampleRate  float64  // Sample rate in Hz the taps were designed for
	Length      int      // Number of taps
}

// IndexEntry contains metadata for fast filter lookup without loading
// coefficients.
type IndexEntry struct {
	Offset     uint64  // Byte offset to filter chunk from file start
	SampleRate float64 // Sample rate in Hz
	Length     int     // Number of taps
	Name       string  // Filter name
	Category   string  // Filter category
}

// Duration returns the duration of the indexed filter in seconds.
func (e *IndexEntry) Duration() float64 {
	if e.SampleRate <= 0 {
		return 0
	}

	return float64(e.Length) / e.SampleRate
}
