package filterlib

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/meko-audio/fircrossover/pkg/f16"
)

// Reader reads filter library files.
//
// Adapted from pkg/irformat.Reader: same header/index/chunk sequencing,
// with a single f16-encoded coefficient vector in place of a multi-
// channel audio sub-chunk.
type Reader struct {
	r           io.ReadSeeker
	version     uint16
	filterCount uint32
	indexOffset uint64
	index       []IndexEntry
}

// NewReader creates a new Reader and parses the file header and index.
func NewReader(r io.ReadSeeker) (*Reader, error) {
	reader := &Reader{r: r}

	if err := reader.readHeader(); err != nil {
		return nil, err
	}

	if err := reader.readIndex(); err != nil {
		return nil, err
	}

	return reader, nil
}

func (r *Reader) readHeader() error {
	magic := make([]byte, 4)
	if _, err := io.ReadFull(r.r, magic); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptedData, err)
	}

	if string(magic) != MagicNumber {
		return ErrInvalidMagic
	}

	if err := binary.Read(r.r, binary.LittleEndian, &r.version); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptedData, err)
	}

	if r.version != CurrentVersion {
		return fmt.Errorf("%w: got version %d, expected %d", ErrUnsupportedVersion, r.version, CurrentVersion)
	}

	if err := binary.Read(r.r, binary.LittleEndian, &r.filterCount); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptedData, err)
	}

	if err := binary.Read(r.r, binary.LittleEndian, &r.indexOffset); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptedData, err)
	}

	return nil
}

func (r *Reader) readIndex() error {
	if _, err := r.r.Seek(int64(r.indexOffset), io.SeekStart); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptedData, err)
	}

	chunkID := make([]byte, 4)
	if _, err := io.ReadFull(r.r, chunkID); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptedData, err)
	}

	if string(chunkID) != ChunkTypeIndex {
		return fmt.Errorf("%w: expected index chunk, got %q", ErrInvalidChunk, string(chunkID))
	}

	var chunkSize uint64
	if err := binary.Read(r.r, binary.LittleEndian, &chunkSize); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptedData, err)
	}

	r.index = make([]IndexEntry, 0, r.filterCount)

	for range r.filterCount {
		entry, err := r.readIndexEntry()
		if err != nil {
			return err
		}

		r.index = append(r.index, entry)
	}

	return nil
}

func (r *Reader) readIndexEntry() (IndexEntry, error) {
	var entry IndexEntry

	if err := binary.Read(r.r, binary.LittleEndian, &entry.Offset); err != nil {
		return entry, fmt.Errorf("%w: %w", ErrCorruptedData, err)
	}

	var sampleRateBits uint64
	if err := binary.Read(r.r, binary.LittleEndian, &sampleRateBits); err != nil {
		return entry, fmt.Errorf("%w: %w", ErrCorruptedData, err)
	}

	entry.SampleRate = math.Float64frombits(sampleRateBits)

	var length uint32
	if err := binary.Read(r.r, binary.LittleEndian, &length); err != nil {
		return entry, fmt.Errorf("%w: %w", ErrCorruptedData, err)
	}

	entry.Length = int(length)

	name, err := r.readString()
	if err != nil {
		return entry, err
	}

	entry.Name = name

	category, err := r.readString()
	if err != nil {
		return entry, err
	}

	entry.Category = category

	return entry, nil
}

func (r *Reader) readString() (string, error) {
	var length uint16
	if err := binary.Read(r.r, binary.LittleEndian, &length); err != nil {
		return "", fmt.Errorf("%w: %w", ErrCorruptedData, err)
	}

	if length == 0 {
		return "", nil
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r.r, data); err != nil {
		return "", fmt.Errorf("%w: %w", ErrCorruptedData, err)
	}

	return string(data), nil
}

// Version returns the format version of the library.
func (r *Reader) Version() uint16 { return r.version }

// FilterCount returns the number of filters in the library.
func (r *Reader) FilterCount() int { return int(r.filterCount) }

// ListFilters returns the metadata for all filters, from the index, with
// no coefficient data loaded.
func (r *Reader) ListFilters() []IndexEntry {
	result := make([]IndexEntry, len(r.index))
	copy(result, r.index)

	return result
}

// LoadFilter loads a specific filter set by index.
func (r *Reader) LoadFilter(index int) (*FilterSet, error) {
	if index < 0 || index >= len(r.index) {
		return nil, ErrInvalidIndex
	}

	entry := r.index[index]

	if _, err := r.r.Seek(int64(entry.Offset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptedData, err)
	}

	return r.readFilterChunk()
}

// LoadFilterByName loads a filter set by name. Returns ErrFilterNotFound
// if no filter with the given name exists.
func (r *Reader) LoadFilterByName(name string) (*FilterSet, error) {
	for i, entry := range r.index {
		if entry.Name == name {
			return r.LoadFilter(i)
		}
	}

	return nil, ErrFilterNotFound
}

func (r *Reader) readFilterChunk() (*FilterSet, error) {
	chunkID := make([]byte, 4)
	if _, err := io.ReadFull(r.r, chunkID); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptedData, err)
	}

	if string(chunkID) != ChunkTypeFilter {
		return nil, fmt.Errorf("%w: expected filter chunk, got %q", ErrInvalidChunk, string(chunkID))
	}

	var chunkSize uint64
	if err := binary.Read(r.r, binary.LittleEndian, &chunkSize); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptedData, err)
	}

	fs := &FilterSet{}

	if err := r.readMetadataSubChunk(&fs.Metadata); err != nil {
		return nil, err
	}

	coeffs, err := r.readCoeffsSubChunk()
	if err != nil {
		return nil, err
	}

	fs.Coefficients = coeffs

	return fs, nil
}

func (r *Reader) readMetadataSubChunk(meta *FilterMetadata) error {
	chunkID := make([]byte, 4)
	if _, err := io.ReadFull(r.r, chunkID); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptedData, err)
	}

	if string(chunkID) != ChunkTypeMeta {
		return fmt.Errorf("%w: expected metadata sub-chunk, got %q", ErrInvalidChunk, string(chunkID))
	}

	var subChunkSize uint32
	if err := binary.Read(r.r, binary.LittleEndian, &subChunkSize); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptedData, err)
	}

	var sampleRateBits uint64
	if err := binary.Read(r.r, binary.LittleEndian, &sampleRateBits); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptedData, err)
	}

	meta.SampleRate = math.Float64frombits(sampleRateBits)

	var length uint32
	if err := binary.Read(r.r, binary.LittleEndian, &length); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptedData, err)
	}

	meta.Length = int(length)

	name, err := r.readString()
	if err != nil {
		return err
	}
	meta.Name = name

	description, err := r.readString()
	if err != nil {
		return err
	}
	meta.Description = description

	category, err := r.readString()
	if err != nil {
		return err
	}
	meta.Category = category

	var tagCount uint16
	if err := binary.Read(r.r, binary.LittleEndian, &tagCount); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptedData, err)
	}

	meta.Tags = make([]string, tagCount)
	for i := range tagCount {
		tag, err := r.readString()
		if err != nil {
			return err
		}

		meta.Tags[i] = tag
	}

	return nil
}

func (r *Reader) readCoeffsSubChunk() ([]float32, error) {
	chunkID := make([]byte, 4)
	if _, err := io.ReadFull(r.r, chunkID); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptedData, err)
	}

	if string(chunkID) != ChunkTypeCoeffs {
		return nil, fmt.Errorf("%w: expected coefficients sub-chunk, got %q", ErrInvalidChunk, string(chunkID))
	}

	var subChunkSize uint32
	if err := binary.Read(r.r, binary.LittleEndian, &subChunkSize); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptedData, err)
	}

	f16Data := make([]byte, subChunkSize)
	if _, err := io.ReadFull(r.r, f16Data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptedData, err)
	}

	return f16.DecodeCoefficients(f16Data), nil
}

// Close closes the reader. Currently a no-op, provided for interface
// consistency with Writer.
func (r *Reader) Close() error { return nil }

// ReadLibrary reads an entire library from r in one call.
func ReadLibrary(r io.ReadSeeker) (*Library, error) {
	reader, err := NewReader(r)
	if err != nil {
		return nil, err
	}

	lib := &Library{
		Version: reader.version,
		Filters: make([]*FilterSet, 0, reader.filterCount),
	}

	for i := range reader.filterCount {
		fs, err := reader.LoadFilter(int(i))
		if err != nil {
			return nil, fmt.Errorf("failed to load filter %d: %w", i, err)
		}

		lib.Filters = append(lib.Filters, fs)
	}

	return lib, nil
}
