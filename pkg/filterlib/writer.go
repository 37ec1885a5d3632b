package filterlib

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/meko-audio/fircrossover/pkg/f16"
)

// Writer writes filter library files.
//
// Adapted from pkg/irformat.Writer: the chunk sequencing is identical,
// but each entry's payload is a single f16-encoded coefficient vector
// instead of an interleaved multi-channel audio sub-chunk.
type Writer struct {
	w            io.WriteSeeker
	filterCount  uint32
	filterOffset []uint64
	filterMetas  []FilterMetadata
	currentPos   uint64
}

// NewWriter creates a new Writer that writes to w. w must support seeking
// so the index can be written after the filter chunks.
func NewWriter(w io.WriteSeeker) *Writer {
	return &Writer{
		w:            w,
		filterOffset: make([]uint64, 0),
		filterMetas:  make([]FilterMetadata, 0),
	}
}

// WriteHeader writes the file header. Must be called before WriteFilter.
func (w *Writer) WriteHeader(filterCount int) error {
	w.filterCount = uint32(filterCount)

	if _, err := w.w.Write([]byte(MagicNumber)); err != nil {
		return fmt.Errorf("failed to write magic number: %w", err)
	}

	if err := binary.Write(w.w, binary.LittleEndian, CurrentVersion); err != nil {
		return fmt.Errorf("failed to write version: %w", err)
	}

	if err := binary.Write(w.w, binary.LittleEndian, w.filterCount); err != nil {
		return fmt.Errorf("failed to write filter count: %w", err)
	}

	// Placeholder for index offset; patched in Close.
	if err := binary.Write(w.w, binary.LittleEndian, uint64(0)); err != nil {
		return fmt.Errorf("failed to write index offset placeholder: %w", err)
	}

	w.currentPos = FileHeaderSize

	return nil
}

// WriteFilter writes a single filter set. Must be called after
// WriteHeader and before Close.
func (w *Writer) WriteFilter(fs *FilterSet) error {
	w.filterOffset = append(w.filterOffset, w.currentPos)
	w.filterMetas = append(w.filterMetas, fs.Metadata)

	metaData := w.buildMetadataSubChunk(&fs.Metadata)
	coeffData := w.buildCoeffsSubChunk(fs.Coefficients)

	chunkSize := uint64(len(metaData) + len(coeffData))

	if _, err := w.w.Write([]byte(ChunkTypeFilter)); err != nil {
		return fmt.Errorf("failed to write filter chunk header: %w", err)
	}

	if err := binary.Write(w.w, binary.LittleEndian, chunkSize); err != nil {
		return fmt.Errorf("failed to write filter chunk size: %w", err)
	}

	if _, err := w.w.Write(metaData); err != nil {
		return fmt.Errorf("failed to write metadata sub-chunk: %w", err)
	}

	if _, err := w.w.Write(coeffData); err != nil {
		return fmt.Errorf("failed to write coefficients sub-chunk: %w", err)
	}

	w.currentPos += ChunkHeaderSize + chunkSize

	return nil
}

// Close finalizes the file by writing the index chunk and patching the
// header's index offset.
func (w *Writer) Close() error {
	indexOffset := w.currentPos

	indexData := w.buildIndexChunk()

	if _, err := w.w.Write([]byte(ChunkTypeIndex)); err != nil {
		return fmt.Errorf("failed to write index chunk header: %w", err)
	}

	if err := binary.Write(w.w, binary.LittleEndian, uint64(len(indexData))); err != nil {
		return fmt.Errorf("failed to write index chunk size: %w", err)
	}

	if _, err := w.w.Write(indexData); err != nil {
		return fmt.Errorf("failed to write index data: %w", err)
	}

	if _, err := w.w.Seek(10, io.SeekStart); err != nil { // offset of IndexOffset field
		return fmt.Errorf("failed to seek to index offset field: %w", err)
	}

	if err := binary.Write(w.w, binary.LittleEndian, indexOffset); err != nil {
		return fmt.Errorf("failed to write index offset: %w", err)
	}

	return nil
}

func (w *Writer) buildMetadataSubChunk(meta *FilterMetadata) []byte {
	size := 8 + 4 + // sample rate + length
		2 + len(meta.Name) +
		2 + len(meta.Description) +
		2 + len(meta.Category) +
		2 // tag count

	for _, tag := range meta.Tags {
		size += 2 + len(tag)
	}

	buf := make([]byte, SubChunkHeaderSize+size)
	offset := 0

	copy(buf[offset:], ChunkTypeMeta)
	offset += 4
	binary.LittleEndian.PutUint32(buf[offset:], uint32(size))
	offset += 4

	binary.LittleEndian.PutUint64(buf[offset:], math.Float64bits(meta.SampleRate))
	offset += 8

	binary.LittleEndian.PutUint32(buf[offset:], uint32(meta.Length))
	offset += 4

	offset = putString(buf, offset, meta.Name)
	offset = putString(buf, offset, meta.Description)
	offset = putString(buf, offset, meta.Category)

	binary.LittleEndian.PutUint16(buf[offset:], uint16(len(meta.Tags)))
	offset += 2

	for _, tag := range meta.Tags {
		offset = putString(buf, offset, tag)
	}

	return buf
}

func (w *Writer) buildCoeffsSubChunk(taps []float32) []byte {
	f16Data := f16.EncodeCoefficients(taps)

	buf := make([]byte, SubChunkHeaderSize+len(f16Data))

	copy(buf, ChunkTypeCoeffs)
	binary.LittleEndian.PutUint32(buf[4:], uint32(len(f16Data)))
	copy(buf[SubChunkHeaderSize:], f16Data)

	return buf
}

func (w *Writer) buildIndexChunk() []byte {
	size := 0
	for i := range w.filterMetas {
		size += 8 + 8 + 4 + // offset + sample rate + length
			2 + len(w.filterMetas[i].Name) +
			2 + len(w.filterMetas[i].Category)
	}

	buf := make([]byte, size)
	offset := 0

	for i, meta := range w.filterMetas {
		binary.LittleEndian.PutUint64(buf[offset:], w.filterOffset[i])
		offset += 8

		binary.LittleEndian.PutUint64(buf[offset:], math.Float64bits(meta.SampleRate))
		offset += 8

		binary.LittleEndian.PutUint32(buf[offset:], uint32(meta.Length))
		offset += 4

		offset = putString(buf, offset, meta.Name)
		offset = putString(buf, offset, meta.Category)
	}

	return buf
}

func putString(buf []byte, offset int, s string) int {
	binary.LittleEndian.PutUint16(buf[offset:], uint16(len(s)))
	offset += 2
	copy(buf[offset:], s)

	return offset + len(s)
}

// WriteLibrary writes an entire library to w in one call.
func WriteLibrary(w io.WriteSeeker, lib *Library) error {
	writer := NewWriter(w)

	if err := writer.WriteHeader(len(lib.Filters)); err != nil {
		return err
	}

	for _, fs := range lib.Filters {
		if err := writer.WriteFilter(fs); err != nil {
			return err
		}
	}

	return writer.Close()
}
