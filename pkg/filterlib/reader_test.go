package filterlib

import (
	"errors"
	"io"
	"math"
	"testing"
)

// memFile is an in-memory io.ReadWriteSeeker, adapted from pkg/irformat's
// test fake of the same name.
type memFile struct {
	data []byte
	pos  int64
}

func newMemFile() *memFile {
	return &memFile{data: make([]byte, 0)}
}

func (m *memFile) Write(p []byte) (int, error) {
	needed := int(m.pos) + len(p)
	if needed > len(m.data) {
		grown := make([]byte, needed)
		copy(grown, m.data)
		m.data = grown
	}

	copy(m.data[m.pos:], p)
	m.pos += int64(len(p))

	return len(p), nil
}

func (m *memFile) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.data)) {
		return 0, io.EOF
	}

	n := copy(p, m.data[m.pos:])
	m.pos += int64(n)

	return n, nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	var newPos int64

	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = m.pos + offset
	case io.SeekEnd:
		newPos = int64(len(m.data)) + offset
	}

	if newPos < 0 {
		return 0, io.EOF
	}

	m.pos = newPos

	return m.pos, nil
}

func TestWriteReadSingleFilter(t *testing.T) {
	t.Parallel()

	fs := &FilterSet{
		Metadata: FilterMetadata{
			Name:        "Test Crossover",
			Description: "A test filter",
			Category:    "Crossover",
			Tags:        []string{"lowpass", "test"},
			SampleRate:  48000,
			Length:      100,
		},
		Coefficients: generateTestTaps(100),
	}

	buf := newMemFile()
	writer := NewWriter(buf)

	if err := writer.WriteHeader(1); err != nil {
		t.Fatalf("WriteHeader failed: %v", err)
	}

	if err := writer.WriteFilter(fs); err != nil {
		t.Fatalf("WriteFilter failed: %v", err)
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	buf.Seek(0, io.SeekStart)

	reader, err := NewReader(buf)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}

	if reader.FilterCount() != 1 {
		t.Errorf("FilterCount() = %d, want 1", reader.FilterCount())
	}

	loaded, err := reader.LoadFilter(0)
	if err != nil {
		t.Fatalf("LoadFilter failed: %v", err)
	}

	if loaded.Metadata.Name != fs.Metadata.Name {
		t.Errorf("name mismatch: got %q, want %q", loaded.Metadata.Name, fs.Metadata.Name)
	}

	if loaded.Metadata.Description != fs.Metadata.Description {
		t.Errorf("description mismatch: got %q, want %q", loaded.Metadata.Description, fs.Metadata.Description)
	}

	if loaded.Metadata.Category != fs.Metadata.Category {
		t.Errorf("category mismatch: got %q, want %q", loaded.Metadata.Category, fs.Metadata.Category)
	}

	if loaded.Metadata.SampleRate != fs.Metadata.SampleRate {
		t.Errorf("sample rate mismatch: got %v, want %v", loaded.Metadata.SampleRate, fs.Metadata.SampleRate)
	}

	if loaded.Metadata.Length != fs.Metadata.Length {
		t.Errorf("length mismatch: got %d, want %d", loaded.Metadata.Length, fs.Metadata.Length)
	}

	if len(loaded.Metadata.Tags) != len(fs.Metadata.Tags) {
		t.Errorf("tags count mismatch: got %d, want %d", len(loaded.Metadata.Tags), len(fs.Metadata.Tags))
	}

	verifyTaps(t, fs.Coefficients, loaded.Coefficients)
}

func TestWriteReadMultipleFilters(t *testing.T) {
	t.Parallel()

	filters := []*FilterSet{
		NewFilterSet("Tweeter", 48000, generateTestTaps(50)),
		NewFilterSet("Mid", 44100, generateTestTaps(253)),
		NewFilterSet("Woofer", 96000, generateTestTaps(1023)),
	}

	lib := NewLibrary()
	for _, fs := range filters {
		lib.AddFilter(fs)
	}

	buf := newMemFile()
	if err := WriteLibrary(buf, lib); err != nil {
		t.Fatalf("WriteLibrary failed: %v", err)
	}

	buf.Seek(0, io.SeekStart)

	loadedLib, err := ReadLibrary(buf)
	if err != nil {
		t.Fatalf("ReadLibrary failed: %v", err)
	}

	if len(loadedLib.Filters) != len(filters) {
		t.Fatalf("filter count mismatch: got %d, want %d", len(loadedLib.Filters), len(filters))
	}

	for i, fs := range filters {
		loaded := loadedLib.Filters[i]
		if loaded.Metadata.Name != fs.Metadata.Name {
			t.Errorf("filter %d name mismatch: got %q, want %q", i, loaded.Metadata.Name, fs.Metadata.Name)
		}

		verifyTaps(t, fs.Coefficients, loaded.Coefficients)
	}
}

func TestListFilters(t *testing.T) {
	t.Parallel()

	lib := NewLibrary()
	lib.AddFilter(NewFilterSet("Hall A", 48000, generateTestTaps(1000)))
	lib.AddFilter(NewFilterSet("Room B", 44100, generateTestTaps(500)))

	buf := newMemFile()
	if err := WriteLibrary(buf, lib); err != nil {
		t.Fatalf("WriteLibrary failed: %v", err)
	}

	buf.Seek(0, io.SeekStart)

	reader, err := NewReader(buf)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}

	entries := reader.ListFilters()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	if entries[0].Name != "Hall A" {
		t.Errorf("entry 0 name: got %q, want %q", entries[0].Name, "Hall A")
	}

	if entries[1].Name != "Room B" {
		t.Errorf("entry 1 name: got %q, want %q", entries[1].Name, "Room B")
	}
}

func TestLoadFilterByName(t *testing.T) {
	t.Parallel()

	lib := NewLibrary()
	lib.AddFilter(NewFilterSet("First", 48000, generateTestTaps(10)))
	lib.AddFilter(NewFilterSet("Second", 48000, generateTestTaps(20)))
	lib.AddFilter(NewFilterSet("Third", 48000, generateTestTaps(30)))

	buf := newMemFile()
	if err := WriteLibrary(buf, lib); err != nil {
		t.Fatalf("WriteLibrary failed: %v", err)
	}

	buf.Seek(0, io.SeekStart)

	reader, err := NewReader(buf)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}

	fs, err := reader.LoadFilterByName("Second")
	if err != nil {
		t.Fatalf("LoadFilterByName failed: %v", err)
	}

	if fs.Metadata.Length != 20 {
		t.Errorf("got length %d, want %d", fs.Metadata.Length, 20)
	}

	if _, err := reader.LoadFilterByName("NonExistent"); !errors.Is(err, ErrFilterNotFound) {
		t.Errorf("expected ErrFilterNotFound, got %v", err)
	}
}

func TestInvalidMagic(t *testing.T) {
	t.Parallel()

	buf := newMemFile()
	buf.Write([]byte("XXXX"))
	buf.Seek(0, io.SeekStart)

	if _, err := NewReader(buf); !errors.Is(err, ErrInvalidMagic) {
		t.Errorf("expected ErrInvalidMagic, got %v", err)
	}
}

func TestInvalidIndex(t *testing.T) {
	t.Parallel()

	lib := NewLibrary()
	lib.AddFilter(NewFilterSet("Only", 48000, generateTestTaps(10)))

	buf := newMemFile()
	if err := WriteLibrary(buf, lib); err != nil {
		t.Fatalf("WriteLibrary failed: %v", err)
	}

	buf.Seek(0, io.SeekStart)

	reader, err := NewReader(buf)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}

	if _, err := reader.LoadFilter(-1); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("expected ErrInvalidIndex for -1, got %v", err)
	}

	if _, err := reader.LoadFilter(1); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("expected ErrInvalidIndex for 1, got %v", err)
	}
}

func TestEmptyMetadataStrings(t *testing.T) {
	t.Parallel()

	fs := &FilterSet{
		Metadata: FilterMetadata{
			SampleRate: 48000,
			Length:     10,
			Tags:       []string{},
		},
		Coefficients: generateTestTaps(10),
	}

	buf := newMemFile()
	if err := WriteLibrary(buf, &Library{Version: CurrentVersion, Filters: []*FilterSet{fs}}); err != nil {
		t.Fatalf("WriteLibrary failed: %v", err)
	}

	buf.Seek(0, io.SeekStart)

	loadedLib, err := ReadLibrary(buf)
	if err != nil {
		t.Fatalf("ReadLibrary failed: %v", err)
	}

	loaded := loadedLib.Filters[0]
	if loaded.Metadata.Name != "" {
		t.Errorf("expected empty name, got %q", loaded.Metadata.Name)
	}

	if len(loaded.Metadata.Tags) != 0 {
		t.Errorf("expected empty tags, got %v", loaded.Metadata.Tags)
	}
}

func TestFilterSetDuration(t *testing.T) {
	t.Parallel()

	fs := NewFilterSet("Test", 48000, make([]float32, 96000))

	if diff := math.Abs(fs.Duration() - 2.0); diff > 1e-4 {
		t.Errorf("Duration() = %v, want 2.0", fs.Duration())
	}

	fs.Metadata.SampleRate = 0
	if fs.Duration() != 0 {
		t.Errorf("expected 0 duration for zero sample rate")
	}
}

func TestIndexEntryDuration(t *testing.T) {
	t.Parallel()

	entry := IndexEntry{SampleRate: 44100, Length: 88200}

	if diff := math.Abs(entry.Duration() - 2.0); diff > 1e-4 {
		t.Errorf("Duration() = %v, want 2.0", entry.Duration())
	}
}

func generateTestTaps(n int) []float32 {
	taps := make([]float32, n)
	for i := range n {
		t := float64(i) / float64(n)
		taps[i] = float32(math.Exp(-5*t) * math.Sin(2*math.Pi*1000*t/48000))
	}

	return taps
}

func verifyTaps(t *testing.T, original, loaded []float32) {
	t.Helper()

	if len(original) != len(loaded) {
		t.Fatalf("tap count mismatch: got %d, want %d", len(loaded), len(original))
	}

	for i := range original {
		absErr := math.Abs(float64(original[i] - loaded[i]))

		relErr := float64(0)
		if math.Abs(float64(original[i])) > 1e-6 {
			relErr = absErr / math.Abs(float64(original[i]))
		}

		if relErr > 0.01 && absErr > 1e-4 {
			t.Errorf("tap %d: got %v, want %v (relErr=%v, absErr=%v)", i, loaded[i], original[i], relErr, absErr)
		}
	}
}
