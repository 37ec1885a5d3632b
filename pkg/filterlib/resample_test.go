package filterlib

import (
	"math"
	"testing"
)

func TestResampleEmptyInput(t *testing.T) {
	t.Parallel()

	r := NewResampler()

	if result := r.Resample([]float32{}, 48000, 44100); len(result) != 0 {
		t.Errorf("expected empty result, got %d samples", len(result))
	}
}

func TestResampleIdentityRatio(t *testing.T) {
	t.Parallel()

	r := NewResampler()
	input := []float32{1, 2, 3, 4, 5, 6, 7, 8}

	result := r.Resample(input, 48000, 48000)
	if len(result) != len(input) {
		t.Fatalf("expected length %d, got %d", len(input), len(result))
	}

	for i := range input {
		if result[i] != input[i] {
			t.Errorf("at index %d: expected %f, got %f", i, input[i], result[i])
		}
	}
}

func TestResampleDownsample2x(t *testing.T) {
	t.Parallel()

	r := NewResampler()
	inputLen := 1024

	input := make([]float32, inputLen)
	for i := range input {
		input[i] = float32(math.Sin(2 * math.Pi * float64(i) / float64(inputLen)))
	}

	result := r.Resample(input, 96000, 48000)

	expectedLen := CalculateOutputLength(inputLen, 96000, 48000)
	if len(result) != expectedLen {
		t.Errorf("expected length %d, got %d", expectedLen, len(result))
	}
}

func TestResampleUpsample2x(t *testing.T) {
	t.Parallel()

	r := NewResampler()
	inputLen := 512

	input := make([]float32, inputLen)
	for i := range input {
		input[i] = float32(math.Sin(2 * math.Pi * float64(i) / float64(inputLen)))
	}

	result := r.Resample(input, 44100, 88200)

	expectedLen := CalculateOutputLength(inputLen, 44100, 88200)
	if len(result) != expectedLen {
		t.Errorf("expected length %d, got %d", expectedLen, len(result))
	}
}

func TestResampleFilterSetUpdatesMetadata(t *testing.T) {
	t.Parallel()

	r := NewResampler()
	fs := NewFilterSet("Woofer", 44100, make([]float32, 512))
	fs.Metadata.Category = "Crossover"
	fs.Metadata.Tags = []string{"lowpass"}

	resampled := r.ResampleFilterSet(fs, 48000)

	if resampled.Metadata.SampleRate != 48000 {
		t.Errorf("SampleRate = %v, want 48000", resampled.Metadata.SampleRate)
	}

	wantLen := CalculateOutputLength(512, 44100, 48000)
	if resampled.Metadata.Length != wantLen {
		t.Errorf("Length = %d, want %d", resampled.Metadata.Length, wantLen)
	}

	if resampled.Metadata.Category != "Crossover" {
		t.Errorf("Category = %q, want %q", resampled.Metadata.Category, "Crossover")
	}
}

func TestNewResamplerWithQualityClamps(t *testing.T) {
	t.Parallel()

	if r := NewResamplerWithQuality(1); r.sincLobes != 4 {
		t.Errorf("sincLobes = %d, want 4 (clamped)", r.sincLobes)
	}

	if r := NewResamplerWithQuality(100); r.sincLobes != 64 {
		t.Errorf("sincLobes = %d, want 64 (clamped)", r.sincLobes)
	}
}
