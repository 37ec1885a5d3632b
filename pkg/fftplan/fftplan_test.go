package fftplan

import (
	"math"
	"testing"
)

func TestSpectrumLen(t *testing.T) {
	t.Parallel()

	cases := []struct {
		size int
		want int
	}{
		{size: 8, want: 5},
		{size: 16, want: 9},
		{size: 256, want: 129},
	}

	for _, c := range cases {
		if got := SpectrumLen(c.size); got != c.want {
			t.Errorf("SpectrumLen(%d) = %d, want %d", c.size, got, c.want)
		}
	}
}

// TestForwardBackwardRoundTrip matches §8 invariant 1 (round trip
// unity-gain): transforming a real signal forward and back reproduces it,
// confirming the forward transform carries no extra normalization.
func TestForwardBackwardRoundTrip(t *testing.T) {
	t.Parallel()

	for _, size := range []int{8, 16, 64} {
		fwd, err := NewForward(size)
		if err != nil {
			t.Fatalf("size %d: NewForward: %v", size, err)
		}

		bwd, err := NewBackward(size)
		if err != nil {
			t.Fatalf("size %d: NewBackward: %v", size, err)
		}

		for i := range fwd.Input {
			fwd.Input[i] = float32(math.Sin(2 * math.Pi * float64(i) / float64(size)))
		}

		if err := fwd.Run(); err != nil {
			t.Fatalf("size %d: Forward.Run: %v", size, err)
		}

		copy(bwd.Input, fwd.Output)

		if err := bwd.Run(); err != nil {
			t.Fatalf("size %d: Backward.Run: %v", size, err)
		}

		for i := range fwd.Input {
			got := bwd.Output[i]
			want := fwd.Input[i]

			if math.Abs(float64(got-want)) > 1e-3 {
				t.Fatalf("size %d: sample %d = %v, want %v", size, i, got, want)
			}
		}
	}
}
