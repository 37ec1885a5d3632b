package crossover

import (
	"errors"
	"testing"

	"github.com/meko-audio/fircrossover/internal/taskgraph"
)

func TestNewConvolutionAcceptsSinglePartition(t *testing.T) {
	t.Parallel()

	conv, err := NewConvolution(make([]float32, 8), 8)
	if err != nil {
		t.Fatalf("NewConvolution() error = %v, want nil", err)
	}

	if conv.numBlocks != 1 {
		t.Fatalf("numBlocks = %d, want 1", conv.numBlocks)
	}

	input := taskgraph.New(func(*taskgraph.Task) {}, nil, make([]complex64, conv.blockSize))

	graph, err := conv.BuildOutputTasks(input, DefaultFanWidth)
	if err != nil {
		t.Fatalf("BuildOutputTasks() error = %v, want nil", err)
	}

	if !graph.Result.IsFinal() {
		t.Fatal("graph.Result.IsFinal() = false, want true")
	}

	if graph.Root.IsFinal() {
		t.Fatal("graph.Root.IsFinal() = true, want false")
	}
}

func TestNewConvolutionRejectsEmptyFilter(t *testing.T) {
	t.Parallel()

	_, err := NewConvolution(nil, 8)
	if !errors.Is(err, ErrConfigurationInvalid) {
		t.Fatalf("NewConvolution() error = %v, want ErrConfigurationInvalid", err)
	}
}

func TestNewConvolutionRejectsZeroBlockSize(t *testing.T) {
	t.Parallel()

	_, err := NewConvolution(make([]float32, 8), 0)
	if !errors.Is(err, ErrConfigurationInvalid) {
		t.Fatalf("NewConvolution() error = %v, want ErrConfigurationInvalid", err)
	}
}

func TestBuildOutputTasksRejectsNonPositiveFanWidth(t *testing.T) {
	t.Parallel()

	conv, err := NewConvolution(make([]float32, 9), 8)
	if err != nil {
		t.Fatalf("NewConvolution() error = %v", err)
	}

	input := taskgraph.New(func(*taskgraph.Task) {}, nil, make([]complex64, conv.blockSize))

	if _, err := conv.BuildOutputTasks(input, 0); !errors.Is(err, ErrConfigurationInvalid) {
		t.Fatalf("BuildOutputTasks(fanWidth=0) error = %v, want ErrConfigurationInvalid", err)
	}
}

// TestBuildOutputTasksResultIsSink matches §8 invariant that a
// convolution's output graph has exactly one sink task that the runner
// can treat as its final task.
func TestBuildOutputTasksResultIsSink(t *testing.T) {
	t.Parallel()

	conv, err := NewConvolution(make([]float32, 33), 8)
	if err != nil {
		t.Fatalf("NewConvolution() error = %v", err)
	}

	input := taskgraph.New(func(*taskgraph.Task) {}, nil, make([]complex64, conv.blockSize))

	graph, err := conv.BuildOutputTasks(input, DefaultFanWidth)
	if err != nil {
		t.Fatalf("BuildOutputTasks() error = %v", err)
	}

	if !graph.Result.IsFinal() {
		t.Fatal("graph.Result.IsFinal() = false, want true")
	}

	if graph.Root.IsFinal() {
		t.Fatal("graph.Root.IsFinal() = true, want false (it feeds the fan tasks)")
	}

	if len(graph.Buffer) != conv.subFilterSize {
		t.Fatalf("len(graph.Buffer) = %d, want %d", len(graph.Buffer), conv.subFilterSize)
	}
}

// TestGetDataBlockCircularIndexing matches §4.5's circular delay line: the
// logical index 0 always names the most recently pushed block regardless
// of how many blocks have rotated through.
func TestGetDataBlockCircularIndexing(t *testing.T) {
	t.Parallel()

	conv, err := NewConvolution(make([]float32, 33), 8)
	if err != nil {
		t.Fatalf("NewConvolution() error = %v", err)
	}

	for push := 0; push < conv.numBlocks+2; push++ {
		spectrum := make([]complex64, conv.blockSize)
		for i := range spectrum {
			spectrum[i] = complex(float32(push), 0)
		}

		conv.pushDataBlock(spectrum)

		got := conv.getDataBlock(0)
		if got[0] != complex(float32(push), 0) {
			t.Fatalf("push %d: getDataBlock(0)[0] = %v, want %v", push, got[0], complex(float32(push), 0))
		}

		if push > 0 {
			prev := conv.getDataBlock(1)
			if prev[0] != complex(float32(push-1), 0) {
				t.Fatalf("push %d: getDataBlock(1)[0] = %v, want %v", push, prev[0], complex(float32(push-1), 0))
			}
		}
	}
}
