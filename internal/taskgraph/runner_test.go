package taskgraph

import (
	"errors"
	"sync/atomic"
	"testing"
)

// TestRunAsyncNoSinkIsNotAnError matches the per-bus input-FFT run in
// fir_crossover.h's updateInputs(): a task set with no final task at all
// is the normal shape for that call, not a graph-shape error.
func TestRunAsyncNoSinkIsNotAnError(t *testing.T) {
	t.Parallel()

	r := NewRunner(2)
	defer r.Close()

	var ran atomic.Bool

	a := New(func(*Task) { ran.Store(true) }, nil, 0)
	// a successor outside the task set given to RunAsync, matching how
	// input jobs gain successors only once Convolution wires them in.
	New(func(*Task) {}, []*Task{a}, 0)

	if err := r.RunAsync([]*Task{a}); err != nil {
		t.Fatalf("RunAsync() error = %v, want nil", err)
	}
}

func TestRunGraphShapeRejectsNoRoots(t *testing.T) {
	t.Parallel()

	r := NewRunner(2)
	defer r.Close()

	a := New(func(*Task) {}, nil, 0)
	sink := New(func(*Task) {}, []*Task{a}, 0)

	// Passing only sink, whose single predecessor a is absent from the
	// set, leaves zero root tasks to seed the ready stack with.
	err := r.Run([]*Task{sink})
	if !errors.Is(err, ErrGraphShape) {
		t.Fatalf("Run() error = %v, want ErrGraphShape", err)
	}
}

func TestRunGraphShapeRejectsMultipleSinks(t *testing.T) {
	t.Parallel()

	r := NewRunner(2)
	defer r.Close()

	a := New(func(*Task) {}, nil, 0)
	s1 := New(func(*Task) {}, []*Task{a}, 0)
	s2 := New(func(*Task) {}, []*Task{a}, 0)

	err := r.Run([]*Task{a, s1, s2})
	if !errors.Is(err, ErrGraphShape) {
		t.Fatalf("Run() error = %v, want ErrGraphShape", err)
	}
}

// TestRunReductionGraphReplays matches §8 scenario S5: a 30->3->2->1
// reduction graph, run 10 times on the same Runner, verifying every leaf
// contributes to the sink exactly once per period.
func TestRunReductionGraphReplays(t *testing.T) {
	t.Parallel()

	const leaves = 30
	const groupA = 3
	const groupB = 2

	r := NewRunner(4)
	defer r.Close()

	var total atomic.Int64

	leafTasks := make([]*Task, leaves)
	for i := range leafTasks {
		leafTasks[i] = New(func(*Task) {
			total.Add(1)
		}, nil, 0)
	}

	perGroupA := leaves / groupA

	groupATasks := make([]*Task, groupA)
	for g := 0; g < groupA; g++ {
		deps := leafTasks[g*perGroupA : (g+1)*perGroupA]
		groupATasks[g] = New(func(*Task) {}, deps, 0)
	}

	perGroupB := (groupA + groupB - 1) / groupB

	groupBTasks := make([]*Task, 0, groupB)
	remaining := groupATasks
	for len(remaining) > 0 {
		n := perGroupB
		if n > len(remaining) {
			n = len(remaining)
		}
		chunk := remaining[:n]
		remaining = remaining[n:]
		groupBTasks = append(groupBTasks, New(func(*Task) {}, chunk, 0))
	}

	sink := New(func(*Task) {}, groupBTasks, 0)

	all := append(append(append([]*Task{}, leafTasks...), groupATasks...), groupBTasks...)
	all = append(all, sink)

	for period := 0; period < 10; period++ {
		total.Store(0)

		if err := r.Run(all); err != nil {
			t.Fatalf("period %d: Run() error = %v", period, err)
		}

		if got := total.Load(); got != leaves {
			t.Fatalf("period %d: %d leaves ran, want %d", period, got, leaves)
		}
	}
}

// TestRunSingleWorker exercises the single-worker degenerate case: every
// non-sink task executes on the one worker goroutine, and the sink still
// runs last, on the goroutine calling Run.
func TestRunSingleWorker(t *testing.T) {
	t.Parallel()

	r := NewRunner(1)
	defer r.Close()

	var ran []string

	a := New(func(*Task) { ran = append(ran, "a") }, nil, 0)
	b := New(func(*Task) { ran = append(ran, "b") }, nil, 0)
	sink := New(func(*Task) { ran = append(ran, "sink") }, []*Task{a, b}, 0)

	if err := r.Run([]*Task{a, b, sink}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(ran) != 3 || ran[2] != "sink" {
		t.Fatalf("unexpected execution order: %v", ran)
	}
}
