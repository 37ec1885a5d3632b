// Package taskgraph implements the dependency-graph task abstraction
// described in §4.2/§4.3 of the crossover design: an executable Task with
// predecessors and successors, and a TaskRunner that drives a fixed DAG of
// tasks to completion once per audio period, reusing the same graph every
// time.
//
// It is a Go translation of tasks.h: Task.execute mirrors the original's
// callback-then-notify-successors-then-reset sequence, and the runner's
// worker loop mirrors threadRun's pop-or-park structure, backed by
// stacklist.Stack instead of ThreadSafeList.
package taskgraph

import (
	"sync/atomic"
	"unsafe"

	"github.com/meko-audio/fircrossover/internal/stacklist"
)

// Task is one node of the graph: a callback, its predecessors (kept so
// callbacks can read their artifacts), an atomic "predecessors remaining"
// counter, and a list of successors used purely for scheduling.
//
// A Task is not safe to re-add to a different graph topology after
// construction, but a single instance is re-executed once per period for
// the lifetime of the graph that owns it.
type Task struct {
	// node must remain the first field: the runner recovers a *Task from a
	// *stacklist.Node via an unsafe back-cast, the idiomatic Go analogue of
	// the original's ThreadSafeList::Node base class.
	node stacklist.Node

	callback     func(*Task)
	dependencies []*Task
	successors   []*Task

	remaining        atomic.Int32
	initialRemaining int32

	artifact any
}

// New creates a task with the given callback, predecessors, and initial
// artifact value. It appends the new task to each predecessor's successor
// list, mirroring Task::create in tasks.h.
//
// artifact is stored as-is and returned verbatim by Artifact[T]; T is fixed
// for the lifetime of the task, matching the "artifact type is fixed at
// task creation" invariant from §4.2/§9.
func New[T any](callback func(*Task), dependencies []*Task, artifact T) *Task {
	t := &Task{
		callback:         callback,
		dependencies:     dependencies,
		initialRemaining: int32(len(dependencies)),
		artifact:         artifact,
	}
	t.remaining.Store(t.initialRemaining)

	for _, d := range dependencies {
		d.successors = append(d.successors, t)
	}

	return t
}

// Artifact returns the task's typed artifact view. A mismatched T is a
// programming error, per §9 "Misuse is a programming error": it panics via
// the failed type assertion rather than returning an error, matching the
// original's unchecked static_cast in release builds.
func Artifact[T any](t *Task) T {
	return t.artifact.(T)
}

// Dependencies returns the task's predecessors, used by callbacks to read
// predecessor artifacts.
func (t *Task) Dependencies() []*Task {
	return t.dependencies
}

// IsFinal reports whether this task has no successors, i.e. it is the
// unique sink of its graph.
func (t *Task) IsFinal() bool {
	return len(t.successors) == 0
}

// hasNoPredecessors reports whether this task can run immediately at the
// start of a period.
func (t *Task) hasNoPredecessors() bool {
	return len(t.dependencies) == 0
}

// execute runs the callback, then decrements every successor's remaining
// count, invoking onReady for any successor whose count reaches zero.
// Finally it resets its own remaining count to its initial value so the
// graph can be replayed next period. execute is not reentrant for a single
// Task instance.
func (t *Task) execute(onReady func(*Task)) {
	t.callback(t)

	for _, succ := range t.successors {
		if succ.remaining.Add(-1) == 0 {
			onReady(succ)
		}
	}

	t.remaining.Store(t.initialRemaining)
}

// asNode returns the stacklist node embedded in t, for pushing onto the
// runner's ready stack.
func (t *Task) asNode() *stacklist.Node {
	return &t.node
}

// taskFromNode recovers the *Task that owns node. Valid because node is
// always the first field of a Task, so the addresses coincide.
func taskFromNode(node *stacklist.Node) *Task {
	return (*Task)(unsafe.Pointer(node))
}
