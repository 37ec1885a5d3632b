package taskgraph

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/meko-audio/fircrossover/internal/stacklist"
)

// ErrGraphShape is returned by Run and RunAsync when the supplied task set
// contains more than one sink task (a task with no successors), or has no
// roots (tasks with no predecessors) to start from. A task set with no sink
// at all is accepted; see Run.
var ErrGraphShape = errors.New("taskgraph: graph must have at most one sink task and at least one root task")

// Runner drives a fixed pool of worker goroutines over a ready-stack of
// tasks, once per call to Run. It is a translation of TaskRunner from
// tasks.h: activeTasks_ is stacklist.Stack, the condition variable parks
// idle workers between epochs, and finalTaskReady_ is a one-shot semaphore
// implemented as a buffered channel.
//
// A Runner is built once for the lifetime of a graph and reused every
// period; Run does not allocate.
type Runner struct {
	mu    sync.Mutex
	cond  *sync.Cond
	ready stacklist.Stack

	epoch atomic.Uint64
	stop  atomic.Bool

	finalReady chan struct{}
	finalTask  atomic.Pointer[Task]

	wg sync.WaitGroup
}

// NewRunner starts numWorkers worker goroutines and returns a Runner ready
// to drive task graphs. numWorkers must be at least 1; callers validate
// worker_count against the host configuration before reaching this point.
func NewRunner(numWorkers int) *Runner {
	r := &Runner{
		finalReady: make(chan struct{}, 1),
	}
	r.cond = sync.NewCond(&r.mu)

	r.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go r.workerLoop()
	}

	return r
}

// Run pushes every root of tasks onto the ready stack, wakes the worker
// pool, and blocks until the graph's sink task is ready, at which point it
// executes the sink itself on the calling goroutine and returns.
//
// If tasks contains no final (sink) task at all, Run waits on whichever
// final task was last configured by an earlier Run or RunAsync call on
// this Runner instead — this is not an error. fir_crossover.h relies on
// exactly this: updateInputs() runs the per-bus input-FFT tasks (which
// have successors in the background convolution graph and so are never
// final themselves) through Run. That background graph was started by the
// previous RunAsync call and cannot reach its sink until the input tasks
// run, so Run returns only once the whole graph has finished with this
// call's input. See DESIGN.md.
//
// Run is not safe to call concurrently with itself or RunAsync on the
// same Runner: the host contract (§6) requires serialized periods.
func (r *Runner) Run(tasks []*Task) error {
	return r.run(tasks, true)
}

// RunAsync pushes every root of tasks onto the ready stack and wakes the
// worker pool, returning immediately without waiting for completion. If
// tasks contains exactly one final task, that task becomes the one a
// later Run call on this Runner will wait for.
func (r *Runner) RunAsync(tasks []*Task) error {
	return r.run(tasks, false)
}

func (r *Runner) run(tasks []*Task, wait bool) error {
	var final *Task

	foundFinal := false
	roots := 0

	for _, t := range tasks {
		if t.IsFinal() {
			if foundFinal {
				return ErrGraphShape
			}
			final = t
			foundFinal = true
		}

		if t.hasNoPredecessors() {
			roots++
		}
	}

	if roots == 0 {
		return ErrGraphShape
	}

	if foundFinal {
		r.finalTask.Store(final)
	}

	for _, t := range tasks {
		if t.hasNoPredecessors() {
			r.ready.Push(t.asNode())
		}
	}

	r.restartWorkers()

	if !wait {
		return nil
	}

	f := r.finalTask.Load()
	if f == nil {
		return nil
	}

	<-r.finalReady

	f.execute(func(*Task) {})

	return nil
}

// Close stops all worker goroutines and waits for them to exit. A Runner
// must not be reused after Close.
func (r *Runner) Close() {
	r.stop.Store(true)

	r.mu.Lock()
	r.cond.Broadcast()
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *Runner) restartWorkers() {
	r.mu.Lock()
	r.epoch.Add(1)
	r.cond.Broadcast()
	r.mu.Unlock()
}

func (r *Runner) workerLoop() {
	defer r.wg.Done()

	for !r.stop.Load() {
		epoch := r.epoch.Load()

		node := r.ready.Pop()
		if node == nil {
			r.mu.Lock()
			for r.epoch.Load() == epoch && !r.stop.Load() {
				r.cond.Wait()
			}
			r.mu.Unlock()

			continue
		}

		task := taskFromNode(node)

		listWasEmpty := false

		task.execute(func(next *Task) {
			if next.IsFinal() {
				select {
				case r.finalReady <- struct{}{}:
				default:
				}

				return
			}

			if r.ready.Push(next.asNode()) {
				listWasEmpty = true
			}
		})

		if listWasEmpty {
			r.restartWorkers()
		}
	}
}
