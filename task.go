package ringpool

import "unsafe"

// TaskStorageSize is the size limit, in bytes, for runner values wrapped by
// NewTask. A runner must be strictly smaller than this.
//
// For a concrete runner type the limit can be checked when the program is
// built:
//
//	const _ = ringpool.TaskStorageSize - 1 - unsafe.Sizeof(myRunner{})
//
// The constant expression underflows, and compilation fails, when
// myRunner is too large.
const TaskStorageSize = 64

// Runner is a unit of work that can be carried by a Task.
type Runner interface {
	Run(workerID int)
}

// Releaser is implemented by runners that hold resources. Release is called
// exactly once when the Task carrying the runner is destroyed, whether or not
// the runner was ever invoked.
type Releaser interface {
	Release()
}

// Task is a fixed-size, move-only unit of work. It is stored by value in the
// worker queues, so posting a Task does not allocate inside the pool.
//
// A Task holds either a plain function or a Runner value. Tasks must be
// transferred with MoveFrom (or through a queue); copying a non-empty Task
// by assignment and using both copies runs the callable twice and releases
// it twice.
type Task struct {
	invoke  func(t *Task, workerID int)
	release func(r Runner)
	fn      func(workerID int)
	runner  Runner
}

// TaskFunc wraps a plain function. The function value is the whole payload;
// such a task has no release step. A nil function yields an empty Task.
func TaskFunc(fn func(workerID int)) Task {
	if fn == nil {
		return Task{}
	}
	return Task{invoke: invokeFunc, fn: fn}
}

// NewTask wraps a runner value. It panics with ErrTaskTooLarge if the value
// does not fit into TaskStorageSize.
//
// The check measures the static type R. When R is itself an interface type
// (NewTask[Runner](v)) only the interface header is measured, whatever the
// size of the value behind it. The runner is held in an interface field, so
// a non-pointer value larger than a word is boxed on the heap when the task
// is built; the limit bounds that allocation, not space inside the Task.
func NewTask[R Runner](r R) Task {
	if unsafe.Sizeof(r) >= TaskStorageSize {
		panic(ErrTaskTooLarge)
	}
	t := Task{invoke: invokeRunner, runner: r}
	if _, ok := any(r).(Releaser); ok {
		t.release = releaseRunner
	}
	return t
}

func invokeFunc(t *Task, workerID int)   { t.fn(workerID) }
func invokeRunner(t *Task, workerID int) { t.runner.Run(workerID) }
func releaseRunner(r Runner)             { r.(Releaser).Release() }

// Invoke runs the wrapped callable with the given worker id.
// It returns ErrEmptyTask if the task holds nothing. Panics raised by the
// callable are not recovered here.
func (t *Task) Invoke(workerID int) error {
	if t.invoke == nil {
		return ErrEmptyTask
	}
	t.invoke(t, workerID)
	return nil
}

// Empty reports whether the task holds no callable.
func (t *Task) Empty() bool {
	return t.invoke == nil
}

// MoveFrom destroys the current content of t, takes over the callable held by
// src and leaves src empty. Moving a task onto itself does nothing.
func (t *Task) MoveFrom(src *Task) {
	if t == src {
		return
	}
	t.Reset()
	*t = *src
	*src = Task{}
}

// Reset destroys the task: the runner's Release method is called if it has
// one, and the task becomes empty.
func (t *Task) Reset() {
	release, runner := t.release, t.runner
	*t = Task{}
	if release != nil {
		release(runner)
	}
}
