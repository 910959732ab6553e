package ringpool

import (
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.IdleSleep = 100 * time.Microsecond
	cfg.normalize()
	return &cfg
}

func TestWorkerState_String(t *testing.T) {
	assert.Equal(t, "CREATED", StateCreated.String())
	assert.Equal(t, "RUNNING", StateRunning.String())
	assert.Equal(t, "STOPPING", StateStopping.String())
	assert.Equal(t, "STOPPED", StateStopped.String())
	assert.Equal(t, "UNKNOWN", WorkerState(42).String())
}

func TestWorker_StopBeforeStart(t *testing.T) {
	w := newWorker(0, 4)
	assert.Equal(t, StateCreated, w.getState())

	w.stop()
	assert.Equal(t, StateStopped, w.getState())
	w.stop()
}

func TestWorker_RunsOwnQueue(t *testing.T) {
	w := newWorker(3, 8)
	w.start(w, testConfig())
	defer w.stop()

	got := make(chan int, 1)
	require.True(t, w.post(TaskFunc(func(id int) { got <- id })))

	select {
	case id := <-got:
		assert.Equal(t, 3, id)
	case <-time.After(testTimeout):
		t.Fatal("task never ran")
	}
}

func TestWorker_StealsFromDonor(t *testing.T) {
	thief := newWorker(0, 8)
	donor := newWorker(1, 8)

	got := make(chan int, 1)
	require.True(t, donor.post(TaskFunc(func(id int) { got <- id })))

	// The donor is never started, so only the thief can run the task.
	thief.start(donor, testConfig())
	defer thief.stop()

	select {
	case id := <-got:
		assert.Equal(t, 0, id)
	case <-time.After(testTimeout):
		t.Fatal("task never stolen")
	}
	assert.Equal(t, uint64(1), thief.tasksStolen.Load())
}

func TestWorker_PanicCountsAsFailed(t *testing.T) {
	var handled atomic.Int32
	cfg := testConfig()
	cfg.PanicHandler = func(int, any) { handled.Add(1) }

	w := newWorker(0, 8)
	w.start(w, cfg)

	require.True(t, w.post(TaskFunc(func(int) { panic("x") })))
	require.Eventually(t, func() bool { return w.tasksExecuted.Load() == 1 }, testTimeout, time.Millisecond)
	w.stop()

	assert.Equal(t, uint64(1), w.tasksFailed.Load())
	assert.Equal(t, int32(1), handled.Load())
	assert.Equal(t, StateStopped, w.getState())
}

func TestWorker_StopLeavesQueuedTasks(t *testing.T) {
	w := newWorker(0, 8)
	w.start(w, testConfig())
	w.stop()

	require.True(t, w.post(TaskFunc(func(int) {})))
	assert.Equal(t, 1, w.queue.Len())
}

func TestSafeCall(t *testing.T) {
	assert.NotPanics(t, func() { safeCall(nil, 0) })
	assert.NotPanics(t, func() { safeCall(func(int) { panic("hook") }, 1) })

	got := -1
	safeCall(func(id int) { got = id }, 5)
	assert.Equal(t, 5, got)
}

func TestWorker_StoppedAfterStop(t *testing.T) {
	cfg := testConfig()
	for i := 0; i < 200; i++ {
		w := newWorker(0, 2)
		w.start(w, cfg)
		if i%2 == 0 {
			runtime.Gosched()
		}
		w.stop()
		require.Equal(t, StateStopped, w.getState(), "cycle %d", i)
	}
}

func TestWorker_StopDoesNotOverwriteStopped(t *testing.T) {
	w := newWorker(0, 2)
	w.start(w, testConfig())

	// Simulate the goroutine finishing before the stopper records Stopping.
	w.running.Store(false)
	<-w.done
	require.Equal(t, StateStopped, w.getState())

	w.stop()
	assert.Equal(t, StateStopped, w.getState())
}
