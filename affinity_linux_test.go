//go:build linux

package ringpool

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestCPUForWorker_UsesAllowedSet(t *testing.T) {
	cpus, err := allowedCPUs()
	require.NoError(t, err)
	require.NotEmpty(t, cpus)

	var set unix.CPUSet
	require.NoError(t, unix.SchedGetaffinity(0, &set))

	for id := 0; id < 2*len(cpus); id++ {
		cpu, err := cpuForWorker(id)
		require.NoError(t, err)
		assert.Equal(t, cpus[id%len(cpus)], cpu)
		assert.True(t, set.IsSet(cpu), "cpu %d not in allowed set", cpu)
	}
}

func TestPinCurrentThread(t *testing.T) {
	want, err := cpuForWorker(1)
	require.NoError(t, err)

	type result struct {
		set unix.CPUSet
		err error
	}
	done := make(chan result, 1)
	go func() {
		// Left locked so the narrowed thread is discarded on exit.
		runtime.LockOSThread()
		var res result
		if res.err = pinCurrentThread(1); res.err == nil {
			res.err = unix.SchedGetaffinity(0, &res.set)
		}
		done <- res
	}()

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, 1, res.set.Count())
	assert.True(t, res.set.IsSet(want))
}

func TestPool_PinnedWorkersRunOnOneCPU(t *testing.T) {
	pool := newTestPool(t, WithNumWorkers(2), WithCPUAffinity(true))

	for i := 0; i < 4; i++ {
		fut, err := Process(pool, func(workerID int) ([2]int, error) {
			var set unix.CPUSet
			if err := unix.SchedGetaffinity(0, &set); err != nil {
				return [2]int{}, err
			}
			want, err := cpuForWorker(workerID)
			if err != nil {
				return [2]int{}, err
			}
			if !set.IsSet(want) {
				want = -1
			}
			return [2]int{set.Count(), want}, nil
		})
		require.NoError(t, err)

		got, err := fut.Get()
		require.NoError(t, err)
		assert.Equal(t, 1, got[0], "pinned thread should allow exactly one cpu")
		assert.NotEqual(t, -1, got[1], "pinned thread runs on the wrong cpu")
	}
}
