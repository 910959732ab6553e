//go:build linux

package ringpool

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// allowedCPUs is the CPU set the process may run on, read once before any
// worker narrows its own thread.
var allowedCPUs = sync.OnceValues(func() ([]int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, err
	}

	cpus := make([]int, 0, set.Count())
	for cpu := 0; len(cpus) < set.Count(); cpu++ {
		if set.IsSet(cpu) {
			cpus = append(cpus, cpu)
		}
	}
	return cpus, nil
})

// cpuForWorker returns the (workerID mod n)-th CPU of the allowed set.
func cpuForWorker(workerID int) (int, error) {
	cpus, err := allowedCPUs()
	if err != nil {
		return 0, fmt.Errorf("reading cpu affinity: %w", err)
	}
	if len(cpus) == 0 {
		return 0, fmt.Errorf("empty cpu affinity set")
	}
	return cpus[workerID%len(cpus)], nil
}

// pinCurrentThread binds the calling OS thread to one CPU of the process's
// allowed set. The goroutine must already be locked to its thread.
func pinCurrentThread(workerID int) error {
	cpu, err := cpuForWorker(workerID)
	if err != nil {
		return err
	}

	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	return unix.SchedSetaffinity(0, &set)
}
