//go:build !linux

package ringpool

// pinCurrentThread is a no-op where thread affinity is not supported.
func pinCurrentThread(workerID int) error {
	return nil
}

// cpuForWorker has no CPU set to consult here.
func cpuForWorker(workerID int) (int, error) {
	return workerID, nil
}
