package ringpool

// Stats contains statistics about pool operation.
// All counters are snapshots taken at the time Stats() is called and may be
// slightly inconsistent during concurrent operations due to lock-free reads.
//
// Example:
//
//	stats := pool.Stats()
//	fmt.Printf("Executed: %d/%d, stolen: %d\n",
//	    stats.Executed, stats.Submitted, stats.Stolen)
type Stats struct {
	// NumWorkers is the number of workers in the pool.
	// This value is fixed at pool creation and does not change.
	NumWorkers int

	// Submitted is the number of tasks accepted by a worker queue.
	Submitted uint64

	// Rejected is the number of submissions refused because the chosen
	// worker's queue was full.
	Rejected uint64

	// Dropped is the number of accepted tasks destroyed by Close before
	// they could run.
	Dropped uint64

	// Executed is the number of tasks that finished, including panicking ones.
	Executed uint64

	// Stolen is the number of tasks a worker took from its donor's queue.
	Stolen uint64

	// Failed is the number of tasks that panicked or called runtime.Goexit.
	Failed uint64

	// QueueDepth is the combined number of tasks waiting in all queues.
	// Does not include tasks currently executing.
	QueueDepth int

	// QueueCapacity is the combined capacity of all worker queues.
	QueueCapacity int

	// Utilization is QueueDepth / QueueCapacity * 100.
	Utilization float64

	// Workers contains one entry per worker, indexed by worker id.
	Workers []WorkerStats
}

// WorkerStats contains statistics for an individual worker.
// Each worker maintains its own counters to avoid contention.
type WorkerStats struct {
	// WorkerID is the worker's position in the ring (0-indexed).
	WorkerID int

	// Executed is the number of tasks this worker ran, stolen ones included.
	Executed uint64

	// Stolen is the number of tasks this worker took from its donor.
	Stolen uint64

	// Failed is the number of tasks that panicked or exited on this worker.
	Failed uint64

	// QueueDepth is the number of tasks waiting in this worker's queue.
	QueueDepth int

	// Capacity is the fixed capacity of this worker's queue.
	Capacity int

	// State is the lifecycle state of the worker.
	State WorkerState
}

// Stats returns a snapshot of pool statistics.
func (p *Pool) Stats() Stats {
	s := Stats{
		NumWorkers: len(p.workers),
		Submitted:  p.submitted.Load(),
		Rejected:   p.rejected.Load(),
		Dropped:    p.dropped.Load(),
		Workers:    make([]WorkerStats, len(p.workers)),
	}

	for i, w := range p.workers {
		ws := WorkerStats{
			WorkerID:   w.id,
			Executed:   w.tasksExecuted.Load(),
			Stolen:     w.tasksStolen.Load(),
			Failed:     w.tasksFailed.Load(),
			QueueDepth: w.queue.Len(),
			Capacity:   w.queue.Cap(),
			State:      w.getState(),
		}
		s.Workers[i] = ws

		s.Executed += ws.Executed
		s.Stolen += ws.Stolen
		s.Failed += ws.Failed
		s.QueueDepth += ws.QueueDepth
		s.QueueCapacity += ws.Capacity
	}

	if s.QueueCapacity > 0 {
		s.Utilization = float64(s.QueueDepth) / float64(s.QueueCapacity) * 100.0
	}
	return s
}
