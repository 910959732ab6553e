package ringpool

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type StatsTest struct {
	suite.Suite
	pool *Pool
}

func TestStatsSuite(t *testing.T) {
	suite.Run(t, new(StatsTest))
}

func (t *StatsTest) SetupTest() {
	var err error
	t.pool, err = New(
		WithNumWorkers(2),
		WithQueueSize(8),
		WithIdleSleep(100*time.Microsecond),
	)
	t.Require().NoError(err)
}

func (t *StatsTest) TearDownTest() {
	t.pool.Close()
}

func (t *StatsTest) TestFreshPool() {
	stats := t.pool.Stats()

	t.Equal(2, stats.NumWorkers)
	t.Zero(stats.Submitted)
	t.Zero(stats.Executed)
	t.Equal(0, stats.QueueDepth)
	t.Equal(16, stats.QueueCapacity)
	t.Zero(stats.Utilization)
	t.Require().Len(stats.Workers, 2)
	for i, ws := range stats.Workers {
		t.Equal(i, ws.WorkerID)
		t.Equal(8, ws.Capacity)
		t.Equal(StateRunning, ws.State)
	}
}

func (t *StatsTest) TestCountsExecutedTasks() {
	var wg sync.WaitGroup
	wg.Add(10)
	for i := 0; i < 10; i++ {
		t.Require().True(t.pool.PostFunc(func(int) { wg.Done() }))
	}
	wg.Wait()

	t.Eventually(func() bool {
		return t.pool.Stats().Executed == 10
	}, time.Second, time.Millisecond)

	stats := t.pool.Stats()
	t.Equal(uint64(10), stats.Submitted)
	t.Equal(uint64(0), stats.Failed)
	t.Equal(stats.Workers[0].Executed+stats.Workers[1].Executed, stats.Executed)
}

func (t *StatsTest) TestUtilization() {
	release := make(chan struct{})
	defer close(release)

	// Block both workers, then fill queue slots.
	var started sync.WaitGroup
	started.Add(2)
	for i := 0; i < 2; i++ {
		t.Require().True(t.pool.PostFunc(func(int) {
			started.Done()
			<-release
		}))
	}
	started.Wait()

	for i := 0; i < 4; i++ {
		t.Require().True(t.pool.PostFunc(func(int) {}))
	}

	stats := t.pool.Stats()
	t.Equal(4, stats.QueueDepth)
	t.InDelta(25.0, stats.Utilization, 0.001)
}

func (t *StatsTest) TestStoppedAfterClose() {
	t.pool.Close()

	for _, ws := range t.pool.Stats().Workers {
		t.Equal(StateStopped, ws.State)
	}
}
