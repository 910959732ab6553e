package ringpool

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// slot is one cell of the ring. Its sequence encodes the cell's phase for the
// current lap: seq == pos means free for the producer of pos, seq == pos+1
// means written and ready for the consumer of pos, and seq == pos+cap means
// free again for the producer one lap later.
type slot[T any] struct {
	seq atomic.Uint64
	val T
}

// MPMCQueue is a bounded, lock-free, multi-producer multi-consumer FIFO ring.
// Push and Pop never block: they report failure when the ring is full or
// empty and leave the retry policy to the caller.
//
// Any number of goroutines may Push and Pop concurrently. A slot's value is
// only ever written by the producer that won the enqueue race for its
// position and read by the consumer that won the matching dequeue race.
type MPMCQueue[T any] struct {
	_ cpu.CacheLinePad

	// enqueuePos is advanced by producers via CAS
	enqueuePos atomic.Uint64

	_ cpu.CacheLinePad

	// dequeuePos is advanced by consumers via CAS
	dequeuePos atomic.Uint64

	_ cpu.CacheLinePad

	slots []slot[T]

	// mask is len(slots)-1, used for fast modulo via bitwise AND
	mask uint64
}

// NewMPMCQueue creates a queue holding at least capacity elements. The
// capacity is rounded up to a power of two, and to no less than 2.
// It panics if capacity exceeds MaxQueueSize.
func NewMPMCQueue[T any](capacity int) *MPMCQueue[T] {
	if capacity > MaxQueueSize {
		panic(fmt.Sprintf("ringpool: queue capacity %d exceeds MaxQueueSize", capacity))
	}
	size := nextPowerOfTwo(capacity)
	if size < 2 {
		size = 2
	}

	q := &MPMCQueue[T]{
		slots: make([]slot[T], size),
		mask:  uint64(size - 1),
	}
	for i := range q.slots {
		q.slots[i].seq.Store(uint64(i))
	}
	return q
}

// Push appends v to the queue. It returns false, leaving the queue
// untouched, if every slot is occupied.
func (q *MPMCQueue[T]) Push(v T) bool {
	pos := q.enqueuePos.Load()
	for {
		s := &q.slots[pos&q.mask]
		seq := s.seq.Load()
		dif := int64(seq) - int64(pos)

		switch {
		case dif == 0:
			if q.enqueuePos.CompareAndSwap(pos, pos+1) {
				s.val = v
				s.seq.Store(pos + 1)
				return true
			}
			pos = q.enqueuePos.Load()
		case dif < 0:
			// The slot still holds the value written one lap ago.
			return false
		default:
			// Another producer claimed pos; catch up.
			pos = q.enqueuePos.Load()
		}
	}
}

// Pop removes the oldest element. It returns false if the queue is empty.
// The slot is cleared so the queue does not keep the value reachable.
func (q *MPMCQueue[T]) Pop() (T, bool) {
	var zero T
	pos := q.dequeuePos.Load()
	for {
		s := &q.slots[pos&q.mask]
		seq := s.seq.Load()
		dif := int64(seq) - int64(pos+1)

		switch {
		case dif == 0:
			if q.dequeuePos.CompareAndSwap(pos, pos+1) {
				v := s.val
				s.val = zero
				s.seq.Store(pos + q.mask + 1)
				return v, true
			}
			pos = q.dequeuePos.Load()
		case dif < 0:
			return zero, false
		default:
			pos = q.dequeuePos.Load()
		}
	}
}

// Cap returns the number of slots.
func (q *MPMCQueue[T]) Cap() int {
	return len(q.slots)
}

// Len returns the approximate number of queued elements.
// This is a snapshot and may be stale during concurrent operations
func (q *MPMCQueue[T]) Len() int {
	deq := q.dequeuePos.Load()
	enq := q.enqueuePos.Load()
	if enq <= deq {
		return 0
	}
	n := int(enq - deq)
	if n > len(q.slots) {
		return len(q.slots)
	}
	return n
}
