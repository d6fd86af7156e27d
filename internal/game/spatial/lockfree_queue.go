package spatial

import (
	"sync/atomic"
)

// cacheLineSize is the typical CPU cache line size (64 bytes on x86-64)
const cacheLineSize = 64

// padding keeps producer and consumer counters on separate cache lines
type padding [cacheLineSize]byte

// queueSlot pairs a value with the sequence number that says whether the
// slot is ready for a producer (seq == pos) or the consumer (seq == pos+1).
type queueSlot[T any] struct {
	seq  atomic.Uint64
	item T
}

// LockFreeQueue is a bounded multi-producer single-consumer ring.
// API goroutines push client input; the tick goroutine drains it once per
// tick. Full queues reject pushes instead of blocking.
type LockFreeQueue[T any] struct {
	_    padding
	head atomic.Uint64 // next producer position
	_    padding
	tail atomic.Uint64 // next consumer position
	_    padding
	mask  uint64
	slots []queueSlot[T]

	dropped atomic.Uint64
}

// NewLockFreeQueue creates a queue. capacity is rounded up to a power of 2
// (minimum 2).
func NewLockFreeQueue[T any](capacity int) *LockFreeQueue[T] {
	size := 2
	for size < capacity {
		size <<= 1
	}

	q := &LockFreeQueue[T]{
		mask:  uint64(size - 1),
		slots: make([]queueSlot[T], size),
	}
	for i := range q.slots {
		q.slots[i].seq.Store(uint64(i))
	}
	return q
}

// TryPush adds an item. Returns false (and counts a drop) when full.
// Safe for concurrent producers.
func (q *LockFreeQueue[T]) TryPush(item T) bool {
	for {
		pos := q.head.Load()
		slot := &q.slots[pos&q.mask]
		seq := slot.seq.Load()

		switch {
		case seq == pos:
			if q.head.CompareAndSwap(pos, pos+1) {
				slot.item = item
				slot.seq.Store(pos + 1)
				return true
			}
		case seq < pos:
			q.dropped.Add(1)
			return false
		}
		// another producer claimed pos; reload
	}
}

// TryPop removes the oldest item. Only one goroutine may consume.
func (q *LockFreeQueue[T]) TryPop() (T, bool) {
	var zero T

	pos := q.tail.Load()
	slot := &q.slots[pos&q.mask]
	if slot.seq.Load() != pos+1 {
		return zero, false
	}

	item := slot.item
	slot.item = zero
	slot.seq.Store(pos + q.mask + 1)
	q.tail.Store(pos + 1)
	return item, true
}

// DrainTo pops into buf until it is full or the queue is empty.
// Returns the number of items written.
func (q *LockFreeQueue[T]) DrainTo(buf []T) int {
	n := 0
	for n < len(buf) {
		item, ok := q.TryPop()
		if !ok {
			break
		}
		buf[n] = item
		n++
	}
	return n
}

// Len returns the approximate number of queued items
func (q *LockFreeQueue[T]) Len() int {
	head := q.head.Load()
	tail := q.tail.Load()
	if head < tail {
		return 0
	}
	return int(head - tail)
}

// Cap returns the queue capacity
func (q *LockFreeQueue[T]) Cap() int {
	return int(q.mask + 1)
}

// Dropped returns how many pushes were rejected because the queue was full
func (q *LockFreeQueue[T]) Dropped() uint64 {
	return q.dropped.Load()
}
