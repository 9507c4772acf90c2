package services

import (
	"sync"
)

// opQueue runs operations one at a time, in the order they arrived
type opQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	next    uint64
	serving uint64
}

func newOpQueue() *opQueue {
	q := &opQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// do blocks until every earlier operation has finished, then runs fn
func (q *opQueue) do(fn func() error) error {
	q.mu.Lock()
	ticket := q.next
	q.next++
	for q.serving != ticket {
		q.cond.Wait()
	}
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.serving++
		q.cond.Broadcast()
		q.mu.Unlock()
	}()

	return fn()
}

// pending returns the number of operations queued or running
func (q *opQueue) pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int(q.next - q.serving)
}
