// Package schedule is a virtual-clock event queue. Events run on the caller's
// goroutine when Advance moves the clock past their due time.
package schedule

import (
	"container/heap"
	"time"
)

// Event is a pending callback.
type Event struct {
	Due      time.Duration
	Epoch    uint64 // owner generation; see Cancel
	fn       func()
	seq      uint64
	index    int
	canceled bool
}

// Canceled reports whether the event was cancelled before firing.
func (e *Event) Canceled() bool { return e.canceled }

// eventQueue is a min-heap ordered by due time then insertion order.
type eventQueue []*Event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].Due != q[j].Due {
		return q[i].Due < q[j].Due
	}
	return q[i].seq < q[j].seq
}

func (q eventQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *eventQueue) Push(x any) {
	e := x.(*Event)
	e.index = len(*q)
	*q = append(*q, e)
}

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*q = old[:n-1]
	return e
}

// Queue holds events against a virtual clock.
type Queue struct {
	now    time.Duration
	seq    uint64
	events eventQueue
}

// New returns an empty queue at time zero.
func New() *Queue {
	q := &Queue{}
	heap.Init(&q.events)
	return q
}

// Now returns the virtual clock.
func (q *Queue) Now() time.Duration { return q.now }

// After schedules fn to run delay after the current clock, tagged with epoch.
func (q *Queue) After(delay time.Duration, epoch uint64, fn func()) *Event {
	if delay < 0 {
		delay = 0
	}
	q.seq++
	e := &Event{Due: q.now + delay, Epoch: epoch, fn: fn, seq: q.seq}
	heap.Push(&q.events, e)
	return e
}

// Cancel drops every pending event tagged with epoch and returns how many.
func (q *Queue) Cancel(epoch uint64) int {
	n := 0
	for i := 0; i < len(q.events); {
		e := q.events[i]
		if e.Epoch != epoch {
			i++
			continue
		}
		e.canceled = true
		heap.Remove(&q.events, i)
		n++
		i = 0
	}
	return n
}

// Pending returns the number of events not yet fired.
func (q *Queue) Pending() int { return len(q.events) }

// Advance moves the clock forward by dt and runs every event now due, in due
// order. Events scheduled by a callback run in the same call if already due.
func (q *Queue) Advance(dt time.Duration) int {
	if dt > 0 {
		q.now += dt
	}
	fired := 0
	for len(q.events) > 0 && q.events[0].Due <= q.now {
		e := heap.Pop(&q.events).(*Event)
		fired++
		if e.fn != nil {
			e.fn()
		}
	}
	return fired
}
