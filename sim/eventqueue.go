package sim

import (
	"container/heap"
	"container/list"
	"sync"
)

// EventQueue is a queue of events ordered by time. Events that share a time
// leave the queue in the order they entered it.
type EventQueue interface {
	Push(t VTimeInSec, evt *Event)
	PopMin() (VTimeInSec, *Event, error)
	Peek() (VTimeInSec, *Event, error)
	Len() int
}

type queueEntry struct {
	time  VTimeInSec
	seq   uint64
	event *Event
}

// HeapEventQueue is an EventQueue backed by a binary heap keyed by
// (time, insertion sequence).
type HeapEventQueue struct {
	sync.Mutex
	entries entryHeap
	nextSeq uint64
}

// NewEventQueue creates and returns a newly created HeapEventQueue.
func NewEventQueue() *HeapEventQueue {
	q := new(HeapEventQueue)
	q.entries = make([]queueEntry, 0)
	heap.Init(&q.entries)

	return q
}

// Push adds an event to fire at time t.
func (q *HeapEventQueue) Push(t VTimeInSec, evt *Event) {
	q.Lock()
	heap.Push(&q.entries, queueEntry{time: t, seq: q.nextSeq, event: evt})
	q.nextSeq++
	q.Unlock()
}

// PopMin removes and returns the earliest entry.
func (q *HeapEventQueue) PopMin() (VTimeInSec, *Event, error) {
	q.Lock()
	defer q.Unlock()

	if q.entries.Len() == 0 {
		return 0, nil, ErrEmptyQueue
	}

	e := heap.Pop(&q.entries).(queueEntry)

	return e.time, e.event, nil
}

// Peek returns the earliest entry without removing it.
func (q *HeapEventQueue) Peek() (VTimeInSec, *Event, error) {
	q.Lock()
	defer q.Unlock()

	if q.entries.Len() == 0 {
		return 0, nil, ErrEmptyQueue
	}

	e := q.entries[0]

	return e.time, e.event, nil
}

// Len returns the number of entries in the queue.
func (q *HeapEventQueue) Len() int {
	q.Lock()
	l := q.entries.Len()
	q.Unlock()

	return l
}

type entryHeap []queueEntry

func (h entryHeap) Len() int {
	return len(h)
}

func (h entryHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}

	return h[i].seq < h[j].seq
}

func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *entryHeap) Push(x any) {
	*h = append(*h, x.(queueEntry))
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = queueEntry{}
	*h = old[0 : n-1]

	return e
}

// InsertionQueue is an EventQueue based on insertion sort. It is cheaper than
// the heap when most events are pushed in time order.
type InsertionQueue struct {
	lock sync.RWMutex
	l    *list.List
}

// NewInsertionQueue returns a new InsertionQueue.
func NewInsertionQueue() *InsertionQueue {
	q := new(InsertionQueue)
	q.l = list.New()

	return q
}

// Push adds an event to fire at time t, behind every event with the same
// time.
func (q *InsertionQueue) Push(t VTimeInSec, evt *Event) {
	q.lock.Lock()
	defer q.lock.Unlock()

	var ele *list.Element
	for ele = q.l.Back(); ele != nil; ele = ele.Prev() {
		if ele.Value.(queueEntry).time <= t {
			break
		}
	}

	entry := queueEntry{time: t, event: evt}
	if ele != nil {
		q.l.InsertAfter(entry, ele)
	} else {
		q.l.PushFront(entry)
	}
}

// PopMin removes and returns the entry at the front of the queue.
func (q *InsertionQueue) PopMin() (VTimeInSec, *Event, error) {
	q.lock.Lock()
	defer q.lock.Unlock()

	front := q.l.Front()
	if front == nil {
		return 0, nil, ErrEmptyQueue
	}

	e := q.l.Remove(front).(queueEntry)

	return e.time, e.event, nil
}

// Peek returns the entry at the front of the queue without removing it.
func (q *InsertionQueue) Peek() (VTimeInSec, *Event, error) {
	q.lock.RLock()
	defer q.lock.RUnlock()

	front := q.l.Front()
	if front == nil {
		return 0, nil, ErrEmptyQueue
	}

	e := front.Value.(queueEntry)

	return e.time, e.event, nil
}

// Len returns the number of entries in the queue.
func (q *InsertionQueue) Len() int {
	q.lock.RLock()
	l := q.l.Len()
	q.lock.RUnlock()

	return l
}
