package cache

import (
	"container/heap"
	"time"
)

type task struct {
	handle TimerHandle
	due    time.Time
	action func()
	index  int
}

// taskQueue orders pending actions by due time, then by the order they were
// scheduled in. It is not safe for concurrent use.
type taskQueue struct {
	items  taskHeap
	byID   map[TimerHandle]*task
	nextID TimerHandle
}

func newTaskQueue() *taskQueue {
	return &taskQueue{
		byID: make(map[TimerHandle]*task),
	}
}

func (q *taskQueue) push(due time.Time, action func()) TimerHandle {
	q.nextID++
	t := &task{
		handle: q.nextID,
		due:    due,
		action: action,
	}
	heap.Push(&q.items, t)
	q.byID[t.handle] = t
	return t.handle
}

func (q *taskQueue) remove(h TimerHandle) bool {
	t, found := q.byID[h]
	if !found {
		return false
	}
	heap.Remove(&q.items, t.index)
	delete(q.byID, h)
	return true
}

// next returns the earliest due time, false when the queue is empty.
func (q *taskQueue) next() (time.Time, bool) {
	if len(q.items) == 0 {
		return time.Time{}, false
	}
	return q.items[0].due, true
}

// popDue removes and returns the earliest task if it is due at now.
func (q *taskQueue) popDue(now time.Time) (*task, bool) {
	if len(q.items) == 0 || q.items[0].due.After(now) {
		return nil, false
	}
	t := heap.Pop(&q.items).(*task)
	delete(q.byID, t.handle)
	return t, true
}

func (q *taskQueue) len() int {
	return len(q.items)
}

type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].handle < h[j].handle
	}
	return h[i].due.Before(h[j].due)
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	t := x.(*task)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
