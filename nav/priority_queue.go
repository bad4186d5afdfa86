package nav

import (
	"container/heap"

	"golang.org/x/exp/constraints"
)

// queueItem is one heap entry. pos is its slot in the heap, or -1 once
// popped.
type queueItem[T comparable, P constraints.Ordered] struct {
	value    T
	priority P
	pos      int
}

// itemHeap is the container/heap backing store, ordered lowest priority first.
type itemHeap[T comparable, P constraints.Ordered] []*queueItem[T, P]

func (h itemHeap[T, P]) Len() int           { return len(h) }
func (h itemHeap[T, P]) Less(i, j int) bool { return h[i].priority < h[j].priority }

func (h itemHeap[T, P]) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].pos, h[j].pos = i, j
}

func (h *itemHeap[T, P]) Push(x any) {
	item := x.(*queueItem[T, P])
	item.pos = len(*h)
	*h = append(*h, item)
}

// Pop detaches the tail entry; heap.Pop has already swapped the minimum there.
func (h *itemHeap[T, P]) Pop() any {
	items := *h
	last := len(items) - 1
	item := items[last]
	items[last] = nil
	item.pos = -1
	*h = items[:last]
	return item
}

// PriorityQueue is a binary min-heap. Dequeue always returns the item with the
// lowest priority; ties are returned in no particular order. There is no
// decrease-key: callers avoid re-inserting a logical item themselves.
type PriorityQueue[T comparable, P constraints.Ordered] struct {
	items itemHeap[T, P]
}

// NewPriorityQueue creates an empty queue.
func NewPriorityQueue[T comparable, P constraints.Ordered]() *PriorityQueue[T, P] {
	q := &PriorityQueue[T, P]{}
	heap.Init(&q.items)
	return q
}

// Enqueue inserts value with the given priority in O(log n).
func (q *PriorityQueue[T, P]) Enqueue(value T, priority P) {
	heap.Push(&q.items, &queueItem[T, P]{value: value, priority: priority})
}

// Dequeue removes and returns the lowest-priority value in O(log n).
func (q *PriorityQueue[T, P]) Dequeue() (T, P, error) {
	if q.items.Len() == 0 {
		var zeroT T
		var zeroP P
		return zeroT, zeroP, ErrEmptyQueue
	}
	item := heap.Pop(&q.items).(*queueItem[T, P])
	return item.value, item.priority, nil
}

// Peek returns the lowest-priority value without removing it.
func (q *PriorityQueue[T, P]) Peek() (T, P, error) {
	if q.items.Len() == 0 {
		var zeroT T
		var zeroP P
		return zeroT, zeroP, ErrEmptyQueue
	}
	return q.items[0].value, q.items[0].priority, nil
}

// Contains scans the queue for value. O(n).
func (q *PriorityQueue[T, P]) Contains(value T) bool {
	for _, item := range q.items {
		if item.value == value {
			return true
		}
	}
	return false
}

// Len returns the number of queued values.
func (q *PriorityQueue[T, P]) Len() int { return q.items.Len() }

// Clear drops every queued value.
func (q *PriorityQueue[T, P]) Clear() {
	for i := range q.items {
		q.items[i] = nil
	}
	q.items = q.items[:0]
}
