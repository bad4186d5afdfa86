package nav

// frontierEntry references a snapshot slot together with the priority it was
// queued under, so stale heap entries can be recognised.
type frontierEntry struct {
	slot     int
	priority float64
}

// frontier is the set of nodes pending expansion.
type frontier interface {
	push(entry frontierEntry)
	pop() (frontierEntry, bool)
	len() int
}

// heapFrontier orders entries by priority. Used by A* and Greedy Best-First.
type heapFrontier struct {
	queue *PriorityQueue[frontierEntry, float64]
}

func newHeapFrontier() *heapFrontier {
	return &heapFrontier{queue: NewPriorityQueue[frontierEntry, float64]()}
}

func (f *heapFrontier) push(entry frontierEntry) { f.queue.Enqueue(entry, entry.priority) }

func (f *heapFrontier) pop() (frontierEntry, bool) {
	entry, _, err := f.queue.Dequeue()
	return entry, err == nil
}

func (f *heapFrontier) len() int { return f.queue.Len() }

// fifoFrontier returns entries in insertion order. Used by Breadth-First.
type fifoFrontier struct {
	entries []frontierEntry
	head    int
}

func (f *fifoFrontier) push(entry frontierEntry) { f.entries = append(f.entries, entry) }

func (f *fifoFrontier) pop() (frontierEntry, bool) {
	if f.head >= len(f.entries) {
		return frontierEntry{}, false
	}
	entry := f.entries[f.head]
	f.head++
	if f.head > 64 && f.head*2 > len(f.entries) {
		f.entries = append(f.entries[:0], f.entries[f.head:]...)
		f.head = 0
	}
	return entry, true
}

func (f *fifoFrontier) len() int { return len(f.entries) - f.head }

func newFrontier(algorithm Algorithm) frontier {
	if algorithm == BreadthFirstSearch {
		return &fifoFrontier{}
	}
	return newHeapFrontier()
}
