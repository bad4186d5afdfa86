package nav

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityQueue_DequeueOrder(t *testing.T) {
	q := NewPriorityQueue[int, float64]()
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		q.Enqueue(i, rng.Float64()*100)
	}
	require.Equal(t, 200, q.Len())

	last := -1.0
	for q.Len() > 0 {
		_, p, err := q.Dequeue()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, p, last)
		last = p
	}
}

func TestPriorityQueue_Empty(t *testing.T) {
	q := NewPriorityQueue[string, int]()

	_, _, err := q.Dequeue()
	assert.ErrorIs(t, err, ErrEmptyQueue)
	_, _, err = q.Peek()
	assert.ErrorIs(t, err, ErrEmptyQueue)
}

func TestPriorityQueue_PeekContainsClear(t *testing.T) {
	q := NewPriorityQueue[string, int]()
	q.Enqueue("far", 9)
	q.Enqueue("near", 1)
	q.Enqueue("mid", 4)

	v, p, err := q.Peek()
	require.NoError(t, err)
	assert.Equal(t, "near", v)
	assert.Equal(t, 1, p)
	assert.Equal(t, 3, q.Len())

	assert.True(t, q.Contains("mid"))
	assert.False(t, q.Contains("nowhere"))

	q.Clear()
	assert.Equal(t, 0, q.Len())
	assert.False(t, q.Contains("mid"))
}

func TestFrontier_FIFOOrder(t *testing.T) {
	f := newFrontier(BreadthFirstSearch)
	for i := 0; i < 5; i++ {
		f.push(frontierEntry{slot: i, priority: float64(10 - i)})
	}
	for i := 0; i < 5; i++ {
		e, ok := f.pop()
		require.True(t, ok)
		assert.Equal(t, i, e.slot)
	}
	_, ok := f.pop()
	assert.False(t, ok)
	assert.Equal(t, 0, f.len())
}

func TestFrontier_HeapOrder(t *testing.T) {
	f := newFrontier(AStar)
	f.push(frontierEntry{slot: 0, priority: 3})
	f.push(frontierEntry{slot: 1, priority: 1})
	f.push(frontierEntry{slot: 2, priority: 2})

	var got []int
	for f.len() > 0 {
		e, _ := f.pop()
		got = append(got, e.slot)
	}
	assert.Equal(t, []int{1, 2, 0}, got)
}
