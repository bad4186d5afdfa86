package nav

import (
	"context"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubClock(t *testing.T) *time.Time {
	t.Helper()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = time.Now })
	return &now
}

func requestParams() SearchParameters {
	p := DefaultSearchParameters()
	p.TimeBudget = 0
	return p
}

func TestPathRequest_Once(t *testing.T) {
	grid := buildGrid(t, unitConfig(5, 1, 5), newFakeWorld())
	req := NewPathRequest("once", grid, requestParams(), Point(pos(0, 0, 0)), Point(pos(4, 0, 3)), RequestOnce, 0)

	assert.False(t, req.PathFinished())
	assert.True(t, req.Update(context.Background()))
	assert.True(t, req.PathFinished())
	assert.True(t, req.ObjectiveFound())
	assert.Equal(t, Succeeded, req.LastState())
	assert.Len(t, req.PathNodes(), 8)
	assert.Equal(t, pos(4, 0, 3), req.EndPosition())
	coords := req.PathCoordinates()
	assert.Equal(t, pos(4, 0, 3), coords[len(coords)-1])

	assert.False(t, req.Update(context.Background()))
	assert.Equal(t, 1, req.Searches())
}

func TestPathRequest_CadenceFollowsTarget(t *testing.T) {
	now := stubClock(t)
	grid := buildGrid(t, unitConfig(5, 1, 5), newFakeWorld())

	target := pos(4, 0, 0)
	req := NewPathRequest("chase", grid, requestParams(), Point(pos(0, 0, 0)),
		PositionFunc(func() mgl64.Vec3 { return target }), RequestCadence, time.Second)

	require.True(t, req.Update(context.Background()))
	assert.Equal(t, pos(4, 0, 0), req.EndPosition())
	assert.Equal(t, *now, req.CompletedAt())

	target = pos(0, 0, 4)
	*now = now.Add(500 * time.Millisecond)
	assert.False(t, req.Update(context.Background()), "not due yet")

	*now = now.Add(500 * time.Millisecond)
	require.True(t, req.Update(context.Background()))
	assert.Equal(t, 2, req.Searches())
	assert.Equal(t, pos(0, 0, 4), req.EndPosition())
	nodes := req.PathNodes()
	assert.Equal(t, Index{Z: 4}, nodes[len(nodes)-1].Index)
}

func TestPathRequest_ContinuousWaitsAfterCompletion(t *testing.T) {
	now := stubClock(t)
	grid := buildGrid(t, unitConfig(10, 1, 10), newFakeWorld())
	req := NewPathRequest("continuous", grid, requestParams(), Point(pos(0, 0, 0)), Point(pos(9, 0, 9)), RequestContinuous, 2*time.Second)

	require.True(t, req.Update(context.Background()))
	assert.True(t, req.ObjectiveFound())

	*now = now.Add(time.Second)
	assert.False(t, req.Update(context.Background()))
	assert.Equal(t, 1, req.Searches())

	*now = now.Add(time.Second)
	assert.True(t, req.Update(context.Background()))
	assert.Equal(t, 2, req.Searches())
}

func TestPathRequest_DueByMode(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	req := NewPathRequest("due", nil, requestParams(), Point{}, Point{}, RequestOnce, 10*time.Second)
	assert.True(t, req.due(base), "first search is always due")

	req.finder.searches = 1
	req.lastStart = base
	req.completedAt = base.Add(8 * time.Second)
	now := base.Add(12 * time.Second)

	assert.False(t, req.due(now))
	req.Mode = RequestCadence
	assert.True(t, req.due(now), "cadence counts from the previous start")
	req.Mode = RequestContinuous
	assert.False(t, req.due(now), "continuous counts from the previous completion")
	assert.True(t, req.due(base.Add(18*time.Second)))
}

func TestPathRequest_BackgroundPublishes(t *testing.T) {
	grid := buildGrid(t, unitConfig(10, 1, 10), newFakeWorld())
	params := requestParams()
	params.RunOnBackgroundThread = true
	req := NewPathRequest("bg", grid, params, Point(pos(0, 0, 0)), Point(pos(9, 0, 9)), RequestOnce, 0)

	assert.Eventually(t, func() bool {
		req.Update(context.Background())
		return req.PathFinished()
	}, 5*time.Second, 5*time.Millisecond)
	assert.True(t, req.ObjectiveFound())
	assert.False(t, req.Searching())
}

func TestPathRequest_RunOnce(t *testing.T) {
	grid := buildGrid(t, unitConfig(5, 1, 5), newFakeWorld())
	req := NewPathRequest("run", grid, requestParams(), Point(pos(0, 0, 0)), Point(pos(4, 0, 4)), RequestOnce, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, req.Run(ctx, time.Millisecond))
	assert.True(t, req.ObjectiveFound())
}

func TestPathRequest_RunStopsOnCancel(t *testing.T) {
	grid := buildGrid(t, unitConfig(5, 1, 5), newFakeWorld())
	req := NewPathRequest("loop", grid, requestParams(), Point(pos(0, 0, 0)), Point(pos(4, 0, 4)), RequestCadence, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := req.Run(ctx, time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, req.Searches())
}

func TestPathRequest_NoGrid(t *testing.T) {
	req := NewPathRequest("orphan", nil, requestParams(), Point(pos(0, 0, 0)), Point(pos(1, 0, 0)), RequestOnce, 0,
		WithFinderLogger(func(string) {}))

	assert.False(t, req.Update(context.Background()))
	assert.ErrorIs(t, req.Err(), ErrNoGrid)
	assert.False(t, req.PathFinished())
}

func TestParseRequestMode(t *testing.T) {
	for name, want := range map[string]RequestMode{
		"":           RequestOnce,
		"once":       RequestOnce,
		"Cadence":    RequestCadence,
		"continuous": RequestContinuous,
	} {
		got, err := ParseRequestMode(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseRequestMode("sometimes")
	assert.Error(t, err)
}

func TestPathRequest_AccessorsDuringSynchronousSearch(t *testing.T) {
	grid := buildGrid(t, unitConfig(3, 1, 3), newFakeWorld())
	params := requestParams()
	params.PathableTypes = NewNodeTypeSet(Terrain)

	var req *PathRequest
	var searching, finished []bool
	logger := func(msg string) {
		t.Log(msg)
		searching = append(searching, req.Searching())
		finished = append(finished, req.PathFinished())
	}
	req = NewPathRequest("sync", grid, params, Point(pos(0, 0, 0)), Point(pos(2, 0, 2)),
		RequestOnce, 0, WithFinderLogger(logger))

	done := make(chan bool)
	go func() { done <- req.Update(context.Background()) }()
	select {
	case published := <-done:
		assert.True(t, published)
	case <-time.After(5 * time.Second):
		t.Fatal("Update blocked the request accessors")
	}

	require.NotEmpty(t, searching, "the failed start is logged from inside the search")
	assert.True(t, searching[0])
	assert.False(t, finished[0])
	assert.True(t, req.PathFinished())
	assert.Equal(t, Exhausted, req.LastState())
}
