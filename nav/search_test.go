package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floorWorld(width int) *fakeWorld {
	world := newFakeWorld()
	for x := 0; x < width; x++ {
		world.solid(Index{X: x})
	}
	return world
}

func TestGroundSnap_PathFollowsFloor(t *testing.T) {
	grid := buildGrid(t, unitConfig(5, 3, 1), floorWorld(5))

	params := searchParams(pos(0, 2, 0), pos(4, 2, 0))
	params.GroundSnap = true
	pf := runSearch(t, grid, params)

	require.True(t, pf.ObjectiveFound())
	path := pf.Path()
	assert.Len(t, path, 5)
	for _, n := range path {
		assert.Equal(t, 1, n.Index.Y, "node %s", n.Index)
	}
	end, _ := pf.EndNode()
	assert.Equal(t, Index{X: 4, Y: 1}, end.Index)

	params.GroundSnap = false
	pf = runSearch(t, grid, params)
	require.True(t, pf.ObjectiveFound())
	for _, n := range pf.Path() {
		assert.Equal(t, 2, n.Index.Y, "node %s", n.Index)
	}
}

func TestSnapToGround(t *testing.T) {
	world := newFakeWorld().solid(Index{})
	grid := buildGrid(t, unitConfig(3, 4, 1), world)
	params := DefaultSearchParameters()

	assert.Equal(t, Index{Y: 1}, grid.SnapToGround(Index{Y: 3}, params))
	assert.Equal(t, Index{X: 2}, grid.SnapToGround(Index{X: 2, Y: 3}, params), "stops at the lattice boundary")
	assert.Equal(t, Index{X: 2}, grid.SnapToGround(Index{X: 2}, params))
}

func TestClimbLimit(t *testing.T) {
	world := newFakeWorld().solid(Index{X: 1}, Index{X: 1, Y: 1})
	grid := buildGrid(t, unitConfig(3, 3, 1), world)

	params := searchParams(pos(0, 0, 0), pos(2, 0, 0))
	params.MaxClimbIterations = 1
	pf := runSearch(t, grid, params)
	assert.Equal(t, Exhausted, pf.State())
	path := pf.Path()
	require.NotEmpty(t, path)
	assert.Equal(t, Index{}, path[len(path)-1].Index)

	params.MaxClimbIterations = 2
	pf = runSearch(t, grid, params)
	require.Equal(t, Succeeded, pf.State())
	path = pf.Path()
	assert.Equal(t, Index{X: 2}, path[len(path)-1].Index)
	assertConnected(t, path)

	params.MaxClimbIterations = 0
	pf = runSearch(t, grid, params)
	assert.Equal(t, Succeeded, pf.State())
}

func TestDropLimit(t *testing.T) {
	world := newFakeWorld().solid(Index{}, Index{Y: 1}, Index{Y: 2})
	grid := buildGrid(t, unitConfig(2, 5, 1), world)

	params := searchParams(pos(0, 3, 0), pos(1, 0, 0))
	params.GroundSnap = true
	params.MaxDropIterations = 2
	pf := runSearch(t, grid, params)
	assert.Equal(t, Exhausted, pf.State())

	params.MaxDropIterations = 3
	pf = runSearch(t, grid, params)
	require.Equal(t, Succeeded, pf.State())
	assert.Equal(t, []Index{{Y: 3}, {X: 1, Y: 3}, {X: 1, Y: 2}, {X: 1, Y: 1}, {X: 1}}, indices(pf.Path()))

	params.MaxDropIterations = 0
	pf = runSearch(t, grid, params)
	assert.Equal(t, Succeeded, pf.State())
}

func TestAgentHeightClearance(t *testing.T) {
	world := newFakeWorld().solid(Index{X: 2, Y: 1})
	grid := buildGrid(t, unitConfig(5, 2, 1), world)

	params := searchParams(pos(0, 0, 0), pos(4, 0, 0))
	pf := runSearch(t, grid, params)
	require.Equal(t, Succeeded, pf.State())

	params.AgentHeight = 2
	pf = runSearch(t, grid, params)
	assert.Equal(t, Exhausted, pf.State())
	assert.NotContains(t, indices(pf.Path()), Index{X: 2})
}

func TestAgentWidthClearance(t *testing.T) {
	world := newFakeWorld().solid(Index{X: 3, Z: 3})
	grid := buildGrid(t, unitConfig(5, 1, 5), world)

	params := DefaultSearchParameters()
	params.AgentWidth = 2
	s := newSearch(params, grid)
	assert.Equal(t, 1, s.widthIters)

	assert.False(t, s.hasClearance(Index{X: 2, Z: 2}))
	assert.True(t, s.hasClearance(Index{X: 1, Z: 1}))
	assert.True(t, s.hasClearance(Index{X: 4, Z: 0}), "cells outside the lattice count as clear")
}

func TestClearanceIterations(t *testing.T) {
	cfg := GridConfig{NodeDistance: 0.5, HeightStep: 0.25}
	p := DefaultSearchParameters()

	assert.Equal(t, 0, p.heightIterations(cfg))
	assert.Equal(t, 0, p.widthIterations(cfg))

	p.AgentHeight = 1
	p.AgentWidth = 1
	assert.Equal(t, 3, p.heightIterations(cfg))
	assert.Equal(t, 1, p.widthIterations(cfg))

	p.AgentHeight = 0.2
	p.AgentWidth = 2.1
	assert.Equal(t, 0, p.heightIterations(cfg))
	assert.Equal(t, 2, p.widthIterations(cfg))
}

func TestWalkOnlyDestination(t *testing.T) {
	world := newFakeWorld()
	world.cells[Index{X: 2}] = []Hit{{Layer: terrainLayer, Kind: ColliderTerrain}}
	world.cells[Index{X: 1, Z: 1}] = []Hit{{Layer: terrainLayer, Kind: ColliderTerrain}}
	grid := buildGrid(t, unitConfig(3, 1, 2), world)

	params := searchParams(pos(0, 0, 0), pos(2, 0, 0))
	pf := runSearch(t, grid, params)
	end, _ := pf.EndNode()
	assert.NotEqual(t, Index{X: 2}, end.Index, "terrain is not a valid target by default")

	params.WalkOnlyTypes = NewNodeTypeSet(Terrain)
	pf = runSearch(t, grid, params)
	require.Equal(t, Succeeded, pf.State())
	path := pf.Path()
	assert.Equal(t, Index{X: 2}, path[len(path)-1].Index)
	assert.NotContains(t, indices(path[:len(path)-1]), Index{X: 1, Z: 1}, "walk-only nodes are not passed through")
}
