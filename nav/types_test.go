package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeType_SeverityOrder(t *testing.T) {
	assert.Less(t, Blocked.SeverityRank(), Terrain.SeverityRank())
	assert.Less(t, Terrain.SeverityRank(), OpenBorder.SeverityRank())
	assert.Less(t, OpenBorder.SeverityRank(), Open.SeverityRank())

	assert.Equal(t, Blocked, MoreRestrictive(Open, Blocked))
	assert.Equal(t, Terrain, MoreRestrictive(Terrain, OpenBorder))
	assert.Equal(t, OpenBorder, MoreRestrictive(Open, OpenBorder))
}

func TestParseNodeType(t *testing.T) {
	cases := map[string]NodeType{
		"blocked":     Blocked,
		"Terrain":     Terrain,
		"open-border": OpenBorder,
		"openborder":  OpenBorder,
		" open ":      Open,
	}
	for name, want := range cases {
		got, err := ParseNodeType(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseNodeType("lava")
	assert.ErrorIs(t, err, ErrUnknownNodeType)
}

func TestNodeType_TextRoundTrip(t *testing.T) {
	text, err := OpenBorder.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "open_border", string(text))

	var nt NodeType
	require.NoError(t, nt.UnmarshalText([]byte("terrain")))
	assert.Equal(t, Terrain, nt)
	assert.Error(t, nt.UnmarshalText([]byte("water")))
}

func TestNodeTypeSet(t *testing.T) {
	s := NewNodeTypeSet(Open, OpenBorder)
	assert.True(t, s.Has(Open))
	assert.False(t, s.Has(Blocked))
	assert.False(t, s.Has(NodeType(9)))

	assert.Equal(t, []NodeType{Blocked, Terrain}, s.Complement().Types())
	assert.Equal(t, []NodeType{Terrain, OpenBorder, Open}, s.Union(NewNodeTypeSet(Terrain)).Types())
}

func TestLayerMask(t *testing.T) {
	m := MaskOf(solidLayer, costLayer)
	assert.True(t, m.Contains(solidLayer))
	assert.True(t, m.Contains(costLayer))
	assert.False(t, m.Contains(terrainLayer))
	assert.False(t, m.Contains(Layer(40)))
	assert.True(t, AllLayers.Contains(Layer(31)))
}

func TestNodeClone_NoAliasing(t *testing.T) {
	n := Node{Costs: []LayerCost{{Layer: 1, Cost: 2}}, Neighbors: []Index{{X: 1}}}
	c := n.Clone()
	c.Costs[0].Cost = 9
	c.Neighbors[0] = Index{Z: 4}

	assert.Equal(t, 2.0, n.Costs[0].Cost)
	assert.Equal(t, Index{X: 1}, n.Neighbors[0])
}
