package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinmap.ai/spatial"
)

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{
		"north": North, "N": North,
		"south": South, "s": South,
		" East ": East, "e": East,
		"WEST": West, "w": West,
	} {
		d, err := ParseDirection(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, d, in)
	}

	_, err := ParseDirection("up")
	assert.Error(t, err)
	_, err = ParseDirection("")
	assert.Error(t, err)
}

func TestPlayerMove(t *testing.T) {
	grid := spatial.NewGrid(spatial.DefaultCellSize)
	p := NewPlayer(testStart)
	origin := grid.CellOf(p.Position)

	for _, tc := range []struct {
		d      Direction
		di, dj int
	}{
		{North, 1, 0},
		{South, -1, 0},
		{East, 0, 1},
		{West, 0, -1},
	} {
		p := NewPlayer(testStart)
		p.Move(tc.d, spatial.DefaultCellSize)
		assert.Equal(t, spatial.CellID{I: origin.I + tc.di, J: origin.J + tc.dj}, grid.CellOf(p.Position), string(tc.d))
		assert.Len(t, p.Trail(), 2)
	}

	p.Move(North, spatial.DefaultCellSize)
	p.Move(South, spatial.DefaultCellSize)
	assert.InDelta(t, testStart.Lat, p.Position.Lat, 1e-12)
	assert.InDelta(t, testStart.Lng, p.Position.Lng, 1e-12)
	assert.Len(t, p.Trail(), 3)
	assert.Equal(t, origin, grid.CellOf(p.Position))
}

func TestPlayerTrailIsCopy(t *testing.T) {
	p := NewPlayer(testStart)
	trail := p.Trail()
	trail[0] = spatial.GeoPoint{}
	assert.Equal(t, testStart, p.Trail()[0])
}

func TestInventoryStack(t *testing.T) {
	var inv Inventory
	_, ok := inv.Pop()
	assert.False(t, ok)

	a := spatial.Coin{Cell: spatial.CellID{I: 1, J: 2}, Serial: 0}
	b := spatial.Coin{Cell: spatial.CellID{I: 3, J: 4}, Serial: 1}
	inv.Push(a)
	inv.Push(b)
	assert.Equal(t, 2, inv.Len())
	assert.True(t, inv.Contains(a))
	assert.Equal(t, []spatial.Coin{a, b}, inv.Coins())

	top, ok := inv.Pop()
	require.True(t, ok)
	assert.Equal(t, b, top)
	assert.False(t, inv.Contains(b))
	assert.Equal(t, 1, inv.Len())
}
