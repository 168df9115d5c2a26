package rialto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildInputView returns an input view plus the exact *RawPointTable it is
// bound to. Every tile a TileSet grows aliases rows out of the table it was
// constructed with, so any test that feeds AddPoint from this view must
// build its TileSet over this same table.
func buildInputView(t *testing.T, points [][2]float64) (*PointLayout, *RawPointTable, *PointView) {
	t.Helper()
	layout := NewPointLayout()
	dx, err := layout.Register("X", TypeF64)
	require.NoError(t, err)
	dy, err := layout.Register("Y", TypeF64)
	require.NoError(t, err)
	_, err = layout.Register("Z", TypeF64)
	require.NoError(t, err)

	table := NewRawPointTable(layout)
	view := NewPointView(table)
	for _, p := range points {
		i := view.Len()
		view.AppendRaw()
		require.NoError(t, view.SetFieldFromFloat64(dx, i, p[0]))
		require.NoError(t, view.SetFieldFromFloat64(dy, i, p[1]))
	}
	return layout, table, view
}

var canonicalPoints = [][2]float64{
	{-179, 89}, {-1, 89}, {-179, -89}, {-1, -89},
	{89, 1}, {91, 1}, {89, -1}, {91, -1},
}

func TestNewTileSetRejectsMaxLevelOutOfRange(t *testing.T) {
	layout := NewPointLayout()
	table := NewRawPointTable(layout)
	_, err := NewTileSet(31, table)
	assert.ErrorIs(t, err, ErrMaxLevelOutOfRange)
}

func TestAddPointRejectsOutOfWorld(t *testing.T) {
	_, table, input := buildInputView(t, [][2]float64{{0, 0}})
	ts, err := NewTileSet(2, table)
	require.NoError(t, err)

	err = ts.AddPoint(input, 0, 200, 0)
	assert.ErrorIs(t, err, ErrPointOutOfWorld)
}

func TestMaskMatchesPopulatedChildren(t *testing.T) {
	layout, table, input := buildInputView(t, canonicalPoints)
	ts, err := NewTileSet(2, table)
	require.NoError(t, err)

	dx, _ := layout.Lookup("X")
	dy, _ := layout.Lookup("Y")
	for i := 0; i < input.Len(); i++ {
		require.NoError(t, ts.AddPoint(input, i, input.GetFieldAsFloat64(dx, i), input.GetFieldAsFloat64(dy, i)))
	}
	ts.SetMasks()

	metas, _ := ts.Emit()
	byCoord := make(map[[3]uint32]TileMeta)
	for _, m := range metas {
		byCoord[[3]uint32{m.Level, m.TileX, m.TileY}] = m
	}

	for _, m := range metas {
		var want uint8
		for q := 0; q < 4; q++ {
			nx := m.TileX * 2
			ny := m.TileY * 2
			if q&1 != 0 {
				nx++
			}
			if q&2 != 0 {
				ny++
			}
			if _, ok := byCoord[[3]uint32{m.Level + 1, nx, ny}]; ok {
				want |= 1 << uint(q)
			}
		}
		assert.Equal(t, want, m.Mask, "tile (%d,%d,%d)", m.Level, m.TileX, m.TileY)
	}
}

func TestEndToEndCascadeCompleteness(t *testing.T) {
	const maxLevel = 2
	layout, table, input := buildInputView(t, canonicalPoints)
	ts, err := NewTileSet(maxLevel, table)
	require.NoError(t, err)

	dx, _ := layout.Lookup("X")
	dy, _ := layout.Lookup("Y")
	for i := 0; i < input.Len(); i++ {
		require.NoError(t, ts.AddPoint(input, i, input.GetFieldAsFloat64(dx, i), input.GetFieldAsFloat64(dy, i)))
	}
	ts.SetMasks()

	metas, views := ts.Emit()
	require.NotEmpty(t, views)

	// Every emitted view must be non-empty (Emit only collects non-empty views).
	for _, v := range views {
		assert.False(t, v.Empty())
	}

	// Every leaf tile (level == maxLevel) that owns a view holds exactly the
	// points whose lineage passes through it; every leaf's point count,
	// summed across the tree, equals the total input size (every point
	// reaches exactly one leaf).
	leafTotal := 0
	for _, m := range metas {
		if m.Level == maxLevel && m.HasView {
			for _, v := range views {
				if v.ID == m.PointView {
					leafTotal += v.Len()
				}
			}
		}
	}
	assert.Equal(t, input.Len(), leafTotal)

	tilesPerLevel, pointsPerLevel := ts.Stats()
	assert.Equal(t, 2, tilesPerLevel[0]) // two world roots
	assert.Equal(t, input.Len(), pointsPerLevel[maxLevel])

	// This fixture matches the PDAL tiler filter's canonical 8-point unit
	// test: the same points, the same maxLevel, and the same cascade rule
	// produce 18 tile nodes and 11 non-empty views.
	assert.Len(t, metas, 18)
	assert.Len(t, views, 11)
}

func TestCascadeKeepsFirstPointAtEachNewTile(t *testing.T) {
	layout, table, input := buildInputView(t, [][2]float64{{-179, 89}})
	ts, err := NewTileSet(2, table)
	require.NoError(t, err)

	dx, _ := layout.Lookup("X")
	dy, _ := layout.Lookup("Y")
	require.NoError(t, ts.AddPoint(input, 0, input.GetFieldAsFloat64(dx, 0), input.GetFieldAsFloat64(dy, 0)))
	ts.SetMasks()

	_, views := ts.Emit()
	// A single point traveling down to a fresh leaf is kept at every level
	// along its own lineage (root, each intermediate, and the leaf).
	assert.GreaterOrEqual(t, len(views), 1)
	for _, v := range views {
		assert.Equal(t, 1, v.Len())
	}
}

func TestCascadeSkipCounterDecimatesAtRoot(t *testing.T) {
	// 20 points all landing in the same root and same child quadrant at
	// every level exercise the skip counter repeatedly rather than only
	// ever hitting it once.
	pts := make([][2]float64, 20)
	for i := range pts {
		pts[i] = [2]float64{-170, 80}
	}
	layout, table, input := buildInputView(t, pts)
	ts, err := NewTileSet(1, table)
	require.NoError(t, err)

	dx, _ := layout.Lookup("X")
	dy, _ := layout.Lookup("Y")
	for i := 0; i < input.Len(); i++ {
		require.NoError(t, ts.AddPoint(input, i, input.GetFieldAsFloat64(dx, i), input.GetFieldAsFloat64(dy, i)))
	}
	ts.SetMasks()

	_, pointsPerLevel := ts.Stats()
	// maxLevel=1: root keeps every 4th point (4^(1-0)=4): ceil(20/4)=5.
	// leaf (level 1) keeps every point: 20.
	assert.Equal(t, 5, pointsPerLevel[0])
	assert.Equal(t, 20, pointsPerLevel[1])
}
