package sqlitestore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rialto "github.com/sixy6e/go-rialto"
)

var fixturePoints = [][2]float64{
	{-179, 89}, {-1, 89}, {-179, -89}, {-1, -89},
	{89, 1}, {91, 1}, {89, -1}, {91, -1},
}

func buildResult(t *testing.T, maxLevel uint32, points [][2]float64) (*rialto.PointLayout, rialto.Result) {
	t.Helper()
	layout := rialto.NewPointLayout()
	_, err := layout.Register("X", rialto.TypeF64)
	require.NoError(t, err)
	_, err = layout.Register("Y", rialto.TypeF64)
	require.NoError(t, err)

	table := rialto.NewRawPointTable(layout)
	input := rialto.NewPointView(table)
	dx, _ := layout.Lookup("X")
	dy, _ := layout.Lookup("Y")
	for _, p := range points {
		i := input.Len()
		input.AppendRaw()
		require.NoError(t, input.SetFieldFromFloat64(dx, i, p[0]))
		require.NoError(t, input.SetFieldFromFloat64(dy, i, p[1]))
	}

	tiler := rialto.NewTiler(rialto.Config{MaxLevel: maxLevel})
	require.NoError(t, tiler.Ready(layout))
	require.NoError(t, tiler.Run(input))
	result, err := tiler.Finish("test-set", layout, input)
	require.NoError(t, err)
	return layout, result
}

var fixturePoints3D = [][3]float64{
	{-179, 89, 0}, {-1, 89, 11}, {-179, -89, 22}, {-1, -89, 33},
	{89, 1, 44}, {91, 1, 55}, {89, -1, 66}, {91, -1, 77},
}

// buildResult3D mirrors buildResult but registers X, Y, and Z (all f64),
// reproducing SPEC_FULL.md §8's worked example.
func buildResult3D(t *testing.T, maxLevel uint32, points [][3]float64) (*rialto.PointLayout, rialto.Result) {
	t.Helper()
	layout := rialto.NewPointLayout()
	_, err := layout.Register("X", rialto.TypeF64)
	require.NoError(t, err)
	_, err = layout.Register("Y", rialto.TypeF64)
	require.NoError(t, err)
	_, err = layout.Register("Z", rialto.TypeF64)
	require.NoError(t, err)

	table := rialto.NewRawPointTable(layout)
	input := rialto.NewPointView(table)
	dx, _ := layout.Lookup("X")
	dy, _ := layout.Lookup("Y")
	dz, _ := layout.Lookup("Z")
	for _, p := range points {
		i := input.Len()
		input.AppendRaw()
		require.NoError(t, input.SetFieldFromFloat64(dx, i, p[0]))
		require.NoError(t, input.SetFieldFromFloat64(dy, i, p[1]))
		require.NoError(t, input.SetFieldFromFloat64(dz, i, p[2]))
	}

	tiler := rialto.NewTiler(rialto.Config{MaxLevel: maxLevel})
	require.NoError(t, tiler.Ready(layout))
	require.NoError(t, tiler.Run(input))
	result, err := tiler.Finish("test-set-3d", layout, input)
	require.NoError(t, err)
	return layout, result
}

// TestWriteWorkedExampleThreeDimensions reproduces SPEC_FULL.md §8's
// literal end-to-end scenario: 3 dimensions (X, Y, Z), 8 canonical points,
// maxLevel 2. tile_set_info must report numDimensions=3 and the documented
// bbox/maxLevel/numCols/numRows; tile_ids_at_level must return 1, 2, and 8
// tiles at levels 0, 1, and 2 respectively; every patch blob must be
// exactly 24 bytes (three f64 dimensions).
func TestWriteWorkedExampleThreeDimensions(t *testing.T) {
	layout, result := buildResult3D(t, 2, fixturePoints3D)
	store := openTestStore(t)

	id, err := store.Write(layout, result)
	require.NoError(t, err)

	info, err := store.TileSetInfoByID(id)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), info.MaxLevel)
	assert.Equal(t, 2, info.NumCols)
	assert.Equal(t, 1, info.NumRows)
	assert.Equal(t, 3, info.NumDimensions)
	assert.Equal(t, rialto.WorldWest, info.MinX)
	assert.Equal(t, rialto.WorldSouth, info.MinY)
	assert.Equal(t, rialto.WorldEast, info.MaxX)
	assert.Equal(t, rialto.WorldNorth, info.MaxY)

	for level, want := range map[uint32]int{0: 1, 1: 2, 2: 8} {
		ids, err := store.TileIdsAtLevel(id, level)
		require.NoError(t, err)
		assert.Len(t, ids, want, "level %d", level)

		for _, tid := range ids {
			row, err := store.Tile(tid, true)
			require.NoError(t, err)
			if len(row.Patch) == 0 {
				continue
			}
			assert.Equal(t, 24, len(row.Patch), "tile %d: patch length %d, want exactly 24", tid, len(row.Patch))
		}
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tiles.sqlite")
	store, err := Create(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestWriteThenListTileSets(t *testing.T) {
	layout, result := buildResult(t, 2, fixturePoints)
	store := openTestStore(t)

	id, err := store.Write(layout, result)
	require.NoError(t, err)

	sets, err := store.ListTileSets()
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, id, sets[0].ID)
	assert.Equal(t, "test-set", sets[0].Name)
	assert.Equal(t, uint32(2), sets[0].MaxLevel)
	assert.Equal(t, 2, sets[0].NumDimensions)
}

func TestWriteThenDimensionsOrderedByPosition(t *testing.T) {
	layout, result := buildResult(t, 2, fixturePoints)
	store := openTestStore(t)

	id, err := store.Write(layout, result)
	require.NoError(t, err)

	dims, err := store.Dimensions(id)
	require.NoError(t, err)
	require.Len(t, dims, 2)
	assert.Equal(t, "X", dims[0].Name)
	assert.Equal(t, "Y", dims[1].Name)
	assert.Equal(t, rialto.TypeF64, dims[0].Type)
}

func TestWriteThenTileIdsAtLevel(t *testing.T) {
	layout, result := buildResult(t, 2, fixturePoints)
	store := openTestStore(t)

	id, err := store.Write(layout, result)
	require.NoError(t, err)

	rootIds, err := store.TileIdsAtLevel(id, 0)
	require.NoError(t, err)
	assert.Len(t, rootIds, 2)

	for _, tid := range rootIds {
		row, err := store.Tile(tid, true)
		require.NoError(t, err)
		assert.Equal(t, uint32(0), row.Level)
		assert.NotEmpty(t, row.Patch)
	}
}

func TestQueryReconstructsAllPointsWithinFullBBox(t *testing.T) {
	layout, result := buildResult(t, 2, fixturePoints)
	store := openTestStore(t)

	id, err := store.Write(layout, result)
	require.NoError(t, err)

	queryTable := rialto.NewRawPointTable(layout)
	full := [4]float64{rialto.WorldWest, rialto.WorldSouth, rialto.WorldEast, rialto.WorldNorth}
	view, err := store.Query(id, full, 0, 2, layout, queryTable)
	require.NoError(t, err)
	assert.Greater(t, view.Len(), 0)
}

func TestQueryBBoxExcludesDistantHemisphere(t *testing.T) {
	layout, result := buildResult(t, 2, fixturePoints)
	store := openTestStore(t)

	id, err := store.Write(layout, result)
	require.NoError(t, err)

	queryTable := rialto.NewRawPointTable(layout)
	// Query only the far east hemisphere corner; west-hemisphere tiles at
	// level 0 and below must not contribute any points.
	eastOnly := [4]float64{60, -90, 180, 90}
	view, err := store.Query(id, eastOnly, 0, 2, layout, queryTable)
	require.NoError(t, err)

	dx, _ := layout.Lookup("X")
	for i := 0; i < view.Len(); i++ {
		assert.GreaterOrEqual(t, view.GetFieldAsFloat64(dx, i), 0.0)
	}
}

func TestQueryLevelRangeExcludesLeaves(t *testing.T) {
	layout, result := buildResult(t, 2, fixturePoints)
	store := openTestStore(t)

	id, err := store.Write(layout, result)
	require.NoError(t, err)

	queryTable := rialto.NewRawPointTable(layout)
	full := [4]float64{rialto.WorldWest, rialto.WorldSouth, rialto.WorldEast, rialto.WorldNorth}
	rootsOnly, err := store.Query(id, full, 0, 0, layout, queryTable)
	require.NoError(t, err)

	allLevels, err := store.Query(id, full, 0, 2, layout, rialto.NewRawPointTable(layout))
	require.NoError(t, err)

	assert.LessOrEqual(t, rootsOnly.Len(), allLevels.Len())
}
