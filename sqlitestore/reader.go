package sqlitestore

import (
	"bytes"
	"fmt"
	"math"

	rialto "github.com/sixy6e/go-rialto"
)

// tileRect reconstructs a tile's lon/lat rectangle from its grid address.
// The world grid has NumCols*2^level columns spanning [WorldWest,WorldEast]
// and NumRows*2^level rows spanning [WorldSouth,WorldNorth]; every tile's
// width/height follows directly, since both roots subdivide uniformly.
func tileRect(level, x, y uint32) (west, south, east, north float64) {
	cols := float64(rialto.NumCols) * math.Pow(2, float64(level))
	rows := float64(rialto.NumRows) * math.Pow(2, float64(level))
	tw := (rialto.WorldEast - rialto.WorldWest) / cols
	th := (rialto.WorldNorth - rialto.WorldSouth) / rows

	west = rialto.WorldWest + float64(x)*tw
	east = west + tw
	south = rialto.WorldSouth + float64(y)*th
	north = south + th
	return west, south, east, north
}

// bboxIntersects reports whether the tile rectangle (west,south,east,north)
// overlaps bbox, given as (minx, miny, maxx, maxy).
func bboxIntersects(west, south, east, north float64, bbox [4]float64) bool {
	return east >= bbox[0] && west <= bbox[2] && north >= bbox[1] && south <= bbox[3]
}

// TileSetInfo mirrors RialtoDb::getTileSetInfo's result shape.
type TileSetInfo struct {
	ID            int64
	Name          string
	MaxLevel      uint32
	NumCols       int
	NumRows       int
	MinX, MinY    float64
	MaxX, MaxY    float64
	NumDimensions int
}

// ListTileSets returns every TileSets row.
func (s *Store) ListTileSets() ([]TileSetInfo, error) {
	rows, err := s.db.Query(`SELECT id, name, maxLevel, numCols, numRows, minx, miny, maxx, maxy, numDimensions FROM TileSets`)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: query TileSets: %w", err)
	}
	defer rows.Close()

	var out []TileSetInfo
	for rows.Next() {
		var info TileSetInfo
		if err := rows.Scan(&info.ID, &info.Name, &info.MaxLevel, &info.NumCols, &info.NumRows,
			&info.MinX, &info.MinY, &info.MaxX, &info.MaxY, &info.NumDimensions); err != nil {
			return nil, fmt.Errorf("sqlitestore: scan TileSets: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// TileSetInfoByID returns a single TileSets row.
func (s *Store) TileSetInfoByID(id int64) (TileSetInfo, error) {
	var info TileSetInfo
	row := s.db.QueryRow(`SELECT id, name, maxLevel, numCols, numRows, minx, miny, maxx, maxy, numDimensions FROM TileSets WHERE id = ?`, id)
	err := row.Scan(&info.ID, &info.Name, &info.MaxLevel, &info.NumCols, &info.NumRows,
		&info.MinX, &info.MinY, &info.MaxX, &info.MaxY, &info.NumDimensions)
	if err != nil {
		return info, fmt.Errorf("sqlitestore: TileSetInfoByID %d: %w", id, err)
	}
	return info, nil
}

// DimensionInfo returns the Dimensions row at position for a tile set, in
// the layout shape SummarizeDimensions/BuildHeader already use.
func (s *Store) DimensionInfo(tileSetID int64, position int) (rialto.DimensionSummary, error) {
	var d rialto.DimensionSummary
	var tag int64
	row := s.db.QueryRow(`SELECT position, name, dataType, minimum, mean, maximum FROM Dimensions WHERE tileSetId = ? AND position = ?`, tileSetID, position)
	if err := row.Scan(&d.Position, &d.Name, &tag, &d.Minimum, &d.Mean, &d.Maximum); err != nil {
		return d, fmt.Errorf("sqlitestore: DimensionInfo %d/%d: %w", tileSetID, position, err)
	}
	d.Type = rialto.TypeFromDataTypeTag(tag)
	return d, nil
}

// Dimensions returns every Dimensions row for a tile set, ordered by
// position, which is also the record layout order patches were encoded in.
func (s *Store) Dimensions(tileSetID int64) ([]rialto.DimensionSummary, error) {
	rows, err := s.db.Query(`SELECT position, name, dataType, minimum, mean, maximum FROM Dimensions WHERE tileSetId = ? ORDER BY position`, tileSetID)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: query Dimensions: %w", err)
	}
	defer rows.Close()

	var out []rialto.DimensionSummary
	for rows.Next() {
		var d rialto.DimensionSummary
		var tag int64
		if err := rows.Scan(&d.Position, &d.Name, &tag, &d.Minimum, &d.Mean, &d.Maximum); err != nil {
			return nil, fmt.Errorf("sqlitestore: scan Dimensions: %w", err)
		}
		d.Type = rialto.TypeFromDataTypeTag(tag)
		out = append(out, d)
	}
	return out, rows.Err()
}

// TileIdsAtLevel returns the Tiles.id values for every tile at level.
func (s *Store) TileIdsAtLevel(tileSetID int64, level uint32) ([]int64, error) {
	rows, err := s.db.Query(`SELECT id FROM Tiles WHERE tileSetId = ? AND level = ?`, tileSetID, level)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: query Tiles: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlitestore: scan Tiles: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// TileRow is one Tiles table row.
type TileRow struct {
	ID    int64
	Level uint32
	X, Y  uint32
	Mask  uint8
	Patch []byte
}

// Tile fetches a single Tiles row by id. withPoints controls whether the
// patch blob is read; skipping it is cheap when only mask/location is
// needed.
func (s *Store) Tile(id int64, withPoints bool) (TileRow, error) {
	var t TileRow
	if withPoints {
		row := s.db.QueryRow(`SELECT id, level, x, y, mask, patch FROM Tiles WHERE id = ?`, id)
		if err := row.Scan(&t.ID, &t.Level, &t.X, &t.Y, &t.Mask, &t.Patch); err != nil {
			return t, fmt.Errorf("sqlitestore: Tile %d: %w", id, err)
		}
		return t, nil
	}
	row := s.db.QueryRow(`SELECT id, level, x, y, mask FROM Tiles WHERE id = ?`, id)
	if err := row.Scan(&t.ID, &t.Level, &t.X, &t.Y, &t.Mask); err != nil {
		return t, fmt.Errorf("sqlitestore: Tile %d: %w", id, err)
	}
	return t, nil
}

// Query reconstructs a single PointView containing every point from tiles
// in [minLevel, maxLevel] whose tile rectangle intersects bbox
// (minx, miny, maxx, maxy), decoding and concatenating their patches.
func (s *Store) Query(tileSetID int64, bbox [4]float64, minLevel, maxLevel uint32, layout *rialto.PointLayout, table *rialto.RawPointTable) (*rialto.PointView, error) {
	dims, err := s.Dimensions(tileSetID)
	if err != nil {
		return nil, err
	}
	layoutDims := make([]rialto.Dimension, 0, len(dims))
	for _, d := range dims {
		dim, ok := layout.Lookup(d.Name)
		if !ok {
			return nil, fmt.Errorf("sqlitestore: query: dimension %q not in layout", d.Name)
		}
		layoutDims = append(layoutDims, dim)
	}

	recordSize := 0
	for _, d := range layoutDims {
		recordSize += d.Type.Size()
	}

	rows, err := s.db.Query(
		`SELECT level, x, y, patch FROM Tiles WHERE tileSetId = ? AND level >= ? AND level <= ?`,
		tileSetID, minLevel, maxLevel,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: query Tiles: %w", err)
	}
	defer rows.Close()

	view := rialto.NewPointView(table)
	for rows.Next() {
		var level, x, y uint32
		var patch []byte
		if err := rows.Scan(&level, &x, &y, &patch); err != nil {
			return nil, fmt.Errorf("sqlitestore: scan Tiles: %w", err)
		}
		west, south, east, north := tileRect(level, x, y)
		if !bboxIntersects(west, south, east, north, bbox) {
			continue
		}
		if recordSize == 0 || len(patch)%recordSize != 0 {
			continue
		}
		n := len(patch) / recordSize
		stream := bytes.NewReader(patch)
		if err := rialto.DecodePatch(stream, layoutDims, recordSize, n, view); err != nil {
			return nil, fmt.Errorf("sqlitestore: decoding patch: %w", err)
		}
	}
	return view, rows.Err()
}
