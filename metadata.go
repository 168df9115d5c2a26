package rialto

// DimensionSummary is the per-dimension statistic recorded in header.json
// and the SQLite Dimensions table: position in the layout, storage type,
// and the observed min/mean/max across the full input.
type DimensionSummary struct {
	Position int
	Name     string
	Type     Type
	Minimum  float64
	Mean     float64
	Maximum  float64
}

// SummarizeDimensions scans view for the min/mean/max of every dimension
// in layout order. Used once, over the tiler's input view, to populate the
// header/Dimensions metadata that every persistence backend shares.
func SummarizeDimensions(layout *PointLayout, view *PointView) []DimensionSummary {
	dims := layout.Dims()
	out := make([]DimensionSummary, len(dims))

	for pos, d := range dims {
		s := DimensionSummary{Position: pos, Name: d.Name, Type: d.Type}
		n := view.Len()
		if n > 0 {
			sum := 0.0
			s.Minimum = view.GetFieldAsFloat64(d, 0)
			s.Maximum = s.Minimum
			for i := 0; i < n; i++ {
				v := view.GetFieldAsFloat64(d, i)
				sum += v
				if v < s.Minimum {
					s.Minimum = v
				}
				if v > s.Maximum {
					s.Maximum = v
				}
			}
			s.Mean = sum / float64(n)
		}
		out[pos] = s
	}
	return out
}

// TileSetMeta is the whole-tree summary that accompanies the per-tile list:
// bbox, depth, grid shape, and the dimension summaries, matching RialtoDb's
// TileSetInfo plus the header.json top-level fields.
type TileSetMeta struct {
	Name       string
	MaxLevel   uint32
	NumCols    int
	NumRows    int
	MinX       float64
	MinY       float64
	MaxX       float64
	MaxY       float64
	Dimensions []DimensionSummary
	Tiles      []TileMeta
}

// BuildTileSetMeta assembles the whole-tree metadata after SetMasks/Emit
// have run.
func BuildTileSetMeta(name string, ts *TileSet, dims []DimensionSummary, tiles []TileMeta) TileSetMeta {
	return TileSetMeta{
		Name:       name,
		MaxLevel:   ts.MaxLevel(),
		NumCols:    NumCols,
		NumRows:    NumRows,
		MinX:       WorldWest,
		MinY:       WorldSouth,
		MaxX:       WorldEast,
		MaxY:       WorldNorth,
		Dimensions: dims,
		Tiles:      tiles,
	}
}
