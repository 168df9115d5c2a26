package rialto

import "fmt"

// Config holds the tiler's one recognized option, per SPEC_FULL.md §6.
type Config struct {
	MaxLevel uint32
}

// Tiler adapts a single streaming input PointView into a TileSet, then
// emits the set of non-empty per-tile views plus the metadata tree. One
// Tiler processes one input view per Run call; Ready must be called once,
// beforehand, with the input's layout.
type Tiler struct {
	cfg    Config
	layout *PointLayout
	table  *RawPointTable
	tiles  *TileSet
}

// NewTiler constructs a Tiler for cfg. Call Ready before Run.
func NewTiler(cfg Config) *Tiler {
	return &Tiler{cfg: cfg}
}

// Ready validates layout has X/Y/Z and allocates the output point table
// and tile set that every subsequent Run call will insert into.
func (t *Tiler) Ready(layout *PointLayout) error {
	if !layout.HasXYZ() {
		return ErrMissingXYZ
	}

	t.layout = layout
	t.table = NewRawPointTable(layout)
	ts, err := NewTileSet(t.cfg.MaxLevel, t.table)
	if err != nil {
		return err
	}
	t.tiles = ts
	return nil
}

// Run inserts every committed row of view into the tile set, in index
// order. May be called more than once across several input chunks before
// Finish.
//
// Every tile in the tree that keeps a point aliases that row in t.table,
// the single arena the whole TileSet shares, so a chunk arriving in a view
// bound to some other table (a reader's own staging buffer, say) is copied
// in row-by-row first.
func (t *Tiler) Run(view *PointView) error {
	if t.tiles == nil {
		return fmt.Errorf("tiler: Run called before Ready")
	}

	dx, _ := t.layout.Lookup("X")
	dy, _ := t.layout.Lookup("Y")
	dims := t.layout.Dims()

	local := NewPointView(t.table)
	buf := make([]byte, t.layout.PointSize())
	for i := 0; i < view.Len(); i++ {
		local.AppendRaw()
		row := local.Len() - 1
		view.GetPacked(dims, i, buf)
		local.SetPacked(dims, row, buf)

		lon := local.GetFieldAsFloat64(dx, row)
		lat := local.GetFieldAsFloat64(dy, row)
		if err := t.tiles.AddPoint(local, row, lon, lat); err != nil {
			return err
		}
	}
	return nil
}

// Result is what Finish returns: the emitted views plus the full metadata
// tree, ready to hand to any of the persistence backends.
type Result struct {
	TileSet *TileSet
	Meta    TileSetMeta
	Views   []*PointView
}

// Finish computes masks, builds the metadata tree, and returns the emitted
// non-empty views. No further Run calls are valid afterward.
func (t *Tiler) Finish(name string, inputLayout *PointLayout, inputView *PointView) (Result, error) {
	if t.tiles == nil {
		return Result{}, fmt.Errorf("tiler: Finish called before Ready")
	}

	t.tiles.SetMasks()
	tileMetas, views := t.tiles.Emit()
	dimSummaries := SummarizeDimensions(inputLayout, inputView)
	meta := BuildTileSetMeta(name, t.tiles, dimSummaries, tileMetas)

	return Result{TileSet: t.tiles, Meta: meta, Views: views}, nil
}
