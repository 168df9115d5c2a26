package rialto

// Tile is one quadtree cell. It owns a PointView holding the points kept
// at this node by the skip cascade, up to four children, and the 4-bit
// mask of which children exist.
type Tile struct {
	tileSet  *TileSet
	Level    uint32
	TileX    uint32
	TileY    uint32
	rect     Rectangle
	children [4]*Tile
	skip     uint64
	view     *PointView
	Mask     uint8
}

func newTile(ts *TileSet, level, tx, ty uint32, rect Rectangle) *Tile {
	return &Tile{tileSet: ts, Level: level, TileX: tx, TileY: ty, rect: rect}
}

// Children returns the tile's four child slots in quadrant order; a nil
// entry means that quadrant was never populated.
func (t *Tile) Children() [4]*Tile {
	return t.children
}

// View returns the tile's own PointView, or nil if the tile has never kept
// a point (can happen for interior nodes whose skip cascade never landed
// on them, though every emitting ancestor keeps at least one point on its
// own first visit).
func (t *Tile) View() *PointView {
	return t.view
}

// add runs the skip-cascade insertion rule for a single point arriving at
// this tile, recursing into the appropriate child until maxLevel is
// reached. See SPEC_FULL.md §4.F for the algorithm this implements.
func (t *Tile) add(source *PointView, pid int, lon, lat float64) error {
	maxLevel := t.tileSet.maxLevel

	if t.Level == maxLevel {
		t.ensureView().AppendFrom(source, pid)
		return nil
	}

	if t.skip == 0 {
		t.ensureView().AppendFrom(source, pid)
		t.skip = pow4(maxLevel - t.Level)
	}
	t.skip--

	q := t.rect.QuadrantOf(lon, lat)
	child := t.children[q]
	if child == nil {
		childRect, err := t.rect.Child(q)
		if err != nil {
			return err
		}
		tx, ty := childCoords(t.TileX, t.TileY, q)
		child = newTile(t.tileSet, t.Level+1, tx, ty, childRect)
		t.children[q] = child
	}
	return child.add(source, pid, lon, lat)
}

func (t *Tile) ensureView() *PointView {
	if t.view == nil {
		t.view = NewPointView(t.tileSet.table)
	}
	return t.view
}

func childCoords(tx, ty uint32, q Quadrant) (uint32, uint32) {
	nx := tx * 2
	ny := ty * 2
	if q&1 != 0 {
		nx++
	}
	if q&2 != 0 {
		ny++
	}
	return nx, ny
}

func pow4(exp uint32) uint64 {
	r := uint64(1)
	for i := uint32(0); i < exp; i++ {
		r *= 4
	}
	return r
}

// setMasks walks the subtree post-order, setting Mask to the bitwise union
// of 1<<q for every populated child quadrant.
func (t *Tile) setMasks() {
	var mask uint8
	for q, c := range t.children {
		if c == nil {
			continue
		}
		c.setMasks()
		mask |= 1 << uint(q)
	}
	t.Mask = mask
}

// collectStats accumulates per-level tile and point counts across the
// subtree rooted at t.
func (t *Tile) collectStats(tilesPerLevel, pointsPerLevel map[uint32]int) {
	tilesPerLevel[t.Level]++
	if t.view != nil {
		pointsPerLevel[t.Level] += t.view.Len()
	}
	for _, c := range t.children {
		if c != nil {
			c.collectStats(tilesPerLevel, pointsPerLevel)
		}
	}
}

// TileMeta is the metadata emitted for one tile.
type TileMeta struct {
	Level     uint32
	TileX     uint32
	TileY     uint32
	Mask      uint8
	PointView uint64 // view.ID; 0 (no valid view ID) if the tile owns no view
	HasView   bool
}

// walkMetadata appends this tile's metadata and, in quadrant order, its
// children's, and collects every non-empty view into views.
func (t *Tile) walkMetadata(metas *[]TileMeta, views *[]*PointView) {
	m := TileMeta{Level: t.Level, TileX: t.TileX, TileY: t.TileY, Mask: t.Mask}
	if t.view != nil && !t.view.Empty() {
		m.PointView = t.view.ID
		m.HasView = true
		*views = append(*views, t.view)
	}
	*metas = append(*metas, m)

	for q := 0; q < 4; q++ {
		if c := t.children[q]; c != nil {
			c.walkMetadata(metas, views)
		}
	}
}
