package rialto

import (
	"fmt"
	"sync/atomic"
)

var viewIDCounter atomic.Uint64

func nextViewID() uint64 {
	return viewIDCounter.Add(1)
}

// PointView is an ordered projection of PointIds into a shared
// RawPointTable. Views never own bytes; they alias rows, which is what
// lets a tile's view and its ancestors' views reference the very same
// underlying point without copying.
type PointView struct {
	ID      uint64
	table   *RawPointTable
	index   []PointId
	size    int // committed length; entries beyond this are scratch rows
	tempIDs []int
}

// NewPointView returns an empty view bound to table.
func NewPointView(table *RawPointTable) *PointView {
	return &PointView{ID: nextViewID(), table: table}
}

// Len returns the number of committed rows.
func (v *PointView) Len() int {
	return v.size
}

// Empty reports whether the view has no committed rows.
func (v *PointView) Empty() bool {
	return v.size == 0
}

// AppendRaw allocates a fresh row in the backing table and appends it.
func (v *PointView) AppendRaw() PointId {
	id := v.table.AddPoint()
	v.pushCommitted(id)
	return id
}

// AppendFrom appends other's row at index i by reference (no copy).
func (v *PointView) AppendFrom(other *PointView, i int) {
	v.pushCommitted(other.index[i])
}

func (v *PointView) pushCommitted(id PointId) {
	if v.size < len(v.index) {
		v.index[v.size] = id
	} else {
		v.index = append(v.index, id)
	}
	v.size++
}

// RowID returns the backing PointId for committed row i.
func (v *PointView) RowID(i int) PointId {
	return v.index[i]
}

// GetFieldAsFloat64 reads row i's dim value, converting from its native
// storage type.
func (v *PointView) GetFieldAsFloat64(dim Dimension, i int) float64 {
	return v.table.GetFloat64(dim, v.index[i])
}

// SetFieldFromFloat64 writes val into row i's dim, with range-checked
// round-to-even conversion into the dimension's storage type.
func (v *PointView) SetFieldFromFloat64(dim Dimension, i int, val float64) error {
	return v.table.SetFloat64(dim, v.index[i], val)
}

// GetFieldAsInt64 reads row i's dim value as its native signed-integer
// representation, without transiting float64. Valid only for signed
// integer dimensions.
func (v *PointView) GetFieldAsInt64(dim Dimension, i int) (int64, error) {
	return v.table.GetInt64(dim, v.index[i])
}

// SetFieldFromInt64 writes val into row i's dim using the native
// signed-integer path; an equal-type (I64) target is a direct write with
// no rounding. Valid only for signed integer dimensions.
func (v *PointView) SetFieldFromInt64(dim Dimension, i int, val int64) error {
	return v.table.SetInt64(dim, v.index[i], val)
}

// GetFieldAsUint64 is GetFieldAsInt64's unsigned counterpart. Valid only
// for unsigned integer dimensions.
func (v *PointView) GetFieldAsUint64(dim Dimension, i int) (uint64, error) {
	return v.table.GetUint64(dim, v.index[i])
}

// SetFieldFromUint64 is SetFieldFromInt64's unsigned counterpart. Valid
// only for unsigned integer dimensions.
func (v *PointView) SetFieldFromUint64(dim Dimension, i int, val uint64) error {
	return v.table.SetUint64(dim, v.index[i], val)
}

// GetRaw copies row i's dim bytes into out.
func (v *PointView) GetRaw(dim Dimension, i int, out []byte) {
	v.table.GetField(dim, v.index[i], out)
}

// SetRaw copies in into row i's dim bytes.
func (v *PointView) SetRaw(dim Dimension, i int, in []byte) {
	v.table.SetField(dim, v.index[i], in)
}

// GetPacked walks dims in order, copying each into out at increasing
// offsets — used by the binary patch codec to serialize a full record.
func (v *PointView) GetPacked(dims []Dimension, i int, out []byte) {
	off := 0
	for _, d := range dims {
		sz := d.Type.Size()
		v.GetRaw(d, i, out[off:off+sz])
		off += sz
	}
}

// SetPacked is the inverse of GetPacked.
func (v *PointView) SetPacked(dims []Dimension, i int, in []byte) {
	off := 0
	for _, d := range dims {
		sz := d.Type.Size()
		v.SetRaw(d, i, in[off:off+sz])
		off += sz
	}
}

// Bounds is an axis-aligned 3-D bounding box.
type Bounds struct {
	MinX, MinY, MinZ float64
	MaxX, MaxY, MaxZ float64
}

// CalculateBounds scans all committed rows for the view's X/Y(/Z) extent.
// Fails with ErrMissingXYZ if the required dimensions are absent.
func (v *PointView) CalculateBounds(is3D bool) (Bounds, error) {
	layout := v.table.Layout()
	dx, okX := layout.Lookup("X")
	dy, okY := layout.Lookup("Y")
	if !okX || !okY {
		return Bounds{}, ErrMissingXYZ
	}
	var dz Dimension
	var okZ bool
	if is3D {
		dz, okZ = layout.Lookup("Z")
		if !okZ {
			return Bounds{}, ErrMissingXYZ
		}
	}

	if v.size == 0 {
		return Bounds{}, nil
	}

	b := Bounds{
		MinX: v.GetFieldAsFloat64(dx, 0), MaxX: v.GetFieldAsFloat64(dx, 0),
		MinY: v.GetFieldAsFloat64(dy, 0), MaxY: v.GetFieldAsFloat64(dy, 0),
	}
	if is3D {
		z0 := v.GetFieldAsFloat64(dz, 0)
		b.MinZ, b.MaxZ = z0, z0
	}

	for i := 1; i < v.size; i++ {
		x := v.GetFieldAsFloat64(dx, i)
		y := v.GetFieldAsFloat64(dy, i)
		if x < b.MinX {
			b.MinX = x
		}
		if x > b.MaxX {
			b.MaxX = x
		}
		if y < b.MinY {
			b.MinY = y
		}
		if y > b.MaxY {
			b.MaxY = y
		}
		if is3D {
			z := v.GetFieldAsFloat64(dz, i)
			if z < b.MinZ {
				b.MinZ = z
			}
			if z > b.MaxZ {
				b.MaxZ = z
			}
		}
	}
	return b, nil
}

// TempRow returns a scratch row beyond the committed size, reusing a freed
// slot from the temp free-list (a simple stack) when available. Released
// with FreeTemp.
func (v *PointView) TempRow() int {
	if n := len(v.tempIDs); n > 0 {
		id := v.tempIDs[n-1]
		v.tempIDs = v.tempIDs[:n-1]
		return id
	}
	if v.size < len(v.index) {
		return v.size
	}
	v.index = append(v.index, v.table.AddPoint())
	return len(v.index) - 1
}

// FreeTemp returns row i to the free list for reuse by a later TempRow.
func (v *PointView) FreeTemp(i int) {
	v.tempIDs = append(v.tempIDs, i)
}

// Clear advances past the view's identity-mapped prefix, for streaming
// readers that never alias rows out of order. Fails with ErrNonIdentityView
// if the view has been projected (aliases rows non-contiguously).
func (v *PointView) Clear() error {
	for i := 1; i < v.size; i++ {
		if v.index[i] != v.index[i-1]+1 {
			return fmt.Errorf("clear: row %d is not contiguous with row %d: %w", i, i-1, ErrNonIdentityView)
		}
	}
	v.index = v.index[:0]
	v.size = 0
	v.tempIDs = v.tempIDs[:0]
	return nil
}
