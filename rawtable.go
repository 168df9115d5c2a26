package rialto

import (
	"encoding/binary"
	"math"
)

// PointId is a dense, stable row identifier into a RawPointTable.
type PointId uint64

const rawTableBlockRows = 4096

// RawPointTable is a growable, contiguous byte arena addressed by PointId.
// A row's PointId and byte offset never change once allocated. Growth adds
// one block's worth of capacity by allocating a larger buffer and copying
// the existing rows into it, so the rows' memory does move. This is the arena half of the "arena + handles"
// design: PointView never owns bytes, only PointId references into a
// table it shares with every other view built from the same layout.
type RawPointTable struct {
	layout *PointLayout
	buf    []byte
	rows   PointId
}

// NewRawPointTable returns an empty table bound to layout. The layout is
// frozen on the first call to AddPoint.
func NewRawPointTable(layout *PointLayout) *RawPointTable {
	return &RawPointTable{layout: layout}
}

// Layout returns the table's point layout.
func (t *RawPointTable) Layout() *PointLayout {
	return t.layout
}

// NumPoints returns the number of rows allocated so far.
func (t *RawPointTable) NumPoints() PointId {
	return t.rows
}

// AddPoint allocates and zero-initializes the next row, freezing the
// layout on first use.
func (t *RawPointTable) AddPoint() PointId {
	if !t.layout.frozen {
		t.layout.Freeze()
	}

	id := t.rows
	t.rows++

	need := int(t.rows) * t.layout.PointSize()
	if need > len(t.buf) {
		grown := len(t.buf) + rawTableBlockRows*t.layout.PointSize()
		if grown < need {
			grown = need
		}
		next := make([]byte, grown)
		copy(next, t.buf)
		t.buf = next
	}
	return id
}

func (t *RawPointTable) rowOffset(id PointId, fieldOffset int) int {
	return int(id)*t.layout.PointSize() + fieldOffset
}

// GetField copies the raw bytes of dim at row id into out. len(out) must
// equal dim's storage size.
func (t *RawPointTable) GetField(dim Dimension, id PointId, out []byte) {
	off, _ := t.layout.Offset(dim.ID)
	start := t.rowOffset(id, off)
	copy(out, t.buf[start:start+dim.Type.Size()])
}

// SetField copies in into the raw bytes of dim at row id. len(in) must
// equal dim's storage size.
func (t *RawPointTable) SetField(dim Dimension, id PointId, in []byte) {
	off, _ := t.layout.Offset(dim.ID)
	start := t.rowOffset(id, off)
	copy(t.buf[start:start+dim.Type.Size()], in)
}

// GetFloat64 reads dim at row id, widening from its native storage type.
func (t *RawPointTable) GetFloat64(dim Dimension, id PointId) float64 {
	off, _ := t.layout.Offset(dim.ID)
	start := t.rowOffset(id, off)
	raw := t.buf[start : start+dim.Type.Size()]

	switch dim.Type {
	case TypeF32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(raw)))
	case TypeF64:
		return math.Float64frombits(binary.LittleEndian.Uint64(raw))
	case TypeI8:
		return float64(int8(raw[0]))
	case TypeI16:
		return float64(int16(binary.LittleEndian.Uint16(raw)))
	case TypeI32:
		return float64(int32(binary.LittleEndian.Uint32(raw)))
	case TypeI64:
		return float64(int64(binary.LittleEndian.Uint64(raw)))
	case TypeU8:
		return float64(raw[0])
	case TypeU16:
		return float64(binary.LittleEndian.Uint16(raw))
	case TypeU32:
		return float64(binary.LittleEndian.Uint32(raw))
	case TypeU64:
		return float64(binary.LittleEndian.Uint64(raw))
	default:
		return 0
	}
}

// SetFloat64 narrows v into dim's native storage type at row id, with
// range-checked round-to-even conversion. Equal-representation paths
// (float64->float64, any integer exactly representable) write directly.
func (t *RawPointTable) SetFloat64(dim Dimension, id PointId, v float64) error {
	off, _ := t.layout.Offset(dim.ID)
	start := t.rowOffset(id, off)
	raw := t.buf[start : start+dim.Type.Size()]

	switch dim.Type {
	case TypeF64:
		binary.LittleEndian.PutUint64(raw, math.Float64bits(v))
		return nil
	case TypeF32:
		f32 := float32(v)
		if math.IsInf(float64(f32), 0) && !math.IsInf(v, 0) {
			return &ConversionRangeError{Dimension: dim.Name, Value: v, Target: dim.Type}
		}
		binary.LittleEndian.PutUint32(raw, math.Float32bits(f32))
		return nil
	case TypeI8:
		r := math.RoundToEven(v)
		if r < math.MinInt8 || r > math.MaxInt8 {
			return &ConversionRangeError{Dimension: dim.Name, Value: v, Target: dim.Type}
		}
		raw[0] = byte(int8(r))
		return nil
	case TypeI16:
		r := math.RoundToEven(v)
		if r < math.MinInt16 || r > math.MaxInt16 {
			return &ConversionRangeError{Dimension: dim.Name, Value: v, Target: dim.Type}
		}
		binary.LittleEndian.PutUint16(raw, uint16(int16(r)))
		return nil
	case TypeI32:
		r := math.RoundToEven(v)
		if r < math.MinInt32 || r > math.MaxInt32 {
			return &ConversionRangeError{Dimension: dim.Name, Value: v, Target: dim.Type}
		}
		binary.LittleEndian.PutUint32(raw, uint32(int32(r)))
		return nil
	case TypeI64:
		r := math.RoundToEven(v)
		if r < math.MinInt64 || r >= math.MaxInt64 {
			return &ConversionRangeError{Dimension: dim.Name, Value: v, Target: dim.Type}
		}
		binary.LittleEndian.PutUint64(raw, uint64(int64(r)))
		return nil
	case TypeU8:
		r := math.RoundToEven(v)
		if r < 0 || r > math.MaxUint8 {
			return &ConversionRangeError{Dimension: dim.Name, Value: v, Target: dim.Type}
		}
		raw[0] = byte(uint8(r))
		return nil
	case TypeU16:
		r := math.RoundToEven(v)
		if r < 0 || r > math.MaxUint16 {
			return &ConversionRangeError{Dimension: dim.Name, Value: v, Target: dim.Type}
		}
		binary.LittleEndian.PutUint16(raw, uint16(r))
		return nil
	case TypeU32:
		r := math.RoundToEven(v)
		if r < 0 || r > math.MaxUint32 {
			return &ConversionRangeError{Dimension: dim.Name, Value: v, Target: dim.Type}
		}
		binary.LittleEndian.PutUint32(raw, uint32(r))
		return nil
	case TypeU64:
		r := math.RoundToEven(v)
		if r < 0 || r >= math.MaxUint64 {
			return &ConversionRangeError{Dimension: dim.Name, Value: v, Target: dim.Type}
		}
		binary.LittleEndian.PutUint64(raw, uint64(r))
		return nil
	default:
		return ErrUnknownDimension
	}
}

// GetInt64 reads dim at row id as its native signed-integer representation,
// without ever widening through float64. Spec.md's "integer-to-integer
// equal-type paths skip conversion" requirement only holds if a native
// integer path exists at all; GetFloat64 alone cannot satisfy it since an
// I64/U64 value beyond 2^53 loses precision the moment it transits float64.
// Valid only for signed integer dimensions.
func (t *RawPointTable) GetInt64(dim Dimension, id PointId) (int64, error) {
	off, _ := t.layout.Offset(dim.ID)
	start := t.rowOffset(id, off)
	raw := t.buf[start : start+dim.Type.Size()]

	switch dim.Type {
	case TypeI8:
		return int64(int8(raw[0])), nil
	case TypeI16:
		return int64(int16(binary.LittleEndian.Uint16(raw))), nil
	case TypeI32:
		return int64(int32(binary.LittleEndian.Uint32(raw))), nil
	case TypeI64:
		return int64(binary.LittleEndian.Uint64(raw)), nil
	default:
		return 0, ErrUnknownDimension
	}
}

// SetInt64 writes v into dim's native signed-integer storage at row id.
// The I64 path is a direct write with no rounding and no range check —
// the equal-type skip-conversion case. Narrower targets are range-checked.
// Valid only for signed integer dimensions.
func (t *RawPointTable) SetInt64(dim Dimension, id PointId, v int64) error {
	off, _ := t.layout.Offset(dim.ID)
	start := t.rowOffset(id, off)
	raw := t.buf[start : start+dim.Type.Size()]

	switch dim.Type {
	case TypeI8:
		if v < math.MinInt8 || v > math.MaxInt8 {
			return &ConversionRangeError{Dimension: dim.Name, Value: float64(v), Target: dim.Type}
		}
		raw[0] = byte(int8(v))
		return nil
	case TypeI16:
		if v < math.MinInt16 || v > math.MaxInt16 {
			return &ConversionRangeError{Dimension: dim.Name, Value: float64(v), Target: dim.Type}
		}
		binary.LittleEndian.PutUint16(raw, uint16(int16(v)))
		return nil
	case TypeI32:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return &ConversionRangeError{Dimension: dim.Name, Value: float64(v), Target: dim.Type}
		}
		binary.LittleEndian.PutUint32(raw, uint32(int32(v)))
		return nil
	case TypeI64:
		binary.LittleEndian.PutUint64(raw, uint64(v))
		return nil
	default:
		return ErrUnknownDimension
	}
}

// GetUint64 is GetInt64's unsigned counterpart. Valid only for unsigned
// integer dimensions.
func (t *RawPointTable) GetUint64(dim Dimension, id PointId) (uint64, error) {
	off, _ := t.layout.Offset(dim.ID)
	start := t.rowOffset(id, off)
	raw := t.buf[start : start+dim.Type.Size()]

	switch dim.Type {
	case TypeU8:
		return uint64(raw[0]), nil
	case TypeU16:
		return uint64(binary.LittleEndian.Uint16(raw)), nil
	case TypeU32:
		return uint64(binary.LittleEndian.Uint32(raw)), nil
	case TypeU64:
		return binary.LittleEndian.Uint64(raw), nil
	default:
		return 0, ErrUnknownDimension
	}
}

// SetUint64 is SetInt64's unsigned counterpart; the U64 path is a direct
// equal-type write. Valid only for unsigned integer dimensions.
func (t *RawPointTable) SetUint64(dim Dimension, id PointId, v uint64) error {
	off, _ := t.layout.Offset(dim.ID)
	start := t.rowOffset(id, off)
	raw := t.buf[start : start+dim.Type.Size()]

	switch dim.Type {
	case TypeU8:
		if v > math.MaxUint8 {
			return &ConversionRangeError{Dimension: dim.Name, Value: float64(v), Target: dim.Type}
		}
		raw[0] = byte(v)
		return nil
	case TypeU16:
		if v > math.MaxUint16 {
			return &ConversionRangeError{Dimension: dim.Name, Value: float64(v), Target: dim.Type}
		}
		binary.LittleEndian.PutUint16(raw, uint16(v))
		return nil
	case TypeU32:
		if v > math.MaxUint32 {
			return &ConversionRangeError{Dimension: dim.Name, Value: float64(v), Target: dim.Type}
		}
		binary.LittleEndian.PutUint32(raw, uint32(v))
		return nil
	case TypeU64:
		binary.LittleEndian.PutUint64(raw, v)
		return nil
	default:
		return ErrUnknownDimension
	}
}
