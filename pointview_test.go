package rialto

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newXYZLayout(t *testing.T) (*PointLayout, Dimension, Dimension, Dimension) {
	t.Helper()
	layout := NewPointLayout()
	dx, err := layout.Register("X", TypeF64)
	require.NoError(t, err)
	dy, err := layout.Register("Y", TypeF64)
	require.NoError(t, err)
	dz, err := layout.Register("Z", TypeF32)
	require.NoError(t, err)
	return layout, dx, dy, dz
}

func TestPointViewRoundTrip(t *testing.T) {
	layout, dx, dy, dz := newXYZLayout(t)
	table := NewRawPointTable(layout)
	view := NewPointView(table)

	view.AppendRaw()
	require.NoError(t, view.SetFieldFromFloat64(dx, 0, 12.5))
	require.NoError(t, view.SetFieldFromFloat64(dy, 0, -33.25))
	require.NoError(t, view.SetFieldFromFloat64(dz, 0, 100.5))

	assert.InDelta(t, 12.5, view.GetFieldAsFloat64(dx, 0), 1e-9)
	assert.InDelta(t, -33.25, view.GetFieldAsFloat64(dy, 0), 1e-9)
	assert.InDelta(t, 100.5, view.GetFieldAsFloat64(dz, 0), 1e-5)
}

// TestPointViewInt64RoundTripExactBeyondFloat64Precision proves the native
// integer accessor path preserves values float64 cannot represent exactly.
// math.MaxInt64 differs from its nearest float64 by more than 1, so a
// round trip through GetFloat64/SetFloat64 would silently corrupt it.
func TestPointViewInt64RoundTripExactBeyondFloat64Precision(t *testing.T) {
	layout := NewPointLayout()
	di64, err := layout.Register("Id", TypeI64)
	require.NoError(t, err)

	table := NewRawPointTable(layout)
	view := NewPointView(table)
	view.AppendRaw()

	const want = int64(math.MaxInt64)
	require.NoError(t, view.SetFieldFromInt64(di64, 0, want))

	got, err := view.GetFieldAsInt64(di64, 0)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	lossy := view.GetFieldAsFloat64(di64, 0)
	assert.NotEqual(t, want, int64(lossy), "float64 intermediate already lost precision on this value")
}

// TestPointViewUint64RoundTripExactBeyondFloat64Precision is Int64's
// unsigned counterpart.
func TestPointViewUint64RoundTripExactBeyondFloat64Precision(t *testing.T) {
	layout := NewPointLayout()
	du64, err := layout.Register("Id", TypeU64)
	require.NoError(t, err)

	table := NewRawPointTable(layout)
	view := NewPointView(table)
	view.AppendRaw()

	const want = uint64(math.MaxUint64)
	require.NoError(t, view.SetFieldFromUint64(du64, 0, want))

	got, err := view.GetFieldAsUint64(du64, 0)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPointViewConversionRangeError(t *testing.T) {
	layout := NewPointLayout()
	du8, err := layout.Register("Intensity", TypeU8)
	require.NoError(t, err)

	table := NewRawPointTable(layout)
	view := NewPointView(table)
	view.AppendRaw()

	err = view.SetFieldFromFloat64(du8, 0, 300)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConversionRange))

	var convErr *ConversionRangeError
	require.True(t, errors.As(err, &convErr))
	assert.Equal(t, "Intensity", convErr.Dimension)
}

func TestPointViewAppendFromAliasesRow(t *testing.T) {
	layout, dx, dy, _ := newXYZLayout(t)
	table := NewRawPointTable(layout)
	source := NewPointView(table)

	source.AppendRaw()
	require.NoError(t, source.SetFieldFromFloat64(dx, 0, 1))
	require.NoError(t, source.SetFieldFromFloat64(dy, 0, 2))

	projected := NewPointView(table)
	projected.AppendFrom(source, 0)

	assert.Equal(t, source.RowID(0), projected.RowID(0))
	assert.Equal(t, 1.0, projected.GetFieldAsFloat64(dx, 0))
}

func TestPointViewCalculateBoundsMissingXYZ(t *testing.T) {
	layout := NewPointLayout()
	_, err := layout.Register("Intensity", TypeU8)
	require.NoError(t, err)

	table := NewRawPointTable(layout)
	view := NewPointView(table)
	view.AppendRaw()

	_, err = view.CalculateBounds(false)
	assert.True(t, errors.Is(err, ErrMissingXYZ))
}

func TestPointViewCalculateBounds(t *testing.T) {
	layout, dx, dy, _ := newXYZLayout(t)
	table := NewRawPointTable(layout)
	view := NewPointView(table)

	coords := [][2]float64{{1, 2}, {-5, 8}, {3, -1}}
	for _, c := range coords {
		i := view.Len()
		view.AppendRaw()
		require.NoError(t, view.SetFieldFromFloat64(dx, i, c[0]))
		require.NoError(t, view.SetFieldFromFloat64(dy, i, c[1]))
	}

	bounds, err := view.CalculateBounds(false)
	require.NoError(t, err)
	assert.Equal(t, -5.0, bounds.MinX)
	assert.Equal(t, 3.0, bounds.MaxX)
	assert.Equal(t, -1.0, bounds.MinY)
	assert.Equal(t, 8.0, bounds.MaxY)
}

func TestPointViewTempRowFreeList(t *testing.T) {
	layout, dx, _, _ := newXYZLayout(t)
	table := NewRawPointTable(layout)
	view := NewPointView(table)
	view.AppendRaw()

	tmp1 := view.TempRow()
	require.NoError(t, view.SetFieldFromFloat64(dx, tmp1, 42))
	view.FreeTemp(tmp1)

	tmp2 := view.TempRow()
	assert.Equal(t, tmp1, tmp2)
}

func TestPointViewClearRejectsProjectedView(t *testing.T) {
	layout, _, _, _ := newXYZLayout(t)
	table := NewRawPointTable(layout)
	source := NewPointView(table)
	source.AppendRaw()
	source.AppendRaw()
	source.AppendRaw()

	projected := NewPointView(table)
	projected.AppendFrom(source, 2)
	projected.AppendFrom(source, 0)

	err := projected.Clear()
	assert.True(t, errors.Is(err, ErrNonIdentityView))
}

func TestPointViewClearIdentity(t *testing.T) {
	layout, _, _, _ := newXYZLayout(t)
	table := NewRawPointTable(layout)
	view := NewPointView(table)
	view.AppendRaw()
	view.AppendRaw()

	require.NoError(t, view.Clear())
	assert.Equal(t, 0, view.Len())
}
