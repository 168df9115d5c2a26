package rialto

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointLayoutRegisterIdempotent(t *testing.T) {
	layout := NewPointLayout()

	dx, err := layout.Register("X", TypeF64)
	require.NoError(t, err)
	size1 := layout.PointSize()

	dx2, err := layout.Register("X", TypeF64)
	require.NoError(t, err)
	assert.Equal(t, dx.ID, dx2.ID)
	assert.Equal(t, size1, layout.PointSize())
}

func TestPointLayoutFreezeRejectsRegister(t *testing.T) {
	layout := NewPointLayout()
	_, err := layout.Register("X", TypeF64)
	require.NoError(t, err)

	layout.Freeze()

	_, err = layout.Register("Y", TypeF64)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLayoutFrozen))
}

func TestRegisterStructFromTags(t *testing.T) {
	type Record struct {
		Longitude float64 `dim:"name=X,dtype=float64"`
		Latitude  float64 `dim:"name=Y,dtype=float64"`
		Intensity uint16  `dim:"name=Intensity,dtype=uint16"`
		unexported int
	}

	layout := NewPointLayout()
	require.NoError(t, layout.RegisterStruct(Record{}))

	dims := layout.Dims()
	require.Len(t, dims, 3)
	assert.Equal(t, "X", dims[0].Name)
	assert.Equal(t, TypeF64, dims[0].Type)
	assert.Equal(t, "Intensity", dims[2].Name)
	assert.Equal(t, TypeU16, dims[2].Type)
}

func TestDataTypeTagRoundTrip(t *testing.T) {
	for _, typ := range []Type{TypeI8, TypeI16, TypeI32, TypeI64, TypeU8, TypeU16, TypeU32, TypeU64, TypeF32, TypeF64} {
		tag := DataTypeTag(typ)
		assert.Equal(t, typ, TypeFromDataTypeTag(tag))
	}
}
