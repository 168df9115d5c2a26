package tiledbstore

import (
	"errors"
	"fmt"
	"path"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
	"github.com/samber/lo"

	rialto "github.com/sixy6e/go-rialto"
)

// Write creates a TileDB group at groupURI containing the "tiles" dense
// array and "points" sparse array, then populates both from result.
func Write(ctx *tiledb.Context, groupURI string, layout *rialto.PointLayout, result rialto.Result) error {
	if err := tiledb.CreateGroup(ctx, groupURI); err != nil {
		return errors.Join(ErrCreateGroup, err)
	}

	tilesURI := path.Join(groupURI, "tiles")
	pointsURI := path.Join(groupURI, "points")

	if err := createTilesArray(ctx, tilesURI, len(result.Meta.Tiles)); err != nil {
		return err
	}
	if err := createPointsArray(ctx, pointsURI, layout); err != nil {
		return err
	}

	if err := writeTilesArray(ctx, tilesURI, result.Meta.Tiles, result.Views); err != nil {
		return err
	}
	if err := writePointsArray(ctx, pointsURI, layout, result.Views); err != nil {
		return err
	}
	return nil
}

func createTilesArray(ctx *tiledb.Context, uri string, numTiles int) error {
	schema, err := tileDenseSchema(ctx, uint64(numTiles)+1)
	if err != nil {
		return err
	}
	defer schema.Free()

	array, err := tiledb.NewArray(ctx, uri)
	if err != nil {
		return errors.Join(ErrCreateSchemaTdb, err)
	}
	defer array.Free()

	if err := array.Create(schema); err != nil {
		return errors.Join(ErrCreateSchemaTdb, err)
	}
	return nil
}

func createPointsArray(ctx *tiledb.Context, uri string, layout *rialto.PointLayout) error {
	schema, err := pointSparseSchema(ctx, layout)
	if err != nil {
		return err
	}
	defer schema.Free()

	array, err := tiledb.NewArray(ctx, uri)
	if err != nil {
		return errors.Join(ErrCreateSchemaTdb, err)
	}
	defer array.Free()

	if err := array.Create(schema); err != nil {
		return errors.Join(ErrCreateSchemaTdb, err)
	}
	return nil
}

func writeTilesArray(ctx *tiledb.Context, uri string, tiles []rialto.TileMeta, views []*rialto.PointView) error {
	viewLens := make(map[uint64]int, len(views))
	for _, v := range views {
		viewLens[v.ID] = v.Len()
	}

	array, err := tiledb.NewArray(ctx, uri)
	if err != nil {
		return errors.Join(ErrWriteTdb, err)
	}
	defer array.Free()
	if err := array.Open(tiledb.TILEDB_WRITE); err != nil {
		return errors.Join(ErrWriteTdb, err)
	}
	defer array.Close()

	n := len(tiles)
	ids := make([]uint64, n)
	levels := make([]uint32, n)
	xs := make([]uint32, n)
	ys := make([]uint32, n)
	masks := make([]uint8, n)
	counts := make([]uint64, n)

	for i, t := range tiles {
		ids[i] = uint64(i)
		levels[i] = t.Level
		xs[i] = t.TileX
		ys[i] = t.TileY
		masks[i] = t.Mask
		if t.HasView {
			counts[i] = uint64(viewLens[t.PointView])
		}
	}

	query, err := tiledb.NewQuery(ctx, array)
	if err != nil {
		return errors.Join(ErrWriteTdb, err)
	}
	defer query.Free()

	if err := query.SetLayout(tiledb.TILEDB_ROW_MAJOR); err != nil {
		return errors.Join(ErrWriteTdb, err)
	}
	if n > 0 {
		if err := query.SetSubArray([]uint64{0, uint64(n - 1)}); err != nil {
			return errors.Join(ErrWriteTdb, err)
		}
	}

	for _, buf := range []struct {
		name string
		data any
	}{
		{"level", levels}, {"tileX", xs}, {"tileY", ys}, {"mask", masks}, {"numPoints", counts},
	} {
		if _, err := query.SetDataBuffer(buf.name, buf.data); err != nil {
			return errors.Join(ErrWriteTdb, fmt.Errorf("%s: %w", buf.name, err))
		}
	}

	if err := query.Submit(); err != nil {
		return errors.Join(ErrWriteTdb, err)
	}
	return nil
}

// columnBuilder accumulates one non-X/Y dimension's values across views in
// its own natively-typed slice-of-slices, mirroring the teacher's
// setStructFieldBuffers type switch: TileDB-Go's SetDataBuffer requires the
// Go buffer's element type to match the attribute's declared tiledb.Datatype
// exactly, so a dimension declared UINT16 in the schema must be submitted
// as []uint16, never collapsed through float64.
type columnBuilder struct {
	dim rialto.Dimension
	f32 [][]float32
	f64 [][]float64
	i8  [][]int8
	i16 [][]int16
	i32 [][]int32
	i64 [][]int64
	u8  [][]uint8
	u16 [][]uint16
	u32 [][]uint32
	u64 [][]uint64
}

func (b *columnBuilder) append(v *rialto.PointView) error {
	n := v.Len()
	switch b.dim.Type {
	case rialto.TypeF32:
		col := make([]float32, n)
		for i := 0; i < n; i++ {
			col[i] = float32(v.GetFieldAsFloat64(b.dim, i))
		}
		b.f32 = append(b.f32, col)
	case rialto.TypeF64:
		col := make([]float64, n)
		for i := 0; i < n; i++ {
			col[i] = v.GetFieldAsFloat64(b.dim, i)
		}
		b.f64 = append(b.f64, col)
	case rialto.TypeI8:
		col := make([]int8, n)
		for i := 0; i < n; i++ {
			val, err := v.GetFieldAsInt64(b.dim, i)
			if err != nil {
				return err
			}
			col[i] = int8(val)
		}
		b.i8 = append(b.i8, col)
	case rialto.TypeI16:
		col := make([]int16, n)
		for i := 0; i < n; i++ {
			val, err := v.GetFieldAsInt64(b.dim, i)
			if err != nil {
				return err
			}
			col[i] = int16(val)
		}
		b.i16 = append(b.i16, col)
	case rialto.TypeI32:
		col := make([]int32, n)
		for i := 0; i < n; i++ {
			val, err := v.GetFieldAsInt64(b.dim, i)
			if err != nil {
				return err
			}
			col[i] = int32(val)
		}
		b.i32 = append(b.i32, col)
	case rialto.TypeI64:
		col := make([]int64, n)
		for i := 0; i < n; i++ {
			val, err := v.GetFieldAsInt64(b.dim, i)
			if err != nil {
				return err
			}
			col[i] = val
		}
		b.i64 = append(b.i64, col)
	case rialto.TypeU8:
		col := make([]uint8, n)
		for i := 0; i < n; i++ {
			val, err := v.GetFieldAsUint64(b.dim, i)
			if err != nil {
				return err
			}
			col[i] = uint8(val)
		}
		b.u8 = append(b.u8, col)
	case rialto.TypeU16:
		col := make([]uint16, n)
		for i := 0; i < n; i++ {
			val, err := v.GetFieldAsUint64(b.dim, i)
			if err != nil {
				return err
			}
			col[i] = uint16(val)
		}
		b.u16 = append(b.u16, col)
	case rialto.TypeU32:
		col := make([]uint32, n)
		for i := 0; i < n; i++ {
			val, err := v.GetFieldAsUint64(b.dim, i)
			if err != nil {
				return err
			}
			col[i] = uint32(val)
		}
		b.u32 = append(b.u32, col)
	case rialto.TypeU64:
		col := make([]uint64, n)
		for i := 0; i < n; i++ {
			val, err := v.GetFieldAsUint64(b.dim, i)
			if err != nil {
				return err
			}
			col[i] = val
		}
		b.u64 = append(b.u64, col)
	default:
		return ErrUnknownType
	}
	return nil
}

// flatten returns the natively-typed, flattened buffer ready for
// SetDataBuffer — its concrete Go type always matches tiledbType(b.dim.Type).
func (b *columnBuilder) flatten() any {
	switch b.dim.Type {
	case rialto.TypeF32:
		return lo.Flatten(b.f32)
	case rialto.TypeF64:
		return lo.Flatten(b.f64)
	case rialto.TypeI8:
		return lo.Flatten(b.i8)
	case rialto.TypeI16:
		return lo.Flatten(b.i16)
	case rialto.TypeI32:
		return lo.Flatten(b.i32)
	case rialto.TypeI64:
		return lo.Flatten(b.i64)
	case rialto.TypeU8:
		return lo.Flatten(b.u8)
	case rialto.TypeU16:
		return lo.Flatten(b.u16)
	case rialto.TypeU32:
		return lo.Flatten(b.u32)
	case rialto.TypeU64:
		return lo.Flatten(b.u64)
	default:
		return nil
	}
}

func writePointsArray(ctx *tiledb.Context, uri string, layout *rialto.PointLayout, views []*rialto.PointView) error {
	dx, _ := layout.Lookup("X")
	dy, _ := layout.Lookup("Y")
	dims := layout.Dims()

	// Longitude/Latitude are always f64 dimension columns; every other
	// dimension gets its own natively-typed columnBuilder.
	lonPerView := make([][]float64, len(views))
	latPerView := make([][]float64, len(views))
	builders := make(map[string]*columnBuilder, len(dims))
	for _, d := range dims {
		if d.Name == "X" || d.Name == "Y" {
			continue
		}
		builders[d.Name] = &columnBuilder{dim: d}
	}

	for vi, v := range views {
		n := v.Len()
		lon := make([]float64, n)
		lat := make([]float64, n)
		for i := 0; i < n; i++ {
			lon[i] = v.GetFieldAsFloat64(dx, i)
			lat[i] = v.GetFieldAsFloat64(dy, i)
		}
		lonPerView[vi] = lon
		latPerView[vi] = lat

		for _, b := range builders {
			if err := b.append(v); err != nil {
				return errors.Join(ErrWriteTdb, err)
			}
		}
	}

	lons := lo.Flatten(lonPerView)
	lats := lo.Flatten(latPerView)

	array, err := tiledb.NewArray(ctx, uri)
	if err != nil {
		return errors.Join(ErrWriteTdb, err)
	}
	defer array.Free()
	if err := array.Open(tiledb.TILEDB_WRITE); err != nil {
		return errors.Join(ErrWriteTdb, err)
	}
	defer array.Close()

	query, err := tiledb.NewQuery(ctx, array)
	if err != nil {
		return errors.Join(ErrWriteTdb, err)
	}
	defer query.Free()

	if err := query.SetLayout(tiledb.TILEDB_UNORDERED); err != nil {
		return errors.Join(ErrWriteTdb, err)
	}
	if _, err := query.SetDataBuffer("Longitude", lons); err != nil {
		return errors.Join(ErrWriteTdb, err)
	}
	if _, err := query.SetDataBuffer("Latitude", lats); err != nil {
		return errors.Join(ErrWriteTdb, err)
	}
	for name, b := range builders {
		if _, err := query.SetDataBuffer(name, b.flatten()); err != nil {
			return errors.Join(ErrWriteTdb, fmt.Errorf("%s: %w", name, err))
		}
	}

	if err := query.Submit(); err != nil {
		return errors.Join(ErrWriteTdb, err)
	}
	return nil
}
