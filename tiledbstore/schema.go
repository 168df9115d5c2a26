package tiledbstore

import (
	"errors"

	tiledb "github.com/TileDB-Inc/TileDB-Go"

	rialto "github.com/sixy6e/go-rialto"
)

func tiledbType(t rialto.Type) (tiledb.Datatype, error) {
	switch t {
	case rialto.TypeI8:
		return tiledb.TILEDB_INT8, nil
	case rialto.TypeU8:
		return tiledb.TILEDB_UINT8, nil
	case rialto.TypeI16:
		return tiledb.TILEDB_INT16, nil
	case rialto.TypeU16:
		return tiledb.TILEDB_UINT16, nil
	case rialto.TypeI32:
		return tiledb.TILEDB_INT32, nil
	case rialto.TypeU32:
		return tiledb.TILEDB_UINT32, nil
	case rialto.TypeI64:
		return tiledb.TILEDB_INT64, nil
	case rialto.TypeU64:
		return tiledb.TILEDB_UINT64, nil
	case rialto.TypeF32:
		return tiledb.TILEDB_FLOAT32, nil
	case rialto.TypeF64:
		return tiledb.TILEDB_FLOAT64, nil
	default:
		return 0, ErrUnknownType
	}
}

// tileDenseSchema builds the "tiles" array schema: one dense row per tile,
// attributes level/tileX/tileY/mask/numPoints. Mirrors the teacher's
// pingDenseSchema shape, retargeted from ping records to tile metadata.
func tileDenseSchema(ctx *tiledb.Context, numTiles uint64) (*tiledb.ArraySchema, error) {
	schema, err := tiledb.NewArraySchema(ctx, tiledb.TILEDB_DENSE)
	if err != nil {
		return nil, errors.Join(ErrCreateSchemaTdb, err)
	}

	domain, err := tiledb.NewDomain(ctx)
	if err != nil {
		return nil, errors.Join(ErrCreateSchemaTdb, err)
	}

	dim, err := tiledb.NewDimension(ctx, "tileId", tiledb.TILEDB_UINT64, []uint64{0, numTiles}, uint64(1))
	if err != nil {
		return nil, errors.Join(ErrCreateDimTdb, err)
	}
	if err := domain.AddDimensions(dim); err != nil {
		return nil, errors.Join(ErrCreateDimTdb, err)
	}
	if err := schema.SetDomain(domain); err != nil {
		return nil, errors.Join(ErrCreateSchemaTdb, err)
	}

	fl, err := zstdFilterList(ctx)
	if err != nil {
		return nil, err
	}
	defer fl.Free()

	for _, spec := range []struct {
		name string
		typ  tiledb.Datatype
	}{
		{"level", tiledb.TILEDB_UINT32},
		{"tileX", tiledb.TILEDB_UINT32},
		{"tileY", tiledb.TILEDB_UINT32},
		{"mask", tiledb.TILEDB_UINT8},
		{"numPoints", tiledb.TILEDB_UINT64},
	} {
		attr, err := tiledb.NewAttribute(ctx, spec.name, spec.typ)
		if err != nil {
			return nil, errors.Join(ErrCreateAttributeTdb, err)
		}
		if err := attr.SetFilterList(fl); err != nil {
			return nil, errors.Join(ErrAddFilters, err)
		}
		if err := schema.AddAttributes(attr); err != nil {
			return nil, errors.Join(ErrCreateAttributeTdb, err)
		}
	}

	return schema, nil
}

// pointSparseSchema builds the "points" array schema: Longitude/Latitude
// as dimensions (the teacher's beamSparseSchema uses X/Y the same way),
// Hilbert cell ordering, duplicates allowed (many points can share a
// coordinate), one attribute per registered layout dimension.
func pointSparseSchema(ctx *tiledb.Context, layout *rialto.PointLayout) (*tiledb.ArraySchema, error) {
	schema, err := tiledb.NewArraySchema(ctx, tiledb.TILEDB_SPARSE)
	if err != nil {
		return nil, errors.Join(ErrCreateSchemaTdb, err)
	}
	if err := schema.SetCellOrder(tiledb.TILEDB_HILBERT); err != nil {
		return nil, errors.Join(ErrCreateSchemaTdb, err)
	}
	if err := schema.SetAllowsDups(true); err != nil {
		return nil, errors.Join(ErrCreateSchemaTdb, err)
	}

	domain, err := tiledb.NewDomain(ctx)
	if err != nil {
		return nil, errors.Join(ErrCreateSchemaTdb, err)
	}

	lonDim, err := tiledb.NewDimension(ctx, "Longitude", tiledb.TILEDB_FLOAT64, []float64{rialto.WorldWest, rialto.WorldEast}, float64(0))
	if err != nil {
		return nil, errors.Join(ErrCreateDimTdb, err)
	}
	latDim, err := tiledb.NewDimension(ctx, "Latitude", tiledb.TILEDB_FLOAT64, []float64{rialto.WorldSouth, rialto.WorldNorth}, float64(0))
	if err != nil {
		return nil, errors.Join(ErrCreateDimTdb, err)
	}
	if err := domain.AddDimensions(lonDim, latDim); err != nil {
		return nil, errors.Join(ErrCreateDimTdb, err)
	}
	if err := schema.SetDomain(domain); err != nil {
		return nil, errors.Join(ErrCreateSchemaTdb, err)
	}

	fl, err := zstdFilterList(ctx)
	if err != nil {
		return nil, err
	}
	defer fl.Free()

	for _, d := range layout.Dims() {
		if d.Name == "X" || d.Name == "Y" {
			continue // covered by the Longitude/Latitude dimensions
		}
		tdbType, err := tiledbType(d.Type)
		if err != nil {
			return nil, err
		}
		attr, err := tiledb.NewAttribute(ctx, d.Name, tdbType)
		if err != nil {
			return nil, errors.Join(ErrCreateAttributeTdb, err)
		}
		if err := attr.SetFilterList(fl); err != nil {
			return nil, errors.Join(ErrAddFilters, err)
		}
		if err := schema.AddAttributes(attr); err != nil {
			return nil, errors.Join(ErrCreateAttributeTdb, err)
		}
	}

	return schema, nil
}
