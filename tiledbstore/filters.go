// Package tiledbstore mirrors a completed tile set into a TileDB group: a
// dense array of per-tile summary metadata and a sparse array of point
// records keyed by longitude/latitude, matching the teacher's
// pingDenseSchema/beamSparseSchema construction style (schema.go), carried
// over because TileDB-Go is the teacher's central dependency and nothing
// in the two spec-mandated backends (filetree, sqlitestore) exercises it.
package tiledbstore

import (
	"errors"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
)

var ErrCreateSchemaTdb = errors.New("error creating tiledb schema")
var ErrCreateDimTdb = errors.New("error creating tiledb dimension")
var ErrCreateAttributeTdb = errors.New("error creating tiledb attribute")
var ErrAddFilters = errors.New("error adding filter to filter list")
var ErrZstdFilt = errors.New("error creating tiledb zstandard filter")
var ErrCreateGroup = errors.New("error creating tiledb group")
var ErrWriteTdb = errors.New("error writing tiledb array")
var ErrUnknownType = errors.New("unsupported rialto type for tiledb")

// zstdFilter mirrors the teacher's ZstdFilter helper from tiledb.go.
func zstdFilter(ctx *tiledb.Context, level int32) (*tiledb.Filter, error) {
	filt, err := tiledb.NewFilter(ctx, tiledb.TILEDB_FILTER_ZSTD)
	if err != nil {
		return nil, err
	}
	if err := filt.SetOption(tiledb.TILEDB_COMPRESSION_LEVEL, level); err != nil {
		filt.Free()
		return nil, err
	}
	return filt, nil
}

// zstdFilterList builds a single-stage zstd(16) filter list, the
// compression convention the teacher uses throughout schema.go.
func zstdFilterList(ctx *tiledb.Context) (*tiledb.FilterList, error) {
	fl, err := tiledb.NewFilterList(ctx)
	if err != nil {
		return nil, errors.Join(ErrAddFilters, err)
	}
	filt, err := zstdFilter(ctx, 16)
	if err != nil {
		return nil, errors.Join(ErrZstdFilt, err)
	}
	defer filt.Free()
	if err := fl.AddFilter(filt); err != nil {
		return nil, errors.Join(ErrAddFilters, err)
	}
	return fl, nil
}
