// Package csvsource loads a plain CSV point file into a rialto PointLayout
// and PointView. There is no CSV reader anywhere in the example corpus to
// ground this on; it is the one piece of the CLI kernel built on the
// standard library's encoding/csv because no pack dependency parses a
// point-source format at all (see DESIGN.md).
package csvsource

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	rialto "github.com/sixy6e/go-rialto"
)

// Load reads path, a CSV file whose header row names each dimension
// (X, Y, Z, plus any attribute columns), and returns a layout and a view
// holding every row. Every column is stored as float64; callers needing a
// narrower on-disk type should register the layout themselves and copy.
func Load(path string) (*rialto.PointLayout, *rialto.RawPointTable, *rialto.PointView, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("csvsource: opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("csvsource: reading header: %w", err)
	}

	layout := rialto.NewPointLayout()
	dims := make([]rialto.Dimension, len(header))
	for i, name := range header {
		dim, err := layout.Register(name, rialto.TypeF64)
		if err != nil {
			return nil, nil, nil, err
		}
		dims[i] = dim
	}

	table := rialto.NewRawPointTable(layout)
	view := rialto.NewPointView(table)

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, nil, fmt.Errorf("csvsource: reading row: %w", err)
		}

		view.AppendRaw()
		rowIdx := view.Len() - 1
		for i, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("csvsource: parsing %q: %w", field, err)
			}
			if err := view.SetFieldFromFloat64(dims[i], rowIdx, v); err != nil {
				return nil, nil, nil, err
			}
		}
	}

	return layout, table, view, nil
}
