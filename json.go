package rialto

import "encoding/json"

// HeaderDimension is one entry of header.json's "dimensions" array.
type HeaderDimension struct {
	DataType string  `json:"datatype"`
	Name     string  `json:"name"`
	Minimum  float64 `json:"minimum"`
	Mean     float64 `json:"mean"`
	Maximum  float64 `json:"maximum"`
}

// Header is the exact header.json schema from SPEC_FULL.md §6.
type Header struct {
	Version    int               `json:"version"`
	BBox       [4]float64        `json:"bbox"`
	MaxLevel   uint32             `json:"maxLevel"`
	NumCols    int               `json:"numCols"`
	NumRows    int               `json:"numRows"`
	Dimensions []HeaderDimension `json:"dimensions"`
}

// BuildHeader converts a TileSetMeta into the on-disk header.json shape.
func BuildHeader(meta TileSetMeta) Header {
	h := Header{
		Version:  4,
		BBox:     [4]float64{meta.MinX, meta.MinY, meta.MaxX, meta.MaxY},
		MaxLevel: meta.MaxLevel,
		NumCols:  meta.NumCols,
		NumRows:  meta.NumRows,
	}
	for _, d := range meta.Dimensions {
		h.Dimensions = append(h.Dimensions, HeaderDimension{
			DataType: headerDataType(d.Type),
			Name:     d.Name,
			Minimum:  d.Minimum,
			Mean:     d.Mean,
			Maximum:  d.Maximum,
		})
	}
	return h
}

// headerDataType names t the way header.json's schema requires, which
// diverges from Type.String()'s debug form only for the two float widths
// ("float"/"double" rather than "float32"/"float64").
func headerDataType(t Type) string {
	switch t {
	case TypeF32:
		return "float"
	case TypeF64:
		return "double"
	default:
		return t.String()
	}
}

// JsonDumps constructs a compact JSON string of data, the package's usual
// entry point for anything that isn't the header itself.
func JsonDumps(data any) (string, error) {
	jsn, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return string(jsn), nil
}

// JsonIndentDumps constructs a JSON string of data using four-space
// indentation, matching the header.json file's on-disk formatting.
func JsonIndentDumps(data any) (string, error) {
	jsn, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return "", err
	}
	return string(jsn), nil
}
