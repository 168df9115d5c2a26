package filetree

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	rialto "github.com/sixy6e/go-rialto"
)

// ReadHeader loads and parses dir/header.json.
func ReadHeader(dir string) (rialto.Header, error) {
	var h rialto.Header
	data, err := os.ReadFile(filepath.Join(dir, "header.json"))
	if err != nil {
		return h, fmt.Errorf("filetree: reading header.json: %w", err)
	}
	if err := json.Unmarshal(data, &h); err != nil {
		return h, fmt.Errorf("filetree: decoding header.json: %w", err)
	}
	return h, nil
}

// ReadTile decodes the patch at dir/<level>/<tx>/<ty>.ria into view, using
// layout's dimensions (in header order) to size each record. Returns the
// tile's mask byte.
func ReadTile(dir string, level, tx, ty uint32, layout *rialto.PointLayout, view *rialto.PointView) (uint8, error) {
	path := filepath.Join(dir, fmt.Sprint(level), fmt.Sprint(tx), fmt.Sprintf("%d.ria", ty))
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("filetree: reading %s: %w", path, err)
	}
	if len(data) < 1 {
		return 0, rialto.ErrEmptyPatch
	}

	mask := data[len(data)-1]
	body := data[:len(data)-1]

	dims := layout.Dims()
	recordSize := 0
	for _, d := range dims {
		recordSize += d.Type.Size()
	}
	if recordSize == 0 || len(body)%recordSize != 0 {
		return 0, fmt.Errorf("filetree: %s: patch size %d not a multiple of record size %d", path, len(body), recordSize)
	}
	n := len(body) / recordSize

	stream := newByteStream(body)
	if err := rialto.DecodePatch(stream, dims, recordSize, n, view); err != nil {
		return 0, fmt.Errorf("filetree: decoding %s: %w", path, err)
	}
	return mask, nil
}

// byteStream adapts a byte slice to rialto.Stream for DecodePatch.
type byteStream struct {
	data []byte
	pos  int64
}

func newByteStream(data []byte) *byteStream {
	return &byteStream{data: data}
}

func (s *byteStream) Read(p []byte) (int, error) {
	n := copy(p, s.data[s.pos:])
	s.pos += int64(n)
	return n, nil
}

func (s *byteStream) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case 0:
		s.pos = offset
	case 1:
		s.pos += offset
	case 2:
		s.pos = int64(len(s.data)) + offset
	}
	return s.pos, nil
}
