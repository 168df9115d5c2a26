package rialto

// Stream is the minimal reader every patch codec needs: a file on disk, an
// object-store handle, or an in-memory byte buffer all satisfy it with
// just Read and Seek.
type Stream interface {
	Read(p []byte) (int, error)
	Seek(offset int64, whence int) (int64, error)
}

// DecodePatch reads n records of recordSize bytes from r into view,
// appending one fresh row per record and filling dims in order. This is
// the shared core of both the file-tree and SQLite readers' patch
// decoding — they differ only in how they obtain r and n.
func DecodePatch(r Stream, dims []Dimension, recordSize, n int, view *PointView) error {
	buf := make([]byte, recordSize)
	for i := 0; i < n; i++ {
		if _, err := readFull(r, buf); err != nil {
			return err
		}
		view.AppendRaw()
		view.SetPacked(dims, view.Len()-1, buf)
	}
	return nil
}

func readFull(r Stream, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}

// EncodePatch writes every committed row of view to w in dims order, with
// no inter-record framing, matching the .ria / SQLite Tiles.patch format.
func EncodePatch(w interface{ Write([]byte) (int, error) }, dims []Dimension, view *PointView) error {
	recordSize := 0
	for _, d := range dims {
		recordSize += d.Type.Size()
	}
	buf := make([]byte, recordSize)
	for i := 0; i < view.Len(); i++ {
		view.GetPacked(dims, i, buf)
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}
