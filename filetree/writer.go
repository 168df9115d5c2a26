// Package filetree persists a tile set as a directory of header.json plus
// one binary patch per non-empty tile, matching RialtoFileWriter's on-disk
// layout: <root>/header.json and <root>/<level>/<tx>/<ty>.ria.
package filetree

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alitto/pond"

	rialto "github.com/sixy6e/go-rialto"
)

// Options controls the file-tree writer.
type Options struct {
	// Overwrite removes an existing output directory before writing,
	// matching the teacher's "writers always clobber their output"
	// convention from RialtoFileWriter::localStart.
	Overwrite bool
	// Workers bounds how many goroutines write independent tiles
	// concurrently once the tree shape (masks) is fixed. 0 or 1 means
	// fully sequential.
	Workers int
}

// Write serializes result to dir: header.json at the root, and one <level>/
// <tx>/<ty>.ria per non-empty tile.
func Write(dir string, layout *rialto.PointLayout, result rialto.Result, opts Options) error {
	if opts.Overwrite {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("filetree: clearing %s: %w", dir, err)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("filetree: %w", err)
	}

	header := rialto.BuildHeader(result.Meta)
	headerJSON, err := rialto.JsonIndentDumps(header)
	if err != nil {
		return fmt.Errorf("filetree: encoding header: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "header.json"), []byte(headerJSON), 0o644); err != nil {
		return fmt.Errorf("filetree: writing header.json: %w", err)
	}

	dims := layout.Dims()
	west, east := result.TileSet.Roots()

	if opts.Workers > 1 {
		return writeTreeConcurrent(dir, dims, []*rialto.Tile{west, east}, opts.Workers)
	}
	if err := writeTile(dir, dims, west); err != nil {
		return err
	}
	return writeTile(dir, dims, east)
}

func writeTile(dir string, dims []rialto.Dimension, t *rialto.Tile) error {
	if v := t.View(); v != nil && !v.Empty() {
		path := filepath.Join(dir, fmt.Sprint(t.Level), fmt.Sprint(t.TileX), fmt.Sprintf("%d.ria", t.TileY))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("filetree: %w", err)
		}
		if err := writePatchFile(path, dims, v, t.Mask); err != nil {
			return err
		}
	}

	for _, child := range t.Children() {
		if child == nil {
			continue
		}
		if err := writeTile(dir, dims, child); err != nil {
			return err
		}
	}
	return nil
}

// writeTreeConcurrent fans per-tile writes out across a bounded pond pool.
// Safe only because the tree shape (every tile's children and mask) is
// already fixed by the time a Result exists — tiles never touch each
// other's output path.
func writeTreeConcurrent(dir string, dims []rialto.Dimension, roots []*rialto.Tile, workers int) error {
	pool := pond.New(workers, 0, pond.MinWorkers(workers))
	defer pool.StopAndWait()

	errs := make(chan error, 1)
	var submit func(t *rialto.Tile)
	submit = func(t *rialto.Tile) {
		if t == nil {
			return
		}
		pool.Submit(func() {
			if v := t.View(); v != nil && !v.Empty() {
				path := filepath.Join(dir, fmt.Sprint(t.Level), fmt.Sprint(t.TileX), fmt.Sprintf("%d.ria", t.TileY))
				if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
					trySend(errs, fmt.Errorf("filetree: %w", err))
					return
				}
				if err := writePatchFile(path, dims, v, t.Mask); err != nil {
					trySend(errs, err)
				}
			}
		})
		for _, c := range t.Children() {
			submit(c)
		}
	}

	for _, r := range roots {
		submit(r)
	}
	pool.StopAndWait()

	select {
	case err := <-errs:
		return err
	default:
		return nil
	}
}

func trySend(ch chan error, err error) {
	select {
	case ch <- err:
	default:
	}
}

func writePatchFile(path string, dims []rialto.Dimension, v *rialto.PointView, mask uint8) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("filetree: creating %s: %w", path, err)
	}
	defer f.Close()

	if err := rialto.EncodePatch(f, dims, v); err != nil {
		return fmt.Errorf("filetree: writing patch %s: %w", path, err)
	}
	if _, err := f.Write([]byte{mask}); err != nil {
		return fmt.Errorf("filetree: writing mask %s: %w", path, err)
	}
	return nil
}
