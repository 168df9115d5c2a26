// Package sqlitestore persists a tile set into the three-table SQLite
// schema from SPEC_FULL.md §6 (TileSets, Dimensions, Tiles), grounded on
// RialtoDb.hpp's table layout and method set.
package sqlitestore

import (
	"bytes"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	rialto "github.com/sixy6e/go-rialto"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS TileSets (
	id INTEGER PRIMARY KEY,
	name TEXT,
	maxLevel INTEGER,
	numCols INTEGER,
	numRows INTEGER,
	minx REAL, miny REAL, maxx REAL, maxy REAL,
	numDimensions INTEGER
);
CREATE TABLE IF NOT EXISTS Dimensions (
	id INTEGER PRIMARY KEY,
	tileSetId INTEGER REFERENCES TileSets(id),
	position INTEGER,
	name TEXT,
	dataType INTEGER,
	minimum REAL, mean REAL, maximum REAL
);
CREATE TABLE IF NOT EXISTS Tiles (
	id INTEGER PRIMARY KEY,
	tileSetId INTEGER REFERENCES TileSets(id),
	level INTEGER, x INTEGER, y INTEGER,
	mask INTEGER, patch BLOB
);
`

// Store wraps a sqlite3 database handle opened against a tile-set file.
type Store struct {
	db *sql.DB
}

// Create opens (creating if absent) a SQLite database at path and ensures
// the schema exists.
func Create(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open %s: %w", path, err)
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Write persists one full tile set (TileSets row, its Dimensions rows, and
// one Tiles row per non-empty tile) inside a single transaction.
func (s *Store) Write(layout *rialto.PointLayout, result rialto.Result) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("sqlitestore: begin: %w", err)
	}

	tileSetID, err := writeTileSet(tx, result.Meta)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	if err := writeDimensions(tx, tileSetID, result.Meta.Dimensions); err != nil {
		tx.Rollback()
		return 0, err
	}

	dims := layout.Dims()
	west, east := result.TileSet.Roots()
	if err := writeTiles(tx, tileSetID, dims, west); err != nil {
		tx.Rollback()
		return 0, err
	}
	if err := writeTiles(tx, tileSetID, dims, east); err != nil {
		tx.Rollback()
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlitestore: commit: %w", err)
	}
	return tileSetID, nil
}

func writeTileSet(tx *sql.Tx, meta rialto.TileSetMeta) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO TileSets (name, maxLevel, numCols, numRows, minx, miny, maxx, maxy, numDimensions)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.Name, meta.MaxLevel, meta.NumCols, meta.NumRows,
		meta.MinX, meta.MinY, meta.MaxX, meta.MaxY, len(meta.Dimensions),
	)
	if err != nil {
		return 0, fmt.Errorf("sqlitestore: insert TileSets: %w", err)
	}
	return res.LastInsertId()
}

func writeDimensions(tx *sql.Tx, tileSetID int64, dims []rialto.DimensionSummary) error {
	for _, d := range dims {
		_, err := tx.Exec(
			`INSERT INTO Dimensions (tileSetId, position, name, dataType, minimum, mean, maximum)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			tileSetID, d.Position, d.Name, rialto.DataTypeTag(d.Type), d.Minimum, d.Mean, d.Maximum,
		)
		if err != nil {
			return fmt.Errorf("sqlitestore: insert Dimensions: %w", err)
		}
	}
	return nil
}

func writeTiles(tx *sql.Tx, tileSetID int64, dims []rialto.Dimension, t *rialto.Tile) error {
	if v := t.View(); v != nil && !v.Empty() {
		var buf bytes.Buffer
		if err := rialto.EncodePatch(&buf, dims, v); err != nil {
			return fmt.Errorf("sqlitestore: encoding patch: %w", err)
		}
		_, err := tx.Exec(
			`INSERT INTO Tiles (tileSetId, level, x, y, mask, patch) VALUES (?, ?, ?, ?, ?, ?)`,
			tileSetID, t.Level, t.TileX, t.TileY, t.Mask, buf.Bytes(),
		)
		if err != nil {
			return fmt.Errorf("sqlitestore: insert Tiles: %w", err)
		}
	}
	for _, child := range t.Children() {
		if child == nil {
			continue
		}
		if err := writeTiles(tx, tileSetID, dims, child); err != nil {
			return err
		}
	}
	return nil
}
