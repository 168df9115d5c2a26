// Package discover recursively trawls a local path or object-store URI for
// candidate point-source files, generalizing the teacher's *.gsf-specific
// FindGsf/trawl pair (search/search.go) to an arbitrary glob.
package discover

import (
	"fmt"
	"path/filepath"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
)

func trawl(vfs *tiledb.VFS, pattern, uri string, items []string) ([]string, error) {
	dirs, files, err := vfs.List(uri)
	if err != nil {
		return items, fmt.Errorf("discover: listing %s: %w", uri, err)
	}

	for _, file := range files {
		match, err := filepath.Match(pattern, filepath.Base(file))
		if err != nil {
			return items, fmt.Errorf("discover: pattern %q: %w", pattern, err)
		}
		if match {
			items = append(items, file)
		}
	}

	for _, dir := range dirs {
		items, err = trawl(vfs, pattern, dir, items)
		if err != nil {
			return items, err
		}
	}
	return items, nil
}

// Find recursively searches uri (a local path or an object-store URI such
// as s3://) for files matching pattern (e.g. "*.laz", "*.las"). configURI
// may be empty for a default TileDB config, or point at a config file
// carrying object-store credentials.
func Find(uri, pattern, configURI string) ([]string, error) {
	var config *tiledb.Config
	var err error

	if configURI == "" {
		config, err = tiledb.NewConfig()
	} else {
		config, err = tiledb.LoadConfig(configURI)
	}
	if err != nil {
		return nil, fmt.Errorf("discover: config: %w", err)
	}
	defer config.Free()

	ctx, err := tiledb.NewContext(config)
	if err != nil {
		return nil, fmt.Errorf("discover: context: %w", err)
	}
	defer ctx.Free()

	vfs, err := tiledb.NewVFS(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("discover: vfs: %w", err)
	}
	defer vfs.Free()

	return trawl(vfs, pattern, uri, nil)
}
