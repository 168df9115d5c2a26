// Command tiler is the thin CLI kernel around the rialto tiling library:
// flag parsing and wiring only, no quadtree or persistence logic of its
// own. Mirrors the teacher's cmd/main.go convert/convert-trawl pair.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
	"github.com/alitto/pond"
	"github.com/urfave/cli/v2"

	rialto "github.com/sixy6e/go-rialto"
	"github.com/sixy6e/go-rialto/filetree"
	"github.com/sixy6e/go-rialto/internal/csvsource"
	"github.com/sixy6e/go-rialto/internal/discover"
	"github.com/sixy6e/go-rialto/sqlitestore"
	"github.com/sixy6e/go-rialto/tiledbstore"
)

// tileOne runs the full pipeline for a single CSV input: load, tile,
// persist to the requested backend.
func tileOne(inputURI, outURI, backend, configURI string, maxLevel uint32, overwrite bool, workers int) error {
	log.Println("Reading:", inputURI)
	layout, _, view, err := csvsource.Load(inputURI)
	if err != nil {
		return err
	}

	log.Println("Building tile set")
	tiler := rialto.NewTiler(rialto.Config{MaxLevel: maxLevel})
	if err := tiler.Ready(layout); err != nil {
		return err
	}
	if err := tiler.Run(view); err != nil {
		return err
	}

	name := filepath.Base(inputURI)
	result, err := tiler.Finish(name, layout, view)
	if err != nil {
		return err
	}

	switch backend {
	case "filetree":
		log.Println("Writing file tree:", outURI)
		return filetree.Write(outURI, layout, result, filetree.Options{Overwrite: overwrite, Workers: workers})
	case "sqlite":
		log.Println("Writing sqlite:", outURI)
		store, err := sqlitestore.Create(outURI)
		if err != nil {
			return err
		}
		defer store.Close()
		_, err = store.Write(layout, result)
		return err
	case "tiledb":
		log.Println("Writing tiledb group:", outURI)
		config, err := tiledbConfig(configURI)
		if err != nil {
			return err
		}
		defer config.Free()
		ctx, err := tiledb.NewContext(config)
		if err != nil {
			return err
		}
		defer ctx.Free()
		return tiledbstore.Write(ctx, outURI, layout, result)
	default:
		return fmt.Errorf("tiler: unknown backend %q", backend)
	}
}

func tiledbConfig(configURI string) (*tiledb.Config, error) {
	if configURI == "" {
		return tiledb.NewConfig()
	}
	return tiledb.LoadConfig(configURI)
}

// tileBatch discovers every file under uri matching pattern and fans
// tileOne out across a bounded worker pool, honoring Ctrl+C between jobs.
func tileBatch(uri, pattern, outdirURI, backend, configURI string, maxLevel uint32, overwrite bool, workers int) error {
	log.Println("Searching:", uri)
	items, err := discover.Find(uri, pattern, configURI)
	if err != nil {
		return err
	}
	log.Println("Number of inputs to process:", len(items))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	n := runtime.NumCPU()
	pool := pond.New(n, 0, pond.MinWorkers(n), pond.Context(ctx))
	defer pool.StopAndWait()

	for _, name := range items {
		itemURI := name
		out := filepath.Join(outdirURI, filepath.Base(itemURI)+outputSuffix(backend))
		pool.Submit(func() {
			if err := tileOne(itemURI, out, backend, configURI, maxLevel, overwrite, workers); err != nil {
				log.Printf("failed processing %s: %v", itemURI, err)
			}
		})
	}

	pool.StopAndWait()
	return nil
}

func outputSuffix(backend string) string {
	switch backend {
	case "sqlite":
		return ".sqlite"
	case "tiledb":
		return ".tiledb"
	default:
		return ".tiles"
	}
}

func main() {
	app := &cli.App{
		Name:  "tiler",
		Usage: "tile point-cloud CSV inputs into a quadtree tile set",
		Commands: []*cli.Command{
			{
				Name:  "tile",
				Usage: "tile a single input file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "input-uri", Required: true, Usage: "path to a CSV point file"},
					&cli.StringFlag{Name: "output-uri", Required: true, Usage: "output path (directory, sqlite file, or tiledb group URI)"},
					&cli.StringFlag{Name: "backend", Value: "filetree", Usage: "filetree, sqlite, or tiledb"},
					&cli.StringFlag{Name: "config-uri", Usage: "URI or pathname to a TileDB config file"},
					&cli.UintFlag{Name: "max-level", Value: 8, Usage: "quadtree depth"},
					&cli.BoolFlag{Name: "overwrite", Usage: "clobber an existing output"},
					&cli.IntFlag{Name: "workers", Value: 1, Usage: "worker pool size for the file-tree writer's tile fan-out"},
				},
				Action: func(cCtx *cli.Context) error {
					return tileOne(
						cCtx.String("input-uri"), cCtx.String("output-uri"), cCtx.String("backend"), cCtx.String("config-uri"),
						uint32(cCtx.Uint("max-level")), cCtx.Bool("overwrite"), cCtx.Int("workers"),
					)
				},
			},
			{
				Name:  "tile-batch",
				Usage: "discover and tile every matching file under a root URI",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "uri", Required: true, Usage: "root path or object-store URI to search"},
					&cli.StringFlag{Name: "pattern", Value: "*.csv", Usage: "glob matched against each file's basename"},
					&cli.StringFlag{Name: "outdir-uri", Required: true, Usage: "output directory for all processed files"},
					&cli.StringFlag{Name: "backend", Value: "filetree", Usage: "filetree, sqlite, or tiledb"},
					&cli.StringFlag{Name: "config-uri", Usage: "URI or pathname to a TileDB config file"},
					&cli.UintFlag{Name: "max-level", Value: 8, Usage: "quadtree depth"},
					&cli.BoolFlag{Name: "overwrite", Usage: "clobber existing outputs"},
					&cli.IntFlag{Name: "workers", Value: 1, Usage: "worker pool size for each file-tree writer's tile fan-out"},
				},
				Action: func(cCtx *cli.Context) error {
					return tileBatch(
						cCtx.String("uri"), cCtx.String("pattern"), cCtx.String("outdir-uri"), cCtx.String("backend"), cCtx.String("config-uri"),
						uint32(cCtx.Uint("max-level")), cCtx.Bool("overwrite"), cCtx.Int("workers"),
					)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
