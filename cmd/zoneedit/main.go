package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"os"
	"os/signal"

	"github.com/go-gl/mathgl/mgl32"

	"zone-editor/editor"
	"zone-editor/internal/config"
	"zone-editor/internal/logging"
	"zone-editor/internal/metrics"
	"zone-editor/io"
	"zone-editor/library"
	"zone-editor/scene"
	"zone-editor/zone"
)

// Demo terrain spans four blocks around (5000, 5000)
var (
	terrainOrigin = mgl32.Vec2{4800, 4800}
	terrainCell   = float32(10)
	terrainSize   = 64
)

func main() {
	configPath := flag.String("config", "", "YAML config file (default $"+config.EnvConfigPath+")")
	outDir := flag.String("out", "", "export directory, overrides export.dir")
	backend := flag.String("backend", "", "block store: dir or badger, overrides export.backend")
	seed := flag.Int64("seed", 7, "terrain noise seed")
	overview := flag.String("overview", "", "write a block overview PNG to this path")
	snapshot := flag.String("snapshot", "", "write the edited world as a JSON working copy to this path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *outDir != "" {
		cfg.Export.Dir = *outDir
		cfg.Export.BadgerPath = *outDir
	}
	if *backend != "" {
		cfg.Export.Backend = *backend
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logging.NewDefaultLogger(cfg.Log.Prefix, cfg.Log.Debug)
	if err := run(cfg, *seed, outputs{overview: *overview, snapshot: *snapshot}, log); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

// outputs are the optional side files of a run
type outputs struct {
	overview string
	snapshot string
}

func run(cfg *config.Config, seed int64, out outputs, log logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := metrics.NewEditor()
	if port := cfg.Metrics.GetMetricsPort(); port > 0 {
		go func() {
			if err := m.Serve(ctx, port, log); err != nil {
				log.Errorf("%v", err)
			}
		}()
	}

	sink, closeSink, err := openSink(cfg, log)
	if err != nil {
		return err
	}
	defer closeSink()

	catalog, err := openCatalog(cfg, log)
	if err != nil {
		return err
	}

	ed := editor.NewEditor(editor.OptionsFromConfig(cfg), sink, log)
	ed.Metrics = m
	ed.Catalog = catalog

	terrain := scene.NewPerlinHeightfield(terrainOrigin, terrainCell, terrainSize, terrainSize, scene.DefaultPerlinParams(seed))
	w := scene.NewWorld()
	ed.Enter(w, scene.NewVolumeCollider(w, catalog.BoundsFunc(), terrain))
	defer ed.Exit()

	if err := playSession(ed, catalog, log); err != nil {
		return fmt.Errorf("edit session: %w", err)
	}

	stats, err := ed.Export(ctx)
	if err != nil {
		return err
	}
	log.Infof("%s", stats.Summary())

	if out.overview != "" {
		if err := writeOverview(ed, w, cfg.Zone.MaxBlock, out.overview); err != nil {
			return err
		}
		log.Infof("overview written to %s", out.overview)
	}
	if out.snapshot != "" {
		if err := scene.SaveWorld(w, out.snapshot); err != nil {
			return err
		}
		log.Infof("working copy written to %s", out.snapshot)
	}
	return nil
}

func openSink(cfg *config.Config, log logging.Logger) (io.BlockSink, func(), error) {
	switch cfg.Export.Backend {
	case "badger":
		s, err := io.OpenBadgerSink(cfg.Export.BadgerPath, log)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				log.Warnf("close block store: %v", err)
			}
		}, nil
	default:
		return io.NewDirSink(cfg.Export.Dir, cfg.Export.Backup, log), func() {}, nil
	}
}

// openCatalog loads the configured manifest, or a built-in catalog with
// explicit bounds when none is set
func openCatalog(cfg *config.Config, log logging.Logger) (*library.Catalog, error) {
	if cfg.Catalog.Manifest != "" {
		return library.LoadCatalog(cfg.Catalog.Manifest, log)
	}
	c := library.NewCatalog("", log)
	for _, e := range demoAssets {
		c.Add(e)
	}
	return c, nil
}

func writeOverview(ed *editor.Editor, w *scene.World, maxBlock int, path string) error {
	z, err := ed.Serializer.Export(w)
	if err != nil {
		return err
	}
	img := zone.Overview(z, maxBlock, 8)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create overview: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode overview: %w", err)
	}
	return f.Close()
}
