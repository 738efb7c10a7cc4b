package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-theft-craft/terraingen/internal/config"
	"github.com/go-theft-craft/terraingen/internal/storage"
	"github.com/go-theft-craft/terraingen/internal/storage/level"
	"github.com/go-theft-craft/terraingen/pkg/terrain/noise"
	"github.com/go-theft-craft/terraingen/pkg/terrain/pipeline"
	"github.com/go-theft-craft/terraingen/pkg/terrain/rng"
)

func main() {
	cfg := config.DefaultConfig()
	t := &cfg.Terrain

	var (
		cfgPath     = flag.String("config", "", "YAML or JSON config file")
		preset      = flag.String("preset", "", "remote preset to fetch and load (any go-getter source)")
		presetDir   = flag.String("preset-dir", filepath.Join(os.TempDir(), "terraingen-presets"), "where fetched presets are stored")
		name        = flag.String("name", "", "terrain name in the leveldb store (default seed-<seed>)")
		writeConfig = flag.String("write-config", "", "write the effective config to this file")
		timeout     = flag.Duration("timeout", 0, "abort generation after this long (0 = no limit)")
		verbose     = flag.Bool("v", false, "log stage starts")
	)
	flag.IntVar(&t.Width, "width", t.Width, "heightfield width in cells")
	flag.IntVar(&t.Height, "height", t.Height, "heightfield height in cells")
	flag.Float64Var(&t.Depth, "depth", t.Depth, "world height of a normalized height of 1")
	flag.Int64Var(&t.Seed, "seed", t.Seed, "random seed (0 = random)")
	flag.StringVar(&t.NoiseKind, "noise", t.NoiseKind, "noise backend: "+strings.Join(noise.Kinds(), ", "))
	flag.BoolVar(&t.EnableErosion, "erosion", t.EnableErosion, "run hydraulic erosion")
	flag.IntVar(&t.Erosion.Iterations, "droplets", t.Erosion.Iterations, "erosion droplet count")
	flag.IntVar(&t.Layers, "layers", t.Layers, "texture layer count (2 = grass/rock, 3 adds sand)")
	flag.IntVar(&t.TreeCount, "trees", t.TreeCount, "tree placement draws")
	flag.IntVar(&t.Workers, "workers", t.Workers, "row workers (0 = GOMAXPROCS)")
	flag.StringVar(&cfg.Output.Dir, "out", cfg.Output.Dir, "output directory")
	flag.StringVar(&cfg.Output.Store, "store", cfg.Output.Store, "output store: files or leveldb")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))

	explicit := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if *timeout > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeout(ctx, *timeout)
		defer stop()
	}

	path := *cfgPath
	if *preset != "" {
		if path != "" {
			log.Error("-config and -preset are mutually exclusive")
			os.Exit(1)
		}
		p, err := config.Fetch(ctx, *preset, *presetDir)
		if err != nil {
			log.Error("fetch preset", "error", err)
			os.Exit(1)
		}
		log.Info("fetched preset", "source", *preset, "path", p)
		path = p
	}
	if path != "" {
		fromFile, err := config.Load(path)
		if err != nil {
			log.Error("load config", "error", err)
			os.Exit(1)
		}
		config.Merge(cfg, fromFile, explicit)
		log.Info("loaded config from file", "path", path)
	}

	if cfg.Terrain.Seed == 0 {
		cfg.Terrain.Seed = rand.Int64N(1<<62) + 1
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "error", err)
		os.Exit(1)
	}
	if *writeConfig != "" {
		if err := config.Save(cfg, *writeConfig); err != nil {
			log.Error("write config", "error", err)
			os.Exit(1)
		}
	}

	if *name == "" {
		*name = fmt.Sprintf("seed-%d", cfg.Terrain.Seed)
	}
	if err := run(ctx, cfg, *name, log); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Error("generation timed out", "timeout", *timeout)
		} else {
			log.Error("generation failed", "error", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, name string, log *slog.Logger) error {
	start := time.Now()
	rnd := rng.New(cfg.Terrain.Seed)

	switch cfg.Output.Store {
	case config.StoreLevelDB:
		st, err := level.Open(filepath.Join(cfg.Output.Dir, "terrains.db"), log)
		if err != nil {
			return err
		}
		defer st.Close()

		sink := st.Sink(name)
		o := pipeline.Orchestrator{Terrain: sink, Vegetation: sink, Log: log}
		res, err := o.Run(ctx, cfg.Terrain, rnd)
		if err != nil {
			return err
		}
		if err := sink.SaveMeta(storage.MetaFromResult(cfg.Terrain, res)); err != nil {
			return err
		}
		if err := sink.Commit(); err != nil {
			return err
		}

	default:
		files, err := storage.NewFiles(cfg.Output.Dir, log)
		if err != nil {
			return err
		}
		o := pipeline.Orchestrator{Terrain: files, Vegetation: files, Log: log}
		res, err := o.Run(ctx, cfg.Terrain, rnd)
		if err != nil {
			return err
		}
		if err := files.SaveMeta(storage.MetaFromResult(cfg.Terrain, res)); err != nil {
			return err
		}
	}

	log.Info("done", "dir", cfg.Output.Dir, "store", cfg.Output.Store, "name", name, "total", time.Since(start))
	return nil
}
