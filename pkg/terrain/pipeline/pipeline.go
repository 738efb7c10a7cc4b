// Package pipeline sequences the terrain stages: heights, erosion, splat
// weights and tree placement. Every stage runs against local buffers; only
// the Orchestrator touches the host sinks, after the whole pass succeeded.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-theft-craft/terraingen/pkg/terrain/erosion"
	"github.com/go-theft-craft/terraingen/pkg/terrain/heightfield"
	"github.com/go-theft-craft/terraingen/pkg/terrain/noise"
	"github.com/go-theft-craft/terraingen/pkg/terrain/rng"
	"github.com/go-theft-craft/terraingen/pkg/terrain/splat"
	"github.com/go-theft-craft/terraingen/pkg/terrain/surface"
	"github.com/go-theft-craft/terraingen/pkg/terrain/vegetation"
)

// maxOffset bounds the per-run noise offsets.
const maxOffset = 9999

// Offsets are the per-run decorrelation offsets, drawn in field order.
type Offsets struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Rock float64 `json:"rock"`
	Tree float64 `json:"tree"`
}

// Result is everything a pass produced.
type Result struct {
	Heights    *heightfield.Heightfield
	Splat      *splat.Map
	Placements []vegetation.Candidate

	// Warnings holds non-fatal *ConfigError values.
	Warnings []error
	Erosion  erosion.Stats
	Offsets  Offsets
	Elapsed  time.Duration
}

type options struct {
	log   *slog.Logger
	noise noise.Source
}

// Option customizes Generate.
type Option func(*options)

// WithLogger sets the stage logger. Nil keeps logging off.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithNoise overrides the noise source built from Config.NoiseKind and Seed.
func WithNoise(src noise.Source) Option {
	return func(o *options) {
		if src != nil {
			o.noise = src
		}
	}
}

// Generate runs one full pass. rnd drives the offsets, erosion droplets and
// tree draws; nil seeds a PCG from cfg.Seed.
func Generate(ctx context.Context, cfg Config, rnd rng.Source, opts ...Option) (*Result, error) {
	o := options{log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if o.noise == nil {
		src, err := noise.New(cfg.NoiseKind, cfg.Seed)
		if err != nil {
			return nil, &ConfigError{Field: "noise", Err: err}
		}
		o.noise = src
	}
	if rnd == nil {
		rnd = rng.New(cfg.Seed)
	}

	start := time.Now()
	res := &Result{Offsets: drawOffsets(rnd)}
	log := o.log.With("width", cfg.Width, "height", cfg.Height)

	done := stage(log, "heights")
	np := cfg.Noise
	np.OffsetX, np.OffsetY = res.Offsets.X, res.Offsets.Y
	hf, err := heightfield.GenerateParallel(ctx, cfg.Width, cfg.Height, np, o.noise, cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("generate heights: %w", err)
	}
	lo, hi := hf.Bounds()
	done("min", lo, "max", hi)
	res.Heights = hf

	if cfg.EnableErosion {
		done = stage(log, "erosion")
		stats, err := erosion.Erode(ctx, hf, cfg.Erosion, rnd)
		switch {
		case errors.Is(err, erosion.ErrGridTooSmall):
			res.warn(log, &ConfigError{Field: "size", Err: err})
		case err != nil:
			return nil, fmt.Errorf("erode: %w", err)
		}
		res.Erosion = stats
		done("droplets", stats.Droplets, "steps", stats.Steps, "eroded", stats.Eroded, "deposited", stats.Deposited)
	}

	local := surface.New(cfg.Size(), cfg.heightmapResolution())
	if err := local.SetHeights(hf); err != nil {
		return nil, fmt.Errorf("stage surface: %w", err)
	}

	done = stage(log, "splat")
	sp := cfg.Splat
	sp.RockOffset = res.Offsets.Rock
	sp.Workers = cfg.Workers
	ar := cfg.alphamapResolution()
	m, err := splat.Compute(ctx, local, ar, ar, cfg.Layers, o.noise, sp)
	switch {
	case errors.Is(err, splat.ErrTooFewLayers):
		res.warn(log, &ConfigError{Field: "layers", Err: err})
	case err != nil:
		return nil, fmt.Errorf("compute splat: %w", err)
	}
	res.Splat = m
	done("layers", m.Layers, "coverage", m.Coverage())

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("place trees: %w", err)
	}
	done = stage(log, "trees")
	acc := cfg.Trees
	acc.Offset = res.Offsets.Tree
	res.Placements = vegetation.Collect(vegetation.Place(local, o.noise, acc, cfg.TreeCount, rnd))
	done("accepted", len(res.Placements), "draws", cfg.TreeCount)

	res.Elapsed = time.Since(start)
	return res, nil
}

func drawOffsets(rnd rng.Source) Offsets {
	var off Offsets
	off.X = rnd.Uniform(0, maxOffset)
	off.Y = rnd.Uniform(0, maxOffset)
	off.Rock = rnd.Uniform(0, maxOffset)
	off.Tree = rnd.Uniform(0, maxOffset)
	return off
}

func (r *Result) warn(log *slog.Logger, err error) {
	r.Warnings = append(r.Warnings, err)
	log.Warn("stage degraded", "error", err)
}

// stage logs the start of a stage and returns a func that logs its end.
func stage(log *slog.Logger, name string) func(args ...any) {
	start := time.Now()
	log.Debug("stage started", "stage", name)
	return func(args ...any) {
		log.Info("stage finished", append([]any{"stage", name, "elapsed", time.Since(start)}, args...)...)
	}
}
