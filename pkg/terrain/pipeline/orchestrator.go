package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-theft-craft/terraingen/pkg/terrain/heightfield"
	"github.com/go-theft-craft/terraingen/pkg/terrain/noise"
	"github.com/go-theft-craft/terraingen/pkg/terrain/rng"
	"github.com/go-theft-craft/terraingen/pkg/terrain/splat"
	"github.com/go-theft-craft/terraingen/pkg/terrain/vegetation"
)

// ErrMissingCollaborator is returned by Run when a sink is not set.
var ErrMissingCollaborator = errors.New("pipeline: missing collaborator")

// TerrainSink receives the finished heightfield and splat weights.
type TerrainSink interface {
	SetHeights(hf *heightfield.Heightfield) error
	SetSplatWeights(m *splat.Map) error
}

// VegetationSink receives the tree instances. ReplaceInstances drops any
// previous set.
type VegetationSink interface {
	ReplaceInstances(in []vegetation.Instance) error
}

// Orchestrator runs a pass and hands the result to the host sinks.
type Orchestrator struct {
	Terrain    TerrainSink
	Vegetation VegetationSink
	Log        *slog.Logger
	// Noise overrides the source built from the config when set.
	Noise noise.Source
}

// Run computes a full pass, then hands heights, splat weights and instances
// to the sinks in that order. Nothing reaches a sink if the pass fails.
func (o *Orchestrator) Run(ctx context.Context, cfg Config, rnd rng.Source) (*Result, error) {
	if o.Terrain == nil {
		return nil, fmt.Errorf("terrain sink: %w", ErrMissingCollaborator)
	}
	if o.Vegetation == nil {
		return nil, fmt.Errorf("vegetation sink: %w", ErrMissingCollaborator)
	}
	log := o.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	log.Info("generating terrain", "seed", cfg.Seed, "noise", cfg.NoiseKind, "erosion", cfg.EnableErosion)
	res, err := Generate(ctx, cfg, rnd, WithLogger(log), WithNoise(o.Noise))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := o.Terrain.SetHeights(res.Heights); err != nil {
		return res, fmt.Errorf("hand off heights: %w", err)
	}
	if err := o.Terrain.SetSplatWeights(res.Splat); err != nil {
		return res, fmt.Errorf("hand off splat weights: %w", err)
	}
	if err := o.Vegetation.ReplaceInstances(vegetation.Instances(res.Placements)); err != nil {
		return res, fmt.Errorf("hand off trees: %w", err)
	}

	log.Info("terrain generated",
		"elapsed", res.Elapsed,
		"trees", len(res.Placements),
		"warnings", len(res.Warnings),
	)
	return res, nil
}
