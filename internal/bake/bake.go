// Package bake runs generation and export as one step against a device.
package bake

import (
	"log/slog"

	"envtex/internal/config"
	"envtex/internal/export"
	"envtex/internal/gpu"
	"envtex/internal/scattering"
	"envtex/internal/shader"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

type Result struct {
	export.Result
	Levels uint32
}

// Sun returns the configured sun direction, normalized.
func Sun(cfg config.Config) scattering.Vec3 {
	return scattering.Vec3{X: cfg.Sky.Sun[0], Y: cfg.Sky.Sun[1], Z: cfg.Sky.Sun[2]}.Normalize()
}

// Run bakes the sky described by cfg and writes it under cfg.Output.Dir.
// The generator and its texture are released before Run returns. A nil pool
// gives the export its own short-lived workers.
func Run(dev gpu.Device, src shader.Source, cfg config.Config, log *slog.Logger, pool worker.DynamicWorkerPool) (Result, error) {
	if log == nil {
		log = slog.Default()
	}

	gen, err := scattering.New(dev, src,
		scattering.WithSteps(cfg.Sky.Steps),
		scattering.WithRadii(cfg.Sky.StartRadius, cfg.Sky.EndRadius),
		scattering.WithLogger(log),
	)
	if err != nil {
		return Result{}, err
	}
	defer gen.Release()

	if err := gen.Generate(cfg.Sky.Size, Sun(cfg)); err != nil {
		return Result{}, err
	}

	res, err := export.Write(dev, gen.Texture(), export.Options{
		Dir:      cfg.Output.Dir,
		Exposure: cfg.Output.Exposure,
		Workers:  cfg.Output.Workers,
		Pool:     pool,
	})
	if err != nil {
		return Result{}, err
	}

	log.Info("baked sky", "size", res.Size, "levels", gen.Levels(), "strip", res.Strip)
	return Result{Result: res, Levels: gen.Levels()}, nil
}
