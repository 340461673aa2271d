//go:build darwin

package main

import (
	"log/slog"
	"time"

	"envtex/internal/bake"
	"envtex/internal/config"
	"envtex/internal/gpu"
	"envtex/internal/scattering"
	"envtex/internal/shader"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

type gpuRebaker struct {
	sys *gpu.System
	src shader.Source
	cfg config.Config
	log *slog.Logger

	// encode workers live as long as the viewer
	pool worker.DynamicWorkerPool
}

func newRebaker(cfg config.Config, log *slog.Logger) rebaker {
	// Metal and OpenGL coexist fine on macOS
	sys, err := gpu.NewSystem(gpu.Options{DisableHalfFloat: cfg.GPU.DisableHalfFloat, Logger: log})
	if err != nil {
		log.Warn("compute shaders unavailable, re-bake disabled", "err", err)
		return nil
	}
	info := sys.Info()
	log.Info("compute device", "backend", info.Backend, "vendor", info.Vendor, "name", info.Name, "type", info.DeviceType)

	return &gpuRebaker{
		sys:  sys,
		src:  shader.Default(cfg.GPU.ShaderDir),
		cfg:  cfg,
		log:  log,
		pool: worker.NewDynamicWorkerPool(cfg.Output.Workers, gpu.CubeFaces+1, time.Second),
	}
}

func (r *gpuRebaker) Rebake(sun scattering.Vec3) (string, error) {
	cfg := r.cfg
	cfg.Sky.Sun = [3]float32{sun.X, sun.Y, sun.Z}
	res, err := bake.Run(r.sys, r.src, cfg, r.log, r.pool)
	if err != nil {
		return "", err
	}
	return res.Strip, nil
}

func (r *gpuRebaker) Close() {
	r.pool.Stop()
	r.sys.Release()
}
