//go:build !darwin

package main

import (
	"log/slog"

	"envtex/internal/config"
)

func newRebaker(cfg config.Config, log *slog.Logger) rebaker {
	// wgpu's EGL context conflicts with raylib's on NVIDIA/X11
	log.Info("sky re-bake: disabled (EGL conflict workaround)")
	return nil
}
