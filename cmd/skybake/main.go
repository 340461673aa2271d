// skybake bakes a scattering sky cube map on the GPU and writes it to PNG.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"envtex/internal/config"
	"envtex/internal/logging"

	"github.com/spf13/cobra"
)

type app struct {
	configPath string
	cfg        config.Config
	log        *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "skybake",
		Short:        "Bake atmospheric-scattering sky cube maps",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "settings file (default "+config.DefaultPath+" if present)")

	root.AddCommand(newBakeCmd(a), newInfoCmd(a), newParticlesCmd(a))
	return root
}

func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	log, err := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	slog.SetDefault(log)
	a.cfg, a.log = cfg, log
	return nil
}
