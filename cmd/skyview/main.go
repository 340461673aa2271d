// skyview shows a baked sky cube map from the inside.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"envtex/internal/config"
	"envtex/internal/export"
	"envtex/internal/logging"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:          "skyview [strip.png]",
		Short:        "View a baked sky strip as a cube map",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			log, err := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			slog.SetDefault(log)

			strip := stripPath(cfg, args)
			if _, err := os.Stat(strip); err != nil {
				return fmt.Errorf("no baked sky at %s, run skybake bake first: %w", strip, err)
			}
			return run(cfg, strip, log)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "settings file (default "+config.DefaultPath+" if present)")
	return cmd
}

func stripPath(cfg config.Config, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return filepath.Join(cfg.Output.Dir, export.StripName)
}
