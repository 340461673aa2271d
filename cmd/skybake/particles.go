package main

import (
	"fmt"

	"envtex/internal/noise"
	"envtex/internal/particles"

	"github.com/spf13/cobra"
)

func newParticlesCmd(a *app) *cobra.Command {
	var (
		count    int
		lifetime float32
	)
	cmd := &cobra.Command{
		Use:   "particles",
		Short: "Print particles seeded from the fixed noise sequence",
		RunE: func(cmd *cobra.Command, args []string) error {
			if count <= 0 {
				return fmt.Errorf("--count must be positive, got %d", count)
			}
			ps := particles.Seed(noise.New(), count, lifetime)
			w := cmd.OutOrStdout()
			for i, p := range ps {
				fmt.Fprintf(w, "%d\t%.4f\t%.4f\t%.4f\t%.3f\n", i, p.X, p.Y, p.Z, p.Lifetime)
			}
			a.log.Debug("seeded particles", "count", len(ps))
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 8, "number of particles")
	cmd.Flags().Float32Var(&lifetime, "lifetime", 5, "base lifetime in seconds")
	return cmd
}
