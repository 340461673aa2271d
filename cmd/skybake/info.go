package main

import (
	"fmt"

	"envtex/internal/gpu"

	"github.com/spf13/cobra"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print the compute adapter and capabilities",
		RunE: func(cmd *cobra.Command, args []string) error {
			sys, err := gpu.NewSystem(gpu.Options{
				DisableHalfFloat: a.cfg.GPU.DisableHalfFloat,
				Logger:           a.log,
			})
			if err != nil {
				return err
			}
			defer sys.Release()

			info := sys.Info()
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Using GPU: %s (%s)\n", info.Name, info.Backend)
			fmt.Fprintf(w, "Vendor:    %s\n", info.Vendor)
			fmt.Fprintf(w, "Type:      %s\n", info.DeviceType)
			fmt.Fprintf(w, "Driver:    %s\n", info.Driver)
			fmt.Fprintf(w, "%s: %v\n", gpu.ExtColorBufferHalfFloat, sys.HasExtension(gpu.ExtColorBufferHalfFloat))
			return nil
		},
	}
}
