package main

import (
	"fmt"

	"envtex/internal/bake"
	"envtex/internal/config"
	"envtex/internal/gpu"
	"envtex/internal/shader"

	"github.com/spf13/cobra"
)

type bakeFlags struct {
	size        uint32
	sun         []float32
	out         string
	noHalfFloat bool
	exposure    float32
}

func newBakeCmd(a *app) *cobra.Command {
	f := &bakeFlags{}
	cmd := &cobra.Command{
		Use:   "bake",
		Short: "Generate the sky and write one PNG per face plus a vertical strip",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.apply(cmd, &a.cfg); err != nil {
				return err
			}
			return a.bake(cmd)
		},
	}
	cmd.Flags().Uint32Var(&f.size, "size", 0, "cube face edge in texels, a multiple of 8")
	cmd.Flags().Float32SliceVar(&f.sun, "sun", nil, "sun direction x,y,z")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "output directory")
	cmd.Flags().BoolVar(&f.noHalfFloat, "no-half-float", false, "skip mipmaps as if RGBA16F targets were unsupported")
	cmd.Flags().Float32Var(&f.exposure, "exposure", 0, "tone-mapping exposure")
	return cmd
}

// apply copies flags the user set over the loaded config.
func (f *bakeFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("size") {
		cfg.Sky.Size = f.size
	}
	if flags.Changed("sun") {
		if len(f.sun) != 3 {
			return fmt.Errorf("--sun needs three components, got %d", len(f.sun))
		}
		copy(cfg.Sky.Sun[:], f.sun)
	}
	if flags.Changed("out") {
		cfg.Output.Dir = f.out
	}
	if flags.Changed("no-half-float") {
		cfg.GPU.DisableHalfFloat = f.noHalfFloat
	}
	if flags.Changed("exposure") {
		cfg.Output.Exposure = f.exposure
	}
	return cfg.Validate()
}

func (a *app) bake(cmd *cobra.Command) error {
	sys, err := gpu.NewSystem(gpu.Options{
		DisableHalfFloat: a.cfg.GPU.DisableHalfFloat,
		Logger:           a.log,
	})
	if err != nil {
		return err
	}
	defer sys.Release()

	info := sys.Info()
	a.log.Info("compute device", "backend", info.Backend, "name", info.Name, "type", info.DeviceType)

	res, err := bake.Run(sys, shader.Default(a.cfg.GPU.ShaderDir), a.cfg, a.log, nil)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Strip)
	return nil
}
