package main

import (
	"bytes"
	"strings"
	"testing"

	"envtex/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBakeFlagsOverrideConfig(t *testing.T) {
	a := &app{cfg: config.Default()}
	cmd := newBakeCmd(a)
	require.NoError(t, cmd.ParseFlags([]string{"--size", "64", "--sun", "0,1,0", "--no-half-float", "-o", "sky"}))

	var f bakeFlags
	f.size, _ = cmd.Flags().GetUint32("size")
	f.sun, _ = cmd.Flags().GetFloat32Slice("sun")
	f.out, _ = cmd.Flags().GetString("out")
	f.noHalfFloat, _ = cmd.Flags().GetBool("no-half-float")

	cfg := config.Default()
	require.NoError(t, f.apply(cmd, &cfg))
	assert.Equal(t, uint32(64), cfg.Sky.Size)
	assert.Equal(t, [3]float32{0, 1, 0}, cfg.Sky.Sun)
	assert.Equal(t, "sky", cfg.Output.Dir)
	assert.True(t, cfg.GPU.DisableHalfFloat)
	// unset flags leave the config alone
	assert.Equal(t, float32(1), cfg.Output.Exposure)
}

func TestBakeFlagsRejectBadValues(t *testing.T) {
	for _, args := range [][]string{
		{"--size", "100"},
		{"--sun", "1,2"},
	} {
		cmd := newBakeCmd(&app{cfg: config.Default()})
		require.NoError(t, cmd.ParseFlags(args))

		var f bakeFlags
		f.size, _ = cmd.Flags().GetUint32("size")
		f.sun, _ = cmd.Flags().GetFloat32Slice("sun")
		cfg := config.Default()
		assert.Error(t, f.apply(cmd, &cfg), strings.Join(args, " "))
	}
}

func TestParticlesCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"particles", "-n", "3"})
	require.NoError(t, root.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "0\t"))
}
