package main

import (
	"path/filepath"
	"testing"

	"envtex/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestStripPath(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, filepath.Join("out", "sky_strip.png"), stripPath(cfg, nil))
	assert.Equal(t, "other.png", stripPath(cfg, []string{"other.png"}))
}

func TestMissingStripFails(t *testing.T) {
	t.Chdir(t.TempDir())
	cmd := newRootCmd()
	cmd.SetArgs([]string{"nope.png"})
	err := cmd.Execute()
	assert.ErrorContains(t, err, "run skybake bake first")
}
