package shader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	loads int
	src   Source
}

func (c *countingSource) Load(name string) (string, error) {
	c.loads++
	return c.src.Load(name)
}

func TestEmbeddedScattering(t *testing.T) {
	src, err := Embedded().Load("scattering")
	require.NoError(t, err)
	assert.Contains(t, src, "@workgroup_size(8, 8, 1)")
	assert.Contains(t, src, "texture_storage_2d_array<rgba16float, write>")
}

func TestMissingSource(t *testing.T) {
	_, err := Embedded().Load("does_not_exist")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Dir(t.TempDir()).Load("scattering")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDirOverridesEmbedded(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scattering.wgsl"), []byte("// local"), 0o644))

	src, err := Default(dir).Load("scattering")
	require.NoError(t, err)
	assert.Equal(t, "// local", src)

	// Names missing on disk fall through to the embedded copy.
	require.NoError(t, os.Remove(filepath.Join(dir, "scattering.wgsl")))
	src, err = Default(dir).Load("scattering")
	require.NoError(t, err)
	assert.True(t, strings.Contains(src, "fn main"))
}

func TestCacheLoadsOnce(t *testing.T) {
	counter := &countingSource{src: Embedded()}
	c := NewCache(counter)

	for i := 0; i < 3; i++ {
		_, err := c.Load("scattering")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, counter.loads)

	c.Unload()
	_, err := c.Load("scattering")
	require.NoError(t, err)
	assert.Equal(t, 2, counter.loads)
}

func TestCacheDoesNotStoreErrors(t *testing.T) {
	counter := &countingSource{src: Embedded()}
	c := NewCache(counter)

	_, err := c.Load("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = c.Load("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 2, counter.loads)
}
