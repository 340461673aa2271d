package export

import (
	"image/png"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"envtex/internal/gpu"
	"envtex/internal/gpu/gputest"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHalfToFloat(t *testing.T) {
	cases := map[uint16]float32{
		0x0000: 0,
		0x3c00: 1,
		0xc000: -2,
		0x3800: 0.5,
		0x3555: 0.333251953125,
		0x7bff: 65504,
		0x0001: 5.9604645e-8,
		0x0200: 3.0517578e-5,
	}
	for h, want := range cases {
		assert.Equal(t, want, HalfToFloat(h), "0x%04x", h)
	}

	assert.True(t, math.IsInf(float64(HalfToFloat(0x7c00)), 1))
	assert.True(t, math.IsNaN(float64(HalfToFloat(0x7e00))))
}

func TestToneMap(t *testing.T) {
	assert.Equal(t, uint8(0), ToneMap(0, 1))
	assert.Equal(t, uint8(0), ToneMap(-3, 1))
	assert.Equal(t, uint8(0), ToneMap(float32(math.NaN()), 1))
	assert.Equal(t, uint8(255), ToneMap(1000, 1))
	assert.Less(t, ToneMap(0.1, 1), ToneMap(0.5, 1))
	assert.Less(t, ToneMap(0.1, 1), ToneMap(0.1, 4))
}

func TestFaceImageSizeMismatch(t *testing.T) {
	_, err := FaceImage(make([]byte, 10), 8, 1)
	assert.Error(t, err)
}

func bakedTexture(t *testing.T, size uint32) (*gputest.Device, gpu.Handle) {
	t.Helper()
	dev := gputest.New(false)
	tex, err := dev.CreateCubeTexture(gpu.TextureDesc{Size: size, Levels: 1})
	require.NoError(t, err)
	return dev, tex
}

func TestReadFaces(t *testing.T) {
	dev, tex := bakedTexture(t, 8)
	faces, size, err := ReadFaces(dev, tex, 1)
	require.NoError(t, err)
	require.Len(t, faces, gpu.CubeFaces)
	assert.Equal(t, uint32(8), size)

	// Brighter faces in the fake map to brighter pixels.
	for f := 1; f < gpu.CubeFaces; f++ {
		assert.Greater(t, faces[f].Pix[0], faces[f-1].Pix[0], "face %d", f)
	}
}

func TestReadFacesErrors(t *testing.T) {
	dev, tex := bakedTexture(t, 8)

	_, _, err := ReadFaces(dev, gpu.NullHandle, 1)
	assert.ErrorIs(t, err, ErrNoTexture)

	_, _, err = ReadFaces(dev, tex+100, 1)
	assert.ErrorIs(t, err, gpu.ErrInvalidHandle)

	dev.Fail["ReadCubeFace"] = true
	_, _, err = ReadFaces(dev, tex, 1)
	assert.ErrorIs(t, err, gputest.ErrInjected)
}

func TestStripLayout(t *testing.T) {
	dev, tex := bakedTexture(t, 16)
	faces, _, err := ReadFaces(dev, tex, 1)
	require.NoError(t, err)

	strip := Strip(faces)
	assert.Equal(t, 16, strip.Bounds().Dx())
	assert.Equal(t, 96, strip.Bounds().Dy())
	for f := 0; f < gpu.CubeFaces; f++ {
		assert.Equal(t, faces[f].RGBAAt(3, 5), strip.RGBAAt(3, f*16+5), "face %d", f)
	}

	assert.True(t, Strip(nil).Bounds().Empty())
}

func TestWrite(t *testing.T) {
	dev, tex := bakedTexture(t, 8)
	dir := filepath.Join(t.TempDir(), "out")

	res, err := Write(dev, tex, Options{Dir: dir, Workers: 3})
	require.NoError(t, err)
	assert.Equal(t, uint32(8), res.Size)

	for i, path := range res.Faces {
		assert.Equal(t, filepath.Join(dir, "face_"+FaceNames[i]+".png"), path)
		f, err := os.Open(path)
		require.NoError(t, err)
		img, err := png.Decode(f)
		f.Close()
		require.NoError(t, err)
		assert.Equal(t, 8, img.Bounds().Dx())
	}

	f, err := os.Open(res.Strip)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Width)
	assert.Equal(t, 48, cfg.Height)
}

func TestWriteStopsItsWorkers(t *testing.T) {
	dev, tex := bakedTexture(t, 8)
	dir := t.TempDir()
	baseline := runtime.NumGoroutine()

	for i := 0; i < 5; i++ {
		_, err := Write(dev, tex, Options{Dir: dir, Workers: 4})
		require.NoError(t, err)
	}

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= baseline
	}, 2*time.Second, 10*time.Millisecond, "encode workers still running")
}

func TestWriteWithSharedPool(t *testing.T) {
	dev, tex := bakedTexture(t, 8)
	pool := worker.NewDynamicWorkerPool(2, 16, time.Second)
	defer pool.Stop()

	for i := 0; i < 3; i++ {
		res, err := Write(dev, tex, Options{Dir: t.TempDir(), Pool: pool})
		require.NoError(t, err)
		_, err = os.Stat(res.Strip)
		assert.NoError(t, err)
	}
}
