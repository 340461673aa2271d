// Package export reads a baked cube texture back from the device and writes
// it out as PNG images.
package export

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"envtex/internal/gpu"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/chewxy/math32"
)

// FaceNames follow the cube-map layer order +X, -X, +Y, -Y, +Z, -Z.
var FaceNames = [gpu.CubeFaces]string{"px", "nx", "py", "ny", "pz", "nz"}

// StripName is the file holding all faces stacked vertically.
const StripName = "sky_strip.png"

var ErrNoTexture = errors.New("export: no texture to read")

// Options controls an export.
type Options struct {
	Dir      string
	Exposure float32
	Workers  int

	// Pool encodes the images when set and is left running. Otherwise Write
	// starts a pool of Workers and stops it before returning.
	Pool worker.DynamicWorkerPool
}

// Result lists what was written.
type Result struct {
	Faces [gpu.CubeFaces]string
	Strip string
	Size  uint32
}

// HalfToFloat decodes an IEEE 754 binary16 value.
func HalfToFloat(h uint16) float32 {
	sign := uint32(h>>15) << 31
	exp := uint32(h>>10) & 0x1f
	frac := uint32(h) & 0x3ff

	switch {
	case exp == 0 && frac == 0:
		return math32.Float32frombits(sign)
	case exp == 0:
		// subnormal: renormalize into a float32 normal
		e := uint32(127 - 15 + 1)
		for frac&0x400 == 0 {
			frac <<= 1
			e--
		}
		frac &= 0x3ff
		return math32.Float32frombits(sign | e<<23 | frac<<13)
	case exp == 0x1f:
		return math32.Float32frombits(sign | 0xff<<23 | frac<<13)
	default:
		return math32.Float32frombits(sign | (exp+127-15)<<23 | frac<<13)
	}
}

// ToneMap maps linear radiance to an 8-bit sRGB-ish channel.
func ToneMap(v, exposure float32) uint8 {
	if !(v > 0) {
		return 0
	}
	mapped := 1 - math32.Exp(-v*exposure)
	mapped = math32.Pow(mapped, 1/2.2)
	return uint8(mapped*255 + 0.5)
}

// FaceImage converts tightly packed RGBA16F texels into an 8-bit image.
func FaceImage(texels []byte, size uint32, exposure float32) (*image.RGBA, error) {
	want := int(size*size) * gpu.BytesPerTexel
	if len(texels) != want {
		return nil, fmt.Errorf("export: face has %d bytes, want %d", len(texels), want)
	}

	img := image.NewRGBA(image.Rect(0, 0, int(size), int(size)))
	le := binary.LittleEndian
	for i := 0; i < int(size*size); i++ {
		t := texels[i*gpu.BytesPerTexel:]
		r := HalfToFloat(le.Uint16(t[0:]))
		g := HalfToFloat(le.Uint16(t[2:]))
		b := HalfToFloat(le.Uint16(t[4:]))
		img.Pix[i*4+0] = ToneMap(r, exposure)
		img.Pix[i*4+1] = ToneMap(g, exposure)
		img.Pix[i*4+2] = ToneMap(b, exposure)
		img.Pix[i*4+3] = 0xff
	}
	return img, nil
}

// Strip stacks equally sized faces top to bottom in layer order.
func Strip(faces []*image.RGBA) *image.RGBA {
	if len(faces) == 0 {
		return image.NewRGBA(image.Rectangle{})
	}
	size := faces[0].Bounds().Dx()
	out := image.NewRGBA(image.Rect(0, 0, size, size*len(faces)))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	for i, f := range faces {
		r := image.Rect(0, i*size, size, (i+1)*size)
		draw.Draw(out, r, f, f.Bounds().Min, draw.Src)
	}
	return out
}

// ReadFaces pulls level 0 of every face into 8-bit images.
func ReadFaces(dev gpu.Device, tex gpu.Handle, exposure float32) ([]*image.RGBA, uint32, error) {
	if tex == gpu.NullHandle {
		return nil, 0, ErrNoTexture
	}
	desc, ok := dev.Describe(tex)
	if !ok {
		return nil, 0, fmt.Errorf("%w: texture %d", gpu.ErrInvalidHandle, tex)
	}

	faces := make([]*image.RGBA, gpu.CubeFaces)
	for f := uint32(0); f < gpu.CubeFaces; f++ {
		texels, err := dev.ReadCubeFace(tex, f, 0)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read face %s: %w", FaceNames[f], err)
		}
		faces[f], err = FaceImage(texels, desc.Size, exposure)
		if err != nil {
			return nil, 0, err
		}
	}
	return faces, desc.Size, nil
}

type encodeJob struct {
	path string
	img  image.Image
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write reads the texture back and writes one PNG per face plus the strip.
// Encoding runs on a worker pool; device reads stay on the calling goroutine.
func Write(dev gpu.Device, tex gpu.Handle, opts Options) (Result, error) {
	if opts.Exposure <= 0 {
		opts.Exposure = 1
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}

	faces, size, err := ReadFaces(dev, tex, opts.Exposure)
	if err != nil {
		return Result{}, err
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("failed to create output dir: %w", err)
	}

	res := Result{Size: size, Strip: filepath.Join(opts.Dir, StripName)}
	jobs := make([]encodeJob, 0, gpu.CubeFaces+1)
	for i, f := range faces {
		res.Faces[i] = filepath.Join(opts.Dir, "face_"+FaceNames[i]+".png")
		jobs = append(jobs, encodeJob{res.Faces[i], f})
	}
	jobs = append(jobs, encodeJob{res.Strip, Strip(faces)})

	pool := opts.Pool
	if pool == nil {
		pool = worker.NewDynamicWorkerPool(opts.Workers, len(jobs), time.Second)
		defer pool.Stop()
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for id, job := range jobs {
		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				if err := writePNG(job.path, job.img); err != nil {
					mu.Lock()
					errs = append(errs, fmt.Errorf("failed to write %s: %w", job.path, err))
					mu.Unlock()
					return nil, err
				}
				return job.path, nil
			},
		})
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return Result{}, err
	}
	return res, nil
}
