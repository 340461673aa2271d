// Package scattering bakes an atmospheric-scattering sky into a cube texture
// with a ray-marching compute shader.
package scattering

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math/bits"

	"envtex/internal/gpu"
	"envtex/internal/noise"
	"envtex/internal/shader"

	"github.com/chewxy/math32"
)

// ShaderName is the compute program loaded from the shader source.
const ShaderName = "scattering"

// LocalSize is the shader's workgroup edge; sizes must divide by it.
const LocalSize = 8

const (
	DefaultSteps       = 100
	DefaultStartRadius = 6500000.0
	DefaultEndRadius   = 7000000.0
)

var (
	ErrInvalidSize = errors.New("scattering: size must be a positive multiple of 8")
	ErrReleased    = errors.New("scattering: generator released")
)

// Vec3 is a direction in world space, Y up.
type Vec3 struct {
	X, Y, Z float32
}

// Normalize returns v scaled to unit length, or v unchanged if it is zero.
func (v Vec3) Normalize() Vec3 {
	l := math32.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
	if l == 0 {
		return v
	}
	return Vec3{v.X / l, v.Y / l, v.Z / l}
}

// SunFromAngles builds a unit sun direction from elevation above the horizon
// and azimuth around +Y, both in degrees.
func SunFromAngles(elevation, azimuth float32) Vec3 {
	el := elevation * math32.Pi / 180
	az := azimuth * math32.Pi / 180
	return Vec3{
		X: math32.Cos(el) * math32.Sin(az),
		Y: math32.Sin(el),
		Z: math32.Cos(el) * math32.Cos(az),
	}
}

// AnglesFromSun is the inverse of SunFromAngles. A zero vector yields (0, 0).
func AnglesFromSun(v Vec3) (elevation, azimuth float32) {
	v = v.Normalize()
	if v == (Vec3{}) {
		return 0, 0
	}
	elevation = math32.Asin(noise.Clamp(v.Y, -1, 1)) * 180 / math32.Pi
	azimuth = math32.Atan2(v.X, v.Z) * 180 / math32.Pi
	return elevation, azimuth
}

// Params is the uniform block the shader reads. Its std140-style layout is
// sun_dir (vec3), steps (i32), start (f32), step_len (f32), padded to 32 bytes.
type Params struct {
	SunDir  Vec3
	Steps   int32
	Start   float32
	StepLen float32
}

// Bytes encodes p in the shader's layout.
func (p Params) Bytes() []byte {
	b := make([]byte, 32)
	le := binary.LittleEndian
	le.PutUint32(b[0:], math32.Float32bits(p.SunDir.X))
	le.PutUint32(b[4:], math32.Float32bits(p.SunDir.Y))
	le.PutUint32(b[8:], math32.Float32bits(p.SunDir.Z))
	le.PutUint32(b[12:], uint32(p.Steps))
	le.PutUint32(b[16:], math32.Float32bits(p.Start))
	le.PutUint32(b[20:], math32.Float32bits(p.StepLen))
	return b
}

// Option configures a Generator.
type Option func(*Generator)

// WithSteps sets the number of integration steps.
func WithSteps(n int32) Option {
	return func(g *Generator) {
		if n > 0 {
			g.steps = n
		}
	}
}

// WithRadii sets the ground and atmosphere-top radii.
func WithRadii(start, end float32) Option {
	return func(g *Generator) {
		if end > start {
			g.start, g.end = start, end
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(g *Generator) {
		if log != nil {
			g.log = log
		}
	}
}

// Generator owns one compute program and at most one cube texture. It is not
// safe for concurrent use, and it shares the device's binding state.
type Generator struct {
	dev  gpu.Device
	log  *slog.Logger
	prog gpu.Handle
	tex  gpu.Handle

	size   uint32
	levels uint32

	steps      int32
	start, end float32
	released   bool
}

// New compiles the scattering program. On failure nothing is left allocated.
func New(dev gpu.Device, src shader.Source, opts ...Option) (*Generator, error) {
	g := &Generator{
		dev:   dev,
		log:   slog.Default(),
		steps: DefaultSteps,
		start: DefaultStartRadius,
		end:   DefaultEndRadius,
	}
	for _, opt := range opts {
		opt(g)
	}

	code, err := src.Load(ShaderName)
	if err != nil {
		return nil, fmt.Errorf("scattering: %w", err)
	}
	g.prog, err = dev.CreateComputeProgram(ShaderName, code)
	if err != nil {
		return nil, fmt.Errorf("scattering: failed to compile program: %w", err)
	}
	return g, nil
}

// DispatchGroups returns the workgroup grid for a cube of edge size: one
// 8x8 group per tile and one layer per face.
func DispatchGroups(size uint32) (x, y, z uint32) {
	return size / LocalSize, size / LocalSize, gpu.CubeFaces
}

// MipLevels returns log2(size)+1 when mipmapped, else 1. Sizes that are not a
// power of two get a single level, since the box filter halves exactly.
func MipLevels(size uint32, mipmapped bool) uint32 {
	if !mipmapped || size == 0 || size&(size-1) != 0 {
		return 1
	}
	return uint32(bits.Len32(size))
}

// ValidateSize reports whether size can be dispatched without truncation.
func ValidateSize(size uint32) error {
	if size == 0 || size%LocalSize != 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}
	return nil
}

// Params returns the uniforms used for a given sun direction.
func (g *Generator) Params(sunDir Vec3) Params {
	return Params{
		SunDir:  sunDir,
		Steps:   g.steps,
		Start:   g.start,
		StepLen: (g.end - g.start) / float32(g.steps),
	}
}

// Generate replaces the current texture with a freshly baked sky of the given
// edge length. The previous texture is deleted before the new one is created.
// A rejected size or a released generator leaves the current texture as it
// was; a device failure leaves the generator with no texture.
func (g *Generator) Generate(size uint32, sunDir Vec3) error {
	if g.released {
		return ErrReleased
	}
	if err := ValidateSize(size); err != nil {
		return err
	}

	g.releaseTexture()

	mipmapped := g.dev.HasExtension(gpu.ExtColorBufferHalfFloat)
	levels := MipLevels(size, mipmapped)
	if mipmapped && levels == 1 {
		g.log.Warn("size is not a power of two, skipping mipmaps", "size", size)
	}

	tex, err := g.dev.CreateCubeTexture(gpu.TextureDesc{
		Label:     "scattering",
		Size:      size,
		Levels:    levels,
		Mipmapped: levels > 1,
	})
	if err != nil {
		return fmt.Errorf("scattering: failed to allocate texture: %w", err)
	}
	g.tex, g.size, g.levels = tex, size, levels

	x, y, z := DispatchGroups(size)
	err = g.dev.Dispatch(gpu.DispatchParams{
		Program:     g.prog,
		Uniforms:    g.Params(sunDir).Bytes(),
		Image:       tex,
		Level:       0,
		WorkgroupsX: x,
		WorkgroupsY: y,
		WorkgroupsZ: z,
	})
	if err != nil {
		g.releaseTexture()
		return fmt.Errorf("scattering: failed to dispatch: %w", err)
	}

	if err := g.dev.MemoryBarrier(); err != nil {
		g.releaseTexture()
		return fmt.Errorf("scattering: failed to synchronize: %w", err)
	}

	if levels > 1 {
		if err := g.dev.GenerateMipmap(tex); err != nil {
			g.releaseTexture()
			return fmt.Errorf("scattering: failed to generate mipmaps: %w", err)
		}
	}

	g.log.Debug("generated sky", "size", size, "levels", levels,
		"sun", fmt.Sprintf("(%.3f, %.3f, %.3f)", sunDir.X, sunDir.Y, sunDir.Z))
	return nil
}

func (g *Generator) releaseTexture() {
	if g.tex != gpu.NullHandle {
		g.dev.DeleteTexture(g.tex)
		g.tex = gpu.NullHandle
		g.size, g.levels = 0, 0
	}
}

// Texture returns the current cube texture, or gpu.NullHandle.
func (g *Generator) Texture() gpu.Handle { return g.tex }

// Size returns the edge length of the current texture.
func (g *Generator) Size() uint32 { return g.size }

// Levels returns the mip count of the current texture.
func (g *Generator) Levels() uint32 { return g.levels }

// Release deletes the texture and program. Later calls do nothing.
func (g *Generator) Release() {
	if g.released {
		return
	}
	g.releaseTexture()
	if g.prog != gpu.NullHandle {
		g.dev.DeleteProgram(g.prog)
		g.prog = gpu.NullHandle
	}
	g.released = true
}
