// Package gpu is the handle-based device layer the generators talk to.
// System implements it on WebGPU; gputest provides a recording fake.
package gpu

import (
	"errors"
	"fmt"
	"log/slog"
)

// Handle names a program or texture owned by a Device. NullHandle is never
// issued.
type Handle uint32

const NullHandle Handle = 0

// ExtColorBufferHalfFloat is the capability that gates mip chains on RGBA16F
// render targets.
const ExtColorBufferHalfFloat = "GL_EXT_color_buffer_half_float"

// CubeFaces is the number of layers in a cube texture.
const CubeFaces = 6

// BytesPerTexel of the RGBA16F format used for cube textures.
const BytesPerTexel = 8

var (
	ErrNotInitialized = errors.New("gpu: device not initialized")
	ErrInvalidHandle  = errors.New("gpu: invalid handle")
	ErrInvalidDesc    = errors.New("gpu: invalid texture description")
)

// TextureDesc describes a square RGBA16F cube texture.
type TextureDesc struct {
	Label  string
	Size   uint32
	Levels uint32
	// Mipmapped selects linear-mipmap-nearest minification.
	Mipmapped bool
}

// Validate reports whether the description can be allocated.
func (d TextureDesc) Validate() error {
	if d.Size == 0 || d.Levels == 0 {
		return fmt.Errorf("%w: size %d, levels %d", ErrInvalidDesc, d.Size, d.Levels)
	}
	if d.Size>>(d.Levels-1) == 0 {
		return fmt.Errorf("%w: %d levels exceed size %d", ErrInvalidDesc, d.Levels, d.Size)
	}
	return nil
}

// DispatchParams describes one compute dispatch. Uniforms are bound at
// @binding(0) and Image, as a write-only storage array of its six faces at
// mip Level, at @binding(1).
type DispatchParams struct {
	Program  Handle
	Uniforms []byte
	Image    Handle
	Level    uint32

	WorkgroupsX uint32
	WorkgroupsY uint32
	WorkgroupsZ uint32
}

// Device is the set of graphics calls the generators need.
type Device interface {
	CreateComputeProgram(name, source string) (Handle, error)
	DeleteProgram(h Handle)

	CreateCubeTexture(desc TextureDesc) (Handle, error)
	DeleteTexture(h Handle)
	// Describe returns the description a live texture was created with.
	Describe(h Handle) (TextureDesc, bool)

	// HasExtension reports whether a named capability is available.
	HasExtension(name string) bool

	Dispatch(params DispatchParams) error
	// MemoryBarrier returns once prior shader writes are visible to later reads.
	MemoryBarrier() error
	// GenerateMipmap fills levels 1..n-1 from level 0.
	GenerateMipmap(h Handle) error

	// ReadCubeFace returns the tightly packed RGBA16F texels of one face.
	ReadCubeFace(h Handle, face, level uint32) ([]byte, error)
}

// check logs a failed device call and wraps it as "failed to <op>".
func check(log *slog.Logger, op string, err error) error {
	if err == nil {
		return nil
	}
	log.Error("gpu call failed", "op", op, "err", err)
	return fmt.Errorf("failed to %s: %w", op, err)
}

// LevelSize returns the edge length of a mip level, never below one texel.
func LevelSize(size, level uint32) uint32 {
	s := size >> level
	if s == 0 {
		return 1
	}
	return s
}
