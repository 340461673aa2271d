// Package gputest provides an in-memory gpu.Device that records every call.
package gputest

import (
	"errors"
	"fmt"
	"sync"

	"envtex/internal/gpu"
)

// ErrInjected is returned by calls listed in Device.Fail.
var ErrInjected = errors.New("gputest: injected failure")

// Call is one recorded device call.
type Call struct {
	Op     string
	Handle gpu.Handle
}

// Device is a fake gpu.Device. Handles are unique for the life of the fake,
// so a leaked or double-freed handle shows up in Live and Errors.
type Device struct {
	// Extensions lists capabilities HasExtension reports as present.
	Extensions map[string]bool
	// Fail makes the named operation return ErrInjected.
	Fail map[string]bool

	mu         sync.Mutex
	next       gpu.Handle
	programs   map[gpu.Handle]string
	textures   map[gpu.Handle]gpu.TextureDesc
	Calls      []Call
	Dispatches []gpu.DispatchParams
	Errors     []error
}

var _ gpu.Device = (*Device)(nil)

// New returns a fake device. halfFloat controls ExtColorBufferHalfFloat.
func New(halfFloat bool) *Device {
	return &Device{
		Extensions: map[string]bool{gpu.ExtColorBufferHalfFloat: halfFloat},
		Fail:       map[string]bool{},
		programs:   map[gpu.Handle]string{},
		textures:   map[gpu.Handle]gpu.TextureDesc{},
	}
}

func (d *Device) record(op string, h gpu.Handle) {
	d.Calls = append(d.Calls, Call{Op: op, Handle: h})
}

func (d *Device) CreateComputeProgram(name, source string) (gpu.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Fail["CreateComputeProgram"] {
		return gpu.NullHandle, ErrInjected
	}
	d.next++
	d.programs[d.next] = name
	d.record("CreateComputeProgram", d.next)
	return d.next, nil
}

func (d *Device) DeleteProgram(h gpu.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DeleteProgram", h)
	if _, ok := d.programs[h]; !ok {
		d.Errors = append(d.Errors, fmt.Errorf("delete of unknown program %d", h))
		return
	}
	delete(d.programs, h)
}

func (d *Device) CreateCubeTexture(desc gpu.TextureDesc) (gpu.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Fail["CreateCubeTexture"] {
		return gpu.NullHandle, ErrInjected
	}
	if err := desc.Validate(); err != nil {
		return gpu.NullHandle, err
	}
	d.next++
	d.textures[d.next] = desc
	d.record("CreateCubeTexture", d.next)
	return d.next, nil
}

func (d *Device) DeleteTexture(h gpu.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DeleteTexture", h)
	if _, ok := d.textures[h]; !ok {
		d.Errors = append(d.Errors, fmt.Errorf("delete of unknown texture %d", h))
		return
	}
	delete(d.textures, h)
}

func (d *Device) Describe(h gpu.Handle) (gpu.TextureDesc, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	desc, ok := d.textures[h]
	return desc, ok
}

func (d *Device) HasExtension(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("HasExtension", gpu.NullHandle)
	return d.Extensions[name]
}

func (d *Device) Dispatch(params gpu.DispatchParams) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("Dispatch", params.Image)
	if d.Fail["Dispatch"] {
		return ErrInjected
	}
	if _, ok := d.programs[params.Program]; !ok {
		return fmt.Errorf("%w: program %d", gpu.ErrInvalidHandle, params.Program)
	}
	if _, ok := d.textures[params.Image]; !ok {
		return fmt.Errorf("%w: texture %d", gpu.ErrInvalidHandle, params.Image)
	}
	params.Uniforms = append([]byte(nil), params.Uniforms...)
	d.Dispatches = append(d.Dispatches, params)
	return nil
}

func (d *Device) MemoryBarrier() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("MemoryBarrier", gpu.NullHandle)
	if d.Fail["MemoryBarrier"] {
		return ErrInjected
	}
	return nil
}

func (d *Device) GenerateMipmap(h gpu.Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("GenerateMipmap", h)
	if d.Fail["GenerateMipmap"] {
		return ErrInjected
	}
	if _, ok := d.textures[h]; !ok {
		return fmt.Errorf("%w: texture %d", gpu.ErrInvalidHandle, h)
	}
	return nil
}

// ReadCubeFace returns a deterministic pattern: every texel of face f holds
// the half-float value (f+1)/8 in RGB and 1 in A.
func (d *Device) ReadCubeFace(h gpu.Handle, face, level uint32) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("ReadCubeFace", h)
	if d.Fail["ReadCubeFace"] {
		return nil, ErrInjected
	}
	desc, ok := d.textures[h]
	if !ok {
		return nil, fmt.Errorf("%w: texture %d", gpu.ErrInvalidHandle, h)
	}
	if face >= gpu.CubeFaces || level >= desc.Levels {
		return nil, fmt.Errorf("%w: face %d level %d", gpu.ErrInvalidDesc, face, level)
	}

	size := gpu.LevelSize(desc.Size, level)
	v := FaceValue(face)
	texel := []byte{byte(v), byte(v >> 8), byte(v), byte(v >> 8), byte(v), byte(v >> 8), 0x00, 0x3c}
	out := make([]byte, 0, int(size*size)*gpu.BytesPerTexel)
	for i := uint32(0); i < size*size; i++ {
		out = append(out, texel...)
	}
	return out, nil
}

// FaceValue is the half-float bit pattern ReadCubeFace fills face f with.
func FaceValue(face uint32) uint16 {
	// (f+1)/8 for f in 0..5: 0.125, 0.25, 0.375, 0.5, 0.625, 0.75
	return [...]uint16{0x3000, 0x3400, 0x3600, 0x3800, 0x3900, 0x3a00}[face]
}

// LiveTextures returns the number of textures not yet deleted.
func (d *Device) LiveTextures() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.textures)
}

// LivePrograms returns the number of programs not yet deleted.
func (d *Device) LivePrograms() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.programs)
}

// Ops returns the recorded operation names in order.
func (d *Device) Ops() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	ops := make([]string, len(d.Calls))
	for i, c := range d.Calls {
		ops[i] = c.Op
	}
	return ops
}
