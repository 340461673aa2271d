package gpu

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// AdapterInfo contains GPU information.
type AdapterInfo struct {
	Name       string
	Vendor     string
	Backend    string
	DeviceType string
	Driver     string
}

// Options configures a System.
type Options struct {
	// DisableHalfFloat hides ExtColorBufferHalfFloat, forcing single-level
	// textures.
	DisableHalfFloat bool
	Logger           *slog.Logger
}

// System is a WebGPU-backed Device. Handles are issued from one counter and
// never reused while the System lives.
type System struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	log       *slog.Logger
	halfFloat bool

	mu       sync.Mutex
	next     Handle
	programs map[Handle]*program
	textures map[Handle]*texture
	mip      *program
}

var _ Device = (*System)(nil)

type program struct {
	name     string
	shader   *wgpu.ShaderModule
	pipeline *wgpu.ComputePipeline
	layout   *wgpu.BindGroupLayout
}

func (p *program) release() {
	p.layout.Release()
	p.pipeline.Release()
	p.shader.Release()
}

type texture struct {
	desc TextureDesc
	tex  *wgpu.Texture
}

// NewSystem opens the high-performance adapter and compiles the internal
// mipmap program.
func NewSystem(opts Options) (*System, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	instance := wgpu.CreateInstance(nil)

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("failed to get GPU adapter: %w", err)
	}

	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("failed to get GPU device: %w", err)
	}

	s := &System{
		instance:  instance,
		adapter:   adapter,
		device:    device,
		queue:     device.GetQueue(),
		log:       log,
		halfFloat: !opts.DisableHalfFloat,
		programs:  make(map[Handle]*program),
		textures:  make(map[Handle]*texture),
	}

	s.mip, err = s.compile("mipmap", mipmapShader)
	if err != nil {
		s.Release()
		return nil, err
	}
	return s, nil
}

// Info describes the adapter in use.
func (s *System) Info() AdapterInfo {
	info := s.adapter.GetInfo()
	return AdapterInfo{
		Name:       info.Name,
		Vendor:     info.VendorName,
		Backend:    info.BackendType.String(),
		DeviceType: info.AdapterType.String(),
		Driver:     info.DriverDescription,
	}
}

func (s *System) compile(name, source string) (*program, error) {
	shaderModule, err := s.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: source,
		},
	})
	if err != nil {
		return nil, check(s.log, "create shader module "+name, err)
	}

	pipeline, err := s.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: name,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     shaderModule,
			EntryPoint: "main",
		},
	})
	if err != nil {
		shaderModule.Release()
		return nil, check(s.log, "create compute pipeline "+name, err)
	}

	return &program{
		name:     name,
		shader:   shaderModule,
		pipeline: pipeline,
		layout:   pipeline.GetBindGroupLayout(0),
	}, nil
}

func (s *System) issue() Handle {
	s.next++
	return s.next
}

func (s *System) CreateComputeProgram(name, source string) (Handle, error) {
	if s.device == nil {
		return NullHandle, ErrNotInitialized
	}
	p, err := s.compile(name, source)
	if err != nil {
		return NullHandle, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.issue()
	s.programs[h] = p
	s.log.Debug("compiled compute program", "name", name, "handle", h)
	return h, nil
}

func (s *System) DeleteProgram(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.programs[h]; ok {
		p.release()
		delete(s.programs, h)
	}
}

func (s *System) CreateCubeTexture(desc TextureDesc) (Handle, error) {
	if s.device == nil {
		return NullHandle, ErrNotInitialized
	}
	if err := desc.Validate(); err != nil {
		return NullHandle, err
	}

	tex, err := s.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Usage: wgpu.TextureUsageStorageBinding | wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopySrc,
		Size: wgpu.Extent3D{
			Width:              desc.Size,
			Height:             desc.Size,
			DepthOrArrayLayers: CubeFaces,
		},
		MipLevelCount: desc.Levels,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA16Float,
	})
	if err != nil {
		return NullHandle, check(s.log, "create cube texture", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.issue()
	s.textures[h] = &texture{desc: desc, tex: tex}
	return h, nil
}

func (s *System) DeleteTexture(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.textures[h]; ok {
		t.tex.Release()
		delete(s.textures, h)
	}
}

// Describe returns the description a texture was created with.
func (s *System) Describe(h Handle) (TextureDesc, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.textures[h]
	if !ok {
		return TextureDesc{}, false
	}
	return t.desc, true
}

// HasExtension maps GL capability names onto WebGPU. rgba16float is a core
// renderable and storage format, so the half-float extension is present
// unless masked off.
func (s *System) HasExtension(name string) bool {
	switch name {
	case ExtColorBufferHalfFloat:
		return s.halfFloat
	default:
		return false
	}
}

// faceView views one mip level of a cube texture as a six-layer 2D array.
func faceView(t *texture, level uint32) (*wgpu.TextureView, error) {
	return t.tex.CreateView(&wgpu.TextureViewDescriptor{
		Label:           t.desc.Label,
		Format:          wgpu.TextureFormatRGBA16Float,
		Dimension:       wgpu.TextureViewDimension2DArray,
		BaseMipLevel:    level,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: CubeFaces,
		Aspect:          wgpu.TextureAspectAll,
	})
}

// Dispatch executes a compute program against one level of a cube texture.
func (s *System) Dispatch(params DispatchParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.programs[params.Program]
	if !ok {
		return fmt.Errorf("%w: program %d", ErrInvalidHandle, params.Program)
	}
	t, ok := s.textures[params.Image]
	if !ok {
		return fmt.Errorf("%w: texture %d", ErrInvalidHandle, params.Image)
	}
	if params.WorkgroupsY == 0 {
		params.WorkgroupsY = 1
	}
	if params.WorkgroupsZ == 0 {
		params.WorkgroupsZ = 1
	}

	var entries []wgpu.BindGroupEntry
	if len(params.Uniforms) > 0 {
		uniforms, err := s.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    p.name + "_uniforms",
			Contents: params.Uniforms,
			Usage:    wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return check(s.log, "create uniform buffer", err)
		}
		defer uniforms.Release()
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: 0,
			Buffer:  uniforms,
			Size:    uint64(len(params.Uniforms)),
		})
	}

	view, err := faceView(t, params.Level)
	if err != nil {
		return check(s.log, "create texture view", err)
	}
	defer view.Release()
	entries = append(entries, wgpu.BindGroupEntry{Binding: 1, TextureView: view})

	bindGroup, err := s.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   p.name + "_bind_group",
		Layout:  p.layout,
		Entries: entries,
	})
	if err != nil {
		return check(s.log, "create bind group", err)
	}
	defer bindGroup.Release()

	encoder, err := s.device.CreateCommandEncoder(nil)
	if err != nil {
		return check(s.log, "create command encoder", err)
	}

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(params.WorkgroupsX, params.WorkgroupsY, params.WorkgroupsZ)
	pass.End()
	pass.Release()

	commands, err := encoder.Finish(nil)
	if err != nil {
		return check(s.log, "finish command encoder", err)
	}
	defer commands.Release()

	s.queue.Submit(commands)
	return nil
}

// MemoryBarrier blocks until submitted work has completed. WebGPU orders
// submissions itself, so waiting on the queue is enough to make writes visible.
func (s *System) MemoryBarrier() error {
	if s.device == nil {
		return ErrNotInitialized
	}
	s.device.Poll(true, nil)
	return nil
}

// GenerateMipmap box-filters each level from the one above it. WebGPU has no
// built-in mip generation, so this runs the internal downsample program.
func (s *System) GenerateMipmap(h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.textures[h]
	if !ok {
		return fmt.Errorf("%w: texture %d", ErrInvalidHandle, h)
	}
	if t.desc.Levels < 2 {
		return nil
	}

	encoder, err := s.device.CreateCommandEncoder(nil)
	if err != nil {
		return check(s.log, "create command encoder", err)
	}

	var releases []func()
	defer func() {
		for _, r := range releases {
			r()
		}
	}()

	for level := uint32(1); level < t.desc.Levels; level++ {
		src, err := faceView(t, level-1)
		if err != nil {
			return check(s.log, "create mip source view", err)
		}
		releases = append(releases, src.Release)

		dst, err := faceView(t, level)
		if err != nil {
			return check(s.log, "create mip target view", err)
		}
		releases = append(releases, dst.Release)

		bindGroup, err := s.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "mipmap_bind_group",
			Layout: s.mip.layout,
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, TextureView: src},
				{Binding: 1, TextureView: dst},
			},
		})
		if err != nil {
			return check(s.log, "create mip bind group", err)
		}
		releases = append(releases, bindGroup.Release)

		groups := (LevelSize(t.desc.Size, level) + 7) / 8
		pass := encoder.BeginComputePass(nil)
		pass.SetPipeline(s.mip.pipeline)
		pass.SetBindGroup(0, bindGroup, nil)
		pass.DispatchWorkgroups(groups, groups, CubeFaces)
		pass.End()
		pass.Release()
	}

	commands, err := encoder.Finish(nil)
	if err != nil {
		return check(s.log, "finish command encoder", err)
	}
	defer commands.Release()

	s.queue.Submit(commands)
	return nil
}

// ReadCubeFace copies one face of one level back to the CPU, stripping the
// row padding WebGPU requires for texture-to-buffer copies.
func (s *System) ReadCubeFace(h Handle, face, level uint32) ([]byte, error) {
	s.mu.Lock()
	t, ok := s.textures[h]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: texture %d", ErrInvalidHandle, h)
	}
	if face >= CubeFaces || level >= t.desc.Levels {
		return nil, fmt.Errorf("%w: face %d level %d", ErrInvalidDesc, face, level)
	}

	size := LevelSize(t.desc.Size, level)
	rowSize := size * BytesPerTexel
	align := uint32(wgpu.CopyBytesPerRowAlignment)
	paddedRow := rowSize + (align-rowSize%align)%align
	bufSize := uint64(paddedRow) * uint64(size)

	staging, err := s.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "staging_face_read",
		Size:  bufSize,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, check(s.log, "create staging buffer", err)
	}
	defer staging.Release()

	encoder, err := s.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, check(s.log, "create command encoder", err)
	}
	encoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: level,
			Origin:   wgpu.Origin3D{X: 0, Y: 0, Z: face},
			Aspect:   wgpu.TextureAspectAll,
		},
		&wgpu.ImageCopyBuffer{
			Buffer: staging,
			Layout: wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  paddedRow,
				RowsPerImage: size,
			},
		},
		&wgpu.Extent3D{Width: size, Height: size, DepthOrArrayLayers: 1},
	)
	commands, err := encoder.Finish(nil)
	if err != nil {
		return nil, check(s.log, "finish encoder", err)
	}
	s.queue.Submit(commands)
	commands.Release()

	done := make(chan error, 1)
	err = staging.MapAsync(wgpu.MapModeRead, 0, bufSize, func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			done <- fmt.Errorf("failed to map buffer: %v", status)
		} else {
			done <- nil
		}
	})
	if err != nil {
		return nil, err
	}

	s.device.Poll(true, nil)
	if err := <-done; err != nil {
		return nil, err
	}

	mapped := staging.GetMappedRange(0, uint(bufSize))
	result := make([]byte, 0, rowSize*size)
	for row := uint32(0); row < size; row++ {
		start := row * paddedRow
		result = append(result, mapped[start:start+rowSize]...)
	}
	staging.Unmap()

	return result, nil
}

// Release frees all GPU resources, including any handles still live.
func (s *System) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.instance == nil {
		return
	}

	for h, p := range s.programs {
		p.release()
		delete(s.programs, h)
	}
	for h, t := range s.textures {
		t.tex.Release()
		delete(s.textures, h)
	}
	if s.mip != nil {
		s.mip.release()
		s.mip = nil
	}

	if s.queue != nil {
		s.queue.Release()
	}
	if s.device != nil {
		s.device.Release()
	}
	s.adapter.Release()
	s.instance.Release()
	s.queue, s.device, s.adapter, s.instance = nil, nil, nil, nil
}

const mipmapShader = `
@group(0) @binding(0) var src: texture_2d_array<f32>;
@group(0) @binding(1) var dst: texture_storage_2d_array<rgba16float, write>;

@compute @workgroup_size(8, 8, 1)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    let size = textureDimensions(dst);
    if (id.x >= size.x || id.y >= size.y) {
        return;
    }

    let layer = i32(id.z);
    let base = vec2<i32>(id.xy) * 2;
    let c = textureLoad(src, base, layer, 0)
        + textureLoad(src, base + vec2<i32>(1, 0), layer, 0)
        + textureLoad(src, base + vec2<i32>(0, 1), layer, 0)
        + textureLoad(src, base + vec2<i32>(1, 1), layer, 0);
    textureStore(dst, vec2<i32>(id.xy), layer, c * 0.25);
}
`
