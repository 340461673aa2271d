package main

import (
	"fmt"
	"log/slog"
	"runtime"
	"unsafe"

	"envtex/internal/bake"
	"envtex/internal/camera"
	"envtex/internal/config"
	"envtex/internal/model"
	"envtex/internal/scattering"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

const skyVS = `#version 330
in vec3 vertexPosition;
uniform mat4 matProjection;
uniform mat4 matView;
out vec3 fragPosition;

void main() {
    fragPosition = vertexPosition;
    mat4 rotView = mat4(mat3(matView));
    gl_Position = matProjection * rotView * vec4(vertexPosition, 1.0);
}
`

const skyFS = `#version 330
in vec3 fragPosition;
uniform samplerCube environmentMap;
out vec4 finalColor;

void main() {
    finalColor = vec4(texture(environmentMap, fragPosition).rgb, 1.0);
}
`

// rebaker regenerates the strip for a new sun direction and returns its path.
type rebaker interface {
	Rebake(sun scattering.Vec3) (string, error)
	Close()
}

type viewer struct {
	cfg config.Config
	log *slog.Logger
	cam *camera.LookCamera

	verts  []float32
	pin    runtime.Pinner
	sky    rl.Model
	shader rl.Shader
	cube   rl.Texture2D

	elevation, azimuth float32
	dirty              bool
	status             string
	baker              rebaker
}

func run(cfg config.Config, strip string, log *slog.Logger) error {
	rl.SetConfigFlags(rl.FlagWindowHighdpi | rl.FlagWindowResizable)
	rl.InitWindow(1280, 720, "skyview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	v := &viewer{cfg: cfg, log: log, cam: camera.New()}
	v.elevation, v.azimuth = scattering.AnglesFromSun(bake.Sun(cfg))
	v.loadSky()
	defer v.unload()

	if err := v.loadCubemap(strip); err != nil {
		return err
	}

	v.baker = newRebaker(cfg, log)
	if v.baker != nil {
		defer v.baker.Close()
	}

	for !rl.WindowShouldClose() {
		v.update()
		v.draw()
	}
	return nil
}

func (v *viewer) loadSky() {
	v.verts = model.CubeTriangles(1)
	model.FlipWinding(v.verts)
	v.pin.Pin(&v.verts[0])

	mesh := rl.Mesh{
		VertexCount:   model.CubeVertexCount,
		TriangleCount: model.CubeVertexCount / 3,
		Vertices:      &v.verts[0],
	}
	rl.UploadMesh(&mesh, false)
	v.sky = rl.LoadModelFromMesh(mesh)

	v.shader = rl.LoadShaderFromMemory(skyVS, skyFS)
	// raylib binds the cubemap map slot to this sampler when drawing
	locs := unsafe.Slice(v.shader.Locs, rl.ShaderLocMapCubemap+1)
	locs[rl.ShaderLocMapCubemap] = rl.GetShaderLocation(v.shader, "environmentMap")
	v.sky.Materials.Shader = v.shader
}

func (v *viewer) loadCubemap(path string) error {
	img := rl.LoadImage(path)
	if img == nil || img.Width == 0 {
		return fmt.Errorf("failed to load %s", path)
	}
	defer rl.UnloadImage(img)

	cube := rl.LoadTextureCubemap(img, rl.CubemapLayoutLineVertical)
	if cube.ID == 0 {
		return fmt.Errorf("%s is not a vertical cube strip (%dx%d)", path, img.Width, img.Height)
	}

	if v.cube.ID != 0 {
		rl.UnloadTexture(v.cube)
	}
	v.cube = cube
	rl.SetMaterialTexture(v.sky.Materials, rl.MapCubemap, v.cube)
	v.log.Info("loaded sky", "path", path, "face", img.Width)
	return nil
}

func (v *viewer) unload() {
	if v.cube.ID != 0 {
		rl.UnloadTexture(v.cube)
	}
	rl.UnloadShader(v.shader)
	// The vertex array is Go memory; raylib must not free it.
	v.sky.Meshes.Vertices = nil
	rl.UnloadModel(v.sky)
	v.pin.Unpin()
}

func (v *viewer) update() {
	v.cam.Update()

	if v.dirty && v.baker != nil && rl.IsMouseButtonReleased(rl.MouseLeftButton) {
		v.dirty = false
		v.rebake()
	}
}

func (v *viewer) rebake() {
	sun := scattering.SunFromAngles(v.elevation, v.azimuth)
	path, err := v.baker.Rebake(sun)
	if err != nil {
		v.log.Error("re-bake failed", "err", err)
		v.status = "bake failed"
		return
	}
	if err := v.loadCubemap(path); err != nil {
		v.log.Error("reload failed", "err", err)
		v.status = "reload failed"
		return
	}
	v.status = fmt.Sprintf("sun (%.2f, %.2f, %.2f)", sun.X, sun.Y, sun.Z)
}

func (v *viewer) draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	rl.BeginMode3D(v.cam.GetRaylibCamera())
	rl.DrawModel(v.sky, rl.Vector3{}, 1, rl.White)
	rl.EndMode3D()

	v.drawUI()
	rl.EndDrawing()
}

func (v *viewer) drawUI() {
	rl.DrawRectangle(10, 10, 330, 110, rl.Fade(rl.Black, 0.5))
	rl.DrawText("Right mouse to look around", 20, 18, 16, rl.RayWhite)

	el := gui.Slider(rl.Rectangle{X: 100, Y: 44, Width: 180, Height: 18}, "Elevation", fmt.Sprintf("%.0f", v.elevation), v.elevation, -10, 90)
	az := gui.Slider(rl.Rectangle{X: 100, Y: 68, Width: 180, Height: 18}, "Azimuth", fmt.Sprintf("%.0f", v.azimuth), v.azimuth, -180, 180)
	if el != v.elevation || az != v.azimuth {
		v.elevation, v.azimuth = el, az
		v.dirty = true
	}

	status := v.status
	if v.baker == nil {
		status = "re-bake unavailable on this platform"
	}
	rl.DrawText(status, 20, 94, 14, rl.LightGray)
}
