package camera

import (
	"envtex/internal/noise"

	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// MaxPitch keeps the view away from the poles, where the up vector degenerates.
const MaxPitch = 89

// LookCamera stays at the origin and only turns. It is used to look around
// the inside of a sky cube.
type LookCamera struct {
	Yaw       float32
	Pitch     float32
	LookSpeed float32
	Fovy      float32
}

func New() *LookCamera {
	return &LookCamera{
		Yaw:       -90.0,
		Pitch:     10.0,
		LookSpeed: 0.15,
		Fovy:      70,
	}
}

// Turn applies a mouse delta in pixels.
func (c *LookCamera) Turn(dx, dy float32) {
	c.Yaw += dx * c.LookSpeed
	c.Pitch -= dy * c.LookSpeed
	c.Pitch = noise.Clamp(c.Pitch, -MaxPitch, MaxPitch)

	// wrap into (-360, 360)
	c.Yaw = math32.Mod(c.Yaw, 360)
}

// Update turns the camera while the right mouse button is held.
func (c *LookCamera) Update() {
	if !rl.IsMouseButtonDown(rl.MouseRightButton) {
		return
	}
	d := rl.GetMouseDelta()
	c.Turn(d.X, d.Y)
}

// Forward returns the unit view direction.
func (c *LookCamera) Forward() rl.Vector3 {
	yawRad := c.Yaw * math32.Pi / 180
	pitchRad := c.Pitch * math32.Pi / 180

	return rl.Vector3{
		X: math32.Cos(yawRad) * math32.Cos(pitchRad),
		Y: math32.Sin(pitchRad),
		Z: math32.Sin(yawRad) * math32.Cos(pitchRad),
	}
}

func (c *LookCamera) GetRaylibCamera() rl.Camera3D {
	return rl.Camera3D{
		Position:   rl.Vector3{},
		Target:     c.Forward(),
		Up:         rl.Vector3{X: 0, Y: 1, Z: 0},
		Fovy:       c.Fovy,
		Projection: rl.CameraPerspective,
	}
}
