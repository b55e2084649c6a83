package graphics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Camera is a free flying camera. Its position is kept in float64 so it
// can feed the terrain LOD directly.
type Camera struct {
	Position mgl64.Vec3
	// Yaw and Pitch are in degrees. Yaw 0 looks down -Z.
	Yaw   float64
	Pitch float64

	AspectRatio float32
	FOV         float32
	NearPlane   float32
	FarPlane    float32

	// Speed is in world units per second. Boost multiplies it.
	Speed float64
	Boost float64
}

func NewCamera(width, height int) *Camera {
	c := &Camera{
		FOV:       60.0,
		NearPlane: 1,
		FarPlane:  100000.0,
		Speed:     150,
		Boost:     8,
	}
	c.SetViewport(width, height)
	return c
}

// SetViewport updates the aspect ratio for a framebuffer size
func (c *Camera) SetViewport(width, height int) {
	if height <= 0 {
		height = 1
	}
	c.AspectRatio = float32(width) / float32(height)
}

// Front returns the unit view direction
func (c *Camera) Front() mgl64.Vec3 {
	yaw := mgl64.DegToRad(c.Yaw)
	pitch := mgl64.DegToRad(c.Pitch)
	return mgl64.Vec3{
		math.Sin(yaw) * math.Cos(pitch),
		math.Sin(pitch),
		-math.Cos(yaw) * math.Cos(pitch),
	}.Normalize()
}

// Right returns the unit vector to the right of the view direction
func (c *Camera) Right() mgl64.Vec3 {
	r := c.Front().Cross(mgl64.Vec3{0, 1, 0})
	if r.Len() < 1e-9 {
		return mgl64.Vec3{1, 0, 0}
	}
	return r.Normalize()
}

// Rotate applies mouse deltas in degrees, clamping the pitch.
func (c *Camera) Rotate(dYaw, dPitch float64) {
	c.Yaw = math.Mod(c.Yaw+dYaw, 360)
	c.Pitch = mgl64.Clamp(c.Pitch+dPitch, -89, 89)
}

// Move translates the camera by a direction expressed in camera space
// (x right, y up, z forward) for dt seconds.
func (c *Camera) Move(dir mgl64.Vec3, dt float64, boost bool) {
	if dir.Len() == 0 {
		return
	}
	speed := c.Speed
	if boost {
		speed *= c.Boost
	}
	world := c.Right().Mul(dir.X()).
		Add(mgl64.Vec3{0, 1, 0}.Mul(dir.Y())).
		Add(c.Front().Mul(dir.Z()))
	c.Position = c.Position.Add(world.Normalize().Mul(speed * dt))
}

// Altitude returns the distance above a sphere of the given radius.
func (c *Camera) Altitude(radius float64) float64 {
	return c.Position.Len() - radius
}

func (c *Camera) GetProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.AspectRatio, c.NearPlane, c.FarPlane)
}

func (c *Camera) GetViewMatrix() mgl32.Mat4 {
	eye := c.Position
	center := eye.Add(c.Front())
	m := mgl64.LookAtV(eye, center, mgl64.Vec3{0, 1, 0})
	var out mgl32.Mat4
	for i := range m {
		out[i] = float32(m[i])
	}
	return out
}
