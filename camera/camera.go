// Package camera provides an orbit camera for viewing the simulation domain.
package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Up is the world up axis. The simulation treats Z as height.
var Up = mgl32.Vec3{0, 0, 1}

// Camera orbits a target point. Yaw rotates around Up, Pitch tilts toward
// it, Distance is the radius of the orbit.
type Camera struct {
	Target   mgl32.Vec3
	Yaw      float32 // radians
	Pitch    float32 // radians, clamped to (-MaxPitch, MaxPitch)
	Distance float32

	// Vertical field of view in degrees
	FovY float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// Distance constraints
	MinDistance, MaxDistance float32

	home view
}

// view is the orbit state restored by Reset.
type view struct {
	Target   mgl32.Vec3
	Yaw      float32
	Pitch    float32
	Distance float32
	Min, Max float32
}

// MaxPitch keeps the camera off the poles, where the view direction would be
// parallel to Up.
const MaxPitch = 1.5

// New creates a camera framing the box [min, max] from a three-quarter view.
func New(viewportW, viewportH float32, min, max mgl32.Vec3) *Camera {
	c := &Camera{
		FovY:      45,
		ViewportW: viewportW,
		ViewportH: viewportH,
	}
	c.Frame(min, max)
	c.home = view{c.Target, c.Yaw, c.Pitch, c.Distance, c.MinDistance, c.MaxDistance}
	return c
}

// Frame points the camera at the center of [min, max] from far enough away
// to see all of it.
func (c *Camera) Frame(min, max mgl32.Vec3) {
	c.Target = min.Add(max).Mul(0.5)
	radius := max.Sub(min).Len() / 2
	halfFov := mgl32.DegToRad(c.FovY) / 2
	c.Distance = radius / math32.Sin(halfFov)
	c.MinDistance = radius * 0.05
	c.MaxDistance = c.Distance * 4
	c.Yaw = -math32.Pi / 4
	c.Pitch = 0.5
}

// Position returns the eye position in world coordinates.
func (c *Camera) Position() mgl32.Vec3 {
	cp := math32.Cos(c.Pitch)
	offset := mgl32.Vec3{
		cp * math32.Cos(c.Yaw),
		cp * math32.Sin(c.Yaw),
		math32.Sin(c.Pitch),
	}
	return c.Target.Add(offset.Mul(c.Distance))
}

// Forward returns the unit view direction.
func (c *Camera) Forward() mgl32.Vec3 {
	return c.Target.Sub(c.Position()).Normalize()
}

// Right returns the unit screen-right direction in world coordinates.
func (c *Camera) Right() mgl32.Vec3 {
	return c.Forward().Cross(Up).Normalize()
}

// Orbit rotates the camera around the target.
func (c *Camera) Orbit(dYaw, dPitch float32) {
	c.Yaw = math32.Mod(c.Yaw+dYaw, 2*math32.Pi)
	c.Pitch = mgl32.Clamp(c.Pitch+dPitch, -MaxPitch, MaxPitch)
}

// Pan moves the target by the given delta in screen pixels. Movement scales
// with distance so a drag tracks the cursor at the target depth.
func (c *Camera) Pan(dx, dy float32) {
	if c.ViewportH <= 0 {
		return
	}
	halfFov := mgl32.DegToRad(c.FovY) / 2
	worldPerPixel := 2 * c.Distance * math32.Tan(halfFov) / c.ViewportH

	right := c.Right()
	screenUp := right.Cross(c.Forward())
	delta := right.Mul(-dx * worldPerPixel).Add(screenUp.Mul(dy * worldPerPixel))
	c.Target = c.Target.Add(delta)
}

// SetDistance sets the orbit radius, clamped to min/max.
func (c *Camera) SetDistance(d float32) {
	c.Distance = mgl32.Clamp(d, c.MinDistance, c.MaxDistance)
}

// ZoomBy divides the distance by factor, so factors above 1 move closer.
func (c *Camera) ZoomBy(factor float32) {
	if factor <= 0 {
		return
	}
	c.SetDistance(c.Distance / factor)
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Reset returns the camera to the view it was created with.
func (c *Camera) Reset() {
	h := c.home
	c.Target = h.Target
	c.Yaw, c.Pitch, c.Distance = h.Yaw, h.Pitch, h.Distance
	c.MinDistance, c.MaxDistance = h.Min, h.Max
}

// View returns the view matrix.
func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Target, Up)
}

// Projection returns the perspective projection matrix.
func (c *Camera) Projection() mgl32.Mat4 {
	aspect := float32(1)
	if c.ViewportH > 0 {
		aspect = c.ViewportW / c.ViewportH
	}
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, 0.1, c.MaxDistance*4)
}

// WorldToScreen projects a world point to screen pixels with the origin at
// the top left. ok is false for points behind the camera.
func (c *Camera) WorldToScreen(p mgl32.Vec3) (sx, sy float32, ok bool) {
	clip := c.Projection().Mul4(c.View()).Mul4x1(p.Vec4(1))
	if clip[3] <= 0 {
		return 0, 0, false
	}
	ndc := clip.Vec3().Mul(1 / clip[3])
	sx = (ndc[0] + 1) / 2 * c.ViewportW
	sy = (1 - ndc[1]) / 2 * c.ViewportH
	return sx, sy, true
}

// IsVisible returns true if a sphere at p with the given radius could be on
// screen (conservative check for culling).
func (c *Camera) IsVisible(p mgl32.Vec3, radius float32) bool {
	toP := p.Sub(c.Position())
	depth := toP.Dot(c.Forward())
	if depth < -radius {
		return false
	}
	sx, sy, ok := c.WorldToScreen(p)
	if !ok {
		return true // straddles the eye plane
	}
	halfFov := mgl32.DegToRad(c.FovY) / 2
	margin := radius / (math32.Max(depth, 1e-3) * math32.Tan(halfFov)) * c.ViewportH / 2
	return sx >= -margin && sx <= c.ViewportW+margin && sy >= -margin && sy <= c.ViewportH+margin
}
