// Package renderer draws a render.Scene with raylib.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/particles/camera"
	"github.com/pthm-cable/particles/components"
	"github.com/pthm-cable/particles/render"
)

// Options selects what SceneRenderer draws besides the elements.
type Options struct {
	Spheres       bool    // draw elements as spheres instead of points
	SphereRadius  float32 // radius when Spheres is set
	Links         bool
	Floor         bool
	Domain        bool
	GravityCenter *mgl32.Vec3 // nil hides the marker
	Fireball      *Sphere     // nil hides the fireball
}

// Sphere is a world-space sphere.
type Sphere struct {
	Center mgl32.Vec3
	Radius float32
	Color  rl.Color
}

// SceneRenderer draws the scene inside the simulation domain.
type SceneRenderer struct {
	min, max  mgl32.Vec3
	floorStep float32

	linkColor   rl.Color
	domainColor rl.Color
	floorColor  rl.Color
}

// NewSceneRenderer creates a renderer for the domain [min, max].
func NewSceneRenderer(min, max mgl32.Vec3) *SceneRenderer {
	return &SceneRenderer{
		min:         min,
		max:         max,
		floorStep:   max.Sub(min)[0] / 20,
		linkColor:   rl.Color{R: 220, G: 220, B: 230, A: 160},
		domainColor: rl.Color{R: 90, G: 100, B: 120, A: 255},
		floorColor:  rl.Color{R: 60, G: 70, B: 80, A: 255},
	}
}

// Camera3D converts the orbit camera for raylib.
func Camera3D(c *camera.Camera) rl.Camera3D {
	return rl.Camera3D{
		Position:   vec(c.Position()),
		Target:     vec(c.Target),
		Up:         vec(camera.Up),
		Fovy:       c.FovY,
		Projection: rl.CameraPerspective,
	}
}

// Draw renders the scene. It must be called between BeginDrawing and
// EndDrawing.
func (r *SceneRenderer) Draw(cam *camera.Camera, scene *render.Scene, opts Options) {
	rl.BeginMode3D(Camera3D(cam))
	defer rl.EndMode3D()

	if opts.Floor {
		r.drawFloor()
	}
	if opts.Domain {
		r.drawDomain()
	}

	if opts.Links {
		scene.EachLink(func(a, b components.Position) {
			rl.DrawLine3D(position(a), position(b), r.linkColor)
		})
	}

	if opts.Spheres {
		radius := opts.SphereRadius
		scene.EachVisible(func(p components.Position, t components.Tint) {
			rl.DrawSphereEx(position(p), radius, 6, 6, Color(t))
		})
	} else {
		scene.EachVisible(func(p components.Position, t components.Tint) {
			rl.DrawPoint3D(position(p), Color(t))
		})
	}

	if opts.GravityCenter != nil {
		rl.DrawSphereWires(vec(*opts.GravityCenter), 0.5, 6, 6, rl.SkyBlue)
	}
	if opts.Fireball != nil {
		rl.DrawSphereWires(vec(opts.Fireball.Center), opts.Fireball.Radius, 8, 8, opts.Fireball.Color)
	}
}

// drawFloor draws grid lines on the domain floor. raylib's DrawGrid lies in
// the XZ plane, so the Z-up floor is drawn by hand.
func (r *SceneRenderer) drawFloor() {
	if r.floorStep <= 0 {
		return
	}
	z := r.min[2]
	for x := r.min[0]; x <= r.max[0]+1e-3; x += r.floorStep {
		rl.DrawLine3D(rl.Vector3{X: x, Y: r.min[1], Z: z}, rl.Vector3{X: x, Y: r.max[1], Z: z}, r.floorColor)
	}
	for y := r.min[1]; y <= r.max[1]+1e-3; y += r.floorStep {
		rl.DrawLine3D(rl.Vector3{X: r.min[0], Y: y, Z: z}, rl.Vector3{X: r.max[0], Y: y, Z: z}, r.floorColor)
	}
}

// drawDomain outlines the simulation box.
func (r *SceneRenderer) drawDomain() {
	center := r.min.Add(r.max).Mul(0.5)
	size := r.max.Sub(r.min)
	rl.DrawCubeWires(vec(center), size[0], size[1], size[2], r.domainColor)
}

// Color converts a linear [0,1] tint to an 8-bit raylib color.
func Color(t components.Tint) rl.Color {
	return rl.Color{R: channel(t.R), G: channel(t.G), B: channel(t.B), A: channel(t.A)}
}

func channel(v float32) uint8 {
	return uint8(mgl32.Clamp(v, 0, 1)*255 + 0.5)
}

func position(p components.Position) rl.Vector3 {
	return rl.Vector3{X: p.X, Y: p.Y, Z: p.Z}
}

func vec(v mgl32.Vec3) rl.Vector3 {
	return rl.Vector3{X: v[0], Y: v[1], Z: v[2]}
}
