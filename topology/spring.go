package topology

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// minSpringLength is the length below which the spring axis is undefined.
const minSpringLength = 1e-6

// SpringForce returns the Hookean force on endpoint a of a spring from a to
// b. Endpoint b receives the negation.
//
//	f = k*(L - rest) + c*((vb - va) . dir)
func SpringForce(pa, pb, va, vb mgl32.Vec3, rest, k, c float32) mgl32.Vec3 {
	delta := pb.Sub(pa)
	length := delta.Len()
	if length < minSpringLength || math32.IsNaN(length) {
		return mgl32.Vec3{}
	}
	dir := delta.Mul(1 / length)
	f := k*(length-rest) + c*vb.Sub(va).Dot(dir)
	return dir.Mul(f)
}
