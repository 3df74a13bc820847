package sim

import "math"

// Vec3 is a right-handed 3D vector. The pitch faces -Z toward the goal.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Dot(o Vec3) float64   { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) LengthSq() float64    { return v.Dot(v) }
func (v Vec3) Length() float64      { return math.Sqrt(v.Dot(v)) }

// Normalize returns the unit vector, or the zero vector unchanged.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

func clamp(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// reflect returns v with its normal component reversed and scaled by the
// restitution factor; the tangential component is preserved.
func reflect(v, normal Vec3, restitution float64) Vec3 {
	vn := normal.Scale(v.Dot(normal))
	vt := v.Sub(vn)
	return vt.Sub(vn.Scale(restitution))
}
