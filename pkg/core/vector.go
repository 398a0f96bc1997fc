// pkg/core/vector.go
package core

import "github.com/go-gl/mathgl/mgl64"

// Vec3 is a world or model space position or direction, stored as [x, y, z].
type Vec3 mgl64.Vec3

// V returns v as an mgl64 vector.
func (v Vec3) V() mgl64.Vec3 { return mgl64.Vec3(v) }

func (v Vec3) X() float64 { return v[0] }
func (v Vec3) Y() float64 { return v[1] }
func (v Vec3) Z() float64 { return v[2] }

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3(v.V().Add(o.V())) }

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3(v.V().Sub(o.V())) }

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3(v.V().Mul(s)) }

func (v Vec3) Dot(o Vec3) float64 { return v.V().Dot(o.V()) }

// Cross returns v x o.
func (v Vec3) Cross(o Vec3) Vec3 { return Vec3(v.V().Cross(o.V())) }

func (v Vec3) MagSq() float64 { return v.V().LenSqr() }

func (v Vec3) Mag() float64 { return v.V().Len() }

// Normalize returns v scaled to unit length. The zero vector is returned
// unchanged rather than as NaNs.
func (v Vec3) Normalize() Vec3 {
	if v.IsZero() {
		return Vec3{}
	}
	return Vec3(v.V().Normalize())
}

// Dist returns the distance between v and o.
func (v Vec3) Dist(o Vec3) float64 { return v.Sub(o).Mag() }

// Lerp interpolates linearly from v to o by t.
func (v Vec3) Lerp(o Vec3, t float64) Vec3 {
	return v.Add(o.Sub(v).Scale(t))
}

func (v Vec3) IsZero() bool { return v == Vec3{} }

// Matrix is an orthonormal orientation whose columns are the right, up and
// forward axes in world space.
type Matrix mgl64.Mat3

// IdentityMatrix is the world-aligned orientation.
var IdentityMatrix = Matrix(mgl64.Ident3())

func (m Matrix) M() mgl64.Mat3 { return mgl64.Mat3(m) }

func (m Matrix) Right() Vec3   { return Vec3(m.M().Col(0)) }
func (m Matrix) Up() Vec3      { return Vec3(m.M().Col(1)) }
func (m Matrix) Forward() Vec3 { return Vec3(m.M().Col(2)) }

// ToWorld rotates a model-space vector into world space.
func (m Matrix) ToWorld(local Vec3) Vec3 {
	return Vec3(m.M().Mul3x1(local.V()))
}

// ToLocal rotates a world-space vector into model space.
func (m Matrix) ToLocal(world Vec3) Vec3 {
	return Vec3(m.M().Transpose().Mul3x1(world.V()))
}

// IsZero reports whether the matrix was never set.
func (m Matrix) IsZero() bool { return m == Matrix{} }

// MatrixFromForward builds an orientation looking along forward.
// The up hint fixes roll; world up (or world right) is used when the two are parallel.
func MatrixFromForward(forward, upHint Vec3) Matrix {
	f := forward.Normalize()
	if f.IsZero() {
		return IdentityMatrix
	}
	up := upHint.Normalize()
	for _, fallback := range []Vec3{{0, 1, 0}, {1, 0, 0}} {
		if !up.IsZero() && mgl64.Abs(f.Dot(up)) < 0.999 {
			break
		}
		up = fallback
	}
	right := up.Cross(f).Normalize()
	up = f.Cross(right)
	return Matrix(mgl64.Mat3FromCols(right.V(), up.V(), f.V()))
}

// Pose is a world position plus orientation.
type Pose struct {
	Position Vec3   `json:"position"`
	Orient   Matrix `json:"orient"`
}
