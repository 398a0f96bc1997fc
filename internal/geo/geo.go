// Package geo holds the geometric primitives used by the beam collision and aiming
// code, plus conversions of beam geometry into simplefeatures types for storage.
package geo

import (
	"errors"
	"math"
	"math/rand/v2"

	"github.com/OCAP2/beamcore/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
	geom "github.com/peterstace/simplefeatures/geom"
)

// ErrDegenerateSegment is returned when a segment has zero length
var ErrDegenerateSegment = errors.New("degenerate segment")

// SegmentSphere intersects the segment from->to with a sphere and returns the
// parametric position in [0,1] of the first surface crossing. A segment starting
// inside the sphere reports t=0.
func SegmentSphere(from, to, center core.Vec3, radius float64) (float64, bool) {
	d := to.Sub(from)
	m := from.Sub(center)
	a := d.Dot(d)
	c := m.Dot(m) - radius*radius
	if c <= 0 {
		return 0, true
	}
	if a == 0 {
		return 0, false
	}
	b := m.Dot(d)
	// moving away from the sphere
	if b > 0 {
		return 0, false
	}
	disc := b*b - a*c
	if disc < 0 {
		return 0, false
	}
	t := (-b - math.Sqrt(disc)) / a
	if t < 0 || t > 1 {
		return 0, false
	}
	return t, true
}

// SegmentPointDistance returns the distance from p to the closest point of the
// segment a->b, and the parametric position of that point.
func SegmentPointDistance(a, b, p core.Vec3) (float64, float64) {
	ab := b.Sub(a)
	lenSq := ab.MagSq()
	if lenSq == 0 {
		return p.Dist(a), 0
	}
	t := p.Sub(a).Dot(ab) / lenSq
	t = mgl64.Clamp(t, 0, 1)
	return p.Dist(a.Add(ab.Scale(t))), t
}

// SphereSweep intersects a sphere of sweepRadius moving along from->to with a
// sphere at center. The returned point lies on the target sphere surface, facing
// the sweep.
func SphereSweep(from, to, center core.Vec3, radius, sweepRadius float64) (core.Vec3, float64, bool) {
	t, ok := SegmentSphere(from, to, center, radius+sweepRadius)
	if !ok {
		return core.Vec3{}, 0, false
	}
	contact := from.Lerp(to, t)
	normal := contact.Sub(center).Normalize()
	if normal.IsZero() {
		normal = from.Sub(to).Normalize()
	}
	return center.Add(normal.Scale(radius)), t, true
}

// RotateAround rotates v around axis by angle radians.
func RotateAround(v, axis core.Vec3, angle float64) core.Vec3 {
	if angle == 0 || axis.IsZero() {
		return v
	}
	q := mgl64.QuatRotate(angle, axis.Normalize().V())
	return core.Vec3(q.Rotate(v.V()))
}

// RandomOnSphere returns a uniformly distributed unit vector.
func RandomOnSphere(rng *rand.Rand) core.Vec3 {
	z := rng.Float64()*2 - 1
	phi := rng.Float64() * 2 * math.Pi
	r := math.Sqrt(1 - z*z)
	return core.Vec3{r * math.Cos(phi), r * math.Sin(phi), z}
}

// RandomInSphere returns a uniformly distributed point inside the unit sphere.
func RandomInSphere(rng *rand.Rand) core.Vec3 {
	return RandomOnSphere(rng).Scale(math.Cbrt(rng.Float64()))
}

// Perpendicular returns a unit vector orthogonal to v.
func Perpendicular(v core.Vec3) core.Vec3 {
	n := v.Normalize()
	if n.IsZero() {
		return core.Vec3{0, 1, 0}
	}
	helper := core.Vec3{0, 1, 0}
	if math.Abs(n.Y()) > 0.9 {
		helper = core.Vec3{1, 0, 0}
	}
	return n.Cross(helper).Normalize()
}

// PointZ converts a position into an XYZ point for storage.
func PointZ(v core.Vec3) geom.Point {
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: v.X(), Y: v.Y()},
		Z:    v.Z(),
		Type: geom.DimXYZ,
	})
}

// SegmentZ converts a beam start/end pair into an XYZ line string for storage.
func SegmentZ(start, end core.Vec3) (geom.LineString, error) {
	if start == end {
		return geom.LineString{}, ErrDegenerateSegment
	}
	seq := geom.NewSequence([]float64{
		start.X(), start.Y(), start.Z(),
		end.X(), end.Y(), end.Z(),
	}, geom.DimXYZ)
	return geom.NewLineString(seq), nil
}

// Vec3FromPoint converts a stored point back into a position. Empty points yield the zero vector.
func Vec3FromPoint(p geom.Point) core.Vec3 {
	c, ok := p.Coordinates()
	if !ok {
		return core.Vec3{}
	}
	return core.Vec3{c.X, c.Y, c.Z}
}
