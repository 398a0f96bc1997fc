package beam

import (
	"github.com/OCAP2/beamcore/pkg/core"
)

// slashing sweeps between two points over the beam's life.
type slashing struct{}

func (slashing) computeAim(_ *System, ctx Context, b *Beam, orient core.Matrix) aimRecord {
	var p1, p2 core.Vec3
	if b.hasSlash {
		p1, p2 = b.slashPoints[0], b.slashPoints[1]
	} else if tb, ok := ctx.Body(b.target); ok {
		o := b.rng.IntN(8)
		p1 = octantPoint(tb, o)
		p2 = octantPoint(tb, 7-o)
	} else {
		p1, p2 = b.targetPoint, b.targetPoint
	}
	return aimRecord{
		DirA:      localDir(orient, p1.Sub(b.start)),
		DirB:      localDir(orient, p2.Sub(b.start)),
		ShotCount: 1,
	}
}

func (slashing) advance(_ *System, _ Context, b *Beam, orient core.Matrix) {
	dir := b.aim.DirA.Lerp(b.aim.DirB, b.elapsedFraction()).Normalize()
	if dir.IsZero() {
		dir = b.aim.DirA
	}
	project(b, orient, dir)
}

// octantPoint returns the world center of one of the eight octants of a body's
// bounding box. Octants o and 7-o are diagonally opposite.
func octantPoint(body Body, o int) core.Vec3 {
	lo, hi := body.BBoxMin, body.BBoxMax
	if lo == hi {
		r := core.Vec3{body.Radius, body.Radius, body.Radius}
		lo, hi = r.Scale(-1), r
	}
	var local core.Vec3
	for axis, bit := range [3]int{1, 2, 4} {
		t := 0.25
		if o&bit != 0 {
			t = 0.75
		}
		local[axis] = lo[axis] + (hi[axis]-lo[axis])*t
	}
	orient := body.Pose.Orient
	if orient.IsZero() {
		orient = core.IdentityMatrix
	}
	return body.Pose.Position.Add(orient.ToWorld(local))
}
