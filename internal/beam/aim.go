package beam

import (
	"math/rand/v2"

	"github.com/OCAP2/beamcore/pkg/core"
)

// aimer is the per-type aiming and movement law.
type aimer interface {
	// computeAim resolves the firing geometry from the beam's current origin.
	computeAim(s *System, ctx Context, b *Beam, orient core.Matrix) aimRecord
	// advance moves the end point for the current frame.
	advance(s *System, ctx Context, b *Beam, orient core.Matrix)
}

func aimerFor(t core.BeamType) aimer {
	switch t {
	case core.BeamSlashing:
		return slashing{}
	case core.BeamTargeting:
		return targeting{}
	case core.BeamAntiFighter:
		return antiFighter{}
	case core.BeamNormalFire:
		return normalFire{}
	case core.BeamOmni:
		return omni{}
	default:
		return directFire{}
	}
}

const pcgStream = 0x9e3779b97f4a7c15

// seedSource restarts src so that the same seed replays the same draws on
// every peer.
func seedSource(src *rand.PCG, seed uint64) {
	src.Seed(seed, seed^pcgStream)
}

// origin returns the world position the beam fires from and the orientation
// its aim directions are stored in.
func origin(ctx Context, b *Beam) (core.Vec3, core.Matrix, bool) {
	if b.caps.has(capFloating) {
		return b.startPoint, core.IdentityMatrix, true
	}
	sb, ok := ctx.Body(b.shooter)
	if !ok {
		return core.Vec3{}, core.Matrix{}, false
	}
	m, ok := ctx.Mount(b.shooter, b.mount)
	if !ok {
		return sb.Pose.Position, sb.Pose.Orient, true
	}
	return sb.Pose.Position.Add(sb.Pose.Orient.ToWorld(m.Offset)), sb.Pose.Orient, true
}

// targetCenter returns the aim center and radius of the beam's target.
func targetCenter(ctx Context, b *Beam) (core.Vec3, float64, bool) {
	if b.caps.has(capExplicitTarget) {
		return b.targetPoint, 0, true
	}
	if b.target.IsNil() {
		return core.Vec3{}, 0, false
	}
	tb, ok := ctx.Body(b.target)
	if !ok {
		return core.Vec3{}, 0, false
	}
	return tb.Pose.Position, tb.Radius, true
}

// localDir converts a world offset into a stored aim direction.
func localDir(orient core.Matrix, world core.Vec3) core.Vec3 {
	return orient.ToLocal(world).Normalize()
}

// project sets the end point along a stored direction at full range.
func project(b *Beam, orient core.Matrix, dir core.Vec3) {
	w := orient.ToWorld(dir).Normalize()
	if w.IsZero() {
		w = orient.Forward()
	}
	b.end = b.start.Add(w.Scale(b.weapon.Range))
}
