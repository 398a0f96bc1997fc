package beam

import (
	"github.com/OCAP2/beamcore/internal/geo"
	"github.com/OCAP2/beamcore/pkg/core"
)

// omni places its start and end points by policy and sweeps between them,
// optionally rotating around an axis.
type omni struct{}

func (omni) computeAim(s *System, ctx Context, b *Beam, orient core.Matrix) aimRecord {
	cfg := b.weapon.Omni
	if cfg == nil {
		cfg = &OmniConfig{}
	}

	center, radius, _ := targetCenter(ctx, b)
	tOrient := core.IdentityMatrix
	if tb, ok := ctx.Body(b.target); ok && !tb.Pose.Orient.IsZero() {
		tOrient = tb.Pose.Orient
	}
	shotDist := center.Dist(b.start)

	// placements come from the burst seed so every shot of a burst agrees
	seedSource(s.burstSrc, b.burstSeed)
	burst := s.burstRng
	place := func(ps PointSpec) core.Vec3 {
		switch ps.Placement {
		case PlaceRandomInside:
			return center.Add(geo.RandomInSphere(burst).Scale(radius))
		case PlaceRandomOutside:
			return center.Add(geo.RandomOnSphere(burst).Scale(radius * (1 + 0.5*burst.Float64())))
		case PlaceOffset:
			scale := 1.0
			switch ps.Scale {
			case ScaleTargetRadius:
				scale = radius
			case ScaleShotDistance:
				scale = shotDist
			}
			return center.Add(tOrient.ToWorld(ps.Offset).Scale(scale))
		default:
			return center
		}
	}
	pA := place(cfg.Start)
	pB := place(cfg.End)
	dirA := pA.Sub(b.start).Normalize()
	dirB := pB.Sub(b.start).Normalize()

	var axis core.Vec3
	switch cfg.Axis {
	case AxisTargetCenter:
		axis = center.Sub(b.start).Normalize()
	case AxisBetweenPoints:
		axis = pA.Lerp(pB, 0.5).Sub(b.start).Normalize()
	case AxisStartPoint:
		axis = dirA
	case AxisEndPoint:
		axis = dirB
	case AxisCustom:
		axis = orient.ToWorld(cfg.CustomAxis).Normalize()
	}

	rec := aimRecord{ShotCount: 1, ShotIndex: 0}
	rec.BurstAngle = cfg.BurstRotation
	if cfg.BurstRotationRandom {
		rec.BurstAngle = burst.Float64() * cfg.BurstRotation
	}
	rec.ShotAngle = cfg.PerShotRotation * float64(b.burstShot)
	if cfg.PerShotRotationRandom {
		rec.ShotAngle = b.rng.Float64() * cfg.PerShotRotation
	}

	spin := axis
	if spin.IsZero() {
		spin = center.Sub(b.start).Normalize()
	}
	if angle := rec.BurstAngle + rec.ShotAngle; angle != 0 {
		dirA = geo.RotateAround(dirA, spin, angle)
		dirB = geo.RotateAround(dirB, spin, angle)
	}

	rec.DirA = orient.ToLocal(dirA)
	rec.DirB = orient.ToLocal(dirB)
	rec.Axis = orient.ToLocal(axis)
	return rec
}

func (omni) advance(_ *System, _ Context, b *Beam, orient core.Matrix) {
	f := b.elapsedFraction()
	dir := b.aim.DirA.Lerp(b.aim.DirB, f).Normalize()
	if dir.IsZero() {
		dir = b.aim.DirA
	}
	if cfg := b.weapon.Omni; cfg != nil && cfg.ContinuousRotation != 0 && !b.aim.Axis.IsZero() {
		dir = geo.RotateAround(dir, b.aim.Axis, f*cfg.ContinuousRotation)
	}
	project(b, orient, dir)
}
