package beam

import (
	"github.com/OCAP2/beamcore/internal/geo"
	"github.com/OCAP2/beamcore/pkg/core"
)

// directFire holds one fixed direction toward a jittered point on the target.
type directFire struct{}

func (directFire) computeAim(s *System, ctx Context, b *Beam, orient core.Matrix) aimRecord {
	p := directAimPoint(s, ctx, b)
	return aimRecord{DirA: localDir(orient, p.Sub(b.start)), ShotCount: 1}
}

func (directFire) advance(_ *System, _ Context, b *Beam, orient core.Matrix) {
	project(b, orient, b.aim.DirA)
}

func directAimPoint(s *System, ctx Context, b *Beam) core.Vec3 {
	center, radius, _ := targetCenter(ctx, b)
	hasSubsystem := false
	if b.subsystem != noSubsystem && !b.target.IsNil() {
		if p, ok := ctx.SubsystemPoint(b.target, b.subsystem); ok {
			center = p
			hasSubsystem = true
		}
	}

	jitter := radius * b.weapon.missFactor(s.settings.SkillLevel) * b.accuracy
	if jitter <= 0 {
		return center
	}
	if !b.caps.has(capFloating) {
		if m, ok := ctx.Mount(b.shooter, b.mount); ok && m.WeaponsDamaged {
			jitter *= 2
		}
	}

	base := center
	if !hasSubsystem && !b.target.IsNil() && b.rng.Float64() < 0.5 {
		base = ctx.RandomPoint(b.target, b.rng)
	}
	return base.Add(geo.RandomInSphere(b.rng).Scale(jitter))
}
