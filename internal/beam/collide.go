package beam

import (
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/OCAP2/beamcore/internal/geo"
	"github.com/OCAP2/beamcore/pkg/core"
)

// collideBeam tests one firing beam against every candidate body and sorts the
// frame's hits nearest first.
func (s *System) collideBeam(ctx Context, b *Beam, candidates []Body) {
	if b.state != core.StateFiring || b.safe {
		return
	}
	var shooter Body
	hasShooter := false
	if !b.caps.has(capFloating) {
		shooter, hasShooter = ctx.Body(b.shooter)
	}

	width := b.weapon.Width * b.widthScale
	for i := range candidates {
		body := &candidates[i]
		if !s.collidable(b, body, shooter, hasShooter) {
			continue
		}
		// range and coarse cylinder culling
		if b.start.Dist(body.Pose.Position) > b.weapon.Range+body.Radius {
			continue
		}
		if d, _ := geo.SegmentPointDistance(b.start, b.end, body.Pose.Position); d > body.Radius+width/2 {
			continue
		}
		s.testBody(ctx, b, body, width)
	}

	slices.SortStableFunc(b.collisions, func(x, y Collision) int {
		switch {
		case x.Distance < y.Distance:
			return -1
		case x.Distance > y.Distance:
			return 1
		default:
			return 0
		}
	})
}

// collidable applies the pairing rules that need no geometry.
func (s *System) collidable(b *Beam, body *Body, shooter Body, hasShooter bool) bool {
	if body.Class == core.ClassUnknown || body.Departed {
		return false
	}
	if body.Class == core.ClassWeapon && b.weapon.Type != core.BeamAntiFighter {
		return false
	}
	if hasShooter {
		if body.Handle == shooter.Handle || body.Parent == shooter.Handle {
			return false
		}
		if !shooter.Parent.IsNil() && (body.Handle == shooter.Parent || body.Parent == shooter.Parent) {
			return false
		}
	}
	return true
}

func (s *System) testBody(ctx Context, b *Beam, body *Body, width float64) {
	area := width >= body.Radius*s.settings.AreaPercent
	limit := s.settings.MaxFrameCollisions

	quadrant := core.NoQuadrant
	pierced := false
	if body.Class == core.ClassShip && ctx.TotalShields(body.Handle) > 0 {
		if sh, ok := ctx.ShieldRay(body.Handle, b.start, b.end); ok {
			q := ctx.Quadrant(body.Handle, sh.Point)
			if q != core.NoQuadrant && ctx.ShieldStrength(body.Handle, q) > 0 {
				if bleed := shieldPierce(ctx, b, body.Handle); bleed < 1 {
					b.recordCollision(Collision{
						Target:   body.Handle,
						Class:    body.Class,
						Point:    sh.Point,
						Distance: b.start.Dist(sh.Point),
						Quadrant: q,
						Submodel: sh.Submodel,
						Area:     area,
						Bleed:    bleed,
					}, limit)
					return
				}
				quadrant = q
				pierced = true
			}
		}
	}

	var hit ModelHit
	var ok bool
	if area {
		hit, ok = ctx.Sweep(body.Handle, b.start, b.end, width/2)
	} else {
		hit, ok = ctx.Ray(body.Handle, b.start, b.end)
	}
	if !ok {
		return
	}

	tooled := body.Class == core.ClassShip && s.tooled(ctx, b, body.Handle, pierced)
	b.recordCollision(Collision{
		Target:   body.Handle,
		Class:    body.Class,
		Point:    hit.Point,
		Distance: b.start.Dist(hit.Point),
		Quadrant: quadrant,
		Submodel: hit.Submodel,
		Tooled:   tooled,
		Area:     area,
		Pierced:  pierced,
	}, limit)

	if !tooled {
		return
	}
	if exit, ok := ctx.Ray(body.Handle, b.end, b.start); ok {
		b.recordCollision(Collision{
			Target:   body.Handle,
			Class:    body.Class,
			Point:    exit.Point,
			Distance: b.start.Dist(exit.Point),
			Quadrant: core.NoQuadrant,
			Submodel: exit.Submodel,
			Exit:     true,
			Tooled:   true,
			Area:     area,
		}, limit)
	}
}

// shieldPierce is the fraction of damage the target's shields let through.
// At 1 the beam passes the shield and hits the hull model.
func shieldPierce(ctx Context, b *Beam, target core.Handle) float64 {
	if b.weapon.PiercesShields {
		return 1
	}
	return mgl64.Clamp(ctx.ShieldPierce(target, b.weapon.DamageType), 0, 1)
}

// tooled reports whether the beam is projected to cut through the target
// within the tooling time.
func (s *System) tooled(ctx Context, b *Beam, target core.Handle, pierced bool) bool {
	projected := b.weapon.Damage * float64(s.settings.ToolingTime) / float64(s.settings.DamageTime)
	remaining := ctx.Hull(target)
	if !pierced {
		remaining += ctx.TotalShields(target)
	}
	return projected > remaining
}

// stops reports whether a hit physically ends the beam for this frame. Any
// solid hull or unpierced shield stops it, whatever the beam width; Area only
// picks the sweep test. Tooled and exit hits pass through, and weapons never
// block a beam.
func stops(c Collision) bool {
	return !c.Exit && !c.Tooled && c.Class != core.ClassWeapon
}
