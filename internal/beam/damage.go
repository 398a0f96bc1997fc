package beam

import (
	"fmt"
	"time"

	"github.com/OCAP2/beamcore/pkg/core"
)

// applyHits walks the sorted frame hits nearest first until one stops the
// beam. Damage accrues every frame of contact; impulse and hit events only
// fire once per target cooldown. Exit hits are recorded for effects only.
func (s *System) applyHits(ctx Context, b *Beam, delta time.Duration) {
	scale := float64(delta) / float64(s.settings.DamageTime)
	for _, c := range b.collisions {
		if c.Exit {
			continue
		}

		dmg := s.hitDamage(ctx, b, c, scale)
		if dmg > 0 {
			s.applyDamage(ctx, b, c, dmg)
			s.stats.damage += dmg
			s.metrics.addDamage(b.weapon.Name, dmg)
		}

		if b.freshHit(c.Target, s.now, s.settings.DamageTime) {
			impulse := s.applyImpulse(ctx, b, c)
			s.metrics.addHit(b.weapon.Name)
			s.sink.BeamHit(core.BeamHitEvent{
				Signature: b.signature,
				Time:      s.wallTime(),
				Frame:     s.frame,
				Weapon:    b.weapon.Name,
				Shooter:   b.shooter,
				Target:    c.Target,
				Point:     c.Point,
				Distance:  c.Distance,
				Quadrant:  c.Quadrant,
				Tooled:    c.Tooled,
				Damage:    dmg,
				Impulse:   impulse,
				EventText: hitText(c),
			})
		}

		if stops(c) {
			return
		}
	}
}

// hitDamage is the frame-scaled damage after attenuation, the friendly-fire
// cap and armor.
func (s *System) hitDamage(ctx Context, b *Beam, c Collision, scale float64) float64 {
	w := b.weapon
	dmg := w.Damage * scale * attenuation(w, c.Distance)

	if tb, ok := ctx.Body(c.Target); ok && tb.Team == b.team {
		if limit, ok := s.settings.friendlyCap(); ok && dmg > limit*scale {
			dmg = limit * scale
		}
	}

	dmg *= ctx.ArmorFactor(c.Target, w.DamageType)
	if dmg < 0 {
		return 0
	}
	return dmg
}

// attenuation ramps damage linearly from 1 at Range*AttenuationThreshold down
// to 0 at Range.
func attenuation(w *Weapon, dist float64) float64 {
	if w.AttenuationThreshold <= 0 || w.AttenuationThreshold >= 1 {
		return 1
	}
	attenDist := w.Range * w.AttenuationThreshold
	if dist <= attenDist {
		return 1
	}
	if dist >= w.Range {
		return 0
	}
	return 1 - (dist-attenDist)/(w.Range-attenDist)
}

// applyDamage splits a partially pierced shield hit between the quadrant and
// the hull.
func (s *System) applyDamage(ctx Context, b *Beam, c Collision, dmg float64) {
	q := damageQuadrant(c)
	if q == core.NoQuadrant || c.Bleed <= 0 {
		ctx.ApplyDamage(c.Target, b.shooter, c.Point, dmg, q)
		return
	}
	ctx.ApplyDamage(c.Target, b.shooter, c.Point, dmg*(1-c.Bleed), q)
	ctx.ApplyDamage(c.Target, b.shooter, c.Point, dmg*c.Bleed, core.NoQuadrant)
}

func damageQuadrant(c Collision) int {
	if c.Exit || c.Pierced {
		return core.NoQuadrant
	}
	return c.Quadrant
}

// applyImpulse pushes the target along the beam axis and returns the magnitude.
func (s *System) applyImpulse(ctx Context, b *Beam, c Collision) float64 {
	mag := s.whack(b.weapon)
	if mag <= 0 {
		return 0
	}
	dir := b.end.Sub(b.start).Normalize()
	ctx.ApplyImpulse(c.Target, c.Point, dir.Scale(mag))
	return mag
}

// whack is the impulse magnitude. Weapons at the legacy mass use the fixed
// small/big pair keyed on damage.
func (s *System) whack(w *Weapon) float64 {
	ws := s.settings.Whack
	if w.Mass == ws.LegacyMass {
		if w.Damage < ws.DamageThreshold {
			return ws.Small
		}
		return ws.Big
	}
	return w.Mass
}

func hitText(c Collision) string {
	switch {
	case c.Quadrant != core.NoQuadrant && !c.Pierced:
		return fmt.Sprintf("shield quadrant %d", c.Quadrant)
	case c.Pierced:
		return fmt.Sprintf("pierced shield quadrant %d", c.Quadrant)
	case c.Tooled:
		return "hull, tooled"
	default:
		return "hull"
	}
}
