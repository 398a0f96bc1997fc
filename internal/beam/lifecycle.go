package beam

import (
	"time"

	"github.com/OCAP2/beamcore/pkg/core"
)

// okToFire is the gate for entering and staying in FIRING. A false result is a
// soft condition that leads to WARMDOWN.
func (s *System) okToFire(ctx Context, b *Beam) (bool, string) {
	if b.caps.has(capFloating) {
		return true, ""
	}
	m, ok := ctx.Mount(b.shooter, b.mount)
	if !ok || m.Destroyed {
		return false, ReasonMountDestroyed
	}
	if m.Disrupted {
		return false, ReasonMountDisrupted
	}
	if b.caps.has(capFighter) && b.weapon.EnergyPerSecond > 0 && ctx.Energy(b.shooter) <= 0 {
		return false, ReasonNoEnergy
	}
	if b.caps.has(capForceFire) {
		return true, ""
	}
	switch b.weapon.Type {
	case core.BeamTargeting, core.BeamNormalFire:
		return true, ""
	}

	center, _, ok := targetCenter(ctx, b)
	if !ok {
		return false, ReasonTargetLost
	}
	sb, ok := ctx.Body(b.shooter)
	if !ok {
		return false, ReasonShooterInvalid
	}
	normal := sb.Pose.Orient.ToWorld(m.Normal).Normalize()
	if !normal.IsZero() && normal.Dot(center.Sub(b.start).Normalize()) < m.FOVDot {
		return false, ReasonOutOfView
	}
	if ctx.Occluded(b.shooter, b.start, center) {
		return false, ReasonOccluded
	}
	return true, ""
}

// shooterValid is the immediate-stop check; failing it destroys the beam
// without a warmdown.
func (s *System) shooterValid(ctx Context, b *Beam) bool {
	if b.caps.has(capFloating) {
		return true
	}
	sb, ok := ctx.Body(b.shooter)
	return ok && !sb.Departed
}

func (s *System) shooterDying(ctx Context, b *Beam) bool {
	if b.caps.has(capFloating) {
		return false
	}
	sb, ok := ctx.Body(b.shooter)
	return ok && sb.Dying
}

func (s *System) transition(b *Beam, to core.BeamState, reason string) {
	from := b.state
	b.state = to
	s.sink.BeamStateChanged(core.BeamStateEvent{
		Signature: b.signature,
		Time:      s.wallTime(),
		Frame:     s.frame,
		From:      from,
		To:        to,
		Reason:    reason,
	})
}

func (s *System) startFiring(ctx Context, b *Beam, orient core.Matrix) {
	b.warmupDeadline = 0
	b.lifeLeft = b.lifeTotal
	if b.weapon.GrowFactor > 0 {
		b.widthScale = 0
		b.growFinished = false
	}
	s.transition(b, core.StateFiring, ReasonWarmupDone)
	b.kind.advance(s, ctx, b, orient)
}

// beginWarmdown powers a beam down. Targeting beams have no warmdown and are
// removed instead.
func (s *System) beginWarmdown(b *Beam, reason string) {
	if b.state == core.StateWarmdown || b.state == core.StateDestroyed {
		return
	}
	if b.weapon.Type == core.BeamTargeting {
		s.destroy(b, reason)
		return
	}
	b.warmupDeadline = 0
	b.warmdownDeadline = s.now + b.weapon.Warmdown
	b.safe = true
	s.transition(b, core.StateWarmdown, reason)
}

// destroy releases the beam's slot. The slot is reused only after the next frame starts.
func (s *System) destroy(b *Beam, reason string) {
	from := b.state
	b.state = core.StateDestroyed
	if !s.pool.release(b.handle) {
		return
	}
	s.active.Store(int64(s.pool.active()))
	s.logger.Debug("beam removed", "beam", b.handle, "signature", b.signature, "reason", reason)
	s.sink.BeamRemoved(core.BeamStateEvent{
		Signature: b.signature,
		Time:      s.wallTime(),
		Frame:     s.frame,
		From:      from,
		To:        core.StateDestroyed,
		Reason:    reason,
	})
}

// updateWidth runs the cosmetic grow and shrink transitions.
func (s *System) updateWidth(b *Beam, delta time.Duration) {
	dt := delta.Seconds()
	w := b.weapon

	if w.GrowFactor > 0 && !b.growFinished {
		rate := w.GrowRate
		if rate <= 0 {
			rate = 1
		}
		b.widthScale += rate * dt
		if b.widthScale >= 1 {
			b.widthScale = 1
			b.growFinished = true
		}
	}

	if w.ShrinkFactor > 0 && float64(b.lifeLeft) <= float64(b.lifeTotal)*w.ShrinkFactor {
		b.shrinking = true
	}
	if b.shrinking {
		rate := w.ShrinkRate
		if rate <= 0 {
			rate = 1
		}
		b.widthScale -= rate * dt
		if b.widthScale < 0 {
			b.widthScale = 0
		}
	}
}

// drainEnergy charges a fighter shooter for a frame of firing. It reports
// false once the shooter is out of energy.
func (s *System) drainEnergy(ctx Context, b *Beam, delta time.Duration) bool {
	if !b.caps.has(capFighter) || b.weapon.EnergyPerSecond <= 0 {
		return true
	}
	left := ctx.DrainEnergy(b.shooter, b.weapon.EnergyPerSecond*delta.Seconds())
	if left > 0 {
		return true
	}
	s.sink.EnergyDepleted(core.BeamStateEvent{
		Signature: b.signature,
		Time:      s.wallTime(),
		Frame:     s.frame,
		From:      b.state,
		To:        core.StateWarmdown,
		Reason:    ReasonNoEnergy,
	})
	return false
}
