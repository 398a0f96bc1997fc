package beam

import (
	"math"
	"slices"
	"time"

	"github.com/OCAP2/beamcore/internal/geo"
	"github.com/OCAP2/beamcore/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
)

const defaultFireFraction = 0.5

// antiFighter splits its life into shot windows, each with a fresh aim and a
// trailing safe period.
type antiFighter struct{}

func (antiFighter) computeAim(s *System, ctx Context, b *Beam, orient core.Matrix) aimRecord {
	count := b.weapon.ShotCount
	if count < 1 {
		count = 1
	}
	if count > s.settings.MaxShots {
		count = s.settings.MaxShots
	}
	growth := b.weapon.MissGrowth
	if growth <= 0 {
		growth = 1
	}

	_, radius, _ := targetCenter(ctx, b)
	base := b.weapon.missFactor(s.settings.SkillLevel) * b.accuracy
	rec := aimRecord{ShotCount: count, ShotAim: slices.Grow(b.aim.ShotAim[:0], count)[:count]}
	for i := range count {
		miss := mgl64.Clamp(base*math.Pow(growth, float64(i)), 0, 1)
		if miss > 0 && b.rng.Float64() < miss {
			rec.ShotAim[i] = geo.RandomOnSphere(b.rng).Scale(radius * (1.5 + b.rng.Float64()))
		} else {
			rec.ShotAim[i] = geo.RandomInSphere(b.rng).Scale(radius * 0.25)
		}
	}
	rec.DirA = shotDir(ctx, b, orient, rec.ShotAim[0], core.Vec3{0, 0, 1})
	return rec
}

func (antiFighter) advance(_ *System, ctx Context, b *Beam, orient core.Matrix) {
	count := b.aim.ShotCount
	window := b.lifeTotal / time.Duration(count)
	elapsed := b.lifeTotal - b.lifeLeft
	if elapsed < 0 {
		elapsed = 0
	}

	idx, frac := 0, 0.0
	if window > 0 {
		idx = int(elapsed / window)
		if idx >= count {
			idx = count - 1
		}
		frac = float64(elapsed-time.Duration(idx)*window) / float64(window)
	}

	fire := b.weapon.FireFraction
	if fire <= 0 || fire > 1 {
		fire = defaultFireFraction
	}
	b.safe = frac >= fire

	if idx != b.aim.ShotIndex {
		b.aim.ShotIndex = idx
		b.aim.DirA = shotDir(ctx, b, orient, b.aim.ShotAim[idx], b.aim.DirA)
	}
	project(b, orient, b.aim.DirA)
}

func shotDir(ctx Context, b *Beam, orient core.Matrix, offset, fallback core.Vec3) core.Vec3 {
	center, _, ok := targetCenter(ctx, b)
	if !ok {
		return fallback
	}
	d := localDir(orient, center.Add(offset).Sub(b.start))
	if d.IsZero() {
		return fallback
	}
	return d
}
