package beam

import (
	"github.com/OCAP2/beamcore/pkg/core"
)

// targeting points along the shooter's forward axis, or at explicit
// coordinates, recomputed every frame.
type targeting struct{}

func (targeting) computeAim(_ *System, _ Context, b *Beam, orient core.Matrix) aimRecord {
	return aimRecord{DirA: targetingDir(b, orient), ShotCount: 1}
}

func (targeting) advance(_ *System, _ Context, b *Beam, orient core.Matrix) {
	b.aim.DirA = targetingDir(b, orient)
	project(b, orient, b.aim.DirA)
}

func targetingDir(b *Beam, orient core.Matrix) core.Vec3 {
	if b.caps.has(capExplicitTarget) {
		if d := localDir(orient, b.targetPoint.Sub(b.start)); !d.IsZero() {
			return d
		}
	}
	return core.Vec3{0, 0, 1}
}
