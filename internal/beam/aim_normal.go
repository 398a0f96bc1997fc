package beam

import (
	"github.com/OCAP2/beamcore/pkg/core"
)

// normalFire fires straight out of the mount.
type normalFire struct{}

func (normalFire) computeAim(_ *System, ctx Context, b *Beam, orient core.Matrix) aimRecord {
	if b.caps.has(capFloating) {
		return aimRecord{DirA: localDir(orient, b.targetPoint.Sub(b.start)), ShotCount: 1}
	}
	m, _ := ctx.Mount(b.shooter, b.mount)
	dir := m.Normal.Normalize()
	if dir.IsZero() {
		dir = core.Vec3{0, 0, 1}
	}
	return aimRecord{DirA: dir, ShotCount: 1}
}

func (normalFire) advance(_ *System, _ Context, b *Beam, orient core.Matrix) {
	project(b, orient, b.aim.DirA)
}
