package beam

import (
	"math/rand/v2"
	"time"

	"github.com/OCAP2/beamcore/pkg/core"
)

// capability flags fixed at fire time
type capability uint8

const (
	capFighter capability = 1 << iota
	capForceFire
	capFloating
	capExplicitTarget
	capSharedAim
	capSingleFrame
)

func (c capability) has(f capability) bool { return c&f != 0 }

// aimRecord is the resolved firing geometry. Directions are in the shooter's
// model space, or world space for floating beams.
type aimRecord struct {
	DirA      core.Vec3
	DirB      core.Vec3
	Axis      core.Vec3
	ShotAim   []core.Vec3
	ShotIndex int
	ShotCount int
	// BurstAngle and ShotAngle are the one-shot omni rotations.
	BurstAngle float64
	ShotAngle  float64
}

// Collision is one resolved intersection of a beam with a body this frame.
type Collision struct {
	Target   core.Handle
	Class    core.ObjectClass
	Point    core.Vec3
	Distance float64
	Quadrant int
	Submodel int
	Exit     bool
	Tooled   bool
	// Area hits used the thick sweep test.
	Area bool
	// Pierced hits went through an active shield.
	Pierced bool
	// Bleed is the fraction of a shield hit's damage that passes through to
	// the hull.
	Bleed float64
}

type recentHit struct {
	target core.Handle
	until  time.Duration
}

// Beam is a live beam instance. It is owned by the pool and must only be
// touched from the simulation thread.
type Beam struct {
	handle    core.Handle
	signature uint64
	weapon    *Weapon
	kind      aimer
	caps      capability

	shooter     core.Handle
	mount       int
	target      core.Handle
	subsystem   int
	targetPoint core.Vec3
	startPoint  core.Vec3
	slashPoints [2]core.Vec3
	hasSlash    bool
	team        int
	accuracy    float64

	start core.Vec3
	end   core.Vec3
	aim   aimRecord

	state            core.BeamState
	lifeTotal        time.Duration
	lifeLeft         time.Duration
	warmupDeadline   time.Duration
	warmdownDeadline time.Duration

	widthScale   float64
	safe         bool
	shrinking    bool
	growFinished bool

	collisions []Collision
	recent     []recentHit

	seed      uint64
	burstSeed uint64
	burstShot int
	src       *rand.PCG
	rng       *rand.Rand
}

// Handle returns the pool handle of the beam.
func (b *Beam) Handle() core.Handle { return b.handle }

// Signature is the monotonically increasing fire-event number.
func (b *Beam) Signature() uint64 { return b.signature }

func (b *Beam) elapsedFraction() float64 {
	if b.lifeTotal <= 0 {
		return 1
	}
	f := float64(b.lifeTotal-b.lifeLeft) / float64(b.lifeTotal)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// recordCollision appends c, evicting the farthest entry when full.
func (b *Beam) recordCollision(c Collision, limit int) {
	if len(b.collisions) < limit {
		b.collisions = append(b.collisions, c)
		return
	}
	far := 0
	for i := range b.collisions {
		if b.collisions[i].Distance > b.collisions[far].Distance {
			far = i
		}
	}
	if c.Distance < b.collisions[far].Distance {
		b.collisions[far] = c
	}
}

// freshHit reports whether target is past its cooldown and arms the next one.
// Expired entries for other targets are dropped, so the list only holds
// targets still inside their cooldown.
func (b *Beam) freshHit(target core.Handle, now, cooldown time.Duration) bool {
	fresh := true
	kept := b.recent[:0]
	for _, r := range b.recent {
		switch {
		case r.target == target:
			if now < r.until {
				fresh = false
				kept = append(kept, r)
			}
		case now < r.until:
			kept = append(kept, r)
		}
	}
	if fresh {
		kept = append(kept, recentHit{target: target, until: now + cooldown})
	}
	b.recent = kept
	return fresh
}

// Snapshot is the read-only view consumed by rendering and effects collaborators.
type Snapshot struct {
	Handle           core.Handle
	Signature        uint64
	Weapon           string
	Type             core.BeamType
	State            core.BeamState
	Shooter          core.Handle
	Target           core.Handle
	Start            core.Vec3
	End              core.Vec3
	WidthScale       float64
	LifeLeft         time.Duration
	LifeTotal        time.Duration
	WarmupFraction   float64
	WarmdownFraction float64
	Safe             bool
	ShotIndex        int
	ShotCount        int
}
