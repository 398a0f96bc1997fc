package beam

import (
	"math/rand/v2"

	"github.com/OCAP2/beamcore/pkg/core"
)

// Body is a snapshot of a simulated object.
type Body struct {
	Handle core.Handle
	Class  core.ObjectClass
	Pose   core.Pose
	Radius float64
	Team   int
	// Parent is the object this body is attached to, nil for free bodies.
	Parent core.Handle
	// Dying shooters burn through beam life at double rate.
	Dying bool
	// Departed bodies are no longer valid combatants.
	Departed bool
	// BBoxMin and BBoxMax bound the model in model space.
	BBoxMin core.Vec3
	BBoxMax core.Vec3
}

// Mount is a weapon mount on a shooter.
type Mount struct {
	// Offset and Normal are in the shooter's model space.
	Offset core.Vec3
	Normal core.Vec3
	// FOVDot is the minimum dot product between the mount normal and the
	// direction to the target for the target to be in view.
	FOVDot         float64
	Destroyed      bool
	Disrupted      bool
	WeaponsDamaged bool
	Fighter        bool
}

// ModelHit is a model or shield intersection along a segment.
type ModelHit struct {
	Point    core.Vec3
	Submodel int
}

// Bodies resolves objects by handle.
type Bodies interface {
	Body(h core.Handle) (Body, bool)
	Mount(shooter core.Handle, mount int) (Mount, bool)
	// Candidates returns the bodies the physics layer registered as possible
	// colliders this frame.
	Candidates() []Body
}

// Geometry provides model intersection primitives.
type Geometry interface {
	Ray(target core.Handle, from, to core.Vec3) (ModelHit, bool)
	Sweep(target core.Handle, from, to core.Vec3, radius float64) (ModelHit, bool)
	ShieldRay(target core.Handle, from, to core.Vec3) (ModelHit, bool)
	RandomPoint(target core.Handle, rng *rand.Rand) core.Vec3
	SubsystemPoint(target core.Handle, subsystem int) (core.Vec3, bool)
	// Occluded reports whether the shooter's own hull blocks the segment.
	Occluded(shooter core.Handle, from, to core.Vec3) bool
}

// Shields reports hull and shield strength.
type Shields interface {
	Quadrant(target core.Handle, point core.Vec3) int
	ShieldStrength(target core.Handle, quadrant int) float64
	TotalShields(target core.Handle) float64
	Hull(target core.Handle) float64
}

// Armor describes how a target's armor treats a damage type.
type Armor interface {
	ArmorFactor(target core.Handle, damageType int) float64
	// ShieldPierce is the fraction of damage passing through shields.
	ShieldPierce(target core.Handle, damageType int) float64
}

// Effects applies the outcome of resolved hits.
type Effects interface {
	ApplyDamage(target, source core.Handle, point core.Vec3, amount float64, quadrant int)
	ApplyImpulse(target core.Handle, point, impulse core.Vec3)
	// DrainEnergy removes weapon energy and returns what is left.
	DrainEnergy(shooter core.Handle, amount float64) float64
	Energy(shooter core.Handle) float64
}

// Context is the simulation passed into every beam operation.
type Context interface {
	Bodies
	Geometry
	Shields
	Armor
	Effects
}
