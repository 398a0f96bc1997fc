// Package world is an in-memory simulation context for the beam core. Bodies
// are spheres with four shield quadrants; mounts, subsystems, armor and weapon
// energy are plain data.
package world

import (
	"errors"
	"math/rand/v2"

	"github.com/OCAP2/beamcore/internal/arena"
	"github.com/OCAP2/beamcore/internal/beam"
	"github.com/OCAP2/beamcore/internal/geo"
	"github.com/OCAP2/beamcore/pkg/core"
)

// Shield quadrants in model space.
const (
	QuadrantFront = iota
	QuadrantRight
	QuadrantLeft
	QuadrantRear
	NumQuadrants
)

const defaultShieldScale = 1.1

// ErrFull is returned when the world has no free object slots.
var ErrFull = errors.New("world full")

// Object is a simulated body.
type Object struct {
	Name     string
	Class    core.ObjectClass
	Pose     core.Pose
	Velocity core.Vec3
	Mass     float64
	Radius   float64
	Team     int
	Parent   core.Handle
	Dying    bool
	Departed bool

	Hull    float64
	Shields [NumQuadrants]float64
	// ShieldScale is the shield sphere radius relative to Radius.
	ShieldScale float64
	Armor       string

	Mounts     []beam.Mount
	Subsystems []core.Vec3
	Energy     float64

	BBoxMin core.Vec3
	BBoxMax core.Vec3
}

// ArmorType scales damage by damage type.
type ArmorType struct {
	Factors      map[int]float64
	ShieldPierce map[int]float64
}

// DamageRecord is one call to ApplyDamage.
type DamageRecord struct {
	Target   core.Handle
	Source   core.Handle
	Point    core.Vec3
	Amount   float64
	Quadrant int
}

// ImpulseRecord is one call to ApplyImpulse.
type ImpulseRecord struct {
	Target  core.Handle
	Point   core.Vec3
	Impulse core.Vec3
}

// World implements beam.Context.
type World struct {
	objects  *arena.Arena[Object]
	armor    map[string]ArmorType
	damage   []DamageRecord
	impulses []ImpulseRecord
}

var _ beam.Context = (*World)(nil)

// New creates a world holding at most capacity objects.
func New(capacity int) *World {
	return &World{
		objects: arena.New[Object](capacity),
		armor:   make(map[string]ArmorType),
	}
}

// Add inserts an object.
func (w *World) Add(o Object) (core.Handle, error) {
	h, slot, err := w.objects.Acquire()
	if err != nil {
		return core.NilHandle, ErrFull
	}
	if o.Pose.Orient.IsZero() {
		o.Pose.Orient = core.IdentityMatrix
	}
	*slot = o
	return h, nil
}

// Remove deletes an object. Its handle stops resolving immediately.
func (w *World) Remove(h core.Handle) bool {
	return w.objects.Release(h)
}

// Object returns a mutable pointer to an object.
func (w *World) Object(h core.Handle) (*Object, bool) {
	return w.objects.Get(h)
}

// SetArmor registers an armor type by name.
func (w *World) SetArmor(name string, a ArmorType) {
	w.armor[name] = a
}

// Move integrates velocities over dt seconds and recycles removed slots.
func (w *World) Move(dt float64) {
	w.objects.Recycle()
	w.objects.Each(func(_ core.Handle, o *Object) bool {
		o.Pose.Position = o.Pose.Position.Add(o.Velocity.Scale(dt))
		return true
	})
}

// Count returns the number of live objects.
func (w *World) Count() int { return w.objects.Active() }

// DamageLog returns every damage application so far.
func (w *World) DamageLog() []DamageRecord { return w.damage }

// ImpulseLog returns every impulse application so far.
func (w *World) ImpulseLog() []ImpulseRecord { return w.impulses }

// DamageTo sums the damage applied to target.
func (w *World) DamageTo(target core.Handle) float64 {
	total := 0.0
	for _, d := range w.damage {
		if d.Target == target {
			total += d.Amount
		}
	}
	return total
}

// ResetLogs clears the damage and impulse logs.
func (w *World) ResetLogs() {
	w.damage = w.damage[:0]
	w.impulses = w.impulses[:0]
}

func (w *World) body(h core.Handle, o *Object) beam.Body {
	return beam.Body{
		Handle:   h,
		Class:    o.Class,
		Pose:     o.Pose,
		Radius:   o.Radius,
		Team:     o.Team,
		Parent:   o.Parent,
		Dying:    o.Dying,
		Departed: o.Departed,
		BBoxMin:  o.BBoxMin,
		BBoxMax:  o.BBoxMax,
	}
}

// Body implements beam.Bodies.
func (w *World) Body(h core.Handle) (beam.Body, bool) {
	o, ok := w.objects.Get(h)
	if !ok {
		return beam.Body{}, false
	}
	return w.body(h, o), true
}

// Mount implements beam.Bodies.
func (w *World) Mount(shooter core.Handle, mount int) (beam.Mount, bool) {
	o, ok := w.objects.Get(shooter)
	if !ok || mount < 0 || mount >= len(o.Mounts) {
		return beam.Mount{}, false
	}
	return o.Mounts[mount], true
}

// Candidates implements beam.Bodies. Every live object is a candidate.
func (w *World) Candidates() []beam.Body {
	out := make([]beam.Body, 0, w.objects.Active())
	w.objects.Each(func(h core.Handle, o *Object) bool {
		out = append(out, w.body(h, o))
		return true
	})
	return out
}

// Ray implements beam.Geometry against the body sphere.
func (w *World) Ray(target core.Handle, from, to core.Vec3) (beam.ModelHit, bool) {
	o, ok := w.objects.Get(target)
	if !ok {
		return beam.ModelHit{}, false
	}
	t, ok := geo.SegmentSphere(from, to, o.Pose.Position, o.Radius)
	if !ok {
		return beam.ModelHit{}, false
	}
	return beam.ModelHit{Point: from.Lerp(to, t)}, true
}

// Sweep implements beam.Geometry.
func (w *World) Sweep(target core.Handle, from, to core.Vec3, radius float64) (beam.ModelHit, bool) {
	o, ok := w.objects.Get(target)
	if !ok {
		return beam.ModelHit{}, false
	}
	p, _, ok := geo.SphereSweep(from, to, o.Pose.Position, o.Radius, radius)
	if !ok {
		return beam.ModelHit{}, false
	}
	return beam.ModelHit{Point: p}, true
}

// ShieldRay implements beam.Geometry against the shield sphere.
func (w *World) ShieldRay(target core.Handle, from, to core.Vec3) (beam.ModelHit, bool) {
	o, ok := w.objects.Get(target)
	if !ok {
		return beam.ModelHit{}, false
	}
	scale := o.ShieldScale
	if scale <= 0 {
		scale = defaultShieldScale
	}
	t, ok := geo.SegmentSphere(from, to, o.Pose.Position, o.Radius*scale)
	if !ok {
		return beam.ModelHit{}, false
	}
	return beam.ModelHit{Point: from.Lerp(to, t)}, true
}

// RandomPoint implements beam.Geometry with a point on the body sphere.
func (w *World) RandomPoint(target core.Handle, rng *rand.Rand) core.Vec3 {
	o, ok := w.objects.Get(target)
	if !ok {
		return core.Vec3{}
	}
	return o.Pose.Position.Add(geo.RandomOnSphere(rng).Scale(o.Radius))
}

// SubsystemPoint implements beam.Geometry.
func (w *World) SubsystemPoint(target core.Handle, subsystem int) (core.Vec3, bool) {
	o, ok := w.objects.Get(target)
	if !ok || subsystem < 0 || subsystem >= len(o.Subsystems) {
		return core.Vec3{}, false
	}
	return o.Pose.Position.Add(o.Pose.Orient.ToWorld(o.Subsystems[subsystem])), true
}

// Occluded implements beam.Geometry: a shot is blocked when it passes through
// the inner half of the shooter's own sphere.
func (w *World) Occluded(shooter core.Handle, from, to core.Vec3) bool {
	o, ok := w.objects.Get(shooter)
	if !ok {
		return false
	}
	d, t := geo.SegmentPointDistance(from, to, o.Pose.Position)
	return t > 0 && d < o.Radius*0.5
}

// Quadrant implements beam.Shields.
func (w *World) Quadrant(target core.Handle, point core.Vec3) int {
	o, ok := w.objects.Get(target)
	if !ok {
		return core.NoQuadrant
	}
	local := o.Pose.Orient.ToLocal(point.Sub(o.Pose.Position))
	if abs(local.Z()) >= abs(local.X()) {
		if local.Z() >= 0 {
			return QuadrantFront
		}
		return QuadrantRear
	}
	if local.X() >= 0 {
		return QuadrantRight
	}
	return QuadrantLeft
}

// ShieldStrength implements beam.Shields.
func (w *World) ShieldStrength(target core.Handle, quadrant int) float64 {
	o, ok := w.objects.Get(target)
	if !ok || quadrant < 0 || quadrant >= NumQuadrants {
		return 0
	}
	return o.Shields[quadrant]
}

// TotalShields implements beam.Shields.
func (w *World) TotalShields(target core.Handle) float64 {
	o, ok := w.objects.Get(target)
	if !ok {
		return 0
	}
	total := 0.0
	for _, s := range o.Shields {
		total += s
	}
	return total
}

// Hull implements beam.Shields.
func (w *World) Hull(target core.Handle) float64 {
	o, ok := w.objects.Get(target)
	if !ok {
		return 0
	}
	return o.Hull
}

// ArmorFactor implements beam.Armor. Unknown armor takes full damage.
func (w *World) ArmorFactor(target core.Handle, damageType int) float64 {
	a, ok := w.armorOf(target)
	if !ok {
		return 1
	}
	if f, ok := a.Factors[damageType]; ok {
		return f
	}
	return 1
}

// ShieldPierce implements beam.Armor.
func (w *World) ShieldPierce(target core.Handle, damageType int) float64 {
	a, ok := w.armorOf(target)
	if !ok {
		return 0
	}
	return a.ShieldPierce[damageType]
}

func (w *World) armorOf(target core.Handle) (ArmorType, bool) {
	o, ok := w.objects.Get(target)
	if !ok || o.Armor == "" {
		return ArmorType{}, false
	}
	a, ok := w.armor[o.Armor]
	return a, ok
}

// ApplyDamage implements beam.Effects. Shield quadrants absorb first and the
// overflow reaches the hull. A hull at zero marks the object dying.
func (w *World) ApplyDamage(target, source core.Handle, point core.Vec3, amount float64, quadrant int) {
	o, ok := w.objects.Get(target)
	if !ok {
		return
	}
	w.damage = append(w.damage, DamageRecord{
		Target:   target,
		Source:   source,
		Point:    point,
		Amount:   amount,
		Quadrant: quadrant,
	})
	rest := amount
	if quadrant >= 0 && quadrant < NumQuadrants {
		absorbed := min(o.Shields[quadrant], rest)
		o.Shields[quadrant] -= absorbed
		rest -= absorbed
	}
	o.Hull -= rest
	if o.Hull <= 0 {
		o.Hull = 0
		o.Dying = true
	}
}

// ApplyImpulse implements beam.Effects.
func (w *World) ApplyImpulse(target core.Handle, point, impulse core.Vec3) {
	o, ok := w.objects.Get(target)
	if !ok {
		return
	}
	w.impulses = append(w.impulses, ImpulseRecord{Target: target, Point: point, Impulse: impulse})
	if o.Mass > 0 {
		o.Velocity = o.Velocity.Add(impulse.Scale(1 / o.Mass))
	}
}

// DrainEnergy implements beam.Effects.
func (w *World) DrainEnergy(shooter core.Handle, amount float64) float64 {
	o, ok := w.objects.Get(shooter)
	if !ok {
		return 0
	}
	o.Energy = max(o.Energy-amount, 0)
	return o.Energy
}

// Energy implements beam.Effects.
func (w *World) Energy(shooter core.Handle) float64 {
	o, ok := w.objects.Get(shooter)
	if !ok {
		return 0
	}
	return o.Energy
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
