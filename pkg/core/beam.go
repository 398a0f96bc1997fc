// pkg/core/beam.go
package core

// BeamType selects the aiming and movement law of a beam weapon.
type BeamType int

const (
	BeamDirectFire BeamType = iota
	BeamSlashing
	BeamTargeting
	BeamAntiFighter
	BeamNormalFire
	BeamOmni
)

var beamTypeNames = [...]string{
	BeamDirectFire:  "direct_fire",
	BeamSlashing:    "slashing",
	BeamTargeting:   "targeting",
	BeamAntiFighter: "anti_fighter",
	BeamNormalFire:  "normal_fire",
	BeamOmni:        "omni",
}

func (t BeamType) String() string {
	if t < 0 || int(t) >= len(beamTypeNames) {
		return "unknown"
	}
	return beamTypeNames[t]
}

// ParseBeamType maps a name produced by BeamType.String back to its value.
func ParseBeamType(name string) (BeamType, bool) {
	for i, n := range beamTypeNames {
		if n == name {
			return BeamType(i), true
		}
	}
	return 0, false
}

// BeamState is the lifecycle phase of a live beam.
type BeamState int

const (
	StateWarmup BeamState = iota
	StateFiring
	StateWarmdown
	StateDestroyed
)

func (s BeamState) String() string {
	switch s {
	case StateWarmup:
		return "warmup"
	case StateFiring:
		return "firing"
	case StateWarmdown:
		return "warmdown"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// ObjectClass classifies simulated bodies for collision rules.
type ObjectClass int

const (
	ClassUnknown ObjectClass = iota
	ClassShip
	ClassAsteroid
	ClassDebris
	ClassWeapon
)

func (c ObjectClass) String() string {
	switch c {
	case ClassShip:
		return "ship"
	case ClassAsteroid:
		return "asteroid"
	case ClassDebris:
		return "debris"
	case ClassWeapon:
		return "weapon"
	default:
		return "unknown"
	}
}

// NoQuadrant marks a hit that bypasses shields (hull, exit or pierced hits).
const NoQuadrant = -1

// ParseBeamState maps a name produced by BeamState.String back to its value.
func ParseBeamState(name string) (BeamState, bool) {
	for s := StateWarmup; s <= StateDestroyed; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}
