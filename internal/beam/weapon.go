package beam

import (
	"fmt"
	"time"

	"github.com/OCAP2/beamcore/pkg/core"
)

// NumSkillLevels is the number of difficulty levels indexed by per-skill tables.
const NumSkillLevels = 5

// Weapon is the static, read-only configuration of a beam weapon type.
type Weapon struct {
	Name string
	Type core.BeamType

	// Damage is dealt per Settings.DamageTime of contact.
	Damage float64
	// DamageType indexes the target's armor table.
	DamageType int
	Range      float64
	// AttenuationThreshold is the fraction of Range past which damage ramps
	// linearly down to zero at full range. Zero or >= 1 disables attenuation.
	AttenuationThreshold float64
	Mass                 float64
	Width                float64
	PiercesShields       bool

	Warmup   time.Duration
	Warmdown time.Duration
	Life     time.Duration

	// MissFactor scales aim error per skill level.
	MissFactor [NumSkillLevels]float64

	// ShotCount is the number of aim windows of an anti-fighter beam.
	ShotCount int
	// MissGrowth multiplies the anti-fighter miss chance per shot.
	MissGrowth float64
	// FireFraction is the active part of each anti-fighter window.
	FireFraction float64

	// Width transitions. Shrinking starts once the remaining life falls to
	// ShrinkFactor of the total; growing runs from zero width at the start of firing.
	ShrinkFactor float64
	ShrinkRate   float64
	GrowFactor   float64
	GrowRate     float64

	// EnergyPerSecond is drained from a fighter shooter while firing.
	EnergyPerSecond float64

	Omni *OmniConfig

	// Tokens are opaque effect and sound handles for collaborators.
	Tokens map[string]string
}

// Validate checks the fields the core relies on.
func (w *Weapon) Validate() error {
	if w == nil {
		return ErrMissingWeapon
	}
	if w.Type < core.BeamDirectFire || w.Type > core.BeamOmni {
		return fmt.Errorf("%s: type %d: %w", w.Name, w.Type, ErrNotBeamWeapon)
	}
	if w.Range <= 0 {
		return fmt.Errorf("%s: range must be positive: %w", w.Name, ErrNotBeamWeapon)
	}
	if w.Type != core.BeamTargeting && w.Life <= 0 {
		return fmt.Errorf("%s: life must be positive: %w", w.Name, ErrNotBeamWeapon)
	}
	return nil
}

func (w *Weapon) missFactor(skill int) float64 {
	if skill < 0 || skill >= NumSkillLevels {
		return 0
	}
	return w.MissFactor[skill]
}

// PointPlacement positions an omni beam's start or end point around the target.
type PointPlacement int

const (
	PlaceCenter PointPlacement = iota
	PlaceRandomInside
	PlaceRandomOutside
	PlaceOffset
)

// OffsetScale selects what a PlaceOffset offset is multiplied by.
type OffsetScale int

const (
	ScaleNone OffsetScale = iota
	ScaleTargetRadius
	ScaleShotDistance
)

// PointSpec places one omni point. Offset is in the target's model space.
type PointSpec struct {
	Placement PointPlacement
	Offset    core.Vec3
	Scale     OffsetScale
}

// AxisPolicy selects the axis an omni beam rotates around.
type AxisPolicy int

const (
	AxisNone AxisPolicy = iota
	// AxisTargetCenter rotates around the line from the origin to the target center.
	AxisTargetCenter
	// AxisBetweenPoints rotates around the line to the midpoint of start and end.
	AxisBetweenPoints
	AxisStartPoint
	AxisEndPoint
	// AxisCustom uses CustomAxis in the shooter's model space.
	AxisCustom
)

// OmniConfig configures the general sweep of an omni beam. Angles are radians.
type OmniConfig struct {
	Start PointSpec
	End   PointSpec

	// ContinuousRotation is the total rotation applied over the beam's life.
	ContinuousRotation float64
	Axis               AxisPolicy
	CustomAxis         core.Vec3

	// BurstRotation is applied once per burst, PerShotRotation once per shot
	// index. Random variants pick an angle in [0, value) from the burst or beam seed.
	BurstRotation         float64
	BurstRotationRandom   bool
	PerShotRotation       float64
	PerShotRotationRandom bool
}
