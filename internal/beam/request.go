package beam

import (
	"fmt"

	"github.com/OCAP2/beamcore/pkg/core"
)

// noSubsystem marks a beam aimed at the target as a whole.
const noSubsystem = -1

// FireRequest describes a beam to create.
type FireRequest struct {
	Weapon *Weapon

	// Shooter is nil for floating beams, which must carry StartPoint.
	Shooter core.Handle
	Mount   int

	Target core.Handle
	// Subsystem aims at a target sub-component; nil aims at the target itself.
	Subsystem *int
	// TargetPoint replaces Target with explicit world coordinates.
	TargetPoint *core.Vec3
	StartPoint  *core.Vec3
	// SlashPoints are explicit world points for a slashing sweep.
	SlashPoints *[2]core.Vec3

	Team int
	// Accuracy scales aim error; 1 is nominal.
	Accuracy  float64
	ForceFire bool
	// SharedAim makes every beam from the same shooter, target and weapon
	// within a frame reuse the first beam's resolved direction.
	SharedAim bool

	// Seed drives per-beam randomness; zero derives one from the signature.
	Seed uint64
	// BurstSeed is shared by every shot of an omni burst.
	BurstSeed uint64
	BurstShot int
}

func (r FireRequest) floating() bool {
	return r.Shooter.IsNil()
}

func (r FireRequest) hasTarget() bool {
	return !r.Target.IsNil() || r.TargetPoint != nil
}

// validate checks the request against its firing method and resolves the
// shooter and target bodies.
func (r FireRequest) validate(ctx Context, targeting bool) (shooter, target *Body, err error) {
	if err := r.Weapon.Validate(); err != nil {
		return nil, nil, err
	}
	isTargeting := r.Weapon.Type == core.BeamTargeting
	if isTargeting != targeting {
		return nil, nil, fmt.Errorf("%s is %s: %w", r.Weapon.Name, r.Weapon.Type, ErrWrongFireMethod)
	}

	if r.floating() {
		if r.StartPoint == nil {
			return nil, nil, fmt.Errorf("floating beam without start point: %w", ErrMissingPoints)
		}
		if !r.hasTarget() && r.SlashPoints == nil {
			return nil, nil, fmt.Errorf("floating beam without target point: %w", ErrMissingPoints)
		}
	} else {
		b, ok := ctx.Body(r.Shooter)
		if !ok || b.Departed {
			return nil, nil, fmt.Errorf("shooter %s: %w", r.Shooter, ErrMissingShooter)
		}
		if _, ok := ctx.Mount(r.Shooter, r.Mount); !ok {
			return nil, nil, fmt.Errorf("shooter %s mount %d: %w", r.Shooter, r.Mount, ErrMissingShooter)
		}
		shooter = &b
	}

	if !r.Target.IsNil() {
		b, ok := ctx.Body(r.Target)
		if !ok {
			return nil, nil, fmt.Errorf("target %s: %w", r.Target, ErrMissingTarget)
		}
		if b.Class == core.ClassUnknown {
			return nil, nil, fmt.Errorf("target %s: %w", r.Target, ErrUnsupportedTarget)
		}
		if b.Class == core.ClassWeapon && r.Weapon.Type != core.BeamAntiFighter {
			return nil, nil, fmt.Errorf("%s cannot engage weapons: %w", r.Weapon.Type, ErrUnsupportedTarget)
		}
		target = &b
	}

	switch r.Weapon.Type {
	case core.BeamTargeting, core.BeamNormalFire:
		// aim from the shooter alone
	case core.BeamSlashing:
		if !r.hasTarget() && r.SlashPoints == nil {
			return nil, nil, fmt.Errorf("slashing beam: %w", ErrMissingTarget)
		}
		if r.Target.IsNil() && r.SlashPoints == nil {
			return nil, nil, fmt.Errorf("slashing beam at explicit coordinates: %w", ErrMissingPoints)
		}
	default:
		if !r.hasTarget() {
			return nil, nil, fmt.Errorf("%s beam: %w", r.Weapon.Type, ErrMissingTarget)
		}
	}
	return shooter, target, nil
}
