package parser

import (
	"github.com/OCAP2/beamcore/internal/beam"
	"github.com/OCAP2/beamcore/pkg/core"
)

// Fire command argument positions. Positions past argFireTeam are optional.
const (
	argFireWeapon = iota
	argFireShooter
	argFireMount
	argFireTarget
	argFireSeed
	argFireBurstSeed
	argFireBurstShot
	argFireTeam
	argFireAccuracy
	argFireOptions

	minFireArgs = argFireTeam + 1
)

// ParsedFireRequest is a replicated fire command ready for the beam system.
type ParsedFireRequest struct {
	Request beam.FireRequest
	// Targeting selects FireTargeting instead of Fire.
	Targeting bool
}

// fireOptions is the optional trailing JSON object of a fire command.
type fireOptions struct {
	Subsystem   *int        `json:"subsystem"`
	TargetPoint *core.Vec3  `json:"targetPoint"`
	StartPoint  *core.Vec3  `json:"startPoint"`
	SlashPoints []core.Vec3 `json:"slashPoints"`
	ForceFire   bool        `json:"forceFire"`
	SharedAim   bool        `json:"sharedAim"`
}
