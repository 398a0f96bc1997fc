package beam

import (
	"github.com/OCAP2/beamcore/pkg/core"
)

// EventSink receives the beam lifecycle as it happens. Calls are made from the
// simulation thread and must not block.
type EventSink interface {
	BeamFired(core.BeamFiredEvent)
	BeamStateChanged(core.BeamStateEvent)
	BeamHit(core.BeamHitEvent)
	BeamRemoved(core.BeamStateEvent)
	EnergyDepleted(core.BeamStateEvent)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) BeamFired(core.BeamFiredEvent)       {}
func (NopSink) BeamStateChanged(core.BeamStateEvent) {}
func (NopSink) BeamHit(core.BeamHitEvent)            {}
func (NopSink) BeamRemoved(core.BeamStateEvent)      {}
func (NopSink) EnergyDepleted(core.BeamStateEvent)   {}

// Transition reasons.
const (
	ReasonWarmupDone     = "warmup complete"
	ReasonLifeExpired    = "life expired"
	ReasonStopped        = "stopped"
	ReasonKilled         = "killed"
	ReasonWarmdownDone   = "warmdown complete"
	ReasonShooterInvalid = "shooter invalid"
	ReasonMountDestroyed = "mount destroyed"
	ReasonMountDisrupted = "mount disrupted"
	ReasonOutOfView      = "target out of view"
	ReasonOccluded       = "occluded by hull"
	ReasonNoEnergy       = "energy depleted"
	ReasonTargetLost     = "target lost"
)
