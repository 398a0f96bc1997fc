// pkg/core/events.go
package core

import (
	"time"
)

// BeamFiredEvent is recorded when a beam is created by a fire request.
type BeamFiredEvent struct {
	ID           uint          `json:"id"`
	Signature    uint64        `json:"signature"`
	Time         time.Time     `json:"time"`
	Frame        uint64        `json:"frame"`
	Weapon       string        `json:"weapon"`
	BeamType     BeamType      `json:"beamType"`
	Shooter      Handle        `json:"shooter"`
	Target       Handle        `json:"target"`
	Team         int           `json:"team"`
	Seed         uint64        `json:"seed"`
	Start        Vec3          `json:"start"`
	End          Vec3          `json:"end"`
	LifeTotal    time.Duration `json:"lifeTotal"`
	Targeting    bool          `json:"targeting"`
	SharedAim    bool          `json:"sharedAim"`
	AimDirection Vec3          `json:"aimDirection"`
}

// BeamStateEvent is recorded on every lifecycle transition.
type BeamStateEvent struct {
	ID        uint      `json:"id"`
	Signature uint64    `json:"signature"`
	Time      time.Time `json:"time"`
	Frame     uint64    `json:"frame"`
	From      BeamState `json:"from"`
	To        BeamState `json:"to"`
	Reason    string    `json:"reason"`
}

// BeamHitEvent is recorded for a fresh hit, i.e. one that applied an impulse
// after the previous cooldown for the same target elapsed.
type BeamHitEvent struct {
	ID        uint      `json:"id"`
	Signature uint64    `json:"signature"`
	Time      time.Time `json:"time"`
	Frame     uint64    `json:"frame"`
	Weapon    string    `json:"weapon"`
	Shooter   Handle    `json:"shooter"`
	Target    Handle    `json:"target"`
	Point     Vec3      `json:"point"`
	Distance  float64   `json:"distance"`
	Quadrant  int       `json:"quadrant"`
	Exit      bool      `json:"exit"`
	Tooled    bool      `json:"tooled"`
	Damage    float64   `json:"damage"`
	Impulse   float64   `json:"impulse"`
	EventText string    `json:"eventText"`
}

// FrameStats is a per-frame sample of the beam system.
type FrameStats struct {
	ID             uint      `json:"id"`
	Time           time.Time `json:"time"`
	Frame          uint64    `json:"frame"`
	ActiveBeams    int       `json:"activeBeams"`
	Firing         int       `json:"firing"`
	Collisions     int       `json:"collisions"`
	DamageApplied  float64   `json:"damageApplied"`
	Rejected       int       `json:"rejected"`
	FrameTimeMilli float32   `json:"frameTimeMs"`
}
