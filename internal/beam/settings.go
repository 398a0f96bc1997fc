package beam

import "time"

// Default tuning values.
const (
	DefaultMaxBeams           = 500
	DefaultMaxFrameCollisions = 10
	DefaultMaxShots           = 5
	DefaultDamageTime         = 170 * time.Millisecond
	DefaultToolingTime        = 1500 * time.Millisecond
	DefaultAreaPercent        = 0.4
	DefaultSkillLevel         = 2
)

// WhackSettings controls the impulse applied to struck bodies.
type WhackSettings struct {
	Small           float64
	Big             float64
	DamageThreshold float64
	// LegacyMass selects the fixed small/big rule instead of the weapon mass.
	LegacyMass float64
}

// Settings are the system-wide tuning values.
type Settings struct {
	MaxBeams           int
	MaxFrameCollisions int
	MaxShots           int

	// DamageTime is the window a weapon's nominal damage is expressed over.
	DamageTime time.Duration
	// ToolingTime is how far ahead a beam's damage is projected when deciding
	// whether it will cut through a target.
	ToolingTime time.Duration
	// AreaPercent is the fraction of a target's radius the beam width must reach
	// for the thick sweep test to be used.
	AreaPercent float64

	SkillLevel  int
	FriendlyCap []float64

	// NonAuthoritative systems replay geometry and collisions for effects only;
	// the zero value applies damage, impulse and energy drain.
	NonAuthoritative bool

	Whack WhackSettings
}

// DefaultSettings returns the stock tuning.
func DefaultSettings() Settings {
	return Settings{
		MaxBeams:           DefaultMaxBeams,
		MaxFrameCollisions: DefaultMaxFrameCollisions,
		MaxShots:           DefaultMaxShots,
		DamageTime:         DefaultDamageTime,
		ToolingTime:        DefaultToolingTime,
		AreaPercent:        DefaultAreaPercent,
		SkillLevel:         DefaultSkillLevel,
		FriendlyCap:        []float64{0, 5, 10, 20, 30},
		Whack: WhackSettings{
			Small:           2000,
			Big:             10000,
			DamageThreshold: 150,
			LegacyMass:      100,
		},
	}
}

// normalize fills zero values with defaults.
func (s Settings) normalize() Settings {
	d := DefaultSettings()
	if s.MaxBeams <= 0 {
		s.MaxBeams = d.MaxBeams
	}
	if s.MaxFrameCollisions <= 0 {
		s.MaxFrameCollisions = d.MaxFrameCollisions
	}
	if s.MaxShots <= 0 {
		s.MaxShots = d.MaxShots
	}
	if s.DamageTime <= 0 {
		s.DamageTime = d.DamageTime
	}
	if s.ToolingTime <= 0 {
		s.ToolingTime = d.ToolingTime
	}
	if s.AreaPercent <= 0 {
		s.AreaPercent = d.AreaPercent
	}
	if s.FriendlyCap == nil {
		s.FriendlyCap = d.FriendlyCap
	}
	if s.Whack == (WhackSettings{}) {
		s.Whack = d.Whack
	}
	return s
}

// Authoritative reports whether this side owns gameplay outcomes.
func (s Settings) Authoritative() bool { return !s.NonAuthoritative }

func (s Settings) friendlyCap() (float64, bool) {
	if s.SkillLevel < 0 || s.SkillLevel >= len(s.FriendlyCap) {
		return 0, false
	}
	return s.FriendlyCap[s.SkillLevel], true
}
