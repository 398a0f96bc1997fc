package main

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/OCAP2/beamcore/internal/beam"
	"github.com/OCAP2/beamcore/internal/cache"
	"github.com/OCAP2/beamcore/internal/world"
	"github.com/OCAP2/beamcore/pkg/core"
)

// shot is a scripted fire command issued at the start of a frame.
type shot struct {
	Frame uint64
	Args  []string
}

// scenario is the engagement the simulator plays out.
type scenario struct {
	Ships map[string]core.Handle
	Shots []shot
}

// registerWeapons fills the weapon registry with the stock beams.
func registerWeapons(weapons *cache.WeaponCache) {
	skill := [beam.NumSkillLevels]float64{1.6, 1.3, 1.0, 0.8, 0.6}

	weapons.Add(&beam.Weapon{
		Name:                 "LRed",
		Type:                 core.BeamDirectFire,
		Damage:               60,
		Range:                2200,
		AttenuationThreshold: 0.8,
		Mass:                 40,
		Width:                6,
		Warmup:               400 * time.Millisecond,
		Warmdown:             300 * time.Millisecond,
		Life:                 3 * time.Second,
		MissFactor:           skill,
		ShrinkFactor:         0.2,
		ShrinkRate:           0.3,
		GrowFactor:           0.2,
		GrowRate:             0.3,
		Tokens:               map[string]string{"sound": "beam_lred", "glow": "lred_glow"},
	})
	weapons.Add(&beam.Weapon{
		Name:     "BGreen",
		Type:     core.BeamSlashing,
		Damage:   35,
		Range:    1800,
		Mass:     20,
		Width:    10,
		Warmup:   300 * time.Millisecond,
		Warmdown: 200 * time.Millisecond,
		Life:     2 * time.Second,
		Tokens:   map[string]string{"sound": "beam_bgreen"},
	})
	weapons.Add(&beam.Weapon{
		Name:         "AAAf",
		Type:         core.BeamAntiFighter,
		Damage:       18,
		Range:        1400,
		Width:        2,
		Warmup:       100 * time.Millisecond,
		Warmdown:     100 * time.Millisecond,
		Life:         1200 * time.Millisecond,
		MissFactor:   skill,
		ShotCount:    4,
		MissGrowth:   1.2,
		FireFraction: 0.5,
	})
	weapons.Add(&beam.Weapon{
		Name:            "TAG-A",
		Type:            core.BeamTargeting,
		Damage:          2,
		Range:           1000,
		Width:           1,
		EnergyPerSecond: 4,
	})
	weapons.Add(&beam.Weapon{
		Name:     "Ion Sweep",
		Type:     core.BeamOmni,
		Damage:   25,
		Range:    2500,
		Width:    4,
		Warmup:   200 * time.Millisecond,
		Warmdown: 200 * time.Millisecond,
		Life:     1500 * time.Millisecond,
		Omni: &beam.OmniConfig{
			Start:                 beam.PointSpec{Placement: beam.PlaceCenter},
			End:                   beam.PointSpec{Placement: beam.PlaceRandomInside},
			ContinuousRotation:    1.2,
			Axis:                  beam.AxisTargetCenter,
			PerShotRotation:       0.5,
			PerShotRotationRandom: true,
		},
	})
}

// buildScenario populates the world with two opposing groups and scripts
// their fire over the run.
func buildScenario(w *world.World, frames uint64, rng *rand.Rand) (*scenario, error) {
	sc := &scenario{Ships: make(map[string]core.Handle)}

	facingEnemy := core.MatrixFromForward(core.Vec3{0, 0, -1}, core.Vec3{0, 1, 0})
	shields := [world.NumQuadrants]float64{400, 300, 300, 200}

	objects := []world.Object{
		{
			Name:    "GTD Orion",
			Class:   core.ClassShip,
			Pose:    core.Pose{Position: core.Vec3{}},
			Mass:    50000,
			Radius:  200,
			Team:    1,
			Hull:    9000,
			Shields: shields,
			Mounts: []beam.Mount{
				{Offset: core.Vec3{-40, 0, 150}, Normal: core.Vec3{0, 0, 1}},
				{Offset: core.Vec3{40, 0, 150}, Normal: core.Vec3{0, 0, 1}},
				{Offset: core.Vec3{0, 60, 100}, Normal: core.Vec3{0, 0, 1}},
			},
		},
		{
			Name:     "Alpha 1",
			Class:    core.ClassShip,
			Pose:     core.Pose{Position: core.Vec3{120, 40, 400}},
			Velocity: core.Vec3{0, 0, 40},
			Mass:     50,
			Radius:   8,
			Team:     1,
			Hull:     200,
			Energy:   40,
			Mounts:   []beam.Mount{{Normal: core.Vec3{0, 0, 1}, Fighter: true}},
		},
		{
			Name:    "SD Ravana",
			Class:   core.ClassShip,
			Pose:    core.Pose{Position: core.Vec3{0, 0, 1600}, Orient: facingEnemy},
			Mass:    60000,
			Radius:  250,
			Team:    2,
			Hull:    11000,
			Shields: shields,
			Mounts: []beam.Mount{
				{Offset: core.Vec3{-60, 0, 180}, Normal: core.Vec3{0, 0, 1}},
				{Offset: core.Vec3{0, 80, 150}, Normal: core.Vec3{0, 0, 1}},
			},
		},
		{
			Name:     "Kappa 1",
			Class:    core.ClassShip,
			Pose:     core.Pose{Position: core.Vec3{-150, 0, 900}},
			Velocity: core.Vec3{0, 0, -35},
			Mass:     45,
			Radius:   7,
			Team:     2,
			Hull:     180,
		},
	}

	for _, o := range objects {
		h, err := w.Add(o)
		if err != nil {
			return nil, fmt.Errorf("adding %s: %w", o.Name, err)
		}
		sc.Ships[o.Name] = h
	}

	orion, alpha := sc.Ships["GTD Orion"], sc.Ships["Alpha 1"]
	ravana, kappa := sc.Ships["SD Ravana"], sc.Ships["Kappa 1"]

	fire := func(frame uint64, weapon string, shooter core.Handle, mount int, target core.Handle, team int, burst uint64, burstShot int, opts map[string]any) error {
		if frame > frames {
			return nil
		}
		args := []string{
			weapon,
			shooter.String(),
			strconv.Itoa(mount),
			target.String(),
			strconv.FormatUint(rng.Uint64(), 10),
			strconv.FormatUint(burst, 10),
			strconv.Itoa(burstShot),
			strconv.Itoa(team),
			"1",
		}
		if opts != nil {
			raw, err := json.Marshal(opts)
			if err != nil {
				return err
			}
			args = append(args, string(raw))
		}
		sc.Shots = append(sc.Shots, shot{Frame: frame, Args: args})
		return nil
	}

	steps := []func() error{
		func() error { return fire(1, "LRed", orion, 0, ravana, 1, 0, 0, nil) },
		func() error { return fire(1, "LRed", ravana, 0, orion, 2, 0, 0, nil) },
		func() error { return fire(30, "BGreen", orion, 1, ravana, 1, 0, 0, nil) },
		func() error { return fire(60, "AAAf", ravana, 1, alpha, 2, 0, 0, nil) },
		func() error {
			burst := rng.Uint64()
			for i := range 3 {
				if err := fire(90, "Ion Sweep", orion, 2, ravana, 1, burst, i, nil); err != nil {
					return err
				}
			}
			return nil
		},
		func() error {
			start := core.Vec3{600, 0, 800}
			end := core.Vec3{-600, 0, 900}
			return fire(120, "LRed", core.NilHandle, 0, core.NilHandle, 1, 0, 0, map[string]any{
				"startPoint":  start,
				"targetPoint": end,
			})
		},
	}
	for f := uint64(10); f <= frames; f += 20 {
		steps = append(steps, func() error { return fire(f, "TAG-A", alpha, 0, kappa, 1, 0, 0, nil) })
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return sc, nil
}

// shotsAt returns the scripted shots for a frame.
func (sc *scenario) shotsAt(frame uint64) []shot {
	var out []shot
	for _, s := range sc.Shots {
		if s.Frame == frame {
			out = append(out, s)
		}
	}
	return out
}
