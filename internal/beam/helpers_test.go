package beam_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/OCAP2/beamcore/internal/beam"
	"github.com/OCAP2/beamcore/internal/world"
	"github.com/OCAP2/beamcore/pkg/core"
)

const frameDelta = 20 * time.Millisecond

type recorder struct {
	fired    []core.BeamFiredEvent
	states   []core.BeamStateEvent
	hits     []core.BeamHitEvent
	removed  []core.BeamStateEvent
	depleted []core.BeamStateEvent
}

func (r *recorder) BeamFired(e core.BeamFiredEvent)        { r.fired = append(r.fired, e) }
func (r *recorder) BeamStateChanged(e core.BeamStateEvent) { r.states = append(r.states, e) }
func (r *recorder) BeamHit(e core.BeamHitEvent)            { r.hits = append(r.hits, e) }
func (r *recorder) BeamRemoved(e core.BeamStateEvent)      { r.removed = append(r.removed, e) }
func (r *recorder) EnergyDepleted(e core.BeamStateEvent)   { r.depleted = append(r.depleted, e) }

type fixture struct {
	w      *world.World
	sys    *beam.System
	sink   *recorder
	frame  uint64
	weapon *beam.Weapon
}

func newFixture(t *testing.T, settings beam.Settings) *fixture {
	t.Helper()
	sink := &recorder{}
	sys, err := beam.NewSystem(settings, beam.WithSink(sink))
	require.NoError(t, err)
	return &fixture{
		w:      world.New(64),
		sys:    sys,
		sink:   sink,
		weapon: directWeapon(),
	}
}

func directWeapon() *beam.Weapon {
	return &beam.Weapon{
		Name:     "LRed",
		Type:     core.BeamDirectFire,
		Damage:   50,
		Range:    2000,
		Width:    5,
		Mass:     40,
		Warmdown: 40 * time.Millisecond,
		Life:     time.Second,
	}
}

// addShooter places a team 1 ship facing +Z with a mount per offset.
func (f *fixture) addShooter(t *testing.T, pos core.Vec3, offsets ...core.Vec3) core.Handle {
	t.Helper()
	if len(offsets) == 0 {
		offsets = []core.Vec3{{}}
	}
	o := world.Object{
		Name:   "shooter",
		Class:  core.ClassShip,
		Pose:   core.Pose{Position: pos},
		Radius: 10,
		Team:   1,
		Hull:   1000,
		Mass:   100,
	}
	for _, off := range offsets {
		o.Mounts = append(o.Mounts, beam.Mount{Offset: off, Normal: core.Vec3{0, 0, 1}})
	}
	h, err := f.w.Add(o)
	require.NoError(t, err)
	return h
}

// addTarget places a team 2 ship.
func (f *fixture) addTarget(t *testing.T, pos core.Vec3, radius float64) core.Handle {
	t.Helper()
	h, err := f.w.Add(world.Object{
		Name:   "target",
		Class:  core.ClassShip,
		Pose:   core.Pose{Position: pos},
		Radius: radius,
		Team:   2,
		Hull:   1000,
		Mass:   100,
	})
	require.NoError(t, err)
	return h
}

func (f *fixture) fire(t *testing.T, shooter, target core.Handle) core.Handle {
	t.Helper()
	h, err := f.sys.Fire(f.w, beam.FireRequest{
		Weapon:   f.weapon,
		Shooter:  shooter,
		Target:   target,
		Team:     1,
		Accuracy: 1,
	})
	require.NoError(t, err)
	return h
}

func (f *fixture) step(delta time.Duration) {
	f.frame++
	f.sys.Step(f.w, beam.Frame{Number: f.frame, Delta: delta})
}

func (f *fixture) stepPaused() {
	f.frame++
	f.sys.Step(f.w, beam.Frame{Number: f.frame, Paused: true})
}

func (f *fixture) snapshot(t *testing.T, h core.Handle) beam.Snapshot {
	t.Helper()
	snap, ok := f.sys.Snapshot(h)
	require.True(t, ok, "beam %s should be live", h)
	return snap
}
