package world

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/beamcore/pkg/core"
)

func ship(pos core.Vec3, radius float64) Object {
	return Object{
		Class:  core.ClassShip,
		Pose:   core.Pose{Position: pos},
		Radius: radius,
		Hull:   1000,
		Mass:   10,
	}
}

func TestAdd_DefaultsOrientation(t *testing.T) {
	w := New(4)
	h, err := w.Add(ship(core.Vec3{}, 10))
	require.NoError(t, err)

	o, ok := w.Object(h)
	require.True(t, ok)
	assert.Equal(t, core.IdentityMatrix, o.Pose.Orient)
	assert.Equal(t, 1, w.Count())
}

func TestAdd_Full(t *testing.T) {
	w := New(1)
	_, err := w.Add(ship(core.Vec3{}, 1))
	require.NoError(t, err)
	_, err = w.Add(ship(core.Vec3{}, 1))
	assert.ErrorIs(t, err, ErrFull)
}

func TestRemove_HandleGoesStale(t *testing.T) {
	w := New(2)
	h, _ := w.Add(ship(core.Vec3{}, 1))
	require.True(t, w.Remove(h))

	_, ok := w.Body(h)
	assert.False(t, ok)
	assert.Empty(t, w.Candidates())
}

func TestRay_HitsSphereSurface(t *testing.T) {
	w := New(2)
	h, _ := w.Add(ship(core.Vec3{0, 0, 500}, 50))

	hit, ok := w.Ray(h, core.Vec3{}, core.Vec3{0, 0, 1000})
	require.True(t, ok)
	assert.InDelta(t, 450, hit.Point.Z(), 1e-9)

	_, ok = w.Ray(h, core.Vec3{100, 0, 0}, core.Vec3{100, 0, 1000})
	assert.False(t, ok)
}

func TestSweep_WidensContact(t *testing.T) {
	w := New(2)
	h, _ := w.Add(ship(core.Vec3{0, 0, 500}, 50))

	_, ok := w.Ray(h, core.Vec3{60, 0, 0}, core.Vec3{60, 0, 1000})
	assert.False(t, ok)
	hit, ok := w.Sweep(h, core.Vec3{60, 0, 0}, core.Vec3{60, 0, 1000}, 20)
	require.True(t, ok)
	assert.InDelta(t, 50, hit.Point.Dist(core.Vec3{0, 0, 500}), 1e-9)
}

func TestShieldRay_UsesScaledSphere(t *testing.T) {
	w := New(2)
	o := ship(core.Vec3{0, 0, 500}, 50)
	o.ShieldScale = 1.2
	h, _ := w.Add(o)

	hit, ok := w.ShieldRay(h, core.Vec3{}, core.Vec3{0, 0, 1000})
	require.True(t, ok)
	assert.InDelta(t, 440, hit.Point.Z(), 1e-9)
}

func TestQuadrant(t *testing.T) {
	w := New(2)
	h, _ := w.Add(ship(core.Vec3{}, 10))

	tests := []struct {
		name  string
		point core.Vec3
		want  int
	}{
		{"front", core.Vec3{0, 0, 10}, QuadrantFront},
		{"rear", core.Vec3{0, 0, -10}, QuadrantRear},
		{"right", core.Vec3{10, 0, 0}, QuadrantRight},
		{"left", core.Vec3{-10, 0, 0}, QuadrantLeft},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.Quadrant(h, tt.point))
		})
	}
	assert.Equal(t, core.NoQuadrant, w.Quadrant(core.NilHandle, core.Vec3{}))
}

func TestApplyDamage_ShieldsAbsorbFirst(t *testing.T) {
	w := New(2)
	o := ship(core.Vec3{}, 10)
	o.Hull = 100
	o.Shields[QuadrantFront] = 30
	h, _ := w.Add(o)

	w.ApplyDamage(h, core.NilHandle, core.Vec3{}, 50, QuadrantFront)

	got, _ := w.Object(h)
	assert.InDelta(t, 0, got.Shields[QuadrantFront], 1e-9)
	assert.InDelta(t, 80, got.Hull, 1e-9)
	assert.InDelta(t, 50, w.DamageTo(h), 1e-9)
	assert.False(t, got.Dying)

	w.ApplyDamage(h, core.NilHandle, core.Vec3{}, 200, core.NoQuadrant)
	assert.InDelta(t, 0, got.Hull, 1e-9)
	assert.True(t, got.Dying)
	assert.Len(t, w.DamageLog(), 2)
}

func TestApplyImpulse_ChangesVelocity(t *testing.T) {
	w := New(2)
	h, _ := w.Add(ship(core.Vec3{}, 10))

	w.ApplyImpulse(h, core.Vec3{}, core.Vec3{0, 0, 100})
	o, _ := w.Object(h)
	assert.InDelta(t, 10, o.Velocity.Z(), 1e-9)
	require.Len(t, w.ImpulseLog(), 1)

	w.Move(0.5)
	assert.InDelta(t, 5, o.Pose.Position.Z(), 1e-9)

	w.ResetLogs()
	assert.Empty(t, w.ImpulseLog())
}

func TestArmor(t *testing.T) {
	w := New(2)
	w.SetArmor("heavy", ArmorType{
		Factors:      map[int]float64{1: 0.5},
		ShieldPierce: map[int]float64{1: 1},
	})
	o := ship(core.Vec3{}, 10)
	o.Armor = "heavy"
	h, _ := w.Add(o)
	plain, _ := w.Add(ship(core.Vec3{100, 0, 0}, 10))

	assert.InDelta(t, 0.5, w.ArmorFactor(h, 1), 1e-9)
	assert.InDelta(t, 1, w.ArmorFactor(h, 2), 1e-9)
	assert.InDelta(t, 1, w.ShieldPierce(h, 1), 1e-9)
	assert.InDelta(t, 1, w.ArmorFactor(plain, 1), 1e-9)
	assert.InDelta(t, 0, w.ShieldPierce(plain, 1), 1e-9)
}

func TestEnergy_DrainClampsAtZero(t *testing.T) {
	w := New(2)
	o := ship(core.Vec3{}, 10)
	o.Energy = 3
	h, _ := w.Add(o)

	assert.InDelta(t, 1, w.DrainEnergy(h, 2), 1e-9)
	assert.InDelta(t, 0, w.DrainEnergy(h, 5), 1e-9)
	assert.InDelta(t, 0, w.Energy(h), 1e-9)
}

func TestSubsystemPoint_FollowsOrientation(t *testing.T) {
	w := New(2)
	o := ship(core.Vec3{10, 0, 0}, 5)
	o.Pose.Orient = core.MatrixFromForward(core.Vec3{1, 0, 0}, core.Vec3{0, 1, 0})
	o.Subsystems = []core.Vec3{{0, 0, 2}}
	h, _ := w.Add(o)

	p, ok := w.SubsystemPoint(h, 0)
	require.True(t, ok)
	assert.InDelta(t, 12, p.X(), 1e-9)

	_, ok = w.SubsystemPoint(h, 1)
	assert.False(t, ok)
}

func TestOccluded(t *testing.T) {
	w := New(2)
	h, _ := w.Add(ship(core.Vec3{}, 10))
	front := core.Vec3{0, 0, 10}

	assert.False(t, w.Occluded(h, front, core.Vec3{0, 0, 500}))
	assert.True(t, w.Occluded(h, front, core.Vec3{0, 0, -500}))
}

func TestRandomPoint_OnSurface(t *testing.T) {
	w := New(2)
	h, _ := w.Add(ship(core.Vec3{0, 3, 0}, 7))
	rng := rand.New(rand.NewPCG(1, 2))
	for range 20 {
		p := w.RandomPoint(h, rng)
		assert.InDelta(t, 7, p.Dist(core.Vec3{0, 3, 0}), 1e-9)
	}
}
