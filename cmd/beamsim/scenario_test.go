package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/beamcore/internal/cache"
	"github.com/OCAP2/beamcore/internal/world"
	"github.com/OCAP2/beamcore/pkg/core"
)

func TestRegisterWeapons(t *testing.T) {
	weapons := cache.NewWeaponCache()
	registerWeapons(weapons)

	assert.Equal(t, []string{"AAAf", "BGreen", "Ion Sweep", "LRed", "TAG-A"}, weapons.Names())
	for _, name := range weapons.Names() {
		w, _ := weapons.Get(name)
		assert.NoError(t, w.Validate(), name)
	}

	tag, _ := weapons.Get("TAG-A")
	assert.Equal(t, core.BeamTargeting, tag.Type)
}

func TestBuildScenario(t *testing.T) {
	w := world.New(worldCapacity)

	sc, err := buildScenario(w, 120, newRNG(7))
	require.NoError(t, err)

	assert.Len(t, sc.Ships, 4)
	assert.Equal(t, 4, w.Count())

	// two opening shots, one slash, one flak, three omni, one floating
	// beam and a targeting pulse every 20 frames from frame 10
	assert.Len(t, sc.Shots, 8+6)
	assert.Len(t, sc.shotsAt(1), 2)
	assert.Len(t, sc.shotsAt(90), 4)
	assert.Empty(t, sc.shotsAt(2))

	for _, s := range sc.shotsAt(90) {
		if s.Args[0] == "Ion Sweep" {
			assert.Equal(t, sc.shotsAt(90)[0].Args[5], s.Args[5], "omni burst shares its seed")
		}
	}
}

func TestBuildScenario_SkipsShotsPastEnd(t *testing.T) {
	sc, err := buildScenario(world.New(worldCapacity), 5, newRNG(1))
	require.NoError(t, err)

	for _, s := range sc.Shots {
		assert.LessOrEqual(t, s.Frame, uint64(5))
	}
	assert.Len(t, sc.Shots, 2)
}

func TestBuildScenario_Deterministic(t *testing.T) {
	a, err := buildScenario(world.New(worldCapacity), 200, newRNG(42))
	require.NoError(t, err)
	b, err := buildScenario(world.New(worldCapacity), 200, newRNG(42))
	require.NoError(t, err)

	assert.Equal(t, a.Shots, b.Shots)
}
