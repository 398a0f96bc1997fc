package mission

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/OCAP2/beamcore/pkg/core"
)

func TestContext_Defaults(t *testing.T) {
	ctx := NewContext()

	m := ctx.GetMission()
	assert.Equal(t, "No mission loaded", m.MissionName)
	assert.False(t, ctx.Loaded())
}

func TestContext_SetAndClear(t *testing.T) {
	ctx := NewContext()

	ctx.SetMission(&core.Mission{MissionName: "Convoy", SkillLevel: 3})
	assert.True(t, ctx.Loaded())
	assert.Equal(t, "Convoy", ctx.GetMission().MissionName)
	assert.Equal(t, 3, ctx.GetMission().SkillLevel)

	ctx.Clear()
	assert.False(t, ctx.Loaded())
	assert.Equal(t, "No mission loaded", ctx.GetMission().MissionName)
}

func TestContext_ThreadSafe(t *testing.T) {
	ctx := NewContext()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			ctx.SetMission(&core.Mission{MissionName: "Convoy"})
		}()
		go func() {
			defer wg.Done()
			assert.NotNil(t, ctx.GetMission())
		}()
	}
	wg.Wait()
	assert.True(t, ctx.Loaded())
}
