package mission

import (
	"sync"

	"github.com/OCAP2/beamcore/pkg/core"
)

// Context holds the mission currently being recorded
type Context struct {
	mu      sync.RWMutex
	Mission *core.Mission
	loaded  bool
}

// NewContext creates a new Context with default values
func NewContext() *Context {
	return &Context{
		Mission: &core.Mission{MissionName: "No mission loaded"},
	}
}

// GetMission returns the current mission
func (mc *Context) GetMission() *core.Mission {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.Mission
}

// Loaded reports whether a mission has been started since creation or the last Clear.
func (mc *Context) Loaded() bool {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.loaded
}

// SetMission sets the current mission
func (mc *Context) SetMission(mission *core.Mission) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.Mission = mission
	mc.loaded = mission != nil
	if mission == nil {
		mc.Mission = &core.Mission{MissionName: "No mission loaded"}
	}
}

// Clear resets the context once a mission ends
func (mc *Context) Clear() {
	mc.SetMission(nil)
}
