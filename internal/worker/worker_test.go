package worker

import (
	"testing"
	"time"

	"github.com/OCAP2/beamcore/internal/mission"
	"github.com/OCAP2/beamcore/pkg/core"
)

func TestNewManager(t *testing.T) {
	m := NewManager(Dependencies{}, &mockBackend{})

	if m.deps.Logger == nil {
		t.Error("expected default logger")
	}
	if m.deps.Weapons == nil {
		t.Error("expected default weapon cache")
	}
	if m.deps.MissionContext == nil {
		t.Error("expected default mission context")
	}
}

func TestManager_MissionLifecycle(t *testing.T) {
	ctx := mission.NewContext()
	backend := &mockBackend{}
	m := NewManager(Dependencies{MissionContext: ctx}, backend)

	if err := m.StartMission(&core.Mission{MissionName: "Convoy"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ctx.Loaded() || ctx.GetMission().ID != 1 {
		t.Errorf("expected mission context to hold started mission, got %+v", ctx.GetMission())
	}

	if err := m.EndMission(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !backend.ended {
		t.Error("expected backend EndMission to be called")
	}
	if ctx.Loaded() {
		t.Error("expected mission context to be cleared")
	}
}

func TestGetLastDBWriteDuration(t *testing.T) {
	m := NewManager(Dependencies{}, &mockBackend{lastWrite: 42 * time.Millisecond})

	if got := m.GetLastDBWriteDuration(); got != 42*time.Millisecond {
		t.Errorf("expected 42ms, got %v", got)
	}
}

func TestGetQueueLengths_Unsupported(t *testing.T) {
	m := NewManager(Dependencies{}, &mockBackend{})

	if got := m.GetQueueLengths(); got != nil {
		t.Errorf("expected nil queue lengths, got %v", got)
	}
}

func TestGetQueueLengths_IncludesDispatcherBacklog(t *testing.T) {
	m, _, d := newTestManager(t)
	defer d.Close()

	got := m.GetQueueLengths()
	for _, cmd := range []string{CmdBeamState, CmdBeamHit, CmdBeamRemoved, CmdEnergyDepleted, CmdFrameStats} {
		if _, ok := got["dispatch "+cmd]; !ok {
			t.Errorf("expected backlog entry for %s, got %v", cmd, got)
		}
	}
	if _, ok := got["dispatch "+CmdFire]; ok {
		t.Errorf("sync command %s should not report a backlog", CmdFire)
	}
}
