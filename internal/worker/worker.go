package worker

import (
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/OCAP2/beamcore/internal/beam"
	"github.com/OCAP2/beamcore/internal/cache"
	"github.com/OCAP2/beamcore/internal/dispatcher"
	"github.com/OCAP2/beamcore/internal/mission"
	"github.com/OCAP2/beamcore/internal/parser"
	"github.com/OCAP2/beamcore/internal/storage"
	"github.com/OCAP2/beamcore/pkg/core"
)

// ErrUnexpectedPayload is returned when an event carries the wrong payload type
var ErrUnexpectedPayload = fmt.Errorf("unexpected payload")

// Firer launches a parsed fire request. It runs on the caller's goroutine, so
// fire commands must be dispatched from the simulation thread.
type Firer func(req parser.ParsedFireRequest) (core.Handle, error)

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	Weapons        *cache.WeaponCache
	MissionContext *mission.Context
	ParserService  parser.Service
	Fire           Firer
	Logger         *slog.Logger
}

// Manager routes beam events from the simulation to the storage backend
type Manager struct {
	deps    Dependencies
	backend storage.Backend

	mu         sync.RWMutex
	dispatcher *dispatcher.Dispatcher

	unknownWeapons cache.SafeCounter
	dropped        cache.SafeCounter
}

var _ beam.EventSink = (*Manager)(nil)

// NewManager creates a new worker manager
func NewManager(deps Dependencies, backend storage.Backend) *Manager {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.MissionContext == nil {
		deps.MissionContext = mission.NewContext()
	}
	if deps.Weapons == nil {
		deps.Weapons = cache.NewWeaponCache()
	}
	return &Manager{
		deps:    deps,
		backend: backend,
	}
}

// StartMission starts recording a mission. Called before the first frame.
func (m *Manager) StartMission(ms *core.Mission) error {
	if err := m.backend.StartMission(ms); err != nil {
		return fmt.Errorf("failed to start mission: %w", err)
	}
	m.deps.MissionContext.SetMission(ms)
	m.deps.Logger.Info("Mission started", "missionName", ms.MissionName, "missionID", ms.ID)
	return nil
}

// EndMission ends the recording. The dispatcher should be closed first so
// buffered events reach the backend.
func (m *Manager) EndMission() error {
	ms := m.deps.MissionContext.GetMission()
	if err := m.backend.EndMission(); err != nil {
		return fmt.Errorf("failed to end mission: %w", err)
	}
	m.deps.MissionContext.Clear()
	m.deps.Logger.Info("Mission ended",
		"missionName", ms.MissionName,
		"unknownWeapons", m.unknownWeapons.Value(),
		"droppedEvents", m.dropped.Value())
	return nil
}

// DroppedEvents returns the number of events the dispatcher refused.
func (m *Manager) DroppedEvents() int {
	return m.dropped.Value()
}

// DBWriteDurationProvider is an optional interface that backends can implement
// to expose their last DB write duration for monitoring.
type DBWriteDurationProvider interface {
	GetLastDBWriteDuration() time.Duration
}

// GetLastDBWriteDuration returns the duration of the last DB write cycle.
// Returns 0 if the backend doesn't support this metric.
func (m *Manager) GetLastDBWriteDuration() time.Duration {
	if p, ok := m.backend.(DBWriteDurationProvider); ok {
		return p.GetLastDBWriteDuration()
	}
	return 0
}

// QueueLengthsProvider is implemented by backends with pending write queues.
type QueueLengthsProvider interface {
	QueueLengths() map[string]int
}

// GetQueueLengths returns pending rows per backend queue plus events waiting in
// the dispatcher's buffered handlers, or nil when neither reports anything.
func (m *Manager) GetQueueLengths() map[string]int {
	var out map[string]int
	if p, ok := m.backend.(QueueLengthsProvider); ok {
		out = maps.Clone(p.QueueLengths())
	}

	m.mu.RLock()
	d := m.dispatcher
	m.mu.RUnlock()
	if d == nil {
		return out
	}
	for cmd, n := range d.Pending() {
		if out == nil {
			out = make(map[string]int)
		}
		out["dispatch "+cmd] = n
	}
	return out
}
