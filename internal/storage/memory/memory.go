// internal/storage/memory/memory.go
package memory

import (
	"errors"
	"sync"

	"github.com/OCAP2/beamcore/internal/beam"
	"github.com/OCAP2/beamcore/internal/config"
	"github.com/OCAP2/beamcore/pkg/core"
)

// ErrNoMission is returned when events arrive outside StartMission/EndMission.
var ErrNoMission = errors.New("no mission started")

// BeamRecord groups a fired beam with everything that happened to it.
type BeamRecord struct {
	Fired  core.BeamFiredEvent
	States []core.BeamStateEvent
	Hits   []core.BeamHitEvent
}

// Backend stores mission data in memory and exports to JSON
type Backend struct {
	cfg     config.MemoryConfig
	mission *core.Mission

	weapons map[string]beam.Weapon
	beams   map[uint64]*BeamRecord // keyed by signature
	order   []uint64

	// events for signatures never seen as fired, e.g. replicated mid-flight
	strayStates []core.BeamStateEvent
	strayHits   []core.BeamHitEvent
	frames      []core.FrameStats

	idCounter      uint
	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	b := &Backend{cfg: cfg}
	b.reset()
	return b
}

func (b *Backend) reset() {
	b.weapons = make(map[string]beam.Weapon)
	b.beams = make(map[uint64]*BeamRecord)
	b.order = nil
	b.strayStates = nil
	b.strayHits = nil
	b.frames = nil
	b.idCounter = 0
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartMission begins recording a new mission
func (b *Backend) StartMission(mission *core.Mission) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.mission = mission
	b.reset()
	return nil
}

// EndMission finalizes and exports the mission data
func (b *Backend) EndMission() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.mission == nil {
		return ErrNoMission
	}
	err := b.exportJSON()
	b.mission = nil
	return err
}

func (b *Backend) nextID() uint {
	b.idCounter++
	return b.idCounter
}

// RecordWeapon stores the first definition seen for a weapon name.
func (b *Backend) RecordWeapon(w *beam.Weapon) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.mission == nil {
		return ErrNoMission
	}
	if _, ok := b.weapons[w.Name]; !ok {
		b.weapons[w.Name] = *w
	}
	return nil
}

// RecordBeamFired opens a record for the beam.
func (b *Backend) RecordBeamFired(e *core.BeamFiredEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.mission == nil {
		return ErrNoMission
	}
	e.ID = b.nextID()
	if _, ok := b.beams[e.Signature]; !ok {
		b.order = append(b.order, e.Signature)
	}
	b.beams[e.Signature] = &BeamRecord{Fired: *e}
	return nil
}

// RecordBeamState appends a transition to its beam.
func (b *Backend) RecordBeamState(e *core.BeamStateEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.mission == nil {
		return ErrNoMission
	}
	e.ID = b.nextID()
	if rec, ok := b.beams[e.Signature]; ok {
		rec.States = append(rec.States, *e)
	} else {
		b.strayStates = append(b.strayStates, *e)
	}
	return nil
}

// RecordBeamHit appends a hit to its beam.
func (b *Backend) RecordBeamHit(e *core.BeamHitEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.mission == nil {
		return ErrNoMission
	}
	e.ID = b.nextID()
	if rec, ok := b.beams[e.Signature]; ok {
		rec.Hits = append(rec.Hits, *e)
	} else {
		b.strayHits = append(b.strayHits, *e)
	}
	return nil
}

// RecordFrameStats appends a statistics sample.
func (b *Backend) RecordFrameStats(s *core.FrameStats) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.mission == nil {
		return ErrNoMission
	}
	s.ID = b.nextID()
	b.frames = append(b.frames, *s)
	return nil
}

// Beam returns a copy of the record for a signature.
func (b *Backend) Beam(signature uint64) (BeamRecord, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rec, ok := b.beams[signature]
	if !ok {
		return BeamRecord{}, false
	}
	out := BeamRecord{Fired: rec.Fired}
	out.States = append(out.States, rec.States...)
	out.Hits = append(out.Hits, rec.Hits...)
	return out, true
}

// BeamCount returns the number of beams recorded so far.
func (b *Backend) BeamCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.beams)
}

// FrameCount returns the number of statistics samples recorded so far.
func (b *Backend) FrameCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.frames)
}

// ExportedFilePath returns the file written by the last EndMission.
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
