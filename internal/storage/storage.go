// internal/storage/storage.go
package storage

import (
	"github.com/OCAP2/beamcore/internal/beam"
	"github.com/OCAP2/beamcore/pkg/core"
)

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Mission management
	StartMission(mission *core.Mission) error
	EndMission() error

	// Registry snapshot, once per weapon per mission
	RecordWeapon(w *beam.Weapon) error

	// Beam lifecycle
	RecordBeamFired(e *core.BeamFiredEvent) error
	RecordBeamState(e *core.BeamStateEvent) error
	RecordBeamHit(e *core.BeamHitEvent) error

	// Sampled statistics
	RecordFrameStats(s *core.FrameStats) error
}

// Exportable is implemented by backends that write a session file on EndMission.
type Exportable interface {
	ExportedFilePath() string
}
