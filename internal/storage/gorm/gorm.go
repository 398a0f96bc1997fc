// Package gormstorage implements storage.Backend on any GORM database with
// internal queues and a background writer goroutine. The sqlite and postgres
// backends embed it and only add connection and dump handling.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/OCAP2/beamcore/internal/beam"
	"github.com/OCAP2/beamcore/internal/model"
	"github.com/OCAP2/beamcore/internal/model/convert"
	"github.com/OCAP2/beamcore/internal/queue"
	"github.com/OCAP2/beamcore/pkg/core"

	"gorm.io/gorm"
)

// DefaultFlushInterval is how often queued rows are written.
const DefaultFlushInterval = 2 * time.Second

// ErrNoMission is returned when beam events arrive before StartMission.
var ErrNoMission = errors.New("no mission started")

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	Logger        *slog.Logger
	FlushInterval time.Duration
}

// queues holds all the write queues for batch DB insertion.
type queues struct {
	Fired  *queue.Queue[model.BeamFired]
	States *queue.Queue[model.BeamState]
	Hits   *queue.Queue[model.BeamHit]
	Frames *queue.Queue[model.FrameStat]
}

func newQueues() *queues {
	return &queues{
		Fired:  queue.New[model.BeamFired](),
		States: queue.New[model.BeamState](),
		Hits:   queue.New[model.BeamHit](),
		Frames: queue.New[model.FrameStat](),
	}
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps      Dependencies
	queues    *queues
	missionID atomic.Uint64
	lastWrite atomic.Int64

	weaponsMu sync.Mutex
	weapons   map[string]bool

	writeMu  sync.Mutex
	stopChan chan struct{}
	done     chan struct{}
}

// New creates a new GORM storage backend. A nil DB keeps rows queued, which
// tests use to inspect what would be written.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = DefaultFlushInterval
	}
	return &Backend{
		deps:    deps,
		queues:  newQueues(),
		weapons: make(map[string]bool),
	}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init starts the DB writer goroutine.
func (b *Backend) Init() error {
	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	if b.deps.DB == nil {
		close(b.done)
		return nil
	}
	go b.writerLoop()
	return nil
}

// Close stops the writer and writes whatever is still queued.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	close(b.stopChan)
	<-b.done
	b.stopChan = nil
	return b.Flush()
}

// StartMission inserts the mission row synchronously so events can reference it.
func (b *Backend) StartMission(m *core.Mission) error {
	b.weaponsMu.Lock()
	b.weapons = make(map[string]bool)
	b.weaponsMu.Unlock()

	if b.deps.DB == nil {
		b.missionID.Add(1)
		m.ID = uint(b.missionID.Load())
		return nil
	}

	row := convert.CoreToMission(*m)
	row.ID = 0
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert new mission: %w", err)
	}
	m.ID = row.ID
	b.missionID.Store(uint64(row.ID))
	return nil
}

// EndMission writes everything queued so far.
func (b *Backend) EndMission() error {
	return b.Flush()
}

// SetMissionID sets the mission rows are stamped with, for replaying into an existing mission.
func (b *Backend) SetMissionID(id uint) {
	b.missionID.Store(uint64(id))
}

func (b *Backend) mission() (uint, error) {
	id := uint(b.missionID.Load())
	if id == 0 {
		return 0, ErrNoMission
	}
	return id, nil
}

// RecordWeapon stores a registry snapshot once per weapon name per mission.
func (b *Backend) RecordWeapon(w *beam.Weapon) error {
	missionID, err := b.mission()
	if err != nil {
		return err
	}

	b.weaponsMu.Lock()
	defer b.weaponsMu.Unlock()
	if b.weapons[w.Name] {
		return nil
	}

	if b.deps.DB != nil {
		row := convert.WeaponToModel(w, missionID)
		err := b.deps.DB.
			Where(model.Weapon{MissionID: missionID, Name: w.Name}).
			FirstOrCreate(&row).Error
		if err != nil {
			return fmt.Errorf("failed to insert weapon %s: %w", w.Name, err)
		}
	}
	b.weapons[w.Name] = true
	return nil
}

// RecordBeamFired converts and queues a fired beam.
func (b *Backend) RecordBeamFired(e *core.BeamFiredEvent) error {
	missionID, err := b.mission()
	if err != nil {
		return err
	}
	b.queues.Fired.Push(convert.CoreToBeamFired(*e, missionID))
	return nil
}

// RecordBeamState converts and queues a transition.
func (b *Backend) RecordBeamState(e *core.BeamStateEvent) error {
	missionID, err := b.mission()
	if err != nil {
		return err
	}
	b.queues.States.Push(convert.CoreToBeamState(*e, missionID))
	return nil
}

// RecordBeamHit converts and queues a hit.
func (b *Backend) RecordBeamHit(e *core.BeamHitEvent) error {
	missionID, err := b.mission()
	if err != nil {
		return err
	}
	b.queues.Hits.Push(convert.CoreToBeamHit(*e, missionID))
	return nil
}

// RecordFrameStats converts and queues a statistics sample.
func (b *Backend) RecordFrameStats(s *core.FrameStats) error {
	missionID, err := b.mission()
	if err != nil {
		return err
	}
	b.queues.Frames.Push(convert.CoreToFrameStat(*s, missionID))
	return nil
}

// QueueLengths reports rows waiting to be written.
func (b *Backend) QueueLengths() map[string]int {
	return map[string]int{
		"fired":  b.queues.Fired.Len(),
		"states": b.queues.States.Len(),
		"hits":   b.queues.Hits.Len(),
		"frames": b.queues.Frames.Len(),
	}
}

// GetLastDBWriteDuration returns the duration of the last write cycle.
func (b *Backend) GetLastDBWriteDuration() time.Duration {
	return time.Duration(b.lastWrite.Load())
}

// Flush writes every queue in one pass. Rows that fail are requeued and the
// first error is returned.
func (b *Backend) Flush() error {
	if b.deps.DB == nil {
		return nil
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	start := time.Now()
	errs := []error{
		writeQueue(b.deps.DB, b.queues.Fired, "beam fired"),
		writeQueue(b.deps.DB, b.queues.States, "beam states"),
		writeQueue(b.deps.DB, b.queues.Hits, "beam hits"),
		writeQueue(b.deps.DB, b.queues.Frames, "frame stats"),
	}
	b.lastWrite.Store(int64(time.Since(start)))

	err := errors.Join(errs...)
	if err != nil {
		b.deps.Logger.Error("DB write failed", "error", err)
	}
	return err
}

// writeQueue writes all items from a queue to the database in a transaction.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string) error {
	if q.Empty() {
		return nil
	}

	items := q.GetAndEmpty()
	tx := db.Begin()
	if err := tx.Create(&items).Error; err != nil {
		tx.Rollback()
		q.Push(items...)
		return fmt.Errorf("error creating %s: %w", name, err)
	}
	return tx.Commit().Error
}

func (b *Backend) writerLoop() {
	defer close(b.done)

	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			_ = b.Flush()
		}
	}
}
