package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/OCAP2/beamcore/internal/mission"
	"github.com/OCAP2/beamcore/pkg/core"
)

// StatsSource is the beam system being sampled.
type StatsSource interface {
	Stats() core.FrameStats
}

// StatsRecorder stores samples, normally the worker manager.
type StatsRecorder interface {
	RecordFrameStats(s core.FrameStats)
}

// PointWriter writes samples to a time series store.
type PointWriter interface {
	WriteFrameStats(s core.FrameStats, missionName string) error
}

// WriterStatus exposes recording backlog for the status file.
type WriterStatus interface {
	GetLastDBWriteDuration() time.Duration
	GetQueueLengths() map[string]int
	DroppedEvents() int
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Source         StatsSource
	Recorder       StatsRecorder
	Points         PointWriter
	Writer         WriterStatus
	MissionContext *mission.Context
	Logger         *slog.Logger
	// Every is the sampling period in frames; zero disables sampling.
	Every uint64
	// StatusPath is rewritten by the status goroutine; empty disables it.
	StatusPath     string
	StatusInterval time.Duration
}

// Status is the snapshot written to the status file.
type Status struct {
	Time                time.Time       `json:"time"`
	Mission             string          `json:"mission"`
	Samples             int             `json:"samples"`
	LastSample          core.FrameStats `json:"lastSample"`
	WriteQueueLengths   map[string]int  `json:"writeQueueLengths,omitempty"`
	LastWriteDurationMs float32         `json:"lastWriteDurationMs"`
	DroppedEvents       int             `json:"droppedEvents"`
}

// Service samples beam statistics and reports recorder health
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}

	samples int
	last    core.FrameStats
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.MissionContext == nil {
		deps.MissionContext = mission.NewContext()
	}
	if deps.StatusInterval <= 0 {
		deps.StatusInterval = time.Second
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// OnFrame samples the source when frame falls on the sampling period. It is
// called from the simulation thread after each step.
func (s *Service) OnFrame(frame uint64) {
	if s.deps.Every == 0 || s.deps.Source == nil || frame%s.deps.Every != 0 {
		return
	}
	s.Sample()
}

// Sample takes a statistics sample now and forwards it to the recorder and
// the time series store.
func (s *Service) Sample() core.FrameStats {
	stats := s.deps.Source.Stats()
	if stats.Time.IsZero() {
		stats.Time = time.Now()
	}

	s.mu.Lock()
	s.samples++
	s.last = stats
	s.mu.Unlock()

	if s.deps.Recorder != nil {
		s.deps.Recorder.RecordFrameStats(stats)
	}
	if s.deps.Points != nil {
		name := s.deps.MissionContext.GetMission().MissionName
		if err := s.deps.Points.WriteFrameStats(stats, name); err != nil {
			s.deps.Logger.Error("Error writing frame stats point", "frame", stats.Frame, "error", err)
		}
	}
	return stats
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetProgramStatus returns the current status and its JSON rendering
func (s *Service) GetProgramStatus() (Status, []byte) {
	s.mu.RLock()
	st := Status{
		Time:       time.Now(),
		Mission:    s.deps.MissionContext.GetMission().MissionName,
		Samples:    s.samples,
		LastSample: s.last,
	}
	s.mu.RUnlock()

	if s.deps.Writer != nil {
		st.WriteQueueLengths = s.deps.Writer.GetQueueLengths()
		st.LastWriteDurationMs = float32(s.deps.Writer.GetLastDBWriteDuration().Milliseconds())
		st.DroppedEvents = s.deps.Writer.DroppedEvents()
	}

	out, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		out = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
	}
	return st, out
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if s.deps.StatusPath == "" {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.Logger
		logger.Debug("Starting status monitor goroutine", "function", "startStatusMonitor")

		ticker := time.NewTicker(s.deps.StatusInterval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				s.writeStatus()
				return
			case <-ticker.C:
				if !s.deps.MissionContext.Loaded() {
					continue
				}
				s.writeStatus()
			}
		}
	}()

	return nil
}

func (s *Service) writeStatus() {
	_, out := s.GetProgramStatus()
	if err := os.WriteFile(s.deps.StatusPath, append(out, '\n'), 0644); err != nil {
		s.deps.Logger.Error("Error writing status file", "path", s.deps.StatusPath, "error", err)
	}
}

// Stop stops the status monitor and waits for its final status write
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.isRunning = false
	s.mu.Unlock()
	<-done
}
