package worker

import (
	"fmt"
	"time"

	"github.com/OCAP2/beamcore/internal/dispatcher"
	"github.com/OCAP2/beamcore/pkg/core"
)

// Dispatcher commands.
const (
	CmdFire           = ":BEAM:FIRE:"
	CmdBeamFired      = ":BEAM:FIRED:"
	CmdBeamState      = ":BEAM:STATE:"
	CmdBeamHit        = ":BEAM:HIT:"
	CmdBeamRemoved    = ":BEAM:REMOVED:"
	CmdEnergyDepleted = ":BEAM:ENERGY:"
	CmdFrameStats     = ":FRAME:STATS:"
)

// RegisterHandlers registers all event handlers with the dispatcher and makes
// the manager forward sink events to it.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Replicated fire commands - sync, the handle is returned to the caller
	d.Register(CmdFire, m.handleFire, dispatcher.Logged())

	// Beam creation - sync (must be recorded before its states and hits)
	d.Register(CmdBeamFired, m.handleBeamFired, dispatcher.Logged())

	// High-volume lifecycle events - buffered
	d.Register(CmdBeamState, m.handleBeamState, dispatcher.Buffered(10000), dispatcher.Logged())
	d.Register(CmdBeamHit, m.handleBeamHit, dispatcher.Buffered(10000), dispatcher.Logged())
	d.Register(CmdBeamRemoved, m.handleBeamState, dispatcher.Buffered(5000), dispatcher.Logged())
	d.Register(CmdEnergyDepleted, m.handleBeamState, dispatcher.Buffered(1000), dispatcher.Logged())

	// Sampled statistics - buffered
	d.Register(CmdFrameStats, m.handleFrameStats, dispatcher.Buffered(1000), dispatcher.Logged())

	m.mu.Lock()
	m.dispatcher = d
	m.mu.Unlock()
}

func payload[T any](e dispatcher.Event) (T, error) {
	v, ok := e.Payload.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s: %w %T", e.Command, ErrUnexpectedPayload, e.Payload)
	}
	return v, nil
}

// send forwards a sink event. Refused events are counted and logged; the
// simulation never waits on recording.
func (m *Manager) send(cmd string, frame uint64, p any) {
	m.mu.RLock()
	d := m.dispatcher
	m.mu.RUnlock()
	if d == nil {
		return
	}
	_, err := d.Dispatch(dispatcher.Event{
		Command:   cmd,
		Payload:   p,
		Frame:     frame,
		Timestamp: time.Now(),
	})
	if err != nil {
		m.dropped.Inc()
		m.deps.Logger.Warn("Beam event not recorded", "command", cmd, "frame", frame, "error", err)
	}
}

// BeamFired implements beam.EventSink.
func (m *Manager) BeamFired(e core.BeamFiredEvent) { m.send(CmdBeamFired, e.Frame, e) }

// BeamStateChanged implements beam.EventSink.
func (m *Manager) BeamStateChanged(e core.BeamStateEvent) { m.send(CmdBeamState, e.Frame, e) }

// BeamHit implements beam.EventSink.
func (m *Manager) BeamHit(e core.BeamHitEvent) { m.send(CmdBeamHit, e.Frame, e) }

// BeamRemoved implements beam.EventSink.
func (m *Manager) BeamRemoved(e core.BeamStateEvent) { m.send(CmdBeamRemoved, e.Frame, e) }

// EnergyDepleted implements beam.EventSink.
func (m *Manager) EnergyDepleted(e core.BeamStateEvent) { m.send(CmdEnergyDepleted, e.Frame, e) }

// RecordFrameStats queues a statistics sample for storage.
func (m *Manager) RecordFrameStats(s core.FrameStats) { m.send(CmdFrameStats, s.Frame, s) }

func (m *Manager) handleFire(e dispatcher.Event) (any, error) {
	if m.deps.ParserService == nil || m.deps.Fire == nil {
		return nil, fmt.Errorf("fire commands are not enabled")
	}

	req, err := m.deps.ParserService.ParseFireRequest(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fire command: %w", err)
	}

	h, err := m.deps.Fire(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fire %s: %w", req.Request.Weapon.Name, err)
	}
	return h.String(), nil
}

func (m *Manager) handleBeamFired(e dispatcher.Event) (any, error) {
	obj, err := payload[core.BeamFiredEvent](e)
	if err != nil {
		return nil, err
	}

	// Snapshot the registry entry; backends store each weapon once per mission
	if w, ok := m.deps.Weapons.Get(obj.Weapon); ok {
		if err := m.backend.RecordWeapon(w); err != nil {
			return nil, fmt.Errorf("failed to record weapon %s: %w", obj.Weapon, err)
		}
	} else {
		m.unknownWeapons.Inc()
	}

	if err := m.backend.RecordBeamFired(&obj); err != nil {
		return nil, fmt.Errorf("failed to record beam fired: %w", err)
	}
	return nil, nil
}

func (m *Manager) handleBeamState(e dispatcher.Event) (any, error) {
	obj, err := payload[core.BeamStateEvent](e)
	if err != nil {
		return nil, err
	}
	if err := m.backend.RecordBeamState(&obj); err != nil {
		return nil, fmt.Errorf("failed to record beam state: %w", err)
	}
	return nil, nil
}

func (m *Manager) handleBeamHit(e dispatcher.Event) (any, error) {
	obj, err := payload[core.BeamHitEvent](e)
	if err != nil {
		return nil, err
	}
	if err := m.backend.RecordBeamHit(&obj); err != nil {
		return nil, fmt.Errorf("failed to record beam hit: %w", err)
	}
	return nil, nil
}

func (m *Manager) handleFrameStats(e dispatcher.Event) (any, error) {
	obj, err := payload[core.FrameStats](e)
	if err != nil {
		return nil, err
	}
	if err := m.backend.RecordFrameStats(&obj); err != nil {
		return nil, fmt.Errorf("failed to record frame stats: %w", err)
	}
	return nil, nil
}
