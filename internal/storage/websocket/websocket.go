package websocket

import (
	"log/slog"
	"sync"

	"github.com/OCAP2/beamcore/internal/beam"
	"github.com/OCAP2/beamcore/pkg/core"
	"github.com/OCAP2/beamcore/pkg/streaming"
)

// Config holds WebSocket backend configuration.
type Config struct {
	URL    string
	Secret string
	// Codec frames messages; nil means JSON.
	Codec streaming.Codec
}

// Backend streams a beam session over WebSocket. It implements storage.Backend
// but writes nothing locally.
type Backend struct {
	conn *connection
	cfg  Config

	mu      sync.Mutex
	weapons map[string]bool
}

// New creates a new WebSocket storage backend.
func New(cfg Config, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Codec == nil {
		cfg.Codec = streaming.JSON{}
	}
	return &Backend{
		conn:    newConnection(logger, cfg.Codec),
		cfg:     cfg,
		weapons: make(map[string]bool),
	}
}

// Init connects to the WebSocket server.
func (b *Backend) Init() error {
	return b.conn.dial(b.cfg.URL, b.cfg.Secret)
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	return b.conn.close()
}

// sendEnvelope pushes the message to the write loop without waiting.
func (b *Backend) sendEnvelope(msgType string, payload any) error {
	data, err := b.cfg.Codec.Marshal(msgType, payload)
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}

// StartMission sends the mission header and waits for the server ack.
func (b *Backend) StartMission(mission *core.Mission) error {
	data, err := b.cfg.Codec.Marshal(streaming.TypeStartMission, streaming.StartMissionPayload{Mission: mission})
	if err != nil {
		return err
	}

	b.conn.setHeader(data)

	b.mu.Lock()
	b.weapons = make(map[string]bool)
	b.mu.Unlock()

	return b.conn.sendAndWait(data, streaming.TypeStartMission, ackTimeout)
}

// EndMission sends end_mission and waits for server ack.
func (b *Backend) EndMission() error {
	data, err := b.cfg.Codec.Marshal(streaming.TypeEndMission, nil)
	if err != nil {
		return err
	}
	err = b.conn.sendAndWait(data, streaming.TypeEndMission, ackTimeout)
	b.conn.setHeader(nil)
	return err
}

// RecordWeapon sends each weapon once per mission.
func (b *Backend) RecordWeapon(w *beam.Weapon) error {
	b.mu.Lock()
	if b.weapons[w.Name] {
		b.mu.Unlock()
		return nil
	}
	b.weapons[w.Name] = true
	b.mu.Unlock()

	// beams reference weapons by name, so definitions replay after a reconnect
	data, err := b.cfg.Codec.Marshal(streaming.TypeWeapon, streaming.WeaponPayload{
		Name:     w.Name,
		BeamType: w.Type.String(),
		Damage:   w.Damage,
		Range:    w.Range,
		Width:    w.Width,
		LifeMs:   w.Life.Milliseconds(),
		Tokens:   w.Tokens,
	})
	if err != nil {
		return err
	}
	b.conn.appendHeader(data)
	b.conn.send(data)
	return nil
}

func (b *Backend) RecordBeamFired(e *core.BeamFiredEvent) error {
	return b.sendEnvelope(streaming.TypeBeamFired, e)
}

func (b *Backend) RecordBeamState(e *core.BeamStateEvent) error {
	return b.sendEnvelope(streaming.TypeBeamState, e)
}

func (b *Backend) RecordBeamHit(e *core.BeamHitEvent) error {
	return b.sendEnvelope(streaming.TypeBeamHit, e)
}

func (b *Backend) RecordFrameStats(s *core.FrameStats) error {
	return b.sendEnvelope(streaming.TypeFrameStats, s)
}

// QueueLengths reports messages waiting for the writer.
func (b *Backend) QueueLengths() map[string]int {
	return map[string]int{"stream": b.conn.pending()}
}

// Dropped returns the number of messages lost to a full queue or a broken connection.
func (b *Backend) Dropped() int64 {
	return b.conn.dropped.Load()
}
