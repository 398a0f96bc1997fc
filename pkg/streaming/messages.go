// Package streaming defines the JSON envelope protocol used to stream a beam
// session to a replication or telemetry server.
package streaming

import (
	"encoding/json"

	"github.com/OCAP2/beamcore/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeStartMission = "start_mission"
	TypeEndMission   = "end_mission"
	TypeWeapon       = "weapon"
	TypeBeamFired    = "beam_fired"
	TypeBeamState    = "beam_state"
	TypeBeamHit      = "beam_hit"
	TypeFrameStats   = "frame_stats"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`

	// set when Payload holds msgpack rather than JSON
	packed bool
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartMissionPayload carries the mission header.
type StartMissionPayload struct {
	Mission *core.Mission `json:"mission"`
}

// WeaponPayload is the registry entry of a weapon seen for the first time.
type WeaponPayload struct {
	Name     string            `json:"name"`
	BeamType string            `json:"beamType"`
	Damage   float64           `json:"damage"`
	Range    float64           `json:"range"`
	Width    float64           `json:"width"`
	LifeMs   int64             `json:"lifeMs"`
	Tokens   map[string]string `json:"tokens,omitempty"`
}

// Decode unmarshals an envelope's payload into v.
func (e Envelope) Decode(v any) error {
	if e.packed {
		return unpackJSONTags(e.Payload, v)
	}
	return json.Unmarshal(e.Payload, v)
}
