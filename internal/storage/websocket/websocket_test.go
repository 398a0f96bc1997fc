package websocket

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/beamcore/internal/beam"
	"github.com/OCAP2/beamcore/pkg/core"
	"github.com/OCAP2/beamcore/pkg/streaming"
)

// testServer upgrades to WebSocket, records received envelopes and acks
// start_mission and end_mission. dropAfter > 0 closes the first connection
// after that many messages.
func testServer(t *testing.T, dropAfter int) (*httptest.Server, *messageLog) {
	return testServerWith(t, streaming.JSON{}, dropAfter)
}

func testServerWith(t *testing.T, codec streaming.Codec, dropAfter int) (*httptest.Server, *messageLog) {
	t.Helper()
	ml := &messageLog{}
	var conns atomic.Int32

	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ml.setSecret(r.URL.Query().Get("secret"))
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer c.Close()
		first := conns.Add(1) == 1

		seen := 0
		for {
			frame, msg, err := c.ReadMessage()
			if err != nil {
				return
			}
			ml.addFrame(frame)

			env, err := codec.Unmarshal(msg)
			if err != nil {
				continue
			}
			ml.add(env)
			seen++

			if env.Type == streaming.TypeStartMission || env.Type == streaming.TypeEndMission {
				data, _ := codec.MarshalAck(streaming.AckMessage{Type: "ack", For: env.Type})
				if err := c.WriteMessage(frame, data); err != nil {
					return
				}
			}
			if first && dropAfter > 0 && seen >= dropAfter {
				return
			}
		}
	}))

	return srv, ml
}

type messageLog struct {
	mu       sync.Mutex
	messages []streaming.Envelope
	frames   map[int]int
	secret   string
}

func (m *messageLog) addFrame(frame int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.frames == nil {
		m.frames = make(map[int]int)
	}
	m.frames[frame]++
}

func (m *messageLog) add(env streaming.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, env)
}

func (m *messageLog) setSecret(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secret = s
}

func (m *messageLog) all() []streaming.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]streaming.Envelope, len(m.messages))
	copy(cp, m.messages)
	return cp
}

func (m *messageLog) count(msgType string) int {
	n := 0
	for _, e := range m.all() {
		if e.Type == msgType {
			n++
		}
	}
	return n
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestStartAndEndMission(t *testing.T) {
	srv, ml := testServer(t, 0)
	defer srv.Close()

	b := New(Config{URL: wsURL(srv), Secret: "test"}, nil)
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartMission(&core.Mission{MissionName: "Capella", Tag: "drill"}))
	require.NoError(t, b.EndMission())

	msgs := ml.all()
	require.GreaterOrEqual(t, len(msgs), 2)
	assert.Equal(t, streaming.TypeStartMission, msgs[0].Type)
	assert.Equal(t, streaming.TypeEndMission, msgs[len(msgs)-1].Type)

	var payload streaming.StartMissionPayload
	require.NoError(t, msgs[0].Decode(&payload))
	assert.Equal(t, "Capella", payload.Mission.MissionName)

	ml.mu.Lock()
	assert.Equal(t, "test", ml.secret)
	ml.mu.Unlock()
}

func TestBeamMessages(t *testing.T) {
	srv, ml := testServer(t, 0)
	defer srv.Close()

	b := New(Config{URL: wsURL(srv), Secret: "s"}, nil)
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartMission(&core.Mission{MissionName: "M"}))

	w := &beam.Weapon{Name: "BFGreen", Type: core.BeamSlashing, Life: time.Second}
	require.NoError(t, b.RecordWeapon(w))
	require.NoError(t, b.RecordWeapon(w))
	require.NoError(t, b.RecordBeamFired(&core.BeamFiredEvent{Signature: 1, Weapon: "BFGreen"}))
	require.NoError(t, b.RecordBeamState(&core.BeamStateEvent{Signature: 1, To: core.StateFiring}))
	require.NoError(t, b.RecordBeamHit(&core.BeamHitEvent{Signature: 1, Damage: 2}))
	require.NoError(t, b.RecordFrameStats(&core.FrameStats{Frame: 1}))

	// the end ack arrives after every earlier message was read
	require.NoError(t, b.EndMission())

	assert.Equal(t, 1, ml.count(streaming.TypeWeapon))
	assert.Equal(t, 1, ml.count(streaming.TypeBeamFired))
	assert.Equal(t, 1, ml.count(streaming.TypeBeamState))
	assert.Equal(t, 1, ml.count(streaming.TypeBeamHit))
	assert.Equal(t, 1, ml.count(streaming.TypeFrameStats))

	for _, env := range ml.all() {
		if env.Type == streaming.TypeWeapon {
			var wp streaming.WeaponPayload
			require.NoError(t, env.Decode(&wp))
			assert.Equal(t, "slashing", wp.BeamType)
			assert.Equal(t, int64(1000), wp.LifeMs)
		}
	}
}

func TestMsgPackEncoding(t *testing.T) {
	srv, ml := testServerWith(t, streaming.MsgPack{}, 0)
	defer srv.Close()

	b := New(Config{URL: wsURL(srv), Codec: streaming.MsgPack{}}, nil)
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartMission(&core.Mission{MissionName: "Packed"}))
	require.NoError(t, b.RecordBeamHit(&core.BeamHitEvent{Signature: 7, Damage: 4.5, Quadrant: 1}))
	require.NoError(t, b.EndMission())

	var hit core.BeamHitEvent
	for _, env := range ml.all() {
		if env.Type == streaming.TypeBeamHit {
			require.NoError(t, env.Decode(&hit))
		}
	}
	assert.Equal(t, uint64(7), hit.Signature)
	assert.Equal(t, 4.5, hit.Damage)

	ml.mu.Lock()
	defer ml.mu.Unlock()
	assert.Equal(t, 3, ml.frames[ws.BinaryMessage])
	assert.Zero(t, ml.frames[ws.TextMessage])
}

func TestInit_BadURL(t *testing.T) {
	b := New(Config{URL: "ws://127.0.0.1:1/stream"}, nil)
	assert.Error(t, b.Init())
}

func TestReconnect_ReplaysSessionHeader(t *testing.T) {
	srv, ml := testServer(t, 2)
	defer srv.Close()

	b := New(Config{URL: wsURL(srv), Secret: "s"}, nil)
	b.conn.baseBackoff = 10 * time.Millisecond
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartMission(&core.Mission{MissionName: "M"}))
	require.NoError(t, b.RecordWeapon(&beam.Weapon{Name: "LRed", Type: core.BeamDirectFire, Life: time.Second}))

	// the server drops the first connection after the weapon; both header
	// messages arrive again on the second one
	assert.Eventually(t, func() bool {
		return ml.count(streaming.TypeStartMission) == 2 && ml.count(streaming.TypeWeapon) == 2
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, b.RecordFrameStats(&core.FrameStats{Frame: 1}))
	require.NoError(t, b.EndMission())
	assert.Equal(t, 1, ml.count(streaming.TypeFrameStats))
}

func TestHeader_OnlyInsideMission(t *testing.T) {
	c := newConnection(slog.Default(), streaming.JSON{})

	c.appendHeader([]byte("weapon"))
	assert.Empty(t, c.header)

	c.setHeader([]byte("start"))
	c.appendHeader([]byte("weapon"))
	assert.Len(t, c.header, 2)

	c.setHeader(nil)
	assert.Empty(t, c.header)
}

func TestNextBackoff(t *testing.T) {
	assert.Equal(t, 2*time.Second, nextBackoff(time.Second))
	assert.Equal(t, maxBackoff, nextBackoff(20*time.Second))
}

func TestSend_QueueFullDrops(t *testing.T) {
	b := New(Config{}, nil)
	for range sendChSize + 3 {
		b.conn.send([]byte("x"))
	}
	assert.Equal(t, map[string]int{"stream": sendChSize}, b.QueueLengths())
	assert.Equal(t, int64(3), b.Dropped())
}

func TestClose_Idempotent(t *testing.T) {
	srv, _ := testServer(t, 0)
	defer srv.Close()

	b := New(Config{URL: wsURL(srv)}, nil)
	require.NoError(t, b.Init())
	require.NoError(t, b.Close())
	assert.NoError(t, b.Close())
}
