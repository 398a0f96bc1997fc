package postgres

import (
	"testing"
	"time"

	"github.com/OCAP2/beamcore/internal/database"
	"github.com/OCAP2/beamcore/internal/model"
	"github.com/OCAP2/beamcore/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Unreachable(t *testing.T) {
	_, err := New(database.PostgresConfig{
		Host:     "127.0.0.1",
		Port:     "1",
		Username: "u",
		Password: "p",
		Database: "d",
	}, nil)
	assert.Error(t, err)
}

// The backend itself is dialect agnostic; run it against SQLite.
func TestNewWithDB_RecordsMission(t *testing.T) {
	db, err := database.OpenSQLite("")
	require.NoError(t, err)

	b, err := NewWithDB(db, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	t.Cleanup(func() { b.Close() })

	m := &core.Mission{MissionName: "Capella", StartTime: time.Now().UTC()}
	require.NoError(t, b.StartMission(m))
	require.NoError(t, b.RecordBeamState(&core.BeamStateEvent{Signature: 2, To: core.StateDestroyed}))
	require.NoError(t, b.EndMission())

	var state model.BeamState
	require.NoError(t, db.First(&state).Error)
	assert.Equal(t, "destroyed", state.ToState)
	assert.Equal(t, m.ID, state.MissionID)
}
