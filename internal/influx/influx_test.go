package influx

import (
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/beamcore/pkg/core"
)

func TestConfigFromViper(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	viper.Set("influx.enabled", true)
	viper.Set("influx.protocol", "https")
	viper.Set("influx.host", "metrics.local")
	viper.Set("influx.port", "8086")
	viper.Set("influx.bucket", "beam_stats")

	cfg := ConfigFromViper()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "https://metrics.local:8086", cfg.URL())
	assert.Equal(t, "beam_stats", cfg.Bucket)
}

func TestConnect_Disabled(t *testing.T) {
	m := NewManager(Config{Bucket: "beam_stats"}, zerolog.Nop(), filepath.Join(t.TempDir(), "influx.gz"))

	err := m.Connect(context.Background())
	assert.ErrorIs(t, err, ErrDisabled)
	assert.False(t, m.IsValid)
}

func TestFrameStatsPoint(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := FrameStatsPoint(core.FrameStats{
		Time:          ts,
		Frame:         120,
		ActiveBeams:   4,
		Firing:        3,
		Collisions:    7,
		DamageApplied: 55.5,
	}, "Convoy")

	assert.Equal(t, MeasurementFrameStats, p.Name())
	require.Len(t, p.TagList(), 1)
	assert.Equal(t, "mission", p.TagList()[0].Key)
	assert.Equal(t, "Convoy", p.TagList()[0].Value)
	assert.Equal(t, ts, p.Time())
	assert.Len(t, p.FieldList(), 7)
}

func TestWriteFrameStats_BackupFile(t *testing.T) {
	backup := filepath.Join(t.TempDir(), "influx.gz")
	m := NewManager(Config{
		Enabled:  true,
		Protocol: "http",
		Host:     "127.0.0.1",
		Port:     "1",
		Org:      "beamsim",
		Bucket:   "beam_stats",
	}, zerolog.Nop(), backup)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Connect(ctx))
	require.False(t, m.IsValid)
	require.NotNil(t, m.BackupWriter)

	require.NoError(t, m.WriteFrameStats(core.FrameStats{Frame: 9, ActiveBeams: 2, Time: time.Now()}, "Convoy"))
	require.NoError(t, m.Close())

	f, err := os.Open(backup)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)

	assert.Contains(t, string(data), "frame_stats,mission=Convoy")
	assert.Contains(t, string(data), "active_beams=2i")
}

func TestWritePoint_NoWriter(t *testing.T) {
	m := NewManager(Config{Bucket: "beam_stats"}, zerolog.Nop(), "")

	err := m.WriteFrameStats(core.FrameStats{}, "Convoy")
	assert.Error(t, err)
}

func TestWritePoint_UnregisteredBucket(t *testing.T) {
	m := NewManager(Config{Bucket: "beam_stats"}, zerolog.Nop(), "")
	m.IsValid = true

	err := m.WritePoint("other", FrameStatsPoint(core.FrameStats{}, "Convoy"))
	assert.EqualError(t, err, "influxDB bucket 'other' not registered")
}
