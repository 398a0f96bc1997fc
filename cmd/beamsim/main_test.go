package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/beamcore/internal/config"
)

func writeConfig(t *testing.T, dir string, cfg map[string]any) {
	t.Helper()
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), data, 0644))
}

func TestRun_MemoryBackend(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	dir := t.TempDir()
	recordings := filepath.Join(dir, "recordings")
	writeConfig(t, dir, map[string]any{
		"logsDir":     filepath.Join(dir, "logs"),
		"missionName": "Test Engagement",
		"storage": map[string]any{
			"type": "memory",
			"memory": map[string]any{
				"outputDir":      recordings,
				"compressOutput": false,
			},
		},
		"sim": map[string]any{"frames": 120, "statsEvery": 30},
	})

	require.NoError(t, run(context.Background(), dir, nil))

	files, err := filepath.Glob(filepath.Join(recordings, "Test_Engagement_*.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	var export map[string]any
	require.NoError(t, json.Unmarshal(data, &export))
	assert.Equal(t, "Test Engagement", export["missionName"])
	assert.NotEmpty(t, export["beams"])
	assert.NotEmpty(t, export["weapons"])
	assert.Len(t, export["frames"], 4)

	_, err = os.Stat(filepath.Join(dir, "logs", "status.json"))
	assert.NoError(t, err)
}

func TestBindFlags_OnlyChanged(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	viper.Set("sim.fps", 60)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Uint64("frames", 600, "")
	flags.Int("fps", 30, "")
	flags.Uint64("seed", 1, "")
	flags.String("storage", "memory", "")
	flags.String("log-level", "info", "")
	require.NoError(t, flags.Parse([]string{"--frames", "42", "--storage", "sqlite"}))

	require.NoError(t, bindFlags(flags))

	assert.Equal(t, 42, viper.GetInt("sim.frames"))
	assert.Equal(t, "sqlite", viper.GetString("storage.type"))
	assert.Equal(t, 60, viper.GetInt("sim.fps"), "unchanged flags keep config values")
}

func TestHTTPToWS(t *testing.T) {
	assert.Equal(t, "wss://replay.example/stream", httpToWS("https://replay.example/stream/"))
	assert.Equal(t, "ws://localhost:5000", httpToWS("http://localhost:5000"))
	assert.Equal(t, "ws://already", httpToWS("ws://already"))
}
