package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingHandler struct{ slog.Handler }

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("graylog unreachable")
}

func textHandler(buf *bytes.Buffer, lvl slog.Level) slog.Handler {
	return slog.NewTextHandler(buf, &slog.HandlerOptions{Level: lvl})
}

func TestMultiHandler_FansOut(t *testing.T) {
	var run, gelf bytes.Buffer
	logger := slog.New(NewMultiHandler(textHandler(&run, slog.LevelInfo), nil, textHandler(&gelf, slog.LevelWarn)))

	logger.Info("beam fired")
	logger.Warn("pool exhausted")

	assert.Contains(t, run.String(), "beam fired")
	assert.Contains(t, run.String(), "pool exhausted")
	assert.NotContains(t, gelf.String(), "beam fired")
	assert.Contains(t, gelf.String(), "pool exhausted")
}

func TestMultiHandler_Enabled(t *testing.T) {
	ctx := context.Background()
	info := textHandler(&bytes.Buffer{}, slog.LevelInfo)
	debug := textHandler(&bytes.Buffer{}, slog.LevelDebug)

	assert.False(t, NewMultiHandler().Enabled(ctx, slog.LevelError))
	assert.False(t, NewMultiHandler(info).Enabled(ctx, slog.LevelDebug))
	assert.True(t, NewMultiHandler(info, debug).Enabled(ctx, slog.LevelDebug))
}

func TestMultiHandler_FailingOutput(t *testing.T) {
	var run bytes.Buffer
	m := NewMultiHandler(failingHandler{}, textHandler(&run, slog.LevelInfo))

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "beam hit", 0)
	err := m.Handle(context.Background(), r)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "graylog unreachable")
	assert.Contains(t, run.String(), "beam hit")
}

func TestMultiHandler_AttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	m := NewMultiHandler(textHandler(&buf, slog.LevelInfo))

	assert.Same(t, m, m.WithGroup(""))

	logger := slog.New(m.WithAttrs([]slog.Attr{slog.String("component", "beam")}).WithGroup("hit"))
	logger.Info("applied", "damage", 12.5)

	assert.Contains(t, buf.String(), "component=beam")
	assert.Contains(t, buf.String(), "hit.damage=12.5")
}
