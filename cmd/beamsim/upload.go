package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/OCAP2/beamcore/internal/api"
	"github.com/OCAP2/beamcore/internal/config"
	"github.com/OCAP2/beamcore/pkg/core"
)

// uploadSession sends the exported session file to the replay server.
func uploadSession(ctx context.Context, cfg config.UploadConfig, logger *slog.Logger, path string, ms *core.Mission, opts simOptions, sum runSummary) error {
	client := api.New(cfg.URL, cfg.Secret)
	if err := client.Healthcheck(ctx); err != nil {
		return fmt.Errorf("replay server unavailable: %w", err)
	}

	meta := api.SessionMeta{
		MissionName: ms.MissionName,
		Tag:         ms.Tag,
		SkillLevel:  ms.SkillLevel,
		Duration:    opts.delta() * time.Duration(sum.Frames),
		Beams:       sum.Commands - sum.Rejected,
	}
	if err := client.Upload(ctx, path, meta); err != nil {
		return err
	}
	logger.Info("Session uploaded", "url", cfg.URL, "path", path)
	return nil
}
