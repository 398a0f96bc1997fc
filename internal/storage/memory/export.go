// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/OCAP2/beamcore/pkg/core"
)

// SessionExport is the root JSON structure of a recorded session.
type SessionExport struct {
	ExtensionVersion string            `json:"extensionVersion"`
	MissionName      string            `json:"missionName"`
	MissionAuthor    string            `json:"missionAuthor"`
	StartTime        time.Time         `json:"startTime"`
	SkillLevel       int               `json:"skillLevel"`
	Authoritative    bool              `json:"authoritative"`
	EndFrame         uint64            `json:"endFrame"`
	Weapons          []WeaponJSON      `json:"weapons"`
	Beams            []BeamJSON        `json:"beams"`
	Events           [][]any           `json:"events"`
	Frames           []core.FrameStats `json:"frames"`
}

// WeaponJSON is the registry entry a beam was fired from.
type WeaponJSON struct {
	Name   string            `json:"name"`
	Type   string            `json:"type"`
	Damage float64           `json:"damage"`
	Range  float64           `json:"range"`
	Width  float64           `json:"width"`
	LifeMs int64             `json:"lifeMs"`
	Tokens map[string]string `json:"tokens,omitempty"`
}

// BeamJSON is one beam with its timeline.
type BeamJSON struct {
	Signature uint64    `json:"signature"`
	Weapon    string    `json:"weapon"`
	Type      string    `json:"type"`
	Shooter   string    `json:"shooter"`
	Target    string    `json:"target"`
	Team      int       `json:"team"`
	Seed      uint64    `json:"seed"`
	Frame     uint64    `json:"frame"`
	Start     core.Vec3 `json:"start"`
	End       core.Vec3 `json:"end"`
	LifeMs    int64     `json:"lifeMs"`
	// [frame, from, to, reason]
	States [][]any `json:"states"`
	// [frame, target, [x,y,z], damage, impulse, quadrant, exit, tooled]
	Hits [][]any `json:"hits"`
}

func stateRow(e core.BeamStateEvent) []any {
	return []any{e.Frame, e.From.String(), e.To.String(), e.Reason}
}

func hitRow(e core.BeamHitEvent) []any {
	return []any{
		e.Frame,
		e.Target.String(),
		e.Point,
		e.Damage,
		e.Impulse,
		e.Quadrant,
		e.Exit,
		e.Tooled,
	}
}

// exportJSON writes the mission data to a JSON file, gzipped if configured.
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	missionName := strings.ReplaceAll(b.mission.MissionName, " ", "_")
	missionName = strings.ReplaceAll(missionName, ":", "_")
	timestamp := b.mission.StartTime.Format("20060102_150405")

	filename := fmt.Sprintf("%s_%s.json", missionName, timestamp)
	if b.cfg.CompressOutput {
		filename += ".gz"
	}
	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if b.cfg.CompressOutput {
		gw := gzip.NewWriter(f)
		if err := json.NewEncoder(gw).Encode(export); err != nil {
			return fmt.Errorf("failed to encode export: %w", err)
		}
		if err := gw.Close(); err != nil {
			return fmt.Errorf("failed to finish gzip stream: %w", err)
		}
	} else if err := json.NewEncoder(f).Encode(export); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport() SessionExport {
	export := SessionExport{
		ExtensionVersion: b.mission.ExtensionVersion,
		MissionName:      b.mission.MissionName,
		MissionAuthor:    b.mission.Author,
		StartTime:        b.mission.StartTime,
		SkillLevel:       b.mission.SkillLevel,
		Authoritative:    b.mission.Authoritative,
		Weapons:          make([]WeaponJSON, 0, len(b.weapons)),
		Beams:            make([]BeamJSON, 0, len(b.order)),
		Events:           make([][]any, 0),
		Frames:           append([]core.FrameStats{}, b.frames...),
	}

	var maxFrame uint64
	seen := func(f uint64) {
		if f > maxFrame {
			maxFrame = f
		}
	}

	for _, w := range b.weapons {
		export.Weapons = append(export.Weapons, WeaponJSON{
			Name:   w.Name,
			Type:   w.Type.String(),
			Damage: w.Damage,
			Range:  w.Range,
			Width:  w.Width,
			LifeMs: w.Life.Milliseconds(),
			Tokens: w.Tokens,
		})
	}
	sort.Slice(export.Weapons, func(i, j int) bool {
		return export.Weapons[i].Name < export.Weapons[j].Name
	})

	for _, sig := range b.order {
		rec := b.beams[sig]
		fired := rec.Fired
		bj := BeamJSON{
			Signature: fired.Signature,
			Weapon:    fired.Weapon,
			Type:      fired.BeamType.String(),
			Shooter:   fired.Shooter.String(),
			Target:    fired.Target.String(),
			Team:      fired.Team,
			Seed:      fired.Seed,
			Frame:     fired.Frame,
			Start:     fired.Start,
			End:       fired.End,
			LifeMs:    fired.LifeTotal.Milliseconds(),
			States:    make([][]any, 0, len(rec.States)),
			Hits:      make([][]any, 0, len(rec.Hits)),
		}
		seen(fired.Frame)
		for _, s := range rec.States {
			bj.States = append(bj.States, stateRow(s))
			seen(s.Frame)
		}
		for _, h := range rec.Hits {
			bj.Hits = append(bj.Hits, hitRow(h))
			seen(h.Frame)
		}
		export.Beams = append(export.Beams, bj)
	}

	for _, s := range b.strayStates {
		export.Events = append(export.Events, append([]any{"state", s.Signature}, stateRow(s)...))
		seen(s.Frame)
	}
	for _, h := range b.strayHits {
		export.Events = append(export.Events, append([]any{"hit", h.Signature}, hitRow(h)...))
		seen(h.Frame)
	}
	for _, f := range b.frames {
		seen(f.Frame)
	}

	export.EndFrame = maxFrame
	return export
}
