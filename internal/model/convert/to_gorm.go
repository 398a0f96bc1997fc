// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"

	"github.com/OCAP2/beamcore/internal/beam"
	"github.com/OCAP2/beamcore/internal/geo"
	"github.com/OCAP2/beamcore/internal/model"
	"github.com/OCAP2/beamcore/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

// aimRecord is the JSON payload of BeamFired.Aim.
type aimRecord struct {
	Direction core.Vec3 `json:"direction"`
}

func toJSON(v any, empty string) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON(empty)
	}
	return datatypes.JSON(data)
}

// segment converts a beam start/end pair, degenerate beams store an empty line.
func segment(start, end core.Vec3) geom.LineString {
	ls, err := geo.SegmentZ(start, end)
	if err != nil {
		return geom.LineString{}
	}
	return ls
}

// CoreToMission converts a core.Mission to a GORM model.Mission.
func CoreToMission(m core.Mission) model.Mission {
	return model.Mission{
		ID:               m.ID,
		MissionName:      m.MissionName,
		Author:           m.Author,
		StartTime:        m.StartTime,
		SkillLevel:       m.SkillLevel,
		Authoritative:    m.Authoritative,
		ExtensionVersion: m.ExtensionVersion,
		Tag:              m.Tag,
	}
}

// WeaponToModel snapshots a registry weapon for the given mission.
func WeaponToModel(w *beam.Weapon, missionID uint) model.Weapon {
	tokens := w.Tokens
	if tokens == nil {
		tokens = map[string]string{}
	}
	return model.Weapon{
		MissionID: missionID,
		Name:      w.Name,
		BeamType:  w.Type.String(),
		Damage:    w.Damage,
		Range:     w.Range,
		Width:     w.Width,
		LifeMs:    w.Life.Milliseconds(),
		Tokens:    toJSON(tokens, "{}"),
	}
}

// CoreToBeamFired converts a core.BeamFiredEvent to a GORM model.BeamFired.
// Seeds are stored bit-for-bit as signed integers.
func CoreToBeamFired(e core.BeamFiredEvent, missionID uint) model.BeamFired {
	return model.BeamFired{
		ID:                e.ID,
		MissionID:         missionID,
		Signature:         int64(e.Signature),
		Time:              e.Time,
		Frame:             e.Frame,
		Weapon:            e.Weapon,
		BeamType:          e.BeamType.String(),
		ShooterIndex:      e.Shooter.Index,
		ShooterGeneration: e.Shooter.Generation,
		TargetIndex:       e.Target.Index,
		TargetGeneration:  e.Target.Generation,
		Team:              e.Team,
		Seed:              int64(e.Seed),
		Segment:           segment(e.Start, e.End),
		LifeMs:            e.LifeTotal.Milliseconds(),
		Targeting:         e.Targeting,
		SharedAim:         e.SharedAim,
		Aim:               toJSON(aimRecord{Direction: e.AimDirection}, "{}"),
	}
}

// CoreToBeamState converts a core.BeamStateEvent to a GORM model.BeamState.
func CoreToBeamState(e core.BeamStateEvent, missionID uint) model.BeamState {
	return model.BeamState{
		ID:        e.ID,
		MissionID: missionID,
		Signature: int64(e.Signature),
		Time:      e.Time,
		Frame:     e.Frame,
		FromState: e.From.String(),
		ToState:   e.To.String(),
		Reason:    e.Reason,
	}
}

// CoreToBeamHit converts a core.BeamHitEvent to a GORM model.BeamHit.
func CoreToBeamHit(e core.BeamHitEvent, missionID uint) model.BeamHit {
	return model.BeamHit{
		ID:                e.ID,
		MissionID:         missionID,
		Signature:         int64(e.Signature),
		Time:              e.Time,
		Frame:             e.Frame,
		Weapon:            e.Weapon,
		ShooterIndex:      e.Shooter.Index,
		ShooterGeneration: e.Shooter.Generation,
		TargetIndex:       e.Target.Index,
		TargetGeneration:  e.Target.Generation,
		Point:             geo.PointZ(e.Point),
		Distance:          e.Distance,
		Quadrant:          e.Quadrant,
		Exit:              e.Exit,
		Tooled:            e.Tooled,
		Damage:            e.Damage,
		Impulse:           e.Impulse,
		EventText:         e.EventText,
	}
}

// CoreToFrameStat converts a core.FrameStats to a GORM model.FrameStat.
func CoreToFrameStat(s core.FrameStats, missionID uint) model.FrameStat {
	return model.FrameStat{
		ID:             s.ID,
		MissionID:      missionID,
		Time:           s.Time,
		Frame:          s.Frame,
		ActiveBeams:    s.ActiveBeams,
		Firing:         s.Firing,
		Collisions:     s.Collisions,
		DamageApplied:  s.DamageApplied,
		Rejected:       s.Rejected,
		FrameTimeMilli: s.FrameTimeMilli,
	}
}
