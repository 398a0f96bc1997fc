package convert

import (
	"encoding/json"
	"time"

	"github.com/OCAP2/beamcore/internal/geo"
	"github.com/OCAP2/beamcore/internal/model"
	"github.com/OCAP2/beamcore/pkg/core"
)

// MissionToCore converts a GORM model.Mission to a core.Mission.
func MissionToCore(m model.Mission) core.Mission {
	return core.Mission{
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

// BeamFiredToCore converts a GORM model.BeamFired to a core.BeamFiredEvent.
// An unknown beam type name decodes as direct fire.
func BeamFiredToCore(m model.BeamFired) core.BeamFiredEvent {
	bt, _ := core.ParseBeamType(m.BeamType)

	var aim aimRecord
	if len(m.Aim) > 0 {
		_ = json.Unmarshal(m.Aim, &aim)
	}

	e := core.BeamFiredEvent{
		ID:           m.ID,
		Signature:    uint64(m.Signature),
		Time:         m.Time,
		Frame:        m.Frame,
		Weapon:       m.Weapon,
		BeamType:     bt,
		Shooter:      core.Handle{Index: m.ShooterIndex, Generation: m.ShooterGeneration},
		Target:       core.Handle{Index: m.TargetIndex, Generation: m.TargetGeneration},
		Team:         m.Team,
		Seed:         uint64(m.Seed),
		LifeTotal:    time.Duration(m.LifeMs) * time.Millisecond,
		Targeting:    m.Targeting,
		SharedAim:    m.SharedAim,
		AimDirection: aim.Direction,
	}
	if !m.Segment.IsEmpty() {
		e.Start = geo.Vec3FromPoint(m.Segment.StartPoint())
		e.End = geo.Vec3FromPoint(m.Segment.EndPoint())
	}
	return e
}

// BeamStateToCore converts a GORM model.BeamState to a core.BeamStateEvent.
func BeamStateToCore(m model.BeamState) core.BeamStateEvent {
	from, _ := core.ParseBeamState(m.FromState)
	to, _ := core.ParseBeamState(m.ToState)
	return core.BeamStateEvent{
		ID:        m.ID,
		Signature: uint64(m.Signature),
		Time:      m.Time,
		Frame:     m.Frame,
		From:      from,
		To:        to,
		Reason:    m.Reason,
	}
}

// BeamHitToCore converts a GORM model.BeamHit to a core.BeamHitEvent.
func BeamHitToCore(m model.BeamHit) core.BeamHitEvent {
	return core.BeamHitEvent{
		ID:        m.ID,
		Signature: uint64(m.Signature),
		Time:      m.Time,
		Frame:     m.Frame,
		Weapon:    m.Weapon,
		Shooter:   core.Handle{Index: m.ShooterIndex, Generation: m.ShooterGeneration},
		Target:    core.Handle{Index: m.TargetIndex, Generation: m.TargetGeneration},
		Point:     geo.Vec3FromPoint(m.Point),
		Distance:  m.Distance,
		Quadrant:  m.Quadrant,
		Exit:      m.Exit,
		Tooled:    m.Tooled,
		Damage:    m.Damage,
		Impulse:   m.Impulse,
		EventText: m.EventText,
	}
}

// FrameStatToCore converts a GORM model.FrameStat to a core.FrameStats.
func FrameStatToCore(m model.FrameStat) core.FrameStats {
	return core.FrameStats{
		ID:             m.ID,
		Time:           m.Time,
		Frame:          m.Frame,
		ActiveBeams:    m.ActiveBeams,
		Firing:         m.Firing,
		Collisions:     m.Collisions,
		DamageApplied:  m.DamageApplied,
		Rejected:       m.Rejected,
		FrameTimeMilli: m.FrameTimeMilli,
	}
}
