package model

import (
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

// DatabaseModels lists every table of a recording, in migration order.
var DatabaseModels = []interface{}{
	&Mission{},
	&Weapon{},
	&BeamFired{},
	&BeamState{},
	&BeamHit{},
	&FrameStat{},
}

// Mission is one recorded engagement.
type Mission struct {
	ID               uint      `json:"id" gorm:"primarykey;autoIncrement"`
	MissionName      string    `json:"missionName" gorm:"size:200"`
	Author           string    `json:"author" gorm:"size:200"`
	StartTime        time.Time `json:"missionStart" gorm:"index:idx_mission_start"`
	SkillLevel       int       `json:"skillLevel"`
	Authoritative    bool      `json:"authoritative"`
	ExtensionVersion string    `json:"extensionVersion" gorm:"size:64"`
	Tag              string    `json:"tag" gorm:"size:127"`
}

func (*Mission) TableName() string {
	return "missions"
}

// Weapon is the registry entry a beam was fired from, stored once per mission.
type Weapon struct {
	ID        uint           `json:"id" gorm:"primarykey;autoIncrement"`
	MissionID uint           `json:"missionId" gorm:"uniqueIndex:idx_weapon_mission_name"`
	Mission   Mission        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:MissionID;"`
	Name      string         `json:"name" gorm:"size:127;uniqueIndex:idx_weapon_mission_name"`
	BeamType  string         `json:"beamType" gorm:"size:32"`
	Damage    float64        `json:"damage"`
	Range     float64        `json:"range"`
	Width     float64        `json:"width"`
	LifeMs    int64          `json:"lifeMs"`
	Tokens    datatypes.JSON `json:"tokens"`
}

func (*Weapon) TableName() string {
	return "weapons"
}

// BeamFired is one created beam. Segment is the resolved start and end at fire time.
type BeamFired struct {
	ID                uint            `json:"id" gorm:"primarykey;autoIncrement"`
	MissionID         uint            `json:"missionId" gorm:"index:idx_beamfired_mission_id"`
	Mission           Mission         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:MissionID;"`
	Signature         int64           `json:"signature" gorm:"index:idx_beamfired_signature"`
	Time              time.Time       `json:"time"`
	Frame             uint64          `json:"frame" gorm:"index:idx_beamfired_frame"`
	Weapon            string          `json:"weapon" gorm:"size:127"`
	BeamType          string          `json:"beamType" gorm:"size:32"`
	ShooterIndex      uint32          `json:"shooterIndex"`
	ShooterGeneration uint32          `json:"shooterGeneration"`
	TargetIndex       uint32          `json:"targetIndex"`
	TargetGeneration  uint32          `json:"targetGeneration"`
	Team              int             `json:"team"`
	Seed              int64           `json:"seed"`
	Segment           geom.LineString `json:"segment"`
	LifeMs            int64           `json:"lifeMs"`
	Targeting         bool            `json:"targeting"`
	SharedAim         bool            `json:"sharedAim"`
	Aim               datatypes.JSON  `json:"aim"`
}

func (*BeamFired) TableName() string {
	return "beam_fired"
}

// BeamState is one lifecycle transition.
type BeamState struct {
	ID        uint      `json:"id" gorm:"primarykey;autoIncrement"`
	MissionID uint      `json:"missionId" gorm:"index:idx_beamstate_mission_id"`
	Mission   Mission   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:MissionID;"`
	Signature int64     `json:"signature" gorm:"index:idx_beamstate_signature"`
	Time      time.Time `json:"time"`
	Frame     uint64    `json:"frame"`
	FromState string    `json:"from" gorm:"size:16"`
	ToState   string    `json:"to" gorm:"size:16"`
	Reason    string    `json:"reason" gorm:"size:64"`
}

func (*BeamState) TableName() string {
	return "beam_states"
}

// BeamHit is one fresh hit on a target.
type BeamHit struct {
	ID                uint       `json:"id" gorm:"primarykey;autoIncrement"`
	MissionID         uint       `json:"missionId" gorm:"index:idx_beamhit_mission_id"`
	Mission           Mission    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:MissionID;"`
	Signature         int64      `json:"signature" gorm:"index:idx_beamhit_signature"`
	Time              time.Time  `json:"time"`
	Frame             uint64     `json:"frame"`
	Weapon            string     `json:"weapon" gorm:"size:127"`
	ShooterIndex      uint32     `json:"shooterIndex"`
	ShooterGeneration uint32     `json:"shooterGeneration"`
	TargetIndex       uint32     `json:"targetIndex" gorm:"index:idx_beamhit_target"`
	TargetGeneration  uint32     `json:"targetGeneration"`
	Point             geom.Point `json:"point"`
	Distance          float64    `json:"distance"`
	Quadrant          int        `json:"quadrant"`
	Exit              bool       `json:"exit"`
	Tooled            bool       `json:"tooled"`
	Damage            float64    `json:"damage"`
	Impulse           float64    `json:"impulse"`
	EventText         string     `json:"eventText" gorm:"size:255"`
}

func (*BeamHit) TableName() string {
	return "beam_hits"
}

// FrameStat is a sampled frame of the beam system.
type FrameStat struct {
	ID             uint      `json:"id" gorm:"primarykey;autoIncrement"`
	MissionID      uint      `json:"missionId" gorm:"index:idx_framestat_mission_id"`
	Mission        Mission   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:MissionID;"`
	Time           time.Time `json:"time" gorm:"index:idx_framestat_time"`
	Frame          uint64    `json:"frame"`
	ActiveBeams    int       `json:"activeBeams"`
	Firing         int       `json:"firing"`
	Collisions     int       `json:"collisions"`
	DamageApplied  float64   `json:"damageApplied"`
	Rejected       int       `json:"rejected"`
	FrameTimeMilli float32   `json:"frameTimeMs"`
}

func (*FrameStat) TableName() string {
	return "frame_stats"
}
