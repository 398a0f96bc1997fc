// pkg/core/mission.go
package core

import "time"

// Mission describes the engagement a recording belongs to.
type Mission struct {
	ID               uint      `json:"id"`
	MissionName      string    `json:"missionName"`
	Author           string    `json:"author"`
	StartTime        time.Time `json:"startTime"`
	SkillLevel       int       `json:"skillLevel"`
	Authoritative    bool      `json:"authoritative"`
	ExtensionVersion string    `json:"extensionVersion"`
	Tag              string    `json:"tag"`
}
