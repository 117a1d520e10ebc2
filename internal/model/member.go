// Package model provides the persistent entities and projections shared by the member and team modules.
package model

import (
	"time"

	"gorm.io/gorm"
)

// Member represents a member entity.
// Matches the members table schema. Member owns the relationship to Team.
type Member struct {
	ID        int64     `gorm:"primaryKey;column:member_id;autoIncrement"                                              json:"id"`
	Username  string    `gorm:"column:username;type:varchar(255);not null;index:idx_members_username"                  json:"username"`
	Age       int       `gorm:"column:age;not null;default:0;index:idx_members_age"                                    json:"age"`
	TeamID    *int64    `gorm:"column:team_id;index:idx_members_team_id"                                               json:"team_id,omitempty"`
	Team      *Team     `json:"team,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"                                                       json:"-"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"                                                       json:"-"`
}

// TableName specifies the table name for GORM.
func (Member) TableName() string {
	return "members"
}

// NewMember creates an unsaved member. team may be nil.
func NewMember(username string, age int, team *Team) *Member {
	m := &Member{
		Username: username,
		Age:      age,
	}
	m.ChangeTeam(team)
	return m
}

// ChangeTeam assigns the member to team, or unassigns it when team is nil.
func (m *Member) ChangeTeam(team *Team) {
	m.Team = team
	m.TeamID = nil
	if team != nil && team.ID != 0 {
		id := team.ID
		m.TeamID = &id
	}
}

// HasTeam reports whether the member references a team.
func (m *Member) HasTeam() bool {
	return m.TeamID != nil || m.Team != nil
}

// BeforeSave resolves TeamID from an attached Team before insert or update.
func (m *Member) BeforeSave(tx *gorm.DB) error {
	if m.Team == nil {
		return nil
	}
	if m.Team.ID == 0 {
		return ErrTeamNotPersisted
	}
	id := m.Team.ID
	m.TeamID = &id
	return nil
}
