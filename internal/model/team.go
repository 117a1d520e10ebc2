package model

import (
	"time"
)

// Team represents a team entity.
// Matches the teams table schema.
type Team struct {
	ID        int64     `gorm:"primaryKey;column:team_id;autoIncrement"                                       json:"id"`
	Name      string    `gorm:"column:name;type:varchar(255);not null;uniqueIndex"                            json:"name"`
	Members   []Member  `gorm:"foreignKey:TeamID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"members,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"                                              json:"-"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"                                              json:"-"`
}

// TableName specifies the table name for GORM.
func (Team) TableName() string {
	return "teams"
}

// NewTeam creates an unsaved team.
func NewTeam(name string) *Team {
	return &Team{Name: name}
}
