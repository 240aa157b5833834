package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TeamMemberStatus string

const (
	TeamMemberStatusActive   TeamMemberStatus = "active"
	TeamMemberStatusInactive TeamMemberStatus = "inactive"
)

func (s TeamMemberStatus) Valid() bool {
	return s == TeamMemberStatusActive || s == TeamMemberStatusInactive
}

type TeamMember struct {
	ID         string                      `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name       string                      `gorm:"type:varchar(255);not null" json:"name"`
	Email      *string                     `gorm:"type:varchar(255)" json:"email"`
	Role       string                      `gorm:"type:varchar(100)" json:"role"`
	Skills     datatypes.JSONSlice[string] `json:"skills"`
	HourlyRate *float64                    `gorm:"type:numeric(10,2)" json:"hourly_rate"`
	Status     TeamMemberStatus            `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	CreatedAt  time.Time                   `json:"created_at"`
	UpdatedAt  time.Time                   `json:"updated_at"`
}

func (m *TeamMember) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.ID)
	if m.Status == "" {
		m.Status = TeamMemberStatusActive
	}
	return nil
}
