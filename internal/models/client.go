package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "active"
	ClientStatusInactive ClientStatus = "inactive"
	ClientStatusArchived ClientStatus = "archived"
)

// Valid reports whether s is a known client status.
func (s ClientStatus) Valid() bool {
	switch s {
	case ClientStatusActive, ClientStatusInactive, ClientStatusArchived:
		return true
	}
	return false
}

// Client is an agency customer. The JSON columns are stored as raw documents
// and decoded by the service layer.
type Client struct {
	ID                 string       `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name               string       `gorm:"type:varchar(255);not null" json:"name"`
	Email              *string      `gorm:"type:varchar(255)" json:"email"`
	Status             ClientStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	OnboardingDocument string       `gorm:"type:text" json:"onboarding_document"`
	CurrentPosition    string       `gorm:"type:text" json:"current_position"`
	ClientGoal         string       `gorm:"type:text" json:"client_goal"`
	Notes              string       `gorm:"type:text" json:"notes"`
	ChannelDetails     string       `gorm:"type:text" json:"channel_details"`
	ProjectIdeas       string       `gorm:"type:text" json:"project_ideas"`
	AccountDetails     string       `gorm:"type:text" json:"account_details"`
	VideoDescription   string       `gorm:"type:text" json:"video_description"`
	InspirationList    string       `gorm:"type:text" json:"inspiration_list"`
	ScriptsDocument    string       `gorm:"type:text" json:"scripts_document"`

	OnboardingChecklist datatypes.JSON `json:"onboarding_checklist"`
	Budget              datatypes.JSON `json:"budget"`
	Timeline            datatypes.JSON `json:"timeline"`
	TrackingResults     datatypes.JSON `json:"tracking_results"`
	HiredPeople         datatypes.JSON `json:"hired_people"`
	VideoFolder         datatypes.JSON `json:"video_folder"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	if c.Status == "" {
		c.Status = ClientStatusActive
	}
	return nil
}
