package models

import (
	"time"

	"gorm.io/gorm"
)

// MetricSnapshot stores one day of dashboard counters so period-over-period
// changes can be computed from real history.
type MetricSnapshot struct {
	ID             string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CapturedOn     time.Time `gorm:"type:date;not null;uniqueIndex" json:"captured_on"`
	ClientCount    int64     `gorm:"not null" json:"client_count"`
	TaskCount      int64     `gorm:"not null" json:"task_count"`
	Revenue        float64   `gorm:"type:numeric(14,2);not null" json:"revenue"`
	ActiveProjects int64     `gorm:"not null" json:"active_projects"`
	CreatedAt      time.Time `json:"created_at"`
}

func (s *MetricSnapshot) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// All returns every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&Client{},
		&TeamMember{},
		&Task{},
		&Finance{},
		&Work{},
		&WorkResource{},
		&WorkExpense{},
		&WorkDocument{},
		&MetricSnapshot{},
	}
}
