package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCanceled   TaskStatus = "canceled"
)

// legacyTaskStatuses maps the capitalised vocabulary still present in older rows.
var legacyTaskStatuses = map[string]TaskStatus{
	"Pending":     TaskStatusPending,
	"In Progress": TaskStatusInProgress,
	"Completed":   TaskStatusCompleted,
}

// LegacyTaskStatuses returns the legacy value -> canonical value mapping.
func LegacyTaskStatuses() map[string]TaskStatus {
	out := make(map[string]TaskStatus, len(legacyTaskStatuses))
	for k, v := range legacyTaskStatuses {
		out[k] = v
	}
	return out
}

// ParseTaskStatus accepts both the canonical and the legacy vocabulary.
func ParseTaskStatus(s string) (TaskStatus, bool) {
	if st, ok := legacyTaskStatuses[s]; ok {
		return st, true
	}
	st := TaskStatus(strings.TrimSpace(s))
	switch st {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCanceled:
		return st, true
	}
	return "", false
}

// Closed reports whether no further work is expected on the task.
func (s TaskStatus) Closed() bool {
	return s == TaskStatusCompleted || s == TaskStatusCanceled
}

type Task struct {
	ID          string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	ClientID    *string    `gorm:"type:varchar(36);index" json:"client_id"`
	AssignedTo  *string    `gorm:"type:varchar(36)" json:"assigned_to"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Status      TaskStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Deadline    *time.Time `json:"deadline"`
	TimerStart  *time.Time `json:"timer_start"`
	TimerEnd    *time.Time `json:"timer_end"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relations
	Client *Client `gorm:"foreignKey:ClientID;constraint:OnDelete:SET NULL" json:"client,omitempty"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	ensureID(&t.ID)
	if t.Status == "" {
		t.Status = TaskStatusPending
	}
	return nil
}

// DueAt is the moment the task is expected to be done. Rows written before
// the deadline column existed kept it in timer_end while still pending.
func (t *Task) DueAt() *time.Time {
	if t.Deadline != nil {
		return t.Deadline
	}
	if t.Status == TaskStatusPending && t.TimerEnd != nil && t.TimerStart == nil {
		return t.TimerEnd
	}
	return nil
}

// Overdue reports whether an open task has passed its due moment.
func (t *Task) Overdue(now time.Time) bool {
	if t.Status.Closed() {
		return false
	}
	due := t.DueAt()
	return due != nil && due.Before(now)
}

// Elapsed returns the tracked working time. Running timers are measured up to now.
func (t *Task) Elapsed(now time.Time) time.Duration {
	if t.TimerStart == nil {
		return 0
	}
	end := now
	if t.TimerEnd != nil && t.Status.Closed() {
		end = *t.TimerEnd
	}
	if end.Before(*t.TimerStart) {
		return 0
	}
	return end.Sub(*t.TimerStart)
}
