package models

import (
	"time"

	"gorm.io/gorm"
)

type WorkStatus string

const (
	WorkStatusPlanned    WorkStatus = "planned"
	WorkStatusInProgress WorkStatus = "in_progress"
	WorkStatusCompleted  WorkStatus = "completed"
	WorkStatusCanceled   WorkStatus = "canceled"
)

func (s WorkStatus) Valid() bool {
	switch s {
	case WorkStatusPlanned, WorkStatusInProgress, WorkStatusCompleted, WorkStatusCanceled:
		return true
	}
	return false
}

// Work is a client project with its own budget. RemainingBudget is kept in
// step with the expense rows by the work service.
type Work struct {
	ID              string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title           string     `gorm:"type:varchar(255);not null" json:"title"`
	Description     string     `gorm:"type:text" json:"description"`
	ClientID        *string    `gorm:"type:varchar(36);index" json:"client_id"`
	Status          WorkStatus `gorm:"type:varchar(20);not null;default:'planned';index" json:"status"`
	StartDate       *time.Time `json:"start_date"`
	Deadline        *time.Time `json:"deadline"`
	CompletionDate  *time.Time `json:"completion_date"`
	TotalBudget     *float64   `gorm:"type:numeric(12,2)" json:"total_budget"`
	RemainingBudget *float64   `gorm:"type:numeric(12,2)" json:"remaining_budget"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Relations
	Client    *Client        `gorm:"foreignKey:ClientID;constraint:OnDelete:SET NULL" json:"client,omitempty"`
	Resources []WorkResource `gorm:"foreignKey:WorkID;constraint:OnDelete:CASCADE" json:"resources,omitempty"`
	Expenses  []WorkExpense  `gorm:"foreignKey:WorkID;constraint:OnDelete:CASCADE" json:"expenses,omitempty"`
	Documents []WorkDocument `gorm:"foreignKey:WorkID;constraint:OnDelete:CASCADE" json:"documents,omitempty"`
}

func (w *Work) BeforeCreate(tx *gorm.DB) error {
	ensureID(&w.ID)
	if w.Status == "" {
		w.Status = WorkStatusPlanned
	}
	return nil
}

type WorkResource struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	WorkID       string    `gorm:"type:varchar(36);not null;index" json:"work_id"`
	TeamMemberID *string   `gorm:"type:varchar(36)" json:"team_member_id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Role         string    `gorm:"type:varchar(100)" json:"role"`
	ContactInfo  *string   `gorm:"type:text" json:"contact_info"`
	Rate         *float64  `gorm:"type:numeric(10,2)" json:"rate"`
	Notes        *string   `gorm:"type:text" json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (r *WorkResource) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

type ExpenseType string

const (
	ExpenseTypeService  ExpenseType = "service"
	ExpenseTypeMaterial ExpenseType = "material"
	ExpenseTypeTravel   ExpenseType = "travel"
	ExpenseTypeOther    ExpenseType = "other"
)

func (t ExpenseType) Valid() bool {
	switch t {
	case ExpenseTypeService, ExpenseTypeMaterial, ExpenseTypeTravel, ExpenseTypeOther:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusInvoiced PaymentStatus = "invoiced"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPaid, PaymentStatusPending, PaymentStatusInvoiced:
		return true
	}
	return false
}

type WorkExpense struct {
	ID            string        `gorm:"type:varchar(36);primaryKey" json:"id"`
	WorkID        string        `gorm:"type:varchar(36);not null;index" json:"work_id"`
	Category      string        `gorm:"type:varchar(100);not null" json:"category"`
	Amount        float64       `gorm:"type:numeric(12,2);not null" json:"amount"`
	Description   *string       `gorm:"type:text" json:"description"`
	Date          time.Time     `json:"date"`
	ResourceID    *string       `gorm:"type:varchar(36);index" json:"resource_id"`
	ExpenseType   ExpenseType   `gorm:"type:varchar(20);not null;default:'service'" json:"expense_type"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null;default:'paid'" json:"payment_status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`

	// Relations
	Resource *WorkResource `gorm:"foreignKey:ResourceID;constraint:OnDelete:SET NULL" json:"resource,omitempty"`
}

func (e *WorkExpense) BeforeCreate(tx *gorm.DB) error {
	ensureID(&e.ID)
	if e.ExpenseType == "" {
		e.ExpenseType = ExpenseTypeService
	}
	if e.PaymentStatus == "" {
		e.PaymentStatus = PaymentStatusPaid
	}
	return nil
}

type WorkDocument struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	WorkID       string    `gorm:"type:varchar(36);not null;index" json:"work_id"`
	Title        string    `gorm:"type:varchar(255);not null" json:"title"`
	URL          string    `gorm:"type:text;not null" json:"url"`
	Description  *string   `gorm:"type:text" json:"description"`
	DocumentType string    `gorm:"type:varchar(50);not null;default:'link'" json:"document_type"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (d *WorkDocument) BeforeCreate(tx *gorm.DB) error {
	ensureID(&d.ID)
	if d.DocumentType == "" {
		d.DocumentType = "link"
	}
	return nil
}
