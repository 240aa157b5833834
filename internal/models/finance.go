package models

import (
	"time"

	"gorm.io/gorm"
)

type FinanceType string

const (
	FinanceTypeInvoice FinanceType = "invoice"
	FinanceTypePayment FinanceType = "payment"
	FinanceTypeExpense FinanceType = "expense"
)

func (t FinanceType) Valid() bool {
	switch t {
	case FinanceTypeInvoice, FinanceTypePayment, FinanceTypeExpense:
		return true
	}
	return false
}

type FinanceStatus string

const (
	FinanceStatusPending   FinanceStatus = "pending"
	FinanceStatusPaid      FinanceStatus = "paid"
	FinanceStatusOverdue   FinanceStatus = "overdue"
	FinanceStatusCompleted FinanceStatus = "completed"
)

func (s FinanceStatus) Valid() bool {
	switch s {
	case FinanceStatusPending, FinanceStatusPaid, FinanceStatusOverdue, FinanceStatusCompleted:
		return true
	}
	return false
}

type Finance struct {
	ID        string        `gorm:"type:varchar(36);primaryKey" json:"id"`
	ClientID  *string       `gorm:"type:varchar(36);index" json:"client_id"`
	Amount    float64       `gorm:"type:numeric(12,2);not null" json:"amount"`
	Type      FinanceType   `gorm:"type:varchar(20);not null;index" json:"type"`
	Status    FinanceStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	DueDate   *time.Time    `json:"due_date"`
	CreatedAt time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	// Relations
	Client *Client `gorm:"foreignKey:ClientID;constraint:OnDelete:SET NULL" json:"client,omitempty"`
}

func (Finance) TableName() string { return "finances" }

func (f *Finance) BeforeCreate(tx *gorm.DB) error {
	ensureID(&f.ID)
	if f.Status == "" {
		f.Status = FinanceStatusPending
	}
	return nil
}
