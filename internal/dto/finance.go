package dto

import (
	"time"

	"github.com/yukikurage/agency-ops-api/internal/models"
	"github.com/yukikurage/agency-ops-api/internal/utils"
)

// FinanceDTO represents a finance record joined with its client name
type FinanceDTO struct {
	ID            string               `json:"id"`
	ClientID      *string              `json:"client_id"`
	ClientName    *string              `json:"client_name"`
	ClientMissing bool                 `json:"client_missing"`
	Amount        float64              `json:"amount"`
	Type          models.FinanceType   `json:"type"`
	Status        models.FinanceStatus `json:"status"`
	DueDate       *time.Time           `json:"due_date"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

type FinanceListResponse struct {
	Finances   []FinanceDTO             `json:"finances"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

func ToFinanceDTO(record models.Finance) FinanceDTO {
	name, missing := clientRef(record.ClientID, record.Client)
	return FinanceDTO{
		ID:            record.ID,
		ClientID:      record.ClientID,
		ClientName:    name,
		ClientMissing: missing,
		Amount:        record.Amount,
		Type:          record.Type,
		Status:        record.Status,
		DueDate:       record.DueDate,
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}
}

func ToFinanceListResponse(records []models.Finance, params utils.PaginationParams, total int64) FinanceListResponse {
	items := make([]FinanceDTO, len(records))
	for i, r := range records {
		items[i] = ToFinanceDTO(r)
	}
	return FinanceListResponse{Finances: items, Pagination: params.Response(total)}
}
