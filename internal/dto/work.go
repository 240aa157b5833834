package dto

import (
	"time"

	"github.com/yukikurage/agency-ops-api/internal/models"
	"github.com/yukikurage/agency-ops-api/internal/services"
	"github.com/yukikurage/agency-ops-api/internal/utils"
)

// WorkDTO represents a work in API responses
type WorkDTO struct {
	ID              string                `json:"id"`
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	ClientID        *string               `json:"client_id"`
	ClientName      *string               `json:"client_name"`
	ClientMissing   bool                  `json:"client_missing"`
	Status          models.WorkStatus     `json:"status"`
	StartDate       *time.Time            `json:"start_date"`
	Deadline        *time.Time            `json:"deadline"`
	CompletionDate  *time.Time            `json:"completion_date"`
	TotalBudget     *float64              `json:"total_budget"`
	RemainingBudget *float64              `json:"remaining_budget"`
	Utilization     float64               `json:"utilization"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
	Resources       []models.WorkResource `json:"resources,omitempty"`
	Expenses        []models.WorkExpense  `json:"expenses,omitempty"`
	Documents       []models.WorkDocument `json:"documents,omitempty"`
}

type WorkListResponse struct {
	Works      []WorkDTO                `json:"works"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ExpenseResponse carries an expense write and the work's new remaining budget
type ExpenseResponse struct {
	Expense         *models.WorkExpense `json:"expense"`
	RemainingBudget *float64            `json:"remaining_budget"`
}

func ToWorkDTO(work models.Work) WorkDTO {
	name, missing := clientRef(work.ClientID, work.Client)
	return WorkDTO{
		ID:              work.ID,
		Title:           work.Title,
		Description:     work.Description,
		ClientID:        work.ClientID,
		ClientName:      name,
		ClientMissing:   missing,
		Status:          work.Status,
		StartDate:       work.StartDate,
		Deadline:        work.Deadline,
		CompletionDate:  work.CompletionDate,
		TotalBudget:     work.TotalBudget,
		RemainingBudget: work.RemainingBudget,
		Utilization:     services.Utilization(work.TotalBudget, work.RemainingBudget),
		CreatedAt:       work.CreatedAt,
		UpdatedAt:       work.UpdatedAt,
		Resources:       work.Resources,
		Expenses:        work.Expenses,
		Documents:       work.Documents,
	}
}

func ToWorkListResponse(works []models.Work, params utils.PaginationParams, total int64) WorkListResponse {
	items := make([]WorkDTO, len(works))
	for i, w := range works {
		items[i] = ToWorkDTO(w)
	}
	return WorkListResponse{Works: items, Pagination: params.Response(total)}
}

func ToExpenseResponse(result *services.ExpenseResult) ExpenseResponse {
	return ExpenseResponse{Expense: result.Expense, RemainingBudget: result.RemainingBudget}
}
