package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/agency-ops-api/internal/models"
	"github.com/yukikurage/agency-ops-api/internal/repository"
	"github.com/yukikurage/agency-ops-api/internal/utils"
	"github.com/yukikurage/agency-ops-api/internal/validation"
	"gorm.io/gorm"
)

var ErrFinanceNotFound = errors.New("finance record not found")

// FinanceService handles finance records and their summary
type FinanceService struct {
	financeRepo repository.FinanceRepository
	clientRepo  repository.ClientRepository
}

// NewFinanceService creates a new FinanceService
func NewFinanceService(financeRepo repository.FinanceRepository, clientRepo repository.ClientRepository) *FinanceService {
	return &FinanceService{
		financeRepo: financeRepo,
		clientRepo:  clientRepo,
	}
}

// FinanceSummary holds the four ledger tiles
type FinanceSummary struct {
	TotalInvoiced   float64 `json:"total_invoiced"`
	TotalPayments   float64 `json:"total_payments"`
	TotalExpenses   float64 `json:"total_expenses"`
	PendingInvoices float64 `json:"pending_invoices"`
}

// ListFinancesInput represents filters for listing finance records
type ListFinancesInput struct {
	Type       string
	Status     string
	ClientID   string
	Pagination utils.PaginationParams
}

// FinanceInput carries a finance record write
type FinanceInput struct {
	ClientID string
	Amount   float64
	Type     string
	Status   string
	DueDate  *time.Time
}

func (s *FinanceService) ListFinances(ctx context.Context, input ListFinancesInput) ([]models.Finance, int64, error) {
	filter := repository.FinanceFilter{Pagination: input.Pagination}
	v := validation.Violations{}

	if input.Type != "" {
		t := models.FinanceType(input.Type)
		if !t.Valid() {
			v.Add("type", "must_be_one_of:invoice,payment,expense")
		}
		filter.Type = &t
	}
	if input.Status != "" {
		st := models.FinanceStatus(input.Status)
		if !st.Valid() {
			v.Add("status", "must_be_one_of:pending,paid,overdue,completed")
		}
		filter.Status = &st
	}
	if input.ClientID != "" {
		clientID := strings.ToLower(input.ClientID)
		filter.ClientID = &clientID
	}
	if err := v.Err(); err != nil {
		return nil, 0, err
	}

	records, total, err := s.financeRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list finance records: %w", err)
	}
	return records, total, nil
}

func (s *FinanceService) GetFinance(ctx context.Context, id string) (*models.Finance, error) {
	record, err := s.financeRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFinanceNotFound
		}
		return nil, fmt.Errorf("failed to find finance record: %w", err)
	}
	return record, nil
}

// CreateFinance validates and inserts a record. Amounts are rounded to cents.
func (s *FinanceService) CreateFinance(ctx context.Context, input FinanceInput) (*models.Finance, error) {
	record := &models.Finance{}
	if err := s.apply(ctx, record, input); err != nil {
		return nil, err
	}
	if err := s.financeRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create finance record: %w", err)
	}
	return s.GetFinance(ctx, record.ID)
}

func (s *FinanceService) UpdateFinance(ctx context.Context, id string, input FinanceInput) (*models.Finance, error) {
	record, err := s.GetFinance(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, record, input); err != nil {
		return nil, err
	}
	record.Client = nil
	if err := s.financeRepo.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to update finance record: %w", err)
	}
	return s.GetFinance(ctx, id)
}

func (s *FinanceService) DeleteFinance(ctx context.Context, id string) error {
	if err := s.financeRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFinanceNotFound
		}
		return fmt.Errorf("failed to delete finance record: %w", err)
	}
	return nil
}

// Summary aggregates the ledger, optionally for one client
func (s *FinanceService) Summary(ctx context.Context, clientID string) (FinanceSummary, error) {
	var scope *string
	if clientID != "" {
		lowered := strings.ToLower(clientID)
		scope = &lowered
	}

	totals, err := s.financeRepo.Totals(ctx, scope)
	if err != nil {
		return FinanceSummary{}, fmt.Errorf("failed to aggregate finances: %w", err)
	}
	return SummarizeFinances(totals), nil
}

// SummarizeFinances folds grouped totals into the four tiles
func SummarizeFinances(totals []repository.FinanceTotal) FinanceSummary {
	var sum FinanceSummary
	for _, t := range totals {
		switch t.Type {
		case models.FinanceTypeInvoice:
			sum.TotalInvoiced += t.Total
			if t.Status == models.FinanceStatusPending {
				sum.PendingInvoices += t.Total
			}
		case models.FinanceTypePayment:
			sum.TotalPayments += t.Total
		case models.FinanceTypeExpense:
			sum.TotalExpenses += t.Total
		}
	}
	sum.TotalInvoiced = utils.RoundCents(sum.TotalInvoiced)
	sum.TotalPayments = utils.RoundCents(sum.TotalPayments)
	sum.TotalExpenses = utils.RoundCents(sum.TotalExpenses)
	sum.PendingInvoices = utils.RoundCents(sum.PendingInvoices)
	return sum
}

func (s *FinanceService) apply(ctx context.Context, record *models.Finance, input FinanceInput) error {
	v := validation.Violations{}

	clientID := strings.ToLower(strings.TrimSpace(input.ClientID))
	validation.Required("client_id", clientID, v)
	financeType := models.FinanceType(input.Type)
	if !financeType.Valid() {
		v.Add("type", "must_be_one_of:invoice,payment,expense")
	}
	status := models.FinanceStatus(input.Status)
	if input.Status == "" {
		status = models.FinanceStatusPending
	} else if !status.Valid() {
		v.Add("status", "must_be_one_of:pending,paid,overdue,completed")
	}
	validation.NonNegativeFloat("amount", input.Amount, v)

	if err := v.Err(); err != nil {
		return err
	}

	if _, err := s.clientRepo.FindByID(ctx, clientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return validation.Violations{"client_id": "not_found"}
		}
		return fmt.Errorf("failed to find client: %w", err)
	}

	record.ClientID = &clientID
	record.Amount = utils.RoundCents(input.Amount)
	record.Type = financeType
	record.Status = status
	record.DueDate = input.DueDate
	return nil
}
