package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/yukikurage/agency-ops-api/internal/logging"
	"github.com/yukikurage/agency-ops-api/internal/models"
	"github.com/yukikurage/agency-ops-api/internal/repository"
	"github.com/yukikurage/agency-ops-api/internal/utils"
	"github.com/yukikurage/agency-ops-api/internal/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrWorkNotFound     = errors.New("work not found")
	ErrResourceNotFound = errors.New("work resource not found")
	ErrExpenseNotFound  = errors.New("work expense not found")
	ErrDocumentNotFound = errors.New("work document not found")
)

// WorkService handles works and their resources, expenses and documents
type WorkService struct {
	workRepo   repository.WorkRepository
	clientRepo repository.ClientRepository
	memberRepo repository.TeamMemberRepository
	log        *zap.Logger
	now        func() time.Time
}

// NewWorkService creates a new WorkService
func NewWorkService(workRepo repository.WorkRepository, clientRepo repository.ClientRepository, memberRepo repository.TeamMemberRepository, log *zap.Logger) *WorkService {
	return &WorkService{
		workRepo:   workRepo,
		clientRepo: clientRepo,
		memberRepo: memberRepo,
		log:        logging.OrNop(log),
		now:        time.Now,
	}
}

// ListWorksInput represents filters for listing works
type ListWorksInput struct {
	Status     string
	ClientID   string
	Pagination utils.PaginationParams
}

// WorkInput carries a work write
type WorkInput struct {
	Title          string
	Description    string
	ClientID       *string
	Status         string
	StartDate      *time.Time
	Deadline       *time.Time
	CompletionDate *time.Time
	TotalBudget    *float64
}

type ResourceInput struct {
	TeamMemberID *string
	Name         string
	Role         string
	ContactInfo  *string
	Rate         *float64
	Notes        *string
}

type ExpenseInput struct {
	Category      string
	Amount        float64
	Description   *string
	Date          *time.Time
	ResourceID    *string
	ExpenseType   string
	PaymentStatus string
}

type DocumentInput struct {
	Title        string
	URL          string
	Description  *string
	DocumentType string
}

// ExpenseResult is an expense write together with the work's new remaining budget
type ExpenseResult struct {
	Expense         *models.WorkExpense
	RemainingBudget *float64
}

// SpendingBreakdown is one row of a budget breakdown
type SpendingBreakdown struct {
	Key        string  `json:"key"`
	Label      string  `json:"label"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

// BudgetView is the derived spending picture of a work
type BudgetView struct {
	WorkID          string              `json:"work_id"`
	TotalBudget     *float64            `json:"total_budget"`
	RemainingBudget *float64            `json:"remaining_budget"`
	TotalSpent      float64             `json:"total_spent"`
	Utilization     float64             `json:"utilization"`
	ByCategory      []SpendingBreakdown `json:"by_category"`
	ByResource      []SpendingBreakdown `json:"by_resource"`
}

func (s *WorkService) ListWorks(ctx context.Context, input ListWorksInput) ([]models.Work, int64, error) {
	filter := repository.WorkFilter{Pagination: input.Pagination}
	if input.Status != "" {
		status := models.WorkStatus(input.Status)
		if !status.Valid() {
			return nil, 0, validation.Violations{"status": "must_be_one_of:planned,in_progress,completed,canceled"}
		}
		filter.Status = &status
	}
	if input.ClientID != "" {
		clientID := strings.ToLower(input.ClientID)
		filter.ClientID = &clientID
	}

	works, total, err := s.workRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list works: %w", err)
	}
	return works, total, nil
}

// GetWork returns a work with its client and every child record
func (s *WorkService) GetWork(ctx context.Context, id string) (*models.Work, error) {
	return s.findWork(ctx, id, "Client", "Resources", "Expenses", "Documents")
}

// CreateWork inserts a work. The remaining budget starts at the total budget.
func (s *WorkService) CreateWork(ctx context.Context, input WorkInput) (*models.Work, error) {
	work := &models.Work{}
	if err := s.applyWork(ctx, work, input); err != nil {
		return nil, err
	}
	if work.TotalBudget != nil {
		remaining := *work.TotalBudget
		work.RemainingBudget = &remaining
	}

	if err := s.workRepo.Create(ctx, work); err != nil {
		return nil, fmt.Errorf("failed to create work: %w", err)
	}
	return s.GetWork(ctx, work.ID)
}

// UpdateWork updates a work. A changed total budget shifts the remaining budget by the same delta.
func (s *WorkService) UpdateWork(ctx context.Context, id string, input WorkInput) (*models.Work, error) {
	work, err := s.findWork(ctx, id)
	if err != nil {
		return nil, err
	}

	var previousTotal *float64
	if work.TotalBudget != nil {
		v := *work.TotalBudget
		previousTotal = &v
	}

	if err := s.applyWork(ctx, work, input); err != nil {
		return nil, err
	}

	if err := s.workRepo.Update(ctx, work, previousTotal); err != nil {
		return nil, fmt.Errorf("failed to update work: %w", err)
	}
	return s.GetWork(ctx, id)
}

// DeleteWork deletes a work and all of its child records
func (s *WorkService) DeleteWork(ctx context.Context, id string) error {
	if err := s.workRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrWorkNotFound
		}
		return fmt.Errorf("failed to delete work: %w", err)
	}
	return nil
}

// Budget computes spending, utilization and breakdowns for a work
func (s *WorkService) Budget(ctx context.Context, id string) (*BudgetView, error) {
	work, err := s.findWork(ctx, id, "Resources", "Expenses")
	if err != nil {
		return nil, err
	}
	view := BuildBudgetView(work)
	return &view, nil
}

// Reconcile recomputes the remaining budget from the expense rows
func (s *WorkService) Reconcile(ctx context.Context, id string) (*BudgetView, error) {
	before, err := s.findWork(ctx, id)
	if err != nil {
		return nil, err
	}

	work, err := s.workRepo.Reconcile(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkNotFound
		}
		return nil, fmt.Errorf("failed to reconcile budget: %w", err)
	}

	if !sameAmount(before.RemainingBudget, work.RemainingBudget) {
		s.log.Warn("remaining budget drifted from expenses",
			zap.String("work_id", id),
			zap.Any("stored", before.RemainingBudget),
			zap.Any("recomputed", work.RemainingBudget),
		)
	}
	return s.Budget(ctx, id)
}

// BuildBudgetView derives the budget picture from a work with resources and expenses loaded
func BuildBudgetView(work *models.Work) BudgetView {
	view := BudgetView{
		WorkID:          work.ID,
		TotalBudget:     work.TotalBudget,
		RemainingBudget: work.RemainingBudget,
		Utilization:     Utilization(work.TotalBudget, work.RemainingBudget),
		ByCategory:      []SpendingBreakdown{},
		ByResource:      []SpendingBreakdown{},
	}

	resourceNames := make(map[string]string, len(work.Resources))
	for _, r := range work.Resources {
		resourceNames[r.ID] = r.Name
	}

	byCategory := map[string]float64{}
	byResource := map[string]float64{}
	for _, e := range work.Expenses {
		view.TotalSpent += e.Amount
		byCategory[e.Category] += e.Amount
		if e.ResourceID != nil {
			byResource[*e.ResourceID] += e.Amount
		}
	}
	view.TotalSpent = utils.RoundCents(view.TotalSpent)

	for category, amount := range byCategory {
		view.ByCategory = append(view.ByCategory, breakdown(category, category, amount, work.TotalBudget))
	}
	for id, amount := range byResource {
		label, ok := resourceNames[id]
		if !ok {
			label = id
		}
		view.ByResource = append(view.ByResource, breakdown(id, label, amount, work.TotalBudget))
	}
	sortBreakdown(view.ByCategory)
	sortBreakdown(view.ByResource)
	return view
}

// Utilization is the spent share of the total budget in percent, within [0, 100].
// A missing budget counts as 0 and a zero budget as fully used.
func Utilization(total, remaining *float64) float64 {
	if total == nil {
		return 0
	}
	if *total <= 0 {
		return 100
	}
	rem := *total
	if remaining != nil {
		rem = *remaining
	}
	u := (*total - rem) / *total * 100
	return math.Round(math.Max(0, math.Min(100, u))*100) / 100
}

func breakdown(key, label string, amount float64, total *float64) SpendingBreakdown {
	b := SpendingBreakdown{Key: key, Label: label, Amount: utils.RoundCents(amount)}
	if total != nil && *total > 0 {
		b.Percentage = math.Round(amount / *total * 10000) / 100
	}
	return b
}

func sortBreakdown(rows []SpendingBreakdown) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Amount != rows[j].Amount {
			return rows[i].Amount > rows[j].Amount
		}
		return rows[i].Key < rows[j].Key
	})
}

func sameAmount(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return math.Abs(*a-*b) < 0.005
}

func (s *WorkService) ListResources(ctx context.Context, workID string) ([]models.WorkResource, error) {
	resources, err := s.workRepo.ListResources(ctx, workID)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	return resources, nil
}

// CreateResource adds a resource. A linked team member fills in missing name, role and rate.
func (s *WorkService) CreateResource(ctx context.Context, workID string, input ResourceInput) (*models.WorkResource, error) {
	resource := &models.WorkResource{WorkID: workID}
	if err := s.applyResource(ctx, resource, input); err != nil {
		return nil, err
	}
	if err := s.workRepo.CreateResource(ctx, resource); err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return resource, nil
}

func (s *WorkService) UpdateResource(ctx context.Context, workID, id string, input ResourceInput) (*models.WorkResource, error) {
	resource, err := s.workRepo.FindResource(ctx, workID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, fmt.Errorf("failed to find resource: %w", err)
	}
	if err := s.applyResource(ctx, resource, input); err != nil {
		return nil, err
	}
	if err := s.workRepo.UpdateResource(ctx, resource); err != nil {
		return nil, fmt.Errorf("failed to update resource: %w", err)
	}
	return resource, nil
}

func (s *WorkService) DeleteResource(ctx context.Context, workID, id string) error {
	if err := s.workRepo.DeleteResource(ctx, workID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrResourceNotFound
		}
		return fmt.Errorf("failed to delete resource: %w", err)
	}
	return nil
}

func (s *WorkService) ListExpenses(ctx context.Context, workID string) ([]models.WorkExpense, error) {
	expenses, err := s.workRepo.ListExpenses(ctx, workID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return expenses, nil
}

// CreateExpense records an expense and decrements the remaining budget in one transaction
func (s *WorkService) CreateExpense(ctx context.Context, workID string, input ExpenseInput) (*ExpenseResult, error) {
	expense := &models.WorkExpense{WorkID: workID}
	if err := s.applyExpense(ctx, expense, input); err != nil {
		return nil, err
	}
	if err := s.workRepo.CreateExpense(ctx, expense); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkNotFound
		}
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}
	return s.expenseResult(ctx, expense)
}

// UpdateExpense updates an expense and applies the amount difference to the remaining budget
func (s *WorkService) UpdateExpense(ctx context.Context, workID, id string, input ExpenseInput) (*ExpenseResult, error) {
	expense, err := s.workRepo.FindExpense(ctx, workID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to find expense: %w", err)
	}

	previousAmount := expense.Amount
	if err := s.applyExpense(ctx, expense, input); err != nil {
		return nil, err
	}
	if err := s.workRepo.UpdateExpense(ctx, expense, previousAmount); err != nil {
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}
	return s.expenseResult(ctx, expense)
}

// DeleteExpense deletes an expense and returns its amount to the remaining budget
func (s *WorkService) DeleteExpense(ctx context.Context, workID, id string) (*ExpenseResult, error) {
	expense, err := s.workRepo.DeleteExpense(ctx, workID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to delete expense: %w", err)
	}
	return s.expenseResult(ctx, expense)
}

func (s *WorkService) expenseResult(ctx context.Context, expense *models.WorkExpense) (*ExpenseResult, error) {
	work, err := s.findWork(ctx, expense.WorkID)
	if err != nil {
		return nil, err
	}
	return &ExpenseResult{Expense: expense, RemainingBudget: work.RemainingBudget}, nil
}

func (s *WorkService) ListDocuments(ctx context.Context, workID string) ([]models.WorkDocument, error) {
	documents, err := s.workRepo.ListDocuments(ctx, workID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return documents, nil
}

func (s *WorkService) CreateDocument(ctx context.Context, workID string, input DocumentInput) (*models.WorkDocument, error) {
	document := &models.WorkDocument{WorkID: workID}
	if err := applyDocument(document, input); err != nil {
		return nil, err
	}
	if err := s.workRepo.CreateDocument(ctx, document); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	return document, nil
}

func (s *WorkService) UpdateDocument(ctx context.Context, workID, id string, input DocumentInput) (*models.WorkDocument, error) {
	document, err := s.workRepo.FindDocument(ctx, workID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to find document: %w", err)
	}
	if err := applyDocument(document, input); err != nil {
		return nil, err
	}
	if err := s.workRepo.UpdateDocument(ctx, document); err != nil {
		return nil, fmt.Errorf("failed to update document: %w", err)
	}
	return document, nil
}

func (s *WorkService) DeleteDocument(ctx context.Context, workID, id string) error {
	if err := s.workRepo.DeleteDocument(ctx, workID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDocumentNotFound
		}
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func (s *WorkService) findWork(ctx context.Context, id string, preload ...string) (*models.Work, error) {
	work, err := s.workRepo.FindByID(ctx, id, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkNotFound
		}
		return nil, fmt.Errorf("failed to find work: %w", err)
	}
	return work, nil
}

func (s *WorkService) applyWork(ctx context.Context, work *models.Work, input WorkInput) error {
	v := validation.Violations{}

	title := strings.TrimSpace(input.Title)
	validation.Required("title", title, v)

	status := models.WorkStatus(input.Status)
	if input.Status == "" {
		status = models.WorkStatusPlanned
	} else if !status.Valid() {
		v.Add("status", "must_be_one_of:planned,in_progress,completed,canceled")
	}
	if input.TotalBudget != nil {
		validation.NonNegativeFloat("total_budget", *input.TotalBudget, v)
	}
	if input.StartDate != nil && input.Deadline != nil && input.Deadline.Before(*input.StartDate) {
		v.Add("deadline", "before_start_date")
	}
	if err := v.Err(); err != nil {
		return err
	}

	var clientID *string
	if input.ClientID != nil && *input.ClientID != "" {
		id := strings.ToLower(*input.ClientID)
		if _, err := s.clientRepo.FindByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return validation.Violations{"client_id": "not_found"}
			}
			return fmt.Errorf("failed to find client: %w", err)
		}
		clientID = &id
	}

	work.Title = title
	work.Description = input.Description
	work.ClientID = clientID
	work.Client = nil
	work.Status = status
	work.StartDate = input.StartDate
	work.Deadline = input.Deadline
	work.CompletionDate = input.CompletionDate
	if status == models.WorkStatusCompleted && work.CompletionDate == nil {
		now := s.now().UTC()
		work.CompletionDate = &now
	}
	if input.TotalBudget != nil {
		total := utils.RoundCents(*input.TotalBudget)
		work.TotalBudget = &total
	} else {
		work.TotalBudget = nil
	}
	return nil
}

func (s *WorkService) applyResource(ctx context.Context, resource *models.WorkResource, input ResourceInput) error {
	name := strings.TrimSpace(input.Name)
	role := strings.TrimSpace(input.Role)
	rate := input.Rate

	var memberID *string
	if input.TeamMemberID != nil && *input.TeamMemberID != "" {
		member, err := s.memberRepo.FindByID(ctx, *input.TeamMemberID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return validation.Violations{"team_member_id": "not_found"}
			}
			return fmt.Errorf("failed to find team member: %w", err)
		}
		if name == "" {
			name = member.Name
		}
		if role == "" {
			role = member.Role
		}
		if rate == nil {
			rate = member.HourlyRate
		}
		id := member.ID
		memberID = &id
	}

	v := validation.Violations{}
	validation.Required("name", name, v)
	if rate != nil {
		validation.NonNegativeFloat("rate", *rate, v)
	}
	if err := v.Err(); err != nil {
		return err
	}

	resource.TeamMemberID = memberID
	resource.Name = name
	resource.Role = role
	resource.ContactInfo = input.ContactInfo
	resource.Notes = input.Notes
	if rate != nil {
		r := utils.RoundCents(*rate)
		resource.Rate = &r
	} else {
		resource.Rate = nil
	}
	return nil
}

func (s *WorkService) applyExpense(ctx context.Context, expense *models.WorkExpense, input ExpenseInput) error {
	v := validation.Violations{}

	category := strings.TrimSpace(input.Category)
	validation.Required("category", category, v)
	validation.PositiveFloat("amount", input.Amount, v)

	expenseType := models.ExpenseType(input.ExpenseType)
	if input.ExpenseType == "" {
		expenseType = models.ExpenseTypeService
	} else if !expenseType.Valid() {
		v.Add("expense_type", "must_be_one_of:service,material,travel,other")
	}
	paymentStatus := models.PaymentStatus(input.PaymentStatus)
	if input.PaymentStatus == "" {
		paymentStatus = models.PaymentStatusPaid
	} else if !paymentStatus.Valid() {
		v.Add("payment_status", "must_be_one_of:paid,pending,invoiced")
	}
	if err := v.Err(); err != nil {
		return err
	}

	var resourceID *string
	if input.ResourceID != nil && *input.ResourceID != "" {
		if _, err := s.workRepo.FindResource(ctx, expense.WorkID, *input.ResourceID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return validation.Violations{"resource_id": "not_found"}
			}
			return fmt.Errorf("failed to find resource: %w", err)
		}
		id := *input.ResourceID
		resourceID = &id
	}

	date := utils.StartOfDay(s.now().UTC())
	if input.Date != nil {
		date = *input.Date
	}

	expense.Category = category
	expense.Amount = utils.RoundCents(input.Amount)
	expense.Description = input.Description
	expense.Date = date
	expense.ResourceID = resourceID
	expense.Resource = nil
	expense.ExpenseType = expenseType
	expense.PaymentStatus = paymentStatus
	return nil
}

func applyDocument(document *models.WorkDocument, input DocumentInput) error {
	v := validation.Violations{}

	title := strings.TrimSpace(input.Title)
	validation.Required("title", title, v)
	link := strings.TrimSpace(input.URL)
	if u, err := url.ParseRequestURI(link); err != nil || u.Host == "" {
		v.Add("url", "invalid_url")
	}
	if err := v.Err(); err != nil {
		return err
	}

	docType := strings.TrimSpace(input.DocumentType)
	if docType == "" {
		docType = "link"
	}

	document.Title = title
	document.URL = link
	document.Description = input.Description
	document.DocumentType = docType
	return nil
}
