package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/agency-ops-api/internal/dto"
	apierrors "github.com/yukikurage/agency-ops-api/internal/errors"
	"github.com/yukikurage/agency-ops-api/internal/middleware"
	"github.com/yukikurage/agency-ops-api/internal/models"
	"github.com/yukikurage/agency-ops-api/internal/services"
	"github.com/yukikurage/agency-ops-api/internal/utils"
	"github.com/yukikurage/agency-ops-api/internal/validation"
)

type WorkHandler struct {
	workService *services.WorkService
}

func NewWorkHandler(workService *services.WorkService) *WorkHandler {
	return &WorkHandler{workService: workService}
}

type workRequest struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	ClientID       *string  `json:"client_id"`
	Status         string   `json:"status"`
	StartDate      *string  `json:"start_date"`
	Deadline       *string  `json:"deadline"`
	CompletionDate *string  `json:"completion_date"`
	TotalBudget    *float64 `json:"total_budget"`
}

func (r workRequest) input() (services.WorkInput, error) {
	v := validation.Violations{}
	dates := map[string]*time.Time{}
	parseDates(map[string]*string{
		"start_date":      r.StartDate,
		"deadline":        r.Deadline,
		"completion_date": r.CompletionDate,
	}, dates, v)
	if err := v.Err(); err != nil {
		return services.WorkInput{}, err
	}

	return services.WorkInput{
		Title:          r.Title,
		Description:    r.Description,
		ClientID:       r.ClientID,
		Status:         r.Status,
		StartDate:      dates["start_date"],
		Deadline:       dates["deadline"],
		CompletionDate: dates["completion_date"],
		TotalBudget:    r.TotalBudget,
	}, nil
}

type resourceRequest struct {
	TeamMemberID *string  `json:"team_member_id"`
	Name         string   `json:"name"`
	Role         string   `json:"role"`
	ContactInfo  *string  `json:"contact_info"`
	Rate         *float64 `json:"rate"`
	Notes        *string  `json:"notes"`
}

type expenseRequest struct {
	Category      string  `json:"category"`
	Amount        float64 `json:"amount"`
	Description   *string `json:"description"`
	Date          *string `json:"date"`
	ResourceID    *string `json:"resource_id"`
	ExpenseType   string  `json:"expense_type"`
	PaymentStatus string  `json:"payment_status"`
}

func (r expenseRequest) input() (services.ExpenseInput, error) {
	v := validation.Violations{}
	dates := map[string]*time.Time{}
	parseDates(map[string]*string{"date": r.Date}, dates, v)
	if err := v.Err(); err != nil {
		return services.ExpenseInput{}, err
	}

	return services.ExpenseInput{
		Category:      r.Category,
		Amount:        r.Amount,
		Description:   r.Description,
		Date:          dates["date"],
		ResourceID:    r.ResourceID,
		ExpenseType:   r.ExpenseType,
		PaymentStatus: r.PaymentStatus,
	}, nil
}

type documentRequest struct {
	Title        string  `json:"title"`
	URL          string  `json:"url"`
	Description  *string `json:"description"`
	DocumentType string  `json:"document_type"`
}

// ListWorks returns works joined with their client name
func (h *WorkHandler) ListWorks(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	works, total, err := h.workService.ListWorks(c.Request.Context(), services.ListWorksInput{
		Status:     c.Query("status"),
		ClientID:   c.Query("client_id"),
		Pagination: params,
	})
	if err != nil {
		respondWorkError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkListResponse(works, params, total))
}

// GetWork returns a work with resources, expenses and documents
func (h *WorkHandler) GetWork(c *gin.Context) {
	work, err := h.workService.GetWork(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWorkError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToWorkDTO(*work))
}

func (h *WorkHandler) CreateWork(c *gin.Context) {
	var req workRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	input, err := req.input()
	if err != nil {
		respondWorkError(c, err)
		return
	}

	work, err := h.workService.CreateWork(c.Request.Context(), input)
	if err != nil {
		respondWorkError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToWorkDTO(*work))
}

func (h *WorkHandler) UpdateWork(c *gin.Context) {
	var req workRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	input, err := req.input()
	if err != nil {
		respondWorkError(c, err)
		return
	}

	work, err := h.workService.UpdateWork(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondWorkError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToWorkDTO(*work))
}

// DeleteWork deletes a work together with its resources, expenses and documents
func (h *WorkHandler) DeleteWork(c *gin.Context) {
	if err := h.workService.DeleteWork(c.Request.Context(), c.Param("id")); err != nil {
		respondWorkError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Work deleted successfully"})
}

func (h *WorkHandler) Budget(c *gin.Context) {
	view, err := h.workService.Budget(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWorkError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ReconcileBudget recomputes the remaining budget from the recorded expenses
func (h *WorkHandler) ReconcileBudget(c *gin.Context) {
	view, err := h.workService.Reconcile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWorkError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// currentWork reads the work loaded by middleware.RequireWork
func currentWork(c *gin.Context) (*models.Work, bool) {
	work, ok := middleware.GetWork(c)
	if !ok {
		apierrors.InternalError(c, "Work not loaded")
		return nil, false
	}
	return work, true
}

func (h *WorkHandler) ListResources(c *gin.Context) {
	work, ok := currentWork(c)
	if !ok {
		return
	}
	resources, err := h.workService.ListResources(c.Request.Context(), work.ID)
	if err != nil {
		respondWorkError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resources": resources})
}

func (h *WorkHandler) CreateResource(c *gin.Context) {
	work, ok := currentWork(c)
	if !ok {
		return
	}
	var req resourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	resource, err := h.workService.CreateResource(c.Request.Context(), work.ID, services.ResourceInput(req))
	if err != nil {
		respondWorkError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resource)
}

func (h *WorkHandler) UpdateResource(c *gin.Context) {
	work, ok := currentWork(c)
	if !ok {
		return
	}
	var req resourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	resource, err := h.workService.UpdateResource(c.Request.Context(), work.ID, c.Param("child_id"), services.ResourceInput(req))
	if err != nil {
		respondWorkError(c, err)
		return
	}
	c.JSON(http.StatusOK, resource)
}

// DeleteResource removes a resource; its expenses stay but lose the link
func (h *WorkHandler) DeleteResource(c *gin.Context) {
	work, ok := currentWork(c)
	if !ok {
		return
	}
	if err := h.workService.DeleteResource(c.Request.Context(), work.ID, c.Param("child_id")); err != nil {
		respondWorkError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Resource deleted successfully"})
}

func (h *WorkHandler) ListExpenses(c *gin.Context) {
	work, ok := currentWork(c)
	if !ok {
		return
	}
	expenses, err := h.workService.ListExpenses(c.Request.Context(), work.ID)
	if err != nil {
		respondWorkError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expenses": expenses, "remaining_budget": work.RemainingBudget})
}

func (h *WorkHandler) CreateExpense(c *gin.Context) {
	work, ok := currentWork(c)
	if !ok {
		return
	}
	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	input, err := req.input()
	if err != nil {
		respondWorkError(c, err)
		return
	}

	result, err := h.workService.CreateExpense(c.Request.Context(), work.ID, input)
	if err != nil {
		respondWorkError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToExpenseResponse(result))
}

func (h *WorkHandler) UpdateExpense(c *gin.Context) {
	work, ok := currentWork(c)
	if !ok {
		return
	}
	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	input, err := req.input()
	if err != nil {
		respondWorkError(c, err)
		return
	}

	result, err := h.workService.UpdateExpense(c.Request.Context(), work.ID, c.Param("child_id"), input)
	if err != nil {
		respondWorkError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToExpenseResponse(result))
}

func (h *WorkHandler) DeleteExpense(c *gin.Context) {
	work, ok := currentWork(c)
	if !ok {
		return
	}
	result, err := h.workService.DeleteExpense(c.Request.Context(), work.ID, c.Param("child_id"))
	if err != nil {
		respondWorkError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToExpenseResponse(result))
}

func (h *WorkHandler) ListDocuments(c *gin.Context) {
	work, ok := currentWork(c)
	if !ok {
		return
	}
	documents, err := h.workService.ListDocuments(c.Request.Context(), work.ID)
	if err != nil {
		respondWorkError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": documents})
}

func (h *WorkHandler) CreateDocument(c *gin.Context) {
	work, ok := currentWork(c)
	if !ok {
		return
	}
	var req documentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	document, err := h.workService.CreateDocument(c.Request.Context(), work.ID, services.DocumentInput(req))
	if err != nil {
		respondWorkError(c, err)
		return
	}
	c.JSON(http.StatusCreated, document)
}

func (h *WorkHandler) UpdateDocument(c *gin.Context) {
	work, ok := currentWork(c)
	if !ok {
		return
	}
	var req documentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	document, err := h.workService.UpdateDocument(c.Request.Context(), work.ID, c.Param("child_id"), services.DocumentInput(req))
	if err != nil {
		respondWorkError(c, err)
		return
	}
	c.JSON(http.StatusOK, document)
}

func (h *WorkHandler) DeleteDocument(c *gin.Context) {
	work, ok := currentWork(c)
	if !ok {
		return
	}
	if err := h.workService.DeleteDocument(c.Request.Context(), work.ID, c.Param("child_id")); err != nil {
		respondWorkError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Document deleted successfully"})
}

func respondWorkError(c *gin.Context, err error) {
	if respondValidation(c, err) {
		return
	}
	switch {
	case errors.Is(err, services.ErrWorkNotFound):
		apierrors.NotFound(c, "Work not found")
	case errors.Is(err, services.ErrResourceNotFound):
		apierrors.NotFound(c, "Resource not found")
	case errors.Is(err, services.ErrExpenseNotFound):
		apierrors.NotFound(c, "Expense not found")
	case errors.Is(err, services.ErrDocumentNotFound):
		apierrors.NotFound(c, "Document not found")
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
