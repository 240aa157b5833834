package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/agency-ops-api/internal/dto"
	apierrors "github.com/yukikurage/agency-ops-api/internal/errors"
	"github.com/yukikurage/agency-ops-api/internal/services"
	"github.com/yukikurage/agency-ops-api/internal/utils"
	"github.com/yukikurage/agency-ops-api/internal/validation"
)

type FinanceHandler struct {
	financeService *services.FinanceService
}

func NewFinanceHandler(financeService *services.FinanceService) *FinanceHandler {
	return &FinanceHandler{financeService: financeService}
}

// financeRequest accepts amount as a JSON number or a numeric string
type financeRequest struct {
	ClientID string      `json:"client_id"`
	Amount   json.Number `json:"amount"`
	Type     string      `json:"type"`
	Status   string      `json:"status"`
	DueDate  *string     `json:"due_date"`
}

func (r financeRequest) input() (services.FinanceInput, error) {
	v := validation.Violations{}

	var amount float64
	if raw := strings.TrimSpace(r.Amount.String()); raw == "" {
		v.Add("amount", "required")
	} else if f, err := json.Number(raw).Float64(); err != nil {
		v.Add("amount", "must_be_number")
	} else {
		amount = f
	}

	dates := map[string]*time.Time{}
	parseDates(map[string]*string{"due_date": r.DueDate}, dates, v)

	if err := v.Err(); err != nil {
		return services.FinanceInput{}, err
	}
	return services.FinanceInput{
		ClientID: r.ClientID,
		Amount:   amount,
		Type:     r.Type,
		Status:   r.Status,
		DueDate:  dates["due_date"],
	}, nil
}

// ListFinances returns finance records, newest first
func (h *FinanceHandler) ListFinances(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	records, total, err := h.financeService.ListFinances(c.Request.Context(), services.ListFinancesInput{
		Type:       c.Query("type"),
		Status:     c.Query("status"),
		ClientID:   c.Query("client_id"),
		Pagination: params,
	})
	if err != nil {
		respondFinanceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToFinanceListResponse(records, params, total))
}

// Summary returns the ledger tiles, optionally scoped to one client
func (h *FinanceHandler) Summary(c *gin.Context) {
	summary, err := h.financeService.Summary(c.Request.Context(), c.Query("client_id"))
	if err != nil {
		respondFinanceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *FinanceHandler) GetFinance(c *gin.Context) {
	record, err := h.financeService.GetFinance(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondFinanceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToFinanceDTO(*record))
}

func (h *FinanceHandler) CreateFinance(c *gin.Context) {
	var req financeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	input, err := req.input()
	if err != nil {
		respondFinanceError(c, err)
		return
	}

	record, err := h.financeService.CreateFinance(c.Request.Context(), input)
	if err != nil {
		respondFinanceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToFinanceDTO(*record))
}

func (h *FinanceHandler) UpdateFinance(c *gin.Context) {
	var req financeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	input, err := req.input()
	if err != nil {
		respondFinanceError(c, err)
		return
	}

	record, err := h.financeService.UpdateFinance(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondFinanceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToFinanceDTO(*record))
}

func (h *FinanceHandler) DeleteFinance(c *gin.Context) {
	if err := h.financeService.DeleteFinance(c.Request.Context(), c.Param("id")); err != nil {
		respondFinanceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Finance record deleted successfully"})
}

func respondFinanceError(c *gin.Context, err error) {
	if respondValidation(c, err) {
		return
	}
	switch {
	case errors.Is(err, services.ErrFinanceNotFound):
		apierrors.NotFound(c, "Finance record not found")
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
