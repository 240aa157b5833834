package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/agency-ops-api/internal/dto"
	apierrors "github.com/yukikurage/agency-ops-api/internal/errors"
	"github.com/yukikurage/agency-ops-api/internal/services"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
}

func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetDashboard returns counters, finance tiles, recent activity and upcoming deadlines
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	d, err := h.dashboardService.Load(c.Request.Context())
	if err != nil {
		apierrors.InternalError(c, "Failed to load dashboard")
		return
	}
	c.JSON(http.StatusOK, dto.ToDashboardDTO(d))
}

// CaptureSnapshot stores today's counters as a comparison baseline
func (h *DashboardHandler) CaptureSnapshot(c *gin.Context) {
	snapshot, err := h.dashboardService.CaptureSnapshot(c.Request.Context())
	if err != nil {
		apierrors.InternalError(c, "Failed to capture snapshot")
		return
	}
	c.JSON(http.StatusCreated, snapshot)
}
