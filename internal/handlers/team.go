package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/agency-ops-api/internal/errors"
	"github.com/yukikurage/agency-ops-api/internal/services"
)

type TeamHandler struct {
	teamService *services.TeamService
}

func NewTeamHandler(teamService *services.TeamService) *TeamHandler {
	return &TeamHandler{teamService: teamService}
}

type teamMemberRequest struct {
	Name       string   `json:"name"`
	Email      *string  `json:"email"`
	Role       string   `json:"role"`
	Skills     []string `json:"skills"`
	SkillsText *string  `json:"skills_text"`
	HourlyRate *float64 `json:"hourly_rate"`
	Status     string   `json:"status"`
}

func (r teamMemberRequest) input() services.TeamMemberInput {
	return services.TeamMemberInput{
		Name:       r.Name,
		Email:      r.Email,
		Role:       r.Role,
		Skills:     r.Skills,
		SkillsText: r.SkillsText,
		HourlyRate: r.HourlyRate,
		Status:     r.Status,
	}
}

// ListMembers returns team members ordered by name
func (h *TeamHandler) ListMembers(c *gin.Context) {
	members, err := h.teamService.ListMembers(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondTeamError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"team_members": members})
}

func (h *TeamHandler) GetMember(c *gin.Context) {
	member, err := h.teamService.GetMember(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondTeamError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func (h *TeamHandler) CreateMember(c *gin.Context) {
	var req teamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.teamService.CreateMember(c.Request.Context(), req.input())
	if err != nil {
		respondTeamError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

func (h *TeamHandler) UpdateMember(c *gin.Context) {
	var req teamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.teamService.UpdateMember(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		respondTeamError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func (h *TeamHandler) DeleteMember(c *gin.Context) {
	if err := h.teamService.DeleteMember(c.Request.Context(), c.Param("id")); err != nil {
		respondTeamError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Team member deleted successfully"})
}

func respondTeamError(c *gin.Context, err error) {
	if respondValidation(c, err) {
		return
	}
	switch {
	case errors.Is(err, services.ErrTeamMemberNotFound):
		apierrors.NotFound(c, "Team member not found")
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
