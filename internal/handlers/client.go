package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/agency-ops-api/internal/dto"
	apierrors "github.com/yukikurage/agency-ops-api/internal/errors"
	"github.com/yukikurage/agency-ops-api/internal/models"
	"github.com/yukikurage/agency-ops-api/internal/services"
	"github.com/yukikurage/agency-ops-api/internal/utils"
)

type ClientHandler struct {
	clientService *services.ClientService
}

func NewClientHandler(clientService *services.ClientService) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

// clientRequest is shared by PUT and PATCH. Raw JSON fields stay nil when absent.
type clientRequest struct {
	Name               *string `json:"name"`
	Email              *string `json:"email"`
	Status             *string `json:"status"`
	OnboardingDocument *string `json:"onboarding_document"`
	CurrentPosition    *string `json:"current_position"`
	ClientGoal         *string `json:"client_goal"`
	Notes              *string `json:"notes"`
	ChannelDetails     *string `json:"channel_details"`
	ProjectIdeas       *string `json:"project_ideas"`
	AccountDetails     *string `json:"account_details"`
	VideoDescription   *string `json:"video_description"`
	InspirationList    *string `json:"inspiration_list"`
	ScriptsDocument    *string `json:"scripts_document"`

	OnboardingChecklist json.RawMessage `json:"onboarding_checklist"`
	Budget              json.RawMessage `json:"budget"`
	Timeline            json.RawMessage `json:"timeline"`
	TrackingResults     json.RawMessage `json:"tracking_results"`
	HiredPeople         json.RawMessage `json:"hired_people"`
	VideoFolder         json.RawMessage `json:"video_folder"`
}

func (r clientRequest) input() services.ClientInput {
	fields := map[string]json.RawMessage{}
	raw := map[string]json.RawMessage{
		models.FieldOnboardingChecklist: r.OnboardingChecklist,
		models.FieldBudget:              r.Budget,
		models.FieldTimeline:            r.Timeline,
		models.FieldTrackingResults:     r.TrackingResults,
		models.FieldHiredPeople:         r.HiredPeople,
		models.FieldVideoFolder:         r.VideoFolder,
	}
	for name, value := range raw {
		if value != nil {
			fields[name] = value
		}
	}

	return services.ClientInput{
		Name:               r.Name,
		Email:              r.Email,
		Status:             r.Status,
		OnboardingDocument: r.OnboardingDocument,
		CurrentPosition:    r.CurrentPosition,
		ClientGoal:         r.ClientGoal,
		Notes:              r.Notes,
		ChannelDetails:     r.ChannelDetails,
		ProjectIdeas:       r.ProjectIdeas,
		AccountDetails:     r.AccountDetails,
		VideoDescription:   r.VideoDescription,
		InspirationList:    r.InspirationList,
		ScriptsDocument:    r.ScriptsDocument,
		Fields:             fields,
	}
}

// ListClients returns clients filtered by status and search text
func (h *ClientHandler) ListClients(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	clients, total, err := h.clientService.ListClients(c.Request.Context(), services.ListClientsInput{
		Status:     c.Query("status"),
		Search:     c.Query("search"),
		Sort:       c.Query("sort"),
		Order:      c.Query("order"),
		Pagination: params,
	})
	if err != nil {
		respondClientError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToClientListResponse(clients, params, total))
}

// GetClient returns a client with its JSON fields repaired for display
func (h *ClientHandler) GetClient(c *gin.Context) {
	detail, err := h.clientService.GetClient(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondClientError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToClientDTO(detail))
}

// CreateClient inserts a client from a name and optional email
func (h *ClientHandler) CreateClient(c *gin.Context) {
	type CreateClientRequest struct {
		Name  string  `json:"name" binding:"required"`
		Email *string `json:"email"`
	}

	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	client, err := h.clientService.CreateClient(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		respondClientError(c, err)
		return
	}

	detail, err := h.clientService.GetClient(c.Request.Context(), client.ID)
	if err != nil {
		respondClientError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToClientDTO(detail))
}

// ReplaceClient overwrites the whole record
func (h *ClientHandler) ReplaceClient(c *gin.Context) {
	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	detail, err := h.clientService.ReplaceClient(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		respondClientError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToClientDTO(detail))
}

// PatchClient updates only the fields present in the body
func (h *ClientHandler) PatchClient(c *gin.Context) {
	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	detail, err := h.clientService.PatchClient(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		respondClientError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToClientDTO(detail))
}

func (h *ClientHandler) DeleteClient(c *gin.Context) {
	if err := h.clientService.DeleteClient(c.Request.Context(), c.Param("id")); err != nil {
		respondClientError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Client deleted successfully"})
}

// RepairClient persists repaired JSON fields
func (h *ClientHandler) RepairClient(c *gin.Context) {
	detail, err := h.clientService.RepairClient(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondClientError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToClientDTO(detail))
}

func respondClientError(c *gin.Context, err error) {
	if respondValidation(c, err) {
		return
	}
	switch {
	case errors.Is(err, services.ErrClientNotFound):
		apierrors.NotFound(c, "Client not found")
	case errors.Is(err, services.ErrClientNameRequired),
		errors.Is(err, services.ErrInvalidClientStatus):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
