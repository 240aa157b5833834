package dto

import (
	"time"

	"github.com/yukikurage/agency-ops-api/internal/models"
	"github.com/yukikurage/agency-ops-api/internal/services"
	"github.com/yukikurage/agency-ops-api/internal/utils"
)

// ClientListItemDTO represents a client in list responses (minimal data)
type ClientListItemDTO struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Email     *string             `json:"email"`
	Status    models.ClientStatus `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// ClientDTO represents a client with decoded JSON fields
type ClientDTO struct {
	ClientListItemDTO
	OnboardingDocument string `json:"onboarding_document"`
	CurrentPosition    string `json:"current_position"`
	ClientGoal         string `json:"client_goal"`
	Notes              string `json:"notes"`
	ChannelDetails     string `json:"channel_details"`
	ProjectIdeas       string `json:"project_ideas"`
	AccountDetails     string `json:"account_details"`
	VideoDescription   string `json:"video_description"`
	InspirationList    string `json:"inspiration_list"`
	ScriptsDocument    string `json:"scripts_document"`
	models.ClientFields
	RepairedFields []string `json:"repaired_fields"`
}

// ClientListResponse represents a paginated list of clients
type ClientListResponse struct {
	Clients    []ClientListItemDTO      `json:"clients"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

func ToClientListItemDTO(client models.Client) ClientListItemDTO {
	return ClientListItemDTO{
		ID:        client.ID,
		Name:      client.Name,
		Email:     client.Email,
		Status:    client.Status,
		CreatedAt: client.CreatedAt,
		UpdatedAt: client.UpdatedAt,
	}
}

// ToClientDTO converts a client detail to ClientDTO
func ToClientDTO(detail *services.ClientDetail) ClientDTO {
	c := detail.Client
	repaired := detail.RepairedFields
	if repaired == nil {
		repaired = []string{}
	}
	return ClientDTO{
		ClientListItemDTO:  ToClientListItemDTO(*c),
		OnboardingDocument: c.OnboardingDocument,
		CurrentPosition:    c.CurrentPosition,
		ClientGoal:         c.ClientGoal,
		Notes:              c.Notes,
		ChannelDetails:     c.ChannelDetails,
		ProjectIdeas:       c.ProjectIdeas,
		AccountDetails:     c.AccountDetails,
		VideoDescription:   c.VideoDescription,
		InspirationList:    c.InspirationList,
		ScriptsDocument:    c.ScriptsDocument,
		ClientFields:       detail.Fields,
		RepairedFields:     repaired,
	}
}

func ToClientListResponse(clients []models.Client, params utils.PaginationParams, total int64) ClientListResponse {
	items := make([]ClientListItemDTO, len(clients))
	for i, c := range clients {
		items[i] = ToClientListItemDTO(c)
	}
	return ClientListResponse{Clients: items, Pagination: params.Response(total)}
}
