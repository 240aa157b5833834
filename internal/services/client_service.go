package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
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
	ErrClientNotFound      = errors.New("client not found")
	ErrClientNameRequired  = errors.New("client name is required")
	ErrInvalidClientStatus = errors.New("invalid client status")
)

// ClientService handles client business logic
type ClientService struct {
	clientRepo repository.ClientRepository
	log        *zap.Logger
	now        func() time.Time
}

// NewClientService creates a new ClientService
func NewClientService(clientRepo repository.ClientRepository, log *zap.Logger) *ClientService {
	return &ClientService{
		clientRepo: clientRepo,
		log:        logging.OrNop(log),
		now:        time.Now,
	}
}

// ClientDetail is a client together with its decoded JSON fields
type ClientDetail struct {
	Client         *models.Client
	Fields         models.ClientFields
	RepairedFields []string
}

// ListClientsInput represents filters for listing clients
type ListClientsInput struct {
	Status     string
	Search     string
	Sort       string
	Order      string
	Pagination utils.PaginationParams
}

// ClientInput carries client writes. Nil scalars and nil JSON fields are
// absent from the request.
type ClientInput struct {
	Name               *string
	Email              *string
	Status             *string
	OnboardingDocument *string
	CurrentPosition    *string
	ClientGoal         *string
	Notes              *string
	ChannelDetails     *string
	ProjectIdeas       *string
	AccountDetails     *string
	VideoDescription   *string
	InspirationList    *string
	ScriptsDocument    *string

	Fields map[string]json.RawMessage
}

// ListClients returns clients matching the filter
func (s *ClientService) ListClients(ctx context.Context, input ListClientsInput) ([]models.Client, int64, error) {
	filter := repository.ClientFilter{
		Search:     input.Search,
		SortBy:     input.Sort,
		Ascending:  strings.EqualFold(input.Order, "asc"),
		Pagination: input.Pagination,
	}
	if input.Status != "" {
		status := models.ClientStatus(input.Status)
		if !status.Valid() {
			return nil, 0, ErrInvalidClientStatus
		}
		filter.Status = &status
	}

	clients, total, err := s.clientRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, total, nil
}

// GetClient returns a client with repaired JSON fields. The repair is not persisted.
func (s *ClientService) GetClient(ctx context.Context, id string) (*ClientDetail, error) {
	client, err := s.findClient(ctx, id)
	if err != nil {
		return nil, err
	}

	fields, repaired := RepairClientFields(client, s.now())
	if len(repaired) > 0 {
		s.log.Debug("client fields repaired on read",
			zap.String("client_id", client.ID),
			zap.Strings("fields", repaired),
		)
	}

	return &ClientDetail{Client: client, Fields: fields, RepairedFields: repaired}, nil
}

// CreateClient inserts a client with a name and optional email
func (s *ClientService) CreateClient(ctx context.Context, name string, email *string) (*models.Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrClientNameRequired
	}

	client := &models.Client{
		Name:   name,
		Email:  normalizeEmail(email),
		Status: models.ClientStatusActive,
	}
	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// ReplaceClient overwrites every column. Absent JSON fields are cleared.
func (s *ClientService) ReplaceClient(ctx context.Context, id string, input ClientInput) (*ClientDetail, error) {
	if input.Name == nil {
		return nil, ErrClientNameRequired
	}
	return s.writeClient(ctx, id, input, true)
}

// PatchClient writes only the fields present in input
func (s *ClientService) PatchClient(ctx context.Context, id string, input ClientInput) (*ClientDetail, error) {
	return s.writeClient(ctx, id, input, false)
}

func (s *ClientService) writeClient(ctx context.Context, id string, input ClientInput, replace bool) (*ClientDetail, error) {
	if _, err := s.findClient(ctx, id); err != nil {
		return nil, err
	}

	columns, err := clientColumns(input, replace)
	if err != nil {
		return nil, err
	}

	if len(columns) > 0 {
		if err := s.clientRepo.UpdateColumns(ctx, id, columns); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrClientNotFound
			}
			return nil, fmt.Errorf("failed to update client: %w", err)
		}
	}

	return s.GetClient(ctx, id)
}

// DeleteClient deletes a client
func (s *ClientService) DeleteClient(ctx context.Context, id string) error {
	if err := s.clientRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClientNotFound
		}
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return nil
}

// RepairClient persists the repaired shape of every malformed JSON field
func (s *ClientService) RepairClient(ctx context.Context, id string) (*ClientDetail, error) {
	detail, err := s.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(detail.RepairedFields) == 0 {
		return detail, nil
	}

	columns, err := EncodeClientFields(detail.Fields, detail.RepairedFields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode client fields: %w", err)
	}
	if err := s.clientRepo.UpdateColumns(ctx, id, columns); err != nil {
		return nil, fmt.Errorf("failed to persist repaired fields: %w", err)
	}

	s.log.Info("client fields repaired",
		zap.String("client_id", id),
		zap.Strings("fields", detail.RepairedFields),
	)

	client, err := s.findClient(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Client = client
	return detail, nil
}

func (s *ClientService) findClient(ctx context.Context, id string) (*models.Client, error) {
	client, err := s.clientRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to find client: %w", err)
	}
	return client, nil
}

var clientJSONFields = []string{
	models.FieldOnboardingChecklist,
	models.FieldBudget,
	models.FieldTimeline,
	models.FieldTrackingResults,
	models.FieldHiredPeople,
	models.FieldVideoFolder,
}

// clientColumns validates input and maps it to column values. An explicit
// null clears its column, and so does an absent value when replace is set.
func clientColumns(input ClientInput, replace bool) (map[string]interface{}, error) {
	columns := map[string]interface{}{}
	v := validation.Violations{}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		validation.Required("name", name, v)
		columns["name"] = name
	}
	if input.Email != nil || replace {
		columns["email"] = normalizeEmail(input.Email)
	}
	if input.Status != nil {
		status := models.ClientStatus(*input.Status)
		if !status.Valid() {
			v.Add("status", "must_be_one_of:active,inactive,archived")
		}
		columns["status"] = status
	}

	texts := map[string]*string{
		"onboarding_document": input.OnboardingDocument,
		"current_position":    input.CurrentPosition,
		"client_goal":         input.ClientGoal,
		"notes":               input.Notes,
		"channel_details":     input.ChannelDetails,
		"project_ideas":       input.ProjectIdeas,
		"account_details":     input.AccountDetails,
		"video_description":   input.VideoDescription,
		"inspiration_list":    input.InspirationList,
		"scripts_document":    input.ScriptsDocument,
	}
	for column, value := range texts {
		switch {
		case value != nil:
			columns[column] = *value
		case replace:
			columns[column] = ""
		}
	}

	for _, name := range clientJSONFields {
		raw, present := input.Fields[name]
		if !present || raw == nil {
			if replace {
				columns[name] = nil
			}
			continue
		}
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			columns[name] = nil
			continue
		}
		if encoded := ValidateClientField(name, raw, v); encoded != nil {
			columns[name] = encoded
		}
	}
	for name := range input.Fields {
		if !containsString(clientJSONFields, name) {
			v.Add(name, "unknown_field")
		}
	}

	if err := v.Err(); err != nil {
		return nil, err
	}
	return columns, nil
}

func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*email)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
