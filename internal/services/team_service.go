package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/agency-ops-api/internal/models"
	"github.com/yukikurage/agency-ops-api/internal/repository"
	"github.com/yukikurage/agency-ops-api/internal/utils"
	"github.com/yukikurage/agency-ops-api/internal/validation"
	"gorm.io/gorm"
)

var ErrTeamMemberNotFound = errors.New("team member not found")

// TeamService manages the team directory
type TeamService struct {
	memberRepo repository.TeamMemberRepository
}

func NewTeamService(memberRepo repository.TeamMemberRepository) *TeamService {
	return &TeamService{memberRepo: memberRepo}
}

// TeamMemberInput carries a team member write. Skills may come as a list or
// as comma-separated text; the list wins when both are present.
type TeamMemberInput struct {
	Name       string
	Email      *string
	Role       string
	Skills     []string
	SkillsText *string
	HourlyRate *float64
	Status     string
}

func (s *TeamService) ListMembers(ctx context.Context, status string) ([]models.TeamMember, error) {
	var filter *models.TeamMemberStatus
	if status != "" {
		st := models.TeamMemberStatus(status)
		if !st.Valid() {
			return nil, validation.Violations{"status": "must_be_one_of:active,inactive"}
		}
		filter = &st
	}

	members, err := s.memberRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	return members, nil
}

func (s *TeamService) GetMember(ctx context.Context, id string) (*models.TeamMember, error) {
	member, err := s.memberRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamMemberNotFound
		}
		return nil, fmt.Errorf("failed to find team member: %w", err)
	}
	return member, nil
}

func (s *TeamService) CreateMember(ctx context.Context, input TeamMemberInput) (*models.TeamMember, error) {
	member := &models.TeamMember{}
	if err := applyMember(member, input); err != nil {
		return nil, err
	}
	if err := s.memberRepo.Create(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to create team member: %w", err)
	}
	return member, nil
}

func (s *TeamService) UpdateMember(ctx context.Context, id string, input TeamMemberInput) (*models.TeamMember, error) {
	member, err := s.GetMember(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyMember(member, input); err != nil {
		return nil, err
	}
	if err := s.memberRepo.Update(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to update team member: %w", err)
	}
	return member, nil
}

func (s *TeamService) DeleteMember(ctx context.Context, id string) error {
	if err := s.memberRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTeamMemberNotFound
		}
		return fmt.Errorf("failed to delete team member: %w", err)
	}
	return nil
}

func applyMember(member *models.TeamMember, input TeamMemberInput) error {
	v := validation.Violations{}

	name := strings.TrimSpace(input.Name)
	validation.Required("name", name, v)

	status := models.TeamMemberStatus(input.Status)
	if input.Status == "" {
		status = models.TeamMemberStatusActive
	} else if !status.Valid() {
		v.Add("status", "must_be_one_of:active,inactive")
	}
	if input.HourlyRate != nil {
		validation.NonNegativeFloat("hourly_rate", *input.HourlyRate, v)
	}
	if err := v.Err(); err != nil {
		return err
	}

	skills := []string{}
	switch {
	case input.Skills != nil:
		for _, sk := range input.Skills {
			if sk = strings.TrimSpace(sk); sk != "" {
				skills = append(skills, sk)
			}
		}
	case input.SkillsText != nil:
		skills = utils.ParseSkills(*input.SkillsText)
	case member.Skills != nil:
		skills = member.Skills
	}

	member.Name = name
	member.Email = normalizeEmail(input.Email)
	member.Role = strings.TrimSpace(input.Role)
	member.Skills = skills
	if input.HourlyRate != nil {
		rate := utils.RoundCents(*input.HourlyRate)
		member.HourlyRate = &rate
	} else {
		member.HourlyRate = nil
	}
	member.Status = status
	return nil
}
