package repository

import (
	"context"

	"github.com/yukikurage/agency-ops-api/internal/models"
	"gorm.io/gorm"
)

// GormTeamMemberRepository is a GORM implementation of TeamMemberRepository
type GormTeamMemberRepository struct {
	db *gorm.DB
}

// NewTeamMemberRepository creates a new TeamMemberRepository
func NewTeamMemberRepository(db *gorm.DB) TeamMemberRepository {
	return &GormTeamMemberRepository{db: db}
}

func (r *GormTeamMemberRepository) Create(ctx context.Context, member *models.TeamMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *GormTeamMemberRepository) FindByID(ctx context.Context, id string) (*models.TeamMember, error) {
	var member models.TeamMember
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// List returns members ordered by name, optionally restricted to one status
func (r *GormTeamMemberRepository) List(ctx context.Context, status *models.TeamMemberStatus) ([]models.TeamMember, error) {
	query := r.db.WithContext(ctx).Order("name ASC")
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var members []models.TeamMember
	if err := query.Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *GormTeamMemberRepository) Update(ctx context.Context, member *models.TeamMember) error {
	return r.db.WithContext(ctx).Save(member).Error
}

// Delete removes a member. Resources staffed from it are kept and detached.
func (r *GormTeamMemberRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.WorkResource{}).
			Where("team_member_id = ?", id).
			Update("team_member_id", nil).Error; err != nil {
			return err
		}

		res := tx.Where("id = ?", id).Delete(&models.TeamMember{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
