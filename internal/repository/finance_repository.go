package repository

import (
	"context"

	"github.com/yukikurage/agency-ops-api/internal/database"
	"github.com/yukikurage/agency-ops-api/internal/models"
	"gorm.io/gorm"
)

// GormFinanceRepository is a GORM implementation of FinanceRepository
type GormFinanceRepository struct {
	db *gorm.DB
}

// NewFinanceRepository creates a new FinanceRepository
func NewFinanceRepository(db *gorm.DB) FinanceRepository {
	return &GormFinanceRepository{db: db}
}

func (r *GormFinanceRepository) Create(ctx context.Context, record *models.Finance) error {
	return r.db.WithContext(ctx).Omit("Client").Create(record).Error
}

func (r *GormFinanceRepository) FindByID(ctx context.Context, id string) (*models.Finance, error) {
	var record models.Finance
	if err := r.db.WithContext(ctx).Preload("Client").Where("id = ?", id).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *GormFinanceRepository) List(ctx context.Context, filter FinanceFilter) ([]models.Finance, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Finance{})

	if filter.Type != nil {
		query = query.Where("finances.type = ?", *filter.Type)
	}
	if filter.Status != nil {
		query = query.Where("finances.status = ?", *filter.Status)
	}
	if filter.ClientID != nil {
		query = query.Where("finances.client_id = ?", *filter.ClientID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("finances.created_at DESC")
	if filter.Pagination.Limit > 0 {
		listQuery = listQuery.Scopes(database.Paginate(filter.Pagination))
	}

	var records []models.Finance
	if err := listQuery.Preload("Client").Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (r *GormFinanceRepository) Update(ctx context.Context, record *models.Finance) error {
	return r.db.WithContext(ctx).Omit("Client").Save(record).Error
}

func (r *GormFinanceRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Finance{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Totals sums amounts grouped by type and status
func (r *GormFinanceRepository) Totals(ctx context.Context, clientID *string) ([]FinanceTotal, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Finance{}).
		Select("type, status, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Group("type, status")
	if clientID != nil {
		query = query.Where("client_id = ?", *clientID)
	}

	var totals []FinanceTotal
	if err := query.Scan(&totals).Error; err != nil {
		return nil, err
	}
	return totals, nil
}
