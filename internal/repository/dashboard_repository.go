package repository

import (
	"context"
	"time"

	"github.com/yukikurage/agency-ops-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDashboardRepository is a GORM implementation of DashboardRepository
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository creates a new DashboardRepository
func NewDashboardRepository(db *gorm.DB) DashboardRepository {
	return &GormDashboardRepository{db: db}
}

// Ping checks database connectivity
func (r *GormDashboardRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *GormDashboardRepository) CountClients(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Client{}).Count(&count).Error
	return count, err
}

func (r *GormDashboardRepository) CountTasks(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Task{}).Count(&count).Error
	return count, err
}

// Revenue sums payment records
func (r *GormDashboardRepository) Revenue(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&models.Finance{}).
		Where("type = ?", models.FinanceTypePayment).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

// ActiveProjects counts distinct non-null client ids over tasks
func (r *GormDashboardRepository) ActiveProjects(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("client_id IS NOT NULL").
		Distinct("client_id").
		Count(&count).Error
	return count, err
}

func (r *GormDashboardRepository) FindSnapshot(ctx context.Context, day time.Time) (*models.MetricSnapshot, error) {
	var snapshot models.MetricSnapshot
	if err := r.db.WithContext(ctx).Where("captured_on = ?", day).First(&snapshot).Error; err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (r *GormDashboardRepository) LatestSnapshotOnOrBefore(ctx context.Context, day time.Time) (*models.MetricSnapshot, error) {
	var snapshot models.MetricSnapshot
	err := r.db.WithContext(ctx).
		Where("captured_on <= ?", day).
		Order("captured_on DESC").
		First(&snapshot).Error
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// SaveSnapshot inserts the snapshot or replaces the counters of the one captured on the same day
func (r *GormDashboardRepository) SaveSnapshot(ctx context.Context, snapshot *models.MetricSnapshot) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "captured_on"}},
			DoUpdates: clause.AssignmentColumns([]string{"client_count", "task_count", "revenue", "active_projects"}),
		}).
		Create(snapshot).Error
}
