package database

import (
	"fmt"

	"github.com/yukikurage/agency-ops-api/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AddIndexes adds the composite indexes used by list and dashboard queries.
func AddIndexes(db *gorm.DB, log *zap.Logger) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		{"tasks", "idx_tasks_status_created_at", "status, created_at"},
		{"tasks", "idx_tasks_deadline", "deadline"},
		{"tasks", "idx_tasks_timer_end", "timer_end"},
		{"finances", "idx_finances_type_status", "type, status"},
		{"work_expenses", "idx_work_expenses_work_category", "work_id, category"},
		{"clients", "idx_clients_status", "status"},
		{"clients", "idx_clients_name", "name"},
	}

	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.table, idx.name) {
			log.Debug("index already exists", zap.String("index", idx.name))
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("created index", zap.String("index", idx.name), zap.String("table", idx.table))
	}

	return nil
}

// NormalizeLegacyTaskStatuses rewrites the capitalised status vocabulary to the
// canonical one and returns the number of rows changed.
func NormalizeLegacyTaskStatuses(db *gorm.DB) (int64, error) {
	var total int64
	err := db.Transaction(func(tx *gorm.DB) error {
		for legacy, canonical := range models.LegacyTaskStatuses() {
			res := tx.Model(&models.Task{}).
				Where("status = ?", legacy).
				Update("status", canonical)
			if res.Error != nil {
				return res.Error
			}
			total += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}
