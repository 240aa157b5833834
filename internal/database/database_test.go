package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/agency-ops-api/internal/config"
	"github.com/yukikurage/agency-ops-api/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return db
}

func TestDialector(t *testing.T) {
	for _, driver := range []string{"postgres", "PostgreSQL", "mysql", "sqlite"} {
		d, err := Dialector(&config.Config{DBDriver: driver, DBName: "agency"})
		require.NoError(t, err, driver)
		assert.NotNil(t, d)
	}

	_, err := Dialector(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	cfg := &config.Config{
		DBUser:     "agency",
		DBPassword: "p@ss word",
		DBHost:     "db",
		DBPort:     "5432",
		DBName:     "ops",
		DBSSLMode:  "disable",
	}
	assert.Equal(t, "postgres://agency:p%40ss%20word@db:5432/ops?sslmode=disable", PostgresDSN(cfg))

	cfg.DatabaseDSN = ` "postgres://u:p@host/db" `
	assert.Equal(t, "postgres://u:p@host/db", PostgresDSN(cfg))
}

func TestMySQLDSN(t *testing.T) {
	cfg := &config.Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "3306", DBName: "ops"}
	assert.Equal(t, "u:p@tcp(h:3306)/ops?charset=utf8mb4&parseTime=True&loc=Local", MySQLDSN(cfg))
}

func TestNormalizeLegacyTaskStatuses(t *testing.T) {
	db := newTestDB(t)
	for _, status := range []models.TaskStatus{"Pending", "In Progress", "Completed", models.TaskStatusCanceled, models.TaskStatusPending} {
		require.NoError(t, db.Create(&models.Task{Title: string(status), Status: status}).Error)
	}

	updated, err := NormalizeLegacyTaskStatuses(db)
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated)

	var statuses []string
	require.NoError(t, db.Model(&models.Task{}).Order("title").Pluck("status", &statuses).Error)
	assert.Equal(t, []string{"completed", "in_progress", "pending", "canceled", "pending"}, statuses)

	updated, err = NormalizeLegacyTaskStatuses(db)
	require.NoError(t, err)
	assert.Zero(t, updated)
}

func TestAddIndexes_Idempotent(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, AddIndexes(db, zap.NewNop()))
	require.NoError(t, AddIndexes(db, zap.NewNop()))

	assert.True(t, db.Migrator().HasIndex("tasks", "idx_tasks_status_created_at"))
	assert.True(t, db.Migrator().HasIndex("work_expenses", "idx_work_expenses_work_category"))
}
