package database

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/yukikurage/agency-ops-api/internal/config"
	"github.com/yukikurage/agency-ops-api/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Dialector picks the gorm driver for the configured DB_DRIVER.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch strings.ToLower(cfg.DBDriver) {
	case "postgres", "postgresql":
		return postgres.Open(PostgresDSN(cfg)), nil
	case "mysql":
		return mysql.Open(MySQLDSN(cfg)), nil
	case "sqlite":
		dsn := cfg.DatabaseDSN
		if dsn == "" {
			dsn = cfg.DBName + ".db"
		}
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// PostgresDSN returns DATABASE_DSN when set, otherwise a URL assembled from the DB_* parts.
func PostgresDSN(cfg *config.Config) string {
	if cfg.DatabaseDSN != "" {
		return strings.Trim(strings.TrimSpace(cfg.DatabaseDSN), "\"'")
	}
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.DBUser, cfg.DBPassword),
		Host:   cfg.DBHost + ":" + cfg.DBPort,
		Path:   "/" + cfg.DBName,
	}
	q := url.Values{}
	q.Set("sslmode", cfg.DBSSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

func MySQLDSN(cfg *config.Config) string {
	if cfg.DatabaseDSN != "" {
		return cfg.DatabaseDSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
	)
}

func Connect(cfg *config.Config, log *zap.Logger) error {
	dialector, err := Dialector(cfg)
	if err != nil {
		return err
	}

	logLevel := logger.Warn
	if cfg.DBDebug {
		logLevel = logger.Info
	}

	DB, err = gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info("database connection established", zap.String("driver", cfg.DBDriver))
	return nil
}

// Migrate brings the schema up to date. SQL migrations are used when
// MIGRATIONS is set (postgres only), AutoMigrate otherwise.
func Migrate(cfg *config.Config, log *zap.Logger) error {
	if cfg.Migrations {
		log.Info("running sql migrations", zap.String("dir", cfg.MigrationsDir))
		if err := RunSQLMigrations(cfg); err != nil {
			return fmt.Errorf("failed to run sql migrations: %w", err)
		}
	} else {
		log.Info("running auto migrations")
		if err := AutoMigrate(DB); err != nil {
			return err
		}
		if err := AddIndexes(DB, log); err != nil {
			return err
		}
	}

	updated, err := NormalizeLegacyTaskStatuses(DB)
	if err != nil {
		return fmt.Errorf("failed to normalize task statuses: %w", err)
	}
	if updated > 0 {
		log.Info("normalized legacy task statuses", zap.Int64("rows", updated))
	}

	log.Info("database migrations completed")
	return nil
}

// AutoMigrate creates or updates every table from the models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func GetDB() *gorm.DB {
	return DB
}

// SetDB sets the database instance (used for testing)
func SetDB(db *gorm.DB) {
	DB = db
}
