package database

import (
	"errors"
	"fmt"
	"strings"

	migrate "github.com/golang-migrate/migrate/v4"
	// Register the postgres driver and the file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/yukikurage/agency-ops-api/internal/config"
)

// RunSQLMigrations applies the files in cfg.MigrationsDir.
func RunSQLMigrations(cfg *config.Config) error {
	switch strings.ToLower(cfg.DBDriver) {
	case "postgres", "postgresql":
	default:
		return fmt.Errorf("sql migrations only support postgres, got %q", cfg.DBDriver)
	}

	m, err := migrate.New("file://"+cfg.MigrationsDir, PostgresDSN(cfg))
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
