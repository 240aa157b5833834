package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DBDriver      string `yaml:"db_driver"`
	DBHost        string `yaml:"db_host"`
	DBPort        string `yaml:"db_port"`
	DBUser        string `yaml:"db_user"`
	DBPassword    string `yaml:"db_password"`
	DBName        string `yaml:"db_name"`
	DBSSLMode     string `yaml:"db_sslmode"`
	DatabaseDSN   string `yaml:"database_dsn"`
	DBDebug       bool   `yaml:"db_debug"`
	Migrations    bool   `yaml:"migrations"`
	MigrationsDir string `yaml:"migrations_dir"`

	GinMode   string `yaml:"gin_mode"`
	Port      string `yaml:"port"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	OpenAIAPIKey string `yaml:"openai_api_key"`
	OpenAIModel  string `yaml:"openai_model"`

	DashboardPeriodDays int `yaml:"dashboard_period_days"`
}

// Load builds the configuration.
// Precedence: environment (including .env) > CONFIG_FILE yaml > defaults.
func Load() *Config {
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			log.Printf("ignoring config file %s: %v", path, err)
		}
	}
	applyEnv(cfg)
	return cfg
}

func defaults() *Config {
	return &Config{
		DBDriver:            "postgres",
		DBHost:              "localhost",
		DBPort:              "5432",
		DBUser:              "agency",
		DBPassword:          "agency",
		DBName:              "agency_ops",
		DBSSLMode:           "disable",
		MigrationsDir:       "migrations",
		GinMode:             "debug",
		Port:                "8080",
		LogLevel:            "info",
		LogFormat:           "json",
		OpenAIModel:         "gpt-4o",
		DashboardPeriodDays: 30,
	}
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.DBDriver = getEnv("DB_DRIVER", cfg.DBDriver)
	cfg.DBHost = getEnv("DB_HOST", cfg.DBHost)
	cfg.DBPort = getEnv("DB_PORT", cfg.DBPort)
	cfg.DBUser = getEnv("DB_USER", cfg.DBUser)
	cfg.DBPassword = getEnv("DB_PASSWORD", cfg.DBPassword)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)
	cfg.DBSSLMode = getEnv("DB_SSLMODE", cfg.DBSSLMode)
	cfg.DatabaseDSN = getEnv("DATABASE_DSN", cfg.DatabaseDSN)
	cfg.DBDebug = parseBool("DB_DEBUG", cfg.DBDebug)
	cfg.Migrations = parseBool("MIGRATIONS", cfg.Migrations)
	cfg.MigrationsDir = getEnv("MIGRATIONS_DIR", cfg.MigrationsDir)
	cfg.GinMode = getEnv("GIN_MODE", cfg.GinMode)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OpenAIModel = getEnv("OPENAI_MODEL", cfg.OpenAIModel)
	cfg.DashboardPeriodDays = parseInt("DASHBOARD_PERIOD_DAYS", cfg.DashboardPeriodDays)
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func parseBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("invalid boolean for %s: %s", key, value)
		return defaultValue
	}
	return b
}

func parseInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		log.Printf("invalid positive integer for %s: %s", key, value)
		return defaultValue
	}
	return n
}
