package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/hearthschool/goaltrack/internal/core/schedule"
)

// AppConfig holds all configuration for the service.
type AppConfig struct {
	Port string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	JWTSecret string
	JWTIssuer string

	// Timezone is the homeschool's IANA timezone. Day and week boundaries are
	// always resolved in this zone (or a per-request override), never in the
	// host-local zone.
	Timezone string

	// WeekStartDay follows time.Weekday numbering: 0 = Sunday, 1 = Monday.
	WeekStartDay int

	// AllowMultipleRecordsPerDay, when false, activates the duplicate-record
	// guard on the write path: at most one instance per goal/student/day.
	AllowMultipleRecordsPerDay bool

	LogLevel    string
	Environment string
}

// Load reads configuration from environment variables and a .env file if one
// is present. godotenv.Load never overrides variables already set.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{
		Port:          getEnv("PORT", "8080"),
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBName:        os.Getenv("DB_NAME"),
		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTIssuer:     getEnv("JWT_ISSUER", "goaltrack"),
		Timezone:      getEnv("TIMEZONE", schedule.DefaultTimezone),
		LogLevel:      strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Environment:   strings.ToLower(getEnv("ENVIRONMENT", "development")),
	}

	if cfg.DBUser == "" {
		return nil, fmt.Errorf("DB_USER is not set")
	}
	if cfg.DBName == "" {
		return nil, fmt.Errorf("DB_NAME is not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}

	weekStart := getEnv("WEEK_START_DAY", "1")
	day, err := strconv.Atoi(weekStart)
	if err != nil || day < 0 || day > 6 {
		return nil, fmt.Errorf("invalid WEEK_START_DAY %q: must be 0-6", weekStart)
	}
	cfg.WeekStartDay = day

	allowMultiple := getEnv("ALLOW_MULTIPLE_RECORDS_PER_DAY", "true")
	cfg.AllowMultipleRecordsPerDay, err = strconv.ParseBool(allowMultiple)
	if err != nil {
		return nil, fmt.Errorf("invalid ALLOW_MULTIPLE_RECORDS_PER_DAY %q: %w", allowMultiple, err)
	}

	if dbIdx := os.Getenv("REDIS_DB"); dbIdx != "" {
		cfg.RedisDB, err = strconv.Atoi(dbIdx)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", dbIdx, err)
		}
	}

	return cfg, nil
}

// DatabaseDSN builds the postgres connection string.
func (c *AppConfig) DatabaseDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
