package config

import (
	"errors"
	"fmt"
	"time"

	"relief_backend/internal/database"
	"relief_backend/pkg/utils"

	"github.com/joho/godotenv"
	"github.com/ulule/limiter/v3"
)

const minJWTSecretLength = 32

// Config is the complete runtime configuration of the server.
type Config struct {
	Port           string
	LogLevel       string
	AllowedOrigins []string
	DB             database.Config
	Redis          RedisConfig
	Auth           AuthConfig
	Thresholds     ThresholdConfig
	Requests       RequestConfig
}

// AuthConfig holds token and login settings.
type AuthConfig struct {
	JWTSecret      string
	TokenTTL       time.Duration
	LoginRateLimit string // limiter format, e.g. "10-M"
}

// ThresholdConfig controls the safety threshold cache.
type ThresholdConfig struct {
	CacheTTL time.Duration
}

// RequestConfig holds the beneficiary request approval policy.
type RequestConfig struct {
	AutoApprove bool
}

// Load reads .env (if present) and the environment, then validates the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		utils.LogDebug("No .env file found, using environment variables")
	}

	cfg := Config{
		Port:           utils.Getenv("PORT", "8080"),
		LogLevel:       utils.Getenv("LOG_LEVEL", "info"),
		AllowedOrigins: utils.SplitCSV(utils.Getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		DB: database.Config{
			Host:       utils.Getenv("DB_HOST", "localhost"),
			Port:       utils.Getenv("DB_PORT", "5432"),
			User:       utils.Getenv("DB_USER", "relief_user"),
			Password:   utils.Getenv("DB_PASSWORD", "relief_password"),
			Name:       utils.Getenv("DB_NAME", "relief_db"),
			SSLMode:    utils.Getenv("DB_SSLMODE", "disable"),
			SchemaPath: utils.Getenv("DB_SCHEMA_PATH", ""),
		},
		Redis: RedisConfig{
			Addr:     utils.Getenv("REDIS_ADDR", ""),
			Password: utils.Getenv("REDIS_PASSWORD", ""),
			DB:       utils.GetenvInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret:      utils.Getenv("JWT_SECRET", ""),
			TokenTTL:       utils.GetenvDuration("JWT_TTL", utils.DefaultAccessTokenTTL),
			LoginRateLimit: utils.Getenv("LOGIN_RATE_LIMIT", "10-M"),
		},
		Thresholds: ThresholdConfig{
			CacheTTL: utils.GetenvDuration("THRESHOLD_CACHE_TTL", 5*time.Minute),
		},
		Requests: RequestConfig{
			AutoApprove: utils.GetenvBool("AUTO_APPROVE_REQUESTS", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var errs []error
	if len(c.Auth.JWTSecret) < minJWTSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if _, err := limiter.NewRateFromFormatted(c.Auth.LoginRateLimit); err != nil {
		errs = append(errs, fmt.Errorf("LOGIN_RATE_LIMIT %q: %w", c.Auth.LoginRateLimit, err))
	}
	if c.Thresholds.CacheTTL <= 0 {
		errs = append(errs, errors.New("THRESHOLD_CACHE_TTL must be positive"))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	return errors.Join(errs...)
}
