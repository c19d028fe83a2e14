package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application runtime configuration.
type Config struct {
	Env             string
	HTTPPort        string
	DatabaseURL     string
	DefaultCurrency string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// Reconciliation threshold policy. Amounts are minor units (kuruş)
	// when mode is "amount", percentages when mode is "percent".
	ReconThresholdMode string
	ReconWarn          int64
	ReconCritical      int64

	GrantRefreshPeriod time.Duration

	FirebaseProjectID string
	FirebaseCredFile  string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Load reads environment variables and .env (if present).
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:                getEnv("APP_ENV", "development"),
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DefaultCurrency:    getEnv("CURRENCY_CODE", "TRY"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		AccessTokenTTL:     getDuration("ACCESS_TOKEN_TTL", 12*time.Hour),
		RefreshTokenTTL:    getDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),
		ReconThresholdMode: getEnv("RECON_THRESHOLD_MODE", "amount"),
		ReconWarn:          getInt64("RECON_WARN_THRESHOLD", 1000),
		ReconCritical:      getInt64("RECON_CRITICAL_THRESHOLD", 10000),
		GrantRefreshPeriod: getDuration("GRANT_REFRESH_PERIOD", 1*time.Minute),
		FirebaseProjectID:  os.Getenv("FIREBASE_PROJECT_ID"),
		FirebaseCredFile:   os.Getenv("FIREBASE_CREDENTIALS"),
		ReadTimeout:        getDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:       getDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:        getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:    getDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return cfg, errors.New("JWT_SECRET is required")
	}
	if cfg.ReconThresholdMode != "amount" && cfg.ReconThresholdMode != "percent" {
		return cfg, errors.New("RECON_THRESHOLD_MODE must be amount or percent")
	}
	if cfg.ReconCritical < cfg.ReconWarn {
		return cfg, errors.New("RECON_CRITICAL_THRESHOLD must be >= RECON_WARN_THRESHOLD")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getInt64(key string, fallback int64) int64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		// Support seconds as integer without suffix.
		if secs, convErr := strconv.Atoi(val); convErr == nil {
			return time.Duration(secs) * time.Second
		}
		return fallback
	}
	return d
}
