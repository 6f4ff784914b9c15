package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Dosada05/duel-system/models"
	"github.com/joho/godotenv"
)

// Config holds every configuration parameter of the application.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int

	// Shared secret the external scheduler presents to the sweep endpoint.
	SweepSecret string
	// Shared secret the metrics feed presents to the score endpoint.
	ScoreFeedSecret string
	// Shared secret the billing system presents to the tier endpoint.
	// Optional: when unset the endpoint rejects every request.
	BillingSecret string

	// Duel lifecycle policy.
	InviteWindow      time.Duration
	DuelDuration      time.Duration
	MaxPendingPerUser int
	MinTier           models.SubscriptionTier

	SweepInterval time.Duration

	// Cloudflare R2 (avatar storage).
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// Load reads configuration from the environment, optionally backed by a .env
// file for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	sweepSecret := os.Getenv("SWEEP_SECRET")
	if sweepSecret == "" {
		return nil, fmt.Errorf("SWEEP_SECRET environment variable is not set")
	}

	scoreSecret := os.Getenv("SCORE_FEED_SECRET")
	if scoreSecret == "" {
		return nil, fmt.Errorf("SCORE_FEED_SECRET environment variable is not set")
	}

	port, err := intFromEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	inviteWindow, err := durationFromEnv("DUEL_INVITE_WINDOW", 48*time.Hour)
	if err != nil {
		return nil, err
	}
	duelDuration, err := durationFromEnv("DUEL_DURATION", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}
	sweepInterval, err := durationFromEnv("SWEEP_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}
	if inviteWindow <= 0 || duelDuration <= 0 || sweepInterval <= 0 {
		return nil, fmt.Errorf("duel durations and sweep interval must be positive")
	}

	maxPending, err := intFromEnv("MAX_PENDING_DUELS", 3)
	if err != nil {
		return nil, err
	}
	if maxPending < 0 {
		return nil, fmt.Errorf("MAX_PENDING_DUELS must not be negative, got %d", maxPending)
	}

	minTier := models.SubscriptionTier(getEnvOrDefault("DUEL_MIN_TIER", string(models.TierFree)))
	if !minTier.Valid() {
		return nil, fmt.Errorf("DUEL_MIN_TIER must be a known tier, got %q", minTier)
	}

	cfg := &Config{
		DatabaseURL:       dbURL,
		JWTSecretKey:      jwtKey,
		ServerPort:        port,
		SweepSecret:       sweepSecret,
		ScoreFeedSecret:   scoreSecret,
		BillingSecret:     os.Getenv("BILLING_SECRET"),
		InviteWindow:      inviteWindow,
		DuelDuration:      duelDuration,
		MaxPendingPerUser: maxPending,
		MinTier:           minTier,
		SweepInterval:     sweepInterval,
		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func intFromEnv(key string, defaultValue int) (int, error) {
	str := os.Getenv(key)
	if str == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return value, nil
}

func durationFromEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	str := os.Getenv(key)
	if str == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(str)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return value, nil
}
