// Package config provides application configuration management.
// It loads settings from environment variables (optionally via a .env file)
// and validates required values at startup.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// LINE Bot Configuration
	LineChannelToken  string
	LineChannelSecret string

	// OpenAI Configuration
	OpenAIAPIKey    string
	OpenAIBaseURL   string // Optional override for OpenAI-compatible gateways
	ChatModel       string
	VisionModel     string
	TranscribeModel string
	ImageModel      string

	// Gemini fallback chat provider (optional)
	GeminiAPIKey string
	GeminiModel  string

	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Data Configuration
	DataDir string // SQLite database and pending image buffer

	// Dedup Configuration
	RedisURL string        // Empty = in-process dedup store
	DedupTTL time.Duration // Retention window for seen event ids

	// Quota Configuration
	FreeDailyLimit int
	UpgradeURL     string // LIFF upgrade page shown in the usage-limit bubble

	// History Configuration
	HistoryCharBudget int // Window budget in characters
	HistoryMaxStored  int // Write-time cap on stored history entries

	// Rich menus (optional, empty = no menu switching)
	RichMenuDefaultID string
	RichMenuImageID   string

	// R2 (optional, empty account id disables image re-hosting and snapshots)
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
	R2SnapshotPrefix  string

	// Sentry (optional)
	SentryToken       string
	SentryHost        string
	SentryEnvironment string
	SentrySampleRate  float64

	// Better Stack (optional)
	BetterstackToken    string
	BetterstackEndpoint string

	// Metrics Authentication
	MetricsUsername string
	MetricsPassword string // Empty = no auth on /metrics

	// Bot Configuration (embedded)
	Bot BotConfig
}

// BotConfig holds bot-specific limits and timeouts.
type BotConfig struct {
	// WebhookTimeout bounds processing of a single event (see timeouts.go).
	WebhookTimeout time.Duration

	// Rate Limits (Token Bucket Algorithm)
	UserRateLimitBurst        float64 // Maximum burst tokens per user
	UserRateLimitRefillPerSec float64 // Tokens refilled per second
	GlobalRateLimitRPS        float64 // Global requests per second

	// LINE API Constraints
	MaxMessagesPerReply int // LINE API limit: 5
	MaxEventsPerWebhook int
	MaxMessageLength    int // LINE API limit per text message: 5000
	MaxPostbackDataSize int // LINE API limit: 300
}

// Defaults for model selection.
const (
	DefaultChatModel       = "gpt-4o"
	DefaultVisionModel     = "gpt-4o"
	DefaultTranscribeModel = "whisper-1"
	DefaultImageModel      = "dall-e-3"
	DefaultGeminiModel     = "gemini-2.5-flash"
)

// Load reads configuration from environment variables.
// It attempts to load a .env file first, then reads from env vars.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		LineChannelToken:  getEnv(EnvLineChannelAccessToken, ""),
		LineChannelSecret: getEnv(EnvLineChannelSecret, ""),

		OpenAIAPIKey:    getEnv(EnvOpenAIAPIKey, ""),
		OpenAIBaseURL:   getEnv(EnvOpenAIBaseURL, ""),
		ChatModel:       getEnv(EnvChatModel, DefaultChatModel),
		VisionModel:     getEnv(EnvVisionModel, DefaultVisionModel),
		TranscribeModel: getEnv(EnvTranscribeModel, DefaultTranscribeModel),
		ImageModel:      getEnv(EnvImageModel, DefaultImageModel),

		GeminiAPIKey: getEnv(EnvGeminiAPIKey, ""),
		GeminiModel:  getEnv(EnvGeminiModel, DefaultGeminiModel),

		Port:            getEnv(EnvPort, "10000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),

		DataDir: getEnv(EnvDataDir, getDefaultDataDir()),

		RedisURL: getEnv(EnvRedisURL, ""),
		DedupTTL: getDurationEnv(EnvDedupTTL, time.Hour),

		FreeDailyLimit: getIntEnv(EnvFreeDailyLimit, 10),
		UpgradeURL:     getEnv(EnvUpgradeURL, ""),

		HistoryCharBudget: getIntEnv(EnvHistoryCharBudget, 36000), // ~9000 tokens at 4 chars/token
		HistoryMaxStored:  getIntEnv(EnvHistoryMaxStored, 40),

		RichMenuDefaultID: getEnv(EnvRichMenuDefaultID, ""),
		RichMenuImageID:   getEnv(EnvRichMenuImageID, ""),

		R2AccountID:       getEnv(EnvR2AccountID, ""),
		R2AccessKeyID:     getEnv(EnvR2AccessKeyID, ""),
		R2SecretAccessKey: getEnv(EnvR2SecretAccessKey, ""),
		R2BucketName:      getEnv(EnvR2BucketName, ""),
		R2PublicBaseURL:   getEnv(EnvR2PublicBaseURL, ""),
		R2SnapshotPrefix:  getEnv(EnvR2SnapshotPrefix, "snapshots/"),

		SentryToken:       getEnv(EnvSentryToken, ""),
		SentryHost:        getEnv(EnvSentryHost, ""),
		SentryEnvironment: getEnv(EnvSentryEnvironment, "production"),
		SentrySampleRate:  getFloatEnv(EnvSentrySampleRate, 1.0),

		BetterstackToken:    getEnv(EnvBetterStackToken, ""),
		BetterstackEndpoint: getEnv(EnvBetterStackEndpoint, ""),

		MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword: getEnv(EnvMetricsPassword, ""),

		Bot: BotConfig{
			WebhookTimeout:            getDurationEnv(EnvWebhookTimeout, WebhookProcessing),
			UserRateLimitBurst:        getFloatEnv(EnvUserRateBurst, 15.0),
			UserRateLimitRefillPerSec: getFloatEnv(EnvUserRateRefill, 0.5),
			GlobalRateLimitRPS:        getFloatEnv(EnvGlobalRateRPS, 100.0),
			MaxMessagesPerReply:       5,
			MaxEventsPerWebhook:       getIntEnv(EnvMaxEventsPerWebhook, 100),
			MaxMessageLength:          5000,
			MaxPostbackDataSize:       300,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set.
func (c *Config) Validate() error {
	var errs []error

	if c.LineChannelToken == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvLineChannelAccessToken))
	}
	if c.LineChannelSecret == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvLineChannelSecret))
	}
	if c.OpenAIAPIKey == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvOpenAIAPIKey))
	}
	if c.Port == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvPort))
	}
	if c.DataDir == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvDataDir))
	}
	if c.DedupTTL <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvDedupTTL, c.DedupTTL))
	}
	if c.FreeDailyLimit <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %d", EnvFreeDailyLimit, c.FreeDailyLimit))
	}
	if c.HistoryCharBudget <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %d", EnvHistoryCharBudget, c.HistoryCharBudget))
	}
	if c.HistoryMaxStored <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %d", EnvHistoryMaxStored, c.HistoryMaxStored))
	}
	if err := c.Bot.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("bot config: %w", err))
	}
	if c.R2AccountID != "" {
		if c.R2AccessKeyID == "" || c.R2SecretAccessKey == "" || c.R2BucketName == "" {
			errs = append(errs, errors.New("R2 credentials and bucket are required when R2 account id is set"))
		}
	}

	return errors.Join(errs...)
}

// Validate checks bot configuration bounds.
func (c *BotConfig) Validate() error {
	var errs []error

	if c.WebhookTimeout <= 0 {
		errs = append(errs, fmt.Errorf("webhook timeout must be positive, got %v", c.WebhookTimeout))
	}
	if c.UserRateLimitBurst <= 0 {
		errs = append(errs, fmt.Errorf("user rate limit burst must be positive, got %v", c.UserRateLimitBurst))
	}
	if c.UserRateLimitRefillPerSec <= 0 {
		errs = append(errs, fmt.Errorf("user rate limit refill must be positive, got %v", c.UserRateLimitRefillPerSec))
	}
	if c.GlobalRateLimitRPS <= 0 {
		errs = append(errs, fmt.Errorf("global rate limit must be positive, got %v", c.GlobalRateLimitRPS))
	}
	if c.MaxEventsPerWebhook <= 0 {
		errs = append(errs, fmt.Errorf("max events per webhook must be positive, got %d", c.MaxEventsPerWebhook))
	}

	return errors.Join(errs...)
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "miu.db")
}

// PendingImageDir returns the directory holding buffered pending images.
func (c *Config) PendingImageDir() string {
	return filepath.Join(c.DataDir, "pending")
}

// R2Enabled reports whether R2 image hosting and snapshots are configured.
func (c *Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" && c.R2BucketName != ""
}

// HasGeminiFallback reports whether the Gemini chat fallback is configured.
func (c *Config) HasGeminiFallback() bool {
	return c.GeminiAPIKey != ""
}
