// Package config defines environment variable keys for configuration.
package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Core (Required)
	EnvLineChannelAccessToken = "MIU_LINE_CHANNEL_ACCESS_TOKEN"
	EnvLineChannelSecret      = "MIU_LINE_CHANNEL_SECRET"
	EnvOpenAIAPIKey           = "MIU_OPENAI_API_KEY"

	// Server
	EnvPort            = "MIU_PORT"
	EnvLogLevel        = "MIU_LOG_LEVEL"
	EnvShutdownTimeout = "MIU_SHUTDOWN_TIMEOUT"

	// Data
	EnvDataDir = "MIU_DATA_DIR"

	// Webhook
	EnvWebhookTimeout      = "MIU_WEBHOOK_TIMEOUT"
	EnvMaxEventsPerWebhook = "MIU_MAX_EVENTS_PER_WEBHOOK"

	// Dedup
	EnvRedisURL = "MIU_REDIS_URL"
	EnvDedupTTL = "MIU_DEDUP_TTL"

	// Rate Limits
	EnvGlobalRateRPS  = "MIU_GLOBAL_RATE_RPS"
	EnvUserRateBurst  = "MIU_USER_RATE_BURST"
	EnvUserRateRefill = "MIU_USER_RATE_REFILL"

	// Quota
	EnvFreeDailyLimit = "MIU_FREE_DAILY_LIMIT"
	EnvUpgradeURL     = "MIU_UPGRADE_URL"

	// History
	EnvHistoryCharBudget = "MIU_HISTORY_CHAR_BUDGET"
	EnvHistoryMaxStored  = "MIU_HISTORY_MAX_STORED"

	// LLM
	EnvOpenAIBaseURL   = "MIU_OPENAI_BASE_URL"
	EnvChatModel       = "MIU_CHAT_MODEL"
	EnvVisionModel     = "MIU_VISION_MODEL"
	EnvTranscribeModel = "MIU_TRANSCRIBE_MODEL"
	EnvImageModel      = "MIU_IMAGE_MODEL"
	EnvGeminiAPIKey    = "MIU_GEMINI_API_KEY"
	EnvGeminiModel     = "MIU_GEMINI_MODEL"

	// Rich menus
	EnvRichMenuDefaultID = "MIU_RICHMENU_DEFAULT_ID"
	EnvRichMenuImageID   = "MIU_RICHMENU_IMAGE_ID"

	// R2 image hosting and snapshots
	EnvR2AccountID       = "MIU_R2_ACCOUNT_ID"
	EnvR2AccessKeyID     = "MIU_R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey = "MIU_R2_SECRET_ACCESS_KEY"
	EnvR2BucketName      = "MIU_R2_BUCKET_NAME"
	EnvR2PublicBaseURL   = "MIU_R2_PUBLIC_BASE_URL"
	EnvR2SnapshotPrefix  = "MIU_R2_SNAPSHOT_PREFIX"

	// Sentry Feature
	EnvSentryToken       = "MIU_SENTRY_TOKEN"
	EnvSentryHost        = "MIU_SENTRY_HOST"
	EnvSentryEnvironment = "MIU_SENTRY_ENVIRONMENT"
	EnvSentrySampleRate  = "MIU_SENTRY_SAMPLE_RATE"

	// Better Stack Feature
	EnvBetterStackToken    = "MIU_BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "MIU_BETTERSTACK_ENDPOINT"

	// Metrics Auth Feature
	EnvMetricsUsername = "MIU_METRICS_USERNAME"
	EnvMetricsPassword = "MIU_METRICS_PASSWORD"
)
