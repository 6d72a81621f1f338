// Package config defines environment variable keys for configuration.
package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Server
	EnvPort            = "PROGRAMS_PORT"
	EnvLogLevel        = "PROGRAMS_LOG_LEVEL"
	EnvShutdownTimeout = "PROGRAMS_SHUTDOWN_TIMEOUT"

	// Data source
	EnvDataSource   = "PROGRAMS_DATA_SOURCE"
	EnvDataBaseURL  = "PROGRAMS_DATA_BASE_URL"
	EnvFetchTimeout = "PROGRAMS_FETCH_TIMEOUT"

	// R2 data source
	EnvR2AccountID       = "PROGRAMS_R2_ACCOUNT_ID"
	EnvR2AccessKeyID     = "PROGRAMS_R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey = "PROGRAMS_R2_SECRET_ACCESS_KEY"
	EnvR2BucketName      = "PROGRAMS_R2_BUCKET_NAME"

	// Sentry Feature
	EnvSentryToken       = "PROGRAMS_SENTRY_TOKEN"
	EnvSentryHost        = "PROGRAMS_SENTRY_HOST"
	EnvSentryEnvironment = "PROGRAMS_SENTRY_ENVIRONMENT"
	EnvSentrySampleRate  = "PROGRAMS_SENTRY_SAMPLE_RATE"

	// Better Stack Feature
	EnvBetterStackToken    = "PROGRAMS_BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "PROGRAMS_BETTERSTACK_ENDPOINT"

	// Per-client rate limiting
	EnvRateLimitRPS   = "PROGRAMS_RATE_LIMIT_RPS"
	EnvRateLimitBurst = "PROGRAMS_RATE_LIMIT_BURST"
	EnvTrustedProxies = "PROGRAMS_TRUSTED_PROXIES"

	// Metrics Auth Feature
	EnvMetricsAuthEnabled = "PROGRAMS_METRICS_AUTH_ENABLED"
	EnvMetricsUsername    = "PROGRAMS_METRICS_USERNAME"
	EnvMetricsPassword    = "PROGRAMS_METRICS_PASSWORD"
)
