package config

import "time"

// Default values for configuration.
const (
	// Server defaults
	DefaultServerHost      = "0.0.0.0"
	DefaultServerPort      = 8080
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultMaxUploadSizeMB = 50
	DefaultCleanupInterval = 1 * time.Hour

	// Processing defaults
	DefaultTaskTimeout = 600 * time.Second
	DefaultTaskTTL     = 24 * time.Hour
	DefaultCacheTTL    = 60 * time.Minute
	DefaultCacheSize   = 256
	DefaultSampleSize  = 500

	// Stats defaults
	DefaultChatTypes = "*"

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)
