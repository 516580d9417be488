package config

// Default column widths for text rendering.
const (
	DefaultAuthorColumnWidth   = 18
	DefaultMessagesColumnWidth = 8
	DefaultWordsColumnWidth    = 22
	DefaultEmojisColumnWidth   = 12
)

// Default bot settings.
const (
	DefaultPollingIntervalSeconds = 3
	DefaultPollTimeoutSeconds     = 30 * 60
	DefaultMaxPollErrors          = 5
	DefaultHTTPTimeoutSeconds     = 60
	DefaultMaxFileSizeMB          = 20 // лимит Bot API на скачивание файлов
	DefaultTopAuthors             = 10
	DefaultLogLevel               = "info"
	DefaultLogFormat              = "json"
)
