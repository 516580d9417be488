package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// ColumnWidths определяет ширину колонок для текстового вывода.
type ColumnWidths struct {
	Author   int `yaml:"author"`
	Messages int `yaml:"messages"`
	Words    int `yaml:"words"`
	Emojis   int `yaml:"emojis"`
}

// BotConfig содержит конфигурацию для Telegram-бота
type BotConfig struct {
	Token                  string       `yaml:"token"`
	BackendURL             string       `yaml:"backend_url"`
	PollingIntervalSeconds int          `yaml:"polling_interval_seconds"`
	PollTimeoutSeconds     int          `yaml:"poll_timeout_seconds"`
	MaxPollErrors          int          `yaml:"max_poll_errors"`
	HTTPTimeoutSeconds     int          `yaml:"http_timeout_seconds"`
	MaxFileSizeMB          int64        `yaml:"max_file_size_mb"`
	TopAuthors             int          `yaml:"top_authors"`
	ExcludeBots            bool         `yaml:"exclude_bots"`
	Render                 ColumnWidths `yaml:"render"`
}

// Logging содержит настройки логирования бота.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config является оберткой для соответствия структуре YAML файла.
type Config struct {
	Bot     BotConfig `yaml:"bot"`
	Logging Logging   `yaml:"logging"`
}

// LoadBotConfig загружает конфигурацию бота из указанного файла.
// BOT_TOKEN и BACKEND_URL из окружения (или .env) имеют приоритет над файлом.
func LoadBotConfig(filename string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(filename)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Конфигурация целиком может прийти из окружения.
	case err != nil:
		return nil, fmt.Errorf("failed to read bot config file %s: %w", filename, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal bot config: %w", err)
		}
	}

	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.Bot.Token = v
	}
	if v := os.Getenv("BACKEND_URL"); v != "" {
		cfg.Bot.BackendURL = v
	}
	if v := os.Getenv("BOT_EXCLUDE_BOTS"); v != "" {
		exclude, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid BOT_EXCLUDE_BOTS: %w", err)
		}
		cfg.Bot.ExcludeBots = exclude
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults заполняет незаданные значения
func (c *Config) applyDefaults() {
	b := &c.Bot
	if b.PollingIntervalSeconds == 0 {
		b.PollingIntervalSeconds = DefaultPollingIntervalSeconds
	}
	if b.PollTimeoutSeconds == 0 {
		b.PollTimeoutSeconds = DefaultPollTimeoutSeconds
	}
	if b.MaxPollErrors == 0 {
		b.MaxPollErrors = DefaultMaxPollErrors
	}
	if b.HTTPTimeoutSeconds == 0 {
		b.HTTPTimeoutSeconds = DefaultHTTPTimeoutSeconds
	}
	if b.MaxFileSizeMB == 0 {
		b.MaxFileSizeMB = DefaultMaxFileSizeMB
	}
	if b.TopAuthors == 0 {
		b.TopAuthors = DefaultTopAuthors
	}
	if b.Render.Author == 0 {
		b.Render.Author = DefaultAuthorColumnWidth
	}
	if b.Render.Messages == 0 {
		b.Render.Messages = DefaultMessagesColumnWidth
	}
	if b.Render.Words == 0 {
		b.Render.Words = DefaultWordsColumnWidth
	}
	if b.Render.Emojis == 0 {
		b.Render.Emojis = DefaultEmojisColumnWidth
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}

// PollInterval возвращает период опроса статуса задачи.
func (c *BotConfig) PollInterval() time.Duration {
	return time.Duration(c.PollingIntervalSeconds) * time.Second
}

// PollTimeout возвращает предельное время ожидания одной задачи.
func (c *BotConfig) PollTimeout() time.Duration {
	return time.Duration(c.PollTimeoutSeconds) * time.Second
}

// MaxFileSize возвращает лимит размера архива в байтах.
func (c *BotConfig) MaxFileSize() int64 {
	return c.MaxFileSizeMB << 20
}

// Validate проверяет корректность конфигурации бота.
func (c *Config) Validate() error {
	b := c.Bot
	if b.Token == "" || b.Token == "YOUR_TELEGRAM_BOT_TOKEN" {
		return fmt.Errorf("bot.token is not configured")
	}
	if b.BackendURL == "" {
		return fmt.Errorf("bot.backend_url cannot be empty")
	}
	if b.PollingIntervalSeconds <= 0 {
		return fmt.Errorf("bot.polling_interval_seconds must be positive")
	}
	if b.PollTimeoutSeconds <= 0 {
		return fmt.Errorf("bot.poll_timeout_seconds must be positive")
	}
	if b.MaxPollErrors <= 0 {
		return fmt.Errorf("bot.max_poll_errors must be positive")
	}
	if b.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("bot.http_timeout_seconds must be positive")
	}
	if b.MaxFileSizeMB <= 0 {
		return fmt.Errorf("bot.max_file_size_mb must be positive")
	}
	if b.TopAuthors <= 0 {
		return fmt.Errorf("bot.top_authors must be positive")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json")
	}
	return nil
}
