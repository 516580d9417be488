// Package config предоставляет управление конфигурацией приложения
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"telegram-chat-stats/internal/domain"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Server содержит конфигурацию сервера
type Server struct {
	Host            string        `json:"host" yaml:"host"`
	Port            int           `json:"port" yaml:"port"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxUploadSizeMB int64         `json:"max_upload_size_mb" yaml:"max_upload_size_mb"`
	CleanupInterval time.Duration `json:"cleanup_interval" yaml:"cleanup_interval"`
}

// Processing содержит конфигурацию обработки
type Processing struct {
	TaskTimeout time.Duration `json:"task_timeout" yaml:"task_timeout"` // 0 - без ограничений
	TaskTTL     time.Duration `json:"task_ttl" yaml:"task_ttl"`
	CacheTTL    time.Duration `json:"cache_ttl" yaml:"cache_ttl"`
	CacheSize   int           `json:"cache_size" yaml:"cache_size"` // 0 - без ограничений
	SampleSize  int           `json:"sample_size" yaml:"sample_size"`
}

// Stats содержит параметры сбора статистики по умолчанию.
// Запрос может переопределить любой из них.
type Stats struct {
	OwnerName   string   `json:"owner_name" yaml:"owner_name"`
	OwnerID     string   `json:"owner_id" yaml:"owner_id"`
	ChatTypes   []string `json:"chat_types" yaml:"chat_types"`
	ExcludeBots bool     `json:"exclude_bots" yaml:"exclude_bots"`
}

// Logging содержит конфигурацию логирования
type Logging struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // text, json
}

// Config содержит конфигурацию приложения
type Config struct {
	Server     Server     `json:"server" yaml:"server"`
	Processing Processing `json:"processing" yaml:"processing"`
	Stats      Stats      `json:"stats" yaml:"stats"`
	Logging    Logging    `json:"logging" yaml:"logging"`
}

// defaultConfig возвращает конфигурацию со значениями по умолчанию
func defaultConfig() *Config {
	return &Config{
		Server: Server{
			Host:            DefaultServerHost,
			Port:            DefaultServerPort,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			IdleTimeout:     DefaultIdleTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
			MaxUploadSizeMB: DefaultMaxUploadSizeMB,
			CleanupInterval: DefaultCleanupInterval,
		},
		Processing: Processing{
			TaskTimeout: DefaultTaskTimeout,
			TaskTTL:     DefaultTaskTTL,
			CacheTTL:    DefaultCacheTTL,
			CacheSize:   DefaultCacheSize,
			SampleSize:  DefaultSampleSize,
		},
		Stats: Stats{
			ChatTypes: []string{DefaultChatTypes},
		},
		Logging: Logging{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// LoadConfig загружает конфигурацию: значения по умолчанию, затем config.yml
// (путь можно задать в CONFIG_PATH), затем переменные окружения и .env файл.
func LoadConfig() (*Config, error) {
	// .env необязателен, переменные окружения могут быть заданы напрямую.
	_ = godotenv.Load()

	cfg := defaultConfig()
	if err := loadFromYAML(getEnv("CONFIG_PATH", "config.yml"), cfg); err != nil {
		return nil, err
	}
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию из env: %w", err)
	}

	return cfg, nil
}

// loadFromYAML накладывает значения из YAML-файла на cfg.
// Отсутствие файла не считается ошибкой.
func loadFromYAML(filename string, cfg *Config) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("не удалось прочитать файл конфигурации %s: %w", filename, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("не удалось разобрать YAML конфигурацию: %w", err)
	}

	return nil
}

// loadFromEnv переопределяет значения, заданные в переменных окружения
func loadFromEnv(cfg *Config) error {
	cfg.Server.Host = getEnv("SERVER_HOST", cfg.Server.Host)

	if v := os.Getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("недопустимый SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"TASK_TIMEOUT", &cfg.Processing.TaskTimeout},
		{"CACHE_TTL", &cfg.Processing.CacheTTL},
		{"SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("недопустимый %s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	if v := os.Getenv("MAX_UPLOAD_SIZE_MB"); v != "" {
		size, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("недопустимый MAX_UPLOAD_SIZE_MB: %w", err)
		}
		cfg.Server.MaxUploadSizeMB = size
	}

	cfg.Stats.OwnerName = getEnv("STATS_OWNER_NAME", cfg.Stats.OwnerName)
	cfg.Stats.OwnerID = getEnv("STATS_OWNER_ID", cfg.Stats.OwnerID)
	if v := os.Getenv("STATS_CHAT_TYPES"); v != "" {
		cfg.Stats.ChatTypes = strings.Split(v, ",")
	}
	if v := os.Getenv("STATS_EXCLUDE_BOTS"); v != "" {
		exclude, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("недопустимый STATS_EXCLUDE_BOTS: %w", err)
		}
		cfg.Stats.ExcludeBots = exclude
	}

	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)
	return nil
}

// Address возвращает адрес сервера в формате "host:port"
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// MaxUploadBytes возвращает лимит размера загрузки в байтах
func (c *Config) MaxUploadBytes() int64 {
	return c.Server.MaxUploadSizeMB << 20
}

// StatsOptions возвращает параметры прогона по умолчанию
func (c *Config) StatsOptions() domain.Options {
	return domain.Options{
		Owner:       domain.Owner{Name: c.Stats.OwnerName, ID: c.Stats.OwnerID},
		ChatPolicy:  domain.NewChatTypes(c.Stats.ChatTypes...),
		ExcludeBots: c.Stats.ExcludeBots,
	}
}

// Validate проверяет, являются ли значения конфигурации допустимыми
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port должен быть действительным номером порта (1-65535)")
	}

	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout должно быть положительным")
	}

	if c.Server.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("server.max_upload_size_mb должно быть положительным")
	}

	if c.Server.CleanupInterval <= 0 {
		return fmt.Errorf("server.cleanup_interval должно быть положительным")
	}

	if c.Processing.TaskTimeout < 0 {
		return fmt.Errorf("processing.task_timeout должно быть неотрицательным (0 для отсутствия ограничений)")
	}

	if c.Processing.TaskTTL <= 0 {
		return fmt.Errorf("processing.task_ttl должно быть положительным")
	}

	if c.Processing.CacheTTL <= 0 {
		return fmt.Errorf("processing.cache_ttl должно быть положительным")
	}

	if c.Processing.CacheSize < 0 {
		return fmt.Errorf("processing.cache_size должно быть неотрицательным (0 для отсутствия ограничений)")
	}

	if c.Processing.SampleSize <= 0 {
		return fmt.Errorf("processing.sample_size должно быть положительным")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// all good
	default:
		return fmt.Errorf("logging.level должен быть одним из: debug, info, warn, error")
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format должен быть одним из: text, json")
	}

	return nil
}

// getEnv извлекает значение переменной окружения или возвращает значение по умолчанию, если она не установлена
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
