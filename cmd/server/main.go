package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"telegram-chat-stats/internal/adapters/archive"
	"telegram-chat-stats/internal/adapters/langdetect"
	"telegram-chat-stats/internal/adapters/parser"
	"telegram-chat-stats/internal/adapters/stopwords"
	"telegram-chat-stats/internal/cache"
	"telegram-chat-stats/internal/core/services"
	"telegram-chat-stats/internal/log"
	"telegram-chat-stats/internal/metrics"
	"telegram-chat-stats/internal/pkg/config"
	"telegram-chat-stats/internal/server"
	"telegram-chat-stats/internal/server/usecase"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}

// run инкапсулирует всю логику инициализации и запуска приложения.
func run() error {
	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		// Логгер еще не инициализирован, выводим в stderr
		_, _ = fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Инициализация логгера
	logger := log.New(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	// 3. Валидация конфигурации (после инициализации логгера)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// 4. Инициализация зависимостей
	taskStore := server.NewTaskStore()
	cacheStore := cache.NewCacheStore(cache.WithMaxEntries(cfg.Processing.CacheSize))
	cacheStore.StartCleanupTicker(appCtx, cfg.Server.CleanupInterval)
	m := metrics.New()

	pipeline := services.NewPipeline(
		langdetect.NewWhatlangDetector(),
		stopwords.NewSnowballLookup(),
		services.WithSampleSize(cfg.Processing.SampleSize),
		services.WithLogger(logger.With("component", "pipeline")),
	)
	processor := usecase.NewProcessChatUseCase(
		cfg,
		archive.NewZipLoader(cfg.MaxUploadBytes()),
		parser.NewJsonParser(),
		pipeline,
		cacheStore,
		m,
		logger.With("component", "usecase"),
	)

	// 5. Создание HTTP-сервера
	srv, err := server.New(cfg, processor, taskStore, m, logger.With("component", "server"))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// 6. Запуск сервера и graceful shutdown
	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		slog.Info("Starting server", "addr", cfg.Address(), "task_timeout", cfg.Processing.TaskTimeout.String())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		slog.Info("Signal received, shutting down...")
	case <-serverDone:
		return fmt.Errorf("server stopped unexpectedly")
	}

	// Останавливаем тикеры очистки
	appCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	<-serverDone
	slog.Info("Application exited gracefully")
	return nil
}
