package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"telegram-chat-stats/internal/adapters/source"
	"telegram-chat-stats/internal/cache"
	"telegram-chat-stats/internal/domain"
	"telegram-chat-stats/internal/metrics"
	"telegram-chat-stats/internal/pkg/config"
	"telegram-chat-stats/internal/ports"
	"time"
)

// StatsPipeline собирает отчет по разобранному документу экспорта.
type StatsPipeline interface {
	Run(ctx context.Context, export *domain.Export, opts domain.Options) (*domain.Report, error)
}

// ProcessChatUseCase инкапсулирует обработку одного архива экспорта:
// кеш, распаковку, разбор и сбор статистики.
type ProcessChatUseCase struct {
	cfg        *config.Config
	loader     ports.ArchiveLoader
	parser     ports.Parser
	pipeline   StatsPipeline
	cacheStore *cache.CacheStore
	metrics    *metrics.Metrics
	log        *slog.Logger
}

// NewProcessChatUseCase создает новый экземпляр ProcessChatUseCase.
// m может быть nil, тогда метрики не собираются.
func NewProcessChatUseCase(
	cfg *config.Config,
	loader ports.ArchiveLoader,
	parser ports.Parser,
	pipeline StatsPipeline,
	cacheStore *cache.CacheStore,
	m *metrics.Metrics,
	logger *slog.Logger,
) *ProcessChatUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessChatUseCase{
		cfg:        cfg,
		loader:     loader,
		parser:     parser,
		pipeline:   pipeline,
		cacheStore: cacheStore,
		metrics:    m,
		log:        logger,
	}
}

// ProcessChat читает архив с диска и строит по нему отчет.
func (uc *ProcessChatUseCase) ProcessChat(ctx context.Context, filePath string, opts domain.Options) (*domain.Report, error) {
	data, err := source.NewFileSource(filePath, uc.cfg.MaxUploadBytes()).Fetch()
	if err != nil {
		return nil, fmt.Errorf("не удалось извлечь данные из %s: %w", filePath, err)
	}
	return uc.Run(ctx, data, opts)
}

// Run строит отчет по содержимому архива. Результат кешируется по хешу
// данных и параметрам прогона.
func (uc *ProcessChatUseCase) Run(ctx context.Context, data []byte, opts domain.Options) (*domain.Report, error) {
	key := cache.Key(cache.CalculateDataHash(data), opts)
	if item, found := uc.cacheStore.Get(key); found {
		uc.log.Info("Попадание в кеш", "key", key)
		if uc.metrics != nil {
			uc.metrics.CacheHits.Inc()
		}
		return item.Data, nil
	}

	started := time.Now()
	report, err := uc.build(ctx, data, opts)
	uc.observe(started, report, err)
	if err != nil {
		return nil, err
	}

	ttl := uc.cfg.Processing.CacheTTL
	uc.cacheStore.Put(key, report, ttl)
	uc.log.Info("Отчет построен",
		"messages", report.Summary.MessagesTotal,
		"authors", report.Summary.AuthorsTotal,
		"chats", report.Summary.ChatsTotal,
		"language", report.Summary.Language,
		"ttl", ttl.String())
	return report, nil
}

// LookupCached возвращает отчет из кеша по хешу ранее загруженного архива.
func (uc *ProcessChatUseCase) LookupCached(dataHash string, opts domain.Options) (*domain.Report, bool) {
	item, found := uc.cacheStore.Get(cache.Key(dataHash, opts))
	if !found {
		return nil, false
	}
	if uc.metrics != nil {
		uc.metrics.CacheHits.Inc()
	}
	return item.Data, true
}

func (uc *ProcessChatUseCase) build(ctx context.Context, data []byte, opts domain.Options) (*domain.Report, error) {
	doc, err := uc.loader.Load(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("не удалось распаковать архив: %w", err)
	}

	export, err := uc.parser.Parse(doc)
	if err != nil {
		return nil, fmt.Errorf("не удалось разобрать экспорт: %w", err)
	}

	report, err := uc.pipeline.Run(ctx, export, opts)
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (uc *ProcessChatUseCase) observe(started time.Time, report *domain.Report, err error) {
	if uc.metrics == nil {
		return
	}
	messages := 0
	if report != nil {
		messages = report.Summary.MessagesTotal
	}
	uc.metrics.ObserveRun(Outcome(err), time.Since(started).Seconds(), messages)
}

// Outcome классифицирует результат прогона для метрик и статуса задачи.
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeCompleted
	case errors.Is(err, domain.ErrNoData):
		return metrics.OutcomeNoData
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, source.ErrTooLarge):
		return metrics.OutcomeInvalidInput
	default:
		return metrics.OutcomeFailed
	}
}
