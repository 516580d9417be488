package services

import (
	"context"
	"fmt"
	"log/slog"
	"telegram-chat-stats/internal/domain"
	"telegram-chat-stats/internal/ports"
)

// defaultCheckEvery — как часто цикл накопления проверяет отмену контекста.
const defaultCheckEvery = 1024

// PipelineOption определяет функциональную опцию для Pipeline.
type PipelineOption func(*Pipeline)

// WithLogger устанавливает логгер конвейера.
func WithLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithSampleSize переопределяет размер выборки для определения языка.
func WithSampleSize(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.sampleSize = n
		}
	}
}

// WithCheckEvery задает период проверки отмены в сообщениях.
func WithCheckEvery(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.checkEvery = n
		}
	}
}

// Pipeline собирает статистику по одному документу экспорта.
// Сам конвейер не хранит состояние прогона и может использоваться конкурентно:
// каждый вызов Run создает собственный агрегат.
type Pipeline struct {
	normalizer *Normalizer
	stopwords  *StopwordContextBuilder
	sampleSize int
	checkEvery int
	log        *slog.Logger
}

// NewPipeline создает конвейер с внешними детектором языка и словарем стоп-слов.
func NewPipeline(detector ports.LanguageDetector, lookup ports.StopwordLookup, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		normalizer: NewNormalizer(),
		stopwords:  NewStopwordContextBuilder(detector, lookup),
		sampleSize: SampleSize,
		checkEvery: defaultCheckEvery,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run выполняет полный проход: нормализация, языковой контекст, накопление и отчет.
// Возвращает domain.ErrNoData, если в документе нет ни одного пользовательского сообщения.
// При отмене контекста частичный отчет не возвращается.
func (p *Pipeline) Run(ctx context.Context, export *domain.Export, opts domain.Options) (*domain.Report, error) {
	records := p.normalizer.Normalize(export)
	if len(records) == 0 {
		return nil, domain.ErrNoData
	}

	owner := opts.Owner
	if owner.IsZero() {
		owner = OwnerFromExport(export)
	}

	sw := p.stopwords.Build(SampleTexts(records, p.sampleSize))
	p.log.Debug("языковой контекст определен", "language", sw.Language, "records", len(records))

	acc := NewAccumulator(owner, sw.Stopwords)
	for i, rec := range records {
		if i%p.checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("накопление статистики прервано: %w", err)
			}
		}
		acc.Accept(rec)
	}

	var bots []string
	if opts.ExcludeBots {
		bots = BotNames(export)
	}
	report := NewReportBuilder(opts.ChatPolicy, bots, opts.ExcludeBots).Build(acc.Stats(), sw.Language)

	p.log.Info("статистика собрана",
		"messages", report.Summary.MessagesTotal,
		"authors", report.Summary.AuthorsTotal,
		"chats", report.Summary.ChatsTotal,
		"language", sw.Language)

	return report, nil
}
