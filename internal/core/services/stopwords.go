package services

import (
	"strings"
	"telegram-chat-stats/internal/domain"
	"telegram-chat-stats/internal/ports"
)

// SampleSize — сколько первых сообщений используется для определения языка.
const SampleSize = 500

// SampleTexts возвращает непустые тексты первых limit записей в исходном порядке.
func SampleTexts(records []domain.Record, limit int) []string {
	if limit > len(records) {
		limit = len(records)
	}
	texts := make([]string, 0, limit)
	for _, rec := range records[:limit] {
		if text := TextOf(rec.Message); strings.TrimSpace(text) != "" {
			texts = append(texts, text)
		}
	}
	return texts
}

// StopwordContextBuilder принимает единое языковое решение на прогон.
type StopwordContextBuilder struct {
	detector ports.LanguageDetector
	lookup   ports.StopwordLookup
}

// NewStopwordContextBuilder создает построитель. Любой из аргументов может быть nil:
// тогда язык считается неизвестным, а фильтрация отключается.
func NewStopwordContextBuilder(detector ports.LanguageDetector, lookup ports.StopwordLookup) *StopwordContextBuilder {
	return &StopwordContextBuilder{detector: detector, lookup: lookup}
}

// Build определяет язык по склеенной выборке и подбирает для него стоп-слова.
func (b *StopwordContextBuilder) Build(samples []string) domain.StopwordContext {
	ctx := domain.StopwordContext{
		Language:  domain.LanguageUnknown,
		Stopwords: domain.EmptyStopSet,
	}

	sample := strings.Join(samples, " ")
	if b.detector == nil || strings.TrimSpace(sample) == "" {
		return ctx
	}
	if lang := b.detector.Detect(sample); lang != "" {
		ctx.Language = lang
	}

	if b.lookup != nil && b.lookup.HasLanguage(ctx.Language) {
		if set := b.lookup.Stopwords(ctx.Language); set != nil {
			ctx.Stopwords = set
		}
	}
	return ctx
}
