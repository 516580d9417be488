package log

import (
	"context"
	"log/slog"
	"regexp"
)

// maskRule заменяет совпадения шаблона на маску.
type maskRule struct {
	re   *regexp.Regexp
	mask string
}

var maskRules = []maskRule{
	// Токен бота вида botID:token, в том числе внутри URL файлов Telegram.
	{re: regexp.MustCompile(`\bbot\d+:[A-Za-z0-9_-]{35,}`), mask: "bot***:***masked-token***"},
	// Идентификаторы пользователей из экспорта (from_id, owner_id).
	{re: regexp.MustCompile(`\buser(\d{2})\d{3,}\b`), mask: "user${1}***"},
}

// mask применяет все правила маскировки к строке.
func mask(text string) string {
	for _, r := range maskRules {
		text = r.re.ReplaceAllString(text, r.mask)
	}
	return text
}

// MaskingHandler - обертка для slog.Handler, которая скрывает токены бота
// и идентификаторы пользователей в сообщениях и атрибутах.
type MaskingHandler struct {
	handler slog.Handler
}

// NewMaskingHandler создает новый обработчик с маскировкой
func NewMaskingHandler(handler slog.Handler) *MaskingHandler {
	return &MaskingHandler{handler: handler}
}

// Enabled реализует интерфейс slog.Handler
func (h *MaskingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle реализует интерфейс slog.Handler
func (h *MaskingHandler) Handle(ctx context.Context, record slog.Record) error {
	// Новая запись без атрибутов: исходную slog может переиспользовать.
	r := slog.NewRecord(record.Time, record.Level, mask(record.Message), record.PC)
	record.Attrs(func(a slog.Attr) bool {
		r.AddAttrs(maskAttr(a))
		return true
	})
	return h.handler.Handle(ctx, r)
}

// WithAttrs реализует интерфейс slog.Handler
func (h *MaskingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = maskAttr(a)
	}
	return &MaskingHandler{handler: h.handler.WithAttrs(masked)}
}

// WithGroup реализует интерфейс slog.Handler
func (h *MaskingHandler) WithGroup(name string) slog.Handler {
	return &MaskingHandler{handler: h.handler.WithGroup(name)}
}

func maskAttr(a slog.Attr) slog.Attr {
	return slog.Attr{Key: a.Key, Value: maskValue(a.Value)}
}

// maskValue рекурсивно маскирует значения атрибутов
func maskValue(value slog.Value) slog.Value {
	switch value.Kind() {
	case slog.KindString:
		return slog.StringValue(mask(value.String()))
	case slog.KindAny:
		// Ошибки часто содержат URL с токеном.
		if err, ok := value.Any().(error); ok {
			return slog.StringValue(mask(err.Error()))
		}
		return value
	case slog.KindLogValuer:
		return maskValue(value.Resolve())
	case slog.KindGroup:
		group := value.Group()
		masked := make([]slog.Attr, len(group))
		for i, a := range group {
			masked[i] = maskAttr(a)
		}
		return slog.GroupValue(masked...)
	default:
		return value
	}
}
