package langdetect

import (
	"log/slog"
	"strings"
	"telegram-chat-stats/internal/domain"
	"telegram-chat-stats/internal/ports"

	"github.com/abadojack/whatlanggo"
)

// Unknown возвращается, если язык определить не удалось.
const Unknown = domain.LanguageUnknown

// WhatlangDetector реализует LanguageDetector на базе whatlanggo.
type WhatlangDetector struct{}

// NewWhatlangDetector создает новый детектор.
func NewWhatlangDetector() ports.LanguageDetector {
	return &WhatlangDetector{}
}

// Detect возвращает код ISO 639-1 наиболее вероятного языка или "unknown",
// если в тексте нет букв или у языка нет кода ISO 639-1. Короткий образец
// не отбрасывается по IsReliable: прогон всегда выбирает лучший вариант.
// Паника внутри библиотеки не выходит за пределы метода.
func (d *WhatlangDetector) Detect(text string) (lang string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("language detection panicked", "panic", r)
			lang = Unknown
		}
	}()

	if strings.TrimSpace(text) == "" {
		return Unknown
	}

	info := whatlanggo.Detect(text)
	code := info.Lang.Iso6391()
	if code == "" {
		return Unknown
	}
	return code
}
