package services

import (
	"strings"
	"unicode"

	"github.com/forPelevin/gomoji"
	"github.com/rivo/uniseg"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

const variationSelector = "\ufe0f"

// isEmojiCluster сообщает, является ли графема эмодзи по таблице Unicode
// emoji-test. Варианты без селектора U+FE0F и с модификатором тона кожи
// сводятся к базовому эмодзи, текстовые символы вроде ★ или ✓ эмодзи не считаются.
func isEmojiCluster(cluster string) bool {
	if isKnownEmoji(cluster) {
		return true
	}
	base := strings.Map(func(r rune) rune {
		if r == 0xfe0f || (r >= 0x1f3fb && r <= 0x1f3ff) {
			return -1
		}
		return r
	}, cluster)
	if base == "" {
		return false
	}
	if base != cluster && isKnownEmoji(base) {
		return true
	}
	return isKnownEmoji(base + variationSelector)
}

func isKnownEmoji(s string) bool {
	_, err := gomoji.GetInfo(s)
	return err == nil
}

// SplitEmoji возвращает эмодзи-графемы в порядке появления и текст,
// в котором каждая из них заменена пробелом.
func SplitEmoji(text string) ([]string, string) {
	var (
		emojis []string
		rest   strings.Builder
	)
	rest.Grow(len(text))

	g := uniseg.NewGraphemes(text)
	for g.Next() {
		if isEmojiCluster(g.Str()) {
			emojis = append(emojis, g.Str())
			rest.WriteByte(' ')
			continue
		}
		rest.WriteString(g.Str())
	}
	return emojis, rest.String()
}

// Tokenizer разбивает текст на слова для частотного словаря.
// Не потокобезопасен: cases.Caser хранит состояние между вызовами.
type Tokenizer struct {
	fold  cases.Caser
	strip transform.Transformer
}

// NewTokenizer создает токенизатор.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{
		fold: cases.Fold(),
		strip: runes.Map(func(r rune) rune {
			if unicode.IsPunct(r) || unicode.IsSymbol(r) {
				return ' '
			}
			return r
		}),
	}
}

// Words удаляет эмодзи, знаки препинания и символы, приводит регистр
// и делит текст по пробелам.
func (t *Tokenizer) Words(text string) []string {
	if text == "" {
		return nil
	}
	_, rest := SplitEmoji(text)

	clean, _, err := transform.String(t.strip, rest)
	if err != nil {
		clean = rest
	}
	return strings.Fields(t.fold.String(clean))
}
