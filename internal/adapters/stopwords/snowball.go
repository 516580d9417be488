package stopwords

import (
	"telegram-chat-stats/internal/domain"
	"telegram-chat-stats/internal/ports"

	"github.com/kljensen/snowball/english"
	"github.com/kljensen/snowball/french"
	"github.com/kljensen/snowball/russian"
	"github.com/kljensen/snowball/spanish"
	"github.com/kljensen/snowball/swedish"
)

// SnowballLookup реализует StopwordLookup на словарях стоп-слов snowball.
type SnowballLookup struct {
	languages map[string]domain.StopFunc
}

// NewSnowballLookup создает справочник для языков, поддерживаемых snowball.
func NewSnowballLookup() ports.StopwordLookup {
	return &SnowballLookup{
		languages: map[string]domain.StopFunc{
			"en": english.IsStopWord,
			"fr": french.IsStopWord,
			"ru": russian.IsStopWord,
			"es": spanish.IsStopWord,
			"sv": swedish.IsStopWord,
		},
	}
}

// HasLanguage сообщает, есть ли словарь для языка.
func (l *SnowballLookup) HasLanguage(code string) bool {
	_, ok := l.languages[code]
	return ok
}

// Stopwords возвращает множество стоп-слов или пустое множество.
func (l *SnowballLookup) Stopwords(code string) domain.StopSet {
	if f, ok := l.languages[code]; ok {
		return f
	}
	return domain.EmptyStopSet
}
