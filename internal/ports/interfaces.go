package ports

import (
	"context"
	"telegram-chat-stats/internal/domain"
)

// DataSource определяет интерфейс для получения исходных данных архива.
type DataSource interface {
	// Fetch загружает данные из источника и возвращает их в виде байтового среза.
	Fetch() ([]byte, error)
}

// ArchiveLoader распаковывает загруженный архив до JSON-документа экспорта.
// JSON передается без изменений.
type ArchiveLoader interface {
	Load(ctx context.Context, data []byte) ([]byte, error)
}

// Parser определяет интерфейс для разбора документа экспорта.
type Parser interface {
	// Parse преобразует сырые данные в документ экспорта.
	Parse(data []byte) (*domain.Export, error)
}

// LanguageDetector определяет язык образца текста.
// Возвращает код ISO 639-1 или "unknown" и никогда не паникует.
type LanguageDetector interface {
	Detect(text string) string
}

// StopwordLookup предоставляет словари стоп-слов по коду языка.
type StopwordLookup interface {
	HasLanguage(code string) bool
	Stopwords(code string) domain.StopSet
}

// Exporter определяет интерфейс для вывода отчета.
type Exporter interface {
	// Export принимает готовый отчет и выводит его.
	Export(report *domain.Report) error
}
