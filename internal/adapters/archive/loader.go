package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"telegram-chat-stats/internal/domain"
	"telegram-chat-stats/internal/ports"

	"github.com/h2non/filetype"
	"github.com/mholt/archives"
)

// exportFileName — имя документа, которое Telegram Desktop кладет в архив экспорта.
const exportFileName = "result.json"

// ZipLoader реализует ArchiveLoader: распаковывает zip в память
// и возвращает JSON-документ экспорта. JSON передается как есть.
type ZipLoader struct {
	maxSize int64
}

// NewZipLoader создает загрузчик. maxSize ограничивает размер распакованного JSON.
func NewZipLoader(maxSize int64) ports.ArchiveLoader {
	return &ZipLoader{maxSize: maxSize}
}

// IsZip сообщает, что данные являются zip-архивом.
func IsZip(data []byte) bool {
	return filetype.Is(data, "zip")
}

// IsJSON сообщает, что данные похожи на JSON-документ.
func IsJSON(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n\xef\xbb\xbf")
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

// IsSupported проверяет заголовок загружаемого файла.
func IsSupported(head []byte) bool {
	return IsZip(head) || IsJSON(head)
}

// Load возвращает JSON-документ из архива или сами данные, если это не архив.
func (l *ZipLoader) Load(ctx context.Context, data []byte) ([]byte, error) {
	if !IsZip(data) {
		return data, nil
	}

	var preferred, fallback []byte
	err := archives.Zip{}.Extract(ctx, bytes.NewReader(data), func(ctx context.Context, f archives.FileInfo) error {
		if f.IsDir() || preferred != nil || !isExportCandidate(f.NameInArchive) {
			return nil
		}
		isResult := strings.EqualFold(path.Base(f.NameInArchive), exportFileName)
		if fallback != nil && !isResult {
			return nil
		}

		content, err := l.readEntry(f)
		if err != nil {
			return err
		}
		if isResult {
			preferred = content
		} else {
			fallback = content
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to extract zip: %v: %w", err, domain.ErrInvalidInput)
	}

	switch {
	case preferred != nil:
		return preferred, nil
	case fallback != nil:
		return fallback, nil
	default:
		return nil, fmt.Errorf("zip contains no json document: %w", domain.ErrInvalidInput)
	}
}

func (l *ZipLoader) readEntry(f archives.FileInfo) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.NameInArchive, err)
	}
	defer rc.Close()

	reader := io.Reader(rc)
	if l.maxSize > 0 {
		reader = io.LimitReader(rc, l.maxSize+1)
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.NameInArchive, err)
	}
	if l.maxSize > 0 && int64(len(content)) > l.maxSize {
		return nil, fmt.Errorf("%s exceeds %d bytes", f.NameInArchive, l.maxSize)
	}
	return content, nil
}

// isExportCandidate отбрасывает не-JSON и служебные файлы macOS.
func isExportCandidate(name string) bool {
	if strings.HasPrefix(name, "__MACOSX/") || strings.HasPrefix(path.Base(name), "._") {
		return false
	}
	return strings.EqualFold(path.Ext(name), ".json")
}
