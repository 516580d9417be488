package source

import (
	"errors"
	"fmt"
	"os"
	"telegram-chat-stats/internal/ports"
)

// ErrTooLarge возвращается, когда источник превышает допустимый размер.
var ErrTooLarge = errors.New("source exceeds size limit")

// FileSource реализует интерфейс DataSource для чтения архива с диска.
type FileSource struct {
	filePath string
	maxSize  int64
}

// NewFileSource создает новый экземпляр FileSource.
// maxSize <= 0 отключает ограничение размера.
func NewFileSource(filePath string, maxSize int64) ports.DataSource {
	return &FileSource{filePath: filePath, maxSize: maxSize}
}

// Fetch читает файл по указанному пути и возвращает его содержимое.
func (s *FileSource) Fetch() ([]byte, error) {
	if s.filePath == "" {
		return nil, fmt.Errorf("не указан путь к файлу")
	}

	info, err := os.Stat(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file %s: %w", s.filePath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", s.filePath)
	}
	if s.maxSize > 0 && info.Size() > s.maxSize {
		return nil, fmt.Errorf("file %s is %d bytes: %w", s.filePath, info.Size(), ErrTooLarge)
	}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", s.filePath, err)
	}

	return data, nil
}
