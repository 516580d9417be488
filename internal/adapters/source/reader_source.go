package source

import (
	"fmt"
	"io"
	"telegram-chat-stats/internal/ports"
)

// ReaderSource реализует интерфейс DataSource поверх произвольного потока:
// стандартного ввода или тела HTTP-ответа.
type ReaderSource struct {
	r       io.Reader
	maxSize int64
}

// NewReaderSource создает источник, читающий r целиком.
// maxSize <= 0 отключает ограничение размера.
func NewReaderSource(r io.Reader, maxSize int64) ports.DataSource {
	return &ReaderSource{r: r, maxSize: maxSize}
}

// Fetch вычитывает поток. Поток читается один раз.
func (s *ReaderSource) Fetch() ([]byte, error) {
	if s.r == nil {
		return nil, fmt.Errorf("reader not set")
	}

	r := s.r
	if s.maxSize > 0 {
		// Лишний байт позволяет отличить поток ровно в лимит от превышения.
		r = io.LimitReader(s.r, s.maxSize+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read stream: %w", err)
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return nil, fmt.Errorf("stream is larger than %d bytes: %w", s.maxSize, ErrTooLarge)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("stream is empty")
	}

	return data, nil
}
