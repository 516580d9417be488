package parser

import (
	"fmt"
	"telegram-chat-stats/internal/domain"
	"telegram-chat-stats/internal/ports"

	"github.com/tidwall/gjson"
)

// JsonParser реализует интерфейс Parser для разбора JSON данных экспорта.
type JsonParser struct{}

// NewJsonParser создает новый экземпляр JsonParser.
func NewJsonParser() ports.Parser {
	return &JsonParser{}
}

// Parse проверяет JSON и оборачивает корень документа.
// Документ без единого источника сообщений считается некорректным.
func (p *JsonParser) Parse(data []byte) (*domain.Export, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("failed to unmarshal json: %w", domain.ErrInvalidInput)
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("root is not an object: %w", domain.ErrInvalidInput)
	}

	export := domain.NewExport(root)
	if !export.HasMessageSources() {
		return nil, fmt.Errorf("no chats, left_chats or messages found: %w", domain.ErrInvalidInput)
	}

	return export, nil
}
