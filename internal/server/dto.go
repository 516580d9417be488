package server

import "telegram-chat-stats/internal/domain"

// Имена полей формы загрузки.
const (
	FormFieldFile        = "file"
	FormFieldOwner       = "owner"
	FormFieldOwnerID     = "owner_id"
	FormFieldChatTypes   = "chat_types"
	FormFieldExcludeBots = "exclude_bots"
)

// ProcessResponse возвращается на запуск задачи.
// Hash можно передать в /process-by-hash, чтобы повторно получить отчет из кеша.
type ProcessResponse struct {
	TaskID string `json:"task_id"`
	Hash   string `json:"hash,omitempty"`
}

// ProcessByHashRequest — тело запроса /process-by-hash.
type ProcessByHashRequest struct {
	Hash        string   `json:"hash"`
	Owner       string   `json:"owner,omitempty"`
	OwnerID     string   `json:"owner_id,omitempty"`
	ChatTypes   []string `json:"chat_types,omitempty"`
	ExcludeBots *bool    `json:"exclude_bots,omitempty"`
}

// TaskStatusResponse описывает состояние задачи.
type TaskStatusResponse struct {
	TaskID       string     `json:"task_id"`
	Status       TaskStatus `json:"status"`
	ErrorCode    string     `json:"error_code,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// Pagination — метаданные страницы.
type Pagination struct {
	CurrentPage int `json:"current_page"`
	PageSize    int `json:"page_size"`
	TotalItems  int `json:"total_items"`
	TotalPages  int `json:"total_pages"`
}

// AuthorsPage — страница авторов из отчета.
type AuthorsPage struct {
	Pagination Pagination            `json:"pagination"`
	Data       []domain.AuthorReport `json:"data"`
}
