package domain

import "github.com/tidwall/gjson"

// Типы сообщений и чатов, встречающиеся в экспорте Telegram.
const (
	MessageTypeService  = "service"
	MediaTypeVoice      = "voice_message"
	ChatTypeSaved       = "saved_messages"
	ChatTypeBot         = "bot_chat"
	EntityTypePlain     = "plain"
	EntityTypeCustomEmo = "custom_emoji"

	// UnknownAuthor — идентичность, под которой собираются сообщения без автора.
	UnknownAuthor = "Unknown"
	// UnknownChatName используется, если у чата нет ни name, ни title.
	UnknownChatName = "Unknown chat"
	// SavedMessagesName — имя неявного чата для сообщений верхнего уровня.
	SavedMessagesName = "Saved Messages"
	// LanguageUnknown — язык не определен.
	LanguageUnknown = "unknown"
)

// Export представляет корневой документ файла экспорта.
// Документ хранится как gjson.Result: любое чтение отсутствующего поля
// возвращает пустое значение, а не ошибку.
type Export struct {
	Root gjson.Result
}

// NewExport оборачивает уже разобранный корень документа.
func NewExport(root gjson.Result) *Export {
	return &Export{Root: root}
}

// ChatList возвращает элементы chats.list.
func (e *Export) ChatList() []gjson.Result {
	return arrayOf(e.Root.Get("chats.list"))
}

// LeftChatList возвращает элементы left_chats.list.
func (e *Export) LeftChatList() []gjson.Result {
	return arrayOf(e.Root.Get("left_chats.list"))
}

// RootMessages возвращает сообщения верхнего уровня (неявный чат "Избранное").
func (e *Export) RootMessages() []gjson.Result {
	return arrayOf(e.Root.Get("messages"))
}

// HasMessageSources сообщает, есть ли в документе хотя бы один из трех
// распознаваемых источников сообщений.
func (e *Export) HasMessageSources() bool {
	return e.Root.Get("chats.list").IsArray() ||
		e.Root.Get("left_chats.list").IsArray() ||
		e.Root.Get("messages").IsArray()
}

// PersonalInformation возвращает блок personal_information владельца экспорта.
func (e *Export) PersonalInformation() gjson.Result {
	return e.Root.Get("personal_information")
}

func arrayOf(v gjson.Result) []gjson.Result {
	if !v.IsArray() {
		return nil
	}
	return v.Array()
}

// Record — одно сообщение после нормализации вместе с контекстом чата.
type Record struct {
	Message   gjson.Result
	ChatID    int64
	HasChatID bool
	ChatName  string
	ChatType  string
}

// Owner описывает владельца экспорта. Поля могут быть пустыми.
type Owner struct {
	Name string
	ID   string
}

// IsZero сообщает, что владелец не известен.
func (o Owner) IsZero() bool {
	return o.Name == "" && o.ID == ""
}
