package services

import (
	"strings"
	"telegram-chat-stats/internal/domain"

	"github.com/tidwall/gjson"
)

// Normalizer разворачивает документ экспорта в плоский поток сообщений.
type Normalizer struct{}

// NewNormalizer создает новый экземпляр Normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize обходит chats.list, left_chats.list и сообщения верхнего уровня
// в этом порядке. Служебные сообщения и не-объекты пропускаются.
func (n *Normalizer) Normalize(export *domain.Export) []domain.Record {
	var records []domain.Record

	for _, chat := range export.ChatList() {
		records = appendChat(records, chat)
	}
	for _, chat := range export.LeftChatList() {
		records = appendChat(records, chat)
	}
	for _, msg := range export.RootMessages() {
		if !isUserMessage(msg) {
			continue
		}
		records = append(records, domain.Record{
			Message:  msg,
			ChatName: domain.SavedMessagesName,
			ChatType: domain.ChatTypeSaved,
		})
	}

	return records
}

func appendChat(records []domain.Record, chat gjson.Result) []domain.Record {
	if !chat.IsObject() {
		return records
	}

	id := chat.Get("id")
	hasID := id.Type == gjson.Number
	name := chatName(chat)
	chatType := stringField(chat, "type")

	for _, msg := range items(chat.Get("messages")) {
		if !isUserMessage(msg) {
			continue
		}
		rec := domain.Record{
			Message:   msg,
			HasChatID: hasID,
			ChatName:  name,
			ChatType:  chatType,
		}
		if hasID {
			rec.ChatID = id.Int()
		}
		records = append(records, rec)
	}
	return records
}

func isUserMessage(msg gjson.Result) bool {
	return msg.IsObject() && stringField(msg, "type") != domain.MessageTypeService
}

// chatName выбирает name, затем title, затем "Unknown chat".
func chatName(chat gjson.Result) string {
	if name := stringField(chat, "name"); name != "" {
		return name
	}
	if title := stringField(chat, "title"); title != "" {
		return title
	}
	return domain.UnknownChatName
}

// BotNames возвращает имена чатов с ботами из обоих списков чатов.
func BotNames(export *domain.Export) []string {
	var names []string
	seen := make(map[string]bool)
	for _, list := range [][]gjson.Result{export.ChatList(), export.LeftChatList()} {
		for _, chat := range list {
			if stringField(chat, "type") != domain.ChatTypeBot {
				continue
			}
			name := stringField(chat, "name")
			if name != "" && !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// OwnerFromExport берет владельца из блока personal_information.
func OwnerFromExport(export *domain.Export) domain.Owner {
	info := export.PersonalInformation()
	if !info.IsObject() {
		return domain.Owner{}
	}

	name := strings.TrimSpace(stringField(info, "first_name") + " " + stringField(info, "last_name"))

	var id string
	if uid := info.Get("user_id"); uid.Type == gjson.Number {
		id = "user" + uid.Raw
	}
	return domain.Owner{Name: name, ID: id}
}
