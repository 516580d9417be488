package domain

import (
	"sort"
	"strings"
)

// TopN — длина всех рейтингов в отчете.
const TopN = 10

// TopDialogsN — длина списка самых активных диалогов владельца.
const TopDialogsN = 5

// EmojiStat — позиция рейтинга эмодзи или реакций.
type EmojiStat struct {
	Emoji string `json:"emoji"`
	Value int    `json:"value"`
	Path  string `json:"path,omitempty"`
}

// WordStat — позиция рейтинга слов.
type WordStat struct {
	Word  string `json:"word"`
	Value int    `json:"value"`
}

// AuthorReport — статистика одного автора в отчете.
type AuthorReport struct {
	Name              string      `json:"name"`
	MessagesTotal     int         `json:"messages_total"`
	VoiceMessageTotal int         `json:"voice_message_total"`
	TopEmojis         []EmojiStat `json:"top_emojis"`
	TopWords          []WordStat  `json:"top_words"`
	TopReactions      []EmojiStat `json:"top_reactions"`
}

// ChatReport — статистика одного чата в отчете.
type ChatReport struct {
	ChatID            int64       `json:"chat_id"`
	Name              string      `json:"name"`
	Type              string      `json:"type"`
	MessagesTotal     int         `json:"messages_total"`
	MessagesFromOwner int         `json:"messages_from_owner"`
	AuthorsTotal      int         `json:"authors_total"`
	TopEmojis         []EmojiStat `json:"top_emojis"`
	TopWords          []WordStat  `json:"top_words"`
	TopReactions      []EmojiStat `json:"top_reactions"`
}

// ChatRef — краткая ссылка на чат в сводке.
type ChatRef struct {
	ChatID int64  `json:"chat_id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Value  int    `json:"value"`
}

// Summary — агрегированные показатели по всему архиву.
type Summary struct {
	MessagesTotal     int        `json:"messages_total"`
	VoiceMessageTotal int        `json:"voice_message_total"`
	AuthorsTotal      int        `json:"authors_total"`
	ChatsTotal        int        `json:"chats_total"`
	Language          string     `json:"language"`
	MostActiveChat    *ChatRef   `json:"most_active_chat"`
	TopEmoji          *EmojiStat `json:"top_emoji"`
	TopReaction       *EmojiStat `json:"top_reaction"`
	TopWord           *WordStat  `json:"top_word"`
	TopDialogs        []ChatRef  `json:"top_dialogs"`
}

// Report — итог обработки одного архива.
type Report struct {
	Authors []AuthorReport `json:"authors"`
	Chats   []ChatReport   `json:"chats"`
	Summary Summary        `json:"summary"`
}

// ChatPolicy решает, попадает ли чат данного типа в отчет.
type ChatPolicy interface {
	Include(chatType string) bool
}

// IncludeAllChats включает чаты любого типа.
type IncludeAllChats struct{}

// Include реализует ChatPolicy.
func (IncludeAllChats) Include(string) bool { return true }

// ChatTypes включает только перечисленные типы.
type ChatTypes map[string]struct{}

// NewChatTypes строит политику из списка типов. "*" означает все типы.
func NewChatTypes(types ...string) ChatPolicy {
	set := make(ChatTypes, len(types))
	for _, t := range types {
		t = strings.TrimSpace(t)
		if t == "*" {
			return IncludeAllChats{}
		}
		if t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}

// ParseChatTypes разбирает список типов через запятую.
func ParseChatTypes(s string) ChatPolicy {
	return NewChatTypes(strings.Split(s, ",")...)
}

// Include реализует ChatPolicy.
func (c ChatTypes) Include(chatType string) bool {
	_, ok := c[chatType]
	return ok
}

// Options — параметры одного прогона, заданные вызывающей стороной.
type Options struct {
	Owner       Owner
	ChatPolicy  ChatPolicy
	ExcludeBots bool
}

// CacheKey возвращает строку, различающую прогоны с разными параметрами.
func (o Options) CacheKey() string {
	var sb strings.Builder
	sb.WriteString(o.Owner.Name)
	sb.WriteString("|")
	sb.WriteString(o.Owner.ID)
	sb.WriteString("|")
	switch p := o.ChatPolicy.(type) {
	case nil:
	case IncludeAllChats:
		sb.WriteString("*")
	case ChatTypes:
		sb.WriteString(strings.Join(sortedKeys(p), ","))
	default:
		sb.WriteString("custom")
	}
	if o.ExcludeBots {
		sb.WriteString("|nobots")
	}
	return sb.String()
}

func sortedKeys(m ChatTypes) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
