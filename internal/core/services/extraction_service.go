package services

import (
	"strings"
	"telegram-chat-stats/internal/domain"

	"github.com/tidwall/gjson"
)

// authorKeys — поля, из которых по порядку берется автор сообщения.
var authorKeys = []string{"from", "actor", "author", "from_id"}

// EmojiSource — фрагмент текста, в котором ищутся эмодзи.
// Path заполнен для кастомных эмодзи.
type EmojiSource struct {
	Text string
	Path string
}

// AuthorOf возвращает каноничный идентификатор автора сообщения.
// Пустые и пробельные значения пропускаются; если автора нет, возвращается "Unknown".
func AuthorOf(msg gjson.Result) string {
	for _, key := range authorKeys {
		if v := strings.TrimSpace(stringField(msg, key)); v != "" {
			return v
		}
	}
	return domain.UnknownAuthor
}

// ReactorOf возвращает идентификатор поставившего реакцию или пустую строку.
func ReactorOf(reactor gjson.Result) string {
	if v := strings.TrimSpace(stringField(reactor, "from")); v != "" {
		return v
	}
	return strings.TrimSpace(stringField(reactor, "from_id"))
}

// TextOf возвращает простой текст сообщения.
// Если есть text_entities, берется первая сущность типа "plain".
// Иначе используется поле text: строка или склейка простых сегментов массива.
func TextOf(msg gjson.Result) string {
	if entities := items(msg.Get("text_entities")); len(entities) > 0 {
		for _, ent := range entities {
			if !ent.IsObject() || stringField(ent, "type") != domain.EntityTypePlain {
				continue
			}
			if text := ent.Get("text"); text.Type == gjson.String {
				return text.Str
			}
		}
		return ""
	}

	text := msg.Get("text")
	switch {
	case text.Type == gjson.String:
		return text.Str
	case text.IsArray():
		var parts []string
		for _, part := range text.Array() {
			switch {
			case part.Type == gjson.String:
				if part.Str != "" {
					parts = append(parts, part.Str)
				}
			case part.IsObject() && stringField(part, "type") == domain.EntityTypePlain:
				if s := stringField(part, "text"); s != "" {
					parts = append(parts, s)
				}
			}
		}
		return strings.Join(parts, " ")
	}
	return ""
}

// IsVoice сообщает, что сообщение — голосовое без расшифровки.
func IsVoice(msg gjson.Result) bool {
	return stringField(msg, "media_type") == domain.MediaTypeVoice && TextOf(msg) == ""
}

// EmojiSources возвращает фрагменты, в которых считаются эмодзи:
// сущности типов "plain" и "custom_emoji" либо резервный текст сообщения.
func EmojiSources(msg gjson.Result) []EmojiSource {
	entities := items(msg.Get("text_entities"))
	if len(entities) == 0 {
		if text := TextOf(msg); text != "" {
			return []EmojiSource{{Text: text}}
		}
		return nil
	}

	var sources []EmojiSource
	for _, ent := range entities {
		if !ent.IsObject() {
			continue
		}
		switch stringField(ent, "type") {
		case domain.EntityTypePlain, domain.EntityTypeCustomEmo:
		default:
			continue
		}
		text := ent.Get("text")
		if text.Type != gjson.String || text.Str == "" {
			continue
		}
		sources = append(sources, EmojiSource{Text: text.Str, Path: stringField(ent, "document_id")})
	}
	return sources
}

// ReactionToken возвращает глиф реакции (или document_id для кастомных) и путь документа.
// ok == false, если ни того, ни другого нет.
func ReactionToken(reaction gjson.Result) (token, path string, ok bool) {
	path = stringField(reaction, "document_id")
	if emoji := stringField(reaction, "emoji"); emoji != "" {
		return emoji, path, true
	}
	if path != "" {
		return path, path, true
	}
	return "", "", false
}

// stringField возвращает значение поля, только если это строка.
func stringField(obj gjson.Result, key string) string {
	if !obj.IsObject() {
		return ""
	}
	v := obj.Get(key)
	if v.Type != gjson.String {
		return ""
	}
	return v.Str
}

// items возвращает элементы массива или nil для любого другого значения.
func items(v gjson.Result) []gjson.Result {
	if !v.IsArray() {
		return nil
	}
	return v.Array()
}
