package services

import (
	"telegram-chat-stats/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestAuthorOf(t *testing.T) {
	testCases := []struct {
		name     string
		message  string
		expected string
	}{
		{"поле from", `{"from": "Ann", "actor": "Bob"}`, "Ann"},
		{"пустой from, берется actor", `{"from": "", "actor": "Bob"}`, "Bob"},
		{"пробельный from, берется author", `{"from": "   ", "author": "Cara"}`, "Cara"},
		{"from_id как последний вариант", `{"from": null, "from_id": "user42"}`, "user42"},
		{"значение обрезается", `{"from": "  Dan  "}`, "Dan"},
		{"нет автора", `{"type": "message"}`, domain.UnknownAuthor},
		{"только пробелы", `{"from": " ", "actor": "\t"}`, domain.UnknownAuthor},
		{"нестроковое значение игнорируется", `{"from": 42, "actor": "Eve"}`, "Eve"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, AuthorOf(gjson.Parse(tc.message)))
		})
	}
}

func TestTextOf(t *testing.T) {
	testCases := []struct {
		name     string
		message  string
		expected string
	}{
		{
			name:     "первая plain-сущность",
			message:  `{"text_entities": [{"type": "bold", "text": "B"}, {"type": "plain", "text": "first"}, {"type": "plain", "text": "second"}]}`,
			expected: "first",
		},
		{
			name:     "сущности без plain",
			message:  `{"text": "fallback", "text_entities": [{"type": "link", "text": "http://x"}]}`,
			expected: "",
		},
		{
			name:     "сущность-не-объект пропускается",
			message:  `{"text_entities": ["junk", {"type": "plain", "text": "ok"}]}`,
			expected: "ok",
		},
		{
			name:     "строковое поле text",
			message:  `{"text": "Hello", "text_entities": []}`,
			expected: "Hello",
		},
		{
			name:     "text как массив сегментов",
			message:  `{"text": ["Hello", {"type": "bold", "text": "x"}, {"type": "plain", "text": "world"}]}`,
			expected: "Hello world",
		},
		{
			name:     "текста нет",
			message:  `{"media_type": "voice_message"}`,
			expected: "",
		},
		{
			name:     "text неизвестного вида",
			message:  `{"text": 12}`,
			expected: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, TextOf(gjson.Parse(tc.message)))
		})
	}
}

func TestIsVoice(t *testing.T) {
	t.Run("голосовое без текста", func(t *testing.T) {
		assert.True(t, IsVoice(gjson.Parse(`{"media_type": "voice_message", "text": "", "text_entities": []}`)))
	})

	t.Run("голосовое с расшифровкой", func(t *testing.T) {
		assert.False(t, IsVoice(gjson.Parse(`{"media_type": "voice_message", "text_entities": [{"type": "plain", "text": "привет"}]}`)))
	})

	t.Run("другой тип медиа", func(t *testing.T) {
		assert.False(t, IsVoice(gjson.Parse(`{"media_type": "video_message"}`)))
	})
}

func TestEmojiSources(t *testing.T) {
	t.Run("plain и custom_emoji", func(t *testing.T) {
		msg := gjson.Parse(`{"text_entities": [
			{"type": "plain", "text": "hi 😀"},
			{"type": "mention", "text": "@bob"},
			{"type": "custom_emoji", "text": "🔥", "document_id": "docs/fire.webp"}
		]}`)

		assert.Equal(t, []EmojiSource{
			{Text: "hi 😀"},
			{Text: "🔥", Path: "docs/fire.webp"},
		}, EmojiSources(msg))
	})

	t.Run("резервный текст без сущностей", func(t *testing.T) {
		msg := gjson.Parse(`{"text": "ok 👍"}`)
		assert.Equal(t, []EmojiSource{{Text: "ok 👍"}}, EmojiSources(msg))
	})

	t.Run("нет текста", func(t *testing.T) {
		assert.Empty(t, EmojiSources(gjson.Parse(`{}`)))
	})
}

func TestReactionToken(t *testing.T) {
	testCases := []struct {
		name     string
		reaction string
		token    string
		path     string
		ok       bool
	}{
		{"эмодзи", `{"type": "emoji", "emoji": "❤"}`, "❤", "", true},
		{"кастомная реакция", `{"type": "custom_emoji", "document_id": "stickers/1.webp"}`, "stickers/1.webp", "stickers/1.webp", true},
		{"ни эмодзи, ни документа", `{"type": "paid"}`, "", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			token, path, ok := ReactionToken(gjson.Parse(tc.reaction))
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.token, token)
			assert.Equal(t, tc.path, path)
		})
	}
}

func TestReactorOf(t *testing.T) {
	assert.Equal(t, "Cara", ReactorOf(gjson.Parse(`{"from": "Cara", "from_id": "user1"}`)))
	assert.Equal(t, "user1", ReactorOf(gjson.Parse(`{"from": null, "from_id": "user1"}`)))
	assert.Equal(t, "", ReactorOf(gjson.Parse(`{"date": "2024-01-01"}`)))
	assert.Equal(t, "", ReactorOf(gjson.Parse(`"Cara"`)))
}
