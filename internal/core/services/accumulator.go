package services

import (
	"strings"
	"telegram-chat-stats/internal/domain"

	"github.com/tidwall/gjson"
)

// Accumulator обновляет агрегат статистики по одному сообщению за раз.
// Принадлежит одному прогону и не потокобезопасен.
type Accumulator struct {
	stats     *domain.Stats
	owner     domain.Owner
	stopwords domain.StopSet
	tokenizer *Tokenizer
}

// NewAccumulator создает накопитель с пустым агрегатом.
func NewAccumulator(owner domain.Owner, stopwords domain.StopSet) *Accumulator {
	if stopwords == nil {
		stopwords = domain.EmptyStopSet
	}
	return &Accumulator{
		stats:     domain.NewStats(),
		owner:     owner,
		stopwords: stopwords,
		tokenizer: NewTokenizer(),
	}
}

// Stats возвращает накопленный агрегат.
func (a *Accumulator) Stats() *domain.Stats {
	return a.stats
}

// reactionHit — одна реакция, поставленная одним пользователем.
type reactionHit struct {
	reactor string
	token   string
	path    string
}

// emojiHit — одно вхождение эмодзи в текст.
type emojiHit struct {
	glyph string
	path  string
}

// Accept учитывает одно нормализованное сообщение.
func (a *Accumulator) Accept(rec domain.Record) {
	msg := rec.Message
	name := AuthorOf(msg)
	author := a.stats.Author(name)

	author.MessagesTotal++
	a.stats.MessagesTotal++

	if IsVoice(msg) {
		author.VoiceTotal++
		a.stats.VoiceTotal++
	}

	reactions := collectReactions(msg)
	for _, r := range reactions {
		a.stats.Author(r.reactor).Reactions.Add(r.token, r.path, 1)
		a.stats.Reactions.Add(r.token, r.path, 1)
	}

	var emojis []emojiHit
	for _, src := range EmojiSources(msg) {
		glyphs, _ := SplitEmoji(src.Text)
		for _, g := range glyphs {
			emojis = append(emojis, emojiHit{glyph: g, path: src.Path})
		}
	}
	for _, e := range emojis {
		author.Emojis.Add(e.glyph, e.path, 1)
		a.stats.Emojis.Add(e.glyph, e.path, 1)
	}

	var words []string
	for _, w := range a.tokenizer.Words(TextOf(msg)) {
		if a.stopwords.Contains(w) {
			continue
		}
		words = append(words, w)
	}
	for _, w := range words {
		author.Words.Inc(w)
		a.stats.Words.Inc(w)
	}

	if !rec.HasChatID {
		return
	}

	chat := a.stats.Chat(rec.ChatID, rec.ChatName, rec.ChatType)
	chat.MessagesTotal++
	chat.Authors.Inc(name)
	if a.isOwner(msg, name) {
		chat.MessagesFromOwner++
	}
	for _, r := range reactions {
		chat.Reactions.Add(r.token, r.path, 1)
	}
	for _, e := range emojis {
		chat.Emojis.Add(e.glyph, e.path, 1)
	}
	for _, w := range words {
		chat.Words.Inc(w)
	}
}

// isOwner сообщает, что сообщение написал владелец экспорта.
func (a *Accumulator) isOwner(msg gjson.Result, author string) bool {
	if a.owner.ID != "" && strings.TrimSpace(stringField(msg, "from_id")) == a.owner.ID {
		return true
	}
	return a.owner.Name != "" && author == a.owner.Name
}

// collectReactions разворачивает реакции сообщения в плоский список.
// Реакции без токена, без recent или с нераспознанным пользователем пропускаются.
func collectReactions(msg gjson.Result) []reactionHit {
	var hits []reactionHit
	for _, reaction := range items(msg.Get("reactions")) {
		if !reaction.IsObject() {
			continue
		}
		token, path, ok := ReactionToken(reaction)
		if !ok {
			continue
		}
		for _, reactor := range items(reaction.Get("recent")) {
			who := ReactorOf(reactor)
			if who == "" {
				continue
			}
			hits = append(hits, reactionHit{reactor: who, token: token, path: path})
		}
	}
	return hits
}
