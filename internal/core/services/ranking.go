package services

import (
	"sort"
	"telegram-chat-stats/internal/domain"
)

// TopN возвращает n позиций с наибольшими значениями. При равенстве
// раньше идет ключ, вставленный первым.
func TopN(entries []domain.CounterEntry, n int) []domain.CounterEntry {
	sorted := make([]domain.CounterEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value > sorted[j].Value
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func topEmojis(c *domain.Counter) []domain.EmojiStat {
	top := TopN(c.Entries(), domain.TopN)
	out := make([]domain.EmojiStat, 0, len(top))
	for _, e := range top {
		out = append(out, domain.EmojiStat{Emoji: e.Key, Value: e.Value, Path: e.Path})
	}
	return out
}

func topWords(c *domain.Counter) []domain.WordStat {
	top := TopN(c.Entries(), domain.TopN)
	out := make([]domain.WordStat, 0, len(top))
	for _, e := range top {
		out = append(out, domain.WordStat{Word: e.Key, Value: e.Value})
	}
	return out
}

// ReportBuilder превращает агрегат в итоговый отчет.
type ReportBuilder struct {
	policy       domain.ChatPolicy
	excluded     map[string]bool
	skipBotChats bool
}

// NewReportBuilder создает построитель отчета. Чаты фильтруются политикой
// (nil не пропускает ни одного чата). Авторы из excluded не попадают в отчет.
func NewReportBuilder(policy domain.ChatPolicy, excluded []string, skipBotChats bool) *ReportBuilder {
	set := make(map[string]bool, len(excluded))
	for _, name := range excluded {
		set[name] = true
	}
	return &ReportBuilder{policy: policy, excluded: set, skipBotChats: skipBotChats}
}

// Build строит отчет. Агрегат только читается.
func (b *ReportBuilder) Build(stats *domain.Stats, language string) *domain.Report {
	report := &domain.Report{
		Authors: []domain.AuthorReport{},
		Chats:   []domain.ChatReport{},
	}

	for _, a := range stats.Authors() {
		if a.MessagesTotal == 0 || b.excluded[a.Name] {
			continue
		}
		report.Authors = append(report.Authors, domain.AuthorReport{
			Name:              a.Name,
			MessagesTotal:     a.MessagesTotal,
			VoiceMessageTotal: a.VoiceTotal,
			TopEmojis:         topEmojis(a.Emojis),
			TopWords:          topWords(a.Words),
			TopReactions:      topEmojis(a.Reactions),
		})
	}

	var included []*domain.ChatStats
	for _, c := range stats.Chats() {
		if !b.includeChat(c) {
			continue
		}
		included = append(included, c)
		report.Chats = append(report.Chats, domain.ChatReport{
			ChatID:            c.ID,
			Name:              c.Name,
			Type:              c.Type,
			MessagesTotal:     c.MessagesTotal,
			MessagesFromOwner: c.MessagesFromOwner,
			AuthorsTotal:      c.Authors.Len(),
			TopEmojis:         topEmojis(c.Emojis),
			TopWords:          topWords(c.Words),
			TopReactions:      topEmojis(c.Reactions),
		})
	}

	report.Summary = b.summary(stats, included, len(report.Authors), language)
	return report
}

func (b *ReportBuilder) includeChat(c *domain.ChatStats) bool {
	if b.policy == nil || !b.policy.Include(c.Type) {
		return false
	}
	return !(b.skipBotChats && c.Type == domain.ChatTypeBot)
}

func (b *ReportBuilder) summary(stats *domain.Stats, chats []*domain.ChatStats, authors int, language string) domain.Summary {
	s := domain.Summary{
		MessagesTotal:     stats.MessagesTotal,
		VoiceMessageTotal: stats.VoiceTotal,
		AuthorsTotal:      authors,
		ChatsTotal:        len(stats.Chats()),
		Language:          language,
		TopDialogs:        []domain.ChatRef{},
	}

	var best *domain.ChatStats
	for _, c := range chats {
		if best == nil || c.Authors.Len() > best.Authors.Len() {
			best = c
		}
	}
	if best != nil {
		s.MostActiveChat = &domain.ChatRef{ChatID: best.ID, Name: best.Name, Type: best.Type, Value: best.Authors.Len()}
	}

	if top := topEmojis(stats.Emojis); len(top) > 0 {
		s.TopEmoji = &top[0]
	}
	if top := topEmojis(stats.Reactions); len(top) > 0 {
		s.TopReaction = &top[0]
	}
	if top := topWords(stats.Words); len(top) > 0 {
		s.TopWord = &top[0]
	}

	dialogs := make([]*domain.ChatStats, 0, len(chats))
	for _, c := range chats {
		if c.MessagesFromOwner > 0 {
			dialogs = append(dialogs, c)
		}
	}
	sort.SliceStable(dialogs, func(i, j int) bool {
		return dialogs[i].MessagesFromOwner > dialogs[j].MessagesFromOwner
	})
	if len(dialogs) > domain.TopDialogsN {
		dialogs = dialogs[:domain.TopDialogsN]
	}
	for _, c := range dialogs {
		s.TopDialogs = append(s.TopDialogs, domain.ChatRef{ChatID: c.ID, Name: c.Name, Type: c.Type, Value: c.MessagesFromOwner})
	}

	return s
}
