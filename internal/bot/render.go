package bot

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"telegram-chat-stats/cmd/bot/config"
	"telegram-chat-stats/internal/adapters/exporter"
	"telegram-chat-stats/internal/domain"
	"telegram-chat-stats/internal/pkg/table"
)

// renderSummary форматирует сводку отчета как HTML-сообщение Telegram.
// Таблица авторов выводится моноширинным блоком и отбрасывается,
// если сообщение не помещается в лимит.
func renderSummary(report *domain.Report, widths config.ColumnWidths, topAuthors int) string {
	var sb strings.Builder
	s := report.Summary

	fmt.Fprintf(&sb, "<b>Сообщений:</b> %d (голосовых: %d)\n", s.MessagesTotal, s.VoiceMessageTotal)
	fmt.Fprintf(&sb, "<b>Авторов:</b> %d, <b>чатов:</b> %d\n", s.AuthorsTotal, s.ChatsTotal)
	fmt.Fprintf(&sb, "<b>Язык:</b> %s\n", html.EscapeString(s.Language))
	if s.MostActiveChat != nil {
		fmt.Fprintf(&sb, "<b>Самый активный чат:</b> %s (%d авторов)\n", html.EscapeString(s.MostActiveChat.Name), s.MostActiveChat.Value)
	}
	if s.TopWord != nil {
		fmt.Fprintf(&sb, "<b>Популярное слово:</b> %s (%d)\n", html.EscapeString(s.TopWord.Word), s.TopWord.Value)
	}
	if s.TopEmoji != nil {
		fmt.Fprintf(&sb, "<b>Популярный эмодзи:</b> %s (%d)\n", html.EscapeString(s.TopEmoji.Emoji), s.TopEmoji.Value)
	}
	if s.TopReaction != nil {
		fmt.Fprintf(&sb, "<b>Популярная реакция:</b> %s (%d)\n", html.EscapeString(s.TopReaction.Emoji), s.TopReaction.Value)
	}
	for i, d := range s.TopDialogs {
		fmt.Fprintf(&sb, "%d. %s (%d)\n", i+1, html.EscapeString(d.Name), d.Value)
	}

	summary := sb.String()
	if len(report.Authors) == 0 {
		return summary
	}

	authors := report.Authors
	if len(authors) > topAuthors {
		authors = authors[:topAuthors]
	}
	rows := make([][]string, 0, len(authors))
	for _, a := range authors {
		rows = append(rows, []string{
			a.Name,
			strconv.Itoa(a.MessagesTotal),
			exporter.FormatWords(a.TopWords),
			exporter.FormatEmojis(a.TopEmojis),
		})
	}
	rendered := table.Render([]table.Column{
		{Title: "Автор", Width: widths.Author},
		{Title: "Сообщ.", Width: widths.Messages},
		{Title: "Слова", Width: widths.Words},
		{Title: "Эмодзи", Width: widths.Emojis},
	}, rows)

	// Экранируем после отрисовки, чтобы сущности не сбивали ширину колонок.
	full := summary + "\n<pre><code>" + html.EscapeString(rendered) + "</code></pre>"
	if len(full) > maxMessageLength {
		return summary + "\nТаблица авторов не поместилась в сообщение, смотрите Excel-файл."
	}
	return full
}
