package exporter

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"telegram-chat-stats/internal/domain"
	"telegram-chat-stats/internal/pkg/table"
	"telegram-chat-stats/internal/ports"
)

// Ширина колонок текстового отчета.
const (
	nameColWidth  = 24
	countColWidth = 8
	topColWidth   = 40
	topPreview    = 3
)

// ConsoleExporter реализует интерфейс Exporter для вывода отчета в текстовом виде.
type ConsoleExporter struct {
	w io.Writer
}

// NewConsoleExporter создает экспортер, пишущий в w. Если w == nil, используется stdout.
func NewConsoleExporter(w io.Writer) ports.Exporter {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleExporter{w: w}
}

// Export выводит сводку, таблицу авторов и таблицу чатов.
func (e *ConsoleExporter) Export(report *domain.Report) error {
	if report == nil {
		_, err := fmt.Fprintln(e.w, "No statistics found.")
		return err
	}

	var sb strings.Builder
	writeSummary(&sb, report.Summary)

	sb.WriteString("\n--- Authors ---\n")
	if len(report.Authors) == 0 {
		sb.WriteString("No authors found.\n")
	} else {
		rows := make([][]string, 0, len(report.Authors))
		for _, a := range report.Authors {
			rows = append(rows, []string{
				a.Name,
				strconv.Itoa(a.MessagesTotal),
				strconv.Itoa(a.VoiceMessageTotal),
				FormatWords(a.TopWords),
				FormatEmojis(a.TopEmojis),
				FormatEmojis(a.TopReactions),
			})
		}
		sb.WriteString(table.Render([]table.Column{
			{Title: "Author", Width: nameColWidth},
			{Title: "Messages", Width: countColWidth},
			{Title: "Voice", Width: countColWidth},
			{Title: "Top words", Width: topColWidth},
			{Title: "Top emoji", Width: topColWidth / 2},
			{Title: "Reactions", Width: topColWidth / 2},
		}, rows))
	}

	if len(report.Chats) > 0 {
		sb.WriteString("\n--- Chats ---\n")
		rows := make([][]string, 0, len(report.Chats))
		for _, c := range report.Chats {
			rows = append(rows, []string{
				c.Name,
				c.Type,
				strconv.Itoa(c.MessagesTotal),
				strconv.Itoa(c.MessagesFromOwner),
				strconv.Itoa(c.AuthorsTotal),
				FormatWords(c.TopWords),
			})
		}
		sb.WriteString(table.Render([]table.Column{
			{Title: "Chat", Width: nameColWidth},
			{Title: "Type", Width: 18},
			{Title: "Messages", Width: countColWidth},
			{Title: "Mine", Width: countColWidth},
			{Title: "Authors", Width: countColWidth},
			{Title: "Top words", Width: topColWidth},
		}, rows))
	}

	_, err := io.WriteString(e.w, sb.String())
	return err
}

func writeSummary(sb *strings.Builder, s domain.Summary) {
	sb.WriteString("--- Summary ---\n")
	fmt.Fprintf(sb, "Messages: %d\n", s.MessagesTotal)
	fmt.Fprintf(sb, "Voice messages: %d\n", s.VoiceMessageTotal)
	fmt.Fprintf(sb, "Authors: %d\n", s.AuthorsTotal)
	fmt.Fprintf(sb, "Chats: %d\n", s.ChatsTotal)
	fmt.Fprintf(sb, "Language: %s\n", s.Language)
	if s.MostActiveChat != nil {
		fmt.Fprintf(sb, "Most active chat: %s (%d authors)\n", s.MostActiveChat.Name, s.MostActiveChat.Value)
	}
	if s.TopWord != nil {
		fmt.Fprintf(sb, "Top word: %s (%d)\n", s.TopWord.Word, s.TopWord.Value)
	}
	if s.TopEmoji != nil {
		fmt.Fprintf(sb, "Top emoji: %s (%d)\n", s.TopEmoji.Emoji, s.TopEmoji.Value)
	}
	if s.TopReaction != nil {
		fmt.Fprintf(sb, "Top reaction: %s (%d)\n", s.TopReaction.Emoji, s.TopReaction.Value)
	}
	for i, d := range s.TopDialogs {
		fmt.Fprintf(sb, "Dialog #%d: %s (%d)\n", i+1, d.Name, d.Value)
	}
}

// FormatWords показывает первые позиции рейтинга слов в одну строку.
func FormatWords(words []domain.WordStat) string {
	parts := make([]string, 0, topPreview)
	for i, w := range words {
		if i == topPreview {
			break
		}
		parts = append(parts, fmt.Sprintf("%s(%d)", w.Word, w.Value))
	}
	return strings.Join(parts, " ")
}

// FormatEmojis печатает первые эмодзи в виде "😀n".
func FormatEmojis(emojis []domain.EmojiStat) string {
	parts := make([]string, 0, topPreview)
	for i, e := range emojis {
		if i == topPreview {
			break
		}
		parts = append(parts, fmt.Sprintf("%s%d", e.Emoji, e.Value))
	}
	return strings.Join(parts, " ")
}
