// Package table рисует текстовые таблицы фиксированной ширины
// для консоли и моноширинных сообщений Telegram.
package table

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
)

// Column описывает колонку таблицы.
type Column struct {
	Title string
	Width int
}

// Render рисует таблицу. Длинные значения переносятся по словам внутри колонки.
func Render(columns []Column, rows [][]string) string {
	var sb strings.Builder

	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.Title
	}
	writeRow(&sb, columns, header)

	sb.WriteString("|")
	for _, c := range columns {
		sb.WriteString(strings.Repeat("-", c.Width+2))
		sb.WriteString("|")
	}
	sb.WriteString("\n")

	for _, row := range rows {
		writeRow(&sb, columns, row)
	}
	return sb.String()
}

func writeRow(sb *strings.Builder, columns []Column, row []string) {
	cells := make([][]string, len(columns))
	maxLines := 1
	for i, c := range columns {
		value := ""
		if i < len(row) {
			value = strings.ReplaceAll(strings.ToValidUTF8(row[i], ""), "\n", " ")
		}
		cells[i] = Wrap(value, c.Width)
		if len(cells[i]) > maxLines {
			maxLines = len(cells[i])
		}
	}

	for line := 0; line < maxLines; line++ {
		for i, c := range columns {
			part := ""
			if line < len(cells[i]) {
				part = cells[i][line]
			}
			sb.WriteString("| ")
			sb.WriteString(part)
			sb.WriteString(Padding(part, c.Width))
			sb.WriteString(" ")
		}
		sb.WriteString("|\n")
	}
}

// Padding вычисляет отступ для строки с учетом поправки на CJK-символы.
func Padding(s string, colWidth int) string {
	paddingNeeded := colWidth - runewidth.StringWidth(s)

	// Некоторые клиенты рисуют CJK-символы чуть шире, добавляем один пробел.
	hasCJK := false
	for _, r := range s {
		if unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hangul, r) || unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r) {
			hasCJK = true
			break
		}
	}

	if hasCJK && paddingNeeded >= 0 {
		paddingNeeded++
	}

	if paddingNeeded > 0 {
		return strings.Repeat(" ", paddingNeeded)
	}
	return ""
}

// Wrap переносит строку по ширине, предпочитая границы слов.
// Слово длиннее ширины разрывается посередине.
func Wrap(s string, width int) []string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return []string{s}
	}

	words := strings.Fields(s)
	if len(words) == 0 {
		lines := breakRunes([]rune(s), width)
		if len(lines) == 0 {
			return []string{""}
		}
		return lines
	}

	var (
		lines       []string
		currentLine strings.Builder
	)
	for _, word := range words {
		wordWidth := runewidth.StringWidth(word)

		if wordWidth > width {
			if currentLine.Len() > 0 {
				lines = append(lines, currentLine.String())
				currentLine.Reset()
			}
			lines = append(lines, breakRunes([]rune(word), width)...)
			continue
		}

		lineLen := runewidth.StringWidth(currentLine.String())
		if lineLen > 0 && lineLen+1+wordWidth > width {
			lines = append(lines, currentLine.String())
			currentLine.Reset()
		}

		if currentLine.Len() > 0 {
			currentLine.WriteString(" ")
		}
		currentLine.WriteString(word)
	}

	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}

	return lines
}

func breakRunes(runes []rune, width int) []string {
	var lines []string
	for len(runes) > 0 {
		i := 0
		currentWidth := 0
		for i < len(runes) {
			rw := runewidth.RuneWidth(runes[i])
			if currentWidth+rw > width {
				break
			}
			currentWidth += rw
			i++
		}
		if i == 0 {
			// Символ шире колонки.
			i = 1
		}
		lines = append(lines, string(runes[:i]))
		runes = runes[i:]
	}
	return lines
}
