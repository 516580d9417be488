package exporter

import (
	"errors"
	"fmt"
	"io"
	"telegram-chat-stats/internal/domain"
	"telegram-chat-stats/internal/ports"

	"github.com/xuri/excelize/v2"
)

// Имена листов книги с отчетом.
const (
	SheetSummary = "Сводка"
	SheetAuthors = "Авторы"
	SheetChats   = "Чаты"
)

// ExcelExporter записывает отчет в книгу xlsx.
type ExcelExporter struct {
	w io.Writer
}

// NewExcelExporter создает экспортер, пишущий книгу в w.
func NewExcelExporter(w io.Writer) ports.Exporter {
	return &ExcelExporter{w: w}
}

// Export формирует листы сводки, авторов и чатов.
func (e *ExcelExporter) Export(report *domain.Report) (err error) {
	if report == nil {
		return errors.New("report is nil")
	}

	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close workbook: %w", cerr)
		}
	}()

	// Первый лист книги переименовывается в сводку.
	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := writeSummarySheet(f, report.Summary); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetAuthors); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", SheetAuthors, err)
	}
	authorRows := make([][]any, 0, len(report.Authors))
	for _, a := range report.Authors {
		authorRows = append(authorRows, []any{
			a.Name, a.MessagesTotal, a.VoiceMessageTotal,
			FormatWords(a.TopWords), FormatEmojis(a.TopEmojis), FormatEmojis(a.TopReactions),
		})
	}
	if err := writeSheet(f, SheetAuthors,
		[]string{"Автор", "Сообщений", "Голосовых", "Топ слов", "Топ эмодзи", "Топ реакций"}, authorRows); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetChats); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", SheetChats, err)
	}
	chatRows := make([][]any, 0, len(report.Chats))
	for _, c := range report.Chats {
		chatRows = append(chatRows, []any{
			c.ChatID, c.Name, c.Type, c.MessagesTotal, c.MessagesFromOwner, c.AuthorsTotal,
			FormatWords(c.TopWords), FormatEmojis(c.TopEmojis), FormatEmojis(c.TopReactions),
		})
	}
	if err := writeSheet(f, SheetChats,
		[]string{"ID", "Чат", "Тип", "Сообщений", "Моих", "Авторов", "Топ слов", "Топ эмодзи", "Топ реакций"}, chatRows); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(e.w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, s domain.Summary) error {
	rows := [][]any{
		{"Сообщений", s.MessagesTotal},
		{"Голосовых", s.VoiceMessageTotal},
		{"Авторов", s.AuthorsTotal},
		{"Чатов", s.ChatsTotal},
		{"Язык", s.Language},
	}
	if s.MostActiveChat != nil {
		rows = append(rows, []any{"Самый активный чат", s.MostActiveChat.Name})
	}
	if s.TopWord != nil {
		rows = append(rows, []any{"Популярное слово", s.TopWord.Word})
	}
	if s.TopEmoji != nil {
		rows = append(rows, []any{"Популярный эмодзи", s.TopEmoji.Emoji})
	}
	if s.TopReaction != nil {
		rows = append(rows, []any{"Популярная реакция", s.TopReaction.Emoji})
	}
	return writeSheet(f, SheetSummary, []string{"Показатель", "Значение"}, rows)
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]any) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to set header %s: %w", cell, err)
		}
	}
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}
	return nil
}
