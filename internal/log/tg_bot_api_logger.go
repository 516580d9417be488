package log

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// TGBotAPIAdapter адаптирует slog.Logger под интерфейс логгера,
// который ожидает библиотека go-telegram-bot-api/v5.
type TGBotAPIAdapter struct {
	Logger *slog.Logger
}

// Println реализует метод интерфейса tgbotapi.BotLogger.
func (a *TGBotAPIAdapter) Println(v ...interface{}) {
	a.log(strings.TrimSpace(fmt.Sprintln(v...)))
}

// Printf реализует метод интерфейса tgbotapi.BotLogger.
func (a *TGBotAPIAdapter) Printf(format string, v ...interface{}) {
	a.log(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// log пишет сообщения библиотеки с пометкой источника. Ошибки сети при
// long polling библиотека печатает как обычный текст, поднимаем их до warn.
func (a *TGBotAPIAdapter) log(msg string) {
	level := slog.LevelDebug
	if strings.Contains(msg, "error") || strings.Contains(msg, "Failed") {
		level = slog.LevelWarn
	}
	a.Logger.Log(context.Background(), level, msg, slog.String("source", "tgbotapi"))
}
