package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"telegram-chat-stats/cmd/bot/config"
	"telegram-chat-stats/internal/adapters/exporter"
	"telegram-chat-stats/internal/adapters/source"
	"telegram-chat-stats/internal/apiclient"
	"telegram-chat-stats/internal/domain"
	"telegram-chat-stats/internal/server"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	startCommand = "start"
	helpCommand  = "help"

	// maxMessageLength — ограничение Telegram на длину текста сообщения.
	maxMessageLength = 4096
)

// ServerAPI описывает методы бэкенда, которые нужны боту.
type ServerAPI interface {
	StartTask(ctx context.Context, file apiclient.DocumentFile, opts apiclient.StartOptions) (*server.ProcessResponse, error)
	GetTaskStatus(ctx context.Context, taskID string) (*server.TaskStatusResponse, error)
	GetTaskResult(ctx context.Context, taskID string) (*domain.Report, error)
}

// Bot представляет собой основной объект Telegram-бота.
type Bot struct {
	api          *tgbotapi.BotAPI
	cfg          config.BotConfig
	serverClient ServerAPI
	taskStore    *TaskStore
	logger       *slog.Logger
	httpClient   *http.Client
	pollInterval time.Duration
	pollTimeout  time.Duration

	// Вызовы Bot API вынесены в поля, чтобы подменять их в тестах.
	sendMessageFunc      func(tgbotapi.Chattable) (tgbotapi.Message, error)
	getFileDirectURLFunc func(fileID string) (string, error)
}

// NewBot создает и инициализирует новый экземпляр бота.
func NewBot(cfg config.BotConfig, serverClient ServerAPI, taskStore *TaskStore, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot api: %w", err)
	}

	logger.Info("Authorized on account", slog.String("username", api.Self.UserName))

	return &Bot{
		api:                  api,
		cfg:                  cfg,
		serverClient:         serverClient,
		taskStore:            taskStore,
		logger:               logger,
		httpClient:           &http.Client{Timeout: time.Duration(cfg.HTTPTimeoutSeconds) * time.Second},
		pollInterval:         cfg.PollInterval(),
		pollTimeout:          cfg.PollTimeout(),
		sendMessageFunc:      api.Send,
		getFileDirectURLFunc: api.GetFileDirectURL,
	}, nil
}

// Start запускает основной цикл обработки обновлений от Telegram.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Context cancelled, stopping bot...")
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(msg)
		return
	}

	if msg.Document != nil {
		b.handleDocument(ctx, msg)
		return
	}

	b.reply(msg.Chat.ID, "Пожалуйста, отправьте мне архив экспорта Telegram (zip) или файл result.json.")
}

// handleCommand обрабатывает команды.
func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case startCommand, helpCommand:
		b.reply(msg.Chat.ID, "Я считаю статистику по экспорту истории Telegram.\n\n"+
			"Отправьте мне zip-архив или result.json из Telegram Desktop "+
			"(Настройки → Продвинутые → Экспорт данных, формат JSON).\n\n"+
			"В подписи к файлу можно указать параметры:\n"+
			"• owner_id=user123 — кто владелец экспорта\n"+
			"• types=personal_chat,private_group — какие чаты учитывать\n"+
			"• nobots или bots — исключать ли ботов\n\n"+
			"Файлы не сохраняются и обрабатываются на лету.")
	default:
		b.reply(msg.Chat.ID, "Я не знаю такой команды.")
	}
}

// handleDocument обрабатывает входящий документ (файл).
func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	doc := msg.Document
	logger := b.logger.With(slog.Int64("chat_id", chatID))

	// 1. Проверяем, нет ли уже активной задачи.
	if _, ok := b.taskStore.Get(chatID); ok {
		logger.Warn("user tried to start a new task while another is active")
		b.reply(chatID, "Пожалуйста, подождите завершения предыдущей задачи, прежде чем начинать новую.")
		return
	}

	// 2. Проверяем файл до скачивания.
	switch strings.ToLower(path.Ext(doc.FileName)) {
	case ".zip", ".json":
	default:
		b.reply(chatID, "Поддерживаются только zip-архивы и JSON-файлы экспорта.")
		return
	}
	if limit := b.cfg.MaxFileSize(); int64(doc.FileSize) > limit {
		b.reply(chatID, fmt.Sprintf("Файл слишком большой. Максимальный размер: %d МБ.", b.cfg.MaxFileSizeMB))
		return
	}

	opts, err := parseCaption(msg.Caption, b.cfg.ExcludeBots)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Не удалось разобрать параметры: %s", err))
		return
	}

	// 3. Скачиваем файл.
	data, err := b.downloadFile(ctx, doc.FileID)
	if err != nil {
		logger.Error("failed to download file", slog.String("error", err.Error()))
		b.reply(chatID, "Не удалось скачать файл. Попробуйте отправить его еще раз.")
		return
	}

	// 4. Запускаем задачу на бэкенде.
	startResp, err := b.serverClient.StartTask(ctx, apiclient.DocumentFile{
		Name:    doc.FileName,
		Content: bytes.NewReader(data),
	}, opts)
	if err != nil {
		logger.Error("failed to start task on backend", slog.String("error", err.Error()))
		b.reply(chatID, "Не удалось начать обработку файла на сервере. Пожалуйста, попробуйте позже.")
		return
	}

	taskID := startResp.TaskID
	logger.Info("task started on backend", slog.String("task_id", taskID))

	// 5. Сохраняем task_id и запускаем опрос.
	b.taskStore.Set(chatID, taskID)
	go b.pollTaskStatus(ctx, chatID, taskID)

	b.reply(chatID, "✅ Файл получен и поставлен в очередь на обработку. Ожидайте результата.")
}

// downloadFile скачивает файл с серверов Telegram с учетом лимита размера.
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	fileURL, err := b.getFileDirectURLFunc(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file direct url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return source.NewReaderSource(resp.Body, b.cfg.MaxFileSize()).Fetch()
}

func (b *Bot) reply(chatID int64, text string) {
	b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendMessage(msg tgbotapi.Chattable) {
	if _, err := b.sendMessageFunc(msg); err != nil {
		b.logger.Error("failed to send message", slog.String("error", err.Error()))
	}
}

// pollTaskStatus асинхронно опрашивает статус задачи на бэкенд-сервере.
// Опрос ограничен по времени и по числу ошибок подряд: чат не остается
// занятым задачей, о которой сервер уже ничего не знает.
func (b *Bot) pollTaskStatus(ctx context.Context, chatID int64, taskID string) {
	logger := b.logger.With(slog.Int64("chat_id", chatID), slog.String("task_id", taskID))
	defer b.taskStore.Delete(chatID) // Гарантированно удаляем задачу по завершении.

	if b.pollTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.pollTimeout)
		defer cancel()
	}

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				logger.Warn("polling timed out")
				b.reply(chatID, "Не дождался результата обработки. Попробуйте отправить файл еще раз.")
				return
			}
			logger.Warn("polling cancelled by context")
			return
		case <-ticker.C:
			status, err := b.serverClient.GetTaskStatus(ctx, taskID)
			if errors.Is(err, apiclient.ErrNotFound) {
				logger.Warn("task is unknown to backend", slog.String("error", err.Error()))
				b.reply(chatID, "Сервер потерял задачу (возможно, он был перезапущен). Отправьте файл еще раз.")
				return
			}
			if err != nil {
				failures++
				logger.Error("failed to get task status", slog.String("error", err.Error()), slog.Int("failures", failures))
				if failures >= b.cfg.MaxPollErrors {
					b.reply(chatID, "Сервер обработки недоступен. Попробуйте отправить файл позже.")
					return
				}
				continue
			}
			failures = 0

			switch status.Status {
			case server.TaskStatusCompleted:
				logger.Info("task completed")
				b.processCompletedTask(ctx, chatID, taskID)
				return
			case server.TaskStatusNoData:
				logger.Info("task finished without messages")
				b.reply(chatID, "В экспорте не найдено ни одного сообщения. Проверьте, что при выгрузке была выбрана история чатов.")
				return
			case server.TaskStatusFailed:
				logger.Warn("task failed", slog.String("code", status.ErrorCode), slog.String("reason", status.ErrorMessage))
				b.reply(chatID, failureText(status))
				return
			case server.TaskStatusPending, server.TaskStatusProcessing:
				logger.Debug("task is in progress", slog.String("status", string(status.Status)))
			default:
				logger.Warn("unknown task status", slog.String("status", string(status.Status)))
			}
		}
	}
}

// failureText переводит код ошибки задачи в сообщение для пользователя.
func failureText(status *server.TaskStatusResponse) string {
	switch status.ErrorCode {
	case server.ErrorCodeInvalidInput:
		return "Файл не похож на экспорт Telegram в формате JSON."
	case server.ErrorCodeTimeout:
		return "Обработка заняла слишком много времени. Попробуйте экспортировать меньше чатов."
	default:
		return fmt.Sprintf("Произошла ошибка при обработке файла: %s", status.ErrorMessage)
	}
}

// processCompletedTask отправляет сводку текстом и полный отчет в Excel.
func (b *Bot) processCompletedTask(ctx context.Context, chatID int64, taskID string) {
	logger := b.logger.With(slog.Int64("chat_id", chatID), slog.String("task_id", taskID))

	report, err := b.serverClient.GetTaskResult(ctx, taskID)
	if err != nil {
		logger.Error("failed to fetch result", slog.String("error", err.Error()))
		b.reply(chatID, "Не удалось получить результаты для выполненной задачи. Пожалуйста, попробуйте позже.")
		return
	}

	elapsed, _ := b.taskStore.Elapsed(chatID)
	logger.Info("successfully fetched result",
		slog.Int("author_count", len(report.Authors)),
		slog.Duration("elapsed", elapsed))

	text := renderSummary(report, b.cfg.Render, b.cfg.TopAuthors)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	b.sendMessage(msg)

	b.sendExcelResult(chatID, report)
}

func (b *Bot) sendExcelResult(chatID int64, report *domain.Report) {
	var buf bytes.Buffer
	if err := exporter.NewExcelExporter(&buf).Export(report); err != nil {
		b.logger.Error("failed to build excel report", slog.String("error", err.Error()))
		b.reply(chatID, "Не удалось сгенерировать Excel-файл.")
		return
	}

	fileName := fmt.Sprintf("chat_stats_%s.xlsx", time.Now().Format("2006-01-02_15-04-05"))
	msg := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: fileName, Bytes: buf.Bytes()})
	msg.Caption = fmt.Sprintf("Полный отчет: %d авторов, %d чатов.", len(report.Authors), len(report.Chats))
	b.sendMessage(msg)
}
