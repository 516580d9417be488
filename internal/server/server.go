package server

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"telegram-chat-stats/internal/adapters/archive"
	"telegram-chat-stats/internal/adapters/source"
	"telegram-chat-stats/internal/domain"
	"telegram-chat-stats/internal/metrics"
	"telegram-chat-stats/internal/pkg/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const (
	defaultPage     = 1
	defaultPageSize = 50
	maxPageSize     = 500
	sniffLen        = 512
)

// ChatProcessor определяет интерфейс для варианта использования, который строит отчеты.
type ChatProcessor interface {
	ProcessChat(ctx context.Context, filePath string, opts domain.Options) (*domain.Report, error)
	LookupCached(dataHash string, opts domain.Options) (*domain.Report, bool)
}

// Server представляет HTTP-сервер
type Server struct {
	HTTPServer *http.Server
	cfg        *config.Config
	taskStore  *TaskStore
	processor  ChatProcessor
	log        *slog.Logger

	// baseCtx отменяется при остановке и прерывает незавершенные задачи.
	baseCtx context.Context
	cancel  context.CancelFunc
}

// New создает новый экземпляр Server. m может быть nil, тогда /metrics не публикуется.
func New(cfg *config.Config, processor ChatProcessor, taskStore *TaskStore, m *metrics.Metrics, logger *slog.Logger) (*Server, error) {
	if cfg == nil || processor == nil || taskStore == nil {
		return nil, errors.New("server: config, processor and task store are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:       cfg,
		taskStore: taskStore,
		processor: processor,
		log:       logger,
		baseCtx:   ctx,
		cancel:    cancel,
	}

	chiRouter := chi.NewRouter()

	// Промежуточное ПО
	chiRouter.Use(middleware.RequestID)
	chiRouter.Use(middleware.Logger)
	chiRouter.Use(middleware.Recoverer)

	chiRouter.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if m != nil {
		chiRouter.Handle("/metrics", m.Handler())
	}

	// Маршруты API
	chiRouter.Route("/api/v1", func(r chi.Router) {
		r.Post("/process", s.handleProcess)
		r.Post("/process-by-hash", s.handleProcessByHash)
		r.Get("/tasks/{taskID}", s.handleTaskStatus)
		r.Get("/tasks/{taskID}/result", s.handleTaskResult)
		r.Get("/tasks/{taskID}/result/authors", s.handleTaskAuthors)
	})

	s.HTTPServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      chiRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	if cfg.Server.CleanupInterval > 0 {
		s.taskStore.StartCleanupTicker(ctx, cfg.Server.CleanupInterval)
	}

	return s, nil
}

// ListenAndServe запускает HTTP-сервер
func (s *Server) ListenAndServe() error {
	return s.HTTPServer.ListenAndServe()
}

// Shutdown корректно завершает работу HTTP-сервера и прерывает фоновые задачи.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Завершение работы HTTP-сервера")
	defer s.cancel()
	return s.HTTPServer.Shutdown(ctx)
}

// handleProcess принимает архив экспорта и запускает задачу обработки.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))
	if err := r.ParseMultipartForm(limit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "Файл слишком большой", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Не удалось разобрать форму", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	opts, err := s.formOptions(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile(FormFieldFile)
	if err != nil {
		http.Error(w, "Не удалось получить файл из формы", http.StatusBadRequest)
		return
	}
	defer file.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		http.Error(w, "Не удалось прочитать файл", http.StatusBadRequest)
		return
	}
	head = head[:n]
	if !archive.IsSupported(head) {
		http.Error(w, "Ожидается zip-архив или JSON экспорта", http.StatusUnsupportedMediaType)
		return
	}

	out, err := os.CreateTemp("", "chatstats_*.upload")
	if err != nil {
		http.Error(w, "Не удалось создать временный файл", http.StatusInternalServerError)
		return
	}
	tempFilePath := out.Name()

	hasher := sha256.New()
	dst := io.MultiWriter(out, hasher)
	written, err := dst.Write(head)
	if err == nil {
		var rest int64
		rest, err = io.Copy(dst, file)
		written += int(rest)
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tempFilePath)
		http.Error(w, "Не удалось сохранить загруженный файл", http.StatusInternalServerError)
		return
	}

	taskID := uuid.NewString()
	hash := fmt.Sprintf("%x", hasher.Sum(nil))
	s.taskStore.CreateTask(taskID, s.cfg.Processing.TaskTTL)
	s.log.Info("Архив принят", "task_id", taskID, "hash", hash, "bytes", written)

	go s.runTask(taskID, tempFilePath, opts)

	writeJSON(w, http.StatusAccepted, ProcessResponse{TaskID: taskID, Hash: hash})
}

// runTask выполняет обработку в фоне. Временный файл удаляется в любом случае.
func (s *Server) runTask(taskID, filePath string, opts domain.Options) {
	defer os.Remove(filePath)

	s.taskStore.UpdateTaskStatus(taskID, TaskStatusProcessing)

	// Создание контекста для задачи с таймаутом из конфигурации.
	taskCtx := s.baseCtx
	if s.cfg.Processing.TaskTimeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(s.baseCtx, s.cfg.Processing.TaskTimeout)
		defer cancel()
	}

	report, err := s.processor.ProcessChat(taskCtx, filePath, opts)
	if err != nil {
		s.failTask(taskID, err)
		return
	}

	if err := s.taskStore.UpdateTaskResult(taskID, report); err != nil {
		s.log.Warn("Не удалось сохранить отчет задачи", "task_id", taskID, "error", err)
		return
	}
	s.log.Info("Задача завершена", "task_id", taskID)
}

// failTask переводит задачу в конечный статус по виду ошибки.
func (s *Server) failTask(taskID string, err error) {
	switch {
	case errors.Is(err, domain.ErrNoData):
		s.taskStore.UpdateTaskNoData(taskID)
		s.log.Info("В архиве нет сообщений", "task_id", taskID)
		return
	case errors.Is(err, context.DeadlineExceeded):
		s.taskStore.UpdateTaskError(taskID, ErrorCodeTimeout, "Превышено время обработки")
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, source.ErrTooLarge):
		s.taskStore.UpdateTaskError(taskID, ErrorCodeInvalidInput, err.Error())
	default:
		s.taskStore.UpdateTaskError(taskID, ErrorCodeInternal, err.Error())
	}
	s.log.Warn("Задача завершилась с ошибкой", "task_id", taskID, "error", err)
}

// handleProcessByHash отдает отчет по ранее загруженному архиву из кеша.
func (s *Server) handleProcessByHash(w http.ResponseWriter, r *http.Request) {
	var req ProcessByHashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Не удалось декодировать тело запроса", http.StatusBadRequest)
		return
	}
	if req.Hash == "" {
		http.Error(w, "Требуется хеш", http.StatusBadRequest)
		return
	}

	opts := s.cfg.StatsOptions()
	if req.Owner != "" {
		opts.Owner.Name = req.Owner
	}
	if req.OwnerID != "" {
		opts.Owner.ID = req.OwnerID
	}
	if len(req.ChatTypes) > 0 {
		opts.ChatPolicy = domain.NewChatTypes(req.ChatTypes...)
	}
	if req.ExcludeBots != nil {
		opts.ExcludeBots = *req.ExcludeBots
	}

	taskID := uuid.NewString()
	s.taskStore.CreateTask(taskID, s.cfg.Processing.TaskTTL)

	// Поиск в кеше не блокирует, поэтому задача завершается до ответа.
	if report, found := s.processor.LookupCached(req.Hash, opts); found {
		s.taskStore.UpdateTaskResult(taskID, report)
		s.log.Info("Попадание в кеш для хеша", "hash", req.Hash, "task_id", taskID)
	} else {
		s.taskStore.UpdateTaskError(taskID, ErrorCodeCacheMiss, "Отчет для данного хеша не найден в кеше")
		s.log.Info("Промах кеша для хеша", "hash", req.Hash, "task_id", taskID)
	}

	writeJSON(w, http.StatusAccepted, ProcessResponse{TaskID: taskID, Hash: req.Hash})
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	task, err := s.taskStore.GetTask(chi.URLParam(r, "taskID"))
	if err != nil {
		http.Error(w, "Задача не найдена", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, TaskStatusResponse{
		TaskID:       task.ID,
		Status:       task.Status,
		ErrorCode:    task.ErrorCode,
		ErrorMessage: task.ErrorMessage,
	})
}

func (s *Server) handleTaskResult(w http.ResponseWriter, r *http.Request) {
	task, ok := s.completedTask(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, task.Result)
}

// handleTaskAuthors отдает авторов отчета постранично.
func (s *Server) handleTaskAuthors(w http.ResponseWriter, r *http.Request) {
	task, ok := s.completedTask(w, r)
	if !ok {
		return
	}

	page, err := queryInt(r, "page", defaultPage)
	if err != nil || page < 1 {
		http.Error(w, "Недопустимый параметр page", http.StatusBadRequest)
		return
	}
	pageSize, err := queryInt(r, "page_size", defaultPageSize)
	if err != nil || pageSize < 1 || pageSize > maxPageSize {
		http.Error(w, "Недопустимый параметр page_size", http.StatusBadRequest)
		return
	}

	authors := task.Result.Authors
	totalPages := (len(authors) + pageSize - 1) / pageSize

	// Страницы за концом списка пустые. Смещение считается только для
	// существующих страниц, иначе (page-1)*pageSize может переполниться.
	start := len(authors)
	if page <= totalPages {
		start = (page - 1) * pageSize
	}
	end := min(start+pageSize, len(authors))

	writeJSON(w, http.StatusOK, AuthorsPage{
		Pagination: Pagination{
			CurrentPage: page,
			PageSize:    pageSize,
			TotalItems:  len(authors),
			TotalPages:  totalPages,
		},
		Data: authors[start:end],
	})
}

// completedTask находит задачу и проверяет, что отчет готов.
// При ошибке ответ уже записан.
func (s *Server) completedTask(w http.ResponseWriter, r *http.Request) (*Task, bool) {
	task, err := s.taskStore.GetTask(chi.URLParam(r, "taskID"))
	if err != nil {
		http.Error(w, "Задача не найдена", http.StatusNotFound)
		return nil, false
	}

	switch task.Status {
	case TaskStatusCompleted:
		return task, true
	case TaskStatusNoData:
		http.Error(w, "В архиве нет сообщений", http.StatusNotFound)
	default:
		http.Error(w, "Задача не завершена", http.StatusBadRequest)
	}
	return nil, false
}

// formOptions накладывает поля формы на параметры по умолчанию из конфигурации.
func (s *Server) formOptions(r *http.Request) (domain.Options, error) {
	opts := s.cfg.StatsOptions()
	if v := strings.TrimSpace(r.FormValue(FormFieldOwner)); v != "" {
		opts.Owner.Name = v
	}
	if v := strings.TrimSpace(r.FormValue(FormFieldOwnerID)); v != "" {
		opts.Owner.ID = v
	}
	if v := r.FormValue(FormFieldChatTypes); v != "" {
		opts.ChatPolicy = domain.ParseChatTypes(v)
	}
	if v := r.FormValue(FormFieldExcludeBots); v != "" {
		exclude, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("недопустимое значение %s: %q", FormFieldExcludeBots, v)
		}
		opts.ExcludeBots = exclude
	}
	return opts, nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Не удалось записать ответ", "error", err)
	}
}
