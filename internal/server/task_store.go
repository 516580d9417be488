package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"telegram-chat-stats/internal/domain"
	"time"
)

// TaskStatus представляет статус задачи обработки
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusNoData     TaskStatus = "no_data"
	TaskStatusFailed     TaskStatus = "failed"
)

// Final сообщает, что статус конечный и больше не меняется.
func (s TaskStatus) Final() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusNoData, TaskStatusFailed:
		return true
	}
	return false
}

// Коды ошибок, которые видит клиент в error_code.
const (
	ErrorCodeInvalidInput = "invalid_input"
	ErrorCodeTimeout      = "timeout"
	ErrorCodeCacheMiss    = "cache_miss"
	ErrorCodeInternal     = "internal"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrTaskFinished = errors.New("task already finished")
)

// Task представляет собой одну задачу обработки
type Task struct {
	ID           string
	Status       TaskStatus
	Result       *domain.Report
	ErrorCode    string
	ErrorMessage string
	CreatedAt    time.Time
	FinishedAt   time.Time
	ExpiresAt    time.Time

	ttl time.Duration
}

// TaskStore хранит задачи в памяти. Задача живет ttl с момента создания,
// а после перехода в конечный статус еще ttl, чтобы клиент успел забрать отчет.
type TaskStore struct {
	mutex sync.RWMutex
	tasks map[string]*Task
	now   func() time.Time
}

// NewTaskStore создает новый экземпляр TaskStore
func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks: make(map[string]*Task),
		now:   time.Now,
	}
}

// CreateTask создает новую задачу со статусом 'pending'
func (ts *TaskStore) CreateTask(taskID string, ttl time.Duration) {
	now := ts.now()

	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	ts.tasks[taskID] = &Task{
		ID:        taskID,
		Status:    TaskStatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		ttl:       ttl,
	}
}

// update применяет изменение к задаче. Завершенные задачи не меняются:
// отчет, который клиент уже мог получить, не перезаписывается.
func (ts *TaskStore) update(taskID string, apply func(*Task)) error {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	task, exists := ts.tasks[taskID]
	if !exists {
		return fmt.Errorf("задача %s: %w", taskID, ErrTaskNotFound)
	}
	if task.Status.Final() {
		return fmt.Errorf("задача %s в статусе %s: %w", taskID, task.Status, ErrTaskFinished)
	}

	apply(task)
	if task.Status.Final() {
		task.FinishedAt = ts.now()
		task.ExpiresAt = task.FinishedAt.Add(task.ttl)
	}
	return nil
}

// UpdateTaskStatus обновляет статус задачи
func (ts *TaskStore) UpdateTaskStatus(taskID string, status TaskStatus) error {
	return ts.update(taskID, func(t *Task) {
		t.Status = status
	})
}

// UpdateTaskResult сохраняет отчет и завершает задачу
func (ts *TaskStore) UpdateTaskResult(taskID string, result *domain.Report) error {
	return ts.update(taskID, func(t *Task) {
		t.Status = TaskStatusCompleted
		t.Result = result
	})
}

// UpdateTaskNoData переводит задачу в статус 'no_data': архив разобран,
// но пользовательских сообщений в нем нет
func (ts *TaskStore) UpdateTaskNoData(taskID string) error {
	return ts.UpdateTaskStatus(taskID, TaskStatusNoData)
}

// UpdateTaskError завершает задачу с кодом и текстом ошибки
func (ts *TaskStore) UpdateTaskError(taskID, errorCode, errorMessage string) error {
	return ts.update(taskID, func(t *Task) {
		t.Status = TaskStatusFailed
		t.ErrorCode = errorCode
		t.ErrorMessage = errorMessage
	})
}

// GetTask возвращает снимок задачи по ее ID. Отчет не копируется:
// после завершения задачи он только читается
func (ts *TaskStore) GetTask(taskID string) (*Task, error) {
	ts.mutex.RLock()
	defer ts.mutex.RUnlock()

	task, exists := ts.tasks[taskID]
	if !exists {
		return nil, fmt.Errorf("задача %s: %w", taskID, ErrTaskNotFound)
	}

	snapshot := *task
	return &snapshot, nil
}

// CleanupExpired удаляет просроченные задачи и возвращает их число
func (ts *TaskStore) CleanupExpired() int {
	now := ts.now()

	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	removed := 0
	for taskID, task := range ts.tasks {
		if now.After(task.ExpiresAt) {
			delete(ts.tasks, taskID)
			removed++
		}
	}
	return removed
}

// StartCleanupTicker запускает периодическую очистку до отмены ctx
func (ts *TaskStore) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				ts.CleanupExpired()
			}
		}
	}()
}
