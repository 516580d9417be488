package bot

import (
	"sync"
	"time"
)

type activeTask struct {
	taskID    string
	startedAt time.Time
}

// TaskStore — потокобезопасное хранилище активных задач: в каждом чате
// Telegram одновременно обрабатывается не больше одного архива.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[int64]activeTask
	now   func() time.Time
}

// NewTaskStore создает новый экземпляр TaskStore.
func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks: make(map[int64]activeTask),
		now:   time.Now,
	}
}

// Set сохраняет сопоставление chatID и taskID.
// Если для данного chatID уже существует задача, она будет перезаписана.
func (s *TaskStore) Set(chatID int64, taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[chatID] = activeTask{taskID: taskID, startedAt: s.now()}
}

// Get извлекает taskID для указанного chatID.
func (s *TaskStore) Get(chatID int64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[chatID]
	return task.taskID, ok
}

// Elapsed возвращает время с момента запуска задачи в чате.
func (s *TaskStore) Elapsed(chatID int64) (time.Duration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[chatID]
	if !ok {
		return 0, false
	}
	return s.now().Sub(task.startedAt), true
}

// Delete удаляет задачу для указанного chatID.
func (s *TaskStore) Delete(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, chatID)
}

// Len возвращает количество активных задач.
func (s *TaskStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}
