// Package cache хранит готовые отчеты, чтобы повторная загрузка того же
// архива с теми же параметрами не запускала обработку заново.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"telegram-chat-stats/internal/domain"
	"time"
)

// CacheItem представляет кэшированный отчет
type CacheItem struct {
	Data      *domain.Report
	StoredAt  time.Time
	ExpiresAt time.Time
}

func (i *CacheItem) expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// Option настраивает CacheStore.
type Option func(*CacheStore)

// WithMaxEntries ограничивает число отчетов в кэше. При переполнении
// вытесняется отчет, который истекает раньше остальных. 0 - без ограничения.
func WithMaxEntries(n int) Option {
	return func(cs *CacheStore) {
		cs.maxEntries = n
	}
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(cs *CacheStore) {
		cs.now = now
	}
}

// CacheStore - потокобезопасный кэш отчетов с TTL.
type CacheStore struct {
	mutex      sync.RWMutex
	items      map[string]*CacheItem
	maxEntries int
	now        func() time.Time
}

// NewCacheStore создает новый экземпляр CacheStore
func NewCacheStore(opts ...Option) *CacheStore {
	cs := &CacheStore{
		items: make(map[string]*CacheItem),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(cs)
	}
	return cs
}

// Get возвращает отчет по ключу. Просроченный элемент считается отсутствующим
// и удаляется сразу, не дожидаясь очистки по таймеру.
func (cs *CacheStore) Get(key string) (*CacheItem, bool) {
	now := cs.now()

	cs.mutex.RLock()
	item, ok := cs.items[key]
	cs.mutex.RUnlock()
	if !ok {
		return nil, false
	}
	if !item.expired(now) {
		return item, true
	}

	cs.mutex.Lock()
	if current, ok := cs.items[key]; ok && current.expired(now) {
		delete(cs.items, key)
	}
	cs.mutex.Unlock()
	return nil, false
}

// Put сохраняет отчет на время ttl.
func (cs *CacheStore) Put(key string, report *domain.Report, ttl time.Duration) {
	now := cs.now()

	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	if _, exists := cs.items[key]; !exists && cs.maxEntries > 0 && len(cs.items) >= cs.maxEntries {
		cs.evictLocked(now)
	}
	cs.items[key] = &CacheItem{
		Data:      report,
		StoredAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

// evictLocked освобождает место: сначала удаляет просроченные элементы,
// а если их нет, то элемент с ближайшим сроком истечения.
func (cs *CacheStore) evictLocked(now time.Time) {
	if cs.removeExpiredLocked(now) > 0 {
		return
	}
	var victim string
	var soonest time.Time
	for key, item := range cs.items {
		if victim == "" || item.ExpiresAt.Before(soonest) {
			victim, soonest = key, item.ExpiresAt
		}
	}
	delete(cs.items, victim)
}

func (cs *CacheStore) removeExpiredLocked(now time.Time) int {
	removed := 0
	for key, item := range cs.items {
		if item.expired(now) {
			delete(cs.items, key)
			removed++
		}
	}
	return removed
}

// Len возвращает число элементов, включая еще не удаленные просроченные
func (cs *CacheStore) Len() int {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()
	return len(cs.items)
}

// CleanupExpired удаляет просроченные элементы и возвращает их число.
func (cs *CacheStore) CleanupExpired() int {
	now := cs.now()
	cs.mutex.Lock()
	defer cs.mutex.Unlock()
	return cs.removeExpiredLocked(now)
}

// StartCleanupTicker запускает периодическую очистку до отмены ctx.
func (cs *CacheStore) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cs.CleanupExpired()
			}
		}
	}()
}

// CalculateDataHash вычисляет хеш SHA256 данных в памяти
func CalculateDataHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Key строит ключ кэша из хеша входных данных и параметров прогона:
// один и тот же архив с другими параметрами дает другой отчет.
func Key(dataHash string, opts domain.Options) string {
	return CalculateDataHash([]byte(dataHash + "|" + opts.CacheKey()))
}
