package cache

import (
	"context"
	"sync"
	"telegram-chat-stats/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock - управляемое время для тестов.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func TestCacheStore(t *testing.T) {
	t.Run("Запись и чтение из кэша", func(t *testing.T) {
		clock := newClock()
		cs := NewCacheStore(WithClock(clock.Now))
		report := &domain.Report{Summary: domain.Summary{MessagesTotal: 1}}

		cs.Put("key", report, time.Minute)

		item, found := cs.Get("key")
		require.True(t, found)
		assert.Same(t, report, item.Data)
		assert.Equal(t, clock.Now(), item.StoredAt)
		assert.Equal(t, clock.Now().Add(time.Minute), item.ExpiresAt)
	})

	t.Run("Чтение несуществующего ключа", func(t *testing.T) {
		_, found := NewCacheStore().Get("missing")
		assert.False(t, found)
	})

	t.Run("Просроченный ключ удаляется при чтении", func(t *testing.T) {
		clock := newClock()
		cs := NewCacheStore(WithClock(clock.Now))
		cs.Put("key", &domain.Report{}, time.Minute)

		clock.Advance(2 * time.Minute)

		_, found := cs.Get("key")
		assert.False(t, found)
		assert.Equal(t, 0, cs.Len())
	})

	t.Run("Повторная запись продлевает срок", func(t *testing.T) {
		clock := newClock()
		cs := NewCacheStore(WithClock(clock.Now))
		cs.Put("key", &domain.Report{}, time.Minute)
		clock.Advance(50 * time.Second)
		cs.Put("key", &domain.Report{}, time.Minute)
		clock.Advance(50 * time.Second)

		_, found := cs.Get("key")
		assert.True(t, found)
	})

	t.Run("Очистка просроченных ключей", func(t *testing.T) {
		clock := newClock()
		cs := NewCacheStore(WithClock(clock.Now))
		cs.Put("short", &domain.Report{}, time.Second)
		cs.Put("long", &domain.Report{}, time.Hour)

		clock.Advance(time.Minute)

		assert.Equal(t, 1, cs.CleanupExpired())
		assert.Equal(t, 1, cs.Len())
		_, found := cs.Get("long")
		assert.True(t, found, "Действительный элемент не должен быть удален")
	})
}

func TestMaxEntries(t *testing.T) {
	t.Run("вытесняется элемент с ближайшим сроком", func(t *testing.T) {
		cs := NewCacheStore(WithMaxEntries(2), WithClock(newClock().Now))
		cs.Put("a", &domain.Report{}, time.Hour)
		cs.Put("b", &domain.Report{}, time.Minute)
		cs.Put("c", &domain.Report{}, time.Hour)

		assert.Equal(t, 2, cs.Len())
		_, found := cs.Get("b")
		assert.False(t, found)
		_, found = cs.Get("a")
		assert.True(t, found)
	})

	t.Run("сначала удаляются просроченные", func(t *testing.T) {
		clock := newClock()
		cs := NewCacheStore(WithMaxEntries(2), WithClock(clock.Now))
		cs.Put("a", &domain.Report{}, time.Second)
		cs.Put("b", &domain.Report{}, 10*time.Second)
		clock.Advance(5 * time.Second)
		cs.Put("c", &domain.Report{}, time.Hour)

		_, foundB := cs.Get("b")
		_, foundC := cs.Get("c")
		assert.True(t, foundB)
		assert.True(t, foundC)
		assert.Equal(t, 2, cs.Len())
	})

	t.Run("перезапись существующего ключа не вытесняет", func(t *testing.T) {
		cs := NewCacheStore(WithMaxEntries(2))
		cs.Put("a", &domain.Report{}, time.Hour)
		cs.Put("b", &domain.Report{}, time.Minute)
		cs.Put("b", &domain.Report{}, time.Minute)

		assert.Equal(t, 2, cs.Len())
		_, found := cs.Get("a")
		assert.True(t, found)
	})
}

func TestStartCleanupTicker(t *testing.T) {
	cs := NewCacheStore()
	cs.Put("expired", &domain.Report{}, 20*time.Millisecond)
	cs.Put("valid", &domain.Report{}, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cs.StartCleanupTicker(ctx, 30*time.Millisecond)

	require.Eventually(t, func() bool { return cs.Len() == 1 }, time.Second, 10*time.Millisecond)
	_, found := cs.Get("valid")
	assert.True(t, found, "Действительный элемент должен остаться")
}

func TestCalculateDataHash(t *testing.T) {
	const helloHash = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	assert.Equal(t, helloHash, CalculateDataHash([]byte("hello world")))
}

func TestKey(t *testing.T) {
	all := domain.Options{ChatPolicy: domain.IncludeAllChats{}}
	personal := domain.Options{ChatPolicy: domain.NewChatTypes("personal_chat")}

	assert.Equal(t, Key("abc", all), Key("abc", all))
	assert.NotEqual(t, Key("abc", all), Key("abc", personal))
	assert.NotEqual(t, Key("abc", all), Key("abd", all))
	assert.Len(t, Key("abc", all), 64)
}
