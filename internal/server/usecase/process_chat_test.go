package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"telegram-chat-stats/internal/adapters/source"
	"telegram-chat-stats/internal/cache"
	"telegram-chat-stats/internal/domain"
	"telegram-chat-stats/internal/metrics"
	"telegram-chat-stats/internal/pkg/config"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// Mocks for dependencies
type mockLoader struct{ mock.Mock }

func (m *mockLoader) Load(ctx context.Context, data []byte) ([]byte, error) {
	args := m.Called(ctx, data)
	if res := args.Get(0); res != nil {
		return res.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockParser struct{ mock.Mock }

func (m *mockParser) Parse(data []byte) (*domain.Export, error) {
	args := m.Called(data)
	if res := args.Get(0); res != nil {
		return res.(*domain.Export), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPipeline struct{ mock.Mock }

func (m *mockPipeline) Run(ctx context.Context, export *domain.Export, opts domain.Options) (*domain.Report, error) {
	args := m.Called(ctx, export, opts)
	if res := args.Get(0); res != nil {
		return res.(*domain.Report), args.Error(1)
	}
	return nil, args.Error(1)
}

func createTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "result.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

type fixture struct {
	loader   *mockLoader
	parser   *mockParser
	pipeline *mockPipeline
	cache    *cache.CacheStore
	metrics  *metrics.Metrics
	uc       *ProcessChatUseCase
}

func newFixture(cfg *config.Config) *fixture {
	f := &fixture{
		loader:   new(mockLoader),
		parser:   new(mockParser),
		pipeline: new(mockPipeline),
		cache:    cache.NewCacheStore(),
		metrics:  metrics.New(),
	}
	f.uc = NewProcessChatUseCase(cfg, f.loader, f.parser, f.pipeline, f.cache, f.metrics, nil)
	return f
}

func TestProcessChatUseCase(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		Server:     config.Server{MaxUploadSizeMB: 1},
		Processing: config.Processing{CacheTTL: 10 * time.Minute},
	}
	opts := domain.Options{ChatPolicy: domain.IncludeAllChats{}}
	doc := `{"messages": [{"id": 1, "type": "message", "from": "Bob", "text": "hi"}]}`
	export := domain.NewExport(gjson.Parse(doc))
	report := &domain.Report{Summary: domain.Summary{MessagesTotal: 1, AuthorsTotal: 1, Language: "en"}}

	t.Run("success flow", func(t *testing.T) {
		f := newFixture(cfg)
		filePath := createTempFile(t, doc)

		f.loader.On("Load", ctx, []byte(doc)).Return([]byte(doc), nil).Once()
		f.parser.On("Parse", []byte(doc)).Return(export, nil).Once()
		f.pipeline.On("Run", ctx, export, opts).Return(report, nil).Once()

		got, err := f.uc.ProcessChat(ctx, filePath, opts)
		require.NoError(t, err)
		assert.Equal(t, report, got)

		// Check cache
		key := cache.Key(cache.CalculateDataHash([]byte(doc)), opts)
		cached, found := f.cache.Get(key)
		require.True(t, found)
		assert.Equal(t, report, cached.Data)

		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Runs.WithLabelValues(metrics.OutcomeCompleted)))
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.MessagesProcessed))

		f.loader.AssertExpectations(t)
		f.parser.AssertExpectations(t)
		f.pipeline.AssertExpectations(t)
	})

	t.Run("cache hit", func(t *testing.T) {
		f := newFixture(cfg)
		f.cache.Put(cache.Key(cache.CalculateDataHash([]byte(doc)), opts), report, time.Minute)

		got, err := f.uc.Run(ctx, []byte(doc), opts)
		require.NoError(t, err)
		assert.Same(t, report, got)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CacheHits))
		f.loader.AssertNotCalled(t, "Load", mock.Anything, mock.Anything)
	})

	t.Run("другие параметры не попадают в кеш", func(t *testing.T) {
		f := newFixture(cfg)
		f.cache.Put(cache.Key(cache.CalculateDataHash([]byte(doc)), opts), report, time.Minute)

		other := domain.Options{ChatPolicy: domain.IncludeAllChats{}, ExcludeBots: true}
		fresh := &domain.Report{}
		f.loader.On("Load", ctx, mock.Anything).Return([]byte(doc), nil).Once()
		f.parser.On("Parse", mock.Anything).Return(export, nil).Once()
		f.pipeline.On("Run", ctx, export, other).Return(fresh, nil).Once()

		got, err := f.uc.Run(ctx, []byte(doc), other)
		require.NoError(t, err)
		assert.Same(t, fresh, got)
	})

	t.Run("LookupCached", func(t *testing.T) {
		f := newFixture(cfg)
		hash := cache.CalculateDataHash([]byte(doc))

		_, found := f.uc.LookupCached(hash, opts)
		assert.False(t, found)

		f.cache.Put(cache.Key(hash, opts), report, time.Minute)
		got, found := f.uc.LookupCached(hash, opts)
		assert.True(t, found)
		assert.Same(t, report, got)
	})

	t.Run("fetch error", func(t *testing.T) {
		f := newFixture(cfg)
		_, err := f.uc.ProcessChat(ctx, "non_existent_file.json", opts)
		assert.Error(t, err)
	})

	t.Run("file too large", func(t *testing.T) {
		small := &config.Config{Server: config.Server{MaxUploadSizeMB: 1}}
		f := newFixture(small)
		filePath := createTempFile(t, string(make([]byte, (1<<20)+1)))

		_, err := f.uc.ProcessChat(ctx, filePath, opts)
		assert.ErrorIs(t, err, source.ErrTooLarge)
		assert.Equal(t, metrics.OutcomeInvalidInput, Outcome(err))
	})

	t.Run("load error", func(t *testing.T) {
		f := newFixture(cfg)
		loadErr := fmt.Errorf("zip contains no json document: %w", domain.ErrInvalidInput)
		f.loader.On("Load", ctx, mock.Anything).Return(nil, loadErr)

		_, err := f.uc.Run(ctx, []byte("PK"), opts)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Runs.WithLabelValues(metrics.OutcomeInvalidInput)))
		f.parser.AssertNotCalled(t, "Parse", mock.Anything)
	})

	t.Run("parse error", func(t *testing.T) {
		f := newFixture(cfg)
		parseErr := errors.New("parse error")
		f.loader.On("Load", ctx, mock.Anything).Return([]byte(doc), nil)
		f.parser.On("Parse", mock.Anything).Return(nil, parseErr)

		_, err := f.uc.Run(ctx, []byte(doc), opts)
		require.Error(t, err)
		assert.Contains(t, err.Error(), parseErr.Error())
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Runs.WithLabelValues(metrics.OutcomeFailed)))
	})

	t.Run("no data is not cached", func(t *testing.T) {
		f := newFixture(cfg)
		f.loader.On("Load", ctx, mock.Anything).Return([]byte(doc), nil)
		f.parser.On("Parse", mock.Anything).Return(export, nil)
		f.pipeline.On("Run", ctx, export, opts).Return(nil, domain.ErrNoData)

		_, err := f.uc.Run(ctx, []byte(doc), opts)
		assert.ErrorIs(t, err, domain.ErrNoData)
		assert.Equal(t, 0, f.cache.Len())
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Runs.WithLabelValues(metrics.OutcomeNoData)))
	})

	t.Run("без метрик", func(t *testing.T) {
		loader, parser, pipeline := new(mockLoader), new(mockParser), new(mockPipeline)
		uc := NewProcessChatUseCase(cfg, loader, parser, pipeline, cache.NewCacheStore(), nil, nil)
		loader.On("Load", ctx, mock.Anything).Return([]byte(doc), nil)
		parser.On("Parse", mock.Anything).Return(export, nil)
		pipeline.On("Run", ctx, export, opts).Return(report, nil)

		_, err := uc.Run(ctx, []byte(doc), opts)
		assert.NoError(t, err)
	})
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, metrics.OutcomeCompleted, Outcome(nil))
	assert.Equal(t, metrics.OutcomeNoData, Outcome(fmt.Errorf("wrap: %w", domain.ErrNoData)))
	assert.Equal(t, metrics.OutcomeInvalidInput, Outcome(fmt.Errorf("wrap: %w", domain.ErrInvalidInput)))
	assert.Equal(t, metrics.OutcomeFailed, Outcome(context.DeadlineExceeded))
}
