package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"telegram-chat-stats/internal/domain"
	"telegram-chat-stats/internal/metrics"
	"telegram-chat-stats/internal/pkg/config"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock implementation for ChatProcessor
type mockProcessor struct {
	mock.Mock
}

func (m *mockProcessor) ProcessChat(ctx context.Context, filePath string, opts domain.Options) (*domain.Report, error) {
	args := m.Called(ctx, filePath, opts)
	if res := args.Get(0); res != nil {
		return res.(*domain.Report), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProcessor) LookupCached(dataHash string, opts domain.Options) (*domain.Report, bool) {
	args := m.Called(dataHash, opts)
	if res := args.Get(0); res != nil {
		return res.(*domain.Report), args.Bool(1)
	}
	return nil, args.Bool(1)
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.Server{
			Host:            "localhost",
			Port:            8080,
			MaxUploadSizeMB: 1,
		},
		Processing: config.Processing{
			TaskTimeout: time.Second,
			TaskTTL:     time.Minute,
		},
		Stats: config.Stats{ChatTypes: []string{"*"}},
	}
}

func newTestServer(t *testing.T) (*Server, *mockProcessor) {
	t.Helper()
	proc := new(mockProcessor)
	srv, err := New(testConfig(), proc, NewTaskStore(), metrics.New(), nil)
	require.NoError(t, err)
	t.Cleanup(srv.cancel)
	return srv, proc
}

func uploadRequest(t *testing.T, content string, fields map[string]string) *http.Request {
	t.Helper()
	var b bytes.Buffer
	writer := multipart.NewWriter(&b)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	fw, err := writer.CreateFormFile(FormFieldFile, "result.json")
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/process", &b)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.HTTPServer.Handler.ServeHTTP(rr, req)
	return rr
}

func waitStatus(t *testing.T, srv *Server, taskID string, want TaskStatus) *Task {
	t.Helper()
	var task *Task
	require.Eventually(t, func() bool {
		var err error
		task, err = srv.taskStore.GetTask(taskID)
		return err == nil && task.Status == want
	}, time.Second, 5*time.Millisecond)
	return task
}

func TestNew(t *testing.T) {
	_, err := New(nil, new(mockProcessor), NewTaskStore(), nil, nil)
	assert.Error(t, err)

	srv, err := New(testConfig(), new(mockProcessor), NewTaskStore(), nil, nil)
	require.NoError(t, err)
	defer srv.cancel()
	assert.Equal(t, "localhost:8080", srv.HTTPServer.Addr)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServer(t *testing.T) {
	t.Run("Health Check", func(t *testing.T) {
		srv, _ := newTestServer(t)
		rr := serve(srv, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp map[string]string
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, "ok", resp["status"])
	})

	t.Run("Metrics", func(t *testing.T) {
		srv, _ := newTestServer(t)
		rr := serve(srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "chatstats_cache_hits_total")
	})

	t.Run("Process Endpoint", func(t *testing.T) {
		srv, proc := newTestServer(t)
		report := &domain.Report{Summary: domain.Summary{MessagesTotal: 3}}
		proc.On("ProcessChat", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(report, nil).Once()

		rr := serve(srv, uploadRequest(t, `{"messages": []}`, nil))

		assert.Equal(t, http.StatusAccepted, rr.Code)
		var resp ProcessResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.NotEmpty(t, resp.TaskID)
		assert.Len(t, resp.Hash, 64)

		task := waitStatus(t, srv, resp.TaskID, TaskStatusCompleted)
		assert.Same(t, report, task.Result)
		proc.AssertExpectations(t)
	})

	t.Run("поля формы переопределяют параметры", func(t *testing.T) {
		srv, proc := newTestServer(t)
		done := make(chan domain.Options, 1)
		proc.On("ProcessChat", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { done <- args.Get(2).(domain.Options) }).
			Return(&domain.Report{}, nil).Once()

		rr := serve(srv, uploadRequest(t, `{"messages": []}`, map[string]string{
			FormFieldOwner:       "Ann Smith",
			FormFieldOwnerID:     "user100",
			FormFieldChatTypes:   "personal_chat,private_group",
			FormFieldExcludeBots: "true",
		}))
		require.Equal(t, http.StatusAccepted, rr.Code)

		select {
		case opts := <-done:
			assert.Equal(t, domain.Owner{Name: "Ann Smith", ID: "user100"}, opts.Owner)
			assert.True(t, opts.ExcludeBots)
			assert.True(t, opts.ChatPolicy.Include("private_group"))
			assert.False(t, opts.ChatPolicy.Include("bot_chat"))
		case <-time.After(time.Second):
			t.Fatal("ProcessChat was not called")
		}
	})

	t.Run("недопустимый exclude_bots", func(t *testing.T) {
		srv, _ := newTestServer(t)
		rr := serve(srv, uploadRequest(t, `{}`, map[string]string{FormFieldExcludeBots: "maybe"}))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("неподдерживаемый формат файла", func(t *testing.T) {
		srv, proc := newTestServer(t)
		rr := serve(srv, uploadRequest(t, "plain text, not an export", nil))
		assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
		proc.AssertNotCalled(t, "ProcessChat", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("нет файла в форме", func(t *testing.T) {
		srv, _ := newTestServer(t)
		var b bytes.Buffer
		writer := multipart.NewWriter(&b)
		require.NoError(t, writer.WriteField(FormFieldOwner, "Ann"))
		require.NoError(t, writer.Close())
		req := httptest.NewRequest(http.MethodPost, "/api/v1/process", &b)
		req.Header.Set("Content-Type", writer.FormDataContentType())

		assert.Equal(t, http.StatusBadRequest, serve(srv, req).Code)
	})

	t.Run("статусы ошибок обработки", func(t *testing.T) {
		testCases := []struct {
			name     string
			err      error
			status   TaskStatus
			wantCode string
		}{
			{"no data", fmt.Errorf("wrap: %w", domain.ErrNoData), TaskStatusNoData, ""},
			{"invalid input", fmt.Errorf("wrap: %w", domain.ErrInvalidInput), TaskStatusFailed, ErrorCodeInvalidInput},
			{"timeout", fmt.Errorf("wrap: %w", context.DeadlineExceeded), TaskStatusFailed, ErrorCodeTimeout},
			{"internal", errors.New("boom"), TaskStatusFailed, ErrorCodeInternal},
		}
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				srv, proc := newTestServer(t)
				proc.On("ProcessChat", mock.Anything, mock.Anything, mock.Anything).Return(nil, tc.err).Once()

				rr := serve(srv, uploadRequest(t, `{}`, nil))
				require.Equal(t, http.StatusAccepted, rr.Code)
				var resp ProcessResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))

				task := waitStatus(t, srv, resp.TaskID, tc.status)
				assert.Equal(t, tc.wantCode, task.ErrorCode)
			})
		}
	})

	t.Run("Process By Hash", func(t *testing.T) {
		srv, proc := newTestServer(t)
		report := &domain.Report{}
		proc.On("LookupCached", "abc", mock.Anything).Return(report, true).Once()
		proc.On("LookupCached", "missing", mock.Anything).Return(nil, false).Once()

		rr := serve(srv, httptest.NewRequest(http.MethodPost, "/api/v1/process-by-hash", strings.NewReader(`{"hash":"abc"}`)))
		require.Equal(t, http.StatusAccepted, rr.Code)
		var resp ProcessResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		task, err := srv.taskStore.GetTask(resp.TaskID)
		require.NoError(t, err)
		assert.Equal(t, TaskStatusCompleted, task.Status)

		rr = serve(srv, httptest.NewRequest(http.MethodPost, "/api/v1/process-by-hash", strings.NewReader(`{"hash":"missing","exclude_bots":true}`)))
		require.Equal(t, http.StatusAccepted, rr.Code)
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		task, err = srv.taskStore.GetTask(resp.TaskID)
		require.NoError(t, err)
		assert.Equal(t, TaskStatusFailed, task.Status)
		assert.Equal(t, ErrorCodeCacheMiss, task.ErrorCode)

		rr = serve(srv, httptest.NewRequest(http.MethodPost, "/api/v1/process-by-hash", strings.NewReader(`{}`)))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		proc.AssertExpectations(t)
	})

	t.Run("Task Status Endpoint", func(t *testing.T) {
		srv, _ := newTestServer(t)
		taskID := "test-task-1"
		srv.taskStore.CreateTask(taskID, time.Minute)

		rr := serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/tasks/"+taskID, nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp TaskStatusResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, taskID, resp.TaskID)
		assert.Equal(t, TaskStatusPending, resp.Status)
	})

	t.Run("Task Not Found", func(t *testing.T) {
		srv, _ := newTestServer(t)
		rr := serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/tasks/non-existent", nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("Task Result Endpoint - Not Completed", func(t *testing.T) {
		srv, _ := newTestServer(t)
		taskID := "test-task-2"
		srv.taskStore.CreateTask(taskID, time.Minute)

		rr := serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/tasks/"+taskID+"/result", nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Task Result Endpoint - No Data", func(t *testing.T) {
		srv, _ := newTestServer(t)
		taskID := "test-task-nodata"
		srv.taskStore.CreateTask(taskID, time.Minute)
		require.NoError(t, srv.taskStore.UpdateTaskNoData(taskID))

		rr := serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/tasks/"+taskID+"/result", nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("Task Result Endpoint - Full Report", func(t *testing.T) {
		srv, _ := newTestServer(t)
		taskID := "test-task-3"
		srv.taskStore.CreateTask(taskID, time.Minute)
		report := &domain.Report{
			Authors: []domain.AuthorReport{{Name: "Bob", MessagesTotal: 2}},
			Summary: domain.Summary{MessagesTotal: 2, Language: "en"},
		}
		require.NoError(t, srv.taskStore.UpdateTaskResult(taskID, report))

		rr := serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/tasks/"+taskID+"/result", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var got domain.Report
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
		assert.Equal(t, "en", got.Summary.Language)
		assert.Equal(t, "Bob", got.Authors[0].Name)
	})

	t.Run("Task Authors Endpoint - Pagination", func(t *testing.T) {
		srv, _ := newTestServer(t)
		taskID := "test-task-4"
		srv.taskStore.CreateTask(taskID, time.Minute)
		authors := make([]domain.AuthorReport, 15)
		for i := range authors {
			authors[i] = domain.AuthorReport{Name: fmt.Sprintf("author-%02d", i), MessagesTotal: 15 - i}
		}
		require.NoError(t, srv.taskStore.UpdateTaskResult(taskID, &domain.Report{Authors: authors}))

		rr := serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/tasks/"+taskID+"/result/authors?page=2&page_size=5", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var resp AuthorsPage
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, Pagination{CurrentPage: 2, PageSize: 5, TotalItems: 15, TotalPages: 3}, resp.Pagination)
		require.Len(t, resp.Data, 5)
		assert.Equal(t, "author-05", resp.Data[0].Name)

		rr = serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/tasks/"+taskID+"/result/authors?page=9", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Empty(t, resp.Data)
		assert.Equal(t, 1, resp.Pagination.TotalPages)

		rr = serve(srv, httptest.NewRequest(http.MethodGet,
			"/api/v1/tasks/"+taskID+"/result/authors?page=9223372036854775807&page_size=2", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		resp = AuthorsPage{}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Empty(t, resp.Data)
		assert.Equal(t, 8, resp.Pagination.TotalPages)

		for _, query := range []string{"page=0", "page=abc", "page=99999999999999999999", "page_size=0", "page_size=100000"} {
			rr = serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/tasks/"+taskID+"/result/authors?"+query, nil))
			assert.Equal(t, http.StatusBadRequest, rr.Code, query)
		}
	})
}

func TestShutdownCancelsTasks(t *testing.T) {
	srv, proc := newTestServer(t)
	started := make(chan struct{})
	proc.On("ProcessChat", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			close(started)
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.Canceled).Once()

	rr := serve(srv, uploadRequest(t, `{}`, nil))
	require.Equal(t, http.StatusAccepted, rr.Code)
	var resp ProcessResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))

	<-started
	require.NoError(t, srv.Shutdown(context.Background()))

	task := waitStatus(t, srv, resp.TaskID, TaskStatusFailed)
	assert.Equal(t, ErrorCodeInternal, task.ErrorCode)
}
