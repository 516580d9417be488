// Package apiclient — клиент HTTP API сервиса статистики.
// Используется ботом и консольным клиентом.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"telegram-chat-stats/internal/domain"
	"telegram-chat-stats/internal/server"
	"time"
)

// ErrNotFound возвращается, если сервер не знает задачу: она истекла
// или сервер был перезапущен.
var ErrNotFound = errors.New("not found")

// ServerClient — клиент для взаимодействия с API бэкенд-сервера.
type ServerClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewServerClient создает новый экземпляр ServerClient.
func NewServerClient(baseURL string, timeout time.Duration) *ServerClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ServerClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// DocumentFile представляет файл для загрузки.
type DocumentFile struct {
	Name    string
	Content io.Reader
}

// StartOptions переопределяют параметры прогона сервера по умолчанию.
// Пустые поля не отправляются.
type StartOptions struct {
	Owner       string
	OwnerID     string
	ChatTypes   string
	ExcludeBots *bool
}

// StartTask отправляет архив экспорта на сервер для начала обработки.
func (c *ServerClient) StartTask(ctx context.Context, file DocumentFile, opts StartOptions) (*server.ProcessResponse, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	fields := map[string]string{
		server.FormFieldOwner:     opts.Owner,
		server.FormFieldOwnerID:   opts.OwnerID,
		server.FormFieldChatTypes: opts.ChatTypes,
	}
	if opts.ExcludeBots != nil {
		fields[server.FormFieldExcludeBots] = strconv.FormatBool(*opts.ExcludeBots)
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("failed to write field %s: %w", k, err)
		}
	}

	fw, err := w.CreateFormFile(server.FormFieldFile, file.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file for %s: %w", file.Name, err)
	}
	if _, err = io.Copy(fw, file.Content); err != nil {
		return nil, fmt.Errorf("failed to copy file content for %s: %w", file.Name, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/process", &b)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var result server.ProcessResponse
	if err := c.do(req, http.StatusAccepted, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// StartByHash запрашивает отчет по ранее загруженному архиву из кеша сервера.
func (c *ServerClient) StartByHash(ctx context.Context, body server.ProcessByHashRequest) (*server.ProcessResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/process-by-hash", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var result server.ProcessResponse
	if err := c.do(req, http.StatusAccepted, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTaskStatus запрашивает статус задачи.
func (c *ServerClient) GetTaskStatus(ctx context.Context, taskID string) (*server.TaskStatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/tasks/"+taskID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var result server.TaskStatusResponse
	if err := c.do(req, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTaskResult запрашивает отчет выполненной задачи.
func (c *ServerClient) GetTaskResult(ctx context.Context, taskID string) (*domain.Report, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/tasks/"+taskID+"/result", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var result domain.Report
	if err := c.do(req, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTaskAuthors запрашивает одну страницу авторов отчета.
func (c *ServerClient) GetTaskAuthors(ctx context.Context, taskID string, page, pageSize int) (*server.AuthorsPage, error) {
	url := fmt.Sprintf("%s/api/v1/tasks/%s/result/authors?page=%d&page_size=%d", c.baseURL, taskID, page, pageSize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var result server.AuthorsPage
	if err := c.do(req, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// WaitForTask опрашивает статус задачи с интервалом interval,
// пока она не перейдет в конечный статус или не отменится ctx.
func (c *ServerClient) WaitForTask(ctx context.Context, taskID string, interval time.Duration) (*server.TaskStatusResponse, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := c.GetTaskStatus(ctx, taskID)
		if err != nil {
			return nil, err
		}
		switch status.Status {
		case server.TaskStatusCompleted, server.TaskStatusNoData, server.TaskStatusFailed:
			return status, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *ServerClient) do(req *http.Request, wantStatus int, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: status code %d: %s", ErrNotFound, resp.StatusCode, strings.TrimSpace(string(msg)))
		}
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
