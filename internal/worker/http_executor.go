package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shaiso/Taskmill/internal/domain"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	maxErrorBody       = 200
)

// HTTPExecutor — executor для категории "http".
//
// Выполняет HTTP-запрос (webhook) на основе task.Payload.
//
// Config (из task.Payload):
//   - method (string): HTTP-метод. Default: POST, если задан body, иначе GET
//   - url (string): URL для запроса (обязательно)
//   - headers (map[string]any): HTTP-заголовки
//   - body (any): тело запроса (сериализуется в JSON)
//   - timeout (string): Go duration. Default: 30s
//
// Outputs:
//   - status_code (int): HTTP-код ответа
//   - body (any): тело ответа (JSON или строка)
//
// Ответ с кодом >= 400 — логическая ошибка: task уходит в Fail и
// повторяется по правилам retry планировщика.
type HTTPExecutor struct {
	// Client — HTTP-клиент (default: http.DefaultClient).
	Client *http.Client
}

// Execute выполняет HTTP-запрос.
func (e *HTTPExecutor) Execute(ctx context.Context, task *domain.Task) (*ExecutionResult, error) {
	url := getString(task.Payload, "url", "")
	if url == "" {
		return nil, fmt.Errorf("%w: url is required", ErrInvalidPayload)
	}

	timeout, err := getTimeout(task.Payload)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var bodyReader io.Reader
	method := http.MethodGet
	if body, ok := task.Payload["body"]; ok && body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: marshal body: %v", ErrInvalidPayload, err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
		method = http.MethodPost
	}
	method = getString(task.Payload, "method", method)

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrHTTPRequest, err)
	}

	setHeaders(req, task.Payload)
	if bodyReader != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Taskmill-Task-ID", task.ID.String())

	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHTTPRequest, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrHTTPRequest, err)
	}

	var parsedBody any
	if err := json.Unmarshal(respBody, &parsedBody); err != nil {
		parsedBody = string(respBody)
	}

	result := &ExecutionResult{
		Outputs: map[string]any{
			"status_code": resp.StatusCode,
			"body":        parsedBody,
		},
	}
	if resp.StatusCode >= 400 {
		result.Error = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, truncate(string(respBody), maxErrorBody))
	}
	return result, nil
}

// getString извлекает строку из map с default значением.
func getString(m map[string]any, key, defaultVal string) string {
	if val, ok := m[key]; ok {
		if s, ok := val.(string); ok && s != "" {
			return s
		}
	}
	return defaultVal
}

// getTimeout извлекает таймаут запроса из payload.
func getTimeout(payload map[string]any) (time.Duration, error) {
	s := getString(payload, "timeout", "")
	if s == "" {
		return defaultHTTPTimeout, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: timeout %q", ErrInvalidPayload, s)
	}
	return d, nil
}

// setHeaders устанавливает заголовки из payload.
func setHeaders(req *http.Request, payload map[string]any) {
	switch h := payload["headers"].(type) {
	case map[string]any:
		for key, val := range h {
			if s, ok := val.(string); ok {
				req.Header.Set(key, s)
			}
		}
	case map[string]string:
		for key, val := range h {
			req.Header.Set(key, val)
		}
	}
}

// truncate обрезает строку до указанной длины.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
