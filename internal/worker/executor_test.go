package worker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Taskmill/internal/domain"
)

// --- HTTPExecutor Tests ---

func TestHTTPExecutor_GET_Success(t *testing.T) {
	var taskHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		taskHeader = r.Header.Get("X-Taskmill-Task-ID")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{"result": "ok"})
	}))
	defer server.Close()

	executor := &HTTPExecutor{}
	task := &domain.Task{
		ID:      uuid.New(),
		Payload: map[string]any{"url": server.URL},
	}

	result, err := executor.Execute(context.Background(), task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error != "" {
		t.Fatalf("unexpected execution error: %s", result.Error)
	}
	if result.Outputs["status_code"] != http.StatusOK {
		t.Errorf("expected status 200, got %v", result.Outputs["status_code"])
	}
	body, ok := result.Outputs["body"].(map[string]any)
	if !ok {
		t.Fatalf("body should be map, got %T", result.Outputs["body"])
	}
	if body["result"] != "ok" {
		t.Errorf("expected result=ok, got %v", body["result"])
	}
	if taskHeader != task.ID.String() {
		t.Errorf("X-Taskmill-Task-ID = %q, want %s", taskHeader, task.ID)
	}
}

func TestHTTPExecutor_BodyDefaultsToPOST(t *testing.T) {
	var receivedBody map[string]any
	var receivedMethod, receivedContentType, receivedAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedMethod = r.Method
		receivedContentType = r.Header.Get("Content-Type")
		receivedAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&receivedBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	executor := &HTTPExecutor{Client: server.Client()}
	task := &domain.Task{
		ID: uuid.New(),
		Payload: map[string]any{
			"url":     server.URL,
			"body":    map[string]any{"name": "test"},
			"headers": map[string]any{"Authorization": "Bearer token123"},
		},
	}

	result, err := executor.Execute(context.Background(), task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error != "" {
		t.Fatalf("unexpected execution error: %s", result.Error)
	}
	if receivedMethod != http.MethodPost {
		t.Errorf("expected POST, got %s", receivedMethod)
	}
	if receivedBody["name"] != "test" {
		t.Errorf("server should receive body, got %v", receivedBody)
	}
	if receivedContentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", receivedContentType)
	}
	if receivedAuth != "Bearer token123" {
		t.Errorf("expected Authorization header, got %q", receivedAuth)
	}
}

func TestHTTPExecutor_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "internal"}`))
	}))
	defer server.Close()

	executor := &HTTPExecutor{}
	task := &domain.Task{ID: uuid.New(), Payload: map[string]any{"url": server.URL}}

	result, err := executor.Execute(context.Background(), task)
	if err != nil {
		t.Fatalf("HTTP errors should not be infrastructure errors: %v", err)
	}
	if result.Error == "" {
		t.Error("expected execution error for 500")
	}
	if result.Outputs["status_code"] != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %v", result.Outputs["status_code"])
	}
}

func TestHTTPExecutor_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(2 * time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	executor := &HTTPExecutor{}
	task := &domain.Task{
		ID:      uuid.New(),
		Payload: map[string]any{"url": server.URL, "timeout": "100ms"},
	}

	_, err := executor.Execute(context.Background(), task)
	if !errors.Is(err, ErrHTTPRequest) {
		t.Errorf("expected ErrHTTPRequest, got %v", err)
	}
}

func TestHTTPExecutor_InvalidPayload(t *testing.T) {
	executor := &HTTPExecutor{}
	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"missing url", map[string]any{"method": "GET"}},
		{"bad timeout", map[string]any{"url": "http://localhost", "timeout": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executor.Execute(context.Background(), &domain.Task{ID: uuid.New(), Payload: tt.payload})
			if !errors.Is(err, ErrInvalidPayload) {
				t.Errorf("expected ErrInvalidPayload, got %v", err)
			}
		})
	}
}

// --- DelayExecutor Tests ---

func TestDelayExecutor_Duration(t *testing.T) {
	executor := &DelayExecutor{}
	task := &domain.Task{Payload: map[string]any{"duration": "50ms"}}

	start := time.Now()
	result, err := executor.Execute(context.Background(), task)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outputs["delayed"] != "50ms" {
		t.Errorf("expected delayed=50ms, got %v", result.Outputs["delayed"])
	}
	if elapsed < 40*time.Millisecond {
		t.Error("should have waited at least 40ms")
	}
}

func TestDelayExecutor_DurationSec(t *testing.T) {
	d, err := delayFromPayload(map[string]any{"duration_sec": 0.25})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 250*time.Millisecond {
		t.Errorf("delay = %v, want 250ms", d)
	}

	d, _ = delayFromPayload(map[string]any{"duration_sec": 2})
	if d != 2*time.Second {
		t.Errorf("delay = %v, want 2s", d)
	}

	d, _ = delayFromPayload(nil)
	if d != defaultDelay {
		t.Errorf("delay = %v, want default %v", d, defaultDelay)
	}
}

func TestDelayExecutor_InvalidPayload(t *testing.T) {
	for _, payload := range []map[string]any{
		{"duration": 5},
		{"duration": "later"},
		{"duration": "-1s"},
		{"duration_sec": -1.0},
		{"duration_sec": "1"},
	} {
		if _, err := delayFromPayload(payload); !errors.Is(err, ErrInvalidPayload) {
			t.Errorf("payload %v: expected ErrInvalidPayload, got %v", payload, err)
		}
	}
}

func TestDelayExecutor_ContextCancel(t *testing.T) {
	executor := &DelayExecutor{}
	task := &domain.Task{Payload: map[string]any{"duration": "10s"}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := executor.Execute(ctx, task)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// --- NoopExecutor Tests ---

func TestNoopExecutor_ReturnsPayloadCopy(t *testing.T) {
	task := &domain.Task{Payload: map[string]any{"key": "value"}}

	result, err := NoopExecutor{}.Execute(context.Background(), task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outputs["key"] != "value" {
		t.Errorf("expected key=value, got %v", result.Outputs["key"])
	}

	result.Outputs["key"] = "changed"
	if task.Payload["key"] != "value" {
		t.Error("outputs should not alias payload")
	}
}

func TestNoopExecutor_NilPayload(t *testing.T) {
	result, err := NoopExecutor{}.Execute(context.Background(), &domain.Task{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outputs == nil || len(result.Outputs) != 0 {
		t.Errorf("expected empty outputs, got %v", result.Outputs)
	}
}

// --- Registry Tests ---

func TestNewRegistry_DefaultExecutors(t *testing.T) {
	r := NewRegistry()

	for _, category := range []string{domain.DefaultCategory, "noop", "delay", "http"} {
		executor, err := r.Get(category)
		if err != nil {
			t.Errorf("expected executor for %s, got error: %v", category, err)
		}
		if executor == nil {
			t.Errorf("executor for %s should not be nil", category)
		}
	}
}

func TestRegistry_UnknownCategory(t *testing.T) {
	_, err := NewRegistry().Get("unknown")
	if !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestRegistry_RegisterFunc(t *testing.T) {
	r := NewRegistry()
	called := false
	r.Register("custom", ExecutorFunc(func(_ context.Context, _ *domain.Task) (*ExecutionResult, error) {
		called = true
		return &ExecutionResult{}, nil
	}))

	executor, err := r.Get("custom")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := executor.Execute(context.Background(), &domain.Task{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("custom executor should be called")
	}
}
