package worker

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/shaiso/Taskmill/internal/domain"
)

// Executor выполняет task определённой категории.
//
// Реализации: NoopExecutor, DelayExecutor, HTTPExecutor, ExecutorFunc.
//
// task — копия из планировщика, её можно свободно читать.
// ctx отменяется при остановке Pool и по TaskTimeout.
type Executor interface {
	Execute(ctx context.Context, task *domain.Task) (*ExecutionResult, error)
}

// ExecutorFunc — адаптер функции к Executor.
type ExecutorFunc func(ctx context.Context, task *domain.Task) (*ExecutionResult, error)

// Execute реализует Executor.
func (f ExecutorFunc) Execute(ctx context.Context, task *domain.Task) (*ExecutionResult, error) {
	return f(ctx, task)
}

// ExecutionResult — результат выполнения task.
type ExecutionResult struct {
	// Outputs — выходные данные выполнения (попадают в лог).
	Outputs map[string]any

	// Error — логическая ошибка выполнения (например, HTTP 500).
	// Инфраструктурные ошибки возвращаются через error в Execute().
	// В обоих случаях task уходит в Fail.
	Error string
}

// Registry — реестр executor'ов по категории task.
type Registry struct {
	mu        sync.RWMutex
	executors map[string]Executor
}

// NewRegistry создаёт реестр с executor'ами по умолчанию.
//
// Регистрирует: default и noop (NoopExecutor), delay, http.
func NewRegistry() *Registry {
	r := &Registry{executors: make(map[string]Executor)}
	r.Register(domain.DefaultCategory, NoopExecutor{})
	r.Register("noop", NoopExecutor{})
	r.Register("delay", &DelayExecutor{})
	r.Register("http", &HTTPExecutor{})
	return r
}

// Register добавляет executor для категории. Повторная регистрация
// заменяет прежний executor.
func (r *Registry) Register(category string, executor Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[category] = executor
}

// Get возвращает executor для категории.
func (r *Registry) Get(category string) (Executor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	executor, ok := r.executors[category]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	return executor, nil
}

// NoopExecutor сразу завершает task и возвращает payload как outputs.
type NoopExecutor struct{}

// Execute возвращает копию payload.
func (NoopExecutor) Execute(_ context.Context, task *domain.Task) (*ExecutionResult, error) {
	outputs := maps.Clone(task.Payload)
	if outputs == nil {
		outputs = make(map[string]any)
	}
	return &ExecutionResult{Outputs: outputs}, nil
}
